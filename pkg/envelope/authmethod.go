package envelope

import "encoding/json"

// AuthMethod is the tagged union of SSH credential variants the Credential
// Envelope encrypts and decrypts. The discriminant is embedded in the
// serialised form (base spec §9 "Credential polymorphism") so new variants
// can be added without invalidating old encrypted blobs.
type AuthMethod struct {
	Kind       Kind    `json:"kind"`
	Password   string  `json:"password,omitempty"`
	KeyPath    string  `json:"key_path,omitempty"`
	Passphrase *string `json:"passphrase,omitempty"`
}

type Kind string

const (
	KindPassword Kind = "password"
	KindKey      Kind = "key"
)

func NewPasswordAuth(password string) AuthMethod {
	return AuthMethod{Kind: KindPassword, Password: password}
}

func NewKeyAuth(keyPath string, passphrase *string) AuthMethod {
	return AuthMethod{Kind: KindKey, KeyPath: keyPath, Passphrase: passphrase}
}

// marshal produces the canonical byte string encrypted by the envelope.
func (m AuthMethod) marshal() ([]byte, error) {
	return json.Marshal(m)
}

func unmarshalAuthMethod(b []byte) (AuthMethod, error) {
	var m AuthMethod
	if err := json.Unmarshal(b, &m); err != nil {
		return AuthMethod{}, err
	}
	return m, nil
}
