package repository

import (
	"context"
	"sync"
	"time"
)

// NewMemoryStore returns a Store backed by plain maps, for logic tests
// that would otherwise need a live Postgres instance. It implements the
// same monotonic-server_ver and soft-delete semantics as pgStore, except
// that soft-deleting a row that does not exist returns ErrNotFound here,
// where pgStore's UPDATE matches no row and returns nil.
func NewMemoryStore() Store {
	return &memStore{
		users:    map[string]*User{},
		profiles: map[string]*Profile{},
		sessions: map[string]*SshSession{},
	}
}

type memStore struct {
	mu       sync.Mutex
	users    map[string]*User
	profiles map[string]*Profile
	sessions map[string]*SshSession
}

func (s *memStore) Users() Users       { return &memUsers{s} }
func (s *memStore) Profiles() Profiles { return &memProfiles{s} }
func (s *memStore) Sessions() Sessions { return &memSessions{s} }

// WithTx has no real transaction semantics in memory; the Sync Endpoint's
// logic never depends on rollback for the in-memory fake, only atomicity
// of the unified timestamp, which a single-goroutine test always has.
func (s *memStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(s)
}

type memUsers struct{ s *memStore }

func (m *memUsers) Create(ctx context.Context, u *User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *u
	m.s.users[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Email == email && u.DeletedAt == nil {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *memUsers) SoftDelete(ctx context.Context, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.DeletedAt = &at
	u.UpdatedAt = at
	return nil
}

type memProfiles struct{ s *memStore }

func (m *memProfiles) Create(ctx context.Context, p *Profile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *p
	m.s.profiles[p.UserID] = &cp
	return nil
}

func (m *memProfiles) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.profiles[userID]
	if !ok || p.DeletedAt != nil {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) Merge(ctx context.Context, userID string, patch ProfilePatch, at time.Time) (*Profile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.profiles[userID]
	if !ok {
		p := &Profile{
			UserID: userID, Username: patch.Username, Phone: patch.Phone, QQ: patch.QQ,
			WeChat: patch.WeChat, Bio: patch.Bio, AvatarData: patch.AvatarData, AvatarMime: patch.AvatarMime,
			ServerVer: 1, CreatedAt: at, UpdatedAt: at,
		}
		m.s.profiles[userID] = p
		cp := *p
		return &cp, nil
	}
	merged := mergeProfilePatch(existing, patch)
	merged.ServerVer = existing.ServerVer + 1
	merged.UpdatedAt = at
	m.s.profiles[userID] = merged
	cp := *merged
	return &cp, nil
}

func (m *memProfiles) SoftDelete(ctx context.Context, userID string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.DeletedAt = &at
	p.UpdatedAt = at
	return nil
}

type memSessions struct{ s *memStore }

func (m *memSessions) Create(ctx context.Context, s *SshSession) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *s
	m.s.sessions[s.ID] = &cp
	return nil
}

func (m *memSessions) GetByID(ctx context.Context, userID, id string) (*SshSession, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	s, ok := m.s.sessions[id]
	if !ok || s.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) ListByUser(ctx context.Context, userID string) ([]SshSession, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []SshSession
	for _, s := range m.s.sessions {
		if s.UserID == userID && s.DeletedAt == nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSessions) ListUpdatedSince(ctx context.Context, userID string, since *time.Time) ([]SshSession, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []SshSession
	for _, s := range m.s.sessions {
		if s.UserID != userID || s.DeletedAt != nil {
			continue
		}
		if since == nil || s.UpdatedAt.After(*since) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSessions) Update(ctx context.Context, s *SshSession, at time.Time) (int32, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.sessions[s.ID]
	if !ok {
		return 0, ErrNotFound
	}
	newVer := existing.ServerVer + 1
	updated := *s
	updated.ServerVer = newVer
	updated.UpdatedAt = at
	updated.CreatedAt = existing.CreatedAt
	m.s.sessions[s.ID] = &updated
	return newVer, nil
}

func (m *memSessions) SoftDelete(ctx context.Context, userID, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	s, ok := m.s.sessions[id]
	if !ok || s.UserID != userID {
		return ErrNotFound
	}
	if s.DeletedAt != nil {
		return nil // idempotent
	}
	s.DeletedAt = &at
	s.UpdatedAt = at
	return nil
}

func (m *memSessions) Duplicate(ctx context.Context, source *SshSession, newID string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	dup := *source
	dup.ID = newID
	dup.ServerVer = 1
	dup.CreatedAt = at
	dup.UpdatedAt = at
	dup.LastSyncedAt = &at
	dup.DeletedAt = nil
	m.s.sessions[newID] = &dup
	return nil
}
