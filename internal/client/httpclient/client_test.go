package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/token"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, message string, data interface{}) {
	w.WriteHeader(status)
	raw, _ := json.Marshal(data)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code": status, "message": message, "data": json.RawMessage(raw),
	})
}

// Base spec §3 step 4: a 400 from /auth/refresh is a definitive
// rejection of the refresh token itself.
func TestRefreshViaServerMaps400ToErrRefreshFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, "refresh token invalid", nil)
	}))
	defer srv.Close()

	c := New(srv.URL, token.NewManager())
	_, _, err := c.refreshViaServer(context.Background(), "stale-refresh")
	require.ErrorIs(t, err, token.ErrRefreshFailed)
}

// A 5xx is the server having a bad moment, not evidence the refresh
// token is dead — it must not force a logout.
func TestRefreshViaServer5xxIsNotTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusServiceUnavailable, "database unavailable", nil)
	}))
	defer srv.Close()

	c := New(srv.URL, token.NewManager())
	_, _, err := c.refreshViaServer(context.Background(), "stale-refresh")
	require.Error(t, err)
	require.False(t, errors.Is(err, token.ErrRefreshFailed))
}

// A response body that fails to decode is treated the same as a 400:
// the server's answer is unusable either way.
func TestRefreshViaServerMalformedBodyIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, token.NewManager())
	_, _, err := c.refreshViaServer(context.Background(), "stale-refresh")
	require.ErrorIs(t, err, token.ErrRefreshFailed)
}

func TestRefreshViaServerSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "", map[string]string{
			"access_token": "new-access", "refresh_token": "new-refresh",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, token.NewManager())
	access, refresh, err := c.refreshViaServer(context.Background(), "stale-refresh")
	require.NoError(t, err)
	require.Equal(t, "new-access", access)
	require.Equal(t, "new-refresh", refresh)
}
