package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/models"
)

// memSessionStore is an in-memory SessionStorage for service tests
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]models.Session)}
}

func (m *memSessionStore) UpsertSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = *s
	return nil
}

func (m *memSessionStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return &s, nil
}

func (m *memSessionStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// fakeProvider simulates the identity provider's token endpoint
type fakeProvider struct {
	server        *httptest.Server
	mu            sync.Mutex
	exchanges     int
	refreshes     int
	rejectRefresh bool
	rotateTo      string
	lastGrant     string
	sawBasicAuth  bool
}

func newFakeProvider() *fakeProvider {
	p := &fakeProvider{}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()

		_, _, p.sawBasicAuth = r.BasicAuth()
		r.ParseForm()
		p.lastGrant = r.Form.Get("grant_type")

		w.Header().Set("Content-Type", "application/json")

		switch p.lastGrant {
		case "authorization_code":
			p.exchanges++
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
				"token_type":    "Bearer",
				"expires_in":    3600,
				"scope":         "data:read account:read",
			})
		case "refresh_token":
			p.refreshes++
			if p.rejectRefresh {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
				return
			}
			resp := map[string]interface{}{
				"access_token": fmt.Sprintf("access-%d", p.refreshes+1),
				"token_type":   "Bearer",
				"expires_in":   3600,
			}
			if p.rotateTo != "" {
				resp["refresh_token"] = p.rotateTo
			}
			json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	return p
}

func newTestService(t *testing.T, provider *fakeProvider, cache *Cache) (*Service, *memSessionStore) {
	t.Helper()
	cipher := newTestCipher(t)
	store := newMemSessionStore()
	if cache == nil {
		cache = NewCache()
	}
	svc := NewService(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      provider.server.URL + "/authorize",
		TokenURL:     provider.server.URL + "/token",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Scopes:       []string{"data:read", "account:read"},
	}, cipher, cache, store, arbor.NewLogger())
	return svc, store
}

func TestBeginAuthIssuesStateAndURL(t *testing.T) {
	provider := newFakeProvider()
	defer provider.server.Close()
	svc, _ := newTestService(t, provider, nil)

	authURL, state := svc.BeginAuth()

	assert.NotEmpty(t, state)
	assert.Contains(t, authURL, "state="+state)
	assert.Contains(t, authURL, "client_id=client-id")

	_, state2 := svc.BeginAuth()
	assert.NotEqual(t, state, state2, "each auth attempt gets a fresh state")
}

func TestCompleteAuthStateMismatch(t *testing.T) {
	provider := newFakeProvider()
	defer provider.server.Close()
	svc, store := newTestService(t, provider, nil)

	err := svc.CompleteAuth(context.Background(), "code", "state-a", "state-b", "sess-1")
	assert.ErrorIs(t, err, ErrStateMismatch)

	err = svc.CompleteAuth(context.Background(), "code", "", "", "sess-1")
	assert.ErrorIs(t, err, ErrStateMismatch)

	_, err = store.GetSession(context.Background(), "sess-1")
	assert.Error(t, err, "no session row may exist before a completed exchange")
}

func TestCompleteAuthPersistsEncryptedToken(t *testing.T) {
	provider := newFakeProvider()
	defer provider.server.Close()
	svc, store := newTestService(t, provider, nil)

	err := svc.CompleteAuth(context.Background(), "code", "state", "state", "sess-1")
	require.NoError(t, err)

	assert.True(t, provider.sawBasicAuth, "token endpoint requires Basic client auth")

	session, err := store.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.NotContains(t, session.RefreshTokenEnc, "refresh-1",
		"plaintext refresh token must never be persisted")
	assert.Equal(t, "data:read account:read", session.Scope)

	dec, err := newTestCipher(t).Decrypt(session.RefreshTokenEnc)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", dec)
}

func TestAccessTokenForSessionNotConnected(t *testing.T) {
	provider := newFakeProvider()
	defer provider.server.Close()
	svc, _ := newTestService(t, provider, nil)

	_, err := svc.AccessTokenForSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestAccessTokenRefreshAndCache(t *testing.T) {
	provider := newFakeProvider()
	defer provider.server.Close()

	clock := time.Now()
	cache := NewCacheWithClock(func() time.Time { return clock })
	svc, _ := newTestService(t, provider, cache)

	require.NoError(t, svc.CompleteAuth(context.Background(), "code", "s", "s", "sess-1"))

	// Exchange already cached an access token; no refresh needed yet.
	tok, err := svc.AccessTokenForSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)
	assert.Equal(t, 0, provider.refreshes)

	// Advance past expiry: the next call must hit the refresh grant.
	clock = clock.Add(2 * time.Hour)
	tok, err = svc.AccessTokenForSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok)
	assert.Equal(t, 1, provider.refreshes)
}

func TestAccessTokenPersistsRotatedRefreshToken(t *testing.T) {
	provider := newFakeProvider()
	defer provider.server.Close()
	provider.rotateTo = "refresh-2"

	svc, store := newTestService(t, provider, nil)
	require.NoError(t, svc.CompleteAuth(context.Background(), "code", "s", "s", "sess-1"))
	svc.Invalidate("sess-1")

	_, err := svc.AccessTokenForSession(context.Background(), "sess-1")
	require.NoError(t, err)

	session, err := store.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	dec, err := newTestCipher(t).Decrypt(session.RefreshTokenEnc)
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", dec, "rotated refresh token must be re-encrypted and persisted")
}

func TestAccessTokenRefreshFailed(t *testing.T) {
	provider := newFakeProvider()
	defer provider.server.Close()

	svc, _ := newTestService(t, provider, nil)
	require.NoError(t, svc.CompleteAuth(context.Background(), "code", "s", "s", "sess-1"))
	svc.Invalidate("sess-1")

	provider.rejectRefresh = true
	_, err := svc.AccessTokenForSession(context.Background(), "sess-1")
	assert.ErrorIs(t, err, ErrRefreshFailed)
}

func TestDisconnectRemovesSession(t *testing.T) {
	provider := newFakeProvider()
	defer provider.server.Close()

	svc, _ := newTestService(t, provider, nil)
	require.NoError(t, svc.CompleteAuth(context.Background(), "code", "s", "s", "sess-1"))
	assert.True(t, svc.IsConnected(context.Background(), "sess-1"))

	require.NoError(t, svc.Disconnect(context.Background(), "sess-1"))
	assert.False(t, svc.IsConnected(context.Background(), "sess-1"))

	_, err := svc.AccessTokenForSession(context.Background(), "sess-1")
	assert.ErrorIs(t, err, ErrNotConnected)
}
