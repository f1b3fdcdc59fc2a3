package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/fleet-client/internal/auth"
	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

func newManager(t *testing.T) (*auth.Manager, *auth.Store) {
	t.Helper()

	store := auth.NewStore(t.TempDir())

	manager, err := auth.NewManager(store)
	require.NoError(t, err)

	return manager, store
}

func TestNewManager_Empty(t *testing.T) {
	t.Parallel()

	manager, _ := newManager(t)

	assert.False(t, manager.IsLoggedIn())
	assert.False(t, manager.IsAPIKey())
	assert.False(t, manager.TwoFactorPending())
	assert.Nil(t, manager.Claims())

	credential, ok := manager.Credential()
	assert.False(t, ok)
	assert.Empty(t, credential)
}

func TestNewManager_FromPersistedToken(t *testing.T) {
	t.Parallel()

	token := makeToken(t, jwt.MapClaims{
		"id":       int64(9),
		"username": "ada",
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	store := auth.NewStore(t.TempDir())
	require.NoError(t, store.Save(&auth.Session{Token: token}))

	manager, err := auth.NewManager(store)
	require.NoError(t, err)

	assert.True(t, manager.IsLoggedIn())
	assert.False(t, manager.IsAPIKey())

	credential, ok := manager.Credential()
	assert.True(t, ok)
	assert.Equal(t, token, credential)

	require.NotNil(t, manager.Claims())
	assert.Equal(t, "ada", manager.Claims().Username)
}

func TestNewManager_FromPersistedAPIKey(t *testing.T) {
	t.Parallel()

	store := auth.NewStore(t.TempDir())
	require.NoError(t, store.Save(&auth.Session{APIKey: "persisted-key"}))

	manager, err := auth.NewManager(store)
	require.NoError(t, err)

	assert.True(t, manager.IsLoggedIn())
	assert.True(t, manager.IsAPIKey())
	assert.Nil(t, manager.Claims())
	assert.False(t, manager.NeedsRefresh(time.Now()))

	credential, ok := manager.Credential()
	assert.True(t, ok)
	assert.Equal(t, "persisted-key", credential)
}

func TestNewManager_UndecodablePersistedToken(t *testing.T) {
	t.Parallel()

	store := auth.NewStore(t.TempDir())
	require.NoError(t, store.Save(&auth.Session{Token: "rotted"}))

	manager, err := auth.NewManager(store)
	require.NoError(t, err)

	assert.False(t, manager.IsLoggedIn())

	_, ok := manager.Credential()
	assert.False(t, ok)
}

func TestManager_SetToken(t *testing.T) {
	t.Parallel()

	token := makeToken(t, jwt.MapClaims{
		"id":       int64(3),
		"username": "grace",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	manager, store := newManager(t)

	require.NoError(t, manager.SetToken(token))
	assert.True(t, manager.IsLoggedIn())

	// The credential survives a restart via the store.
	reloaded, err := auth.NewManager(store)
	require.NoError(t, err)
	assert.True(t, reloaded.IsLoggedIn())
}

func TestManager_SetToken_Malformed(t *testing.T) {
	t.Parallel()

	manager, _ := newManager(t)

	err := manager.SetToken("not-a-jwt")
	require.Error(t, err)
	assert.ErrorIs(t, err, fleet.ErrMalformedToken)
	assert.False(t, manager.IsLoggedIn())
}

func TestManager_CredentialSwitch(t *testing.T) {
	t.Parallel()

	token := makeToken(t, jwt.MapClaims{
		"id":       int64(5),
		"username": "ada",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	manager, _ := newManager(t)

	require.NoError(t, manager.SetAPIKey("first-key"))
	assert.True(t, manager.IsAPIKey())

	require.NoError(t, manager.SetToken(token))
	assert.False(t, manager.IsAPIKey())

	credential, ok := manager.Credential()
	assert.True(t, ok)
	assert.Equal(t, token, credential)
}

func TestManager_Clear(t *testing.T) {
	t.Parallel()

	manager, store := newManager(t)

	require.NoError(t, manager.SetAPIKey("key"))
	require.NoError(t, manager.Clear())

	assert.False(t, manager.IsLoggedIn())

	session, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestManager_TwoFactorPending(t *testing.T) {
	t.Parallel()

	token := makeToken(t, jwt.MapClaims{
		"id":                int64(8),
		"username":          "ada",
		"twoFactorRequired": true,
		"exp":               time.Now().Add(time.Hour).Unix(),
	})

	manager, _ := newManager(t)

	require.NoError(t, manager.SetToken(token))

	assert.True(t, manager.TwoFactorPending())
	assert.False(t, manager.IsLoggedIn(), "a pending second factor is not a usable login")
	assert.False(t, manager.NeedsRefresh(time.Now()), "a half-done login cannot refresh")
}

func TestManager_IsLoggedIn_ExpiredToken(t *testing.T) {
	t.Parallel()

	token := makeToken(t, jwt.MapClaims{
		"id":       int64(2),
		"username": "ada",
		"exp":      time.Now().Add(-time.Minute).Unix(),
	})

	manager, _ := newManager(t)

	require.NoError(t, manager.SetToken(token))
	assert.False(t, manager.IsLoggedIn())
}

func TestManager_NeedsRefresh(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name     string
		claims   jwt.MapClaims
		expected bool
	}{
		{
			name:     "fresh token",
			claims:   jwt.MapClaims{"id": int64(1), "exp": now.Add(time.Hour).Unix()},
			expected: false,
		},
		{
			name:     "expiry inside lead time",
			claims:   jwt.MapClaims{"id": int64(1), "exp": now.Add(30 * time.Second).Unix()},
			expected: true,
		},
		{
			name:     "ageing token without expiry",
			claims:   jwt.MapClaims{"id": int64(1), "iat": now.Add(-2 * time.Hour).Unix()},
			expected: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			manager, _ := newManager(t)

			require.NoError(t, manager.SetToken(makeToken(t, tt.claims)))
			assert.Equal(t, tt.expected, manager.NeedsRefresh(now))
		})
	}
}
