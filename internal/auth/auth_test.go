package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

const testPassword = "admin123"

var testAdmin = models.AdminIdentity{
	Email: "admin@trucking.com",
	Role:  models.RoleAdmin,
	Name:  "Admin User",
	ID:    "admin-001",
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestManager(t *testing.T) (*Manager, *testClock) {
	t.Helper()
	hash, err := HashPassword(testPassword)
	require.NoError(t, err)
	authenticator, err := NewStaticAuthenticator(testAdmin, hash)
	require.NoError(t, err)
	tokens, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	return NewManager(authenticator, tokens, WithClock(clock.Now)), clock
}

func TestManager_LoginRestoreRoundTrip(t *testing.T) {
	m, clock := newTestManager(t)
	st := NewMemoryStorage()
	ctx := context.Background()

	session, err := m.Login(ctx, st, "admin@trucking.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, testAdmin, session.User)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, clock.now.Add(24*time.Hour), session.ExpiresAt)
	assert.Equal(t, 3, st.Len())

	expires, ok, _ := st.Get(ctx, KeyExpiresAt)
	require.True(t, ok)
	assert.Equal(t, strconv.FormatInt(session.ExpiresAt.UnixMilli(), 10), expires)

	clock.now = clock.now.Add(23 * time.Hour)
	restored, err := m.Restore(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, session.User, restored.User)
	assert.Equal(t, session.Token, restored.Token)
	assert.True(t, session.ExpiresAt.Equal(restored.ExpiresAt))
	assert.Equal(t, StateValid, StateOf(err))
}

func TestManager_LoginEmailCaseInsensitive(t *testing.T) {
	m, _ := newTestManager(t)
	st := NewMemoryStorage()

	session, err := m.Login(context.Background(), st, "  ADMIN@Trucking.com ", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "admin@trucking.com", session.User.Email)
}

func TestManager_LoginAccessDenied(t *testing.T) {
	m, _ := newTestManager(t)
	st := NewMemoryStorage()

	session, err := m.Login(context.Background(), st, "someone@else.com", testPassword)
	assert.Nil(t, session)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAccessDenied))
	assert.Equal(t, "Access denied. Only admin@trucking.com is allowed.", err.Error())
	assert.Equal(t, 0, st.Len())
}

func TestManager_LoginInvalidCredential(t *testing.T) {
	m, _ := newTestManager(t)
	st := NewMemoryStorage()

	_, err := m.Login(context.Background(), st, "admin@trucking.com", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredential))

	var authErr *Error
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Invalid password. Please try again.", authErr.Message)
	assert.Equal(t, 0, st.Len())
}

func TestManager_RestoreNoSession(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Restore(context.Background(), NewMemoryStorage())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, StateNoSession, StateOf(err))
}

func TestManager_RestoreExpired(t *testing.T) {
	m, clock := newTestManager(t)
	st := NewMemoryStorage()
	ctx := context.Background()

	session, err := m.Login(ctx, st, testAdmin.Email, testPassword)
	require.NoError(t, err)

	clock.now = session.ExpiresAt
	_, err = m.Restore(ctx, st)
	require.NoError(t, err, "a session is valid up to and including its expiry instant")

	clock.now = session.ExpiresAt.Add(time.Millisecond)
	_, err = m.Restore(ctx, st)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, StateExpired, StateOf(err))
	assert.Equal(t, 0, st.Len())

	_, err = m.Restore(ctx, st)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_RestorePartialEntries(t *testing.T) {
	m, _ := newTestManager(t)
	st := NewMemoryStorage()
	ctx := context.Background()

	_, err := m.Login(ctx, st, testAdmin.Email, testPassword)
	require.NoError(t, err)
	require.NoError(t, st.Remove(ctx, KeyToken))

	_, err = m.Restore(ctx, st)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, 0, st.Len())
}

func TestManager_RestoreInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, st *MemoryStorage)
	}{
		{
			name: "malformed user",
			mutate: func(t *testing.T, st *MemoryStorage) {
				require.NoError(t, st.Set(context.Background(), KeyUser, "{not json"))
			},
		},
		{
			name: "other identity",
			mutate: func(t *testing.T, st *MemoryStorage) {
				require.NoError(t, st.Set(context.Background(), KeyUser,
					`{"email":"intruder@trucking.com","role":"admin","name":"X","id":"admin-001"}`))
			},
		},
		{
			name: "non admin role",
			mutate: func(t *testing.T, st *MemoryStorage) {
				require.NoError(t, st.Set(context.Background(), KeyUser,
					`{"email":"admin@trucking.com","role":"viewer","name":"Admin User","id":"admin-001"}`))
			},
		},
		{
			name: "unparseable expiry",
			mutate: func(t *testing.T, st *MemoryStorage) {
				require.NoError(t, st.Set(context.Background(), KeyExpiresAt, "tomorrow"))
			},
		},
		{
			name: "forged token",
			mutate: func(t *testing.T, st *MemoryStorage) {
				require.NoError(t, st.Set(context.Background(), KeyToken, "admin_token_123_abc"))
			},
		},
		{
			name: "extended expiry",
			mutate: func(t *testing.T, st *MemoryStorage) {
				v, _, _ := st.Get(context.Background(), KeyExpiresAt)
				ms, err := strconv.ParseInt(v, 10, 64)
				require.NoError(t, err)
				extended := strconv.FormatInt(ms+int64(48*time.Hour/time.Millisecond), 10)
				require.NoError(t, st.Set(context.Background(), KeyExpiresAt, extended))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t)
			st := NewMemoryStorage()
			ctx := context.Background()

			_, err := m.Login(ctx, st, testAdmin.Email, testPassword)
			require.NoError(t, err)
			tt.mutate(t, st)

			_, err = m.Restore(ctx, st)
			assert.ErrorIs(t, err, ErrSessionInvalid)
			assert.Equal(t, StateNoSession, StateOf(err))
			assert.Equal(t, 0, st.Len(), "invalid session must be cleared")
		})
	}
}

func TestManager_Logout(t *testing.T) {
	m, _ := newTestManager(t)
	st := NewMemoryStorage()
	ctx := context.Background()

	_, err := m.Login(ctx, st, testAdmin.Email, testPassword)
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx, st))
	assert.Equal(t, 0, st.Len())

	_, err = m.Restore(ctx, st)
	assert.ErrorIs(t, err, ErrNoSession)

	// logging out without a session is a no-op
	assert.NoError(t, m.Logout(ctx, st))
}

func TestManager_WithTTL(t *testing.T) {
	hash, err := HashPassword(testPassword)
	require.NoError(t, err)
	authenticator, err := NewStaticAuthenticator(testAdmin, hash)
	require.NoError(t, err)
	tokens, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	m := NewManager(authenticator, tokens, WithTTL(time.Hour), WithClock(func() time.Time { return now }))

	session, err := m.Login(context.Background(), NewMemoryStorage(), testAdmin.Email, testPassword)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), session.ExpiresAt)
}

type failingStorage struct {
	*MemoryStorage
}

func (s failingStorage) Set(ctx context.Context, key, value string) error {
	if key == KeyExpiresAt {
		return errors.New("quota exceeded")
	}
	return s.MemoryStorage.Set(ctx, key, value)
}

func TestManager_LoginPersistFailure(t *testing.T) {
	m, _ := newTestManager(t)
	st := failingStorage{NewMemoryStorage()}

	_, err := m.Login(context.Background(), st, testAdmin.Email, testPassword)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist session")
	assert.Equal(t, 0, st.Len())
}

func TestError_Unwrap(t *testing.T) {
	err := &Error{Kind: ErrAccessDenied, Message: "nope"}
	assert.Equal(t, "nope", err.Error())
	assert.True(t, errors.Is(err, ErrAccessDenied))
	assert.False(t, errors.Is(err, ErrInvalidCredential))
}
