// Package auth manages the admin session: login, restoration from
// per-browser storage, expiry and logout.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

var (
	ErrAccessDenied      = errors.New("access denied")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrSessionExpired    = errors.New("session expired")
	ErrSessionInvalid    = errors.New("session invalid")
	ErrNoSession         = errors.New("no session")
)

// Error is an authentication failure with a message fit for the login form.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Keys of the persisted session entries.
const (
	KeyUser      = "trucking_admin_user"
	KeyToken     = "trucking_admin_token"
	KeyExpiresAt = "trucking_admin_expires_at"
)

var sessionKeys = []string{KeyUser, KeyToken, KeyExpiresAt}

// DefaultSessionTTL is how long a session lasts after login.
const DefaultSessionTTL = 24 * time.Hour

// State is the condition of a browser's session slot.
type State string

const (
	StateNoSession State = "no_session"
	StateValid     State = "valid"
	StateExpired   State = "expired"
	StateLoggedOut State = "logged_out"
)

// StateOf maps the error returned by Restore to the slot state.
func StateOf(err error) State {
	switch {
	case err == nil:
		return StateValid
	case errors.Is(err, ErrSessionExpired):
		return StateExpired
	default:
		return StateNoSession
	}
}

// Manager creates, restores and destroys admin sessions.
type Manager struct {
	auth   Authenticator
	tokens *TokenIssuer
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// NewManager creates a session manager.
func NewManager(authenticator Authenticator, tokens *TokenIssuer, opts ...Option) *Manager {
	m := &Manager{
		auth:   authenticator,
		tokens: tokens,
		ttl:    DefaultSessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login verifies the credentials and persists a new session in st.
// Authentication failures are *Error values and leave st untouched.
func (m *Manager) Login(ctx context.Context, st Storage, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	identity, err := m.auth.Authenticate(ctx, email, password)
	if err != nil {
		log.WithError(err).WithField("email", email).Warn("Admin login rejected")
		return nil, err
	}

	now := m.now()
	expiresAt := now.Add(m.ttl).Truncate(time.Millisecond)
	token, err := m.tokens.Issue(identity, now, expiresAt)
	if err != nil {
		return nil, err
	}
	user, err := json.Marshal(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session user: %w", err)
	}

	entries := []struct{ key, value string }{
		{KeyUser, string(user)},
		{KeyToken, token},
		{KeyExpiresAt, strconv.FormatInt(expiresAt.UnixMilli(), 10)},
	}
	for _, e := range entries {
		if err := st.Set(ctx, e.key, e.value); err != nil {
			m.discard(ctx, st)
			return nil, fmt.Errorf("failed to persist session: %w", err)
		}
	}

	log.WithFields(log.Fields{"email": identity.Email, "expires_at": expiresAt}).Info("Admin logged in")
	return &models.Session{User: identity, Token: token, ExpiresAt: expiresAt}, nil
}

// Restore reads the session persisted in st. It returns ErrNoSession when
// nothing restorable is stored, ErrSessionExpired when the session is past
// its expiry and ErrSessionInvalid when the entries are malformed, belong to
// another identity or disagree with each other. Expired and invalid sessions
// are removed from st.
func (m *Manager) Restore(ctx context.Context, st Storage) (*models.Session, error) {
	values := make(map[string]string, len(sessionKeys))
	for _, key := range sessionKeys {
		v, ok, err := st.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
		}
		if ok {
			values[key] = v
		}
	}
	if len(values) == 0 {
		return nil, ErrNoSession
	}
	if len(values) < len(sessionKeys) {
		m.discard(ctx, st)
		return nil, ErrNoSession
	}

	now := m.now()
	ms, err := strconv.ParseInt(values[KeyExpiresAt], 10, 64)
	if err != nil {
		return nil, m.reject(ctx, st, ErrSessionInvalid, "unparseable expiry")
	}
	expiresAt := time.UnixMilli(ms)

	session := &models.Session{Token: values[KeyToken], ExpiresAt: expiresAt}
	if session.Expired(now) {
		return nil, m.reject(ctx, st, ErrSessionExpired, "session expired")
	}

	if err := json.Unmarshal([]byte(values[KeyUser]), &session.User); err != nil {
		return nil, m.reject(ctx, st, ErrSessionInvalid, "malformed user")
	}
	if !m.auth.Recognizes(session.User) {
		return nil, m.reject(ctx, st, ErrSessionInvalid, "unrecognized identity")
	}

	claims, err := m.tokens.Verify(session.Token, now)
	if errors.Is(err, ErrExpiredToken) {
		return nil, m.reject(ctx, st, ErrSessionExpired, "token expired")
	}
	if err != nil {
		return nil, m.reject(ctx, st, ErrSessionInvalid, "bad token")
	}
	if !consistent(claims, session) {
		return nil, m.reject(ctx, st, ErrSessionInvalid, "token does not match session")
	}
	return session, nil
}

// Logout removes the persisted session unconditionally.
func (m *Manager) Logout(ctx context.Context, st Storage) error {
	if err := st.Remove(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	log.WithField("state", StateLoggedOut).Info("Admin logged out")
	return nil
}

func (m *Manager) reject(ctx context.Context, st Storage, kind error, reason string) error {
	log.WithFields(log.Fields{"reason": reason, "state": StateOf(kind)}).Info("Discarding stored session")
	m.discard(ctx, st)
	return kind
}

func (m *Manager) discard(ctx context.Context, st Storage) {
	if err := st.Remove(ctx, sessionKeys...); err != nil {
		log.WithError(err).Warn("Failed to clear stored session")
	}
}

func consistent(claims *TokenClaims, session *models.Session) bool {
	if !strings.EqualFold(claims.Email, session.User.Email) || claims.Subject != session.User.ID {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return math.Abs(claims.ExpiresAt.Time.Sub(session.ExpiresAt).Seconds()) < 1
}
