package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync"
	"time"
)

// Storage is the per-browser key/value space a session is persisted in.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// StorageProvider resolves the Storage of the browser behind a request.
type StorageProvider interface {
	StorageFor(w http.ResponseWriter, r *http.Request) Storage
}

// MemoryStorage keeps entries in process memory.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]string)}
}

func (s *MemoryStorage) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *MemoryStorage) Remove(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SharedMemoryProvider hands every request the same MemoryStorage, which
// makes the whole process behave as a single browser.
type SharedMemoryProvider struct {
	Storage *MemoryStorage
}

func (p SharedMemoryProvider) StorageFor(w http.ResponseWriter, r *http.Request) Storage {
	return p.Storage
}

// CookieOptions configure the cookies written by CookieStorage.
type CookieOptions struct {
	Path   string
	Secure bool
	MaxAge time.Duration
}

// CookieStorage keeps each entry in its own HTTP-only cookie. Values are
// base64url encoded so serialized JSON survives cookie sanitizing. Writes made
// while handling the request are visible to later reads of the same request.
type CookieStorage struct {
	w       http.ResponseWriter
	r       *http.Request
	opts    CookieOptions
	mu      sync.Mutex
	pending map[string]*string
}

// NewCookieStorage creates the cookie storage of one request.
func NewCookieStorage(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStorage {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &CookieStorage{w: w, r: r, opts: opts, pending: make(map[string]*string)}
}

func (s *CookieStorage) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.pending[key]; ok {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}
	cookie, err := s.r.Cookie(key)
	if err != nil {
		return "", false, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		// undecodable cookies are reported as garbage, not as absent
		return cookie.Value, true, nil
	}
	return string(decoded), true, nil
}

func (s *CookieStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(value)),
		Path:     s.opts.Path,
		MaxAge:   int(s.opts.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	v := value
	s.pending[key] = &v
	return nil
}

func (s *CookieStorage) Remove(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if _, err := s.r.Cookie(key); err != nil && s.pending[key] == nil {
			continue
		}
		http.SetCookie(s.w, &http.Cookie{
			Name:     key,
			Value:    "",
			Path:     s.opts.Path,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.opts.Secure,
			SameSite: http.SameSiteStrictMode,
		})
		s.pending[key] = nil
	}
	return nil
}

// CookieProvider serves a CookieStorage per request.
type CookieProvider struct {
	Options CookieOptions
}

func (p CookieProvider) StorageFor(w http.ResponseWriter, r *http.Request) Storage {
	return NewCookieStorage(w, r, p.Options)
}
