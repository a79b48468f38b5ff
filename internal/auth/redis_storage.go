package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// BrowserCookie names the cookie that identifies a browser to RedisStorage.
const BrowserCookie = "fuelroute_browser"

// RedisStorage keeps the entries of one browser in Redis under
// "<prefix>:<browser id>:<key>", each expiring after ttl.
type RedisStorage struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisStorage creates the storage of browserID.
func NewRedisStorage(client *redis.Client, prefix, browserID string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client:    client,
		namespace: fmt.Sprintf("%s:%s", prefix, browserID),
		ttl:       ttl,
	}
}

func (s *RedisStorage) key(k string) string {
	return s.namespace + ":" + k
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(k))
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// RedisProvider identifies browsers with a random id cookie and keeps their
// entries in Redis.
type RedisProvider struct {
	Client  *redis.Client
	Prefix  string
	TTL     time.Duration
	Options CookieOptions
}

// ConnectRedis parses url, connects and pings.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (p RedisProvider) StorageFor(w http.ResponseWriter, r *http.Request) Storage {
	if c, err := r.Cookie(BrowserCookie); err == nil && c.Value != "" {
		return NewRedisStorage(p.Client, p.prefix(), c.Value, p.TTL)
	}
	browserID := uuid.NewString()
	p.issueBrowserID(w, r, browserID)
	return NewRedisStorage(p.Client, p.prefix(), browserID, p.TTL)
}

// RotatedStorageFor returns the storage of a newly issued browser id. The
// browser is only moved to it on the first write, so an attempt that
// persists nothing keeps the id the browser already had.
func (p RedisProvider) RotatedStorageFor(w http.ResponseWriter, r *http.Request) Storage {
	browserID := uuid.NewString()
	return &rotatedStorage{
		RedisStorage: NewRedisStorage(p.Client, p.prefix(), browserID, p.TTL),
		issue:        func() { p.issueBrowserID(w, r, browserID) },
	}
}

func (p RedisProvider) prefix() string {
	if p.Prefix == "" {
		return "fuelroute:session"
	}
	return p.Prefix
}

func (p RedisProvider) issueBrowserID(w http.ResponseWriter, r *http.Request, browserID string) {
	path := p.Options.Path
	if path == "" {
		path = "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     BrowserCookie,
		Value:    browserID,
		Path:     path,
		MaxAge:   int(p.TTL / time.Second),
		HttpOnly: true,
		Secure:   p.Options.Secure,
		SameSite: http.SameSiteStrictMode,
	})

	// later lookups during this request must see the same browser
	cookies := r.Cookies()
	r.Header.Del("Cookie")
	for _, c := range cookies {
		if c.Name != BrowserCookie {
			r.AddCookie(c)
		}
	}
	r.AddCookie(&http.Cookie{Name: BrowserCookie, Value: browserID})
}

// Rotator is implemented by providers that can give a browser a new
// identity, which a login uses so an id planted before it is worthless.
type Rotator interface {
	RotatedStorageFor(w http.ResponseWriter, r *http.Request) Storage
}

var _ Rotator = RedisProvider{}

type rotatedStorage struct {
	*RedisStorage
	once  sync.Once
	issue func()
}

func (s *rotatedStorage) Set(ctx context.Context, key, value string) error {
	s.once.Do(s.issue)
	return s.RedisStorage.Set(ctx, key, value)
}
