package frontier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"imgscraper/pkg/config"
	"imgscraper/pkg/logger"
)

// Backends accepted by New
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// VisitedSet records the URLs already taken from the queue for one seed
type VisitedSet interface {
	// Add marks url as visited and reports whether it was new
	Add(ctx context.Context, url string) (bool, error)
	Contains(ctx context.Context, url string) (bool, error)
	Len(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

// Store hands out a fresh VisitedSet per seed
type Store interface {
	ForSeed(ctx context.Context, seed string) (VisitedSet, error)
	Close() error
}

// New returns the Store selected by cfg.Backend. runID namespaces Redis
// keys so that concurrent runs do not share state.
func New(ctx context.Context, cfg *config.FrontierConfig, runID string, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	switch cfg.Backend {
	case "", BackendMemory:
		return memoryStore{}, nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		log.WithFields(map[string]interface{}{
			"addr":   cfg.RedisAddr,
			"run_id": runID,
		}).Debug("Using redis visited set")
		return NewRedisStore(client, cfg.KeyPrefix, runID, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown frontier backend %q", cfg.Backend)
	}
}

type memoryStore struct{}

func (memoryStore) ForSeed(context.Context, string) (VisitedSet, error) {
	return NewMemoryVisited(), nil
}

func (memoryStore) Close() error { return nil }

// MemoryVisited is an in-process VisitedSet
type MemoryVisited struct {
	seen map[string]struct{}
}

// NewMemoryVisited creates an empty in-memory set
func NewMemoryVisited() *MemoryVisited {
	return &MemoryVisited{seen: make(map[string]struct{})}
}

func (m *MemoryVisited) Add(_ context.Context, url string) (bool, error) {
	if _, ok := m.seen[url]; ok {
		return false, nil
	}
	m.seen[url] = struct{}{}
	return true, nil
}

func (m *MemoryVisited) Contains(_ context.Context, url string) (bool, error) {
	_, ok := m.seen[url]
	return ok, nil
}

func (m *MemoryVisited) Len(context.Context) (int64, error) {
	return int64(len(m.seen)), nil
}

func (m *MemoryVisited) Reset(context.Context) error {
	m.seen = make(map[string]struct{})
	return nil
}

// RedisStore keeps one Redis set per seed
type RedisStore struct {
	client *redis.Client
	prefix string
	runID  string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, prefix, runID string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, runID: runID, ttl: ttl}
}

// ForSeed returns an empty set keyed by the seed's hash
func (s *RedisStore) ForSeed(ctx context.Context, seed string) (VisitedSet, error) {
	v := &RedisVisited{
		client: s.client,
		key:    fmt.Sprintf("%s:%s:visited:%s", s.prefix, s.runID, hashURL(seed)),
		ttl:    s.ttl,
	}
	if err := v.Reset(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// RedisVisited is a VisitedSet backed by a Redis SET
type RedisVisited struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// Key returns the Redis key holding the set
func (v *RedisVisited) Key() string { return v.key }

func (v *RedisVisited) Add(ctx context.Context, url string) (bool, error) {
	pipe := v.client.TxPipeline()
	added := pipe.SAdd(ctx, v.key, url)
	if v.ttl > 0 {
		pipe.Expire(ctx, v.key, v.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis SADD %s: %w", v.key, err)
	}
	return added.Val() == 1, nil
}

func (v *RedisVisited) Contains(ctx context.Context, url string) (bool, error) {
	ok, err := v.client.SIsMember(ctx, v.key, url).Result()
	if err != nil {
		return false, fmt.Errorf("redis SISMEMBER %s: %w", v.key, err)
	}
	return ok, nil
}

func (v *RedisVisited) Len(ctx context.Context) (int64, error) {
	n, err := v.client.SCard(ctx, v.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis SCARD %s: %w", v.key, err)
	}
	return n, nil
}

func (v *RedisVisited) Reset(ctx context.Context) error {
	if err := v.client.Del(ctx, v.key).Err(); err != nil {
		return fmt.Errorf("redis DEL %s: %w", v.key, err)
	}
	return nil
}

// hashURL shortens a URL into a stable key component
func hashURL(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
