package prefstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"

	"github.com/CoderFake/playerd/internal/domain/prefs"
)

const defaultRedisKey = "playerd:prefs"

// RedisConfig represents Redis store configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string // Namespaced record key (default "playerd:prefs")
}

// RedisStore persists the preference record under a single namespaced key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and returns a store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis")
	}

	key := cfg.Key
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{client: client, key: key}, nil
}

// Load reads the stored record. A missing or malformed record yields
// (nil, nil) so the session starts from defaults.
func (s *RedisStore) Load(ctx context.Context) (*prefs.Preferences, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read preferences key")
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		zlog.Warn().Msgf("prefstore: malformed preferences record, using defaults: key=%s err=%v", s.key, err)
		return nil, nil
	}

	p := decodeRecord(raw)
	if p == nil {
		zlog.Warn().Msgf("prefstore: unreadable preferences record, using defaults: key=%s", s.key)
		return nil, nil
	}
	return p, nil
}

// Save writes the record. No TTL: preferences outlive the session.
func (s *RedisStore) Save(ctx context.Context, p prefs.Preferences) error {
	data, err := json.Marshal(encodeRecord(p))
	if err != nil {
		return errors.Wrap(err, "failed to marshal preferences")
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to write preferences key")
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
