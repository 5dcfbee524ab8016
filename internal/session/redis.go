package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/cinematch/internal/domain"
)

const (
	keyPrefix = "cinematch:"

	// maxUpdateAttempts bounds the optimistic retries in Update.
	maxUpdateAttempts = 10
)

// ErrUpdateConflict is returned when Update keeps losing to concurrent writers.
var ErrUpdateConflict = errors.New("session update conflict")

// releaseScript deletes the guard only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore shares sessions between server instances.
type RedisStore struct {
	client redis.UniversalClient
	opts   Options
}

func NewRedisStore(client redis.UniversalClient, opts Options) *RedisStore {
	return &RedisStore{client: client, opts: opts.withDefaults()}
}

func sessionKey(id string) string {
	return fmt.Sprintf("%ssession:%s", keyPrefix, id)
}

func inflightKey(id string) string {
	return fmt.Sprintf("%sinflight:%s", keyPrefix, id)
}

func (r *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	return r.get(ctx, r.client, id)
}

// getter is satisfied by both the client and a watched *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) get(ctx context.Context, c getter, id string) (*domain.Session, error) {
	key := sessionKey(id)
	val, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", key, err)
	}
	return &s, nil
}

func (r *RedisStore) encode(s *domain.Session) ([]byte, error) {
	c := *s
	c.UpdatedAt = time.Now().UTC()
	val, err := json.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return val, nil
}

// Save writes the session and restarts its TTL.
func (r *RedisStore) Save(ctx context.Context, s *domain.Session) error {
	val, err := r.encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), val, r.opts.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set session in redis: %w", err)
	}
	return nil
}

// Update is an optimistic read-modify-write: the key is watched, and the
// write is retried from a fresh read when another client changed it first.
func (r *RedisStore) Update(ctx context.Context, id string, fn func(*domain.Session) error) (*domain.Session, error) {
	key := sessionKey(id)
	var updated *domain.Session

	txf := func(tx *redis.Tx) error {
		s, err := r.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		s.ID = id
		val, err := r.encode(s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, val, r.opts.TTL)
			return nil
		})
		if err == nil {
			updated = s
		}
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("update session %s: %w", id, ErrUpdateConflict)
}

func (r *RedisStore) Acquire(ctx context.Context, id string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, inflightKey(id), token, r.opts.LockTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire in-flight guard: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (r *RedisStore) Release(ctx context.Context, id, token string) error {
	if err := releaseScript.Run(ctx, r.client, []string{inflightKey(id)}, token).Err(); err != nil {
		return fmt.Errorf("release in-flight guard: %w", err)
	}
	return nil
}

func (r *RedisStore) Busy(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, inflightKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check in-flight guard: %w", err)
	}
	return n > 0, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
