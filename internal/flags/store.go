package flags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis layout: one JSON value per flag plus a set of known keys.
const (
	indexKey    = "farm:flags:index"
	valuePrefix = "farm:flags:"
)

var keyRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

// Match selects flag keys for List. A nil Match selects every key.
type Match func(key string) bool

// ActionPauses matches the per-action pause switches.
func ActionPauses(key string) bool { return isPauseKey(key) }

// Store keeps operator flags in Redis. Action pause switches live in the
// same keyspace, see gate.go.
type Store struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, errors.New("flags: redis client is nil")
	}
	return &Store{client: client, now: time.Now}, nil
}

func ValidateKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	return nil
}

// Upsert writes the flag and its index entry in one transaction.
func (s *Store) Upsert(ctx context.Context, key string, value bool) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	f := &Flag{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode flag %s: %w", key, err)
	}

	err = s.tx(ctx, func(p redis.Pipeliner) {
		p.Set(ctx, valuePrefix+key, raw, 0)
		p.SAdd(ctx, indexKey, key)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert flag %s: %w", key, err)
	}
	return f, nil
}

func (s *Store) Get(ctx context.Context, key string) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, valuePrefix+key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("get flag %s: %w", key, err)
	}
	return decode(raw)
}

// List returns the flags whose keys match, ordered by key. Keys are filtered
// before values are fetched; index entries without a readable value are
// skipped.
func (s *Store) List(ctx context.Context, match Match) ([]*Flag, error) {
	members, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read flag index: %w", err)
	}

	keys := slices.DeleteFunc(members, func(k string) bool {
		return ValidateKey(k) != nil || (match != nil && !match(k))
	})
	out := make([]*Flag, 0, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	slices.Sort(keys)

	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = valuePrefix + k
	}
	values, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read flag values: %w", err)
	}

	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if f, err := decode(raw); err == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

// Delete removes the flag; deleting a missing flag is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := s.tx(ctx, func(p redis.Pipeliner) {
		p.Del(ctx, valuePrefix+key)
		p.SRem(ctx, indexKey, key)
	})
	if err != nil {
		return fmt.Errorf("delete flag %s: %w", key, err)
	}
	return nil
}

func (s *Store) tx(ctx context.Context, fn func(redis.Pipeliner)) error {
	pipe := s.client.TxPipeline()
	fn(pipe)
	_, err := pipe.Exec(ctx)
	return err
}

func decode(raw string) (*Flag, error) {
	var f Flag
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("decode flag: %w", err)
	}
	return &f, nil
}
