package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces progress keys.
const DefaultRedisKeyPrefix = "didagoals:"

// RedisStore keeps each goal's records in a sorted set scored by the
// record's timestamp in milliseconds. Members are prefixed with a per-goal
// sequence number, so records of the same millisecond keep insertion order.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisStoreFromURL connects to url (redis://...) and pings the server.
func NewRedisStoreFromURL(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(client, prefix), nil
}

func (s *RedisStore) key(goalID string) string {
	return s.prefix + "progress:" + goalID
}

func (s *RedisStore) seqKey(goalID string) string {
	return s.key(goalID) + ":seq"
}

func (s *RedisStore) Record(ctx context.Context, r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	seq, err := s.client.Incr(ctx, s.seqKey(r.GoalID)).Result()
	if err != nil {
		return fmt.Errorf("failed to store progress: %w", err)
	}
	z := redis.Z{
		Score:  float64(r.RecordedAt.UnixMilli()),
		Member: fmt.Sprintf("%020d|%s", seq, data),
	}
	if err := s.client.ZAdd(ctx, s.key(r.GoalID), z).Err(); err != nil {
		return fmt.Errorf("failed to store progress: %w", err)
	}
	return nil
}

func decodeMember(member string) (Record, error) {
	var r Record
	_, data, ok := strings.Cut(member, "|")
	if !ok {
		return r, fmt.Errorf("failed to decode progress: malformed member")
	}
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return r, fmt.Errorf("failed to decode progress: %w", err)
	}
	return r, nil
}

func (s *RedisStore) Latest(ctx context.Context, goalID string) (*Record, error) {
	vals, err := s.client.ZRevRange(ctx, s.key(goalID), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read latest progress: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	r, err := decodeMember(vals[0])
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RedisStore) History(ctx context.Context, goalID string) ([]Record, error) {
	vals, err := s.client.ZRange(ctx, s.key(goalID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read progress history: %w", err)
	}
	out := make([]Record, 0, len(vals))
	for _, v := range vals {
		r, err := decodeMember(v)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisStore) Forget(ctx context.Context, goalID string) error {
	if err := s.client.Del(ctx, s.key(goalID), s.seqKey(goalID)).Err(); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
