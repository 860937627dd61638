package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

var _ StateStore = (*RedisStateStore)(nil)

// RedisStateStore keeps conversations in Redis so pending drafts survive a
// restart. Keys never expire; a draft waits until it is confirmed, cancelled
// or replaced.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return c, nil
}

// NewRedisStateStore creates a store using keys of the form broadcast:conv:<id>.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: "broadcast:conv:"}
}

func (s *RedisStateStore) key(adminID int64) string {
	return fmt.Sprintf("%s%d", s.prefix, adminID)
}

func (s *RedisStateStore) Load(ctx context.Context, adminID int64) (Conversation, error) {
	return s.decode(adminID, s.client.Get(ctx, s.key(adminID)))
}

// Take uses GETDEL, which needs Redis 6.2 or newer.
func (s *RedisStateStore) Take(ctx context.Context, adminID int64) (Conversation, error) {
	return s.decode(adminID, s.client.GetDel(ctx, s.key(adminID)))
}

func (s *RedisStateStore) decode(adminID int64, cmd *redis.StringCmd) (Conversation, error) {
	data, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return Conversation{State: StateIdle}, nil
	}
	if err != nil {
		return Conversation{}, err
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return Conversation{}, fmt.Errorf("corrupt conversation state for %d: %w", adminID, err)
	}
	return conv, nil
}

func (s *RedisStateStore) Save(ctx context.Context, adminID int64, conv Conversation) error {
	if conv.State == StateIdle {
		return s.Delete(ctx, adminID)
	}

	data, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(adminID), data, 0).Err()
}

func (s *RedisStateStore) Delete(ctx context.Context, adminID int64) error {
	return s.client.Del(ctx, s.key(adminID)).Err()
}
