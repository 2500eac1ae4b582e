package biz

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/rag-assistant/pkg/utils/json"
)

// SessionStore 保存各会话的对话历史。
type SessionStore interface {
	// Load 返回会话历史，不存在时返回空。
	Load(ctx context.Context, sessionID string) ([]Turn, error)

	// Append 追加对话，超出上限时淘汰最早的条目。
	Append(ctx context.Context, sessionID string, turns ...Turn) error

	// Clear 清空会话历史。
	Clear(ctx context.Context, sessionID string) error
}

// MemorySessionStore 进程内会话存储。
// 空闲超过 ttl 的会话被淘汰，ttl 为 0 表示不过期。
type MemorySessionStore struct {
	limit int
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	sessions  map[string]*memorySession
	lastSweep time.Time
}

type memorySession struct {
	history  *History
	lastUsed time.Time
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore 创建进程内会话存储。
func NewMemorySessionStore(limit int, ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		limit:    limit,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*memorySession),
	}
}

func (s *MemorySessionStore) expired(sess *memorySession, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.lastUsed) >= s.ttl
}

// sweep 至多每个 ttl 周期遍历一次，删除过期会话。
func (s *MemorySessionStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
		}
	}
}

func (s *MemorySessionStore) Load(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if s.expired(sess, now) {
		delete(s.sessions, sessionID)
		return nil, nil
	}
	sess.lastUsed = now
	return sess.history.Turns(), nil
}

func (s *MemorySessionStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)

	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess, now) {
		sess = &memorySession{history: NewHistory(s.limit)}
		s.sessions[sessionID] = sess
	}
	sess.history.Append(turns...)
	sess.lastUsed = now
	return nil
}

func (s *MemorySessionStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Len 返回当前保存的会话数。
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// RedisSessionConfig Redis 会话存储配置。
type RedisSessionConfig struct {
	// Limit 每个会话保留的条数。
	Limit int
	// TTL 会话过期时间，0 表示不过期。
	TTL time.Duration
	// KeyPrefix 键前缀。
	KeyPrefix string
}

// RedisSessionStore 以 Redis 列表保存会话历史。
type RedisSessionStore struct {
	client goredis.UniversalClient
	config *RedisSessionConfig
}

var _ SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore 创建 Redis 会话存储。
func NewRedisSessionStore(client goredis.UniversalClient, config *RedisSessionConfig) *RedisSessionStore {
	if config == nil {
		config = &RedisSessionConfig{}
	}
	if config.Limit <= 0 {
		config.Limit = DefaultHistoryLimit
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "assistant:session:"
	}
	return &RedisSessionStore{client: client, config: config}
}

func (s *RedisSessionStore) key(sessionID string) string {
	return s.config.KeyPrefix + sessionID
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) ([]Turn, error) {
	items, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	turns := make([]Turn, 0, len(items))
	for _, item := range items {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("decode session turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *RedisSessionStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]any, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode session turn: %w", err)
		}
		values = append(values, string(b))
	}

	key := s.key(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, int64(-s.config.Limit), -1)
		if s.config.TTL > 0 {
			pipe.Expire(ctx, key, s.config.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
