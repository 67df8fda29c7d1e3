package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PhoneCodeKeyPrefix is the Redis key prefix for pending verification codes.
const PhoneCodeKeyPrefix = "phone_code:"

// RedisCodeStore stores pending codes in Redis. The key TTL matches the
// code's expiry so abandoned codes clean themselves up, but the ExpiresAt
// field stays authoritative for the confirm check.
type RedisCodeStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisCodeStore(client *redis.Client, now func() time.Time) *RedisCodeStore {
	if now == nil {
		now = time.Now
	}
	return &RedisCodeStore{client: client, now: now}
}

func (s *RedisCodeStore) Get(ctx context.Context, phone string) (PendingCode, bool, error) {
	val, err := s.client.Get(ctx, PhoneCodeKeyPrefix+phone).Result()
	if err == redis.Nil {
		return PendingCode{}, false, nil
	}
	if err != nil {
		return PendingCode{}, false, err
	}

	var pending PendingCode
	if err := json.Unmarshal([]byte(val), &pending); err != nil {
		return PendingCode{}, false, err
	}
	return pending, true, nil
}

func (s *RedisCodeStore) Set(ctx context.Context, phone string, code PendingCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return err
	}
	ttl := code.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		ttl = time.Second
	}
	// SET overwrites any prior pending code for this phone.
	return s.client.Set(ctx, PhoneCodeKeyPrefix+phone, data, ttl).Err()
}

func (s *RedisCodeStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, PhoneCodeKeyPrefix+phone).Err()
}

// MemoryCodeStore is the in-memory CodeStore used in tests.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]PendingCode
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[string]PendingCode)}
}

func (s *MemoryCodeStore) Get(ctx context.Context, phone string) (PendingCode, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[phone]
	return code, ok, nil
}

func (s *MemoryCodeStore) Set(ctx context.Context, phone string, code PendingCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[phone] = code
	return nil
}

func (s *MemoryCodeStore) Delete(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, phone)
	return nil
}
