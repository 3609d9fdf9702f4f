// Package idempotency запоминает ответы на изменяющие запросы по Idempotency-Key.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Record — сохранённый ответ. Status == 0 означает, что запрос ещё выполняется.
type Record struct {
	RequestHash string          `json:"request_hash"`
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body,omitempty"`
}

func (r Record) Done() bool { return r.Status != 0 }

type Store interface {
	// Reserve атомарно занимает ключ. Если ключ уже занят, возвращает существующую запись и false.
	Reserve(ctx context.Context, key, requestHash string) (*Record, bool, error)
	Complete(ctx context.Context, key string, rec Record) error
	// Release освобождает ключ, если обработчик завершился ошибкой сервера.
	Release(ctx context.Context, key string) error
}

// RequestHash связывает ключ с конкретным запросом.
func RequestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method + ":" + path + ":"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl, prefix: "idempotency:"}
}

// NewRedisClient проверяет соединение сразу, чтобы ошибка конфигурации была видна при старте.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Reserve(ctx context.Context, key, requestHash string) (*Record, bool, error) {
	placeholder, err := json.Marshal(Record{RequestHash: requestHash})
	if err != nil {
		return nil, false, err
	}
	ok, err := s.client.SetNX(ctx, s.prefix+key, placeholder, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// истёк между SetNX и Get, пробуем ещё раз
		return s.Reserve(ctx, key, requestHash)
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("idempotency decode: %w", err)
	}
	return &rec, false, nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
