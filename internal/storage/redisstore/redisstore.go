package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStorage хранит каждую коллекцию как JSON массив под отдельным ключом
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// New подключается к Redis и проверяет соединение
func New(ctx context.Context, addr, password string, db int, prefix string) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewWithClient(client, prefix), nil
}

// NewWithClient использует готовый клиент (для тестов с miniredis)
func NewWithClient(client *redis.Client, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "medbook"
	}
	return &RedisStorage{client: client, prefix: prefix}
}

// Ping проверяет соединение
func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close закрывает клиент
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

func (s *RedisStorage) key(collection string) string {
	return s.prefix + ":" + collection
}

// List - коллекция под одним ключом
type List[T any] struct {
	s   *RedisStorage
	key string
}

// NewList возвращает коллекцию с указанным именем
func NewList[T any](s *RedisStorage, collection string) *List[T] {
	return &List[T]{s: s, key: s.key(collection)}
}

// Load читает коллекцию; отсутствующий ключ - пустая коллекция
func (l *List[T]) Load(ctx context.Context) ([]T, error) {
	data, err := l.s.client.Get(ctx, l.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", l.key, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("redis: decode %s: %w", l.key, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Store заменяет коллекцию одной командой SET
func (l *List[T]) Store(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", l.key, err)
	}
	if err := l.s.client.Set(ctx, l.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", l.key, err)
	}
	return nil
}
