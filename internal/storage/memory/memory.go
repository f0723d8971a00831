package memory

import (
	"context"
	"sync"
)

// Store хранит коллекцию в памяти процесса
type Store[T any] struct {
	mu      sync.RWMutex
	records []T
}

// New создает коллекцию в памяти с начальными записями
func New[T any](seed ...T) *Store[T] {
	return &Store[T]{records: append([]T(nil), seed...)}
}

// Load возвращает копию коллекции
func (s *Store[T]) Load(ctx context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Store заменяет коллекцию копией переданных записей
func (s *Store[T]) Store(ctx context.Context, records []T) error {
	next := make([]T, len(records))
	copy(next, records)

	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
	return nil
}

// Backend - заглушка служебных операций для хранилища в памяти
type Backend struct{}

// Ping всегда успешен
func (Backend) Ping(ctx context.Context) error { return nil }

// Close ничего не делает
func (Backend) Close() error { return nil }
