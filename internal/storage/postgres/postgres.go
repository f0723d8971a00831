package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/region23/medbook/internal/storage"
)

// DB - подмножество pgxpool.Pool, нужное хранилищу (позволяет подставить pgxmock)
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStorage хранит коллекции как упорядоченные JSONB документы
type PostgresStorage struct {
	db DB
}

// New открывает пул подключений и выполняет миграции
func New(ctx context.Context, url string, maxConns int, connTimeout time.Duration) (*PostgresStorage, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	if connTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = connTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	s := &PostgresStorage{db: pool}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

// NewWithDB использует переданное подключение (для тестов)
func NewWithDB(db DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// Migrate создает таблицу коллекций
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS records (
			collection TEXT NOT NULL,
			position INTEGER NOT NULL,
			id TEXT NOT NULL,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_position ON records(collection, position)`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}
	return nil
}

// Ping проверяет подключение к базе данных
func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close закрывает пул
func (s *PostgresStorage) Close() error {
	s.db.Close()
	return nil
}

// Table - одна коллекция внутри таблицы records
type Table[T storage.Record] struct {
	s          *PostgresStorage
	collection string
}

// NewTable возвращает коллекцию с указанным именем
func NewTable[T storage.Record](s *PostgresStorage, collection string) *Table[T] {
	return &Table[T]{s: s, collection: collection}
}

// Load читает коллекцию в порядке хранения
func (t *Table[T]) Load(ctx context.Context) ([]T, error) {
	rows, err := t.s.db.Query(ctx, `SELECT payload FROM records WHERE collection = $1 ORDER BY position`, t.collection)
	if err != nil {
		return nil, fmt.Errorf("postgres: query %s: %w", t.collection, err)
	}
	defer rows.Close()

	records := []T{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("postgres: scan %s: %w", t.collection, err)
		}
		var rec T
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("postgres: decode %s: %w", t.collection, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate %s: %w", t.collection, err)
	}
	return records, nil
}

// Store заменяет коллекцию в одной транзакции
func (t *Table[T]) Store(ctx context.Context, records []T) error {
	tx, err := t.s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}

	if err := t.replace(ctx, tx, records); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit %s: %w", t.collection, err)
	}
	return nil
}

func (t *Table[T]) replace(ctx context.Context, tx pgx.Tx, records []T) error {
	if _, err := tx.Exec(ctx, `DELETE FROM records WHERE collection = $1`, t.collection); err != nil {
		return fmt.Errorf("postgres: clear %s: %w", t.collection, err)
	}

	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("postgres: encode %s: %w", t.collection, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO records (collection, position, id, payload) VALUES ($1, $2, $3, $4)`,
			t.collection, i, rec.RecordID(), string(payload),
		); err != nil {
			return fmt.Errorf("postgres: insert %s %s: %w", t.collection, rec.RecordID(), err)
		}
	}
	return nil
}
