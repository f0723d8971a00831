package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/region23/medbook/internal/storage"

	_ "modernc.org/sqlite"
)

// SQLiteStorage хранит коллекции как упорядоченные JSON документы в SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New создает новое подключение к SQLite базе данных
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite поддерживает только одно write-подключение
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStorage{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return s, nil
}

// NewWithDB использует готовое подключение без миграций (для тестов с sqlmock)
func NewWithDB(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

// migrate выполняет миграции базы данных
func (s *SQLiteStorage) migrate() error {
	// WAL для лучшей конкурентности читателей
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS records (
			collection TEXT NOT NULL,
			position INTEGER NOT NULL,
			id TEXT NOT NULL,
			payload TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_position ON records(collection, position)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}

// Close закрывает подключение к базе данных
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping проверяет подключение к базе данных
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Table - одна коллекция внутри таблицы records
type Table[T storage.Record] struct {
	s          *SQLiteStorage
	collection string
}

// NewTable возвращает коллекцию с указанным именем
func NewTable[T storage.Record](s *SQLiteStorage, collection string) *Table[T] {
	return &Table[T]{s: s, collection: collection}
}

// Load читает коллекцию в порядке хранения
func (t *Table[T]) Load(ctx context.Context) ([]T, error) {
	query := `SELECT payload FROM records WHERE collection = ? ORDER BY position`

	rows, err := t.s.db.QueryContext(ctx, query, t.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.collection, err)
	}
	defer rows.Close()

	records := []T{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", t.collection, err)
		}
		var rec T
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s record: %w", t.collection, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", t.collection, err)
	}

	return records, nil
}

// Store заменяет коллекцию в одной транзакции
func (t *Table[T]) Store(ctx context.Context, records []T) error {
	tx, err := t.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := t.replace(ctx, tx, records); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", t.collection, err)
	}
	return nil
}

func (t *Table[T]) replace(ctx context.Context, tx *sql.Tx, records []T) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, t.collection); err != nil {
		return fmt.Errorf("failed to clear %s: %w", t.collection, err)
	}

	query := `INSERT INTO records (collection, position, id, payload) VALUES (?, ?, ?, ?)`
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode %s record: %w", t.collection, err)
		}
		if _, err := tx.ExecContext(ctx, query, t.collection, i, rec.RecordID(), string(payload)); err != nil {
			return fmt.Errorf("failed to insert %s record %s: %w", t.collection, rec.RecordID(), err)
		}
	}
	return nil
}
