package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Dir - каталог с JSON файлами коллекций
type Dir struct {
	path string
}

// Open создает каталог данных, если он отсутствует
func Open(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &Dir{path: path}, nil
}

// Ping проверяет доступность каталога
func (d *Dir) Ping(ctx context.Context) error {
	info, err := os.Stat(d.path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", d.path)
	}
	return nil
}

// Close ничего не держит открытым
func (d *Dir) Close() error { return nil }

// File хранит одну коллекцию в файле <name>.json
type File[T any] struct {
	path string
}

// NewFile возвращает файл коллекции, создавая пустой массив при первом обращении
func NewFile[T any](d *Dir, name string) (*File[T], error) {
	f := &File[T]{path: filepath.Join(d.path, name+".json")}
	if _, err := os.Stat(f.path); os.IsNotExist(err) {
		if err := os.WriteFile(f.path, []byte("[]"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", f.path, err)
		}
	}
	return f, nil
}

// Load читает и разбирает файл целиком
func (f *File[T]) Load(ctx context.Context) ([]T, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.path, err)
	}
	return records, nil
}

// Store пишет временный файл и переименовывает его поверх старого
func (f *File[T]) Store(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", f.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}
