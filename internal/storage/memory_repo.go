package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_memory_store.go -package=mocks ollama-rag-relay/internal/storage MemoryStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// MemoryStore defines the interface for memory storage operations.
type MemoryStore interface {
	// Insert stores a memory. Inserting an ID that already exists is a no-op
	// and reports false.
	Insert(ctx context.Context, m *Memory) (bool, error)
	// GetByID gets a memory by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*Memory, error)
	// GetByIDs returns the memories with the given IDs keyed by ID.
	// Missing IDs are simply absent from the result.
	GetByIDs(ctx context.Context, ids []string) (map[string]*Memory, error)
	// Count returns the number of stored memories.
	Count(ctx context.Context) (int, error)
}

// MemoryRepo provides methods for memory operations.
// It implements the MemoryStore interface.
type MemoryRepo struct {
	db *sql.DB
}

// NewMemoryRepo creates a new MemoryRepo.
func NewMemoryRepo(db *sql.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

// Insert stores a memory unless one with the same ID exists.
func (r *MemoryRepo) Insert(ctx context.Context, m *Memory) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO memories (id, text, source, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO NOTHING",
		m.ID, m.Text, m.Source, m.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// GetByID gets a memory by its ID. Returns ErrNotFound if not found.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (*Memory, error) {
	var m Memory
	err := r.db.QueryRowContext(ctx,
		"SELECT id, text, source, created_at FROM memories WHERE id = ?",
		id,
	).Scan(&m.ID, &m.Text, &m.Source, &m.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query memory: %w", err)
	}

	return &m, nil
}

// GetByIDs returns the memories with the given IDs keyed by ID.
func (r *MemoryRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*Memory, error) {
	result := make(map[string]*Memory, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, text, source, created_at FROM memories WHERE id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var m Memory
		if err := rows.Scan(&m.ID, &m.Text, &m.Source, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		result[m.ID] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

// Count returns the number of stored memories.
func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memories").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return n, nil
}
