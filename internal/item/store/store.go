package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/routable/internal/item"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectItemColumns = `id, amount, state, created_at, updated_at`

func scanItem(s scanner) (*item.Item, error) {
	var (
		it    item.Item
		state string
	)

	if err := s.Scan(&it.ID, &it.Amount, &state, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}

	it.State = item.State(state)

	return &it, nil
}

const insertItem = `
	INSERT INTO items (amount, state, created_at, updated_at)
	VALUES ($1, $2, NOW(), NOW())
	RETURNING id, created_at, updated_at
`

func (s *Store) CreateItem(ctx context.Context, it *item.Item) error {
	err := s.db.QueryRowContext(ctx, insertItem, it.Amount, it.State).
		Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}

	return nil
}

// CreateItems inserts all items in a single database transaction.
func (s *Store) CreateItems(ctx context.Context, items []*item.Item) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, insertItem)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if err := stmt.QueryRowContext(ctx, it.Amount, it.State).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return fmt.Errorf("creating item: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	query := `SELECT ` + selectItemColumns + ` FROM items WHERE id = $1`

	it, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, item.ErrNotFound
		}

		return nil, fmt.Errorf("getting item: %w", err)
	}

	return it, nil
}

func (s *Store) ListItems(ctx context.Context) ([]*item.Item, error) {
	query := `SELECT ` + selectItemColumns + ` FROM items ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []*item.Item

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}

		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item rows: %w", err)
	}

	return items, nil
}
