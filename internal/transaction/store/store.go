package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/routable/internal/item"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectTransactionColumns = `id, item_id, status, location, is_active, created_at, updated_at`

// scanTransaction reads a row in selectTransactionColumns order.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	if err := s.Scan(
		&tx.ID, &tx.ItemID, &tx.Status, &tx.Location, &tx.IsActive, &tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListByItem(ctx context.Context, itemID uuid.UUID) ([]*transaction.Transaction, error) {
	return listByItem(ctx, s.db, itemID, "created_at DESC")
}

func listByItem(ctx context.Context, q querier, itemID uuid.UUID, order string) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE item_id = $1
		ORDER BY ` + order

	rows, err := q.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

func itemLockKey(itemID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(itemID[:])

	return int64(h.Sum64())
}

type itemTx struct {
	tx     *sql.Tx
	itemID uuid.UUID
}

// BeginItem opens a database transaction holding an advisory lock keyed by
// the item and a row lock on the item itself.
func (s *Store) BeginItem(ctx context.Context, itemID uuid.UUID) (transaction.ItemTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning item tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", itemLockKey(itemID)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring item lock: %w", err)
	}

	var id uuid.UUID

	err = dbTx.QueryRowContext(ctx, `SELECT id FROM items WHERE id = $1 FOR UPDATE`, itemID).Scan(&id)
	if err != nil {
		dbTx.Rollback()

		if errors.Is(err, sql.ErrNoRows) {
			return nil, item.ErrNotFound
		}

		return nil, fmt.Errorf("locking item: %w", err)
	}

	return &itemTx{tx: dbTx, itemID: itemID}, nil
}

func (itx *itemTx) Commit() error   { return itx.tx.Commit() }
func (itx *itemTx) Rollback() error { return itx.tx.Rollback() }

func (itx *itemTx) ActiveTransaction(ctx context.Context) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE item_id = $1 AND is_active`

	tx, err := scanTransaction(itx.tx.QueryRowContext(ctx, query, itx.itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting active transaction: %w", err)
	}

	return tx, nil
}

func (itx *itemTx) Transactions(ctx context.Context) ([]*transaction.Transaction, error) {
	return listByItem(ctx, itx.tx, itx.itemID, "created_at ASC")
}

func (itx *itemTx) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	tx.ItemID = itx.itemID
	tx.Normalize()

	query := `
		INSERT INTO transactions (item_id, status, location, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := itx.tx.QueryRowContext(ctx, query,
		tx.ItemID,
		tx.Status,
		tx.Location,
		tx.IsActive,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (itx *itemTx) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	tx.Normalize()

	query := `
		UPDATE transactions
		SET status = $1, location = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4 AND item_id = $5
		RETURNING updated_at
	`

	err := itx.tx.QueryRowContext(ctx, query,
		tx.Status,
		tx.Location,
		tx.IsActive,
		tx.ID,
		itx.itemID,
	).Scan(&tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transaction.ErrNotFound
		}

		return fmt.Errorf("updating transaction: %w", err)
	}

	return nil
}

func (itx *itemTx) UpdateItemState(ctx context.Context, state item.State) error {
	res, err := itx.tx.ExecContext(ctx,
		`UPDATE items SET state = $1, updated_at = NOW() WHERE id = $2`,
		state, itx.itemID,
	)
	if err != nil {
		return fmt.Errorf("updating item state: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating item state: %w", err)
	}

	if n == 0 {
		return item.ErrNotFound
	}

	return nil
}
