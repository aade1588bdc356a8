package transaction_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/routable/internal/item"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
)

// memStore is an in-memory Repository. Each item has its own mutex, held
// from BeginItem until Commit or Rollback; writes are staged and only
// published on Commit.
type memStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*item.Item
	txs   map[uuid.UUID][]*transaction.Transaction
	locks map[uuid.UUID]*sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		items: make(map[uuid.UUID]*item.Item),
		txs:   make(map[uuid.UUID][]*transaction.Transaction),
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *memStore) addItem(amount int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.items[id] = &item.Item{
		ID:        id,
		Amount:    decimal.NewFromInt(amount),
		State:     item.StateProcessing,
		CreatedAt: time.Now(),
	}
	s.locks[id] = &sync.Mutex{}

	return id
}

func (s *memStore) item(id uuid.UUID) item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	return *s.items[id]
}

func (s *memStore) history(id uuid.UUID) []transaction.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]transaction.Transaction, 0, len(s.txs[id]))
	for _, tx := range s.txs[id] {
		out = append(out, *tx)
	}

	return out
}

func (s *memStore) active(id uuid.UUID) []transaction.Transaction {
	var out []transaction.Transaction

	for _, tx := range s.history(id) {
		if tx.IsActive {
			out = append(out, tx)
		}
	}

	return out
}

func (s *memStore) BeginItem(_ context.Context, itemID uuid.UUID) (transaction.ItemTx, error) {
	s.mu.Lock()
	lock, ok := s.locks[itemID]
	s.mu.Unlock()

	if !ok {
		return nil, item.ErrNotFound
	}

	lock.Lock()

	s.mu.Lock()
	defer s.mu.Unlock()

	working := make([]*transaction.Transaction, 0, len(s.txs[itemID]))
	for _, tx := range s.txs[itemID] {
		c := *tx
		working = append(working, &c)
	}

	return &memTx{
		store:  s,
		lock:   lock,
		itemID: itemID,
		txs:    working,
		state:  s.items[itemID].State,
	}, nil
}

func (s *memStore) GetTransaction(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, txs := range s.txs {
		for _, tx := range txs {
			if tx.ID == id {
				c := *tx
				return &c, nil
			}
		}
	}

	return nil, transaction.ErrNotFound
}

func (s *memStore) ListByItem(_ context.Context, itemID uuid.UUID) ([]*transaction.Transaction, error) {
	h := s.history(itemID)

	out := make([]*transaction.Transaction, len(h))
	for i := range h {
		out[i] = &h[i]
	}

	return out, nil
}

type memTx struct {
	store  *memStore
	lock   *sync.Mutex
	itemID uuid.UUID
	txs    []*transaction.Transaction
	state  item.State
	done   bool
}

func (t *memTx) ActiveTransaction(context.Context) (*transaction.Transaction, error) {
	for _, tx := range t.txs {
		if tx.IsActive {
			return tx, nil
		}
	}

	return nil, transaction.ErrNotFound
}

func (t *memTx) Transactions(context.Context) ([]*transaction.Transaction, error) {
	return t.txs, nil
}

func (t *memTx) CreateTransaction(_ context.Context, tx *transaction.Transaction) error {
	tx.ID = uuid.New()
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	tx.Normalize()

	c := *tx
	t.txs = append(t.txs, &c)

	return nil
}

func (t *memTx) UpdateTransaction(_ context.Context, tx *transaction.Transaction) error {
	tx.Normalize()

	for _, existing := range t.txs {
		if existing.ID == tx.ID {
			*existing = *tx
			existing.UpdatedAt = time.Now()

			return nil
		}
	}

	return transaction.ErrNotFound
}

func (t *memTx) UpdateItemState(_ context.Context, state item.State) error {
	t.state = state
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}

	t.store.mu.Lock()
	t.store.txs[t.itemID] = t.txs
	t.store.items[t.itemID].State = t.state
	t.store.items[t.itemID].UpdatedAt = time.Now()
	t.store.mu.Unlock()

	t.finish()

	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}

	t.finish()

	return nil
}

func (t *memTx) finish() {
	t.done = true
	t.lock.Unlock()
}
