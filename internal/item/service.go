package item

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=item
type Repository interface {
	CreateItem(ctx context.Context, it *Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context) ([]*Item, error)
	CreateItems(ctx context.Context, items []*Item) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new item. Items always start in StateProcessing.
func (s *Service) Create(ctx context.Context, amount decimal.Decimal) (*Item, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	it := &Item{
		Amount: amount,
		State:  StateProcessing,
	}
	if err := s.repo.CreateItem(ctx, it); err != nil {
		return nil, err
	}

	return it, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Item, error) {
	return s.repo.ListItems(ctx)
}

// ImportBatch creates one item per amount. Either every item is stored or none is.
func (s *Service) ImportBatch(ctx context.Context, amounts []decimal.Decimal) ([]*Item, error) {
	if len(amounts) == 0 {
		return nil, nil
	}

	items := make([]*Item, len(amounts))

	for i, a := range amounts {
		if err := ValidateAmount(a); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		items[i] = &Item{Amount: a, State: StateProcessing}
	}

	if err := s.repo.CreateItems(ctx, items); err != nil {
		return nil, fmt.Errorf("create items: %w", err)
	}

	return items, nil
}
