package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/selim-rachidi/boutiqa-backend/internal/domain"
	"github.com/selim-rachidi/boutiqa-backend/internal/variant"
)

type fakeFetcher struct {
	products map[string]*domain.Product
	err      error
	calls    int
}

func (f *fakeFetcher) FetchProduct(_ context.Context, id string) (*domain.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products[id], nil
}

func intPtr(n int) *int { return &n }

func TestGuard_AddWithinStock(t *testing.T) {
	fetcher := &fakeFetcher{products: map[string]*domain.Product{
		"PRD-1": {ID: "PRD-1", Stock: intPtr(5)},
	}}
	guard := NewGuard(fetcher)
	c := &Cart{}

	if err := guard.Add(context.Background(), c, AddRequest{ProductID: "PRD-1", Quantity: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(c.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(c.Lines))
	}
	line := c.Lines[0]
	if line.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", line.Quantity)
	}
	if line.StockHint != 5 {
		t.Errorf("expected stock hint refreshed to 5, got %d", line.StockHint)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected one server fetch, got %d", fetcher.calls)
	}
}

func TestGuard_ZeroStock(t *testing.T) {
	guard := NewGuard(&fakeFetcher{products: map[string]*domain.Product{
		"PRD-1": {ID: "PRD-1", Stock: intPtr(0)},
	}})
	c := &Cart{}

	err := guard.Add(context.Background(), c, AddRequest{ProductID: "PRD-1", Quantity: 1})
	if !errors.Is(err, ErrStockUnavailable) {
		t.Fatalf("expected ErrStockUnavailable, got %v", err)
	}
	if len(c.Lines) != 0 {
		t.Error("cart must not be mutated on failure")
	}
}

func TestGuard_AggregatesExistingCartQuantity(t *testing.T) {
	guard := NewGuard(&fakeFetcher{products: map[string]*domain.Product{
		"PRD-1": {ID: "PRD-1", Stock: intPtr(5)},
	}})
	c := &Cart{Lines: []Line{{ProductID: "PRD-1", Quantity: 4, StockHint: 9}}}

	err := guard.Add(context.Background(), c, AddRequest{ProductID: "PRD-1", Quantity: 2})

	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Available != 5 {
		t.Errorf("expected available 5 in error, got %d", insufficient.Available)
	}
	if c.Lines[0].Quantity != 4 {
		t.Error("rejected add must not change the cart quantity")
	}
	// The stale hint (9) is only replaced on a successful mutation.
	if c.Lines[0].StockHint != 9 {
		t.Error("rejected add must not touch the stock hint")
	}
}

func TestGuard_IncrementRefreshesHint(t *testing.T) {
	guard := NewGuard(&fakeFetcher{products: map[string]*domain.Product{
		"PRD-1": {ID: "PRD-1", Stock: intPtr(5)},
	}})
	c := &Cart{Lines: []Line{{ProductID: "PRD-1", Quantity: 1, StockHint: 99}}}

	if err := guard.Add(context.Background(), c, AddRequest{ProductID: "PRD-1", Quantity: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Lines[0].Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", c.Lines[0].Quantity)
	}
	if c.Lines[0].StockHint != 5 {
		t.Errorf("expected hint overwritten with observed 5, got %d", c.Lines[0].StockHint)
	}
}

func TestGuard_VariantsAreDistinctLines(t *testing.T) {
	guard := NewGuard(&fakeFetcher{products: map[string]*domain.Product{
		"PRD-1": {ID: "PRD-1", HasColors: true, Colors: []domain.Color{
			{Name: "Noir", SizeStocks: []domain.SizeStock{{Name: "42", Stock: 3}, {Name: "43", Stock: 2}}},
		}},
	}})
	c := &Cart{}

	if err := guard.Add(context.Background(), c, AddRequest{ProductID: "PRD-1", Color: "Noir", Size: "42", Quantity: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := guard.Add(context.Background(), c, AddRequest{ProductID: "PRD-1", Color: "Noir", Size: "43", Quantity: 2}); err != nil {
		t.Fatalf("sibling size must not be limited by the other line: %v", err)
	}

	if len(c.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(c.Lines))
	}
}

func TestGuard_PropagatesResolutionAndFetchFailures(t *testing.T) {
	t.Run("unknown product", func(t *testing.T) {
		guard := NewGuard(&fakeFetcher{products: map[string]*domain.Product{}})
		err := guard.Add(context.Background(), &Cart{}, AddRequest{ProductID: "PRD-404", Quantity: 1})
		if !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("unknown variant", func(t *testing.T) {
		guard := NewGuard(&fakeFetcher{products: map[string]*domain.Product{
			"PRD-1": {ID: "PRD-1", Stock: intPtr(5)},
		}})
		err := guard.Add(context.Background(), &Cart{}, AddRequest{ProductID: "PRD-1", Color: "Noir", Quantity: 1})
		if !errors.Is(err, variant.ErrVariantNotFound) {
			t.Fatalf("expected ErrVariantNotFound, got %v", err)
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		guard := NewGuard(&fakeFetcher{err: errors.New("catalog down")})
		err := guard.Add(context.Background(), &Cart{}, AddRequest{ProductID: "PRD-1", Quantity: 1})
		if err == nil {
			t.Fatal("expected error when the catalog is unreachable")
		}
	})
}
