// Package cart implements the advisory stock guard that the storefront runs
// before mutating a locally held cart. It re-fetches authoritative stock on
// every add, but nothing here is trusted by order intake, which re-validates
// independently.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/selim-rachidi/boutiqa-backend/internal/domain"
	"github.com/selim-rachidi/boutiqa-backend/internal/variant"
)

var (
	ErrProductNotFound  = errors.New("produit introuvable")
	ErrStockUnavailable = errors.New("produit en rupture de stock")
)

// InsufficientStockError reports that the requested quantity, together with
// what the cart already holds for the same variant, exceeds availability.
type InsufficientStockError struct {
	ProductID string
	Color     string
	Size      string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour %s%s: %d disponible(s)",
		e.ProductID, variantSuffix(e.Color, e.Size), e.Available)
}

func variantSuffix(color, size string) string {
	switch {
	case color != "" && size != "":
		return fmt.Sprintf(" (couleur %s, taille %s)", color, size)
	case color != "":
		return fmt.Sprintf(" (couleur %s)", color)
	case size != "":
		return fmt.Sprintf(" (taille %s)", size)
	}
	return ""
}

// ProductFetcher reads the authoritative product row. Implemented by the
// catalog HTTP client in the storefront and by fakes in tests.
type ProductFetcher interface {
	FetchProduct(ctx context.Context, id string) (*domain.Product, error)
}

// Line is one cart entry. StockHint caches the availability observed at the
// last guard check; it is a UX hint only and never a decrement source.
type Line struct {
	ProductID string `json:"id"`
	Color     string `json:"couleur,omitempty"`
	Size      string `json:"taille,omitempty"`
	Quantity  int    `json:"quantite"`
	StockHint int    `json:"stock"`
}

type Cart struct {
	Lines []Line `json:"produits"`
}

func (c *Cart) find(productID, color, size string) *Line {
	for i := range c.Lines {
		l := &c.Lines[i]
		if l.ProductID == productID && l.Color == color && l.Size == size {
			return l
		}
	}
	return nil
}

// Quantity returns how many units of the given variant the cart holds.
func (c *Cart) Quantity(productID, color, size string) int {
	if l := c.find(productID, color, size); l != nil {
		return l.Quantity
	}
	return 0
}

type AddRequest struct {
	ProductID string
	Color     string
	Size      string
	Quantity  int
}

type Guard struct {
	products ProductFetcher
}

func NewGuard(products ProductFetcher) *Guard {
	return &Guard{products: products}
}

// Add revalidates the requested variant against fresh server stock and, when
// allowed, applies the mutation to the cart and refreshes the line's stock
// hint. The aggregate check counts what the cart already holds, so ten
// one-unit adds cannot sneak past a stock of five.
func (g *Guard) Add(ctx context.Context, c *Cart, req AddRequest) error {
	if req.Quantity <= 0 {
		return fmt.Errorf("quantité invalide: %d", req.Quantity)
	}

	product, err := g.products.FetchProduct(ctx, req.ProductID)
	if err != nil {
		return fmt.Errorf("fetch product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}

	res, err := variant.Resolve(product, variant.Selection{Color: req.Color, Size: req.Size})
	if err != nil {
		return err
	}

	if res.Available == 0 {
		return ErrStockUnavailable
	}

	existing := c.Quantity(req.ProductID, req.Color, req.Size)
	if res.Available < existing+req.Quantity {
		return &InsufficientStockError{
			ProductID: req.ProductID,
			Color:     req.Color,
			Size:      req.Size,
			Available: res.Available,
		}
	}

	if line := c.find(req.ProductID, req.Color, req.Size); line != nil {
		line.Quantity += req.Quantity
		line.StockHint = res.Available
		return nil
	}

	c.Lines = append(c.Lines, Line{
		ProductID: req.ProductID,
		Color:     req.Color,
		Size:      req.Size,
		Quantity:  req.Quantity,
		StockHint: res.Available,
	})
	return nil
}
