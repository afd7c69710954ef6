// Package variant locates the stock counter that applies to a requested
// (color, size) combination of a product, honoring the legacy shapes left
// over from the catalog schema's evolution.
package variant

import (
	"errors"
	"strings"

	"github.com/selim-rachidi/boutiqa-backend/internal/domain"
	"github.com/selim-rachidi/boutiqa-backend/internal/stock"
)

var ErrVariantNotFound = errors.New("variant not found")

// Selection is the buyer's requested combination. Empty fields mean the
// dimension was not requested.
type Selection struct {
	Color string
	Size  string
}

// Resolution is the normalized outcome: the currently available quantity,
// whether it comes from a size-specific counter, and the key the decrement
// protocol must use. When SizeSpecific is false for a sized request, the
// size was only verified against a legacy comma-separated list and the
// parent flat counter is what gets debited.
type Resolution struct {
	Available    int
	SizeSpecific bool
	Key          stock.CounterKey
}

// Resolve applies the resolution precedence, most specific first: a
// size-keyed counter wins over the legacy size list, which wins over the
// flat counter. Color names match case-sensitively. A color request against
// a colorless product (or the reverse) is a missing variant.
func Resolve(p *domain.Product, sel Selection) (Resolution, error) {
	if sel.Color != "" {
		if !p.HasColors {
			return Resolution{}, ErrVariantNotFound
		}
		color := p.ColorByName(sel.Color)
		if color == nil {
			return Resolution{}, ErrVariantNotFound
		}
		return resolveScope(p.ID, sel.Color, sel.Size, color.Stock, color.SizeStocks, color.LegacySizes)
	}

	if p.HasColors {
		return Resolution{}, ErrVariantNotFound
	}
	return resolveScope(p.ID, "", sel.Size, p.Stock, p.SizeStocks, p.LegacySizes)
}

func resolveScope(productID, colorName, size string, flat *int, sizes []domain.SizeStock, legacy string) (Resolution, error) {
	if size == "" {
		return flatResolution(productID, colorName, flat), nil
	}

	if len(sizes) > 0 {
		for _, ss := range sizes {
			if ss.Name == size {
				return Resolution{
					Available:    clamp(ss.Stock),
					SizeSpecific: true,
					Key: stock.CounterKey{
						ProductID: productID,
						Color:     colorName,
						Size:      size,
						SizeKeyed: true,
					},
				}, nil
			}
		}
		return Resolution{}, ErrVariantNotFound
	}

	if legacy != "" {
		if !legacyListed(legacy, size) {
			return Resolution{}, ErrVariantNotFound
		}
		// Known precision loss: the legacy list shares one counter across
		// all of its sizes, so the parent flat counter is the answer.
		return flatResolution(productID, colorName, flat), nil
	}

	return Resolution{}, ErrVariantNotFound
}

func flatResolution(productID, colorName string, flat *int) Resolution {
	available := 0
	if flat != nil {
		available = clamp(*flat)
	}
	return Resolution{
		Available: available,
		Key:       stock.CounterKey{ProductID: productID, Color: colorName},
	}
}

func legacyListed(list, size string) bool {
	for _, s := range strings.Split(list, ",") {
		if strings.TrimSpace(s) == size {
			return true
		}
	}
	return false
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
