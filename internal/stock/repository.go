package stock

import (
	"context"
	"database/sql"
	"errors"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

// CounterKey names exactly one stock counter. The zero Color means the
// counter hangs directly off the product; SizeKeyed selects the size-keyed
// table, in which case Size must be set. The four shapes (flat, by color,
// by size, by color and size) are the four decrement paths of the checkout
// flow, collapsed into one keyed operation.
type CounterKey struct {
	ProductID string
	Color     string
	Size      string
	SizeKeyed bool
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Decrement subtracts qty from the counter named by key, but only if the
// counter currently holds at least qty. The condition and the write are one
// UPDATE statement, so concurrent checkouts can never drive a counter
// negative; a lost race is reported as ok=false, not an error.
func (r *Repository) Decrement(ctx context.Context, key CounterKey, qty int) (bool, error) {
	if qty <= 0 {
		return false, ErrInvalidQuantity
	}

	var result sql.Result
	var err error

	switch {
	case key.SizeKeyed:
		result, err = r.db.ExecContext(ctx, `
			UPDATE product_size_stocks
			SET stock = stock - $4
			WHERE product_id = $1 AND color_name = $2 AND size_name = $3 AND stock >= $4
		`, key.ProductID, key.Color, key.Size, qty)
	case key.Color != "":
		result, err = r.db.ExecContext(ctx, `
			UPDATE product_colors
			SET stock = stock - $3
			WHERE product_id = $1 AND name = $2 AND stock >= $3
		`, key.ProductID, key.Color, qty)
	default:
		result, err = r.db.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $2
			WHERE id = $1 AND stock >= $2
		`, key.ProductID, qty)
	}
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// Increment adds qty back to the counter named by key. Restoration is
// unconditional: there is no "insufficient" failure mode when returning
// stock, so only missing rows or database faults surface as errors.
func (r *Repository) Increment(ctx context.Context, key CounterKey, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	var result sql.Result
	var err error

	switch {
	case key.SizeKeyed:
		result, err = r.db.ExecContext(ctx, `
			UPDATE product_size_stocks
			SET stock = stock + $4
			WHERE product_id = $1 AND color_name = $2 AND size_name = $3
		`, key.ProductID, key.Color, key.Size, qty)
	case key.Color != "":
		result, err = r.db.ExecContext(ctx, `
			UPDATE product_colors
			SET stock = COALESCE(stock, 0) + $3
			WHERE product_id = $1 AND name = $2
		`, key.ProductID, key.Color, qty)
	default:
		result, err = r.db.ExecContext(ctx, `
			UPDATE products
			SET stock = COALESCE(stock, 0) + $2
			WHERE id = $1
		`, key.ProductID, qty)
	}
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return errors.New("stock counter not found")
	}

	return nil
}
