package catalog

import (
	"context"
	"database/sql"

	"github.com/selim-rachidi/boutiqa-backend/internal/domain"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetProduct loads the product row together with its colors and size-keyed
// counters. Returns nil when the product does not exist.
func (r *ProductRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}
	var stock sql.NullInt64
	var legacySizes, imageURL sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, image_url, has_colors, stock, legacy_sizes
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &imageURL, &p.HasColors, &stock, &legacySizes)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	p.ImageURL = imageURL.String
	p.LegacySizes = legacySizes.String
	if stock.Valid {
		n := int(stock.Int64)
		p.Stock = &n
	}

	if p.HasColors {
		if err := r.loadColors(ctx, p); err != nil {
			return nil, err
		}
	}

	if err := r.loadSizeStocks(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *ProductRepository) loadColors(ctx context.Context, p *domain.Product) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, stock, legacy_sizes, image_url
		FROM product_colors
		WHERE product_id = $1
		ORDER BY name
	`, p.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var color domain.Color
		var stock sql.NullInt64
		var legacySizes, imageURL sql.NullString
		if err := rows.Scan(&color.Name, &stock, &legacySizes, &imageURL); err != nil {
			return err
		}
		if stock.Valid {
			n := int(stock.Int64)
			color.Stock = &n
		}
		color.LegacySizes = legacySizes.String
		color.ImageURL = imageURL.String
		p.Colors = append(p.Colors, color)
	}

	return rows.Err()
}

func (r *ProductRepository) loadSizeStocks(ctx context.Context, p *domain.Product) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT color_name, size_name, stock
		FROM product_size_stocks
		WHERE product_id = $1
		ORDER BY color_name, size_name
	`, p.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var colorName string
		var ss domain.SizeStock
		if err := rows.Scan(&colorName, &ss.Name, &ss.Stock); err != nil {
			return err
		}
		if colorName == "" {
			p.SizeStocks = append(p.SizeStocks, ss)
			continue
		}
		if color := p.ColorByName(colorName); color != nil {
			color.SizeStocks = append(color.SizeStocks, ss)
		}
	}

	return rows.Err()
}
