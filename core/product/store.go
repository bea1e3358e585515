package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("product not found")

func Fetch(ctx context.Context, db *sqlx.DB, productID string) (Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1`

	var p Product
	if err := db.GetContext(ctx, &p, q, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("selecting product[%s]: %w", productID, err)
	}

	const qv = `SELECT * FROM product_variants WHERE product_id = $1 ORDER BY variant_key`

	if err := db.SelectContext(ctx, &p.Variants, qv, productID); err != nil {
		return Product{}, fmt.Errorf("selecting variants of product[%s]: %w", productID, err)
	}

	return p, nil
}

func FetchAll(ctx context.Context, db *sqlx.DB) ([]Product, error) {
	const q = `SELECT * FROM products ORDER BY name`

	ps := []Product{}
	if err := db.SelectContext(ctx, &ps, q); err != nil {
		return nil, fmt.Errorf("selecting products: %w", err)
	}

	const qv = `SELECT * FROM product_variants ORDER BY product_id, variant_key`

	var vs []Variant
	if err := db.SelectContext(ctx, &vs, qv); err != nil {
		return nil, fmt.Errorf("selecting variants: %w", err)
	}

	byProduct := make(map[string][]Variant, len(ps))
	for _, v := range vs {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	for i := range ps {
		ps[i].Variants = byProduct[ps[i].ID]
	}

	return ps, nil
}

func Create(ctx context.Context, tx sqlx.ExtContext, p Product) error {
	const q = `
	INSERT INTO products
		(product_id, name, description, image_url, price, stock, shipping_cost,
		free_shipping, active, has_variants, created_at, updated_at, version)
	VALUES
		(:product_id, :name, :description, :image_url, :price, :stock, :shipping_cost,
		:free_shipping, :active, :has_variants, :created_at, :updated_at, 1)`

	if _, err := sqlx.NamedExecContext(ctx, tx, q, p); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}

	for _, v := range p.Variants {
		if err := createVariant(ctx, tx, v); err != nil {
			return err
		}
	}

	return nil
}

func createVariant(ctx context.Context, tx sqlx.ExtContext, v Variant) error {
	const q = `
	INSERT INTO product_variants
		(product_id, variant_key, size, color, price, stock, image_url, shipping_cost, free_shipping)
	VALUES
		(:product_id, :variant_key, :size, :color, :price, :stock, :image_url, :shipping_cost, :free_shipping)`

	if _, err := sqlx.NamedExecContext(ctx, tx, q, v); err != nil {
		return fmt.Errorf("inserting variant[%s] of product[%s]: %w", v.Key, v.ProductID, err)
	}

	return nil
}

// Update writes back a modified product guarded by its version. The variant
// list, when present, is replaced wholesale.
func Update(ctx context.Context, tx sqlx.ExtContext, p Product, replaceVariants bool) error {
	const q = `
	UPDATE products SET
		name = :name,
		description = :description,
		image_url = :image_url,
		price = :price,
		stock = :stock,
		shipping_cost = :shipping_cost,
		free_shipping = :free_shipping,
		active = :active,
		has_variants = :has_variants,
		updated_at = :updated_at,
		version = version + 1
	WHERE product_id = :product_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, tx, q, p)
	if err != nil {
		return fmt.Errorf("updating product[%s]: %w", p.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if !replaceVariants {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("deleting variants of product[%s]: %w", p.ID, err)
	}

	for _, v := range p.Variants {
		if err := createVariant(ctx, tx, v); err != nil {
			return err
		}
	}

	return nil
}

// SQLCatalog adapts the product tables to the cart engine's catalog
// dependency.
type SQLCatalog struct {
	db *sqlx.DB
}

func NewSQLCatalog(db *sqlx.DB) *SQLCatalog {
	return &SQLCatalog{db: db}
}

func (c *SQLCatalog) Product(ctx context.Context, productID string) (Product, error) {
	return Fetch(ctx, c.db, productID)
}
