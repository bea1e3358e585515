package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/storefront/backend/database"
)

// Store is the persistence contract the cart engine consumes. AddItem and
// RemoveItem are store-side atomic procedures: they apply their mutation
// without a client-visible intermediate state, which is what keeps two
// concurrent adds from racing a read-modify-write. Replace is the
// whole-list write used where no atomic procedure fits, guarded by the cart
// version.
type Store interface {
	EnsureExists(ctx context.Context, userID string) error
	Fetch(ctx context.Context, userID string) (Cart, error)
	AddItem(ctx context.Context, item Item) ([]Item, error)
	RemoveItem(ctx context.Context, userID, productID, size, color string) ([]Item, error)
	Replace(ctx context.Context, userID string, version int, items []Item) error
}

type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// EnsureExists idempotently guarantees the cart row. Two first-time requests
// may race on the insert; the loser hits the unique constraint, which means
// the row is there, and that is success.
func (s *SQLStore) EnsureExists(ctx context.Context, userID string) error {
	const q = `INSERT INTO carts (user_id, version, created_at, updated_at) VALUES ($1, 1, $2, $2)`

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, q, userID, now); err != nil {
		if database.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("inserting cart row for user[%s]: %w", userID, err)
	}

	return nil
}

func (s *SQLStore) Fetch(ctx context.Context, userID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE user_id = $1`

	var c Cart
	if err := s.db.GetContext(ctx, &c, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("selecting cart of user[%s]: %w", userID, err)
	}

	items, err := s.fetchItems(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	c.Items = items

	return c, nil
}

func (s *SQLStore) fetchItems(ctx context.Context, userID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE user_id = $1 ORDER BY added_at, product_id`

	items := []Item{}
	if err := s.db.SelectContext(ctx, &items, q, userID); err != nil {
		return nil, fmt.Errorf("selecting cart lines of user[%s]: %w", userID, err)
	}

	return items, nil
}

// AddItem atomically inserts the line or increments the quantity of the
// existing one, preserving its added_at.
func (s *SQLStore) AddItem(ctx context.Context, it Item) ([]Item, error) {
	const q = `
	INSERT INTO cart_items (user_id, product_id, quantity, size, color, added_at, updated_at)
	VALUES (:user_id, :product_id, :quantity, :size, :color, :added_at, :updated_at)
	ON CONFLICT (user_id, product_id, size, color)
	DO UPDATE SET
		quantity = cart_items.quantity + EXCLUDED.quantity,
		updated_at = EXCLUDED.updated_at`

	if _, err := sqlx.NamedExecContext(ctx, s.db, q, it); err != nil {
		return nil, fmt.Errorf("upserting cart line of user[%s]: %w", it.UserID, err)
	}

	if err := s.touch(ctx, it.UserID, it.UpdatedAt); err != nil {
		return nil, err
	}

	return s.fetchItems(ctx, it.UserID)
}

// RemoveItem atomically deletes the matching line. Deleting a line that is
// not there is a no-op, not an error.
func (s *SQLStore) RemoveItem(ctx context.Context, userID, productID, size, color string) ([]Item, error) {
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2 AND size = $3 AND color = $4`

	if _, err := s.db.ExecContext(ctx, q, userID, productID, size, color); err != nil {
		return nil, fmt.Errorf("deleting cart line of user[%s]: %w", userID, err)
	}

	if err := s.touch(ctx, userID, time.Now().UTC()); err != nil {
		return nil, err
	}

	return s.fetchItems(ctx, userID)
}

// Replace swaps the full line list, compare-and-swap guarded by the cart
// version so a concurrent add is not silently dropped. Losing the CAS
// surfaces as ErrConcurrentUpdate.
func (s *SQLStore) Replace(ctx context.Context, userID string, version int, items []Item) error {
	const qv = `UPDATE carts SET version = version + 1, updated_at = $1 WHERE user_id = $2 AND version = $3`

	const qi = `
	INSERT INTO cart_items (user_id, product_id, quantity, size, color, added_at, updated_at)
	VALUES (:user_id, :product_id, :quantity, :size, :color, :added_at, :updated_at)`

	now := time.Now().UTC()
	return database.Transaction(s.db, func(tx sqlx.ExtContext) error {
		res, err := tx.ExecContext(ctx, qv, now, userID, version)
		if err != nil {
			return fmt.Errorf("bumping version of cart of user[%s]: %w", userID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrConcurrentUpdate
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clearing cart lines of user[%s]: %w", userID, err)
		}

		for _, it := range items {
			it.UserID = userID
			if _, err := sqlx.NamedExecContext(ctx, tx, qi, it); err != nil {
				return fmt.Errorf("inserting cart line of user[%s]: %w", userID, err)
			}
		}

		return nil
	})
}

func (s *SQLStore) touch(ctx context.Context, userID string, now time.Time) error {
	const q = `UPDATE carts SET updated_at = $1 WHERE user_id = $2`

	if _, err := s.db.ExecContext(ctx, q, now, userID); err != nil {
		return fmt.Errorf("touching cart of user[%s]: %w", userID, err)
	}
	return nil
}
