package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/storefront/backend/core/product"
)

// Catalog is the slice of the product catalog the cart engine needs: live
// per-variant price/stock for validation and summary assembly.
type Catalog interface {
	Product(ctx context.Context, productID string) (product.Product, error)
}

// Pricing holds the cart-level shipping rule: orders at or above the
// threshold ship free, everything else pays the flat fee.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

type Service struct {
	log     logrus.FieldLogger
	store   Store
	catalog Catalog
	counts  *CountCache
	pricing Pricing
	now     func() time.Time
}

func NewService(log logrus.FieldLogger, store Store, catalog Catalog, counts *CountCache, pricing Pricing) *Service {
	return &Service{
		log:     log,
		store:   store,
		catalog: catalog,
		counts:  counts,
		pricing: pricing,
		now:     time.Now,
	}
}

// AddToCart validates the variant selection and stock, then applies the
// store's atomic add-or-increment. The stock check covers the
// post-increment line total: adding the same variant twice must not pass
// what a single add of the sum would fail.
func (s *Service) AddToCart(ctx context.Context, userID, productID string, quantity int, size, color string) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	size = product.NormalizeSelection(size)
	color = product.NormalizeSelection(color)

	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("fetching product[%s]: %w", productID, err)
	}

	if err := p.ValidateSelection(size, color); err != nil {
		return err
	}

	if err := s.store.EnsureExists(ctx, userID); err != nil {
		return fmt.Errorf("ensuring cart for user[%s]: %w", userID, err)
	}

	c, err := s.store.Fetch(ctx, userID)
	if err != nil {
		return fmt.Errorf("reading cart of user[%s]: %w", userID, err)
	}

	inCart := 0
	if it, ok := findItem(c.Items, productID, size, color); ok {
		inCart = it.Quantity
	}

	key := product.VariantKey(size, color)
	if want, available := inCart+quantity, p.VariantStock(key); want > available {
		return &InsufficientStockError{ProductID: productID, Requested: want, Available: available}
	}

	now := s.now().UTC()
	item := Item{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Size:      size,
		Color:     color,
		AddedAt:   now,
		UpdatedAt: now,
	}
	if _, err := s.store.AddItem(ctx, item); err != nil {
		return fmt.Errorf("adding product[%s] to cart of user[%s]: %w", productID, userID, err)
	}

	s.counts.Invalidate(userID)
	return nil
}

// UpdateQuantity sets the quantity of the line addressed by the composite
// id. A non-positive quantity removes the line instead.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	ref, err := ParseLineID(lineID)
	if err != nil {
		return err
	}
	if ref.UserID != userID {
		return ErrLineNotFound
	}

	if quantity <= 0 {
		return s.RemoveFromCart(ctx, userID, ref.ProductID, ref.Size, ref.Color)
	}

	p, err := s.catalog.Product(ctx, ref.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("fetching product[%s]: %w", ref.ProductID, err)
	}

	key := product.VariantKey(ref.Size, ref.Color)
	if available := p.VariantStock(key); quantity > available {
		return &InsufficientStockError{ProductID: ref.ProductID, Requested: quantity, Available: available}
	}

	err = s.replaceLines(ctx, userID, func(items []Item) ([]Item, error) {
		idx := indexOfItem(items, ref.ProductID, ref.Size, ref.Color)
		if idx < 0 {
			return nil, ErrLineNotFound
		}

		out := make([]Item, len(items))
		copy(out, items)
		out[idx].Quantity = quantity
		out[idx].UpdatedAt = s.now().UTC()
		return out, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrLineNotFound
		}
		return err
	}

	s.counts.Invalidate(userID)
	return nil
}

// RemoveFromCart deletes the matching line. Removing a line that does not
// exist is already-satisfied, not an error.
func (s *Service) RemoveFromCart(ctx context.Context, userID, productID, size, color string) error {
	size = product.NormalizeSelection(size)
	color = product.NormalizeSelection(color)

	if _, err := s.store.RemoveItem(ctx, userID, productID, size, color); err != nil {
		return fmt.Errorf("removing product[%s] from cart of user[%s]: %w", productID, userID, err)
	}

	s.counts.Invalidate(userID)
	return nil
}

// ClearCart replaces the line list with an empty one. The cart row itself
// is never deleted.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	if err := s.store.EnsureExists(ctx, userID); err != nil {
		return fmt.Errorf("ensuring cart for user[%s]: %w", userID, err)
	}

	err := s.replaceLines(ctx, userID, func([]Item) ([]Item, error) {
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("clearing cart of user[%s]: %w", userID, err)
	}

	s.counts.Invalidate(userID)
	return nil
}

// GetItemCount returns the total quantity across lines, serving the
// advisory cache when it has an entry.
func (s *Service) GetItemCount(ctx context.Context, userID string) int {
	if n, ok := s.counts.Get(userID); ok {
		return n
	}

	if err := s.store.EnsureExists(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("item count unavailable")
		return 0
	}

	c, err := s.store.Fetch(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("item count unavailable")
		return 0
	}

	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}

	s.counts.Set(userID, n)
	return n
}

// ValidateCart classifies problems with the persisted lines against the
// live catalog without mutating anything.
func (s *Service) ValidateCart(ctx context.Context, userID string) (ValidationResult, error) {
	res := ValidationResult{Issues: []Issue{}, Warnings: []string{}}

	if err := s.store.EnsureExists(ctx, userID); err != nil {
		return res, fmt.Errorf("ensuring cart for user[%s]: %w", userID, err)
	}

	c, err := s.store.Fetch(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("reading cart of user[%s]: %w", userID, err)
	}

	if len(c.Items) == 0 {
		res.Valid = true
		res.Warnings = append(res.Warnings, "cart is empty")
		return res, nil
	}

	for _, it := range c.Items {
		p, err := s.catalog.Product(ctx, it.ProductID)
		switch {
		case errors.Is(err, product.ErrNotFound):
			res.Issues = append(res.Issues, Issue{
				Kind:      IssueNoLongerAvailable,
				ProductID: it.ProductID,
				Size:      it.Size,
				Color:     it.Color,
				Message:   "this product is no longer available",
			})
			continue
		case err != nil:
			return res, fmt.Errorf("fetching product[%s]: %w", it.ProductID, err)
		}

		if !p.Active {
			res.Issues = append(res.Issues, Issue{
				Kind:      IssueNoLongerAvailable,
				ProductID: it.ProductID,
				Size:      it.Size,
				Color:     it.Color,
				Message:   "this product is no longer available",
			})
			continue
		}

		key := product.VariantKey(it.Size, it.Color)
		if available := p.VariantStock(key); available < it.Quantity {
			res.Issues = append(res.Issues, Issue{
				Kind:      IssueOutOfStock,
				ProductID: it.ProductID,
				Size:      it.Size,
				Color:     it.Color,
				Message:   fmt.Sprintf("only %d available, %d in cart", available, it.Quantity),
			})
		}
	}

	res.Valid = len(res.Issues) == 0
	return res, nil
}

const replaceAttempts = 2

// replaceLines reads the cart, applies mutate to its lines and writes the
// full list back guarded by the cart version, retrying once when a
// concurrent writer wins the CAS.
func (s *Service) replaceLines(ctx context.Context, userID string, mutate func([]Item) ([]Item, error)) error {
	var lastErr error
	for attempt := 0; attempt < replaceAttempts; attempt++ {
		c, err := s.store.Fetch(ctx, userID)
		if err != nil {
			return err
		}

		items, err := mutate(c.Items)
		if err != nil {
			return err
		}

		if err := s.store.Replace(ctx, userID, c.Version, items); err != nil {
			if errors.Is(err, ErrConcurrentUpdate) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}

type IssueKind string

const (
	IssueNoLongerAvailable IssueKind = "no_longer_available"
	IssueOutOfStock        IssueKind = "out_of_stock"
)

type Issue struct {
	Kind      IssueKind `json:"kind"`
	ProductID string    `json:"productId"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	Message   string    `json:"message"`
}

type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Issues   []Issue  `json:"issues"`
	Warnings []string `json:"warnings"`
}
