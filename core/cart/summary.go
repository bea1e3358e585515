package cart

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/core/product"
)

// CartSummary is assembled per request from the persisted lines and the
// live catalog. It is never stored.
type CartSummary struct {
	Lines              []LineView      `json:"lines"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Shipping           decimal.Decimal `json:"shipping"`
	Total              decimal.Decimal `json:"total"`
	IsEmpty            bool            `json:"isEmpty"`
	HasOutOfStockItems bool            `json:"hasOutOfStockItems"`
	CanCheckout        bool            `json:"canCheckout"`
}

type LineView struct {
	LineID       string          `json:"lineId"`
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	ImageURL     string          `json:"imageUrl"`
	Size         string          `json:"size,omitempty"`
	Color        string          `json:"color,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
	Available    int             `json:"available"`
	InStock      bool            `json:"inStock"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	FreeShipping bool            `json:"freeShipping"`
	AddedAt      time.Time       `json:"addedAt"`
}

func emptySummary() CartSummary {
	return CartSummary{
		Lines:    []LineView{},
		Subtotal: decimal.Zero,
		Shipping: decimal.Zero,
		Total:    decimal.Zero,
		IsEmpty:  true,
	}
}

// GetCartSummary prices the cart against the live catalog. The cart is a
// best-effort convenience layer: store failures degrade to an empty summary
// with a logged diagnostic instead of blocking the page.
func (s *Service) GetCartSummary(ctx context.Context, userID string) CartSummary {
	if err := s.store.EnsureExists(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cart summary degraded to empty")
		return emptySummary()
	}

	c, err := s.store.Fetch(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cart summary degraded to empty")
		return emptySummary()
	}

	return s.buildSummary(ctx, c)
}

func (s *Service) buildSummary(ctx context.Context, c Cart) CartSummary {
	sum := emptySummary()

	for _, it := range c.Items {
		p, err := s.catalog.Product(ctx, it.ProductID)
		if err != nil {
			// A vanished product is skipped, never auto-removed; only an
			// explicit user action or ValidateCart reports it.
			if !errors.Is(err, product.ErrNotFound) {
				s.log.WithError(err).WithField("product_id", it.ProductID).Warn("skipping unresolvable cart line")
			}
			continue
		}

		key := product.VariantKey(it.Size, it.Color)
		unit := p.VariantPrice(key)
		available := p.VariantStock(key)

		line := LineView{
			LineID:       it.LineID(),
			ProductID:    it.ProductID,
			Name:         p.Name,
			ImageURL:     p.VariantImage(key),
			Size:         it.Size,
			Color:        it.Color,
			Quantity:     it.Quantity,
			UnitPrice:    unit,
			LineTotal:    unit.Mul(decimal.NewFromInt(int64(it.Quantity))),
			Available:    available,
			InStock:      available >= it.Quantity,
			ShippingCost: p.VariantShippingCost(key),
			FreeShipping: p.VariantFreeShipping(key),
			AddedAt:      it.AddedAt,
		}

		sum.Lines = append(sum.Lines, line)
		sum.Subtotal = sum.Subtotal.Add(line.LineTotal)
		if !line.InStock {
			sum.HasOutOfStockItems = true
		}
	}

	sum.IsEmpty = len(sum.Lines) == 0
	if !sum.IsEmpty && sum.Subtotal.LessThan(s.pricing.FreeShippingThreshold) {
		sum.Shipping = s.pricing.ShippingFee
	}
	sum.Total = sum.Subtotal.Add(sum.Shipping)
	sum.CanCheckout = !sum.IsEmpty && !sum.HasOutOfStockItems

	return sum
}
