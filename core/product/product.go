package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           string          `json:"id" db:"product_id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	ImageURL     string          `json:"imageUrl" db:"image_url"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Stock        int             `json:"stock" db:"stock"`
	ShippingCost decimal.Decimal `json:"shippingCost" db:"shipping_cost"`
	FreeShipping bool            `json:"freeShipping" db:"free_shipping"`
	Active       bool            `json:"active" db:"active"`
	HasVariants  bool            `json:"hasVariants" db:"has_variants"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
	Version      int             `json:"-" db:"version"`
	Variants     []Variant       `json:"variants,omitempty" db:"-"`
}

type Variant struct {
	ProductID    string          `json:"-" db:"product_id"`
	Key          string          `json:"key" db:"variant_key"`
	Size         string          `json:"size" db:"size"`
	Color        string          `json:"color" db:"color"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Stock        int             `json:"stock" db:"stock"`
	ImageURL     string          `json:"imageUrl" db:"image_url"`
	ShippingCost decimal.Decimal `json:"shippingCost" db:"shipping_cost"`
	FreeShipping bool            `json:"freeShipping" db:"free_shipping"`
}

type ProductNew struct {
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"imageUrl" validate:"omitempty,url"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock" validate:"gte=0"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	FreeShipping bool            `json:"freeShipping"`
	Variants     []VariantNew    `json:"variants" validate:"dive"`
}

type VariantNew struct {
	Size         string          `json:"size"`
	Color        string          `json:"color"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock" validate:"gte=0"`
	ImageURL     string          `json:"imageUrl" validate:"omitempty,url"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	FreeShipping bool            `json:"freeShipping"`
}

type ProductUp struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	ImageURL     *string          `json:"imageUrl" validate:"omitempty,url"`
	Price        *decimal.Decimal `json:"price"`
	Stock        *int             `json:"stock" validate:"omitempty,gte=0"`
	ShippingCost *decimal.Decimal `json:"shippingCost"`
	FreeShipping *bool            `json:"freeShipping"`
	Active       *bool            `json:"active"`
	Variants     []VariantNew     `json:"variants" validate:"omitempty,dive"`
}

// Variant returns the declared variant addressed by key.
func (p Product) Variant(key string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Key == key {
			return v, true
		}
	}
	return Variant{}, false
}

func (p Product) VariantKeys() []string {
	keys := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		keys = append(keys, v.Key)
	}
	return keys
}

// The per-key accessors fall back to product-level values for products
// without variants and to zero values for keys that no longer resolve, so a
// stale cart line reads as out of stock rather than failing.

func (p Product) VariantStock(key string) int {
	if v, ok := p.Variant(key); ok {
		return v.Stock
	}
	if !p.HasVariants {
		return p.Stock
	}
	return 0
}

func (p Product) VariantPrice(key string) decimal.Decimal {
	if v, ok := p.Variant(key); ok {
		return v.Price
	}
	if !p.HasVariants {
		return p.Price
	}
	return decimal.Zero
}

func (p Product) VariantImage(key string) string {
	if v, ok := p.Variant(key); ok && v.ImageURL != "" {
		return v.ImageURL
	}
	return p.ImageURL
}

func (p Product) VariantShippingCost(key string) decimal.Decimal {
	if v, ok := p.Variant(key); ok {
		return v.ShippingCost
	}
	return p.ShippingCost
}

func (p Product) VariantFreeShipping(key string) bool {
	if v, ok := p.Variant(key); ok {
		return v.FreeShipping
	}
	return p.FreeShipping
}
