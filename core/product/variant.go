package product

import (
	"fmt"
	"strings"
)

const (
	// keySeparator joins size and color into a variant key. Neither field
	// is expected to contain it.
	keySeparator = "|"

	// NoVariantKey addresses the base price/stock of a product when
	// neither size nor color is selected. Real combinations always carry
	// the separator, so the constant can never collide with one.
	NoVariantKey = "base"
)

// NormalizeSelection maps whitespace-only input to "no selection".
func NormalizeSelection(s string) string {
	return strings.TrimSpace(s)
}

// VariantKey builds the deterministic lookup key for a size/color
// combination. Equal selections always yield equal keys.
func VariantKey(size, color string) string {
	size = NormalizeSelection(size)
	color = NormalizeSelection(color)

	if size == "" && color == "" {
		return NoVariantKey
	}
	return size + keySeparator + color
}

type InvalidVariantError struct {
	ProductID string
	Size      string
	Color     string
}

func (e *InvalidVariantError) Error() string {
	return fmt.Sprintf("product[%s] has no variant with size[%s] and color[%s]", e.ProductID, e.Size, e.Color)
}

// ValidateSelection checks a size/color selection against the declared
// variants. Products without variants accept (and ignore) any selection;
// products with variants require an exact match, which keeps cart lines from
// being created for combinations with undefined price and stock.
func (p Product) ValidateSelection(size, color string) error {
	if !p.HasVariants {
		return nil
	}

	if _, ok := p.Variant(VariantKey(size, color)); !ok {
		return &InvalidVariantError{ProductID: p.ID, Size: size, Color: color}
	}
	return nil
}
