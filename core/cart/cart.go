package cart

import (
	"time"
)

type Cart struct {
	UserID    string    `json:"-" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Version   int       `json:"-" db:"version"`
	Items     []Item    `json:"items" db:"-"`
}

// Item is one cart line. Lines are unique per (user, product, size, color);
// empty size/color means the selection does not apply to the product.
type Item struct {
	UserID    string    `json:"-" db:"user_id"`
	ProductID string    `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Size      string    `json:"size,omitempty" db:"size"`
	Color     string    `json:"color,omitempty" db:"color"`
	AddedAt   time.Time `json:"addedAt" db:"added_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// LineID returns the externally addressable identifier of the line.
func (i Item) LineID() string {
	return BuildLineID(i.UserID, i.ProductID, i.Size, i.Color)
}

type ItemNew struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type QuantityUp struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

func findItem(items []Item, productID, size, color string) (Item, bool) {
	for _, it := range items {
		if it.ProductID == productID && it.Size == size && it.Color == color {
			return it, true
		}
	}
	return Item{}, false
}

func indexOfItem(items []Item, productID, size, color string) int {
	for i, it := range items {
		if it.ProductID == productID && it.Size == size && it.Color == color {
			return i
		}
	}
	return -1
}
