package cart

import (
	"fmt"
	"strings"
)

const (
	lineIDSep = "_"

	// nullSegment stands in for an absent size or color so the id always
	// parses back into four parts.
	nullSegment = "null"
)

// LineRef is a parsed composite line id.
type LineRef struct {
	UserID    string
	ProductID string
	Size      string
	Color     string
}

// BuildLineID builds the composite identifier addressing one cart line
// without a dedicated row id: userID_productID_size_color.
func BuildLineID(userID, productID, size, color string) string {
	return strings.Join([]string{userID, productID, segment(size), segment(color)}, lineIDSep)
}

func segment(s string) string {
	if s == "" {
		return nullSegment
	}
	return s
}

// ParseLineID is the inverse of BuildLineID. Unlike the rest of the engine
// it fails loudly: composite ids are built internally, so a malformed one is
// a programming error rather than a runtime condition.
func ParseLineID(id string) (LineRef, error) {
	parts := strings.Split(id, lineIDSep)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return LineRef{}, fmt.Errorf("%w: %q", ErrInvalidLineID, id)
	}

	ref := LineRef{UserID: parts[0], ProductID: parts[1]}
	if len(parts) > 2 && parts[2] != nullSegment {
		ref.Size = parts[2]
	}
	if len(parts) > 3 && parts[3] != nullSegment {
		ref.Color = parts[3]
	}
	return ref, nil
}
