package cart

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLineIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ref  LineRef
		id   string
	}{
		{
			name: "full selection",
			ref:  LineRef{UserID: "u1", ProductID: "P1", Size: "M", Color: "Blue"},
			id:   "u1_P1_M_Blue",
		},
		{
			name: "size only",
			ref:  LineRef{UserID: "u1", ProductID: "P1", Size: "M"},
			id:   "u1_P1_M_null",
		},
		{
			name: "color only",
			ref:  LineRef{UserID: "u1", ProductID: "P1", Color: "Blue"},
			id:   "u1_P1_null_Blue",
		},
		{
			name: "no selection",
			ref:  LineRef{UserID: "u1", ProductID: "P1"},
			id:   "u1_P1_null_null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := BuildLineID(tt.ref.UserID, tt.ref.ProductID, tt.ref.Size, tt.ref.Color)
			if id != tt.id {
				t.Fatalf("built id %q, want %q", id, tt.id)
			}

			ref, err := ParseLineID(id)
			if err != nil {
				t.Fatalf("parsing %q: %v", id, err)
			}
			if diff := cmp.Diff(tt.ref, ref); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseLineIDTwoSegments(t *testing.T) {
	ref, err := ParseLineID("u1_P1")
	if err != nil {
		t.Fatalf("parsing two-segment id: %v", err)
	}
	want := LineRef{UserID: "u1", ProductID: "P1"}
	if diff := cmp.Diff(want, ref); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLineIDMalformed(t *testing.T) {
	for _, id := range []string{"", "u1", "_P1", "u1_"} {
		if _, err := ParseLineID(id); !errors.Is(err, ErrInvalidLineID) {
			t.Fatalf("parsing %q: expected ErrInvalidLineID, got %v", id, err)
		}
	}
}
