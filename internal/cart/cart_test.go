package cart

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCartAddMergesLines(t *testing.T) {
	t.Parallel()

	var c Cart
	c.Add(1, "a", 1)
	c.Add(1, "a", 2)
	c.Add(1, "b", 1)
	c.Add(2, "a", 0)

	if len(c.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(c.Items))
	}
	if c.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", c.Items[0].Quantity)
	}
	if c.Count() != 4 {
		t.Fatalf("Count() = %d, want 4", c.Count())
	}
}

func TestCartUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		quantity int
		wantLen  int
		wantQty  int
	}{
		{name: "set quantity", quantity: 5, wantLen: 1, wantQty: 5},
		{name: "zero removes", quantity: 0, wantLen: 0},
		{name: "negative clamps to zero", quantity: -3, wantLen: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := Cart{Items: []LineItem{{ProductID: 1, PackageOptionID: "a", Quantity: 2}}}
			c.Update(1, "a", tt.quantity)
			if len(c.Items) != tt.wantLen {
				t.Fatalf("expected %d lines, got %d", tt.wantLen, len(c.Items))
			}
			if tt.wantLen > 0 && c.Items[0].Quantity != tt.wantQty {
				t.Fatalf("quantity = %d, want %d", c.Items[0].Quantity, tt.wantQty)
			}
		})
	}
}

func TestCartRemoveAndClear(t *testing.T) {
	t.Parallel()

	var c Cart
	c.Add(1, "a", 1)
	c.Add(2, "a", 1)
	c.AddGift(GiftLineItem{ID: "gift-1", Quantity: 1})

	c.Remove(1, "a")
	if len(c.Items) != 1 || c.Items[0].ProductID != 2 {
		t.Fatalf("unexpected items after remove: %+v", c.Items)
	}
	if !c.RemoveGift("gift-1") {
		t.Fatalf("expected gift to be removed")
	}
	if c.RemoveGift("gift-1") {
		t.Fatalf("second removal should report false")
	}

	c.AddGift(GiftLineItem{ID: "gift-2", Quantity: 1})
	c.Clear()
	if !c.IsEmpty() {
		t.Fatalf("cart should be empty after Clear")
	}
}

func TestParseQuantity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"int", 3, 3},
		{"negative int", -2, 0},
		{"float", 2.0, 2},
		{"string", " 4 ", 4},
		{"non numeric string", "abc", 0},
		{"json number", json.Number("7"), 7},
		{"nil", nil, 0},
		{"bool", true, 0},
		{"huge float saturates", 1e300, math.MaxInt},
		{"huge json number saturates", json.Number("99999999999999999999999"), math.MaxInt},
		{"negative infinity", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseQuantity(tt.value); got != tt.want {
				t.Fatalf("ParseQuantity(%v) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestCartQuantitySaturates(t *testing.T) {
	t.Parallel()

	var c Cart
	c.Update(1, "a", math.MaxInt)
	c.Add(1, "a", 1)
	if got := c.Items[0].Quantity; got != MaxQuantity {
		t.Fatalf("quantity after Update(MaxInt)+Add(1) = %d, want %d", got, MaxQuantity)
	}

	c.Add(2, "b", math.MaxInt)
	c.Add(2, "b", math.MaxInt)
	if got := c.Items[1].Quantity; got != MaxQuantity {
		t.Fatalf("quantity after repeated Add(MaxInt) = %d, want %d", got, MaxQuantity)
	}
	if c.Count() != 2*MaxQuantity {
		t.Fatalf("Count() = %d, want %d", c.Count(), 2*MaxQuantity)
	}
}
