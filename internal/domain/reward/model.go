package reward

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrUnknownSKU = errors.New("reward is not in the catalog")
	ErrEmptySKU   = errors.New("sku cannot be empty")
)

// CatalogItem describes one redeemable reward as supplied by the backend.
// MaxPerOrder of 0 means the item has no per-order limit.
type CatalogItem struct {
	SKU             string  `json:"sku" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	Description     string  `json:"description"`
	Points          float64 `json:"points" validate:"gte=0"`
	MaxPerOrder     int     `json:"maxPerOrder" validate:"gte=0"`
	RequiresFitting bool    `json:"requiresFitting"`
	ImageURL        string  `json:"imageUrl"`
}

// Catalog holds the reward catalog in backend order plus a SKU index.
// Loaded once per session; treated as read-only afterwards.
type Catalog struct {
	Items []CatalogItem
	bySKU map[string]CatalogItem
}

// NewCatalog builds a Catalog from a backend-ordered item list.
// POST: Lookup returns each item by SKU; original ordering is preserved
func NewCatalog(items []CatalogItem) Catalog {
	c := Catalog{Items: items, bySKU: make(map[string]CatalogItem, len(items))}
	for _, it := range items {
		c.bySKU[it.SKU] = it
	}
	return c
}

// Lookup returns the catalog item for a SKU.
// INVARIANT: Catalog is not mutated
func (c Catalog) Lookup(sku string) (CatalogItem, bool) {
	it, ok := c.bySKU[sku]
	return it, ok
}

// Len returns the number of catalog items.
func (c Catalog) Len() int {
	return len(c.Items)
}

// Line is one basket entry: a SKU and a positive quantity.
type Line struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// Basket is an ordered list of lines, at most one per SKU.
type Basket struct {
	Lines []Line
}

// ClampQty floors a quantity to a non-negative integer and caps it at max
// when max is positive. A max of 0 means unlimited.
// POST: Result is >= 0 and <= max when max > 0
func ClampQty(qty, max int) int {
	if qty < 0 {
		qty = 0
	}
	if max > 0 && qty > max {
		return max
	}
	return qty
}

// Qty returns the current quantity for a SKU, 0 if absent.
// INVARIANT: Basket is not mutated
func (b *Basket) Qty(sku string) int {
	for _, l := range b.Lines {
		if l.SKU == sku {
			return l.Qty
		}
	}
	return 0
}

// Add merges want units of a SKU into the basket, clamping the merged
// quantity to the item's per-order limit. A request below 1 unit is treated
// as 1. An add that cannot raise the quantity (already at the limit) is a
// silent no-op and returns false.
// PRE: sku exists in cat
// POST: Basket holds at most one line for sku, with a positive clamped qty
func (b *Basket) Add(cat Catalog, sku string, want int) (bool, error) {
	if sku == "" {
		return false, ErrEmptySKU
	}
	item, ok := cat.Lookup(sku)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
	}
	if want < 1 {
		want = 1
	}
	current := b.Qty(sku)
	next := ClampQty(current+want, item.MaxPerOrder)
	if next == current {
		return false, nil
	}
	for i := range b.Lines {
		if b.Lines[i].SKU == sku {
			b.Lines[i].Qty = next
			return true, nil
		}
	}
	b.Lines = append(b.Lines, Line{SKU: sku, Qty: next})
	return true, nil
}

// SetQty replaces the quantity for a SKU, clamping to the per-order limit.
// A clamped quantity of 0 removes the line.
// POST: Line qty equals ClampQty(qty, item limit), or line is removed
func (b *Basket) SetQty(cat Catalog, sku string, qty int) error {
	item, ok := cat.Lookup(sku)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
	}
	next := ClampQty(qty, item.MaxPerOrder)
	if next == 0 {
		for i, l := range b.Lines {
			if l.SKU == sku {
				b.Lines = append(b.Lines[:i], b.Lines[i+1:]...)
				return nil
			}
		}
		return nil
	}
	for i := range b.Lines {
		if b.Lines[i].SKU == sku {
			b.Lines[i].Qty = next
			return nil
		}
	}
	b.Lines = append(b.Lines, Line{SKU: sku, Qty: next})
	return nil
}

// Total returns the basket total in points, recomputed from the catalog on
// every call. Lines whose SKU is missing from the catalog contribute 0.
// INVARIANT: Basket is not mutated; total is never cached
func (b *Basket) Total(cat Catalog) float64 {
	var total float64
	for _, l := range b.Lines {
		if item, ok := cat.Lookup(l.SKU); ok {
			total += item.Points * float64(l.Qty)
		}
	}
	return total
}

// IsEmpty returns true when the basket holds no lines.
func (b *Basket) IsEmpty() bool {
	return len(b.Lines) == 0
}

// HasFitting returns true when any basket line requires a workshop fitting.
// INVARIANT: Basket is not mutated
func (b *Basket) HasFitting(cat Catalog) bool {
	for _, l := range b.Lines {
		if item, ok := cat.Lookup(l.SKU); ok && item.RequiresFitting {
			return true
		}
	}
	return false
}

// HasDelivery returns true when any basket line is a plain delivery item
// (one that does not require a fitting).
// INVARIANT: Basket is not mutated
func (b *Basket) HasDelivery(cat Catalog) bool {
	for _, l := range b.Lines {
		if item, ok := cat.Lookup(l.SKU); ok && !item.RequiresFitting {
			return true
		}
	}
	return false
}
