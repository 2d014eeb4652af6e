package redemption

import (
	"errors"
	"fmt"
	"strings"

	"ownerportal/internal/domain/reward"
)

// Wizard steps.
const (
	StepCatalog = 1
	StepDetails = 2
	StepReview  = 3
)

// Domain errors. Messages are shown to owners verbatim.
var (
	ErrEmptyBasket     = errors.New("your basket is empty")
	ErrExceedsPoints   = errors.New("Basket exceeds your available points.")
	ErrAddressRequired = errors.New("Please complete address line 1, town/city and postcode.")
	ErrChassisRequired = errors.New("Please provide your chassis number (needed for workshop booking).")
	ErrWrongStep       = errors.New("action is not valid for the current step")
)

// Shipping holds the delivery address captured in step 2.
// Line1, Town and Postcode are required when shipping applies.
type Shipping struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	Town     string `json:"town"`
	Postcode string `json:"postcode"`
	Phone    string `json:"phone"`
}

// Workshop holds the fitting-appointment details captured in step 2.
type Workshop struct {
	ChassisNumber    string  `json:"chassisNumber"`
	PreferredDateISO *string `json:"preferredDateISO"`
}

// Order is the submission payload built from a completed wizard.
// Shipping is nil when no delivery item is present or the owner collects at
// the fitting; Workshop is nil when no fitting item is present.
type Order struct {
	Items            []reward.Line `json:"items"`
	Shipping         *Shipping     `json:"shipping"`
	CollectAtFitting bool          `json:"collectAtFitting"`
	Workshop         *Workshop     `json:"workshop"`
}

// State is the wizard-local, ephemeral redemption state. It exists only
// while the wizard is open and is discarded on completion or exit.
type State struct {
	Step             int
	Basket           reward.Basket
	Shipping         Shipping
	CollectAtFitting bool
	ChassisNumber    string
	PreferredDateISO string
}

// New returns a fresh wizard state at step 1 with an empty basket.
func New() *State {
	return &State{Step: StepCatalog}
}

// Details carries the raw step-2 form values before validation.
type Details struct {
	Shipping         Shipping
	CollectAtFitting bool
	ChassisNumber    string
	PreferredDateISO string
}

// AddItem merges a quantity of a catalog item into the basket.
// PRE: State is at step 1
// POST: Basket line for sku is clamped to its per-order limit
func (s *State) AddItem(cat reward.Catalog, sku string, qty int) error {
	if s.Step != StepCatalog {
		return ErrWrongStep
	}
	_, err := s.Basket.Add(cat, sku, qty)
	return err
}

// SetItemQty replaces a basket line quantity (0 removes the line).
// PRE: State is at step 1
func (s *State) SetItemQty(cat reward.Catalog, sku string, qty int) error {
	if s.Step != StepCatalog {
		return ErrWrongStep
	}
	return s.Basket.SetQty(cat, sku, qty)
}

// ExceedsMessage returns the step-1 inline warning when the basket total is
// over the available points, or "" when within budget.
// INVARIANT: State is not mutated
func (s *State) ExceedsMessage(cat reward.Catalog, available float64) string {
	total := s.Basket.Total(cat)
	if total <= available {
		return ""
	}
	return fmt.Sprintf("Basket exceeds your points (%.2f > %.2f). Remove some items.", total, available)
}

// Advance moves from step 1 to step 2.
// PRE: State is at step 1
// POST: Step is 2 iff 0 < basket total <= available
func (s *State) Advance(cat reward.Catalog, available float64) error {
	if s.Step != StepCatalog {
		return ErrWrongStep
	}
	total := s.Basket.Total(cat)
	if total <= 0 {
		return ErrEmptyBasket
	}
	if total > available {
		return ErrExceedsPoints
	}
	s.Step = StepDetails
	return nil
}

// SubmitDetails validates the step-2 form and moves to step 3. The delivery
// and fitting flags are re-derived from the basket, never trusted from the
// submitted form. Address completeness is checked before the chassis number.
// On failure nothing is persisted and the step does not change.
// PRE: State is at step 2
// POST: On success trimmed values are stored and Step is 3
func (s *State) SubmitDetails(cat reward.Catalog, d Details) error {
	if s.Step != StepDetails {
		return ErrWrongStep
	}

	hasDelivery := s.Basket.HasDelivery(cat)
	hasFitting := s.Basket.HasFitting(cat)

	// Collect-at-fitting only applies when both delivery and fitting items
	// are present; otherwise the address is required again.
	collect := d.CollectAtFitting && hasDelivery && hasFitting

	shipping := Shipping{
		Line1:    strings.TrimSpace(d.Shipping.Line1),
		Line2:    strings.TrimSpace(d.Shipping.Line2),
		Town:     strings.TrimSpace(d.Shipping.Town),
		Postcode: strings.TrimSpace(d.Shipping.Postcode),
		Phone:    strings.TrimSpace(d.Shipping.Phone),
	}
	chassis := strings.TrimSpace(d.ChassisNumber)

	if hasDelivery && !collect {
		if shipping.Line1 == "" || shipping.Town == "" || shipping.Postcode == "" {
			return ErrAddressRequired
		}
	}
	if hasFitting {
		if chassis == "" {
			return ErrChassisRequired
		}
	}

	if hasDelivery {
		s.Shipping = shipping
	}
	s.CollectAtFitting = collect
	if hasFitting {
		s.ChassisNumber = chassis
		s.PreferredDateISO = strings.TrimSpace(d.PreferredDateISO)
	}
	s.Step = StepReview
	return nil
}

// Back moves one step towards step 1 without clearing any captured values,
// so previously entered fields re-render pre-filled.
func (s *State) Back() {
	if s.Step > StepCatalog {
		s.Step--
	}
}

// ValidateSubmit re-checks the points budget immediately before submission,
// guarding against server-side point changes since step 1.
// PRE: State is at step 3
// INVARIANT: State is not mutated
func (s *State) ValidateSubmit(cat reward.Catalog, available float64) error {
	if s.Step != StepReview {
		return ErrWrongStep
	}
	if s.Basket.Total(cat) > available {
		return ErrExceedsPoints
	}
	return nil
}

// BuildOrder assembles the redeem payload from the wizard state.
// POST: Shipping is nil iff there is no delivery item or collect-at-fitting
// is set; Workshop is nil iff there is no fitting item
func (s *State) BuildOrder(cat reward.Catalog) Order {
	order := Order{
		Items:            append([]reward.Line(nil), s.Basket.Lines...),
		CollectAtFitting: s.CollectAtFitting,
	}
	if s.Basket.HasDelivery(cat) && !s.CollectAtFitting {
		sh := s.Shipping
		order.Shipping = &sh
	}
	if s.Basket.HasFitting(cat) {
		w := Workshop{ChassisNumber: s.ChassisNumber}
		if s.PreferredDateISO != "" {
			d := s.PreferredDateISO
			w.PreferredDateISO = &d
		}
		order.Workshop = &w
	}
	return order
}

// Summary is the read-only review model rendered at step 3.
type Summary struct {
	Rows        []SummaryRow
	Total       float64
	After       float64
	HasDelivery bool
	HasFitting  bool
}

// SummaryRow is one review line with its recomputed subtotal.
type SummaryRow struct {
	SKU        string
	Name       string
	PointsEach float64
	Qty        int
	Subtotal   float64
}

// Summarize builds the step-3 review from current state. The after-order
// figure is display-only; submission re-validates against fresh points.
// INVARIANT: State is not mutated
func (s *State) Summarize(cat reward.Catalog, available float64) Summary {
	sum := Summary{
		HasDelivery: s.Basket.HasDelivery(cat),
		HasFitting:  s.Basket.HasFitting(cat),
	}
	for _, l := range s.Basket.Lines {
		item, _ := cat.Lookup(l.SKU)
		sum.Rows = append(sum.Rows, SummaryRow{
			SKU:        l.SKU,
			Name:       item.Name,
			PointsEach: item.Points,
			Qty:        l.Qty,
			Subtotal:   item.Points * float64(l.Qty),
		})
	}
	sum.Total = s.Basket.Total(cat)
	sum.After = available - sum.Total
	return sum
}
