package viewing

import (
	"strings"
	"time"
)

// Viewing status constants. The backend stores the display form, including
// the space in "NO SALE".
const (
	StatusTBC      = "TBC"
	StatusArranged = "ARRANGED"
	StatusViewed   = "VIEWED"
	StatusSale     = "SALE"
	StatusNoSale   = "NO SALE"
)

// CompletionPoints is the fixed allocation shown immediately when an owner
// marks a viewing complete, pending backend confirmation.
const CompletionPoints = 0.25

// Viewing is one scheduled or logged visit by a prospective buyer. Viewings
// are created server-side and never deleted by the portal; status moves via
// owner actions or backend-only admin confirmation into SALE / NO SALE.
type Viewing struct {
	ViewingID       string   `json:"viewingId" validate:"required"`
	ViewingDate     string   `json:"viewingDate"`
	ViewerName      string   `json:"viewerName"`
	Status          string   `json:"status"`
	PointsAllocated *float64 `json:"pointsAllocated"`
}

// StatusKey returns the upper-cased status used for comparisons and display.
// INVARIANT: Viewing fields are not mutated
func (v Viewing) StatusKey() string {
	return strings.ToUpper(strings.TrimSpace(v.Status))
}

// CanComplete reports whether the owner may mark this viewing complete.
// Only ARRANGED viewings can transition to VIEWED.
// INVARIANT: Viewing fields are not mutated
func (v Viewing) CanComplete() bool {
	return v.StatusKey() == StatusArranged
}

// ApplyCompletion applies the optimistic local patch for a mark-complete
// action: VIEWED with the fixed allocation. The authoritative profile fetch
// reconciles the real figures afterwards.
// PRE: CanComplete() is true
// POST: Status is VIEWED, PointsAllocated is CompletionPoints
func (v *Viewing) ApplyCompletion() {
	v.Status = StatusViewed
	pts := CompletionPoints
	v.PointsAllocated = &pts
}

// ToISO normalizes a backend date value to YYYY-MM-DD, or "" when unparseable.
func ToISO(value string) string {
	t, ok := parseDate(value)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

// ToUK formats a backend date value as DD/MM/YYYY for display, or "-" when
// unparseable.
func ToUK(value string) string {
	t, ok := parseDate(value)
	if !ok {
		return "-"
	}
	return t.Format("02/01/2006")
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
