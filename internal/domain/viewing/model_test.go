package viewing_test

import (
	"testing"

	"ownerportal/internal/domain/viewing"
)

// TestViewing_CanComplete tests the mark-complete gate per status.
func TestViewing_CanComplete(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{status: viewing.StatusArranged, want: true},
		{status: "arranged", want: true},
		{status: viewing.StatusTBC, want: false},
		{status: viewing.StatusViewed, want: false},
		{status: viewing.StatusSale, want: false},
		{status: viewing.StatusNoSale, want: false},
		{status: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			v := viewing.Viewing{ViewingID: "v1", Status: tt.status}
			if got := v.CanComplete(); got != tt.want {
				t.Errorf("CanComplete() with status %q = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

// TestViewing_ApplyCompletion tests the optimistic patch values.
func TestViewing_ApplyCompletion(t *testing.T) {
	v := viewing.Viewing{ViewingID: "v1", Status: viewing.StatusArranged}
	v.ApplyCompletion()
	if v.Status != viewing.StatusViewed {
		t.Errorf("status = %q, want VIEWED", v.Status)
	}
	if v.PointsAllocated == nil || *v.PointsAllocated != viewing.CompletionPoints {
		t.Errorf("points = %v, want %v", v.PointsAllocated, viewing.CompletionPoints)
	}
}

// TestDateFormatting tests ISO and UK renderings of backend date values.
func TestDateFormatting(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantISO string
		wantUK  string
	}{
		{name: "plain date", value: "2026-03-09", wantISO: "2026-03-09", wantUK: "09/03/2026"},
		{name: "rfc3339", value: "2026-03-09T10:30:00Z", wantISO: "2026-03-09", wantUK: "09/03/2026"},
		{name: "empty", value: "", wantISO: "", wantUK: "-"},
		{name: "garbage", value: "not a date", wantISO: "", wantUK: "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := viewing.ToISO(tt.value); got != tt.wantISO {
				t.Errorf("ToISO(%q) = %q, want %q", tt.value, got, tt.wantISO)
			}
			if got := viewing.ToUK(tt.value); got != tt.wantUK {
				t.Errorf("ToUK(%q) = %q, want %q", tt.value, got, tt.wantUK)
			}
		})
	}
}
