package web

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"ownerportal/internal/domain/owner"
	"ownerportal/internal/domain/redemption"
	"ownerportal/internal/domain/reward"
	"ownerportal/internal/domain/viewing"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// fmtPoints renders a points figure the way the backend states it: whole
// numbers without a fraction, fractional balances to two places.
func fmtPoints(p float64) string {
	if p == float64(int64(p)) {
		return strconv.FormatInt(int64(p), 10)
	}
	return fmt.Sprintf("%.2f", p)
}

// fmtPointsFixed always shows two decimal places. Every figure inside the
// redemption wizard renders this way so running totals line up.
func fmtPointsFixed(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

// statusClassFor maps a viewing status to its pill CSS class.
func statusClassFor(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case viewing.StatusArranged:
		return "pill pill-arranged"
	case viewing.StatusViewed:
		return "pill pill-viewed"
	case viewing.StatusSale:
		return "pill pill-sale"
	case viewing.StatusNoSale:
		return "pill pill-nosale"
	default:
		return "pill pill-tbc"
	}
}

// ViewingRow is one dashboard table row.
type ViewingRow struct {
	ViewingID   string `json:"viewingId"`
	DateISO     string `json:"dateISO"`
	DateUK      string `json:"dateUK"`
	ViewerName  string `json:"viewerName"`
	Status      string `json:"status"`
	StatusClass string `json:"-"`
	Points      string `json:"points"`
	CanComplete bool   `json:"canComplete"`
}

// DashboardView is the full dashboard page model.
type DashboardView struct {
	OwnerNumber   string       `json:"ownerNumber"`
	OwnerName     string       `json:"ownerName"`
	JoinedYear    int          `json:"joinedYear"`
	IsActive      bool         `json:"isActive"`
	TotalViewings int          `json:"totalViewings"`
	RewardPoints  string       `json:"rewardPoints"`
	Viewings      []ViewingRow `json:"viewings"`
	ViewingsError string       `json:"viewingsError,omitempty"`
	HasOpenWizard bool         `json:"hasOpenWizard"`
}

func newViewingRow(v viewing.Viewing) ViewingRow {
	points := ""
	if v.PointsAllocated != nil {
		points = fmtPoints(*v.PointsAllocated)
	}
	return ViewingRow{
		ViewingID:   v.ViewingID,
		DateISO:     viewing.ToISO(v.ViewingDate),
		DateUK:      viewing.ToUK(v.ViewingDate),
		ViewerName:  v.ViewerName,
		Status:      v.StatusKey(),
		StatusClass: statusClassFor(v.Status),
		Points:      points,
		CanComplete: v.CanComplete(),
	}
}

func newDashboardView(p owner.Profile, viewings []viewing.Viewing) DashboardView {
	dv := DashboardView{
		OwnerNumber:   p.OwnerNumber,
		OwnerName:     p.DisplayName(),
		JoinedYear:    p.JoinedYear,
		IsActive:      p.IsActive,
		TotalViewings: p.Totals.Viewings,
		RewardPoints:  fmtPoints(p.AvailablePoints()),
	}
	for _, v := range viewings {
		dv.Viewings = append(dv.Viewings, newViewingRow(v))
	}
	return dv
}

// CatalogItemView is one reward card on wizard step 1.
type CatalogItemView struct {
	SKU             string        `json:"sku"`
	Name            string        `json:"name"`
	DescriptionHTML template.HTML `json:"-"`
	Points          string        `json:"points"`
	MaxPerOrder     int           `json:"maxPerOrder"`
	RequiresFitting bool          `json:"requiresFitting"`
	ImageURL        string        `json:"imageUrl"`
	Qty             int           `json:"qty"`
}

// CatalogView is the wizard step-1 page model.
type CatalogView struct {
	Items          []CatalogItemView `json:"items"`
	BasketTotal    string            `json:"basketTotal"`
	Available      string            `json:"available"`
	Exceeds        bool              `json:"exceeds"`
	ExceedsMessage string            `json:"exceedsMessage,omitempty"`
	BasketEmpty    bool              `json:"basketEmpty"`
}

func newCatalogView(st *redemption.State, cat reward.Catalog, available float64) CatalogView {
	cv := CatalogView{
		BasketTotal: fmtPointsFixed(st.Basket.Total(cat)),
		Available:   fmtPointsFixed(available),
		BasketEmpty: st.Basket.IsEmpty(),
	}
	if msg := st.ExceedsMessage(cat, available); msg != "" {
		cv.Exceeds = true
		cv.ExceedsMessage = msg
	}
	for _, item := range cat.Items {
		cv.Items = append(cv.Items, CatalogItemView{
			SKU:             item.SKU,
			Name:            item.Name,
			DescriptionHTML: renderMarkdown(item.Description),
			Points:          fmtPointsFixed(item.Points),
			MaxPerOrder:     item.MaxPerOrder,
			RequiresFitting: item.RequiresFitting,
			ImageURL:        item.ImageURL,
			Qty:             st.Basket.Qty(item.SKU),
		})
	}
	return cv
}

// DetailsView is the wizard step-2 page model. The delivery and fitting
// sections show or hide based on what the basket contains.
type DetailsView struct {
	HasDelivery      bool                `json:"hasDelivery"`
	HasFitting       bool                `json:"hasFitting"`
	Shipping         redemption.Shipping `json:"shipping"`
	CollectAtFitting bool                `json:"collectAtFitting"`
	ChassisNumber    string              `json:"chassisNumber"`
	PreferredDateISO string              `json:"preferredDateISO"`
}

func newDetailsView(st *redemption.State, cat reward.Catalog) DetailsView {
	return DetailsView{
		HasDelivery:      st.Basket.HasDelivery(cat),
		HasFitting:       st.Basket.HasFitting(cat),
		Shipping:         st.Shipping,
		CollectAtFitting: st.CollectAtFitting,
		ChassisNumber:    st.ChassisNumber,
		PreferredDateISO: st.PreferredDateISO,
	}
}

// ReviewRow is one line on the wizard step-3 review.
type ReviewRow struct {
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PointsEach string `json:"pointsEach"`
	Subtotal   string `json:"subtotal"`
}

// ReviewView is the wizard step-3 page model. After is display-only;
// submission re-validates against a fresh balance.
type ReviewView struct {
	Rows             []ReviewRow         `json:"rows"`
	Total            string              `json:"total"`
	After            string              `json:"after"`
	HasDelivery      bool                `json:"hasDelivery"`
	HasFitting       bool                `json:"hasFitting"`
	Shipping         redemption.Shipping `json:"shipping"`
	CollectAtFitting bool                `json:"collectAtFitting"`
	ChassisNumber    string              `json:"chassisNumber"`
	PreferredDateUK  string              `json:"preferredDateUK"`
}

func newReviewView(st *redemption.State, cat reward.Catalog, available float64) ReviewView {
	sum := st.Summarize(cat, available)
	rv := ReviewView{
		Total:            fmtPointsFixed(sum.Total),
		After:            fmtPointsFixed(sum.After),
		HasDelivery:      sum.HasDelivery,
		HasFitting:       sum.HasFitting,
		Shipping:         st.Shipping,
		CollectAtFitting: st.CollectAtFitting,
		ChassisNumber:    st.ChassisNumber,
	}
	if st.PreferredDateISO != "" {
		rv.PreferredDateUK = viewing.ToUK(st.PreferredDateISO)
	}
	for _, row := range sum.Rows {
		rv.Rows = append(rv.Rows, ReviewRow{
			Name:       row.Name,
			Qty:        row.Qty,
			PointsEach: fmtPointsFixed(row.PointsEach),
			Subtotal:   fmtPointsFixed(row.Subtotal),
		})
	}
	return rv
}

// ConfirmationView renders the backend-authoritative totals verbatim after
// a successful redemption.
type ConfirmationView struct {
	PointsBefore string `json:"pointsBefore"`
	PointsAfter  string `json:"pointsAfter"`
}
