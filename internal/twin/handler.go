package twin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ownerportal/internal/adapters/email"
	"ownerportal/internal/domain/redemption"
	"ownerportal/internal/domain/reward"
	"ownerportal/internal/domain/viewing"
)

// Handler serves the single action endpoint. Every request is a POST with a
// JSON body carrying "action" plus action-specific fields; every response is
// {ok:true,...} or {ok:false,error}.
type Handler struct {
	store      *Store
	catalog    reward.Catalog
	sender     email.Sender
	feedbackTo string
}

// NewHandler builds the endpoint handler. sender may be a NoopSender; the
// feedback address is where ownerfeedback notifications go.
func NewHandler(store *Store, catalog reward.Catalog, sender email.Sender, feedbackTo string) *Handler {
	return &Handler{store: store, catalog: catalog, sender: sender, feedbackTo: feedbackTo}
}

type envelope struct {
	Action string `json:"action"`
	Token  string `json:"token"`
}

func writeOK(w http.ResponseWriter, fields map[string]any) {
	out := map[string]any{"ok": true}
	for k, v := range fields {
		out[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func writeErr(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": message})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeErr(w, "Could not read request")
		return
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		writeErr(w, "Malformed request")
		return
	}

	slog.Debug("twin_action", "action", env.Action)

	switch env.Action {
	case "login":
		h.login(w, r.Context(), body)
	case "logout":
		h.store.RevokeToken(env.Token)
		writeOK(w, nil)
	case "me":
		h.me(w, r.Context(), env)
	case "rewards":
		h.rewards(w, env)
	case "viewings":
		h.viewings(w, r.Context(), env)
	case "redeem":
		h.redeem(w, r.Context(), env, body)
	case "setactive":
		h.setActive(w, r.Context(), env, body)
	case "changepassword":
		h.changePassword(w, r.Context(), env, body)
	case "createviewingrequest":
		h.createViewingRequest(w, r.Context(), body)
	case "updateviewingdate":
		h.updateViewingDate(w, r.Context(), env, body)
	case "confirmviewing":
		h.confirmViewing(w, r.Context(), env, body)
	case "ownerfeedback":
		h.ownerFeedback(w, r.Context(), env, body)
	default:
		writeErr(w, "Unknown action")
	}
}

// authed resolves the envelope token, or writes the rejection itself.
func (h *Handler) authed(w http.ResponseWriter, env envelope) (string, bool) {
	num, ok := h.store.ResolveToken(env.Token)
	if !ok {
		writeErr(w, "Invalid or expired token")
		return "", false
	}
	return num, true
}

func (h *Handler) login(w http.ResponseWriter, ctx context.Context, body []byte) {
	var req struct {
		OwnerNumber string `json:"ownerNumber"`
		Password    string `json:"password"`
	}
	json.Unmarshal(body, &req)

	o, err := h.store.GetOwner(ctx, strings.TrimSpace(req.OwnerNumber))
	if err != nil {
		writeErr(w, "Unknown owner number or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(req.Password)) != nil {
		writeErr(w, "Unknown owner number or password")
		return
	}

	token := uuid.New().String()
	h.store.IssueToken(token, o.OwnerNumber)
	writeOK(w, map[string]any{"token": token})
}

func (h *Handler) me(w http.ResponseWriter, ctx context.Context, env envelope) {
	num, ok := h.authed(w, env)
	if !ok {
		return
	}
	profile, err := h.store.Profile(ctx, num)
	if err != nil {
		writeErr(w, "Owner not found")
		return
	}
	writeOK(w, map[string]any{"profile": profile})
}

func (h *Handler) rewards(w http.ResponseWriter, env envelope) {
	if _, ok := h.authed(w, env); !ok {
		return
	}
	items := h.catalog.Items
	if items == nil {
		items = []reward.CatalogItem{}
	}
	writeOK(w, map[string]any{"items": items})
}

func (h *Handler) viewings(w http.ResponseWriter, ctx context.Context, env envelope) {
	num, ok := h.authed(w, env)
	if !ok {
		return
	}
	items, err := h.store.Viewings(ctx, num)
	if err != nil {
		writeErr(w, "Could not load viewings")
		return
	}
	if items == nil {
		items = []viewing.Viewing{}
	}
	writeOK(w, map[string]any{"items": items})
}

func (h *Handler) redeem(w http.ResponseWriter, ctx context.Context, env envelope, body []byte) {
	num, ok := h.authed(w, env)
	if !ok {
		return
	}
	var order redemption.Order
	if err := json.Unmarshal(body, &order); err != nil {
		writeErr(w, "Malformed order")
		return
	}
	if len(order.Items) == 0 {
		writeErr(w, "Order has no items")
		return
	}

	total := 0.0
	for _, line := range order.Items {
		item, found := h.catalog.Lookup(line.SKU)
		if !found {
			writeErr(w, fmt.Sprintf("Unknown reward %q", line.SKU))
			return
		}
		if line.Qty < 1 {
			writeErr(w, "Order quantities must be positive")
			return
		}
		if item.MaxPerOrder > 0 && line.Qty > item.MaxPerOrder {
			writeErr(w, fmt.Sprintf("Too many of %q in one order", item.Name))
			return
		}
		total += item.Points * float64(line.Qty)
	}

	o, err := h.store.GetOwner(ctx, num)
	if err != nil {
		writeErr(w, "Owner not found")
		return
	}
	if total > o.RewardPoints {
		writeErr(w, "Insufficient points for this order")
		return
	}

	payload, _ := json.Marshal(order)
	orderID := uuid.New().String()
	if err := h.store.InsertOrder(ctx, orderID, num, string(payload), total, time.Now().UTC().Format(time.RFC3339)); err != nil {
		writeErr(w, "Could not record the order")
		return
	}
	after, err := h.store.AdjustPoints(ctx, num, -total)
	if err != nil {
		writeErr(w, "Could not update the balance")
		return
	}

	slog.Info("twin_redeem", "owner", num, "order", orderID, "points", total)
	writeOK(w, map[string]any{
		"pointsBefore": o.RewardPoints,
		"pointsAfter":  after,
	})
}

func (h *Handler) setActive(w http.ResponseWriter, ctx context.Context, env envelope, body []byte) {
	num, ok := h.authed(w, env)
	if !ok {
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	json.Unmarshal(body, &req)
	if err := h.store.SetActive(ctx, num, req.Active); err != nil {
		writeErr(w, "Could not update availability")
		return
	}
	writeOK(w, nil)
}

func (h *Handler) changePassword(w http.ResponseWriter, ctx context.Context, env envelope, body []byte) {
	num, ok := h.authed(w, env)
	if !ok {
		return
	}
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	json.Unmarshal(body, &req)
	if req.NewPassword == "" {
		writeErr(w, "New password must not be empty")
		return
	}

	o, err := h.store.GetOwner(ctx, num)
	if err != nil {
		writeErr(w, "Owner not found")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(req.OldPassword)) != nil {
		writeErr(w, "Current password is incorrect")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeErr(w, "Could not update the password")
		return
	}
	if err := h.store.SetPasswordHash(ctx, num, string(hash)); err != nil {
		writeErr(w, "Could not update the password")
		return
	}
	writeOK(w, nil)
}

// createViewingRequest is the one unauthenticated action: impromptu
// viewings are keyed by owner number and land as TBC for admin review.
func (h *Handler) createViewingRequest(w http.ResponseWriter, ctx context.Context, body []byte) {
	var req struct {
		OwnerNumber   string `json:"ownerNumber"`
		ViewerName    string `json:"viewerName"`
		ViewerEmail   string `json:"viewerEmail"`
		ViewerPhone   string `json:"viewerPhone"`
		RequestedDate string `json:"requestedDate"`
		Notes         string `json:"notes"`
		Source        string `json:"source"`
	}
	json.Unmarshal(body, &req)

	if req.OwnerNumber == "" || req.ViewerName == "" || req.RequestedDate == "" {
		writeErr(w, "Owner number, viewer name and date are required")
		return
	}
	if _, err := h.store.GetOwner(ctx, req.OwnerNumber); err != nil {
		writeErr(w, "Unknown owner number")
		return
	}

	v := viewing.Viewing{
		ViewingID:   uuid.New().String(),
		ViewingDate: req.RequestedDate,
		ViewerName:  req.ViewerName,
		Status:      viewing.StatusTBC,
	}
	if err := h.store.InsertViewing(ctx, req.OwnerNumber, v, req.ViewerEmail, req.ViewerPhone, req.Notes, req.Source); err != nil {
		writeErr(w, "Could not record the viewing")
		return
	}
	slog.Info("twin_viewing_request", "owner", req.OwnerNumber, "source", req.Source)
	writeOK(w, nil)
}

func (h *Handler) updateViewingDate(w http.ResponseWriter, ctx context.Context, env envelope, body []byte) {
	num, ok := h.authed(w, env)
	if !ok {
		return
	}
	var req struct {
		ViewingID string `json:"viewingId"`
		DateISO   string `json:"dateISO"`
	}
	json.Unmarshal(body, &req)
	if req.ViewingID == "" || req.DateISO == "" {
		writeErr(w, "Viewing and date are required")
		return
	}
	if err := h.store.SetViewingDate(ctx, num, req.ViewingID, req.DateISO); err != nil {
		writeErr(w, "Viewing not found")
		return
	}
	writeOK(w, nil)
}

func (h *Handler) confirmViewing(w http.ResponseWriter, ctx context.Context, env envelope, body []byte) {
	num, ok := h.authed(w, env)
	if !ok {
		return
	}
	var req struct {
		ViewingID string `json:"viewingId"`
	}
	json.Unmarshal(body, &req)

	err := h.store.CompleteViewing(ctx, num, req.ViewingID, viewing.CompletionPoints)
	if errors.Is(err, sql.ErrNoRows) {
		writeErr(w, "Only arranged viewings can be confirmed")
		return
	}
	if err != nil {
		writeErr(w, "Could not confirm the viewing")
		return
	}
	if _, err := h.store.AdjustPoints(ctx, num, viewing.CompletionPoints); err != nil {
		writeErr(w, "Could not update the balance")
		return
	}
	slog.Info("twin_viewing_confirmed", "owner", num, "viewing", req.ViewingID)
	writeOK(w, nil)
}

func (h *Handler) ownerFeedback(w http.ResponseWriter, ctx context.Context, env envelope, body []byte) {
	num, ok := h.authed(w, env)
	if !ok {
		return
	}
	var req struct {
		ViewingID string `json:"viewingId"`
		Feedback  string `json:"feedback"`
	}
	json.Unmarshal(body, &req)
	if strings.TrimSpace(req.Feedback) == "" {
		writeErr(w, "Feedback must not be empty")
		return
	}
	if err := h.store.SetFeedback(ctx, num, req.ViewingID, req.Feedback); err != nil {
		writeErr(w, "Viewing not found")
		return
	}

	if h.sender != nil && h.feedbackTo != "" {
		_, err := h.sender.Send(ctx, email.SendRequest{
			To:      []string{h.feedbackTo},
			Subject: fmt.Sprintf("Viewing feedback from %s", num),
			HTML: fmt.Sprintf("<p>Owner %s left feedback on viewing %s:</p><blockquote>%s</blockquote>",
				html.EscapeString(num), html.EscapeString(req.ViewingID), html.EscapeString(req.Feedback)),
		})
		if err != nil {
			slog.Error("twin_feedback_email_failed", "error", err.Error())
		}
	}
	writeOK(w, nil)
}
