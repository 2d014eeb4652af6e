package web

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"

	"ownerportal/internal/adapters/http/middleware"
	"ownerportal/internal/application/orchestrators"
	"ownerportal/internal/domain/viewing"
)

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

const templatesDir = "internal/adapters/http/templates"

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())
	ownerName := ""
	if loggedIn {
		ownerName = sess.OwnerName
	}

	funcMap := template.FuncMap{
		"isLoggedIn":     func() bool { return loggedIn },
		"currentOwner":   func() string { return ownerName },
		"csrfToken":      func() string { return csrf.Token(r) },
		"renderMarkdown": renderMarkdown,
	}

	layoutPath := filepath.Join(templatesDir, "layout.html")
	pagePath := filepath.Join(templatesDir, templateName)
	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, pagePath)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		http.Error(w, "Render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// expireSession clears the cookie and stored session after the backend has
// rejected the token, then sends the owner back to login.
func expireSession(w http.ResponseWriter, r *http.Request, isHTML bool) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		deps.SessionStore.Delete(r.Context(), sess.ID)
		wizards.clearAll(sess.ID)
	}
	middleware.ClearSessionCookie(w)
	if isHTML {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Error(w, orchestrators.ErrSessionExpired.Error(), http.StatusUnauthorized)
}

// renderErrorPanel shows a full-page error for failures the owner cannot fix
// by retrying the form, such as the reward catalog refusing to load.
func renderErrorPanel(w http.ResponseWriter, r *http.Request, isHTML bool, msg string) {
	if isHTML {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		renderTemplate(w, r, "error.html", map[string]any{"Message": msg})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": msg})
}

// handleLogin handles GET (form) and POST (authenticate) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		// If already logged in, redirect to dashboard
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login.html", map[string]any{
			"CSRFToken":   csrf.Token(r),
			"OwnerNumber": "",
		})
		return
	}

	if r.Method == "POST" {
		isHTML := isHTMLRequest(r)
		input := orchestrators.LoginInput{}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.OwnerNumber = r.FormValue("OwnerNumber")
			input.Password = r.FormValue("Password")
		} else {
			if err := strictDecode(r, &input); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
		}

		loginDeps := orchestrators.LoginDeps{
			Backend:      deps.Backend,
			SessionStore: deps.SessionStore,
		}
		result, err := orchestrators.ExecuteLogin(r.Context(), input, loginDeps)
		if err != nil {
			if isHTML {
				renderTemplate(w, r, "login.html", map[string]any{
					"CSRFToken":   csrf.Token(r),
					"OwnerNumber": input.OwnerNumber,
					"Error":       err.Error(),
				})
				return
			}
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		middleware.SetSessionCookie(w, result.Session.ID)
		if isHTML {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		orchestrators.ExecuteLogout(r.Context(), sess, orchestrators.LogoutDeps{
			Backend:      deps.Backend,
			SessionStore: deps.SessionStore,
		})
		wizards.clearAll(sess.ID)
	}

	middleware.ClearSessionCookie(w)
	if isHTMLRequest(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

// handleDashboard handles GET / - the owner's home screen.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	isHTML := isHTMLRequest(r)
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		if isHTML {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Error(w, orchestrators.ErrSessionExpired.Error(), http.StatusUnauthorized)
		return
	}

	result, err := orchestrators.ExecuteLoadDashboard(r.Context(), sess.BackendToken, orchestrators.DashboardDeps{
		Backend: deps.Backend,
	})
	if err != nil && result.Profile.OwnerNumber == "" {
		// Token no longer valid on the backend side.
		expireSession(w, r, isHTML)
		return
	}

	dv := newDashboardView(result.Profile, result.Viewings)
	if err != nil {
		dv.ViewingsError = err.Error()
	}
	if _, open := wizards.current(sess.ID); open {
		dv.HasOpenWizard = true
	}

	if isHTML {
		renderTemplate(w, r, "dashboard.html", map[string]any{
			"CSRFToken": csrf.Token(r),
			"View":      dv,
		})
		return
	}
	writeJSON(w, dv)
}

// handleSetActive handles POST /availability - the for-sale toggle.
// The backend is re-queried afterwards rather than trusting the flip.
func handleSetActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	isHTML := isHTMLRequest(r)
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		expireSession(w, r, isHTML)
		return
	}

	var active bool
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		active = r.FormValue("Active") == "true"
	} else {
		var body struct {
			Active bool `json:"active"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		active = body.Active
	}

	err := orchestrators.ExecuteSetActive(r.Context(), sess.BackendToken, active, orchestrators.SetActiveDeps{
		Backend: deps.Backend,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if isHTML {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "isActive": active})
}

// handleChangePassword handles GET (form) and POST (update) for /password
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	isHTML := isHTMLRequest(r)
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		expireSession(w, r, isHTML)
		return
	}

	if r.Method == "GET" {
		renderTemplate(w, r, "change_password.html", map[string]any{
			"CSRFToken": csrf.Token(r),
		})
		return
	}

	if r.Method == "POST" {
		input := orchestrators.ChangePasswordInput{}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.CurrentPassword = r.FormValue("CurrentPassword")
			input.NewPassword = r.FormValue("NewPassword")
			input.ConfirmPassword = r.FormValue("ConfirmPassword")
		} else {
			if err := strictDecode(r, &input); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
		}

		err := orchestrators.ExecuteChangePassword(r.Context(), sess.BackendToken, input, orchestrators.ChangePasswordDeps{
			Backend: deps.Backend,
		})
		if err != nil {
			if isHTML {
				renderTemplate(w, r, "change_password.html", map[string]any{
					"CSRFToken": csrf.Token(r),
					"Error":     err.Error(),
				})
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if isHTML {
			renderTemplate(w, r, "change_password.html", map[string]any{
				"CSRFToken": csrf.Token(r),
				"Success":   "Password changed.",
			})
			return
		}
		writeJSON(w, map[string]any{"ok": true})
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleCompleteViewing handles POST /viewings/complete - the optimistic
// mark-complete. The response carries both the patched row and the
// reconciled profile so the screen can settle on backend figures.
func handleCompleteViewing(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	isHTML := isHTMLRequest(r)
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		expireSession(w, r, isHTML)
		return
	}

	var v viewing.Viewing
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		v.ViewingID = r.FormValue("ViewingID")
		v.Status = r.FormValue("Status")
	} else {
		if err := strictDecode(r, &v); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
	}

	result, err := orchestrators.ExecuteCompleteViewing(r.Context(), sess.BackendToken, orchestrators.CompleteViewingInput{
		Viewing: v,
	}, orchestrators.CompleteViewingDeps{
		Backend: deps.Backend,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if isHTML {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{
		"ok":           true,
		"viewing":      newViewingRow(result.Optimistic),
		"rewardPoints": fmtPoints(result.Profile.AvailablePoints()),
	})
}

// handleImpromptuViewing handles POST /viewings/impromptu - logging a visit
// that happened outside the system. It lands as TBC for admin review.
func handleImpromptuViewing(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	isHTML := isHTMLRequest(r)
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		expireSession(w, r, isHTML)
		return
	}

	input := orchestrators.ImpromptuViewingInput{OwnerNumber: sess.OwnerNumber}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.DateISO = r.FormValue("Date")
		input.Location = r.FormValue("Location")
		input.ViewerName = r.FormValue("ViewerName")
		input.ViewerEmail = r.FormValue("ViewerEmail")
		input.ViewerPhone = r.FormValue("ViewerPhone")
		input.Notes = r.FormValue("Notes")
	} else {
		var body struct {
			DateISO     string `json:"dateISO"`
			Location    string `json:"location"`
			ViewerName  string `json:"viewerName"`
			ViewerEmail string `json:"viewerEmail"`
			ViewerPhone string `json:"viewerPhone"`
			Notes       string `json:"notes"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		input.DateISO = body.DateISO
		input.Location = body.Location
		input.ViewerName = body.ViewerName
		input.ViewerEmail = body.ViewerEmail
		input.ViewerPhone = body.ViewerPhone
		input.Notes = body.Notes
	}

	err := orchestrators.ExecuteLogImpromptuViewing(r.Context(), input, orchestrators.ImpromptuViewingDeps{
		Backend: deps.Backend,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if isHTML {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

// handleUpdateViewingDate handles POST /viewings/date
func handleUpdateViewingDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	isHTML := isHTMLRequest(r)
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		expireSession(w, r, isHTML)
		return
	}

	viewingID, dateISO := "", ""
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		viewingID = r.FormValue("ViewingID")
		dateISO = r.FormValue("Date")
	} else {
		var body struct {
			ViewingID string `json:"viewingId"`
			DateISO   string `json:"dateISO"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		viewingID = body.ViewingID
		dateISO = body.DateISO
	}

	err := orchestrators.ExecuteUpdateViewingDate(r.Context(), sess.BackendToken, viewingID, dateISO, orchestrators.UpdateViewingDateDeps{
		Backend: deps.Backend,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if isHTML {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

// handleFeedback handles POST /viewings/feedback
func handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	isHTML := isHTMLRequest(r)
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		expireSession(w, r, isHTML)
		return
	}

	viewingID, feedback := "", ""
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		viewingID = r.FormValue("ViewingID")
		feedback = r.FormValue("Feedback")
	} else {
		var body struct {
			ViewingID string `json:"viewingId"`
			Feedback  string `json:"feedback"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		viewingID = body.ViewingID
		feedback = body.Feedback
	}

	err := orchestrators.ExecuteSendFeedback(r.Context(), sess.BackendToken, viewingID, feedback, orchestrators.OwnerFeedbackDeps{
		Backend: deps.Backend,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if isHTML {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

// parseQty reads a quantity form value, defaulting to 1.
func parseQty(raw string) int {
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}
