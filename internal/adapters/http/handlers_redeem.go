package web

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"ownerportal/internal/adapters/http/middleware"
	"ownerportal/internal/adapters/storage/session"
	"ownerportal/internal/application/orchestrators"
	"ownerportal/internal/domain/redemption"
	"ownerportal/internal/domain/reward"
)

// wizardContext is everything a wizard handler needs after the common
// preamble: the session, the open state and the session's catalog with the
// owner's current balance.
type wizardContext struct {
	sess      session.Session
	state     *redemption.State
	catalog   reward.Catalog
	available float64
}

// loadWizard runs the shared preamble for wizard steps: session check, open
// state lookup and a fresh profile fetch so the balance shown is current.
// It writes the response itself on failure and returns ok=false.
func loadWizard(w http.ResponseWriter, r *http.Request, isHTML bool) (wizardContext, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		expireSession(w, r, isHTML)
		return wizardContext{}, false
	}

	st, open := wizards.current(sess.ID)
	if !open {
		if isHTML {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return wizardContext{}, false
		}
		http.Error(w, "No redemption in progress.", http.StatusBadRequest)
		return wizardContext{}, false
	}

	cat, ok := wizards.catalog(sess.ID)
	if !ok {
		loaded, err := deps.Backend.Rewards(r.Context(), sess.BackendToken)
		if err != nil {
			renderErrorPanel(w, r, isHTML, err.Error())
			return wizardContext{}, false
		}
		wizards.setCatalog(sess.ID, loaded)
		cat = loaded
	}

	profile, err := orchestrators.ExecuteRefreshProfile(r.Context(), sess.BackendToken, orchestrators.RefreshProfileDeps{
		Backend: deps.Backend,
	})
	if err != nil {
		expireSession(w, r, isHTML)
		return wizardContext{}, false
	}

	return wizardContext{
		sess:      sess,
		state:     st,
		catalog:   cat,
		available: profile.AvailablePoints(),
	}, true
}

// renderStep renders whichever wizard step the state is on. Inline errors
// from a rejected POST are rendered directly rather than via redirect so
// form values survive.
func renderStep(w http.ResponseWriter, r *http.Request, wc wizardContext, isHTML bool, inlineErr string) {
	switch wc.state.Step {
	case redemption.StepDetails:
		dv := newDetailsView(wc.state, wc.catalog)
		if isHTML {
			renderTemplate(w, r, "redeem_step2.html", map[string]any{
				"CSRFToken": csrf.Token(r),
				"View":      dv,
				"Error":     inlineErr,
			})
			return
		}
		writeJSON(w, map[string]any{"step": wc.state.Step, "details": dv, "error": inlineErr})
	case redemption.StepReview:
		rv := newReviewView(wc.state, wc.catalog, wc.available)
		if isHTML {
			renderTemplate(w, r, "redeem_step3.html", map[string]any{
				"CSRFToken": csrf.Token(r),
				"View":      rv,
				"Error":     inlineErr,
			})
			return
		}
		writeJSON(w, map[string]any{"step": wc.state.Step, "review": rv, "error": inlineErr})
	default:
		cv := newCatalogView(wc.state, wc.catalog, wc.available)
		if isHTML {
			renderTemplate(w, r, "redeem_step1.html", map[string]any{
				"CSRFToken": csrf.Token(r),
				"View":      cv,
				"Error":     inlineErr,
			})
			return
		}
		writeJSON(w, map[string]any{"step": wc.state.Step, "catalog": cv, "error": inlineErr})
	}
}

// handleRedeemStart handles POST /redeem/start - opens a fresh wizard.
// Any previous open wizard for the session is discarded.
func handleRedeemStart(w http.ResponseWriter, r *http.Request) {
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

	// Catalog loads once per session; a restart reuses it.
	if _, ok := wizards.catalog(sess.ID); !ok {
		cat, err := deps.Backend.Rewards(r.Context(), sess.BackendToken)
		if err != nil {
			renderErrorPanel(w, r, isHTML, err.Error())
			return
		}
		wizards.setCatalog(sess.ID, cat)
	}
	wizards.reset(sess.ID)

	if isHTML {
		http.Redirect(w, r, "/redeem", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "step": redemption.StepCatalog})
}

// handleRedeem handles GET /redeem - renders the current wizard step.
func handleRedeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	isHTML := isHTMLRequest(r)
	wc, ok := loadWizard(w, r, isHTML)
	if !ok {
		return
	}
	renderStep(w, r, wc, isHTML, "")
}

// handleRedeemAdd handles POST /redeem/add - add or set a basket quantity.
// Hitting a per-order limit is a silent clamp, not an error.
func handleRedeemAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	isHTML := isHTMLRequest(r)
	wc, ok := loadWizard(w, r, isHTML)
	if !ok {
		return
	}

	sku, qty, set := "", 1, false
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		sku = r.FormValue("SKU")
		qty = parseQty(r.FormValue("Qty"))
		set = r.FormValue("Set") == "true"
	} else {
		var body struct {
			SKU string `json:"sku"`
			Qty int    `json:"qty"`
			Set bool   `json:"set"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		sku, qty, set = body.SKU, body.Qty, body.Set
	}

	var err error
	if set {
		err = wc.state.SetItemQty(wc.catalog, sku, qty)
	} else {
		err = wc.state.AddItem(wc.catalog, sku, qty)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if isHTML {
		http.Redirect(w, r, "/redeem", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{
		"ok":          true,
		"qty":         wc.state.Basket.Qty(sku),
		"basketTotal": fmtPointsFixed(wc.state.Basket.Total(wc.catalog)),
	})
}

// handleRedeemNext handles POST /redeem/next - step 1 to step 2.
func handleRedeemNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	isHTML := isHTMLRequest(r)
	wc, ok := loadWizard(w, r, isHTML)
	if !ok {
		return
	}

	if err := wc.state.Advance(wc.catalog, wc.available); err != nil {
		renderStep(w, r, wc, isHTML, err.Error())
		return
	}

	if isHTML {
		http.Redirect(w, r, "/redeem", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "step": wc.state.Step})
}

// handleRedeemBack handles POST /redeem/back - move one step back.
// Entered values are retained for when the owner returns.
func handleRedeemBack(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	isHTML := isHTMLRequest(r)
	wc, ok := loadWizard(w, r, isHTML)
	if !ok {
		return
	}

	wc.state.Back()

	if isHTML {
		http.Redirect(w, r, "/redeem", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "step": wc.state.Step})
}

// handleRedeemDetails handles POST /redeem/details - validate step 2 and
// move to review. Validation failures re-render step 2 with the message and
// save nothing.
func handleRedeemDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	isHTML := isHTMLRequest(r)
	wc, ok := loadWizard(w, r, isHTML)
	if !ok {
		return
	}

	d := redemption.Details{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		d.Shipping = redemption.Shipping{
			Line1:    r.FormValue("Line1"),
			Line2:    r.FormValue("Line2"),
			Town:     r.FormValue("Town"),
			Postcode: r.FormValue("Postcode"),
			Phone:    r.FormValue("Phone"),
		}
		d.CollectAtFitting = r.FormValue("CollectAtFitting") == "true"
		d.ChassisNumber = r.FormValue("ChassisNumber")
		d.PreferredDateISO = r.FormValue("PreferredDate")
	} else {
		var body struct {
			Shipping         redemption.Shipping `json:"shipping"`
			CollectAtFitting bool                `json:"collectAtFitting"`
			ChassisNumber    string              `json:"chassisNumber"`
			PreferredDateISO string              `json:"preferredDateISO"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		d.Shipping = body.Shipping
		d.CollectAtFitting = body.CollectAtFitting
		d.ChassisNumber = body.ChassisNumber
		d.PreferredDateISO = body.PreferredDateISO
	}

	if err := wc.state.SubmitDetails(wc.catalog, d); err != nil {
		renderStep(w, r, wc, isHTML, err.Error())
		return
	}

	if isHTML {
		http.Redirect(w, r, "/redeem", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "step": wc.state.Step})
}

// handleRedeemSubmit handles POST /redeem/submit - final budget check,
// order submission and the confirmation screen. On success the wizard is
// discarded; the confirmation page refreshes to the dashboard shortly after
// so the new balance shows.
func handleRedeemSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	isHTML := isHTMLRequest(r)
	wc, ok := loadWizard(w, r, isHTML)
	if !ok {
		return
	}

	result, err := orchestrators.ExecuteSubmitRedemption(r.Context(), wc.sess.BackendToken, orchestrators.SubmitRedemptionInput{
		State:           wc.state,
		Catalog:         wc.catalog,
		AvailablePoints: wc.available,
	}, orchestrators.SubmitRedemptionDeps{
		Backend: deps.Backend,
	})
	if err != nil {
		// State untouched: the owner can go back and adjust.
		renderStep(w, r, wc, isHTML, err.Error())
		return
	}

	wizards.clear(wc.sess.ID)

	view := ConfirmationView{
		PointsBefore: fmtPoints(result.PointsBefore),
		PointsAfter:  fmtPoints(result.PointsAfter),
	}
	if isHTML {
		renderTemplate(w, r, "redeem_confirm.html", map[string]any{
			"View": view,
		})
		return
	}
	writeJSON(w, map[string]any{
		"ok":           true,
		"pointsBefore": result.PointsBefore,
		"pointsAfter":  result.PointsAfter,
	})
}
