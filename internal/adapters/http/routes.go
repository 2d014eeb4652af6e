package web

import "net/http"

// registerRoutes attaches all portal handlers to the mux. Handlers do their
// own method dispatch.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", handleDashboard)
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/logout", handleLogout)
	mux.HandleFunc("/password", handleChangePassword)
	mux.HandleFunc("/availability", handleSetActive)

	mux.HandleFunc("/viewings/complete", handleCompleteViewing)
	mux.HandleFunc("/viewings/impromptu", handleImpromptuViewing)
	mux.HandleFunc("/viewings/date", handleUpdateViewingDate)
	mux.HandleFunc("/viewings/feedback", handleFeedback)

	mux.HandleFunc("/redeem", handleRedeem)
	mux.HandleFunc("/redeem/start", handleRedeemStart)
	mux.HandleFunc("/redeem/add", handleRedeemAdd)
	mux.HandleFunc("/redeem/next", handleRedeemNext)
	mux.HandleFunc("/redeem/back", handleRedeemBack)
	mux.HandleFunc("/redeem/details", handleRedeemDetails)
	mux.HandleFunc("/redeem/submit", handleRedeemSubmit)
}
