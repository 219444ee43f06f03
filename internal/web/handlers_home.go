package web

import (
	"net/http"
	"strings"

	"github.com/digkill/wallify/internal/service"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if r.URL.Query().Get("checkout") == "success" && sessionID != "" {
		res, err := s.deps.Payments.VerifyReturn(ctx, sessionID)
		switch {
		case err != nil:
			s.log.Warn("checkout return verification failed", "session_id", sessionID, "err", err)
		case res.Upgraded:
			if res.Username == currentUser(r) {
				s.refreshPremium(r, true)
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	data := currentSession(r)
	body := map[string]any{
		"authenticated": data != nil,
		"aspect_ratios": service.AspectRatios,
	}
	if data != nil {
		premium := data.Premium
		if !premium {
			fresh, err := s.deps.Profiles.IsPremium(ctx, data.Username)
			if err != nil {
				s.log.Warn("refresh premium flag", "username", data.Username, "err", err)
			} else if fresh {
				premium = true
				s.refreshPremium(r, true)
			}
		}
		body["username"] = data.Username
		body["is_premium"] = premium
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleAbout(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":        "Wallify",
		"description": "Share, discover and generate wallpapers.",
	})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	url, err := s.deps.Payments.CreateCheckout(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "checkout_url": url})
}

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := readBody(r, maxWebhookBytes)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.deps.Payments.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"received": true})
}
