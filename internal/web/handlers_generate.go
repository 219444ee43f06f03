package web

import (
	"net/http"

	"github.com/digkill/wallify/internal/service"
)

func (s *Server) handleGenerationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.deps.Generation.Status(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body := map[string]any{
		"used_today":    status.UsedToday,
		"limit":         status.Limit,
		"is_premium":    status.Premium,
		"aspect_ratios": service.AspectRatios,
	}
	if !status.Premium {
		body["remaining"] = status.Remaining
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	res, err := s.deps.Generation.Generate(r.Context(), currentUser(r), f.get("prompt"), f.get("aspect_ratio"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Premium {
		s.refreshPremium(r, true)
	}

	body := map[string]any{
		"success":      true,
		"image_url":    res.ImageURL,
		"prompt":       res.Prompt,
		"aspect_ratio": res.AspectRatio,
		"used_today":   res.UsedToday,
		"limit":        res.Limit,
		"is_premium":   res.Premium,
	}
	if res.MirrorURL != "" {
		body["mirror_url"] = res.MirrorURL
		body["mirror_key"] = res.MirrorKey
	}
	if res.MirrorError != "" {
		body["mirror_error"] = res.MirrorError
	}
	s.writeJSON(w, http.StatusOK, body)
}
