package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleDeleteFavorite(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.deps.Profiles.Unfavorite(r.Context(), currentUser(r), f.get("image_key")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Profiles.View(r.Context(), currentUser(r), chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user":      newUserView(view.User),
		"favorites": imageViews(view.Favorites),
		"uploads":   imageViews(view.Uploads),
		"can_edit":  view.CanEdit,
	})
}

func (s *Server) handleProfilePicture(w http.ResponseWriter, r *http.Request) {
	viewer := currentUser(r)
	target := chi.URLParam(r, "username")
	if viewer == "" {
		s.writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "sign in to edit your profile"})
		return
	}
	if target != "" && target != viewer {
		s.writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "message": "you can only change your own picture"})
		return
	}
	if _, err := readForm(r); err != nil {
		s.badRequest(w, err)
		return
	}
	_, data, err := readFile(r, "newProfilePicture")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Profiles.UpdatePicture(r.Context(), viewer, target, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handlePictureByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	pic, err := s.deps.Profiles.PictureByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writePicture(w, pic.ContentType, pic.Data)
}

func (s *Server) handlePictureByUsername(w http.ResponseWriter, r *http.Request) {
	pic, err := s.deps.Profiles.PictureByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writePicture(w, pic.ContentType, pic.Data)
}

func writePicture(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
