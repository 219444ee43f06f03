package web

import "net/http"

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	s.renderGallery(w, r, r.URL.Query().Get("q"), nil)
}

// handleGalleryFavorite saves the posted image_key, then answers with the gallery.
func (s *Server) handleGalleryFavorite(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	key := f.get("image_key")
	if err := s.deps.Gallery.Favorite(r.Context(), currentUser(r), key); err != nil {
		s.writeError(w, r, err)
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		query = f.get("q")
	}
	s.renderGallery(w, r, query, map[string]any{"favorited": key})
}

func (s *Server) renderGallery(w http.ResponseWriter, r *http.Request, query string, extra map[string]any) {
	res, err := s.deps.Gallery.Search(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body := map[string]any{
		"query":        res.Query,
		"images":       imageViews(res.Images),
		"top_searches": termViews(res.TopSearches),
	}
	for k, v := range extra {
		body[k] = v
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) == "" {
		s.writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "sign in to upload images"})
		return
	}
	f, err := readForm(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	name, data, err := readFile(r, "image")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	img, err := s.deps.Gallery.Upload(r.Context(), currentUser(r), name, f.get("description"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"image":   imageView{Key: img.Key, URL: img.URL, Description: img.Description, Username: img.Username},
	})
}
