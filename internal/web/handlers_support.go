package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/digkill/wallify/internal/models"
	"github.com/digkill/wallify/internal/service"
)

func (s *Server) handleSupportList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		page = 1
	}
	res, err := s.deps.Support.List(r.Context(), models.ThreadFilter{
		Query:    q.Get("q"),
		Category: models.ThreadCategory(q.Get("category")),
		Status:   models.ThreadStatus(q.Get("status")),
	}, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"threads":      threadViews(res.Threads),
		"page":         res.Page,
		"total_pages":  res.TotalPages,
		"total":        res.Total,
		"has_previous": res.HasPrevious(),
		"has_next":     res.HasNext(),
		"filters": map[string]string{
			"q":        res.Filter.Query,
			"category": string(res.Filter.Category),
			"status":   string(res.Filter.Status),
		},
	})
}

func (s *Server) handleSupportCreate(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	thread, err := s.deps.Support.Create(r.Context(), currentUser(r), service.CreateThreadInput{
		Title:    f.get("title"),
		Category: f.get("category"),
		Content:  f.get("content"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"success": true, "thread": newThreadView(*thread)})
}

func (s *Server) handleSupportThread(w http.ResponseWriter, r *http.Request) {
	id, ok := s.threadID(w, r)
	if !ok {
		return
	}
	s.renderThread(w, r, id)
}

func (s *Server) handleSupportReply(w http.ResponseWriter, r *http.Request) {
	id, ok := s.threadID(w, r)
	if !ok {
		return
	}
	f, err := readForm(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.deps.Support.Reply(r.Context(), currentUser(r), id, f.get("content")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.renderThread(w, r, id)
}

func (s *Server) renderThread(w http.ResponseWriter, r *http.Request, id int64) {
	detail, err := s.deps.Support.Detail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"thread":    newThreadView(detail.Thread),
		"messages":  messageViews(detail.Messages),
		"is_author": detail.Thread.AuthorUsername == currentUser(r),
	})
}

func (s *Server) handleSupportStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.threadID(w, r)
	if !ok {
		return
	}
	status := chi.URLParam(r, "status")
	if err := s.deps.Support.SetStatus(r.Context(), currentUser(r), id, status); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": status})
}

func (s *Server) handleSupportDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.threadID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Support.Delete(r.Context(), currentUser(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) threadID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		s.writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "thread not found"})
		return 0, false
	}
	return id, true
}
