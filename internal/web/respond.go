package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/digkill/wallify/internal/service"
	"github.com/digkill/wallify/internal/session"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP responses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := map[string]any{"success": false}
	var status int

	switch {
	case errors.Is(err, service.ErrQuotaExceeded):
		status = http.StatusForbidden
		body["upgrade"] = true
		body["message"] = publicMessage(err)
	case errors.Is(err, service.ErrAuth):
		status = http.StatusUnauthorized
		body["message"] = publicMessage(err)
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
		body["message"] = publicMessage(err)
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrWebhookVerification):
		status = http.StatusBadRequest
		body["message"] = publicMessage(err)
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		body["message"] = publicMessage(err)
	case errors.Is(err, service.ErrUsernameTaken):
		status = http.StatusConflict
		body["message"] = "username already exists"
	case errors.Is(err, service.ErrImageExists):
		status = http.StatusConflict
		body["message"] = publicMessage(err)
	case errors.Is(err, service.ErrPaymentGateway):
		status = http.StatusBadGateway
		body["message"] = "payment provider is unavailable, please try again later"
	case errors.Is(err, service.ErrGeneration):
		status = http.StatusInternalServerError
		body["message"] = "image generation failed, please try again"
	default:
		status = http.StatusInternalServerError
		body["message"] = "internal error"
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("handler error", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, body)
}

// publicMessage drops the sentinel prefix: "invalid input: prompt is required" → "prompt is required".
func publicMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": err.Error()})
}

// form reads a request body that is either JSON or an HTML form.
type form map[string]string

func (f form) get(key string) string {
	return f[key]
}

func readForm(r *http.Request) (form, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var raw map[string]any
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		out := make(form, len(raw))
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				out[k] = val
			case nil:
			default:
				out[k] = fmt.Sprint(val)
			}
		}
		return out, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	out := make(form, len(r.Form))
	for k := range r.Form {
		out[k] = r.Form.Get(k)
	}
	return out, nil
}

func readFile(r *http.Request, field string) (string, []byte, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, fmt.Errorf("%w: %s file is required", service.ErrValidation, field)
		}
		return "", nil, fmt.Errorf("%w: read %s: %v", service.ErrValidation, field, err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

func parseID(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, data session.Data) error {
	if old := currentToken(r); old != "" {
		if err := s.deps.Sessions.Delete(r.Context(), old); err != nil {
			s.log.Warn("drop previous session", "err", err)
		}
	}
	token, err := s.deps.Sessions.Create(r.Context(), data)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.deps.Sessions.TTL() / time.Second),
		HttpOnly: true,
		Secure:   s.deps.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	if token := currentToken(r); token != "" {
		if err := s.deps.Sessions.Delete(r.Context(), token); err != nil {
			s.log.Warn("delete session", "err", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.deps.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// refreshPremium rewrites the cached premium flag on the current session.
func (s *Server) refreshPremium(r *http.Request, premium bool) {
	data := currentSession(r)
	token := currentToken(r)
	if data == nil || token == "" || data.Premium == premium {
		return
	}
	data.Premium = premium
	if err := s.deps.Sessions.Save(r.Context(), token, *data); err != nil {
		s.log.Warn("refresh session premium flag", "err", err)
	}
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}
	return body, nil
}
