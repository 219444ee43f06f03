package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/digkill/wallify/internal/metrics"
	"github.com/digkill/wallify/internal/session"
)

type ctxKey int

const (
	ctxSession ctxKey = iota
	ctxToken
)

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(started)
		metrics.RecordHTTP(route, status, elapsed)
		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", elapsed.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote", r.RemoteAddr,
		)
	})
}

// sessionMiddleware resolves the session cookie. Store failures degrade to
// an anonymous request.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		data, err := s.deps.Sessions.Get(r.Context(), cookie.Value)
		if err != nil {
			s.log.Error("load session", "err", err)
		}
		ctx := context.WithValue(r.Context(), ctxToken, cookie.Value)
		if data != nil {
			ctx = context.WithValue(ctx, ctxSession, data)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentSession(r *http.Request) *session.Data {
	data, _ := r.Context().Value(ctxSession).(*session.Data)
	return data
}

func currentUser(r *http.Request) string {
	if data := currentSession(r); data != nil {
		return data.Username
	}
	return ""
}

func currentToken(r *http.Request) string {
	token, _ := r.Context().Value(ctxToken).(string)
	return token
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(s.deps.AdminUsername)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(s.deps.AdminPassword)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="wallify"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireXHR only admits requests sent by the page's own script.
func requireXHR(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}
