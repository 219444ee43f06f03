package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/digkill/wallify/internal/service"
	"github.com/digkill/wallify/internal/session"
)

const (
	sessionCookie   = "wallify_session"
	maxUploadBytes  = 32 << 20
	maxWebhookBytes = 64 << 10
)

// Deps collects everything the handlers call into.
type Deps struct {
	Log           *slog.Logger
	Sessions      *session.Store
	Auth          *service.AuthService
	Gallery       *service.GalleryService
	Generation    *service.GenerationService
	Profiles      *service.ProfileService
	Payments      *service.PaymentService
	Support       *service.SupportService
	AdminUsername string
	AdminPassword string
	CookieSecure  bool
	// AuthRateLimit caps sign-in and sign-up attempts per client IP per minute.
	AuthRateLimit int
}

type Server struct {
	addr   string
	deps   Deps
	log    *slog.Logger
	router *chi.Mux
}

func NewServer(addr string, deps Deps) *Server {
	if deps.AuthRateLimit <= 0 {
		deps.AuthRateLimit = 10
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:   addr,
		deps:   deps,
		log:    deps.Log,
		router: r,
	}
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.With(s.basicAuthMiddleware()).Handle("/metrics", promhttp.Handler())
	r.Post("/stripe/webhook", s.handleStripeWebhook)

	r.Group(func(app chi.Router) {
		app.Use(s.sessionMiddleware)

		app.Get("/", s.handleHome)
		app.Get("/about", s.handleAbout)
		app.Get("/gallery", s.handleGallery)
		app.Post("/gallery", s.handleGalleryFavorite)

		app.Group(func(limited chi.Router) {
			limited.Use(httprate.LimitByIP(deps.AuthRateLimit, time.Minute))
			limited.Post("/signin", s.handleSignin)
			limited.Post("/signup", s.handleSignup)
		})
		app.Get("/logout", s.handleLogout)
		app.Post("/logout", s.handleLogout)

		app.Get("/profile_picture/{id}", s.handlePictureByID)
		app.Get("/profile-picture/{username}", s.handlePictureByUsername)
		app.Get("/profile", s.handleProfile)
		app.Get("/profile/{username}", s.handleProfile)
		app.Post("/profile", s.handleProfilePicture)
		app.Post("/profile/{username}", s.handleProfilePicture)

		app.Post("/upload_image", s.handleUpload)
		app.Post("/delete_favorite_image", s.handleDeleteFavorite)
		app.Get("/generate_image", s.handleGenerationStatus)
		app.With(requireXHR).Post("/generate_image", s.handleGenerate)

		app.Route("/support", func(r chi.Router) {
			r.Get("/", s.handleSupportList)
			r.Post("/create", s.handleSupportCreate)
			r.Get("/thread/{id}", s.handleSupportThread)
			r.Post("/thread/{id}", s.handleSupportReply)
			r.Post("/thread/{id}/status/{status}", s.handleSupportStatus)
			r.Post("/thread/{id}/delete", s.handleSupportDelete)
		})

		app.Post("/billing/checkout", s.handleCheckout)
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// Generation waits on the provider and the mirror download.
		WriteTimeout: 3 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("http shutdown error", "err", err)
		}
	}()

	s.log.Info("http server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
