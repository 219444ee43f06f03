package web

import (
	"net/http"

	"github.com/digkill/wallify/internal/service"
	"github.com/digkill/wallify/internal/session"
)

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	user, err := s.deps.Auth.Signin(r.Context(), f.get("username"), f.get("password"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.startSession(w, r, session.Data{Username: user.Username, Premium: user.Premium}); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"username":   user.Username,
		"is_premium": user.Premium,
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	user, err := s.deps.Auth.Signup(r.Context(), service.SignupInput{
		Username:        f.get("username"),
		Password:        f.get("password1"),
		ConfirmPassword: f.get("password2"),
		Email:           f.get("email"),
		FirstName:       f.get("firstname"),
		LastName:        f.get("lastname"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.startSession(w, r, session.Data{Username: user.Username}); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"username": user.Username,
		"user":     newUserView(*user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.endSession(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
