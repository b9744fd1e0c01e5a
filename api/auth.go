package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/eventlogger"
	"github.com/sijujiampugi-arch/SpendWise/middleware"
	"github.com/sijujiampugi-arch/SpendWise/session"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type authResponse struct {
	User      *user.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := s.decode(w, r, schemaRegister, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	registered, err := user.Register(r.Context(), s.users, req.Email, req.Password, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.startSession(w, r, registered.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType("user.registered"),
		eventlogger.WithActor(registered.ID),
		eventlogger.WithData(map[string]string{
			"user_id":    registered.ID.String(),
			"email":      registered.Email,
			"role":       string(registered.Role),
			"session_id": sess.ID.String(),
		}),
	))

	writeJSON(w, http.StatusCreated, newAuthResponse(registered, sess))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := s.decode(w, r, schemaLogin, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	found, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if found == nil || found.IsPlaceholder() || user.VerifyPassword(found.PasswordHash, req.Password) != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid email or password"})
		return
	}

	sess, err := s.startSession(w, r, found.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType("user.logged_in"),
		eventlogger.WithActor(found.ID),
		eventlogger.WithData(map[string]string{
			"user_id":    found.ID.String(),
			"email":      found.Email,
			"session_id": sess.ID.String(),
		}),
	))

	writeJSON(w, http.StatusOK, newAuthResponse(found, sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.Token(r); token != "" {
		if err := s.sessions.Delete(r.Context(), token); err != nil {
			s.log.Error("failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:   session.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	u, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if u == nil {
		s.writeError(w, r, user.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*session.Session, error) {
	sess, err := s.sessions.Create(r.Context(), userID)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

func newAuthResponse(u *user.User, sess *session.Session) authResponse {
	return authResponse{
		User:      u,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	}
}
