package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/auth"
)

// AuthRecorder counts register and login outcomes.
type AuthRecorder interface {
	AuthAttempt(event string, success bool)
}

type AuthHandler struct {
	handlerBase
	register *auth.RegisterUser
	login    *auth.Login
	recorder AuthRecorder
}

func NewAuthHandler(register *auth.RegisterUser, login *auth.Login, recorder AuthRecorder, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{handlerBase: handlerBase{log: log}, register: register, login: login, recorder: recorder}
}

func (h *AuthHandler) audit(r *http.Request, event, userID string, err error) {
	success := err == nil
	if h.recorder != nil {
		h.recorder.AuthAttempt(event, success)
	}
	ev := h.log.Info()
	if !success {
		ev = h.log.Warn().Err(err)
	}
	ev.Str("event", event).
		Str("user_id", userID).
		Str("ip", clientIP(r)).
		Str("request_id", middleware.GetReqID(r.Context())).
		Bool("success", success).
		Msg("auth_audit")
}

// Register creates a directory entry and signs the user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name" validate:"max=100"`
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8,max=128"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.register.Execute(r.Context(), auth.RegisterUserInput{
		Name:     strings.TrimSpace(body.Name),
		Email:    SanitizeEmail(body.Email),
		Password: body.Password,
	})
	if err != nil {
		h.audit(r, "user.register", "", err)
		h.fail(w, r, err)
		return
	}
	h.audit(r, "user.register", res.User.ID.String(), nil)
	login, err := h.login.Execute(r.Context(), auth.LoginInput{Email: res.User.Email, Password: body.Password})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "registration successful", map[string]interface{}{
		"access_token": login.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   login.ExpiresIn,
		"user":         newUserView(res.User),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,max=128"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.login.Execute(r.Context(), auth.LoginInput{Email: SanitizeEmail(body.Email), Password: body.Password})
	if err != nil {
		h.audit(r, "user.login", "", err)
		h.fail(w, r, err)
		return
	}
	h.audit(r, "user.login", res.User.ID.String(), nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": res.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   res.ExpiresIn,
		"user":         newUserView(res.User),
	})
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.HasSuffix(host, "]") {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}
