package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/auth"
	"github.com/projectnexus/nexus/internal/application/ports"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// UsersHandler serves the user directory. Requires JWT auth.
type UsersHandler struct {
	handlerBase
	users    ports.UserRepository
	profile  *auth.UpdateProfile
	password *auth.ChangePassword
}

func NewUsersHandler(users ports.UserRepository, profile *auth.UpdateProfile, password *auth.ChangePassword, log zerolog.Logger) *UsersHandler {
	return &UsersHandler{handlerBase: handlerBase{log: log}, users: users, profile: profile, password: password}
}

// Me returns the caller's directory entry.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if user == nil {
		h.fail(w, r, domerrors.ErrUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

// Search matches q against names and emails, used to pick collaborators.
func (h *UsersHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "q is required")
		return
	}
	limit := defaultSearchLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}
	users, err := h.users.Search(r.Context(), q, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, newUserView(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateProfile edits the caller's name, email or picture.
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Name           *string `json:"name" validate:"omitnil,min=1,max=100"`
		Email          *string `json:"email" validate:"omitnil,email,max=254"`
		ProfilePicture *string `json:"profile_picture" validate:"omitnil,max=2048"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Email != nil {
		e := SanitizeEmail(*body.Email)
		body.Email = &e
	}
	res, err := h.profile.Execute(r.Context(), auth.UpdateProfileInput{
		UserID:         userID,
		Name:           body.Name,
		Email:          body.Email,
		ProfilePicture: body.ProfilePicture,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "profile updated", newUserView(res.User))
}

// ChangePassword requires the current password.
func (h *UsersHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		CurrentPassword string `json:"current_password" validate:"required,max=128"`
		NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	err := h.password.Execute(r.Context(), auth.ChangePasswordInput{
		UserID:          userID,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("event", "user.password_change").Str("user_id", userID.String()).Msg("auth_audit")
		h.fail(w, r, err)
		return
	}
	h.log.Info().Str("event", "user.password_change").Str("user_id", userID.String()).Msg("auth_audit")
	writeMessage(w, http.StatusOK, "password updated", nil)
}
