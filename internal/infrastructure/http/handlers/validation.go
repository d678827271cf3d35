package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/domain"
	"github.com/projectnexus/nexus/internal/infrastructure/http/middleware"
)

// Validation limits.
const (
	MaxEmailLength    = 254
	MaxPasswordLength = 128
	maxJSONBody       = 1 << 20
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SanitizeEmail trims and lowercases email; returns empty if invalid length.
func SanitizeEmail(email string) string {
	s := strings.TrimSpace(strings.ToLower(email))
	if len(s) > MaxEmailLength {
		return ""
	}
	return s
}

// decodeJSON reads and validates a request body, answering 400 itself on
// failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

// currentUser returns the authenticated user or answers 401.
func currentUser(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
	}
	return id, ok
}

func projectParam(w http.ResponseWriter, r *http.Request) (domain.ProjectID, bool) {
	id, err := domain.ParseProjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid project id")
		return domain.ProjectID{}, false
	}
	return id, true
}

func versionParam(w http.ResponseWriter, r *http.Request) (domain.VersionID, bool) {
	id, err := domain.ParseVersionID(chi.URLParam(r, "vid"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid version id")
		return domain.VersionID{}, false
	}
	return id, true
}

// handlerBase carries the logger shared by every resource handler.
type handlerBase struct {
	log zerolog.Logger
}

func (h handlerBase) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.log, err)
}
