package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// envelope is the shape of every JSON response.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	writeEnvelope(w, code, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, code int, message string, data interface{}) {
	writeEnvelope(w, code, envelope{Success: true, Data: data, Message: message})
}

func writeErr(w http.ResponseWriter, code int, errCode string, message string) {
	if errCode == "" {
		errCode = defaultErrCode(code)
	}
	writeEnvelope(w, code, envelope{Success: false, Message: message, Code: errCode})
}

func writeEnvelope(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func defaultErrCode(httpCode int) string {
	switch httpCode {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusTooManyRequests:
		return ErrCodeRateLimited
	case http.StatusBadGateway:
		return ErrCodeUpstream
	default:
		return ErrCodeInternal
	}
}

// writeError maps a use case error to a response. Internal errors are
// logged and their text is never sent.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domerrors.ErrInvalidCredentials):
		writeErr(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, err.Error())
		return
	case errors.Is(err, domerrors.ErrAccountLocked):
		writeErr(w, http.StatusTooManyRequests, ErrCodeAccountLocked, err.Error())
		return
	case errors.Is(err, domerrors.ErrInvalidShareToken):
		writeErr(w, http.StatusUnauthorized, ErrCodeInvalidToken, err.Error())
		return
	}
	var de *domerrors.Error
	msg := "internal error"
	if errors.As(err, &de) {
		msg = de.Msg
	}
	switch domerrors.KindOf(err) {
	case domerrors.KindNotFound:
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, msg)
	case domerrors.KindForbidden:
		writeErr(w, http.StatusForbidden, ErrCodeForbidden, msg)
	case domerrors.KindInvalidInput:
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, msg)
	case domerrors.KindConflict:
		writeErr(w, http.StatusConflict, ErrCodeConflict, msg)
	case domerrors.KindUnauthorized:
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, msg)
	case domerrors.KindUpstream:
		log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("upstream failure")
		writeErr(w, http.StatusBadGateway, ErrCodeUpstream, msg)
	default:
		log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
