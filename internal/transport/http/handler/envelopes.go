package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gym-api/internal/domain"
	"github.com/gym-api/internal/pkg/validate"
	"github.com/gym-api/internal/transport/http/middleware"
)

const maxBodyBytes = 1 << 20

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// UserEnvelope wraps a single user with a message, as returned by register.
type UserEnvelope struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// UserPageEnvelope wraps cursor-paginated user list responses.
type UserPageEnvelope struct {
	Data       []domain.User `json:"data"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: status})
}

var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrBadRequest, http.StatusBadRequest},
	{domain.ErrExpired, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
}

// httpError maps a service error to a status code. The client sees the
// message the service wrapped around the sentinel; anything unrecognised
// is logged and reported as a generic 500.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			msg := strings.TrimSuffix(err.Error(), ": "+e.err.Error())
			writeError(w, e.status, msg)
			return
		}
	}
	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// decodeBody decodes a JSON body into dst and validates it. It writes the
// error response itself and reports whether the handler may continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// actorFrom reads the authenticated caller from the request context.
func actorFrom(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: claims.UserID, Role: claims.Role}, true
}
