package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/devaloi/namechat/internal/domain"
	"github.com/devaloi/namechat/internal/hub"
	"github.com/devaloi/namechat/internal/registry"
)

var validate = validator.New()

// RegisterRequest is the body of POST /api/names.
type RegisterRequest struct {
	Owner string `json:"owner" validate:"required,max=128"`
	Name  string `json:"name" validate:"max=64"`
}

// PostRequest is the body of POST /api/messages.
type PostRequest struct {
	Owner   string `json:"owner" validate:"required,max=128"`
	Content string `json:"content" validate:"max=4096"`
}

// Health returns a simple health check handler.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ListNames returns every registration ordered by name.
func ListNames(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := h.Names(r.Context())
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, names)
	}
}

// RegisterName registers a name for the owner in the request body.
func RegisterName(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if !decode(w, r, &req) {
			return
		}
		name, err := h.Register(r.Context(), req.Owner, req.Name)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, domain.Registration{Name: name, Owner: req.Owner})
	}
}

// Whois resolves the display name of the owner in the path.
func Whois(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := r.PathValue("owner")
		name, err := h.Whois(r.Context(), owner)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, domain.WhoisFrame{Type: domain.FrameWhois, Owner: owner, DisplayName: name})
	}
}

// ListMessages returns the most recent messages, bounded by ?limit=.
func ListMessages(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, r, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		msgs, err := h.History(r.Context(), limit)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, msgs)
	}
}

// PostMessage appends a message from the owner in the request body.
func PostMessage(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PostRequest
		if !decode(w, r, &req) {
			return
		}
		msg, err := h.PostMessage(r.Context(), req.Owner, req.Content)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, msg)
	}
}

// Stats reports registry and connection counts.
func Stats(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.Stats(r.Context())
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, stats)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}

// statusFor maps a registry error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrNameTaken), errors.Is(err, registry.ErrOwnerRegistered):
		return http.StatusConflict
	case registry.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, hub.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, r, status, registry.Code(err), err.Error())
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, domain.ErrorFrame{Type: domain.FrameError, Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("write response")
	}
}
