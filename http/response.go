package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storgate/storgate"
)

// Error kinds originating in the HTTP layer itself; the rest come from the
// gateway's taxonomy.
const (
	kindBadRequest    = "bad_request"
	kindAuthnError    = "authn_error"
	kindInternalError = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, kind, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Kind: kind, Detail: detail}); err != nil {
		slog.Error("failed to encode error response", "err", err)
	}
}

// HandleError logs a request failure and writes the matching response.
// Policy denies log at Warn and policy transport failures at Error so the
// two stay distinguishable even though both answer 403.
func HandleError(w http.ResponseWriter, err error) {
	var gerr *storgate.Error
	if !errors.As(err, &gerr) {
		slog.Error("request error", "err", err)
		WriteError(w, http.StatusInternalServerError, kindInternalError, "Internal server error")
		return
	}

	switch {
	case gerr.Kind == storgate.KindAccessDenied && errors.Is(err, storgate.ErrPolicyDenied):
		slog.Warn("authorization denied", "err", err)
	case gerr.Kind == storgate.KindAccessDenied:
		slog.Error("authorization request failed", "err", err)
	case gerr.Status >= http.StatusInternalServerError:
		slog.Error("request error", "kind", gerr.Kind, "err", err)
	default:
		slog.Warn("request rejected", "kind", gerr.Kind, "err", err)
	}

	WriteError(w, gerr.Status, gerr.Kind, gerr.Detail)
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Redirect answers 303 See Other with the signed URL and an empty body.
func Redirect(w http.ResponseWriter, uri string) {
	w.Header().Set("Location", uri)
	w.WriteHeader(http.StatusSeeOther)
}
