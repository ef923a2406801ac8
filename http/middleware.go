package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/storgate/storgate"
)

// TokenVerifier turns a raw bearer token into a subject. Implemented by the
// authn package.
type TokenVerifier interface {
	Verify(rawToken string) (storgate.Subject, error)
}

type subjectKey struct{}

// AuthMiddleware resolves the optional request subject. Requests without an
// Authorization header pass through anonymous; a present but unverifiable
// token is rejected, never downgraded to anonymous.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok {
				WriteError(w, http.StatusForbidden, kindAuthnError, "Unsupported authorization scheme")
				return
			}

			sub, err := verifier.Verify(token)
			if err != nil {
				slog.Warn("token verification failed", "err", err)
				WriteError(w, http.StatusForbidden, kindAuthnError, "Invalid access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), sub)))
		})
	}
}

func withSubject(ctx context.Context, sub storgate.Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFrom returns the authenticated subject, or nil for anonymous
// requests.
func SubjectFrom(ctx context.Context) *storgate.Subject {
	sub, ok := ctx.Value(subjectKey{}).(storgate.Subject)
	if !ok {
		return nil
	}
	return &sub
}

// RequestLogger emits one structured access-log line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
