package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/storgate/storgate"
	"github.com/storgate/storgate/database"
)

// Service is the gateway pipeline consumed by the HTTP layer.
type Service interface {
	ReadObject(ctx context.Context, req storgate.ObjectRequest) (string, error)
	ReadSetObject(ctx context.Context, req storgate.SetObjectRequest) (string, error)
	Sign(ctx context.Context, req storgate.SignRequest) (string, error)
}

// SetLister exposes set metadata for the optional listing endpoint.
type SetLister interface {
	ListByBucket(ctx context.Context, bucket string) ([]database.SetRecord, error)
}

// CORSConfig mirrors go-chi/cors options.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// HandlerConfig holds HTTP-layer configuration.
type HandlerConfig struct {
	Verifier TokenVerifier // nil means every request is anonymous
	CORS     CORSConfig
}

// Handler provides the gateway's HTTP surface.
type Handler struct {
	config  HandlerConfig
	service Service
	sets    SetLister // nil leaves the listing endpoint unmounted
}

// NewHandler creates a Handler. sets may be nil when no metadata database
// is configured.
func NewHandler(config *HandlerConfig, service Service, sets SetLister) *Handler {
	return &Handler{
		config:  *config,
		service: service,
		sets:    sets,
	}
}

// corsAllowedHeaders is the fixed set of headers browsers may send through
// the gateway; it matches what the signer accepts in signed requests.
var corsAllowedHeaders = []string{
	"Authorization",
	"Cache-Control",
	"Content-Length",
	"Content-Type",
	"If-Match",
	"If-Modified-Since",
	"If-None-Match",
	"If-Unmodified-Since",
	"Range",
}

// Router assembles middleware and routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   corsAllowedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/healthz", handleHealthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.Verifier))

		r.Get("/buckets/{bucket}/objects/{object}", h.handleReadObject)
		r.Get("/backends/{back}/buckets/{bucket}/objects/{object}", h.handleReadObject)

		r.Get("/buckets/{bucket}/sets/{set}/objects/{object}", h.handleReadSetObject)
		r.Get("/backends/{back}/buckets/{bucket}/sets/{set}/objects/{object}", h.handleReadSetObject)

		r.Post("/sign", h.handleSign)
		r.Post("/backends/{back}/sign", h.handleSign)

		if h.sets != nil {
			r.Get("/buckets/{bucket}/sets", h.handleListSets)
		}
	})

	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleReadObject(w http.ResponseWriter, r *http.Request) {
	req := storgate.ObjectRequest{
		Backend: chi.URLParam(r, "back"),
		Bucket:  chi.URLParam(r, "bucket"),
		Object:  chi.URLParam(r, "object"),
		Subject: SubjectFrom(r.Context()),
	}

	uri, err := h.service.ReadObject(r.Context(), req)
	if err != nil {
		HandleError(w, err)
		return
	}

	Redirect(w, uri)
}

func (h *Handler) handleReadSetObject(w http.ResponseWriter, r *http.Request) {
	req := storgate.SetObjectRequest{
		Backend: chi.URLParam(r, "back"),
		Bucket:  chi.URLParam(r, "bucket"),
		Set:     chi.URLParam(r, "set"),
		Object:  chi.URLParam(r, "object"),
		Subject: SubjectFrom(r.Context()),
		Referer: r.Referer(),
	}

	uri, err := h.service.ReadSetObject(r.Context(), req)
	if err != nil {
		HandleError(w, err)
		return
	}

	Redirect(w, uri)
}

type signPayload struct {
	Bucket  string            `json:"bucket"`
	Set     *string           `json:"set"`
	Object  string            `json:"object"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
}

type signResponse struct {
	URI string `json:"uri"`
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	var payload signPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, kindBadRequest, "Invalid request body")
		return
	}

	req := storgate.SignRequest{
		Backend: chi.URLParam(r, "back"),
		Bucket:  payload.Bucket,
		Object:  payload.Object,
		Method:  payload.Method,
		Headers: payload.Headers,
		Subject: SubjectFrom(r.Context()),
		Referer: r.Referer(),
	}

	if payload.Set != nil {
		// An explicitly supplied empty set id is still an invalid set id,
		// not an absent one.
		if *payload.Set == "" {
			WriteError(w, http.StatusForbidden, storgate.KindInvalidSetID, "Invalid set id")
			return
		}
		req.Set = *payload.Set
	}

	uri, err := h.service.Sign(r.Context(), req)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, signResponse{URI: uri})
}

type setListResponse struct {
	Items []database.SetRecord `json:"items"`
}

func (h *Handler) handleListSets(w http.ResponseWriter, r *http.Request) {
	records, err := h.sets.ListByBucket(r.Context(), chi.URLParam(r, "bucket"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, setListResponse{Items: records})
}
