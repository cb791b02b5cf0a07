package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vlmd/internal/vlm"
	"vlmd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Health() types.HealthResponse
	ConfigInfo() types.ConfigResponse
	Infer(ctx context.Context, req types.InferRequest) (types.InferResponse, error)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// The game-engine client issues cross-origin requests from its embedded
	// web view; default to a permissive policy unless origins are configured.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Log-Level"},
	}))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	r.Use(MetricsMiddleware)

	r.Get("/health", handleHealth(svc))
	r.Post("/infer", handleInfer(svc))
	r.Get("/config", handleConfig(svc))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc != nil && svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// handleHealth godoc
// @Summary      Health check
// @Description  Reports whether the model is loaded and which device backs it. Always 200.
// @Produce      json
// @Success      200 {object} types.HealthResponse
// @Router       /health [get]
func handleHealth(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeJSON(w, http.StatusOK, types.HealthResponse{Status: "unhealthy", Device: "unknown"})
			return
		}
		writeJSON(w, http.StatusOK, svc.Health())
	}
}

// handleConfig godoc
// @Summary      Server configuration
// @Description  Echoes the startup-provided model path, base, and conversation mode.
// @Produce      json
// @Success      200 {object} types.ConfigResponse
// @Failure      500 {object} types.ErrorResponse
// @Router       /config [get]
func handleConfig(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeJSONError(w, http.StatusInternalServerError, "server not initialized")
			return
		}
		writeJSON(w, http.StatusOK, svc.ConfigInfo())
	}
}

// handleInfer godoc
// @Summary      Run inference
// @Description  Generates text for a prompt and a base64-encoded image.
// @Accept       json
// @Produce      json
// @Param        request body types.InferRequest true "inference request"
// @Success      200 {object} types.InferResponse
// @Failure      400 {object} types.InferResponse
// @Failure      500 {object} types.InferResponse
// @Router       /infer [post]
func handleInfer(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Content-Type check
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		// Limit body size (configurable, default 8MiB: payloads carry images)
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.InferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeInferError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeInferError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		if strings.TrimSpace(req.ImageBase64) == "" {
			writeInferError(w, http.StatusBadRequest, "image data is required")
			return
		}
		if svc == nil {
			writeInferError(w, http.StatusInternalServerError, "model not loaded")
			return
		}

		lvl := requestLogLevel(r)
		start := time.Now()
		if lvl >= LevelInfo {
			logInferStart(r)
		}
		// Join server base context with request context so shutdown cancels work too.
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := svc.Infer(joinedCtx, req)
		if err != nil {
			// If context was canceled (client disconnect), just return.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := http.StatusInternalServerError
			msg := "server error: " + err.Error()
			if vlm.IsNotLoaded(err) {
				msg = err.Error()
			} else if he, ok := err.(HTTPError); ok {
				status = he.StatusCode()
				msg = he.Error()
			}
			writeInferError(w, status, msg)
			if lvl >= LevelInfo {
				logInferEnd(r, status, time.Since(start), err)
			}
			return
		}
		writeJSON(w, http.StatusOK, resp)
		if lvl >= LevelInfo {
			logInferEnd(r, http.StatusOK, time.Since(start), nil)
		}
	}
}

func corsOrigins() []string {
	if len(corsAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return corsAllowedOrigins
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
