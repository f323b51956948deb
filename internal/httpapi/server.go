package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gojags/pkg/ndarray"
	"gojags/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *manager.Manager satisfies it.
type Service interface {
	Ready() bool
	Status() types.StatusResponse

	Create(ctx context.Context, req types.CreateSessionRequest) (types.SessionInfo, error)
	Get(id string) (types.SessionInfo, error)
	List() []types.SessionInfo
	Delete(id string) error
	Update(ctx context.Context, id string, iterations int) (types.UpdateResponse, error)
	Adapt(ctx context.Context, id string, iterations int) (types.AdaptResponse, error)
	Sample(ctx context.Context, id string, req types.SampleRequest) (types.SampleResponse, error)
	State(ctx context.Context, id string) (types.StateResponse, error)
	Samplers(ctx context.Context, id string) (types.SamplersResponse, error)

	Modules() []string
	AvailableModules() (types.AvailableModulesResponse, error)
	LoadModule(name string) error
	UnloadModule(name string) error
	Factories(typ string) ([]types.Factory, error)
	SetFactoryActive(name, typ string, active bool) error
	ParallelRNGs(factory string, chains int) ([]ndarray.ChainState, error)
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(requestLogger)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	h := &handlers{svc: svc}
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.listSessions)
		r.Post("/", h.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Delete("/", h.deleteSession)
			r.Post("/update", h.update)
			r.Post("/adapt", h.adapt)
			r.Post("/sample", h.sample)
			r.Get("/state", h.state)
			r.Get("/samplers", h.samplers)
		})
	})

	r.Get("/modules", h.listModules)
	r.Get("/modules/available", h.availableModules)
	r.Post("/modules/{name}", h.loadModule)
	r.Delete("/modules/{name}", h.unloadModule)
	r.Get("/factories", h.listFactories)
	r.Put("/factories/{type}/{name}", h.setFactory)
	r.Post("/rngs", h.parallelRNGs)

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
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

// decodeJSON enforces a JSON content type and the body size limit. It writes
// the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// If exceeded size, MaxBytesReader may cause an error; still return 400 to avoid size leak details
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Warn().Err(err).Msg("encode response")
	}
}
