package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/samber/do/v2"

	"github.com/willie68/go_slippymap/internal/apiv1"
	"github.com/willie68/go_slippymap/internal/logging"
	"github.com/willie68/go_slippymap/internal/session"
	"github.com/willie68/go_slippymap/internal/utils/measurement"
)

const (
	// APIPrefix of all versioned routes
	APIPrefix = "/api/v" + apiv1.APIVersion
	// MetricsPath of the measurement routes
	MetricsPath = "/metrics"
)

var logger = logging.New("api")

// APIRoutes creates the router of the map api
func APIRoutes(inj do.Injector) (*chi.Mux, error) {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(logger),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Link", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
	)

	v1 := chi.NewRouter()
	for _, h := range apiv1.Handlers(inj) {
		path, sub := h.Routes()
		v1.Mount(path, sub)
	}
	router.Mount(APIPrefix, v1)
	router.Mount(MetricsPath, measurement.Routes(inj))
	mountHealth(router, inj)

	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		logger.Debug("api route", "method", method, "route", route)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return router, nil
}

// HealthRoutes creates the router of the health server
func HealthRoutes(inj do.Injector) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	mountHealth(router, inj)
	return router
}

func mountHealth(router chi.Router, inj do.Injector) {
	router.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := do.Invoke[*session.Session](inj); err != nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]string{"status": "ready"})
	})
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"reqid", middleware.GetReqID(r.Context()))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
