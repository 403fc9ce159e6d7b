package http

import (
	"io/fs"
	"net/http"

	consolemetrics "github.com/aratrikkk/UrjaBharat/internal/infrastructure/observability/prometheus"
	"github.com/aratrikkk/UrjaBharat/internal/interfaces/http/handler"
	"github.com/aratrikkk/UrjaBharat/internal/interfaces/http/middleware"
	"github.com/aratrikkk/UrjaBharat/pkg/config"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// Router настраивает маршруты приложения
type Router struct {
	mux               *http.ServeMux
	dashboardHandler  *handler.DashboardHandler
	websocketHandler  *handler.WebSocketHandler
	consoleAPIHandler *handler.ConsoleAPIHandler
	authAPIHandler    *handler.AuthAPIHandler
	healthHandler     *handler.HealthHandler
	metrics           *consolemetrics.Metrics
	authConfig        middleware.AuthConfig
	rateLimit         config.RateLimitConfig
	logger            *logger.Logger
}

// NewRouter создает новый router
func NewRouter(
	dashboardHandler *handler.DashboardHandler,
	websocketHandler *handler.WebSocketHandler,
	consoleAPIHandler *handler.ConsoleAPIHandler,
	authAPIHandler *handler.AuthAPIHandler,
	healthHandler *handler.HealthHandler,
	metrics *consolemetrics.Metrics,
	authConfig middleware.AuthConfig,
	rateLimit config.RateLimitConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		dashboardHandler:  dashboardHandler,
		websocketHandler:  websocketHandler,
		consoleAPIHandler: consoleAPIHandler,
		authAPIHandler:    authAPIHandler,
		healthHandler:     healthHandler,
		metrics:           metrics,
		authConfig:        authConfig,
		rateLimit:         rateLimit,
		logger:            logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Static assets are embedded into the binary.
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("failed to initialize embedded static assets: " + err.Error())
	}
	rt.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Probes и метрики без аутентификации
	rt.mux.HandleFunc("GET /healthz", rt.healthHandler.Healthz)
	rt.mux.HandleFunc("GET /readyz", rt.healthHandler.Readyz)
	rt.mux.Handle("GET /metrics", rt.metrics.Handler())

	protect := middleware.Auth(rt.authConfig, rt.logger)
	api := rt.consoleAPIHandler

	// Console
	rt.mux.Handle("GET /{$}", protect(http.HandlerFunc(rt.dashboardHandler.ShowConsole)))
	rt.mux.Handle("GET /ws", protect(http.HandlerFunc(rt.websocketHandler.HandleConnection)))

	// Auth
	rt.mux.HandleFunc("POST /api/v1/auth/login", rt.authAPIHandler.Login)
	rt.mux.HandleFunc("POST /api/v1/auth/logout", rt.authAPIHandler.Logout)
	rt.mux.HandleFunc("GET /api/v1/auth/status", rt.authAPIHandler.Status)

	// Чтение
	rt.mux.Handle("GET /api/v1/console", protect(http.HandlerFunc(api.GetConsole)))
	rt.mux.Handle("GET /api/v1/telemetry", protect(http.HandlerFunc(api.GetTelemetry)))
	rt.mux.Handle("GET /api/v1/kpi", protect(http.HandlerFunc(api.GetKPI)))
	rt.mux.Handle("GET /api/v1/assets", protect(http.HandlerFunc(api.GetAssets)))
	rt.mux.Handle("GET /api/v1/system", protect(http.HandlerFunc(api.GetSystem)))

	// Команды оператора
	rt.mux.Handle("POST /api/v1/anomaly/activate", protect(http.HandlerFunc(api.ActivateAnomaly)))
	rt.mux.Handle("POST /api/v1/anomaly/resolve", protect(http.HandlerFunc(api.ResolveAnomaly)))
	rt.mux.Handle("POST /api/v1/console/reset", protect(http.HandlerFunc(api.Reset)))
	rt.mux.Handle("POST /api/v1/analysis/deep", protect(http.HandlerFunc(api.RunDeepAnalysis)))
	rt.mux.Handle("POST /api/v1/handover", protect(http.HandlerFunc(api.GenerateHandover)))
	rt.mux.Handle("POST /api/v1/directives/{id}/execute", protect(http.HandlerFunc(api.ExecuteDirective)))
	rt.mux.Handle("POST /api/v1/directives/{id}/explain", protect(http.HandlerFunc(api.ExplainDirective)))

	limiter := middleware.NewIPRateLimiter(rt.rateLimit.CommandsPerMinute, rt.rateLimit.Burst)

	// Применяем middleware, последний слой выполняется первым
	var handler http.Handler = rt.mux
	handler = middleware.RateLimit(limiter, rt.metrics.RateLimitDropped.Inc)(handler)
	handler = middleware.Compression(handler)
	handler = rt.metrics.Middleware(handler)
	handler = middleware.Logger(rt.logger)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.Recovery(rt.logger)(handler)

	return handler
}
