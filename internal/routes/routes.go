package routes

import (
	"net/http"

	"github.com/templui/sheetlens/internal/app"
	"github.com/templui/sheetlens/internal/handler"
	"github.com/templui/sheetlens/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	files := handler.NewFileHandler(app.FileService, app.Cfg.UploadMaxBytes)
	analysis := handler.NewAnalysisHandler(app.AnalysisService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	// Files
	mux.HandleFunc("POST /api/files", middleware.RequireAuth(files.Upload))
	mux.HandleFunc("GET /api/files", middleware.RequireAuth(files.List))
	mux.HandleFunc("GET /api/files/{id}", middleware.RequireAuth(files.Show))
	mux.HandleFunc("DELETE /api/files/{id}", middleware.RequireAuth(files.Delete))

	// Analysis - generation is rate limited per user
	rateLimiter := middleware.RateLimit(app.AnalysisLimiter)

	mux.HandleFunc("POST /api/analysis", middleware.RequireAuth(rateLimiter(analysis.Analyze)))
	mux.HandleFunc("GET /api/analysis/export", middleware.RequireAuth(analysis.Export))
	mux.HandleFunc("GET /api/analysis/history", middleware.RequireAuth(analysis.History))

	return middleware.Chain(mux, globalMiddleware(app)...)
}

// globalMiddleware is executed in order (top to bottom). Recover follows
// RequestID so panics in every later middleware are answered with a 500.
func globalMiddleware(app *app.App) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Recover,
		middleware.Config(app.Cfg),
		middleware.AuthMiddleware(app.AuthService), // before logging so user_id is known
		middleware.RequestLogging,
		middleware.CORS(app.Cfg.CORSAllowedOrigins),
		middleware.CSRFProtection, // cookie-authenticated requests only
	}
}
