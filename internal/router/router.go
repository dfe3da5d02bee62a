package router

import (
	"net/http"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/auth"
	"Mansoor88-6/labor-cost-dashboard/internal/handler"

	"go.uber.org/zap"
)

func New(authHandler *handler.AuthHandler, dashboardHandler *handler.DashboardHandler, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Session endpoints
	mux.HandleFunc("/api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("/api/v1/auth/logout", authHandler.Logout)
	mux.HandleFunc("/api/v1/auth/me", authHandler.RequireRole(auth.RoleManager, authHandler.Me))

	// Dashboard endpoints
	mux.HandleFunc("/api/v1/projects", authHandler.RequireRole(auth.RoleManager, dashboardHandler.Projects))
	mux.HandleFunc("/api/v1/dashboard", authHandler.RequireRole(auth.RoleManager, dashboardHandler.Dashboard))
	mux.HandleFunc("/api/v1/projects/status", authHandler.RequireRole(auth.RoleAdmin, dashboardHandler.ProjectStatus))
	mux.HandleFunc("/api/v1/time-entries", authHandler.RequireRole(auth.RoleAdmin, dashboardHandler.TimeEntries))
	mux.HandleFunc("/api/v1/segments", authHandler.RequireRole(auth.RoleAdmin, dashboardHandler.Segments))
	mux.HandleFunc("/api/v1/quality", authHandler.RequireRole(auth.RoleAdmin, dashboardHandler.Quality))

	// Administration
	mux.HandleFunc("/api/v1/health/redmine", authHandler.RequireRole(auth.RoleAdmin, dashboardHandler.UpstreamHealth))
	mux.HandleFunc("/api/v1/cache/invalidate", authHandler.RequireRole(auth.RoleSuperadmin, dashboardHandler.InvalidateCache))

	// Logging and CORS middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(rec)
		if r.Method == http.MethodOptions {
			rec.WriteHeader(http.StatusNoContent)
		} else {
			mux.ServeHTTP(rec, r)
		}
		logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// setCORSHeaders lets a dashboard frontend on another origin call the API
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
