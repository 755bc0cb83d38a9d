package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"quoteflow/internal/service"
	"quoteflow/internal/transport/rest/handler"
	"quoteflow/internal/transport/rest/middleware"
	"quoteflow/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService   *service.AuthService
	ToolService   *service.ToolService
	WizardService *service.WizardService
	WSHub         *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	toolHandler := handler.NewToolHandler(c.ToolService)
	sessionHandler := handler.NewSessionHandler(c.WizardService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Widget routes (public: the embedded widget has no credentials)
	v1.HandleFunc("/tools/{toolId}/widget", toolHandler.Widget).Methods("GET", "OPTIONS")
	v1.HandleFunc("/tools/{toolId}/sessions", sessionHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}", sessionHandler.Current).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/next", sessionHandler.Next).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/previous", sessionHandler.Previous).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/address", sessionHandler.SelectAddress).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/observe", sessionHandler.Observe).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/another", sessionHandler.Another).Methods("POST", "OPTIONS")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/tools/{toolId}/dashboard", wsHandler.DashboardWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Dashboard routes (require owner auth)
	ownerRoutes := v1.NewRoute().Subrouter()
	ownerRoutes.Use(authMW.RequireOwner)

	ownerRoutes.HandleFunc("/tools", toolHandler.Create).Methods("POST", "OPTIONS")
	ownerRoutes.HandleFunc("/tools", toolHandler.List).Methods("GET", "OPTIONS")
	ownerRoutes.HandleFunc("/tools/{toolId}", toolHandler.Get).Methods("GET", "OPTIONS")
	ownerRoutes.HandleFunc("/tools/{toolId}", toolHandler.Update).Methods("PUT", "OPTIONS")
	ownerRoutes.HandleFunc("/tools/{toolId}", toolHandler.Delete).Methods("DELETE", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
