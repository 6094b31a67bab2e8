// Package api wires the HTTP routes, middleware and services together.
package api

import (
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/depotrack/depotrack/internal/api/handlers"
	"github.com/depotrack/depotrack/internal/auth"
	"github.com/depotrack/depotrack/internal/config"
	"github.com/depotrack/depotrack/internal/realtime"
	"github.com/depotrack/depotrack/internal/repository"
	"github.com/depotrack/depotrack/internal/services"
	"github.com/depotrack/depotrack/internal/status"
)

// SetupRouter configures and returns the main API router with all routes and middleware.
func SetupRouter(db *sqlx.DB, cfg *config.Config, hub *realtime.Hub) *gin.Engine {
	// Load the status vocabulary (defaults unless overridden by YAML)
	vocab := status.DefaultVocabulary()
	if cfg.Status.VocabularyPath != "" {
		var err error
		vocab, err = status.LoadVocabulary(cfg.Status.VocabularyPath)
		if err != nil {
			log.Fatalf("Failed to load status vocabulary: %v", err)
		}
	}

	// Create services
	statusStore := repository.NewMySQLStatusStore(db)
	projectStates := repository.NewMySQLProjectStates(db)
	statusSvc := services.NewStatusService(statusStore, projectStates, vocab, hub)
	projectSvc := services.NewProjectService(db, statusSvc)
	materialSvc := services.NewMaterialService(db)
	userSvc := services.NewUserService(db)

	h := handlers.NewHandlers(db, cfg, hub, projectSvc, materialSvc, userSvc, statusSvc)

	// Create auth configuration
	authConfig := &auth.Config{
		Method: config.AuthMethod(cfg.Auth.Method),
		OIDC: auth.OIDCConfig{
			ProviderURL:  cfg.Auth.OIDCProviderURL,
			ClientID:     cfg.Auth.OIDCClientID,
			ClientSecret: cfg.Auth.OIDCClientSecret,
			RedirectURL:  cfg.Auth.OIDCRedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
		},
		Local: auth.LocalConfig{
			Enabled:           cfg.Auth.Method == "local" || cfg.Auth.Method == "both",
			MinPasswordLength: 8,
			MaxFailedAttempts: 5,
		},
		Session: auth.SessionConfig{
			StoreType:      "memory",
			MaxAge:         86400,
			CookieName:     "depotrack_session",
			CookiePath:     "/",
			CookieDomain:   cfg.Auth.CookieDomain,
			CookieSecure:   cfg.Environment == "production",
			CookieHTTPOnly: true,
			CookieSameSite: cfg.Auth.CookieSameSite,
			SecretKey:      cfg.Auth.SessionSecret,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	// Create auth service
	authService, err := auth.NewService(authConfig, db)
	if err != nil {
		log.Fatalf("Failed to create auth service: %v", err)
	}

	// Get frontend URL from environment (required if using OAuth)
	frontendURL := getEnv("DEPOTRACK_FRONTEND_URL", "")
	if frontendURL == "" && (cfg.Auth.Method == "oidc" || cfg.Auth.Method == "both") {
		log.Fatalf("DEPOTRACK_FRONTEND_URL is required when OAuth/OIDC is enabled")
	}
	authHandlers := NewAuthHandlers(authService, frontendURL, h)

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Create router
	r := gin.Default()

	// Session middleware - must be first
	r.Use(authService.SessionMiddleware())

	// CORS middleware
	r.Use(corsMiddleware(cfg))

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Authentication configuration (public)
		v1.GET("/auth/config", authHandlers.GetAuthConfig)

		// Authentication endpoints
		authGroup := v1.Group("/session")
		{
			authGroup.POST("/login", authHandlers.Login)
			authGroup.GET("/oauth/start", authHandlers.StartOAuthFlow)
			authGroup.GET("/oauth/callback", authHandlers.HandleOAuthCallback)
		}

		// Protected routes
		protected := v1.Group("")
		protected.Use(authService.Middleware())
		{
			// Session management
			protected.DELETE("/session", authHandlers.Logout)
			protected.GET("/session", authHandlers.GetCurrentUser)

			// Project routes
			protected.GET("/projects", authService.RequirePermission(auth.ResourceProjects, auth.ActionRead), h.ListProjects)
			protected.GET("/projects/:id", authService.RequirePermission(auth.ResourceProjects, auth.ActionRead), h.GetProject)
			protected.POST("/projects", authService.RequirePermission(auth.ResourceProjects, auth.ActionWrite), h.CreateProject)
			protected.PUT("/projects/:id", authService.RequirePermission(auth.ResourceProjects, auth.ActionWrite), h.UpdateProject)
			protected.PATCH("/projects/:id", authService.RequirePermission(auth.ResourceProjects, auth.ActionWrite), h.ArchiveProject)

			// Status routes; write permission is resolved per track inside the handler
			protected.GET("/projects/:id/status", authService.RequirePermission(auth.ResourceStatusAll, auth.ActionRead), h.GetProjectStatus)
			protected.POST("/projects/:id/status", h.UpdateProjectStatus(authService))
			protected.GET("/projects/:id/status-history", authService.RequirePermission(auth.ResourceStatusAll, auth.ActionRead), h.GetProjectStatusHistory)

			// Real-time status event stream (SSE)
			protected.GET("/projects/:id/events", authService.RequirePermission(auth.ResourceEvents, auth.ActionRead), h.StreamProjectEvents)

			// Material routes
			protected.GET("/projects/:id/materials", authService.RequirePermission(auth.ResourceMaterials, auth.ActionRead), h.ListProjectMaterials)
			protected.POST("/projects/:id/materials", authService.RequirePermission(auth.ResourceMaterials, auth.ActionWrite), h.CreateProjectMaterial)
			protected.GET("/materials/:id", authService.RequirePermission(auth.ResourceMaterials, auth.ActionRead), h.GetMaterial)
			protected.PUT("/materials/:id", authService.RequirePermission(auth.ResourceMaterials, auth.ActionWrite), h.UpdateMaterial)
			protected.DELETE("/materials/:id", authService.RequirePermission(auth.ResourceMaterials, auth.ActionWrite), h.DeleteMaterial)

			// User routes (admin only, managers may read)
			protected.GET("/users", authService.RequirePermission(auth.ResourceUsers, auth.ActionRead), h.ListUsers)
			protected.GET("/users/:id", authService.RequirePermission(auth.ResourceUsers, auth.ActionRead), h.GetUser)
			protected.POST("/users", authService.RequirePermission(auth.ResourceUsers, auth.ActionWrite), h.CreateUser)
			protected.PUT("/users/:id", authService.RequirePermission(auth.ResourceUsers, auth.ActionWrite), h.UpdateUser)
			protected.PATCH("/users/:id", authService.RequirePermission(auth.ResourceUsers, auth.ActionWrite), h.PatchUser)
			protected.DELETE("/users/:id", authService.RequirePermission(auth.ResourceUsers, auth.ActionWrite), h.DeleteUser)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "depotrack-api",
		})
	})

	return r
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// If no allowed origins are configured, disable CORS (secure by default)
		if cfg.Server.AllowedOrigins == "" {
			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}
			c.Next()
			return
		}

		// Check if the origin is in the allowed list
		if isAllowedOrigin(origin, cfg.Server.AllowedOrigins) {
			// Delete any existing CORS headers that might be set by proxies
			c.Writer.Header().Del("Access-Control-Allow-Origin")
			c.Writer.Header().Del("Access-Control-Allow-Credentials")
			c.Writer.Header().Del("Access-Control-Allow-Headers")
			c.Writer.Header().Del("Access-Control-Allow-Methods")

			// Set our CORS headers
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the comma-separated list of allowed origins
func isAllowedOrigin(origin string, allowedOrigins string) bool {
	if origin == "" {
		return false
	}

	// Split the allowed origins by comma
	origins := strings.Split(allowedOrigins, ",")
	for _, allowed := range origins {
		allowed = strings.TrimSpace(allowed)
		if allowed == origin {
			return true
		}
	}

	return false
}

// getEnv gets environment variable with default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
