package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/alchemorsel-search/internal/api"
	"github.com/pageza/alchemorsel-search/internal/middleware"
)

// Handlers are the route handlers mounted by SetupRouter.
type Handlers struct {
	Search *api.SearchHandler
	Admin  *api.AdminHandler
	Health *api.HealthHandler
}

// Options configure cross-cutting middleware.
type Options struct {
	JWTSecret   string
	CORSOrigins []string
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(opts.CORSOrigins))

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	h.Search.RegisterRoutes(v1)

	// Admin routes
	admin := v1.Group("/admin")
	admin.Use(middleware.RequireBearer(opts.JWTSecret, middleware.AdminRole))
	h.Admin.RegisterRoutes(admin)

	return router
}
