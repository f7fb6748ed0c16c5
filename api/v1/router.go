package v1

import (
	"time"

	"go_hostcfg/api/v1/auth"
	hostcfgapi "go_hostcfg/api/v1/hostconfig"
	"go_hostcfg/api/v1/middleware"
	"go_hostcfg/internal/config"
	"go_hostcfg/internal/hostconfig"
	"go_hostcfg/internal/httpx"

	"github.com/gin-gonic/gin"
)

// Deps holds what the v1 routes are served from
type Deps struct {
	Config    *config.Config
	Users     auth.UserFinder
	Service   *hostconfig.Service
	Revisions hostcfgapi.RevisionLister
	Notifier  hostcfgapi.Notifier
	StartedAt time.Time
}

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, deps Deps) {
	v1 := r.Group("/api/v1")
	{
		// Public routes
		v1.GET("/ping", pingHandler)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", auth.LoginHandler(deps.Users, deps.Config))
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/me", meHandler)
			protected.GET("/system/status", statusHandler(deps))

			timeout := time.Duration(deps.Config.HTTP.RequestTimeoutSec) * time.Second
			hostHandler := hostcfgapi.NewHandler(deps.Service, deps.Revisions, deps.Notifier, timeout)
			hostGroup := protected.Group("/config/host")
			{
				hostGroup.GET("", hostHandler.Get)
				hostGroup.PUT("", hostHandler.Put)
				hostGroup.POST("/validate", hostHandler.Validate)
				hostGroup.GET("/revisions", hostHandler.Revisions)
			}
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}

// meHandler returns current user information
func meHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"identifier": c.GetString(middleware.CtxIdentifier),
		"username":   c.GetString(middleware.CtxUsername),
	})
}

// statusHandler reports the host settings the process is expected to serve with
func statusHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := deps.Service.Get(c.Request.Context())
		if err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to read host configuration", err))
			return
		}
		httpx.OK(c, gin.H{
			"product":              deps.Config.App.ProductName,
			"version":              deps.Config.App.Version,
			"bindAddress":          snap.BindAddress,
			"port":                 snap.Port,
			"urlBase":              snap.URLBase,
			"enableSsl":            snap.EnableSSL,
			"authenticationMethod": snap.AuthenticationMethod,
			"startedAt":            deps.StartedAt.Format(time.RFC3339),
		})
	}
}
