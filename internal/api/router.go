package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BerylCAtieno/synapse/internal/auth"
	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/telemetry"
)

type RouterConfig struct {
	Log            *logger.Logger
	CORSOrigins    []string
	AuthMiddleware *auth.Middleware
	Metrics        *telemetry.Metrics

	SimulationHandler *SimulationHandler
	CampaignHandler   *CampaignHandler
	PersonaHandler    *PersonaHandler
	DemoHandler       *DemoHandler

	// AgentRoutes mounts the agent-to-agent endpoints when set.
	AgentRoutes func(r gin.IRouter)
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(CORS(cfg.CORSOrigins))
	if cfg.AuthMiddleware != nil {
		r.Use(cfg.AuthMiddleware.OptionalAuth())
	}
	r.Use(RequestLogger(cfg.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		if cfg.SimulationHandler != nil {
			api.POST("/simulations", cfg.SimulationHandler.Run)
			api.GET("/simulations", cfg.SimulationHandler.List)
		}

		if cfg.CampaignHandler != nil {
			api.POST("/campaigns", cfg.CampaignHandler.Create)
			api.GET("/campaigns", cfg.CampaignHandler.List)
			api.GET("/campaigns/:id", cfg.CampaignHandler.Get)
			api.PATCH("/campaigns/:id/status", cfg.CampaignHandler.UpdateStatus)
		}

		if cfg.PersonaHandler != nil {
			api.POST("/personas", cfg.PersonaHandler.Create)
			api.GET("/personas", cfg.PersonaHandler.List)
			api.GET("/personas/:id", cfg.PersonaHandler.Get)
			api.PUT("/personas/:id", cfg.PersonaHandler.Update)
		}

		if cfg.DemoHandler != nil {
			api.GET("/demo", cfg.DemoHandler.Catalog)
		}
	}

	if cfg.AgentRoutes != nil {
		cfg.AgentRoutes(r)
	}

	return r
}
