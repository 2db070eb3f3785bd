package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BerylCAtieno/synapse/internal/apierr"
	"github.com/BerylCAtieno/synapse/internal/auth"
	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/models"
	"github.com/BerylCAtieno/synapse/internal/negotiation"
	"github.com/BerylCAtieno/synapse/internal/services"
)

// respondError renders err as {error: message}. Internal failures are logged
// and not echoed to the caller.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := apierr.StatusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "path", c.FullPath(), "error", err)
		msg = "Internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

type SimulationHandler struct {
	log     *logger.Logger
	service services.SimulationService
}

func NewSimulationHandler(log *logger.Logger, service services.SimulationService) *SimulationHandler {
	return &SimulationHandler{log: log.With("handler", "SimulationHandler"), service: service}
}

// POST /api/simulations
// body: { "campaignId": "...", "personaId": "...", "model": "..." }
func (h *SimulationHandler) Run(c *gin.Context) {
	var req services.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	// A client that disconnects mid-run must not abort the completion or
	// the write that follows it.
	ctx := context.WithoutCancel(c.Request.Context())
	sim, err := h.service.Run(ctx, auth.PrincipalFrom(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"simulation": sim})
}

// GET /api/simulations?limit=&campaign_id=
func (h *SimulationHandler) List(c *gin.Context) {
	filter := services.HistoryFilter{CampaignID: c.Query("campaign_id")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, errors.New("limit must be a non-negative integer"))
			return
		}
		filter.Limit = n
	}

	sims, err := h.service.List(c.Request.Context(), auth.PrincipalFrom(c), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"simulations": sims})
}

type CampaignHandler struct {
	log     *logger.Logger
	catalog services.CatalogService
}

func NewCampaignHandler(log *logger.Logger, catalog services.CatalogService) *CampaignHandler {
	return &CampaignHandler{log: log.With("handler", "CampaignHandler"), catalog: catalog}
}

// POST /api/campaigns
func (h *CampaignHandler) Create(c *gin.Context) {
	var in services.CampaignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	campaign, err := h.catalog.CreateCampaign(c.Request.Context(), auth.PrincipalFrom(c), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"campaign": campaign})
}

// GET /api/campaigns?status=
func (h *CampaignHandler) List(c *gin.Context) {
	status := models.CampaignStatus(c.Query("status"))
	campaigns, err := h.catalog.ListCampaigns(c.Request.Context(), auth.PrincipalFrom(c), status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// GET /api/campaigns/:id
func (h *CampaignHandler) Get(c *gin.Context) {
	campaign, err := h.catalog.GetCampaign(c.Request.Context(), auth.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

// PATCH /api/campaigns/:id/status
// body: { "status": "active" }
func (h *CampaignHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status models.CampaignStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	campaign, err := h.catalog.UpdateCampaignStatus(c.Request.Context(), auth.PrincipalFrom(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

type PersonaHandler struct {
	log     *logger.Logger
	catalog services.CatalogService
}

func NewPersonaHandler(log *logger.Logger, catalog services.CatalogService) *PersonaHandler {
	return &PersonaHandler{log: log.With("handler", "PersonaHandler"), catalog: catalog}
}

// POST /api/personas
func (h *PersonaHandler) Create(c *gin.Context) {
	var in services.PersonaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	persona, err := h.catalog.CreatePersona(c.Request.Context(), auth.PrincipalFrom(c), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"persona": persona})
}

// GET /api/personas
func (h *PersonaHandler) List(c *gin.Context) {
	personas, err := h.catalog.ListPersonas(c.Request.Context(), auth.PrincipalFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"personas": personas})
}

// GET /api/personas/:id
func (h *PersonaHandler) Get(c *gin.Context) {
	persona, err := h.catalog.GetPersona(c.Request.Context(), auth.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"persona": persona})
}

// PUT /api/personas/:id
func (h *PersonaHandler) Update(c *gin.Context) {
	var in services.PersonaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	persona, err := h.catalog.UpdatePersona(c.Request.Context(), auth.PrincipalFrom(c), c.Param("id"), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"persona": persona})
}

type DemoHandler struct{}

func NewDemoHandler() *DemoHandler { return &DemoHandler{} }

// GET /api/demo
func (h *DemoHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"campaigns": negotiation.DemoCampaigns(),
		"personas":  negotiation.DemoPersonas(),
	})
}
