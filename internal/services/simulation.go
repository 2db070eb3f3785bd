package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/synapse/internal/apierr"
	"github.com/BerylCAtieno/synapse/internal/auth"
	"github.com/BerylCAtieno/synapse/internal/llm"
	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/models"
	"github.com/BerylCAtieno/synapse/internal/negotiation"
	"github.com/BerylCAtieno/synapse/internal/store"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

type RunRequest struct {
	CampaignID string `json:"campaignId"`
	PersonaID  string `json:"personaId"`
	Model      string `json:"model,omitempty"`
}

type HistoryFilter struct {
	CampaignID string
	Limit      int
}

// SimulationObserver is told about every completed simulation.
type SimulationObserver interface {
	ObserveSimulation(executor, outcome string)
}

type SimulationService interface {
	Run(ctx context.Context, principal auth.Principal, req RunRequest) (*models.Simulation, error)
	List(ctx context.Context, principal auth.Principal, filter HistoryFilter) ([]*models.Simulation, error)
}

type simulationService struct {
	log          *logger.Logger
	campaigns    store.CampaignRepo
	personas     store.PersonaRepo
	simulations  store.SimulationRepo
	registry     *llm.Registry
	demo         negotiation.Executor
	observer     SimulationObserver
	historyLimit int
}

func NewSimulationService(
	log *logger.Logger,
	campaigns store.CampaignRepo,
	personas store.PersonaRepo,
	simulations store.SimulationRepo,
	registry *llm.Registry,
	observer SimulationObserver,
	historyLimit int,
) SimulationService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &simulationService{
		log:          log.With("service", "SimulationService"),
		campaigns:    campaigns,
		personas:     personas,
		simulations:  simulations,
		registry:     registry,
		demo:         negotiation.NewDemoExecutor(),
		observer:     observer,
		historyLimit: historyLimit,
	}
}

func (s *simulationService) Run(ctx context.Context, principal auth.Principal, req RunRequest) (*models.Simulation, error) {
	req.CampaignID = strings.TrimSpace(req.CampaignID)
	req.PersonaID = strings.TrimSpace(req.PersonaID)
	if req.CampaignID == "" || req.PersonaID == "" {
		return nil, apierr.BadRequest(errors.New("campaignId and personaId are required"))
	}

	campaign, campaignIsDemo := negotiation.LookupDemoCampaign(req.CampaignID)
	persona, personaIsDemo := negotiation.LookupDemoPersona(req.PersonaID)
	demo := campaignIsDemo || personaIsDemo

	if !demo && !principal.Authenticated {
		return nil, apierr.Unauthenticated("Not authenticated")
	}

	g, gctx := errgroup.WithContext(ctx)
	if campaign == nil {
		g.Go(func() error {
			c, err := s.loadCampaign(gctx, principal, req.CampaignID)
			campaign = c
			return err
		})
	}
	if persona == nil {
		g.Go(func() error {
			p, err := s.loadPersona(gctx, principal, req.PersonaID)
			persona = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierr.NotFound("Campaign or persona not found")
		}
		s.log.Error("Failed to load simulation inputs", "error", err)
		return nil, apierr.Internal(err)
	}

	if demo {
		return s.runDemo(ctx, principal, campaign, persona)
	}
	return s.runRemote(ctx, principal, req.Model, campaign, persona)
}

func (s *simulationService) runDemo(ctx context.Context, principal auth.Principal, campaign *models.Campaign, persona *models.Persona) (*models.Simulation, error) {
	sim, err := s.demo.Execute(ctx, campaign, persona)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	sim.ID = uuid.New()
	sim.UserID = principal.OwnerID()
	sim.Campaign = campaign
	sim.Persona = persona
	s.observe(s.demo.Name(), sim.Outcome)
	s.log.Info("Demo simulation completed",
		"campaign_id", campaign.ID, "persona_id", persona.ID, "outcome", sim.Outcome)
	return sim, nil
}

func (s *simulationService) runRemote(ctx context.Context, principal auth.Principal, model string, campaign *models.Campaign, persona *models.Persona) (*models.Simulation, error) {
	completer, err := s.registry.Resolve(model)
	if err != nil {
		return nil, apierr.BadRequest(err)
	}
	executor := negotiation.NewRemoteExecutor(completer, s.log)

	sim, err := executor.Execute(ctx, campaign, persona)
	if err != nil {
		var pe *llm.ProviderError
		if errors.As(err, &pe) {
			s.log.Error("Completion failed", "provider", pe.Provider, "status", pe.StatusCode, "detail", pe.Detail())
			return nil, apierr.ProviderFailed(pe)
		}
		s.log.Error("Simulation failed", "error", err)
		return nil, apierr.Internal(err)
	}
	sim.UserID = principal.OwnerID()

	updated, err := s.simulations.CreateWithRollup(ctx, sim)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierr.NotFound("Campaign or persona not found")
		}
		s.log.Error("Failed to save simulation", "campaign_id", campaign.ID, "error", err)
		return nil, apierr.Internal(fmt.Errorf("save simulation: %w", err))
	}
	sim.Campaign = updated
	sim.Persona = persona

	s.observe(executor.Name(), sim.Outcome)
	s.log.Info("Simulation completed",
		"simulation_id", sim.ID,
		"campaign_id", campaign.ID,
		"persona_id", persona.ID,
		"user_id", sim.UserID,
		"model", sim.Model,
		"outcome", sim.Outcome,
	)
	return sim, nil
}

func (s *simulationService) List(ctx context.Context, principal auth.Principal, filter HistoryFilter) ([]*models.Simulation, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = s.historyLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	f := store.SimulationFilter{OwnerID: principal.OwnerID(), Limit: limit}
	if filter.CampaignID != "" {
		id, err := uuid.Parse(filter.CampaignID)
		if err != nil {
			return nil, apierr.BadRequest(fmt.Errorf("invalid campaign_id: %w", err))
		}
		f.CampaignID = id
	}

	sims, err := s.simulations.List(ctx, nil, f)
	if err != nil {
		s.log.Error("Failed to list simulations", "error", err)
		return nil, apierr.Internal(err)
	}
	return sims, nil
}

// loadCampaign and loadPersona only return records owned by the principal.
// Anything else reads as missing.
func (s *simulationService) loadCampaign(ctx context.Context, principal auth.Principal, raw string) (*models.Campaign, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, store.ErrNotFound
	}
	c, err := s.campaigns.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != principal.OwnerID() {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *simulationService) loadPersona(ctx context.Context, principal auth.Principal, raw string) (*models.Persona, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, store.ErrNotFound
	}
	p, err := s.personas.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != principal.OwnerID() {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (s *simulationService) observe(executor string, outcome models.Outcome) {
	if s.observer != nil {
		s.observer.ObserveSimulation(executor, string(outcome))
	}
}
