package negotiation

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/BerylCAtieno/synapse/internal/llm"
	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/models"
)

// Executor produces a completed, unsaved simulation for a campaign and persona.
type Executor interface {
	Name() string
	Execute(ctx context.Context, campaign *models.Campaign, persona *models.Persona) (*models.Simulation, error)
}

// RemoteExecutor asks an external model to play out the negotiation.
type RemoteExecutor struct {
	completer llm.Completer
	log       *logger.Logger
	now       func() time.Time
}

func NewRemoteExecutor(completer llm.Completer, log *logger.Logger) *RemoteExecutor {
	return &RemoteExecutor{
		completer: completer,
		log:       log.With("service", "RemoteExecutor"),
		now:       time.Now,
	}
}

func (e *RemoteExecutor) Name() string { return "remote" }

func (e *RemoteExecutor) Execute(ctx context.Context, campaign *models.Campaign, persona *models.Persona) (*models.Simulation, error) {
	raw, err := e.completer.Complete(ctx, BuildPrompt(campaign, persona))
	if err != nil {
		return nil, err
	}

	transcript, fellBack := TranscriptOrFallback(campaign, raw)
	if fellBack {
		e.log.Warn("Model output did not parse as a transcript; using fallback",
			"provider", e.completer.Provider(), "model", e.completer.Model(), "raw_len", len(raw))
	}
	return completed(campaign, persona, e.completer.Model(), transcript, ClassifyOutcome(transcript), e.now()), nil
}

// DemoExecutor plays the fixed demo script without any network call.
type DemoExecutor struct {
	now func() time.Time
}

func NewDemoExecutor() *DemoExecutor { return &DemoExecutor{now: time.Now} }

func (e *DemoExecutor) Name() string { return "demo" }

func (e *DemoExecutor) Execute(_ context.Context, campaign *models.Campaign, persona *models.Persona) (*models.Simulation, error) {
	transcript, outcome := DemoScript(campaign, persona)
	return completed(campaign, persona, DemoModel, transcript, outcome, e.now()), nil
}

func completed(campaign *models.Campaign, persona *models.Persona, model string, t models.Transcript, o models.Outcome, at time.Time) *models.Simulation {
	return &models.Simulation{
		CampaignID: campaign.ID,
		PersonaID:  persona.ID,
		Status:     models.SimulationStatusCompleted,
		Outcome:    o,
		Model:      model,
		Transcript: datatypes.NewJSONType(t),
		Metrics:    datatypes.NewJSONType(ComputeMetrics(t, o)),
		CreatedAt:  at.UTC(),
	}
}
