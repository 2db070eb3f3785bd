package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SimulationStatus string

const (
	SimulationStatusRunning   SimulationStatus = "running"
	SimulationStatusCompleted SimulationStatus = "completed"
)

type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeCounter  Outcome = "counter"
	OutcomeRejected Outcome = "rejected"
)

type Actor string

const (
	ActorBrand    Actor = "brand"
	ActorConsumer Actor = "consumer"
)

func (a Actor) Valid() bool { return a == ActorBrand || a == ActorConsumer }

// Turn is one message of a negotiation transcript. Sentiment is optional and
// lies in [-1,1] when present.
type Turn struct {
	Actor     Actor    `json:"actor"`
	Text      string   `json:"text"`
	Sentiment *float64 `json:"sentiment,omitempty"`
}

type Transcript []Turn

// Last returns the final turn, or false for an empty transcript.
func (t Transcript) Last() (Turn, bool) {
	if len(t) == 0 {
		return Turn{}, false
	}
	return t[len(t)-1], true
}

type SimulationMetrics struct {
	AcceptanceRate float64 `json:"acceptanceRate"`
	SentimentAvg   float64 `json:"sentimentAvg"`
}

// Simulation is one recorded negotiation. Rows are append-only.
type Simulation struct {
	ID         uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID                             `gorm:"type:uuid;not null;index" json:"user_id"`
	CampaignID uuid.UUID                             `gorm:"type:uuid;not null;index" json:"campaign_id"`
	PersonaID  uuid.UUID                             `gorm:"type:uuid;not null;index" json:"persona_id"`
	Status     SimulationStatus                      `gorm:"size:16;not null" json:"status"`
	Outcome    Outcome                               `gorm:"size:16;not null;index" json:"outcome"`
	Model      string                                `gorm:"size:64" json:"model"`
	Transcript datatypes.JSONType[Transcript]        `json:"transcript"`
	Metrics    datatypes.JSONType[SimulationMetrics] `json:"metrics"`
	CreatedAt  time.Time                             `gorm:"index" json:"created_at"`

	Campaign *Campaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	Persona  *Persona  `gorm:"foreignKey:PersonaID" json:"persona,omitempty"`
}

func (Simulation) TableName() string { return "simulations" }

func (s *Simulation) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Simulation) Turns() Transcript { return s.Transcript.Data() }

func (s *Simulation) MetricsData() SimulationMetrics { return s.Metrics.Data() }
