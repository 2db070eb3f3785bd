package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultScore = 0.5
	DefaultAge   = 30
)

var DefaultIncome = decimal.NewFromInt(500000)

// OceanScores is the five-factor trait vector, each in [0,1].
type OceanScores struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

func DefaultOceanScores() OceanScores {
	return OceanScores{
		Openness:          DefaultScore,
		Conscientiousness: DefaultScore,
		Extraversion:      DefaultScore,
		Agreeableness:     DefaultScore,
		Neuroticism:       DefaultScore,
	}
}

type Persona struct {
	ID               uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID                       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name             string                          `gorm:"not null" json:"name"`
	Location         string                          `json:"location"`
	Age              int                             `gorm:"not null" json:"age"`
	Income           decimal.Decimal                 `gorm:"type:numeric(14,2);not null" json:"income"`
	TrustScore       float64                         `gorm:"not null" json:"trust_score"`
	PriceSensitivity float64                         `gorm:"not null" json:"price_sensitivity"`
	PrivacyThreshold float64                         `gorm:"not null" json:"privacy_threshold"`
	OceanScores      datatypes.JSONType[OceanScores] `json:"ocean_scores"`
	CreatedAt        time.Time                       `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time                       `json:"updated_at"`
}

func (Persona) TableName() string { return "personas" }

func (p *Persona) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Persona) Ocean() OceanScores { return p.OceanScores.Data() }

func (p *Persona) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.Age <= 0 {
		errs = append(errs, errors.New("age must be positive"))
	}
	if !p.Income.IsPositive() {
		errs = append(errs, errors.New("income must be positive"))
	}
	o := p.Ocean()
	for _, s := range []struct {
		name  string
		value float64
	}{
		{"trust_score", p.TrustScore},
		{"price_sensitivity", p.PriceSensitivity},
		{"privacy_threshold", p.PrivacyThreshold},
		{"ocean_scores.openness", o.Openness},
		{"ocean_scores.conscientiousness", o.Conscientiousness},
		{"ocean_scores.extraversion", o.Extraversion},
		{"ocean_scores.agreeableness", o.Agreeableness},
		{"ocean_scores.neuroticism", o.Neuroticism},
	} {
		if s.value < 0 || s.value > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1]", s.name))
		}
	}
	return errors.Join(errs...)
}
