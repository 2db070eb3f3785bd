package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/BerylCAtieno/synapse/internal/apierr"
	"github.com/BerylCAtieno/synapse/internal/auth"
	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/models"
	"github.com/BerylCAtieno/synapse/internal/negotiation"
	"github.com/BerylCAtieno/synapse/internal/store"
)

type CampaignInput struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	ProductName string                `json:"product_name"`
	Price       decimal.Decimal       `json:"price"`
	Currency    string                `json:"currency"`
	Status      models.CampaignStatus `json:"status"`
}

// PersonaInput leaves unset fields nil so create can apply defaults and
// update can leave them untouched.
type PersonaInput struct {
	Name             *string             `json:"name"`
	Location         *string             `json:"location"`
	Age              *int                `json:"age"`
	Income           *decimal.Decimal    `json:"income"`
	TrustScore       *float64            `json:"trust_score"`
	PriceSensitivity *float64            `json:"price_sensitivity"`
	PrivacyThreshold *float64            `json:"privacy_threshold"`
	OceanScores      *models.OceanScores `json:"ocean_scores"`
}

type CatalogService interface {
	CreateCampaign(ctx context.Context, principal auth.Principal, in CampaignInput) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, principal auth.Principal, status models.CampaignStatus) ([]*models.Campaign, error)
	GetCampaign(ctx context.Context, principal auth.Principal, id string) (*models.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, principal auth.Principal, id string, status models.CampaignStatus) (*models.Campaign, error)

	CreatePersona(ctx context.Context, principal auth.Principal, in PersonaInput) (*models.Persona, error)
	UpdatePersona(ctx context.Context, principal auth.Principal, id string, in PersonaInput) (*models.Persona, error)
	ListPersonas(ctx context.Context, principal auth.Principal) ([]*models.Persona, error)
	GetPersona(ctx context.Context, principal auth.Principal, id string) (*models.Persona, error)
}

type catalogService struct {
	log       *logger.Logger
	campaigns store.CampaignRepo
	personas  store.PersonaRepo
}

func NewCatalogService(log *logger.Logger, campaigns store.CampaignRepo, personas store.PersonaRepo) CatalogService {
	return &catalogService{
		log:       log.With("service", "CatalogService"),
		campaigns: campaigns,
		personas:  personas,
	}
}

func (s *catalogService) CreateCampaign(ctx context.Context, principal auth.Principal, in CampaignInput) (*models.Campaign, error) {
	c := &models.Campaign{
		UserID:      principal.OwnerID(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ProductName: strings.TrimSpace(in.ProductName),
		Price:       in.Price,
		Currency:    strings.ToUpper(strings.TrimSpace(in.Currency)),
		Status:      in.Status,
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
	if c.Status == "" {
		c.Status = models.CampaignStatusDraft
	}
	if err := c.Validate(); err != nil {
		return nil, apierr.BadRequest(err)
	}
	if err := s.campaigns.Create(ctx, nil, c); err != nil {
		s.log.Error("Failed to create campaign", "error", err)
		return nil, apierr.Internal(err)
	}
	s.log.Info("Campaign created", "campaign_id", c.ID, "user_id", c.UserID)
	return c, nil
}

func (s *catalogService) ListCampaigns(ctx context.Context, principal auth.Principal, status models.CampaignStatus) ([]*models.Campaign, error) {
	if status != "" && !status.Valid() {
		return nil, apierr.BadRequest(fmt.Errorf("unknown status %q", status))
	}
	out, err := s.campaigns.ListByOwner(ctx, nil, principal.OwnerID(), status)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}

// GetCampaign also resolves demo ids. Stored campaigns are visible to their
// owner only.
func (s *catalogService) GetCampaign(ctx context.Context, principal auth.Principal, id string) (*models.Campaign, error) {
	if c, ok := negotiation.LookupDemoCampaign(id); ok {
		return c, nil
	}
	return s.ownedCampaign(ctx, principal, id)
}

func (s *catalogService) UpdateCampaignStatus(ctx context.Context, principal auth.Principal, id string, status models.CampaignStatus) (*models.Campaign, error) {
	if !status.Valid() {
		return nil, apierr.BadRequest(fmt.Errorf("unknown status %q", status))
	}
	c, err := s.ownedCampaign(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.campaigns.UpdateStatus(ctx, nil, c.ID, status)
	if err != nil {
		return nil, mapStoreErr(err, "Campaign not found")
	}
	s.log.Info("Campaign status changed", "campaign_id", c.ID, "status", status)
	return updated, nil
}

func (s *catalogService) CreatePersona(ctx context.Context, principal auth.Principal, in PersonaInput) (*models.Persona, error) {
	p := &models.Persona{
		UserID:           principal.OwnerID(),
		Age:              models.DefaultAge,
		Income:           models.DefaultIncome,
		TrustScore:       models.DefaultScore,
		PriceSensitivity: models.DefaultScore,
		PrivacyThreshold: models.DefaultScore,
		OceanScores:      datatypes.NewJSONType(models.DefaultOceanScores()),
	}
	in.apply(p)
	if err := p.Validate(); err != nil {
		return nil, apierr.BadRequest(err)
	}
	if err := s.personas.Create(ctx, nil, p); err != nil {
		s.log.Error("Failed to create persona", "error", err)
		return nil, apierr.Internal(err)
	}
	s.log.Info("Persona created", "persona_id", p.ID, "user_id", p.UserID)
	return p, nil
}

func (s *catalogService) UpdatePersona(ctx context.Context, principal auth.Principal, id string, in PersonaInput) (*models.Persona, error) {
	p, err := s.ownedPersona(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := p.Validate(); err != nil {
		return nil, apierr.BadRequest(err)
	}
	if err := s.personas.Update(ctx, nil, p); err != nil {
		return nil, mapStoreErr(err, "Persona not found")
	}
	updated, err := s.personas.GetByID(ctx, nil, p.ID)
	if err != nil {
		return nil, mapStoreErr(err, "Persona not found")
	}
	return updated, nil
}

func (s *catalogService) ListPersonas(ctx context.Context, principal auth.Principal) ([]*models.Persona, error) {
	out, err := s.personas.ListByOwner(ctx, nil, principal.OwnerID())
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}

func (s *catalogService) GetPersona(ctx context.Context, principal auth.Principal, id string) (*models.Persona, error) {
	if p, ok := negotiation.LookupDemoPersona(id); ok {
		return p, nil
	}
	return s.ownedPersona(ctx, principal, id)
}

// ownedCampaign loads a stored campaign belonging to the principal. Records of
// other owners are reported as missing.
func (s *catalogService) ownedCampaign(ctx context.Context, principal auth.Principal, id string) (*models.Campaign, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apierr.NotFound("Campaign not found")
	}
	c, err := s.campaigns.GetByID(ctx, nil, uid)
	if err != nil {
		return nil, mapStoreErr(err, "Campaign not found")
	}
	if c.UserID != principal.OwnerID() {
		return nil, apierr.NotFound("Campaign not found")
	}
	return c, nil
}

func (s *catalogService) ownedPersona(ctx context.Context, principal auth.Principal, id string) (*models.Persona, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apierr.NotFound("Persona not found")
	}
	p, err := s.personas.GetByID(ctx, nil, uid)
	if err != nil {
		return nil, mapStoreErr(err, "Persona not found")
	}
	if p.UserID != principal.OwnerID() {
		return nil, apierr.NotFound("Persona not found")
	}
	return p, nil
}

func (in PersonaInput) apply(p *models.Persona) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Location != nil {
		p.Location = strings.TrimSpace(*in.Location)
	}
	if in.Age != nil {
		p.Age = *in.Age
	}
	if in.Income != nil {
		p.Income = *in.Income
	}
	if in.TrustScore != nil {
		p.TrustScore = *in.TrustScore
	}
	if in.PriceSensitivity != nil {
		p.PriceSensitivity = *in.PriceSensitivity
	}
	if in.PrivacyThreshold != nil {
		p.PrivacyThreshold = *in.PrivacyThreshold
	}
	if in.OceanScores != nil {
		p.OceanScores = datatypes.NewJSONType(*in.OceanScores)
	}
}

func mapStoreErr(err error, notFoundMsg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apierr.NotFound(notFoundMsg)
	}
	return apierr.Internal(err)
}
