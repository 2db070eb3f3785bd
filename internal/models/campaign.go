package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Prices and incomes go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// AnonymousOwnerID owns records created without an auth session.
var AnonymousOwnerID = uuid.MustParse("00000000-0000-0000-0000-000000000000")

type CampaignStatus string

const (
	CampaignStatusDraft    CampaignStatus = "draft"
	CampaignStatusActive   CampaignStatus = "active"
	CampaignStatusArchived CampaignStatus = "archived"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusArchived:
		return true
	}
	return false
}

// Campaign is a product offer. AcceptanceRate and SimulationCount are derived
// and only written by the simulation rollup.
type Campaign struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name            string          `gorm:"not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	ProductName     string          `gorm:"not null" json:"product_name"`
	Price           decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Currency        string          `gorm:"size:3;not null;default:INR" json:"currency"`
	Status          CampaignStatus  `gorm:"size:16;not null;default:draft;index" json:"status"`
	AcceptanceRate  float64         `gorm:"not null;default:0" json:"acceptance_rate"`
	SimulationCount int64           `gorm:"not null;default:0" json:"simulation_count"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Campaign) TableName() string { return "campaigns" }

func (c *Campaign) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Campaign) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(c.ProductName) == "" {
		errs = append(errs, errors.New("product_name is required"))
	}
	if !c.Price.IsPositive() {
		errs = append(errs, errors.New("price must be positive"))
	}
	if len(c.Currency) != 3 {
		errs = append(errs, errors.New("currency must be a 3-letter code"))
	}
	if !c.Status.Valid() {
		errs = append(errs, errors.New("status must be draft, active or archived"))
	}
	return errors.Join(errs...)
}

// CurrencySymbol renders the campaign currency the way offer text shows it.
func CurrencySymbol(code string) string {
	switch strings.ToUpper(code) {
	case "INR", "":
		return "₹"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	default:
		return strings.ToUpper(code) + " "
	}
}
