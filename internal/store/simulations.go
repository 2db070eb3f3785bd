package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/models"
)

type SimulationFilter struct {
	OwnerID    uuid.UUID
	CampaignID uuid.UUID
	Limit      int
}

type SimulationRepo interface {
	// CreateWithRollup inserts the simulation and recomputes the campaign's
	// acceptance rate and simulation count in the same transaction.
	CreateWithRollup(ctx context.Context, sim *models.Simulation) (*models.Campaign, error)
	List(ctx context.Context, tx *gorm.DB, filter SimulationFilter) ([]*models.Simulation, error)
}

type simulationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSimulationRepo(db *gorm.DB, baseLog *logger.Logger) SimulationRepo {
	return &simulationRepo{db: db, log: baseLog.With("repo", "SimulationRepo")}
}

func (r *simulationRepo) CreateWithRollup(ctx context.Context, sim *models.Simulation) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialise concurrent rollups for the same campaign.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", sim.CampaignID).
			First(&campaign).Error; err != nil {
			return notFound(err)
		}

		if err := tx.Create(sim).Error; err != nil {
			return fmt.Errorf("insert simulation: %w", err)
		}

		if err := tx.Model(&models.Campaign{}).
			Where("id = ?", sim.CampaignID).
			Updates(map[string]interface{}{
				"acceptance_rate": gorm.Expr(
					"(SELECT COALESCE(AVG(CASE WHEN outcome = ? THEN 1.0 ELSE 0.0 END), 0) FROM simulations WHERE campaign_id = ?)",
					models.OutcomeAccepted, sim.CampaignID,
				),
				"simulation_count": gorm.Expr(
					"(SELECT COUNT(*) FROM simulations WHERE campaign_id = ?)",
					sim.CampaignID,
				),
			}).Error; err != nil {
			return fmt.Errorf("rollup campaign: %w", err)
		}

		return tx.Where("id = ?", sim.CampaignID).First(&campaign).Error
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug("Simulation recorded",
		"simulation_id", sim.ID,
		"campaign_id", campaign.ID,
		"acceptance_rate", campaign.AcceptanceRate,
		"simulation_count", campaign.SimulationCount,
	)
	return &campaign, nil
}

// List returns the newest simulations first with campaign and persona
// attached. A zero CampaignID matches every campaign.
func (r *simulationRepo) List(ctx context.Context, tx *gorm.DB, filter SimulationFilter) ([]*models.Simulation, error) {
	q := orDB(r.db, tx).WithContext(ctx).
		Preload("Campaign").
		Preload("Persona").
		Where("user_id = ?", filter.OwnerID)
	if filter.CampaignID != uuid.Nil {
		q = q.Where("campaign_id = ?", filter.CampaignID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var out []*models.Simulation
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
