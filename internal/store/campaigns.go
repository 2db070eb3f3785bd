package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/models"
)

type CampaignRepo interface {
	Create(ctx context.Context, tx *gorm.DB, campaign *models.Campaign) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Campaign, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, status models.CampaignStatus) ([]*models.Campaign, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.CampaignStatus) (*models.Campaign, error)
}

type campaignRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	return &campaignRepo{db: db, log: baseLog.With("repo", "CampaignRepo")}
}

func (r *campaignRepo) Create(ctx context.Context, tx *gorm.DB, campaign *models.Campaign) error {
	return orDB(r.db, tx).WithContext(ctx).Create(campaign).Error
}

func (r *campaignRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Campaign, error) {
	var c models.Campaign
	if err := orDB(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *campaignRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, status models.CampaignStatus) ([]*models.Campaign, error) {
	q := orDB(r.db, tx).WithContext(ctx).Where("user_id = ?", ownerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*models.Campaign
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *campaignRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.CampaignStatus) (*models.Campaign, error) {
	res := orDB(r.db, tx).WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, tx, id)
}
