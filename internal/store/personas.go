package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/models"
)

type PersonaRepo interface {
	Create(ctx context.Context, tx *gorm.DB, persona *models.Persona) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Persona, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*models.Persona, error)
	Update(ctx context.Context, tx *gorm.DB, persona *models.Persona) error
}

type personaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonaRepo(db *gorm.DB, baseLog *logger.Logger) PersonaRepo {
	return &personaRepo{db: db, log: baseLog.With("repo", "PersonaRepo")}
}

func (r *personaRepo) Create(ctx context.Context, tx *gorm.DB, persona *models.Persona) error {
	return orDB(r.db, tx).WithContext(ctx).Create(persona).Error
}

func (r *personaRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Persona, error) {
	var p models.Persona
	if err := orDB(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *personaRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*models.Persona, error) {
	var out []*models.Persona
	if err := orDB(r.db, tx).WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites the editable fields of an existing persona. Owner and
// creation time are left alone.
func (r *personaRepo) Update(ctx context.Context, tx *gorm.DB, persona *models.Persona) error {
	res := orDB(r.db, tx).WithContext(ctx).
		Model(&models.Persona{}).
		Where("id = ?", persona.ID).
		Select("name", "location", "age", "income", "trust_score", "price_sensitivity", "privacy_threshold", "ocean_scores", "updated_at").
		Updates(persona)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
