package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open("sqlite", dsn, logger.Nop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedCampaign(t *testing.T, db *gorm.DB, owner uuid.UUID) *models.Campaign {
	t.Helper()
	c := &models.Campaign{
		UserID:      owner,
		Name:        "Launch",
		ProductName: "Smartwatch X",
		Price:       decimal.NewFromInt(12999),
		Currency:    "INR",
		Status:      models.CampaignStatusActive,
	}
	require.NoError(t, NewCampaignRepo(db, logger.Nop()).Create(context.Background(), nil, c))
	return c
}

func seedPersona(t *testing.T, db *gorm.DB, owner uuid.UUID) *models.Persona {
	t.Helper()
	p := &models.Persona{
		UserID:           owner,
		Name:             "Urban Saver",
		Location:         "Mumbai",
		Age:              29,
		Income:           decimal.NewFromInt(800000),
		TrustScore:       0.7,
		PriceSensitivity: 0.8,
		PrivacyThreshold: 0.5,
		OceanScores:      datatypes.NewJSONType(models.DefaultOceanScores()),
	}
	require.NoError(t, NewPersonaRepo(db, logger.Nop()).Create(context.Background(), nil, p))
	return p
}

func newSim(owner uuid.UUID, c *models.Campaign, p *models.Persona, o models.Outcome, at time.Time) *models.Simulation {
	return &models.Simulation{
		UserID:     owner,
		CampaignID: c.ID,
		PersonaID:  p.ID,
		Status:     models.SimulationStatusCompleted,
		Outcome:    o,
		Model:      "gpt-4o-mini",
		Transcript: datatypes.NewJSONType(models.Transcript{{Actor: models.ActorBrand, Text: "hello"}}),
		Metrics:    datatypes.NewJSONType(models.SimulationMetrics{}),
		CreatedAt:  at,
	}
}

func TestCampaignRepo(t *testing.T) {
	db := newTestDB(t)
	repo := NewCampaignRepo(db, logger.Nop())
	ctx := context.Background()
	owner := uuid.New()

	c := seedCampaign(t, db, owner)
	assert.NotEqual(t, uuid.Nil, c.ID)

	got, err := repo.GetByID(ctx, nil, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Smartwatch X", got.ProductName)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(12999)))
	assert.Zero(t, got.SimulationCount)

	_, err = repo.GetByID(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	seedCampaign(t, db, uuid.New())
	list, err := repo.ListByOwner(ctx, nil, owner, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	updated, err := repo.UpdateStatus(ctx, nil, c.ID, models.CampaignStatusArchived)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusArchived, updated.Status)

	list, err = repo.ListByOwner(ctx, nil, owner, models.CampaignStatusActive)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repo.UpdateStatus(ctx, nil, uuid.New(), models.CampaignStatusDraft)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersonaRepo(t *testing.T) {
	db := newTestDB(t)
	repo := NewPersonaRepo(db, logger.Nop())
	ctx := context.Background()
	owner := uuid.New()

	p := seedPersona(t, db, owner)

	got, err := repo.GetByID(ctx, nil, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultOceanScores(), got.Ocean())

	got.Name = "Frugal Saver"
	got.TrustScore = 0.3
	ocean := got.Ocean()
	ocean.Openness = 0.9
	got.OceanScores = datatypes.NewJSONType(ocean)
	require.NoError(t, repo.Update(ctx, nil, got))

	reloaded, err := repo.GetByID(ctx, nil, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Frugal Saver", reloaded.Name)
	assert.InDelta(t, 0.3, reloaded.TrustScore, 1e-9)
	assert.InDelta(t, 0.9, reloaded.Ocean().Openness, 1e-9)
	assert.Equal(t, owner, reloaded.UserID)

	list, err := repo.ListByOwner(ctx, nil, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	missing := *got
	missing.ID = uuid.New()
	assert.ErrorIs(t, repo.Update(ctx, nil, &missing), ErrNotFound)
}

func TestCreateWithRollup(t *testing.T) {
	db := newTestDB(t)
	repo := NewSimulationRepo(db, logger.Nop())
	ctx := context.Background()
	owner := uuid.New()
	c := seedCampaign(t, db, owner)
	p := seedPersona(t, db, owner)
	base := time.Now().UTC()

	outcomes := []models.Outcome{
		models.OutcomeAccepted,
		models.OutcomeRejected,
		models.OutcomeCounter,
		models.OutcomeAccepted,
	}
	accepted := 0
	for i, o := range outcomes {
		if o == models.OutcomeAccepted {
			accepted++
		}
		updated, err := repo.CreateWithRollup(ctx, newSim(owner, c, p, o, base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), updated.SimulationCount)
		assert.InDelta(t, float64(accepted)/float64(i+1), updated.AcceptanceRate, 1e-9)
	}

	stored, err := NewCampaignRepo(db, logger.Nop()).GetByID(ctx, nil, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.SimulationCount)
	assert.InDelta(t, 0.5, stored.AcceptanceRate, 1e-9)
}

func TestCreateWithRollupUnknownCampaign(t *testing.T) {
	db := newTestDB(t)
	repo := NewSimulationRepo(db, logger.Nop())
	owner := uuid.New()
	p := seedPersona(t, db, owner)

	ghost := &models.Campaign{ID: uuid.New()}
	_, err := repo.CreateWithRollup(context.Background(), newSim(owner, ghost, p, models.OutcomeAccepted, time.Now()))
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Simulation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSimulationList(t *testing.T) {
	db := newTestDB(t)
	repo := NewSimulationRepo(db, logger.Nop())
	ctx := context.Background()
	owner := uuid.New()
	c1 := seedCampaign(t, db, owner)
	c2 := seedCampaign(t, db, owner)
	p := seedPersona(t, db, owner)
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		_, err := repo.CreateWithRollup(ctx, newSim(owner, c1, p, models.OutcomeCounter, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	latest := newSim(owner, c2, p, models.OutcomeAccepted, base.Add(time.Hour))
	_, err := repo.CreateWithRollup(ctx, latest)
	require.NoError(t, err)

	other := uuid.New()
	_, err = repo.CreateWithRollup(ctx, newSim(other, c1, p, models.OutcomeRejected, base))
	require.NoError(t, err)

	all, err := repo.List(ctx, nil, SimulationFilter{OwnerID: owner, Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, latest.ID, all[0].ID)
	require.NotNil(t, all[0].Campaign)
	require.NotNil(t, all[0].Persona)
	assert.Equal(t, c2.ID, all[0].Campaign.ID)
	assert.Equal(t, "Urban Saver", all[0].Persona.Name)
	assert.Equal(t, "hello", all[0].Turns()[0].Text)

	limited, err := repo.List(ctx, nil, SimulationFilter{OwnerID: owner, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	byCampaign, err := repo.List(ctx, nil, SimulationFilter{OwnerID: owner, CampaignID: c1.ID})
	require.NoError(t, err)
	assert.Len(t, byCampaign, 3)
	for _, s := range byCampaign {
		assert.Equal(t, c1.ID, s.CampaignID)
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "synapse.db?_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL", sqliteDSN("synapse.db"))
	assert.Equal(t, "file:x?mode=memory&cache=shared&_busy_timeout=5000&_txlock=immediate",
		sqliteDSN("file:x?mode=memory&cache=shared"))
	assert.Equal(t, "app.db?_busy_timeout=100&_txlock=immediate&_journal_mode=WAL", sqliteDSN("app.db?_busy_timeout=100"))
}

func TestCreateWithRollupConcurrent(t *testing.T) {
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "synapse.db"), logger.Nop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewSimulationRepo(db, logger.Nop())
	owner := uuid.New()
	c := seedCampaign(t, db, owner)
	p := seedPersona(t, db, owner)

	const runs = 16
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome := models.OutcomeRejected
			if i%4 == 0 {
				outcome = models.OutcomeAccepted
			}
			_, errs[i] = repo.CreateWithRollup(context.Background(), newSim(owner, c, p, outcome, time.Now().UTC()))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "run %d", i)
	}
	stored, err := NewCampaignRepo(db, logger.Nop()).GetByID(context.Background(), nil, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(runs), stored.SimulationCount)
	assert.InDelta(t, 0.25, stored.AcceptanceRate, 1e-9)
}
