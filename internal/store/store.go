// Package store persists care actions and plant growing context in a
// local SQLite database.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/verdantlab/plantpulse/internal/model"
)

// Open connects to the SQLite database at path and migrates the schema.
// Use ":memory:" for an ephemeral database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if err := db.AutoMigrate(&model.CareAction{}, &model.PlantContext{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// CareActionStore records and queries manual care actions.
type CareActionStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCareActionStore(db *gorm.DB) *CareActionStore {
	return &CareActionStore{db: db, now: time.Now}
}

// LogAction stores a care action. A missing ID gets a fresh UUID and a
// zero timestamp defaults to now. The stored action is returned.
func (s *CareActionStore) LogAction(action model.CareAction) (*model.CareAction, error) {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	if action.Timestamp.IsZero() {
		action.Timestamp = s.now().UTC()
	}
	if err := s.db.Create(&action).Error; err != nil {
		return nil, fmt.Errorf("log care action: %w", err)
	}
	return &action, nil
}

// PlantHistory returns a plant's care actions newest first. days limits
// the lookback window (0 means unlimited) and actionType filters by
// type ("" means all).
func (s *CareActionStore) PlantHistory(plantID int, days int, actionType string) ([]model.CareAction, error) {
	q := s.db.Where("plant_id = ?", plantID)
	if days > 0 {
		cutoff := s.now().UTC().AddDate(0, 0, -days)
		q = q.Where("timestamp >= ?", cutoff)
	}
	if actionType != "" {
		q = q.Where("action_type = ?", actionType)
	}

	var actions []model.CareAction
	if err := q.Order("timestamp desc").Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("care history plant %d: %w", plantID, err)
	}
	return actions, nil
}

// AllActions returns every recorded action newest first.
func (s *CareActionStore) AllActions() ([]model.CareAction, error) {
	var actions []model.CareAction
	if err := s.db.Order("timestamp desc").Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("all care actions: %w", err)
	}
	return actions, nil
}

// PlantContextStore keeps the per-plant growing context. One record per
// plant, updated in place.
type PlantContextStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPlantContextStore(db *gorm.DB) *PlantContextStore {
	return &PlantContextStore{db: db, now: time.Now}
}

// Set merges the non-empty fields of ctx into the stored context for
// the plant, creating the record if none exists yet.
func (s *PlantContextStore) Set(ctx model.PlantContext) (*model.PlantContext, error) {
	var existing model.PlantContext
	err := s.db.First(&existing, "plant_id = ?", ctx.PlantID).Error
	switch {
	case err == nil:
		if ctx.Substrate != "" {
			existing.Substrate = ctx.Substrate
		}
		if ctx.Container != "" {
			existing.Container = ctx.Container
		}
		if ctx.GrowthPhase != "" {
			existing.GrowthPhase = ctx.GrowthPhase
		}
		if ctx.Notes != "" {
			existing.Notes = ctx.Notes
		}
	case err == gorm.ErrRecordNotFound:
		existing = ctx
	default:
		return nil, fmt.Errorf("load context plant %d: %w", ctx.PlantID, err)
	}

	existing.UpdatedAt = s.now().UTC()
	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("save context plant %d: %w", ctx.PlantID, err)
	}
	return &existing, nil
}

// Get returns the stored context for a plant, or nil when none is set.
func (s *PlantContextStore) Get(plantID int) (*model.PlantContext, error) {
	var ctx model.PlantContext
	err := s.db.First(&ctx, "plant_id = ?", plantID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load context plant %d: %w", plantID, err)
	}
	return &ctx, nil
}

// Delete removes a plant's context. Deleting a missing record is not an
// error.
func (s *PlantContextStore) Delete(plantID int) error {
	if err := s.db.Delete(&model.PlantContext{}, "plant_id = ?", plantID).Error; err != nil {
		return fmt.Errorf("delete context plant %d: %w", plantID, err)
	}
	return nil
}
