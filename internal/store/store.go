package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"telework-planning-backend/internal/model"
)

// Store defines the persistence operations on planning entries.
type Store interface {
	FindByID(ctx context.Context, id int64) (model.PlanningEntry, error)
	FindByUserAndDate(ctx context.Context, userID int64, date model.Date) (model.PlanningEntry, error)
	ExistsForUserAndDate(ctx context.Context, userID int64, date model.Date) (bool, error)
	ExistsForUserInRange(ctx context.Context, userID int64, start, end model.Date) (bool, error)
	FindByUserInRange(ctx context.Context, userID int64, start, end model.Date) ([]model.PlanningEntry, error)
	FindInRange(ctx context.Context, start, end model.Date) ([]model.PlanningEntry, error)
	Upsert(ctx context.Context, entry model.PlanningEntry, mode UpsertMode) (model.PlanningEntry, error)
	SaveAll(ctx context.Context, entries []model.PlanningEntry) ([]model.PlanningEntry, error)
	UpdateStatus(ctx context.Context, id int64, status model.PlanningStatus) (model.PlanningEntry, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrStorageFailure, op, err)
}

func (s *gormStore) FindByID(ctx context.Context, id int64) (model.PlanningEntry, error) {
	var entry model.PlanningEntry
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.PlanningEntry{}, fmt.Errorf("planning %d: %w", id, model.ErrNotFound)
		}
		return model.PlanningEntry{}, storageErr("find planning by id", err)
	}
	return entry, nil
}

func (s *gormStore) FindByUserAndDate(ctx context.Context, userID int64, date model.Date) (model.PlanningEntry, error) {
	entry, err := findByKey(s.db.WithContext(ctx), userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.PlanningEntry{}, fmt.Errorf("planning for user %d on %s: %w", userID, date, model.ErrNotFound)
		}
		return model.PlanningEntry{}, storageErr("find planning by user and date", err)
	}
	return entry, nil
}

func (s *gormStore) ExistsForUserAndDate(ctx context.Context, userID int64, date model.Date) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.PlanningEntry{}).
		Where("user_id = ? AND planning_date = ?", userID, date).
		Count(&count).Error
	if err != nil {
		return false, storageErr("check planning existence", err)
	}
	return count > 0, nil
}

func (s *gormStore) ExistsForUserInRange(ctx context.Context, userID int64, start, end model.Date) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.PlanningEntry{}).
		Where("user_id = ? AND planning_date BETWEEN ? AND ?", userID, start, end).
		Count(&count).Error
	if err != nil {
		return false, storageErr("check planning existence in range", err)
	}
	return count > 0, nil
}

func (s *gormStore) FindByUserInRange(ctx context.Context, userID int64, start, end model.Date) ([]model.PlanningEntry, error) {
	var entries []model.PlanningEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND planning_date BETWEEN ? AND ?", userID, start, end).
		Order("planning_date").
		Find(&entries).Error
	if err != nil {
		return nil, storageErr("find user planning in range", err)
	}
	return entries, nil
}

func (s *gormStore) FindInRange(ctx context.Context, start, end model.Date) ([]model.PlanningEntry, error) {
	var entries []model.PlanningEntry
	err := s.db.WithContext(ctx).
		Where("planning_date BETWEEN ? AND ?", start, end).
		Order("planning_date, user_id").
		Find(&entries).Error
	if err != nil {
		return nil, storageErr("find planning in range", err)
	}
	return entries, nil
}

// Upsert inserts the entry or, when a row for (user, date) already exists,
// refreshes its mutable fields in the same statement. The row as stored
// afterwards is returned.
func (s *gormStore) Upsert(ctx context.Context, entry model.PlanningEntry, mode UpsertMode) (model.PlanningEntry, error) {
	s.prepare(&entry)

	columns := mutableColumns
	if mode == OverwriteStatus {
		columns = append(columns[:len(columns):len(columns)], "planning_status")
	}

	var stored model.PlanningEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   onConflictColumns(),
			DoUpdates: clause.AssignmentColumns(columns),
		}).Create(&entry).Error; err != nil {
			return err
		}

		var err error
		stored, err = findByKey(tx, entry.UserID, entry.Date)
		return err
	})
	if err != nil {
		return model.PlanningEntry{}, storageErr(fmt.Sprintf("upsert planning for user %d on %s", entry.UserID, entry.Date), err)
	}
	return stored, nil
}

// SaveAll inserts every entry whose (user, date) is still free and returns
// the stored rows for all given keys. The batch commits or fails as a whole.
func (s *gormStore) SaveAll(ctx context.Context, entries []model.PlanningEntry) ([]model.PlanningEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	stored := make([]model.PlanningEntry, 0, len(entries))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			s.prepare(&entry)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   onConflictColumns(),
				DoNothing: true,
			}).Create(&entry).Error; err != nil {
				return fmt.Errorf("insert planning for user %d on %s: %w", entry.UserID, entry.Date, err)
			}

			row, err := findByKey(tx, entry.UserID, entry.Date)
			if err != nil {
				return err
			}
			stored = append(stored, row)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("save planning batch", err)
	}
	return stored, nil
}

func (s *gormStore) UpdateStatus(ctx context.Context, id int64, status model.PlanningStatus) (model.PlanningEntry, error) {
	res := s.db.WithContext(ctx).
		Model(&model.PlanningEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"planning_status": status,
			"updated_at":      s.now(),
		})
	if res.Error != nil {
		return model.PlanningEntry{}, storageErr("update planning status", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.PlanningEntry{}, fmt.Errorf("planning %d: %w", id, model.ErrNotFound)
	}
	return s.FindByID(ctx, id)
}

func (s *gormStore) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.PlanningEntry{}, id)
	if res.Error != nil {
		return storageErr("delete planning", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("planning %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// prepare resets the fields the store owns on insert.
func (s *gormStore) prepare(entry *model.PlanningEntry) {
	now := s.now()
	entry.ID = 0
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.Status == "" {
		entry.Status = model.StatusPlanned
	}
}

func findByKey(db *gorm.DB, userID int64, date model.Date) (model.PlanningEntry, error) {
	var entry model.PlanningEntry
	err := db.Where("user_id = ? AND planning_date = ?", userID, date).First(&entry).Error
	return entry, err
}

func onConflictColumns() []clause.Column {
	columns := make([]clause.Column, len(keyColumns))
	for i, name := range keyColumns {
		columns[i] = clause.Column{Name: name}
	}
	return columns
}
