package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"telework-planning-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

var planningColumns = []string{
	"id", "user_id", "user_name", "planning_date", "planning_status",
	"location", "work_type", "reasons", "created_at", "updated_at",
}

func TestGormStore_UpsertStatement(t *testing.T) {
	now := time.Now()
	date := model.NewDate(2024, time.May, 7)

	testCases := []struct {
		name       string
		mode       UpsertMode
		upsertTail string
	}{
		{
			name:       "keep status leaves planning_status out of the update set",
			mode:       KeepStatus,
			upsertTail: `"updated_at"="excluded"."updated_at"( RETURNING|$)`,
		},
		{
			name:       "overwrite status adds planning_status to the update set",
			mode:       OverwriteStatus,
			upsertTail: `"updated_at"="excluded"."updated_at","planning_status"="excluded"."planning_status"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)

			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "telework_plannings"`) +
				`.*` + regexp.QuoteMeta(`ON CONFLICT ("user_id","planning_date") DO UPDATE SET`) +
				`.*` + tc.upsertTail).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "telework_plannings" WHERE user_id = $1 AND planning_date = $2`)).
				WillReturnRows(sqlmock.NewRows(planningColumns).
					AddRow(1, 7, "Ada Lovelace", date.In(time.UTC), "APPROVED", "Home", "Regular", "", now, now))
			mock.ExpectCommit()

			stored, err := s.Upsert(context.Background(), model.PlanningEntry{
				UserID:   7,
				UserName: "Ada Lovelace",
				Date:     date,
				Status:   model.StatusApproved,
				Location: model.LocationHome,
				WorkType: model.WorkTypeRegular,
			}, tc.mode)

			require.NoError(t, err)
			assert.Equal(t, int64(1), stored.ID)
			assert.Equal(t, date, stored.Date)
			assert.Equal(t, model.StatusApproved, stored.Status)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_SaveAllSkipsTakenKeys(t *testing.T) {
	now := time.Now()
	date := model.NewDate(2024, time.May, 9)

	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "telework_plannings"`) +
		`.*` + regexp.QuoteMeta(`ON CONFLICT ("user_id","planning_date") DO NOTHING`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "telework_plannings" WHERE user_id = $1 AND planning_date = $2`)).
		WillReturnRows(sqlmock.NewRows(planningColumns).
			AddRow(3, 7, "Ada Lovelace", date.In(time.UTC), "APPROVED", "Tunisia - Tunis", "Exceptional", "trip", now, now))
	mock.ExpectCommit()

	stored, err := s.SaveAll(context.Background(), []model.PlanningEntry{{
		UserID:   7,
		Date:     date,
		Location: model.LocationHome,
		WorkType: model.WorkTypeRegular,
		Reason:   model.AutomaticReason,
	}})

	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(3), stored[0].ID)
	assert.Equal(t, model.StatusApproved, stored[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UpdateStatusNotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "telework_plannings" SET`)).
		WithArgs("REJECTED", Any{}, 42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := s.UpdateStatus(context.Background(), 42, model.StatusRejected)

	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_DeleteNotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "telework_plannings" WHERE "telework_plannings"."id" = $1`)).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.Delete(context.Background(), 42)

	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_StorageFailureIsWrapped(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "telework_plannings" WHERE planning_date BETWEEN $1 AND $2`)).
		WillReturnError(boom)

	_, err := s.FindInRange(context.Background(), model.NewDate(2024, time.May, 1), model.NewDate(2024, time.May, 31))

	assert.ErrorIs(t, err, model.ErrStorageFailure)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
