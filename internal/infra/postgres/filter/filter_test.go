package infra_postgres_filter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_session "github.com/humanbelnik/kinomatch/internal/usecase/session"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type FilterInfraUnitSuite struct {
	suite.Suite
}

type resources struct {
	mock   sqlmock.Sqlmock
	driver *Driver
	ctx    context.Context
	spec   model.FilterSpec
}

func initResources(t provider.T) *resources {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	spec := model.FilterSpec{Genres: []int{35, 18}, YearMin: 2000, Language: "EN"}.Normalize()
	return &resources{
		mock:   mock,
		driver: New(sqlx.NewDb(db, "postgres")),
		ctx:    context.Background(),
		spec:   spec,
	}
}

func (s *FilterInfraUnitSuite) TestSaveActive(t provider.T) {
	t.Parallel()

	t.Run("Should write snapshot and active pointer in one transaction", func(t provider.T) {
		r := initResources(t)
		sessionID := uuid.New()
		raw, _ := json.Marshal(r.spec)

		r.mock.ExpectBegin()
		r.mock.ExpectExec("INSERT INTO filter_snapshots").
			WithArgs(sessionID, r.spec.Signature(), raw).
			WillReturnResult(sqlmock.NewResult(0, 1))
		r.mock.ExpectExec("INSERT INTO session_filters").
			WithArgs(sessionID, r.spec.Signature()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		r.mock.ExpectCommit()

		err := r.driver.SaveActive(r.ctx, sessionID, r.spec, r.spec.Signature())

		assert.NoError(t, err)
		assert.NoError(t, r.mock.ExpectationsWereMet())
	})

	t.Run("Should roll back and map a missing session", func(t provider.T) {
		r := initResources(t)
		sessionID := uuid.New()

		r.mock.ExpectBegin()
		r.mock.ExpectExec("INSERT INTO filter_snapshots").
			WillReturnError(&pq.Error{Code: "23503", Constraint: "filter_snapshots_session_id_fkey"})
		r.mock.ExpectRollback()

		err := r.driver.SaveActive(r.ctx, sessionID, r.spec, r.spec.Signature())

		assert.ErrorIs(t, err, usecase_session.ErrSessionNotFound)
		assert.NoError(t, r.mock.ExpectationsWereMet())
	})

	t.Run("Should roll back when the pointer update fails", func(t provider.T) {
		r := initResources(t)

		r.mock.ExpectBegin()
		r.mock.ExpectExec("INSERT INTO filter_snapshots").WillReturnResult(sqlmock.NewResult(0, 1))
		r.mock.ExpectExec("INSERT INTO session_filters").WillReturnError(sql.ErrConnDone)
		r.mock.ExpectRollback()

		err := r.driver.SaveActive(r.ctx, uuid.New(), r.spec, r.spec.Signature())

		assert.True(t, errors.Is(err, sql.ErrConnDone))
		assert.NoError(t, r.mock.ExpectationsWereMet())
	})
}

func (s *FilterInfraUnitSuite) TestActive(t provider.T) {
	t.Parallel()

	t.Run("Should decode the active spec", func(t provider.T) {
		r := initResources(t)
		sessionID := uuid.New()
		raw, _ := json.Marshal(r.spec)

		r.mock.ExpectQuery("SELECT s.spec FROM session_filters").
			WithArgs(sessionID).
			WillReturnRows(sqlmock.NewRows([]string{"spec"}).AddRow(raw))

		spec, ok, err := r.driver.Active(r.ctx, sessionID)

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, r.spec.Signature(), spec.Signature())
	})

	t.Run("Should report absence without error", func(t provider.T) {
		r := initResources(t)

		r.mock.ExpectQuery("SELECT s.spec FROM session_filters").WillReturnError(sql.ErrNoRows)

		_, ok, err := r.driver.Active(r.ctx, uuid.New())

		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func (s *FilterInfraUnitSuite) TestBySignature(t provider.T) {
	t.Parallel()

	t.Run("Should look up a snapshot by signature", func(t provider.T) {
		r := initResources(t)
		sessionID := uuid.New()
		raw, _ := json.Marshal(r.spec)

		r.mock.ExpectQuery("SELECT spec FROM filter_snapshots").
			WithArgs(sessionID, r.spec.Signature()).
			WillReturnRows(sqlmock.NewRows([]string{"spec"}).AddRow(raw))

		spec, ok, err := r.driver.BySignature(r.ctx, sessionID, r.spec.Signature())

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []int{18, 35}, spec.Genres)
		assert.Equal(t, "en", spec.Language)
	})
}

func TestFilterInfraUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(FilterInfraUnitSuite))
}
