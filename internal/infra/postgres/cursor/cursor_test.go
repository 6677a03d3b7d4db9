package infra_postgres_cursor

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/humanbelnik/kinomatch/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type CursorInfraUnitSuite struct {
	suite.Suite
}

func initResources(t provider.T) (sqlmock.Sqlmock, *Driver, model.CursorKey) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	key := model.CursorKey{SessionID: uuid.New(), ParticipantID: uuid.New(), Signature: "|1990|2025|0||popularity.desc"}
	return mock, New(sqlx.NewDb(db, "postgres")), key
}

func (s *CursorInfraUnitSuite) TestLoad(t provider.T) {
	t.Parallel()

	t.Run("Should return the stored index", func(t provider.T) {
		mock, driver, key := initResources(t)

		mock.ExpectQuery("SELECT idx FROM cursors").
			WithArgs(key.SessionID, key.ParticipantID, key.Signature).
			WillReturnRows(sqlmock.NewRows([]string{"idx"}).AddRow(7))

		index, err := driver.Load(context.Background(), key)

		assert.NoError(t, err)
		assert.Equal(t, 7, index)
	})

	t.Run("Should start unknown cursors at zero", func(t provider.T) {
		mock, driver, key := initResources(t)

		mock.ExpectQuery("SELECT idx FROM cursors").WillReturnError(sql.ErrNoRows)

		index, err := driver.Load(context.Background(), key)

		assert.NoError(t, err)
		assert.Zero(t, index)
	})

	t.Run("Should surface storage errors", func(t provider.T) {
		mock, driver, key := initResources(t)

		mock.ExpectQuery("SELECT idx FROM cursors").WillReturnError(sql.ErrConnDone)

		_, err := driver.Load(context.Background(), key)

		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func (s *CursorInfraUnitSuite) TestAdvance(t provider.T) {
	t.Parallel()

	t.Run("Should apply the delta in a single statement", func(t provider.T) {
		mock, driver, key := initResources(t)

		mock.ExpectQuery("INSERT INTO cursors").
			WithArgs(key.SessionID, key.ParticipantID, key.Signature, -1).
			WillReturnRows(sqlmock.NewRows([]string{"idx"}).AddRow(0))

		index, err := driver.Advance(context.Background(), key, -1)

		assert.NoError(t, err)
		assert.Zero(t, index)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCursorInfraUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(CursorInfraUnitSuite))
}
