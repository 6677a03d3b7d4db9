package infra_postgres_item

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_session "github.com/humanbelnik/kinomatch/internal/usecase/session"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type ItemInfraUnitSuite struct {
	suite.Suite
}

func initResources(t provider.T) (sqlmock.Sqlmock, *Driver) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return mock, New(sqlx.NewDb(db, "postgres"))
}

func (s *ItemInfraUnitSuite) TestUpsert(t provider.T) {
	t.Parallel()

	t.Run("Should return the local id keyed by external id", func(t provider.T) {
		mock, driver := initResources(t)
		item := model.CandidateItem{ExternalID: 603, Title: "The Matrix", Year: 1999, ImageURL: "/m.jpg", Tags: []int{28, 878}}

		mock.ExpectQuery("INSERT INTO items").
			WithArgs(int64(603), "The Matrix", 1999, "/m.jpg", pq.Int64Array{28, 878}).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

		stored, err := driver.Upsert(context.Background(), item)

		assert.NoError(t, err)
		assert.Equal(t, int64(12), stored.ItemID)
		assert.Equal(t, "The Matrix", stored.Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should surface storage errors", func(t provider.T) {
		mock, driver := initResources(t)

		mock.ExpectQuery("INSERT INTO items").WillReturnError(sql.ErrConnDone)

		_, err := driver.Upsert(context.Background(), model.CandidateItem{ExternalID: 1, Title: "x"})

		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func (s *ItemInfraUnitSuite) TestByID(t provider.T) {
	t.Parallel()

	t.Run("Should load an item with its tags", func(t provider.T) {
		mock, driver := initResources(t)

		mock.ExpectQuery("SELECT id, external_id, title").
			WithArgs(int64(12)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "title", "year", "image_url", "tags"}).
				AddRow(int64(12), int64(603), "The Matrix", 1999, "/m.jpg", "{28,878}"))

		item, err := driver.ByID(context.Background(), 12)

		assert.NoError(t, err)
		assert.Equal(t, int64(603), item.ExternalID)
		assert.Equal(t, []int{28, 878}, item.Tags)
	})

	t.Run("Should map a missing row to ErrItemNotFound", func(t provider.T) {
		mock, driver := initResources(t)

		mock.ExpectQuery("SELECT id, external_id, title").WillReturnError(sql.ErrNoRows)

		_, err := driver.ByID(context.Background(), 99)

		assert.ErrorIs(t, err, usecase_session.ErrItemNotFound)
	})
}

func TestItemInfraUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(ItemInfraUnitSuite))
}
