package infra_postgres_reaction

import (
	"context"
	"database/sql"
	"testing"
	"time"

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

type ReactionInfraUnitSuite struct {
	suite.Suite
}

type resources struct {
	mock     sqlmock.Sqlmock
	driver   *Driver
	ctx      context.Context
	reaction model.Reaction
}

func initResources(t provider.T) *resources {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return &resources{
		mock:   mock,
		driver: New(sqlx.NewDb(db, "postgres")),
		ctx:    context.Background(),
		reaction: model.Reaction{
			SessionID:     uuid.New(),
			ParticipantID: uuid.New(),
			ItemID:        42,
			Decision:      model.Like,
			Signature:     "18|||0||popularity.desc",
			At:            time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func (s *ReactionInfraUnitSuite) TestUpsert(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		execErr     error
		expectedErr error
	}{
		{name: "Should upsert the reaction"},
		{
			name:        "Should map the item foreign key to ErrItemNotFound",
			execErr:     &pq.Error{Code: "23503", Constraint: itemConstraint},
			expectedErr: usecase_session.ErrItemNotFound,
		},
		{
			name:        "Should map the session foreign key to ErrSessionNotFound",
			execErr:     &pq.Error{Code: "23503", Constraint: sessionConstraint},
			expectedErr: usecase_session.ErrSessionNotFound,
		},
		{
			name:        "Should map the participant foreign key to ErrNotMember",
			execErr:     &pq.Error{Code: "23503", Constraint: participantConstraint},
			expectedErr: usecase_session.ErrNotMember,
		},
		{
			name:        "Should pass other errors through",
			execErr:     sql.ErrConnDone,
			expectedErr: sql.ErrConnDone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			r := initResources(t)

			exec := r.mock.ExpectExec("INSERT INTO reactions").
				WithArgs(r.reaction.SessionID, r.reaction.ParticipantID, r.reaction.ItemID, "like", r.reaction.Signature, r.reaction.At)
			if tc.execErr != nil {
				exec.WillReturnError(tc.execErr)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := r.driver.Upsert(r.ctx, r.reaction)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, r.mock.ExpectationsWereMet())
		})
	}
}

func (s *ReactionInfraUnitSuite) TestDelete(t provider.T) {
	t.Parallel()

	t.Run("Should delete one ledger row", func(t provider.T) {
		r := initResources(t)

		r.mock.ExpectExec("DELETE FROM reactions").
			WithArgs(r.reaction.SessionID, r.reaction.ParticipantID, r.reaction.ItemID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := r.driver.Delete(r.ctx, r.reaction.SessionID, r.reaction.ParticipantID, r.reaction.ItemID)

		assert.NoError(t, err)
		assert.NoError(t, r.mock.ExpectationsWereMet())
	})
}

func (s *ReactionInfraUnitSuite) TestLatest(t provider.T) {
	t.Parallel()

	t.Run("Should return the most recent reaction", func(t provider.T) {
		r := initResources(t)
		rx := r.reaction

		r.mock.ExpectQuery("SELECT session_id, participant_id, item_id, decision, signature, reacted_at FROM reactions").
			WithArgs(rx.SessionID, rx.ParticipantID).
			WillReturnRows(sqlmock.NewRows([]string{"session_id", "participant_id", "item_id", "decision", "signature", "reacted_at"}).
				AddRow(rx.SessionID.String(), rx.ParticipantID.String(), rx.ItemID, "like", rx.Signature, rx.At))

		got, ok, err := r.driver.Latest(r.ctx, rx.SessionID, rx.ParticipantID)

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, rx, got)
	})

	t.Run("Should report an empty ledger", func(t provider.T) {
		r := initResources(t)

		r.mock.ExpectQuery("SELECT session_id, participant_id").WillReturnError(sql.ErrNoRows)

		_, ok, err := r.driver.Latest(r.ctx, uuid.New(), uuid.New())

		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func (s *ReactionInfraUnitSuite) TestLikers(t provider.T) {
	t.Parallel()

	t.Run("Should list liking participants", func(t provider.T) {
		r := initResources(t)
		alice, bob := uuid.New(), uuid.New()

		r.mock.ExpectQuery("SELECT participant_id FROM reactions").
			WithArgs(r.reaction.SessionID, r.reaction.ItemID).
			WillReturnRows(sqlmock.NewRows([]string{"participant_id"}).
				AddRow(alice.String()).
				AddRow(bob.String()))

		likers, err := r.driver.Likers(r.ctx, r.reaction.SessionID, r.reaction.ItemID)

		assert.NoError(t, err)
		assert.Equal(t, []uuid.UUID{alice, bob}, likers)
	})
}

func TestReactionInfraUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(ReactionInfraUnitSuite))
}
