package usecase_match

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	announcement_mocks "github.com/humanbelnik/kinomatch/internal/usecase/match/mocks/match/announcement"
	likers_mocks "github.com/humanbelnik/kinomatch/internal/usecase/match/mocks/match/likers"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type UsecaseMatchUnitSuite struct {
	suite.Suite

	detector *Detector

	likers        *likers_mocks.Likers
	announcements *announcement_mocks.AnnouncementRepository

	ctx       context.Context
	sessionID uuid.UUID
	at        time.Time
}

const itemID int64 = 42

func (s *UsecaseMatchUnitSuite) BeforeEach(t provider.T) {
	s.likers = likers_mocks.NewLikers(t)
	s.announcements = announcement_mocks.NewAnnouncementRepository(t)
	s.detector = New(s.likers, s.announcements)
	s.ctx = context.Background()
	s.sessionID = uuid.New()
	s.at = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *UsecaseMatchUnitSuite) TestEvaluate(t provider.T) {
	t.Run("Should not announce a single liker", func(t provider.T) {
		s.likers.On("Likers", s.ctx, s.sessionID, itemID).Return([]uuid.UUID{uuid.New()}, nil).Once()

		_, matched, err := s.detector.Evaluate(s.ctx, s.sessionID, itemID, s.at)

		assert.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("Should announce when the second distinct liker arrives", func(t provider.T) {
		s.likers.On("Likers", s.ctx, s.sessionID, itemID).Return([]uuid.UUID{uuid.New(), uuid.New()}, nil).Once()
		s.announcements.On("MarkAnnounced", s.ctx, s.sessionID, itemID, s.at).Return(true, nil).Once()

		match, matched, err := s.detector.Evaluate(s.ctx, s.sessionID, itemID, s.at)

		assert.NoError(t, err)
		assert.True(t, matched)
		assert.Equal(t, s.sessionID, match.SessionID)
		assert.Equal(t, itemID, match.Item.ItemID)
		assert.Equal(t, s.at, match.AnnouncedAt)
	})

	t.Run("Should stay silent when already announced", func(t provider.T) {
		s.likers.On("Likers", s.ctx, s.sessionID, itemID).Return([]uuid.UUID{uuid.New(), uuid.New(), uuid.New()}, nil).Once()
		s.announcements.On("MarkAnnounced", s.ctx, s.sessionID, itemID, s.at).Return(false, nil).Once()

		_, matched, err := s.detector.Evaluate(s.ctx, s.sessionID, itemID, s.at)

		assert.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("Should count duplicate liker ids once", func(t provider.T) {
		same := uuid.New()
		s.likers.On("Likers", s.ctx, s.sessionID, itemID).Return([]uuid.UUID{same, same}, nil).Once()

		_, matched, err := s.detector.Evaluate(s.ctx, s.sessionID, itemID, s.at)

		assert.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("Should wrap ledger errors", func(t provider.T) {
		repoErr := errors.New("connection reset")
		s.likers.On("Likers", s.ctx, s.sessionID, itemID).Return(nil, repoErr).Once()

		_, matched, err := s.detector.Evaluate(s.ctx, s.sessionID, itemID, s.at)

		assert.ErrorIs(t, err, ErrInternal)
		assert.ErrorIs(t, err, repoErr)
		assert.False(t, matched)
	})

	t.Run("Should wrap announcement errors", func(t provider.T) {
		repoErr := errors.New("deadlock detected")
		s.likers.On("Likers", s.ctx, s.sessionID, itemID).Return([]uuid.UUID{uuid.New(), uuid.New()}, nil).Once()
		s.announcements.On("MarkAnnounced", s.ctx, s.sessionID, itemID, s.at).Return(false, repoErr).Once()

		_, matched, err := s.detector.Evaluate(s.ctx, s.sessionID, itemID, s.at)

		assert.ErrorIs(t, err, ErrInternal)
		assert.False(t, matched)
	})
}

func (s *UsecaseMatchUnitSuite) TestQuorum(t provider.T) {
	t.Run("Should honour a larger quorum", func(t provider.T) {
		detector := New(s.likers, s.announcements, WithQuorum(3))
		s.likers.On("Likers", s.ctx, s.sessionID, itemID).Return([]uuid.UUID{uuid.New(), uuid.New()}, nil).Once()

		_, matched, err := detector.Evaluate(s.ctx, s.sessionID, itemID, s.at)

		assert.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("Should ignore a quorum below two", func(t provider.T) {
		detector := New(s.likers, s.announcements, WithQuorum(1))

		assert.Equal(t, DefaultQuorum, detector.quorum)
	})
}

func TestUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(UsecaseMatchUnitSuite))
}
