package usecase_match

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/kinomatch/internal/model"
)

// DefaultQuorum is the number of distinct likers that makes a match.
const DefaultQuorum = 2

var (
	ErrInternal = errors.New("internal error")
)

//go:generate mockery --name=Likers --output=./mocks/match/likers --filename=likers.go
type Likers interface {
	Likers(ctx context.Context, sessionID uuid.UUID, itemID int64) ([]uuid.UUID, error)
}

//go:generate mockery --name=AnnouncementRepository --output=./mocks/match/announcement --filename=announcement.go
type AnnouncementRepository interface {
	// MarkAnnounced inserts the (session, item) announcement if absent and
	// reports whether this call created it.
	MarkAnnounced(ctx context.Context, sessionID uuid.UUID, itemID int64, at time.Time) (bool, error)
}

type Detector struct {
	likers        Likers
	announcements AnnouncementRepository
	quorum        int
	logger        *slog.Logger
}

type Option func(*Detector)

func WithQuorum(n int) Option {
	return func(d *Detector) {
		if n >= DefaultQuorum {
			d.quorum = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

func New(likers Likers, announcements AnnouncementRepository, opts ...Option) *Detector {
	d := &Detector{
		likers:        likers,
		announcements: announcements,
		quorum:        DefaultQuorum,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Evaluate re-reads the likers of a single item after a like was accepted.
// It returns true only for the caller that moved the item into the announced
// state; announcements are never withdrawn.
func (d *Detector) Evaluate(ctx context.Context, sessionID uuid.UUID, itemID int64, at time.Time) (model.Match, bool, error) {
	likers, err := d.likers.Likers(ctx, sessionID, itemID)
	if err != nil {
		return model.Match{}, false, errors.Join(ErrInternal, err)
	}

	if distinct(likers) < d.quorum {
		return model.Match{}, false, nil
	}

	created, err := d.announcements.MarkAnnounced(ctx, sessionID, itemID, at)
	if err != nil {
		return model.Match{}, false, errors.Join(ErrInternal, err)
	}
	if !created {
		return model.Match{}, false, nil
	}

	d.logger.Info("match announced",
		slog.String("session_id", sessionID.String()),
		slog.Int64("item_id", itemID),
		slog.Int("likers", len(likers)))

	return model.Match{
		SessionID:   sessionID,
		Item:        model.CandidateItem{ItemID: itemID},
		AnnouncedAt: at,
	}, true, nil
}

func distinct(ids []uuid.UUID) int {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return len(set)
}
