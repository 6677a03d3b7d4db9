package infra_postgres_match

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/kinomatch/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

type matchDTO struct {
	SessionID   uuid.UUID     `db:"session_id"`
	AnnouncedAt time.Time     `db:"announced_at"`
	ItemID      int64         `db:"item_id"`
	ExternalID  int64         `db:"external_id"`
	Title       string        `db:"title"`
	Year        int           `db:"year"`
	ImageURL    string        `db:"image_url"`
	Tags        pq.Int64Array `db:"tags"`
}

// MarkAnnounced reports true only for the call that inserted the row.
func (d *Driver) MarkAnnounced(ctx context.Context, sessionID uuid.UUID, itemID int64, at time.Time) (bool, error) {
	query := `
		INSERT INTO announcements (session_id, item_id, announced_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, item_id) DO NOTHING
	`
	res, err := d.db.ExecContext(ctx, query, sessionID, itemID, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d *Driver) Matches(ctx context.Context, sessionID uuid.UUID) ([]model.Match, error) {
	query := `
		SELECT a.session_id, a.announced_at,
			i.id AS item_id, i.external_id, i.title, COALESCE(i.year, 0) AS year, i.image_url, i.tags
		FROM announcements a
		JOIN items i ON i.id = a.item_id
		WHERE a.session_id = $1
		ORDER BY i.title
	`
	var dtos []matchDTO
	if err := d.db.SelectContext(ctx, &dtos, query, sessionID); err != nil {
		return nil, err
	}

	matches := make([]model.Match, 0, len(dtos))
	for _, dto := range dtos {
		tags := make([]int, 0, len(dto.Tags))
		for _, t := range dto.Tags {
			tags = append(tags, int(t))
		}
		matches = append(matches, model.Match{
			SessionID:   dto.SessionID,
			AnnouncedAt: dto.AnnouncedAt,
			Item: model.CandidateItem{
				ItemID:     dto.ItemID,
				ExternalID: dto.ExternalID,
				Title:      dto.Title,
				Year:       dto.Year,
				ImageURL:   dto.ImageURL,
				Tags:       tags,
			},
		})
	}
	return matches, nil
}
