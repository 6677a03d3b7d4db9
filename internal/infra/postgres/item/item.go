package infra_postgres_item

import (
	"context"
	"database/sql"
	"errors"

	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_session "github.com/humanbelnik/kinomatch/internal/usecase/session"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

type itemDTO struct {
	ID         int64         `db:"id"`
	ExternalID int64         `db:"external_id"`
	Title      string        `db:"title"`
	Year       int           `db:"year"`
	ImageURL   string        `db:"image_url"`
	Tags       pq.Int64Array `db:"tags"`
}

func (d itemDTO) toModel() model.CandidateItem {
	tags := make([]int, 0, len(d.Tags))
	for _, t := range d.Tags {
		tags = append(tags, int(t))
	}
	return model.CandidateItem{
		ItemID:     d.ID,
		ExternalID: d.ExternalID,
		Title:      d.Title,
		Year:       d.Year,
		ImageURL:   d.ImageURL,
		Tags:       tags,
	}
}

func tagsArray(tags []int) pq.Int64Array {
	out := make(pq.Int64Array, 0, len(tags))
	for _, t := range tags {
		out = append(out, int64(t))
	}
	return out
}

// Upsert keys items by external id so every lookup of the same movie
// resolves to one local id. Metadata is refreshed on conflict.
func (d *Driver) Upsert(ctx context.Context, item model.CandidateItem) (model.CandidateItem, error) {
	query := `
		INSERT INTO items (external_id, title, year, image_url, tags)
		VALUES ($1, $2, NULLIF($3, 0), $4, $5)
		ON CONFLICT (external_id)
		DO UPDATE SET
			title = EXCLUDED.title,
			year = COALESCE(EXCLUDED.year, items.year),
			image_url = EXCLUDED.image_url,
			tags = EXCLUDED.tags
		RETURNING id
	`
	var id int64
	if err := d.db.GetContext(ctx, &id, query,
		item.ExternalID,
		item.Title,
		item.Year,
		item.ImageURL,
		tagsArray(item.Tags),
	); err != nil {
		return model.CandidateItem{}, err
	}

	item.ItemID = id
	return item, nil
}

func (d *Driver) ByID(ctx context.Context, itemID int64) (model.CandidateItem, error) {
	query := `
		SELECT id, external_id, title, COALESCE(year, 0) AS year, image_url, tags
		FROM items
		WHERE id = $1
	`
	var dto itemDTO
	if err := d.db.GetContext(ctx, &dto, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CandidateItem{}, usecase_session.ErrItemNotFound
		}
		return model.CandidateItem{}, err
	}
	return dto.toModel(), nil
}
