package infra_postgres_cursor

import (
	"context"
	"database/sql"
	"errors"

	"github.com/humanbelnik/kinomatch/internal/model"
	"github.com/jmoiron/sqlx"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

func (d *Driver) Load(ctx context.Context, key model.CursorKey) (int, error) {
	query := `
		SELECT idx
		FROM cursors
		WHERE session_id = $1 AND participant_id = $2 AND signature = $3
	`
	var index int
	if err := d.db.GetContext(ctx, &index, query, key.SessionID, key.ParticipantID, key.Signature); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return index, nil
}

// Advance is a single statement so concurrent steps of the same cursor
// never lose an update.
func (d *Driver) Advance(ctx context.Context, key model.CursorKey, delta int) (int, error) {
	query := `
		INSERT INTO cursors (session_id, participant_id, signature, idx)
		VALUES ($1, $2, $3, GREATEST($4::int, 0))
		ON CONFLICT (session_id, participant_id, signature)
		DO UPDATE SET idx = GREATEST(cursors.idx + $4::int, 0), updated_at = now()
		RETURNING idx
	`
	var index int
	if err := d.db.GetContext(ctx, &index, query, key.SessionID, key.ParticipantID, key.Signature, delta); err != nil {
		return 0, err
	}
	return index, nil
}
