package infra_postgres_filter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	infra_postgres "github.com/humanbelnik/kinomatch/internal/infra/postgres"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_session "github.com/humanbelnik/kinomatch/internal/usecase/session"
	"github.com/jmoiron/sqlx"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

// SaveActive upserts the snapshot and points the session at it in one
// transaction. Concurrent writers resolve last-writer-wins.
func (d *Driver) SaveActive(ctx context.Context, sessionID uuid.UUID, spec model.FilterSpec, signature string) error {
	raw, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	snapshotQuery := `
		INSERT INTO filter_snapshots (session_id, signature, spec)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, signature)
		DO UPDATE SET spec = EXCLUDED.spec
	`
	if _, err := tx.ExecContext(ctx, snapshotQuery, sessionID, signature, raw); err != nil {
		return mapErr(err)
	}

	activeQuery := `
		INSERT INTO session_filters (session_id, signature, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id)
		DO UPDATE SET signature = EXCLUDED.signature, updated_at = now()
	`
	if _, err := tx.ExecContext(ctx, activeQuery, sessionID, signature); err != nil {
		return mapErr(err)
	}

	return tx.Commit()
}

func (d *Driver) Active(ctx context.Context, sessionID uuid.UUID) (model.FilterSpec, bool, error) {
	query := `
		SELECT s.spec
		FROM session_filters f
		JOIN filter_snapshots s ON s.session_id = f.session_id AND s.signature = f.signature
		WHERE f.session_id = $1
	`
	return d.get(ctx, query, sessionID)
}

func (d *Driver) BySignature(ctx context.Context, sessionID uuid.UUID, signature string) (model.FilterSpec, bool, error) {
	query := `
		SELECT spec
		FROM filter_snapshots
		WHERE session_id = $1 AND signature = $2
	`
	return d.get(ctx, query, sessionID, signature)
}

func (d *Driver) get(ctx context.Context, query string, args ...any) (model.FilterSpec, bool, error) {
	var raw []byte
	if err := d.db.GetContext(ctx, &raw, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.FilterSpec{}, false, nil
		}
		return model.FilterSpec{}, false, err
	}

	var spec model.FilterSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return model.FilterSpec{}, false, err
	}
	return spec.Normalize(), true, nil
}

func mapErr(err error) error {
	if _, ok := infra_postgres.ForeignKeyViolation(err); ok {
		return usecase_session.ErrSessionNotFound
	}
	return err
}
