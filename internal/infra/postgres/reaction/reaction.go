package infra_postgres_reaction

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	infra_postgres "github.com/humanbelnik/kinomatch/internal/infra/postgres"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_session "github.com/humanbelnik/kinomatch/internal/usecase/session"
	"github.com/jmoiron/sqlx"
)

const (
	itemConstraint        = "reactions_item_id_fkey"
	sessionConstraint     = "reactions_session_id_fkey"
	participantConstraint = "reactions_participant_id_fkey"
)

// Driver is the reaction ledger. It also answers the likers query for
// match detection.
type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

type reactionDTO struct {
	SessionID     uuid.UUID `db:"session_id"`
	ParticipantID uuid.UUID `db:"participant_id"`
	ItemID        int64     `db:"item_id"`
	Decision      string    `db:"decision"`
	Signature     string    `db:"signature"`
	ReactedAt     time.Time `db:"reacted_at"`
}

func (d reactionDTO) toModel() model.Reaction {
	return model.Reaction{
		SessionID:     d.SessionID,
		ParticipantID: d.ParticipantID,
		ItemID:        d.ItemID,
		Decision:      model.Decision(d.Decision),
		Signature:     d.Signature,
		At:            d.ReactedAt,
	}
}

// Upsert keeps at most one row per (session, participant, item). An older
// write arriving late does not overwrite a newer one.
func (d *Driver) Upsert(ctx context.Context, r model.Reaction) error {
	query := `
		INSERT INTO reactions (session_id, participant_id, item_id, decision, signature, reacted_at)
		VALUES (:session_id, :participant_id, :item_id, :decision, :signature, :reacted_at)
		ON CONFLICT (session_id, participant_id, item_id)
		DO UPDATE SET decision = EXCLUDED.decision, signature = EXCLUDED.signature, reacted_at = EXCLUDED.reacted_at
		WHERE reactions.reacted_at <= EXCLUDED.reacted_at
	`
	dto := reactionDTO{
		SessionID:     r.SessionID,
		ParticipantID: r.ParticipantID,
		ItemID:        r.ItemID,
		Decision:      string(r.Decision),
		Signature:     r.Signature,
		ReactedAt:     r.At,
	}
	if _, err := d.db.NamedExecContext(ctx, query, dto); err != nil {
		if constraint, ok := infra_postgres.ForeignKeyViolation(err); ok {
			switch constraint {
			case itemConstraint:
				return usecase_session.ErrItemNotFound
			case participantConstraint:
				return usecase_session.ErrNotMember
			default:
				return usecase_session.ErrSessionNotFound
			}
		}
		return err
	}
	return nil
}

func (d *Driver) Delete(ctx context.Context, sessionID, participantID uuid.UUID, itemID int64) error {
	query := `
		DELETE FROM reactions
		WHERE session_id = $1 AND participant_id = $2 AND item_id = $3
	`
	_, err := d.db.ExecContext(ctx, query, sessionID, participantID, itemID)
	return err
}

func (d *Driver) Latest(ctx context.Context, sessionID, participantID uuid.UUID) (model.Reaction, bool, error) {
	query := `
		SELECT session_id, participant_id, item_id, decision, signature, reacted_at
		FROM reactions
		WHERE session_id = $1 AND participant_id = $2
		ORDER BY reacted_at DESC
		LIMIT 1
	`
	var dto reactionDTO
	if err := d.db.GetContext(ctx, &dto, query, sessionID, participantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reaction{}, false, nil
		}
		return model.Reaction{}, false, err
	}
	return dto.toModel(), true, nil
}

func (d *Driver) Likers(ctx context.Context, sessionID uuid.UUID, itemID int64) ([]uuid.UUID, error) {
	query := `
		SELECT participant_id
		FROM reactions
		WHERE session_id = $1 AND item_id = $2 AND decision = 'like'
		ORDER BY reacted_at
	`
	var ids []uuid.UUID
	if err := d.db.SelectContext(ctx, &ids, query, sessionID, itemID); err != nil {
		return nil, err
	}
	return ids, nil
}
