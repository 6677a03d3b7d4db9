package infra_postgres_session

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

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

type sessionDTO struct {
	ID        uuid.UUID    `db:"id"`
	Code      string       `db:"code"`
	CreatedAt time.Time    `db:"created_at"`
	ExpiresAt sql.NullTime `db:"expires_at"`
}

func (d sessionDTO) toModel() model.Session {
	s := model.Session{ID: d.ID, Code: d.Code, CreatedAt: d.CreatedAt}
	if d.ExpiresAt.Valid {
		expires := d.ExpiresAt.Time
		s.ExpiresAt = &expires
	}
	return s
}

type participantDTO struct {
	ID          uuid.UUID `db:"id"`
	DisplayName string    `db:"display_name"`
}

func (d *Driver) Create(ctx context.Context, s model.Session) error {
	dto := sessionDTO{ID: s.ID, Code: s.Code, CreatedAt: s.CreatedAt}
	if s.ExpiresAt != nil {
		dto.ExpiresAt = sql.NullTime{Time: *s.ExpiresAt, Valid: true}
	}

	query := `
		INSERT INTO sessions (id, code, created_at, expires_at)
		VALUES (:id, :code, :created_at, :expires_at)
	`

	if _, err := d.db.NamedExecContext(ctx, query, dto); err != nil {
		if infra_postgres.IsUniqueViolation(err) {
			return usecase_session.ErrCodeConflict
		}
		return err
	}
	return nil
}

func (d *Driver) ByCode(ctx context.Context, code string, now time.Time) (model.Session, error) {
	query := `
		SELECT id, code, created_at, expires_at
		FROM sessions
		WHERE code = upper($1) AND (expires_at IS NULL OR expires_at > $2)
	`
	return d.get(ctx, query, code, now)
}

func (d *Driver) ByID(ctx context.Context, id uuid.UUID, now time.Time) (model.Session, error) {
	query := `
		SELECT id, code, created_at, expires_at
		FROM sessions
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > $2)
	`
	return d.get(ctx, query, id, now)
}

func (d *Driver) get(ctx context.Context, query string, args ...any) (model.Session, error) {
	var dto sessionDTO
	if err := d.db.GetContext(ctx, &dto, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, usecase_session.ErrSessionNotFound
		}
		return model.Session{}, err
	}
	return dto.toModel(), nil
}

func (d *Driver) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return usecase_session.ErrSessionNotFound
	}
	return nil
}

func (d *Driver) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (d *Driver) UpsertParticipant(ctx context.Context, p model.Participant) error {
	query := `
		INSERT INTO participants (id, display_name)
		VALUES (:id, :display_name)
		ON CONFLICT (id)
		DO UPDATE SET display_name = EXCLUDED.display_name
	`
	_, err := d.db.NamedExecContext(ctx, query, participantDTO{ID: p.ID, DisplayName: p.DisplayName})
	return err
}

func (d *Driver) AddMember(ctx context.Context, sessionID, participantID uuid.UUID) error {
	query := `
		INSERT INTO session_members (session_id, participant_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id, participant_id) DO NOTHING
	`
	if _, err := d.db.ExecContext(ctx, query, sessionID, participantID); err != nil {
		if _, ok := infra_postgres.ForeignKeyViolation(err); ok {
			return usecase_session.ErrSessionNotFound
		}
		return err
	}
	return nil
}

func (d *Driver) IsMember(ctx context.Context, sessionID, participantID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM session_members
			WHERE session_id = $1 AND participant_id = $2
		)
	`
	var exists bool
	if err := d.db.GetContext(ctx, &exists, query, sessionID, participantID); err != nil {
		return false, err
	}
	return exists, nil
}

func (d *Driver) Members(ctx context.Context, sessionID uuid.UUID) ([]model.Participant, error) {
	query := `
		SELECT p.id, p.display_name
		FROM session_members m
		JOIN participants p ON p.id = m.participant_id
		WHERE m.session_id = $1
		ORDER BY m.joined_at, p.id
	`
	var rows []participantDTO
	if err := d.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, err
	}

	out := make([]model.Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Participant{ID: r.ID, DisplayName: r.DisplayName})
	}
	return out, nil
}
