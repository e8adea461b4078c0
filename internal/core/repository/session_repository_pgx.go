package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/poker-service/internal/core/domain"
)

const sessionColumns = `id, user_id, buy_in, buy_ins, cash_out, tip, start_time, end_time, duration,
	elapsed_seconds, is_running, resumed_at, game_type, stakes, setting, session_type,
	session_name, notes, photos, is_active, created_at, updated_at`

// PgxSessionRepository implements domain.SessionRepository using pgxpool.
type PgxSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PgxSessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PgxSessionRepository {
	return &PgxSessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		s                    domain.Session
		gameType, stakes     string
		setting, sessionType string
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.BuyIn, &s.BuyIns, &s.CashOut, &s.Tip, &s.StartTime, &s.EndTime, &s.Duration,
		&s.ElapsedSeconds, &s.IsRunning, &s.ResumedAt, &gameType, &stakes, &setting, &sessionType,
		&s.SessionName, &s.Notes, &s.Photos, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.GameType = gameTypeFromColumn(gameType)
	s.Stakes = stakesFromColumn(stakes)
	s.Setting = domain.Setting(setting)
	s.SessionType = domain.SessionType(sessionType)
	return &s, nil
}

// Create inserts a new session.
func (r *PgxSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO poker_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.UserID, s.BuyIn, nonNilBuyIns(s.BuyIns), s.CashOut, s.Tip, s.StartTime, s.EndTime, s.Duration,
		s.ElapsedSeconds, s.IsRunning, s.ResumedAt, s.GameType.String(), s.Stakes.String(), string(s.Setting), string(s.SessionType),
		s.SessionName, s.Notes, nonNilStrings(s.Photos), s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// GetByID returns the session with the given id.
// Returns (nil, nil) when no session is found.
func (r *PgxSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + sessionColumns + ` FROM poker_sessions WHERE id = $1`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListByUser returns the sessions owned by userID, newest start first.
func (r *PgxSessionRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]domain.Session, error) {
	if !isUUID(userID) {
		return []domain.Session{}, nil
	}
	query := `SELECT ` + sessionColumns + ` FROM poker_sessions WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY start_time DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Update overwrites every mutable column of the stored session.
func (r *PgxSessionRepository) Update(ctx context.Context, s *domain.Session) error {
	if !isUUID(s.ID) {
		return domain.ErrNotFound
	}
	query := `UPDATE poker_sessions SET
		buy_in = $2, buy_ins = $3, cash_out = $4, tip = $5, start_time = $6, end_time = $7,
		duration = $8, elapsed_seconds = $9, is_running = $10, resumed_at = $11,
		game_type = $12, stakes = $13, setting = $14, session_type = $15,
		session_name = $16, notes = $17, photos = $18, is_active = $19, updated_at = $20
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		s.ID, s.BuyIn, nonNilBuyIns(s.BuyIns), s.CashOut, s.Tip, s.StartTime, s.EndTime,
		s.Duration, s.ElapsedSeconds, s.IsRunning, s.ResumedAt,
		s.GameType.String(), s.Stakes.String(), string(s.Setting), string(s.SessionType),
		s.SessionName, s.Notes, nonNilStrings(s.Photos), s.IsActive, s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the session.
func (r *PgxSessionRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM poker_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
