package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"wheeltracker/database"
	"wheeltracker/models"
)

// queryable is satisfied by both the connection pool and a transaction
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SessionRepository stores sessions and their rounds in PostgreSQL
type SessionRepository struct {
	q  queryable
	db *database.DB // set when not running inside a unit of work
}

// NewSessionRepository creates a session repository on the connection pool.
// Each Save runs in its own transaction.
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{q: db.Pool, db: db}
}

// newSessionRepositoryWithTx creates a session repository bound to a transaction
func newSessionRepositoryWithTx(tx queryable) *SessionRepository {
	return &SessionRepository{q: tx}
}

// Save replaces the rounds of the named session, creating the session if needed
func (r *SessionRepository) Save(ctx context.Context, name string, records []models.RoundRecord) error {
	if name == "" {
		return fmt.Errorf("session name is required")
	}
	if r.db != nil {
		return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
			return saveSession(ctx, tx, name, records)
		})
	}
	return saveSession(ctx, r.q, name, records)
}

func saveSession(ctx context.Context, q queryable, name string, records []models.RoundRecord) error {
	var sessionID uuid.UUID
	err := q.QueryRow(ctx, `
		INSERT INTO sessions (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, uuid.New(), name).Scan(&sessionID)
	if err != nil {
		return fmt.Errorf("failed to upsert session %q: %w", name, err)
	}

	if _, err := q.Exec(ctx, `DELETE FROM round_records WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear rounds of session %q: %w", name, err)
	}

	for i, record := range records {
		stakesJSON, err := encodeStakes(record.Stakes)
		if err != nil {
			return fmt.Errorf("failed to encode stakes of round %d: %w", i+1, err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO round_records
			(session_id, position, played_at, winning_segment, extra_multiplier, stakes)
			VALUES ($1, $2, $3, $4, $5::text::numeric, $6)
		`,
			sessionID,
			i+1,
			record.Timestamp,
			string(record.WinningSegment),
			record.ExtraMultiplier.String(),
			stakesJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert round %d of session %q: %w", i+1, name, err)
		}
	}

	return nil
}

// Load returns the named session with its rounds in position order
func (r *SessionRepository) Load(ctx context.Context, name string) (*models.Session, error) {
	if r.db == nil {
		return loadSession(ctx, r.q, name)
	}

	var session *models.Session
	err := r.db.WithReadOnlyTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		session, err = loadSession(ctx, tx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func loadSession(ctx context.Context, q queryable, name string) (*models.Session, error) {
	session := &models.Session{}
	err := q.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM sessions
		WHERE name = $1
	`, name).Scan(&session.ID, &session.Name, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", models.ErrSessionNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %q: %w", name, err)
	}

	rows, err := q.Query(ctx, `
		SELECT played_at, winning_segment, extra_multiplier::text, stakes
		FROM round_records
		WHERE session_id = $1
		ORDER BY position
	`, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds of session %q: %w", name, err)
	}
	defer rows.Close()

	session.Records = []models.RoundRecord{}
	for rows.Next() {
		var (
			playedAt   time.Time
			segment    string
			multiplier string
			stakesJSON []byte
		)
		if err := rows.Scan(&playedAt, &segment, &multiplier, &stakesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}

		record, err := decodeRound(playedAt, segment, multiplier, stakesJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode round %d of session %q: %w", len(session.Records)+1, name, err)
		}
		session.Records = append(session.Records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}

	return session, nil
}

// List returns every session with its round count, ordered by name
func (r *SessionRepository) List(ctx context.Context) ([]models.SessionInfo, error) {
	rows, err := r.q.Query(ctx, `
		SELECT s.id, s.name, COUNT(rr.position), s.updated_at
		FROM sessions s
		LEFT JOIN round_records rr ON rr.session_id = s.id
		GROUP BY s.id, s.name, s.updated_at
		ORDER BY s.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	infos := []models.SessionInfo{}
	for rows.Next() {
		var info models.SessionInfo
		var count int64
		if err := rows.Scan(&info.ID, &info.Name, &count, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		info.RoundCount = int(count)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return infos, nil
}

// Delete removes the named session and its rounds
func (r *SessionRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM sessions WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete session %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", models.ErrSessionNotFound, name)
	}
	return nil
}

// DeleteAll removes every session
func (r *SessionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// encodeStakes stores amounts as strings so no precision is lost in JSONB
func encodeStakes(stakes models.Stakes) ([]byte, error) {
	out := make(map[string]string, len(stakes))
	for seg, amount := range stakes {
		out[string(seg)] = amount.String()
	}
	return json.Marshal(out)
}

func decodeRound(playedAt time.Time, segment, multiplier string, stakesJSON []byte) (models.RoundRecord, error) {
	extra, err := decimal.NewFromString(multiplier)
	if err != nil {
		return models.RoundRecord{}, fmt.Errorf("invalid extra multiplier %q: %w", multiplier, err)
	}

	raw := map[string]string{}
	if len(stakesJSON) > 0 {
		if err := json.Unmarshal(stakesJSON, &raw); err != nil {
			return models.RoundRecord{}, fmt.Errorf("invalid stakes: %w", err)
		}
	}

	stakes := make(models.Stakes, len(raw))
	for seg, value := range raw {
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return models.RoundRecord{}, fmt.Errorf("invalid stake on %s: %w", seg, err)
		}
		stakes[models.Segment(seg)] = amount
	}

	record := models.NewRoundRecord(playedAt, models.Segment(segment), stakes)
	record.ExtraMultiplier = extra
	return record, nil
}
