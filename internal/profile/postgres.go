// internal/profile/postgres.go
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"sahayak-workers/internal/common/database"
	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/models"
)

// Profile attributes live as one JSONB document; interaction history has
// its own table so the (citizen, opportunity, action) primary key makes
// appends idempotent at the database level.
const profileSchemaDDL = `
CREATE TABLE IF NOT EXISTS citizen_profiles (
	citizen_id TEXT PRIMARY KEY,
	profile    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS citizen_history (
	citizen_id     TEXT NOT NULL,
	opportunity_id TEXT NOT NULL,
	action         TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (citizen_id, opportunity_id, action)
);`

const (
	selectProfileQuery   = `SELECT profile FROM citizen_profiles WHERE citizen_id = $1`
	selectForUpdateQuery = `SELECT profile FROM citizen_profiles WHERE citizen_id = $1 FOR UPDATE`
	insertProfileQuery   = `INSERT INTO citizen_profiles (citizen_id, profile, updated_at) VALUES ($1, $2, $3) ON CONFLICT (citizen_id) DO NOTHING`
	updateProfileQuery   = `UPDATE citizen_profiles SET profile = $2, updated_at = $3 WHERE citizen_id = $1`
	selectHistoryQuery   = `SELECT opportunity_id, action FROM citizen_history WHERE citizen_id = $1 ORDER BY created_at, opportunity_id`
	citizenExistsQuery   = `SELECT EXISTS(SELECT 1 FROM citizen_profiles WHERE citizen_id = $1)`
	insertHistoryQuery   = `INSERT INTO citizen_history (citizen_id, opportunity_id, action, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`
)

// PostgresStore persists profiles in PostgreSQL. Row locks inside a
// transaction serialize updates per citizen.
type PostgresStore struct {
	client *database.PostgresClient
	logger logger.Logger
}

func NewPostgresStore(client *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{client: client, logger: log}
}

// EnsureSchema creates the profile tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.Exec(ctx, profileSchemaDDL); err != nil {
		return fmt.Errorf("failed to ensure profile schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, citizenID string) (*models.Profile, error) {
	var raw []byte
	err := s.client.QueryRow(ctx, selectProfileQuery, citizenID).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewProfileNotFoundError(citizenID)
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}

	p, err := decodeProfile(raw)
	if err != nil {
		return nil, err
	}
	if err := s.loadHistory(ctx, s.client.DB, citizenID, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Profile) error {
	raw, err := encodeProfile(p)
	if err != nil {
		return err
	}
	res, err := s.client.Exec(ctx, insertProfileQuery, p.CitizenID, raw, p.UpdatedAt)
	if err != nil {
		return mapPostgresError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapPostgresError(err)
	}
	if affected == 0 {
		return apperrors.NewValidationError("citizenId", "profile already exists")
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, citizenID string, mutate func(*models.Profile) error) (*models.Profile, error) {
	tx, err := s.client.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer tx.Rollback()

	var raw []byte
	err = tx.QueryRowContext(ctx, selectForUpdateQuery, citizenID).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewProfileNotFoundError(citizenID)
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}

	p, err := decodeProfile(raw)
	if err != nil {
		return nil, err
	}
	if err := s.loadHistory(ctx, tx, citizenID, p); err != nil {
		return nil, err
	}

	if err := mutate(p); err != nil {
		return nil, err
	}

	next, err := encodeProfile(p)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, updateProfileQuery, citizenID, next, p.UpdatedAt); err != nil {
		return nil, mapPostgresError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapPostgresError(err)
	}
	return p, nil
}

func (s *PostgresStore) AppendHistory(ctx context.Context, citizenID, opportunityID string, action models.HistoryAction) (bool, error) {
	var exists bool
	if err := s.client.QueryRow(ctx, citizenExistsQuery, citizenID).Scan(&exists); err != nil {
		return false, mapPostgresError(err)
	}
	if !exists {
		return false, apperrors.NewProfileNotFoundError(citizenID)
	}

	res, err := s.client.Exec(ctx, insertHistoryQuery, citizenID, opportunityID, string(action), time.Now().UTC())
	if err != nil {
		return false, mapPostgresError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, mapPostgresError(err)
	}
	return affected > 0, nil
}

type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// loadHistory hydrates the history lists from the citizen_history table.
// The JSONB document never stores them, so the table stays the single
// source of truth for interaction history.
func (s *PostgresStore) loadHistory(ctx context.Context, q rowQuerier, citizenID string, p *models.Profile) error {
	rows, err := q.QueryContext(ctx, selectHistoryQuery, citizenID)
	if err != nil {
		return mapPostgresError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var opportunityID, action string
		if err := rows.Scan(&opportunityID, &action); err != nil {
			return mapPostgresError(err)
		}
		p.AppendHistory(models.HistoryAction(action), opportunityID)
	}
	return rows.Err()
}

func encodeProfile(p *models.Profile) ([]byte, error) {
	// History lives in its own table, keep it out of the document.
	doc := p.Clone()
	doc.Viewed = nil
	doc.Saved = nil
	doc.Applied = nil

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile %s: %w", p.CitizenID, err)
	}
	return raw, nil
}

func decodeProfile(raw []byte) (*models.Profile, error) {
	var p models.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	return &p, nil
}

func mapPostgresError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewUpstreamTimeoutError("profile-store", err)
	}
	return apperrors.NewUpstreamUnavailableError("profile-store", err)
}
