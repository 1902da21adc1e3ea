package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
)

// sessionRegistry implements driven.SessionRegistry.
type sessionRegistry struct {
	store *Store
}

var _ driven.SessionRegistry = (*sessionRegistry)(nil)

// Record indexes the artifacts of each session. Known rows get the new quality score.
func (r *sessionRegistry) Record(ctx context.Context, sessions ...domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := recordArtifacts(ctx, tx, sessions); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session records: %w", err)
	}
	return nil
}

// Replace swaps every indexed session of slug and stores fingerprint, in one transaction.
func (r *sessionRegistry) Replace(ctx context.Context, slug, fingerprint string, sessions []domain.Session) error {
	slug = domain.Slug(slug)

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM session_artifacts WHERE destination = ?", slug); err != nil {
		return fmt.Errorf("clearing session artifacts for %s: %w", slug, err)
	}

	owned := make([]domain.Session, len(sessions))
	for i, s := range sessions {
		s.Destination = slug
		owned[i] = s
	}
	if err := recordArtifacts(ctx, tx, owned); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO registry_fingerprints (destination, fingerprint, synced_at)
		VALUES (?, ?, ?)
		ON CONFLICT(destination) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			synced_at = excluded.synced_at
	`, slug, fingerprint, time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("storing fingerprint for %s: %w", slug, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session records: %w", err)
	}
	return nil
}

// Fingerprint returns the fingerprint stored by the last Replace of slug.
func (r *sessionRegistry) Fingerprint(ctx context.Context, slug string) (string, error) {
	var fingerprint string
	err := r.store.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM registry_fingerprints WHERE destination = ?", domain.Slug(slug),
	).Scan(&fingerprint)
	if isNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying fingerprint: %w", err)
	}
	return fingerprint, nil
}

func recordArtifacts(ctx context.Context, tx *sql.Tx, sessions []domain.Session) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_artifacts
			(session_id, destination, data_type, session_path, created_at, quality_score, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, destination, data_type) DO UPDATE SET
			quality_score = excluded.quality_score,
			recorded_at = excluded.recorded_at
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().UnixNano()
	for _, s := range sessions {
		slug := domain.Slug(s.Destination)
		for _, t := range s.DataTypes {
			if _, err := stmt.ExecContext(ctx, s.ID, slug, string(t), s.Path,
				s.CreatedAt.UTC().UnixNano(), s.Quality(t), now); err != nil {
				return fmt.Errorf("recording %s/%s: %w", s.ID, t, err)
			}
		}
	}
	return nil
}

// List returns the indexed sessions for a destination slug, newest first.
func (r *sessionRegistry) List(ctx context.Context, slug string) ([]domain.Session, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT session_id, session_path, data_type, created_at, quality_score
		FROM session_artifacts
		WHERE destination = ?
		ORDER BY created_at DESC, session_id DESC, data_type
	`, domain.Slug(slug))
	if err != nil {
		return nil, fmt.Errorf("querying session artifacts: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	index := make(map[string]int)
	for rows.Next() {
		var id, path, dataType string
		var createdAt int64
		var quality float64
		if err := rows.Scan(&id, &path, &dataType, &createdAt, &quality); err != nil {
			return nil, fmt.Errorf("scanning session artifact: %w", err)
		}

		i, ok := index[id]
		if !ok {
			i = len(sessions)
			index[id] = i
			sessions = append(sessions, domain.Session{
				ID:            id,
				Path:          path,
				Destination:   domain.Slug(slug),
				CreatedAt:     unixNano(createdAt),
				QualityScores: make(map[domain.DataType]float64),
			})
		}

		t := domain.DataType(dataType)
		sessions[i].DataTypes = append(sessions[i].DataTypes, t)
		if t != domain.DataTypeImages {
			sessions[i].QualityScores[t] = quality
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session artifacts: %w", err)
	}

	domain.SortSessionsNewestFirst(sessions)
	return sessions, nil
}

// Destinations returns every indexed destination slug.
func (r *sessionRegistry) Destinations(ctx context.Context) ([]string, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT DISTINCT destination FROM session_artifacts ORDER BY destination")
	if err != nil {
		return nil, fmt.Errorf("querying destinations: %w", err)
	}
	defer rows.Close()

	destinations := make([]string, 0)
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scanning destination: %w", err)
		}
		destinations = append(destinations, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating destinations: %w", err)
	}
	return destinations, nil
}
