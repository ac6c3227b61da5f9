package store

import (
	"context"
	"fmt"

	"github.com/roach88/pulsekit/internal/ir"
)

// WriteJob archives rec and the pulse library entries it references.
// Returns false without error when a job with the same id is already
// archived. Library entries are shared: an entry already stored by another
// job is linked, not rewritten.
func (s *Store) WriteJob(ctx context.Context, rec Record) (inserted bool, err error) {
	if rec.ID == "" {
		return false, ir.ValidationErrorf("write job: empty job id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write job: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM jobs`).Scan(&seq); err != nil {
		return false, fmt.Errorf("write job: next seq: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO jobs
		(id, kind, backend, content_hash, experiments, payload, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Kind,
		rec.Backend,
		rec.ContentHash,
		rec.Experiments,
		string(rec.Payload),
		seq,
	)
	if err != nil {
		return false, fmt.Errorf("write job: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write job: rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	for i, item := range rec.Pulses {
		samples, err := samplesJSON(item.Samples)
		if err != nil {
			return false, fmt.Errorf("write job: pulse %s: %w", item.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pulse_library (name, length, samples)
			VALUES (?, ?, ?)
			ON CONFLICT(name) DO NOTHING
		`, item.Name, len(item.Samples), samples); err != nil {
			return false, fmt.Errorf("write job: pulse %s: %w", item.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO job_pulses (job_id, pulse_name, position)
			VALUES (?, ?, ?)
		`, rec.ID, item.Name, i); err != nil {
			return false, fmt.Errorf("write job: link pulse %s: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write job: commit: %w", err)
	}
	return true, nil
}
