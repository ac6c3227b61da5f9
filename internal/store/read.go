package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/pulsekit/internal/wire"
)

const jobColumns = `id, kind, backend, content_hash, experiments, payload, seq`

// ReadJob returns the archived record for id.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadJob(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("read job %s: %w", id, err)
	}
	return rec, nil
}

// ReadPulseJob returns the pulse job archived under id with its pulse
// library restored.
func (s *Store) ReadPulseJob(ctx context.Context, id string) (*wire.PulseJob, error) {
	rec, err := s.ReadJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Kind != wire.TypePulse {
		return nil, fmt.Errorf("read pulse job %s: job is %s", id, rec.Kind)
	}
	var job wire.PulseJob
	if err := json.Unmarshal(rec.Payload, &job); err != nil {
		return nil, fmt.Errorf("read pulse job %s: %w", id, err)
	}
	lib, err := s.jobPulses(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Config.PulseLibrary = lib
	return &job, nil
}

// ReadCircuitJob returns the circuit job archived under id.
func (s *Store) ReadCircuitJob(ctx context.Context, id string) (*wire.CircuitJob, error) {
	rec, err := s.ReadJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Kind != wire.TypeCircuit {
		return nil, fmt.Errorf("read circuit job %s: job is %s", id, rec.Kind)
	}
	var job wire.CircuitJob
	if err := json.Unmarshal(rec.Payload, &job); err != nil {
		return nil, fmt.Errorf("read circuit job %s: %w", id, err)
	}
	return &job, nil
}

// ListJobs returns every archived job in insertion order.
// Returns an empty slice (not nil) if the archive is empty.
func (s *Store) ListJobs(ctx context.Context) ([]Record, error) {
	return s.queryRecords(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY seq ASC, id COLLATE BINARY ASC`)
}

// FindByContentHash returns the jobs whose content matches hash, oldest
// first.
func (s *Store) FindByContentHash(ctx context.Context, hash string) ([]Record, error) {
	return s.queryRecords(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE content_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, hash)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return records, nil
}

// PulseEntry summarizes one pulse library entry.
type PulseEntry struct {
	Name   string
	Length int
	Jobs   int
}

// ListPulses returns every library entry with the number of jobs that
// reference it, ordered by name.
func (s *Store) ListPulses(ctx context.Context) ([]PulseEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, p.length, COUNT(jp.job_id)
		FROM pulse_library p
		LEFT JOIN job_pulses jp ON jp.pulse_name = p.name
		GROUP BY p.name, p.length
		ORDER BY p.name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query pulse library: %w", err)
	}
	defer rows.Close()

	entries := []PulseEntry{}
	for rows.Next() {
		var e PulseEntry
		if err := rows.Scan(&e.Name, &e.Length, &e.Jobs); err != nil {
			return nil, fmt.Errorf("scan pulse entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pulse library: %w", err)
	}
	return entries, nil
}

// ReadPulse returns one library entry.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadPulse(ctx context.Context, name string) (wire.PulseLibraryItem, error) {
	var samples string
	err := s.db.QueryRowContext(ctx, `SELECT samples FROM pulse_library WHERE name = ?`, name).Scan(&samples)
	if err != nil {
		return wire.PulseLibraryItem{}, fmt.Errorf("read pulse %s: %w", name, err)
	}
	item := wire.PulseLibraryItem{Name: name}
	if err := json.Unmarshal([]byte(samples), &item.Samples); err != nil {
		return wire.PulseLibraryItem{}, fmt.Errorf("read pulse %s: %w", name, err)
	}
	return item, nil
}

// jobPulses returns a job's library entries in their original order.
func (s *Store) jobPulses(ctx context.Context, id string) ([]wire.PulseLibraryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, p.samples
		FROM job_pulses jp
		JOIN pulse_library p ON p.name = jp.pulse_name
		WHERE jp.job_id = ?
		ORDER BY jp.position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query job pulses: %w", err)
	}
	defer rows.Close()

	lib := []wire.PulseLibraryItem{}
	for rows.Next() {
		var (
			item    wire.PulseLibraryItem
			samples string
		)
		if err := rows.Scan(&item.Name, &samples); err != nil {
			return nil, fmt.Errorf("scan job pulse: %w", err)
		}
		if err := json.Unmarshal([]byte(samples), &item.Samples); err != nil {
			return nil, fmt.Errorf("decode pulse %s: %w", item.Name, err)
		}
		lib = append(lib, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job pulses: %w", err)
	}
	return lib, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec     Record
		payload string
	)
	if err := row.Scan(&rec.ID, &rec.Kind, &rec.Backend, &rec.ContentHash, &rec.Experiments, &payload, &rec.Seq); err != nil {
		return Record{}, err
	}
	rec.Payload = json.RawMessage(payload)
	return rec, nil
}
