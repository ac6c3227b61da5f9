package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsekit/internal/ir"
)

func TestWriteReadPulseJob(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	job := createTestPulseJob("job-1", "pa", "pb")

	rec, err := NewPulseRecord(job)
	require.NoError(t, err)
	assert.Contains(t, string(rec.Payload), `"pulse_library":[]`)

	inserted, err := s.WriteJob(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	got, err := s.ReadPulseJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, job, got)

	stored, err := s.ReadJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "PULSE", stored.Kind)
	assert.Equal(t, "fake3q", stored.Backend)
	assert.Equal(t, 1, stored.Experiments)
	assert.Equal(t, int64(1), stored.Seq)
	assert.Equal(t, rec.ContentHash, stored.ContentHash)
}

func TestWriteJobIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec, err := NewPulseRecord(createTestPulseJob("job-1", "pa"))
	require.NoError(t, err)

	inserted, err := s.WriteJob(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.WriteJob(ctx, rec)
	require.NoError(t, err)
	assert.False(t, inserted)

	jobs, err := s.ListJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestWriteJobRejectsEmptyID(t *testing.T) {
	s := createTestStore(t)
	rec, err := NewCircuitRecord(createTestCircuitJob(""))
	require.NoError(t, err)

	_, err = s.WriteJob(context.Background(), rec)
	assert.True(t, ir.IsValidationError(err))
}

func TestContentHashIgnoresJobID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := NewPulseRecord(createTestPulseJob("job-a", "pa"))
	require.NoError(t, err)
	b, err := NewPulseRecord(createTestPulseJob("job-b", "pa"))
	require.NoError(t, err)
	c, err := NewPulseRecord(createTestPulseJob("job-c", "pc"))
	require.NoError(t, err)

	assert.Equal(t, a.ContentHash, b.ContentHash)
	assert.NotEqual(t, a.ContentHash, c.ContentHash)

	for _, rec := range []Record{a, b, c} {
		_, err := s.WriteJob(ctx, rec)
		require.NoError(t, err)
	}

	found, err := s.FindByContentHash(ctx, a.ContentHash)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "job-a", found[0].ID)
	assert.Equal(t, "job-b", found[1].ID)
}

func TestPulseLibraryIsShared(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, job := range []struct {
		id     string
		pulses []string
	}{
		{"job-1", []string{"pa", "pb"}},
		{"job-2", []string{"pb"}},
	} {
		rec, err := NewPulseRecord(createTestPulseJob(job.id, job.pulses...))
		require.NoError(t, err)
		_, err = s.WriteJob(ctx, rec)
		require.NoError(t, err)
	}

	entries, err := s.ListPulses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []PulseEntry{
		{Name: "pa", Length: 2, Jobs: 1},
		{Name: "pb", Length: 2, Jobs: 2},
	}, entries)

	item, err := s.ReadPulse(ctx, "pb")
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{0.1, 0}, {0, -0.25}}, item.Samples)

	second, err := s.ReadPulseJob(ctx, "job-2")
	require.NoError(t, err)
	require.Len(t, second.Config.PulseLibrary, 1)
	assert.Equal(t, "pb", second.Config.PulseLibrary[0].Name)
}

func TestWriteReadCircuitJob(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	job := createTestCircuitJob("circ-1")

	rec, err := NewCircuitRecord(job)
	require.NoError(t, err)
	_, err = s.WriteJob(ctx, rec)
	require.NoError(t, err)

	got, err := s.ReadCircuitJob(ctx, "circ-1")
	require.NoError(t, err)
	assert.Equal(t, job, got)

	_, err = s.ReadPulseJob(ctx, "circ-1")
	assert.Error(t, err)
}

func TestListJobsOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListJobs(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, id := range []string{"zz", "aa", "mm"} {
		rec, err := NewCircuitRecord(createTestCircuitJob(id))
		require.NoError(t, err)
		_, err = s.WriteJob(ctx, rec)
		require.NoError(t, err)
	}

	jobs, err := s.ListJobs(ctx)
	require.NoError(t, err)
	var ids []string
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{"zz", "aa", "mm"}, ids)
	assert.Equal(t, int64(3), jobs[2].Seq)
}

func TestReadMissing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.ReadJob(ctx, "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	_, err = s.ReadPulse(ctx, "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
