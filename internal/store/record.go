package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/wire"
)

// Record is one archived job.
//
// Payload is the job's wire JSON. For pulse jobs the pulse library is
// stored separately and Payload carries an empty one; ReadPulseJob puts it
// back.
type Record struct {
	ID          string
	Kind        string
	Backend     string
	ContentHash string
	Experiments int
	Payload     json.RawMessage
	Seq         int64

	// Pulses is the job's pulse library in wire order. It is only
	// populated on records built for writing.
	Pulses []wire.PulseLibraryItem
}

// NewPulseRecord prepares job for WriteJob.
func NewPulseRecord(job *wire.PulseJob) (Record, error) {
	stripped := *job
	stripped.Config.PulseLibrary = []wire.PulseLibraryItem{}

	payload, err := json.Marshal(stripped)
	if err != nil {
		return Record{}, fmt.Errorf("marshal pulse job: %w", err)
	}
	full, err := json.Marshal(job)
	if err != nil {
		return Record{}, fmt.Errorf("marshal pulse job: %w", err)
	}
	hash, err := jobHash(full)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:          job.QobjID,
		Kind:        wire.TypePulse,
		Backend:     job.Header.BackendName,
		ContentHash: hash,
		Experiments: len(job.Experiments),
		Payload:     payload,
		Pulses:      job.Config.PulseLibrary,
	}, nil
}

// NewCircuitRecord prepares job for WriteJob.
func NewCircuitRecord(job *wire.CircuitJob) (Record, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return Record{}, fmt.Errorf("marshal circuit job: %w", err)
	}
	hash, err := jobHash(payload)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:          job.QobjID,
		Kind:        wire.TypeCircuit,
		Backend:     job.Header.BackendName,
		ContentHash: hash,
		Experiments: len(job.Experiments),
		Payload:     payload,
	}, nil
}

// jobHash hashes a job's wire JSON without its id, so relowering the same
// program yields the same hash.
func jobHash(data []byte) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("job hash: %w", err)
	}
	delete(doc, "qobj_id")
	stripped, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("job hash: %w", err)
	}
	return ir.HashJSON(ir.DomainJob, stripped)
}

// samplesJSON renders pairs as canonical JSON.
func samplesJSON(pairs [][2]float64) (string, error) {
	arr := make([]any, len(pairs))
	for i, p := range pairs {
		arr[i] = []any{p[0], p[1]}
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal samples: %w", err)
	}
	return string(data), nil
}
