package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/wire"
)

// createTestStore opens a fresh store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestPulseJob returns a small pulse job referencing the named
// library entries, each a two-sample vector.
func createTestPulseJob(id string, pulses ...string) *wire.PulseJob {
	phase := 0.5
	dur := int64(16)
	lib := make([]wire.PulseLibraryItem, len(pulses))
	insts := []wire.PulseInstruction{
		{Name: wire.NameShiftPhase, Ch: "d0", T0: 0, Phase: &phase},
	}
	for i, name := range pulses {
		lib[i] = wire.PulseLibraryItem{Name: name, Samples: [][2]float64{{0.1, 0}, {0, -0.25}}}
		insts = append(insts, wire.PulseInstruction{Name: name, Ch: "d0", T0: int64(2 * i)})
	}
	insts = append(insts, wire.PulseInstruction{
		Name: wire.NameAcquire, T0: 4, Duration: &dur,
		Qubits: []int{0}, MemorySlot: []int{0},
		Kernels: []*ir.Processor{{Name: "boxcar", Params: map[string]float64{"start": 0}}},
	})

	return &wire.PulseJob{
		QobjID:        id,
		Type:          wire.TypePulse,
		SchemaVersion: ir.QobjVersion,
		Header:        wire.Header{BackendName: "fake3q"},
		Config: wire.PulseConfig{
			Shots:            1024,
			MemorySlots:      1,
			MeasLevel:        2,
			MeasReturn:       "avg",
			PulseLibrary:     lib,
			QubitLOFreq:      []float64{5},
			MeasLOFreq:       []float64{6.5},
			ParametricPulses: []string{"gaussian"},
		},
		Experiments: []wire.PulseExperiment{{
			Header:       wire.PulseExperimentHeader{MemorySlots: 1, Name: "Experiment-0"},
			Instructions: insts,
		}},
	}
}

func createTestCircuitJob(id string) *wire.CircuitJob {
	return &wire.CircuitJob{
		QobjID:        id,
		Type:          wire.TypeCircuit,
		SchemaVersion: ir.QobjVersion,
		Config:        wire.CircuitConfig{Shots: 1024, NQubits: 1, MemorySlots: 1},
		Experiments: []wire.CircuitExperiment{{
			Header: wire.CircuitExperimentHeader{
				QubitLabels: []wire.BitLabel{{Register: "q", Index: 0}},
				NQubits:     1,
				QregSizes:   []wire.RegSize{{Register: "q", Size: 1}},
				ClbitLabels: []wire.BitLabel{{Register: "c", Index: 0}},
				MemorySlots: 1,
				CregSizes:   []wire.RegSize{{Register: "c", Size: 1}},
				Name:        "circuit-0",
			},
			Config: wire.CircuitExperimentConfig{NQubits: 1, MemorySlots: 1},
			Instructions: []wire.CircuitInstruction{
				{Name: "x", Qubits: []int{0}},
				{Name: "measure", Qubits: []int{0}, Memory: []int{0}},
			},
		}},
	}
}
