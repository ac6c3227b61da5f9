package wire

import "github.com/roach88/pulsekit/internal/ir"

// Job types.
const (
	TypePulse   = "PULSE"
	TypeCircuit = "QASM"
)

// Header identifies the backend a job is built for.
type Header struct {
	BackendName string `json:"backend_name,omitempty"`
}

// PulseJob is a lowered pulse program.
type PulseJob struct {
	QobjID        string            `json:"qobj_id"`
	Type          string            `json:"type"`
	SchemaVersion string            `json:"schema_version"`
	Header        Header            `json:"header"`
	Config        PulseConfig       `json:"config"`
	Experiments   []PulseExperiment `json:"experiments"`
}

// PulseLibraryItem is a named sample vector. Samples are [re, im] pairs.
type PulseLibraryItem struct {
	Name    string       `json:"name"`
	Samples [][2]float64 `json:"samples"`
}

// PulseConfig is the job-wide configuration.
type PulseConfig struct {
	Shots            int                `json:"shots"`
	MemorySlots      int                `json:"memory_slots"`
	MemorySlotSize   int                `json:"memory_slot_size,omitempty"`
	MeasLevel        int                `json:"meas_level"`
	MeasReturn       string             `json:"meas_return"`
	RepTime          float64            `json:"rep_time,omitempty"`
	NQubits          int                `json:"n_qubits,omitempty"`
	PulseLibrary     []PulseLibraryItem `json:"pulse_library"`
	QubitLOFreq      []float64          `json:"qubit_lo_freq"`
	MeasLOFreq       []float64          `json:"meas_lo_freq"`
	ParametricPulses []string           `json:"parametric_pulses"`
}

// PulseExperimentHeader names an experiment and its memory footprint.
type PulseExperimentHeader struct {
	MemorySlots int    `json:"memory_slots"`
	Name        string `json:"name"`
}

// PulseExperimentConfig carries per-experiment LO frequencies.
type PulseExperimentConfig struct {
	QubitLOFreq []float64 `json:"qubit_lo_freq,omitempty"`
	MeasLOFreq  []float64 `json:"meas_lo_freq,omitempty"`
}

// PulseExperiment is one lowered schedule.
type PulseExperiment struct {
	Header       PulseExperimentHeader  `json:"header"`
	Config       *PulseExperimentConfig `json:"config,omitempty"`
	Instructions []PulseInstruction     `json:"instructions"`
}

// PulseInstruction is one timed wire instruction. Which optional fields are
// set depends on Name.
type PulseInstruction struct {
	Name           string          `json:"name"`
	Ch             string          `json:"ch,omitempty"`
	T0             int64           `json:"t0"`
	Phase          *float64        `json:"phase,omitempty"`
	Frequency      *float64        `json:"frequency,omitempty"`
	Duration       *int64          `json:"duration,omitempty"`
	Qubits         []int           `json:"qubits,omitempty"`
	MemorySlot     []int           `json:"memory_slot,omitempty"`
	RegisterSlot   []int           `json:"register_slot,omitempty"`
	Kernels        []*ir.Processor `json:"kernels,omitempty"`
	Discriminators []*ir.Processor `json:"discriminators,omitempty"`
	Label          string          `json:"label,omitempty"`
	Type           string          `json:"type,omitempty"`
	PulseShape     string          `json:"pulse_shape,omitempty"`
	Parameters     map[string]any  `json:"parameters,omitempty"`
}

// Wire instruction names for frame and acquisition operations.
const (
	NameParametric     = "parametric_pulse"
	NameShiftPhase     = "fc"
	NameSetPhase       = "setp"
	NameSetFrequency   = "setf"
	NameShiftFrequency = "shiftf"
	NameAcquire        = "acquire"
	NameSnapshot       = "snapshot"
)
