package target

import (
	"fmt"
	"slices"

	"github.com/roach88/pulsekit/internal/ir"
)

// Validation error codes (E100-E119)
const (
	ErrQubitCount       = "E101" // n_qubits must be positive
	ErrSamplePeriod     = "E102" // dt must be positive
	ErrQubitLOLength    = "E103" // qubit_lo_freq length mismatch
	ErrMeasLOLength     = "E104" // meas_lo_freq length mismatch
	ErrMeasMapRange     = "E105" // meas_map qubit out of range
	ErrMeasMapOverlap   = "E106" // qubit in more than one meas_map group
	ErrUnknownShape     = "E107" // unsupported parametric shape
	ErrControlRange     = "E108" // control channel qubit out of range
	ErrDuplicateControl = "E109" // control channel index declared twice
	ErrCalibrationRange = "E110" // calibration qubit out of range
	ErrCalibrationChan  = "E111" // calibration touches a channel the target lacks
)

var knownShapes = []string{"constant", "drag", "gaussian", "gaussian_square"}

// ValidationError represents a target validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled target for internal consistency.
// Returns all errors found (does not fail-fast).
func Validate(c *Config) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if c.Qubits <= 0 {
		add(ErrQubitCount, "n_qubits", "must be positive, got %d", c.Qubits)
	}
	if c.SamplePeriod <= 0 {
		add(ErrSamplePeriod, "dt", "must be positive, got %g", c.SamplePeriod)
	}
	if len(c.QubitLO) > 0 && len(c.QubitLO) != c.Qubits {
		add(ErrQubitLOLength, "qubit_lo_freq", "has %d entries for %d qubits", len(c.QubitLO), c.Qubits)
	}
	if len(c.MeasLO) > 0 && len(c.MeasLO) != c.Qubits {
		add(ErrMeasLOLength, "meas_lo_freq", "has %d entries for %d qubits", len(c.MeasLO), c.Qubits)
	}

	seen := map[int]int{}
	for gi, group := range c.Groups {
		for _, q := range group {
			if q >= c.Qubits {
				add(ErrMeasMapRange, fmt.Sprintf("meas_map[%d]", gi), "qubit %d out of range", q)
				continue
			}
			if prev, dup := seen[q]; dup {
				add(ErrMeasMapOverlap, fmt.Sprintf("meas_map[%d]", gi), "qubit %d already in group %d", q, prev)
				continue
			}
			seen[q] = gi
		}
	}

	for _, shape := range c.Shapes {
		if !slices.Contains(knownShapes, shape) {
			add(ErrUnknownShape, "parametric_pulses", "unknown shape %q", shape)
		}
	}

	controls := map[int]bool{}
	for i, cd := range c.Controls {
		for _, q := range cd.Qubits {
			if q >= c.Qubits {
				add(ErrControlRange, fmt.Sprintf("control_channels[%d]", i), "qubit %d out of range", q)
			}
		}
		if controls[cd.Index] {
			add(ErrDuplicateControl, fmt.Sprintf("control_channels[%d]", i), "u%d declared twice", cd.Index)
		}
		controls[cd.Index] = true
	}

	for _, cal := range c.Calibrations {
		field := "calibrations." + calibrationKey(cal.Gate, cal.Qubits)
		for _, q := range cal.Qubits {
			if q >= c.Qubits {
				add(ErrCalibrationRange, field, "qubit %d out of range", q)
			}
		}
		s, ok := c.compiled[calibrationKey(cal.Gate, cal.Qubits)]
		if !ok {
			continue
		}
		for _, ch := range s.Channels() {
			if !c.hasChannel(ch, controls) {
				add(ErrCalibrationChan, field, "channel %s does not exist on this target", ch)
			}
		}
	}
	return errs
}

func (c *Config) hasChannel(ch ir.Channel, controls map[int]bool) bool {
	switch ch.Kind {
	case ir.DriveKind, ir.MeasureKind, ir.AcquireKind:
		return ch.Index < c.Qubits
	case ir.ControlKind:
		return controls[ch.Index]
	default:
		return true
	}
}
