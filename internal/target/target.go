// Package target describes the hardware a program is built for: qubit
// count, sample period, default LO frequencies, channel topology,
// must-acquire-together groups, supported parametric shapes and per-gate
// calibration schedules.
//
// Targets are declared in CUE and compiled with Compile or LoadDir.
package target

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
)

// Target is the capability provider consulted by the builder, the gate
// compiler and lowering.
type Target interface {
	Name() string
	NumQubits() int
	// Dt is the sample period in seconds.
	Dt() float64
	// QubitLOFreqs and MeasLOFreqs are the default LO frequencies in Hz.
	QubitLOFreqs() []float64
	MeasLOFreqs() []float64
	MeasMap() [][]int
	ParametricShapes() []string

	DriveChannel(qubit int) (ir.Channel, error)
	MeasureChannel(qubit int) (ir.Channel, error)
	AcquireChannel(qubit int) (ir.Channel, error)
	// ControlChannels returns the control channels that act on exactly the
	// ordered qubit tuple.
	ControlChannels(qubits ...int) ([]ir.Channel, error)
	// QubitChannels returns every channel that touches qubit.
	QubitChannels(qubit int) ([]ir.Channel, error)

	// Calibration returns the schedule implementing gate on qubits.
	Calibration(gate string, qubits ...int) (*schedule.Schedule, error)
}

// ControlDef binds a control channel index to the qubits it couples.
type ControlDef struct {
	Qubits []int `json:"qubits"`
	Index  int   `json:"index"`
}

// CalibrationDef is the declared form of one gate calibration.
type CalibrationDef struct {
	Gate         string           `json:"gate"`
	Qubits       []int            `json:"qubits"`
	Instructions []InstructionDef `json:"instructions"`
}

// Config is the compiled, in-memory Target.
type Config struct {
	TargetName   string
	Qubits       int
	SamplePeriod float64
	QubitLO      []float64
	MeasLO       []float64
	Groups       [][]int
	Shapes       []string
	Controls     []ControlDef
	Calibrations []CalibrationDef

	compiled map[string]*schedule.Schedule
}

var _ Target = (*Config)(nil)

func (c *Config) Name() string               { return c.TargetName }
func (c *Config) NumQubits() int             { return c.Qubits }
func (c *Config) Dt() float64                { return c.SamplePeriod }
func (c *Config) QubitLOFreqs() []float64    { return slices.Clone(c.QubitLO) }
func (c *Config) MeasLOFreqs() []float64     { return slices.Clone(c.MeasLO) }
func (c *Config) ParametricShapes() []string { return slices.Clone(c.Shapes) }

// MeasMap returns the must-acquire-together groups. A target that declares
// none treats every qubit as its own group.
func (c *Config) MeasMap() [][]int {
	if len(c.Groups) == 0 {
		out := make([][]int, c.Qubits)
		for q := range out {
			out[q] = []int{q}
		}
		return out
	}
	out := make([][]int, len(c.Groups))
	for i, g := range c.Groups {
		out[i] = slices.Clone(g)
	}
	return out
}

func (c *Config) checkQubit(q int) error {
	if q < 0 || q >= c.Qubits {
		return ir.ValidationErrorf("qubit %d out of range for %d-qubit target %q", q, c.Qubits, c.TargetName)
	}
	return nil
}

// DriveChannel implements Target.
func (c *Config) DriveChannel(q int) (ir.Channel, error) {
	if err := c.checkQubit(q); err != nil {
		return ir.Channel{}, err
	}
	return ir.DriveChannel(q), nil
}

// MeasureChannel implements Target.
func (c *Config) MeasureChannel(q int) (ir.Channel, error) {
	if err := c.checkQubit(q); err != nil {
		return ir.Channel{}, err
	}
	return ir.MeasureChannel(q), nil
}

// AcquireChannel implements Target.
func (c *Config) AcquireChannel(q int) (ir.Channel, error) {
	if err := c.checkQubit(q); err != nil {
		return ir.Channel{}, err
	}
	return ir.AcquireChannel(q), nil
}

// ControlChannels implements Target.
func (c *Config) ControlChannels(qubits ...int) ([]ir.Channel, error) {
	for _, q := range qubits {
		if err := c.checkQubit(q); err != nil {
			return nil, err
		}
	}
	var out []ir.Channel
	for _, cd := range c.Controls {
		if slices.Equal(cd.Qubits, qubits) {
			out = append(out, ir.ControlChannel(cd.Index))
		}
	}
	if len(out) == 0 {
		return nil, ir.ValidationErrorf("no control channel couples qubits %v on target %q", qubits, c.TargetName)
	}
	return out, nil
}

// QubitChannels implements Target.
func (c *Config) QubitChannels(q int) ([]ir.Channel, error) {
	if err := c.checkQubit(q); err != nil {
		return nil, err
	}
	out := []ir.Channel{ir.DriveChannel(q), ir.MeasureChannel(q), ir.AcquireChannel(q)}
	for _, cd := range c.Controls {
		if slices.Contains(cd.Qubits, q) {
			out = append(out, ir.ControlChannel(cd.Index))
		}
	}
	return ir.SortChannels(out), nil
}

// Calibration implements Target.
func (c *Config) Calibration(gate string, qubits ...int) (*schedule.Schedule, error) {
	if s, ok := c.compiled[calibrationKey(gate, qubits)]; ok {
		return s, nil
	}
	return nil, ir.ValidationErrorf("no calibration for %s on qubits %v", gate, qubits)
}

// HasCalibration reports whether gate is calibrated on qubits.
func (c *Config) HasCalibration(gate string, qubits ...int) bool {
	_, ok := c.compiled[calibrationKey(gate, qubits)]
	return ok
}

// compileCalibrations builds the schedule for every CalibrationDef.
func (c *Config) compileCalibrations() error {
	c.compiled = make(map[string]*schedule.Schedule, len(c.Calibrations))
	for _, cal := range c.Calibrations {
		key := calibrationKey(cal.Gate, cal.Qubits)
		if _, dup := c.compiled[key]; dup {
			return ir.ValidationErrorf("duplicate calibration %s", key)
		}
		s := schedule.New(key)
		for i, def := range cal.Instructions {
			in, err := def.Instruction()
			if err != nil {
				return fmt.Errorf("calibration %s instruction %d: %w", key, i, err)
			}
			if err := s.Insert(def.T0, schedule.Leaf(in)); err != nil {
				return fmt.Errorf("calibration %s instruction %d: %w", key, i, err)
			}
		}
		c.compiled[key] = s
	}
	return nil
}

func calibrationKey(gate string, qubits []int) string {
	parts := make([]string, len(qubits))
	for i, q := range qubits {
		parts[i] = fmt.Sprint(q)
	}
	return fmt.Sprintf("%s(%s)", gate, strings.Join(parts, ","))
}
