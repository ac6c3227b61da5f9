package target

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

// rawTarget mirrors #Target for decoding.
type rawTarget struct {
	NQubits          int              `json:"n_qubits"`
	Dt               float64          `json:"dt"`
	QubitLOFreq      []float64        `json:"qubit_lo_freq"`
	MeasLOFreq       []float64        `json:"meas_lo_freq"`
	MeasMap          [][]int          `json:"meas_map"`
	ParametricPulses []string         `json:"parametric_pulses"`
	ControlChannels  []ControlDef     `json:"control_channels"`
	Calibrations     []CalibrationDef `json:"calibrations"`
}

// Compile parses a CUE value into a Config. The value is unified with the
// closed #Target definition, so unknown fields and type mismatches are
// reported with their source position.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	cfg, err := Compile(v.LookupPath(cue.ParsePath("target.fake2q")))
func Compile(v cue.Value) (*Config, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if !v.Exists() {
		return nil, &CompileError{Field: "target", Message: "target value does not exist"}
	}

	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Target")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var raw rawTarget
	if err := unified.Decode(&raw); err != nil {
		return nil, formatCUEError(err)
	}

	cfg := &Config{
		Qubits:       raw.NQubits,
		SamplePeriod: raw.Dt,
		QubitLO:      raw.QubitLOFreq,
		MeasLO:       raw.MeasLOFreq,
		Groups:       raw.MeasMap,
		Shapes:       raw.ParametricPulses,
		Controls:     raw.ControlChannels,
		Calibrations: raw.Calibrations,
	}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		cfg.TargetName = sels[len(sels)-1].String()
	}

	if err := cfg.compileCalibrations(); err != nil {
		return nil, &CompileError{Field: "calibrations", Message: err.Error(), Pos: v.Pos()}
	}
	return cfg, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &CompileError{Field: "cue", Message: first.Error()}
}
