package program

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pulsekit/internal/align"
	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/compiler"
	"github.com/roach88/pulsekit/internal/target"
)

// Program kinds.
const (
	KindPulse   = "pulse"
	KindCircuit = "circuit"
)

// Program is a declarative pulse or circuit program.
type Program struct {
	// Name identifies the program; it names golden files in tests.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// Kind selects the lowering pass: "pulse" or "circuit".
	Kind string `yaml:"kind"`

	// Target names the device inside the CUE package at Targets.
	Target string `yaml:"target,omitempty"`

	// Targets is the CUE package directory declaring the device. Relative
	// paths are resolved against the program file by LoadFile.
	Targets string `yaml:"targets,omitempty"`

	// Backend overrides the backend name written into the job header.
	// Defaults to Target.
	Backend string `yaml:"backend,omitempty"`

	Run RunDef `yaml:"run,omitempty"`

	// LOConfigs are per-experiment LO overrides in Hz, keyed by drive or
	// measure channel name.
	LOConfigs []map[string]float64 `yaml:"lo_configs,omitempty"`

	Schedules []ScheduleDef `yaml:"schedules,omitempty"`
	Circuits  []CircuitDef  `yaml:"circuits,omitempty"`
}

// RunDef holds run settings. Zero values take the lowering defaults.
type RunDef struct {
	Shots          int     `yaml:"shots,omitempty"`
	Memory         bool    `yaml:"memory,omitempty"`
	MeasLevel      int     `yaml:"meas_level,omitempty"`
	MeasReturn     string  `yaml:"meas_return,omitempty"`
	MemorySlotSize int     `yaml:"memory_slot_size,omitempty"`
	RepTime        float64 `yaml:"rep_time,omitempty"`

	// Method is the gate scheduling method: asap or alap.
	Method string `yaml:"method,omitempty"`
}

// ScheduleDef declares one schedule.
type ScheduleDef struct {
	Name string `yaml:"name"`

	// Align is the policy of the schedule's outermost scope. Defaults to
	// left.
	Align string `yaml:"align,omitempty"`

	// Subroutine schedules are only built when another schedule calls
	// them.
	Subroutine bool `yaml:"subroutine,omitempty"`

	Body []Step `yaml:"body"`
}

// Step is one entry of a schedule body. Exactly one of Op, Gate, Circuit,
// Measure, MeasureAll, Call and Block is set.
type Step struct {
	target.InstructionDef `yaml:",inline"`

	Gate   string    `yaml:"gate,omitempty"`
	Qubits []int     `yaml:"qubits,omitempty"`
	Params []float64 `yaml:"params,omitempty"`

	// Eager compiles the gate or circuit immediately instead of buffering
	// it with its neighbours.
	Eager bool `yaml:"eager,omitempty"`

	Circuit string `yaml:"circuit,omitempty"`

	Measure    []int `yaml:"measure,omitempty"`
	Slots      []int `yaml:"slots,omitempty"`
	MeasureAll bool  `yaml:"measure_all,omitempty"`

	Call string `yaml:"call,omitempty"`

	Block *Block `yaml:"block,omitempty"`
}

// Block is a nested scope.
type Block struct {
	// Align is the scope policy. Empty inherits the enclosing policy.
	Align string `yaml:"align,omitempty"`

	// Pad fills idle time on Channels (all channels when empty) up to the
	// end of the block. Padded blocks are left-aligned.
	Pad bool `yaml:"pad,omitempty"`

	// PhaseOffset and FrequencyOffset shift the frame of Channels for the
	// duration of the body. Compensate removes the phase accrued at the
	// offset frequency afterwards.
	PhaseOffset     *float64 `yaml:"phase_offset,omitempty"`
	FrequencyOffset *float64 `yaml:"frequency_offset,omitempty"`
	Compensate      bool     `yaml:"compensate,omitempty"`

	Channels []string `yaml:"channels,omitempty"`

	Body []Step `yaml:"body"`
}

// CircuitDef declares a gate-level circuit.
type CircuitDef struct {
	Name         string             `yaml:"name"`
	QRegs        []circuit.Register `yaml:"qregs"`
	CRegs        []circuit.Register `yaml:"cregs,omitempty"`
	Bindings     map[string]float64 `yaml:"bindings,omitempty"`
	Instructions []GateDef          `yaml:"instructions"`
}

// GateDef is one circuit instruction. Bits are written "reg[index]";
// params are numbers or expressions over Bindings.
type GateDef struct {
	Name      string        `yaml:"name"`
	Qubits    []string      `yaml:"qubits,omitempty"`
	Clbits    []string      `yaml:"clbits,omitempty"`
	Params    []string      `yaml:"params,omitempty"`
	Matrix    [][][]float64 `yaml:"matrix,omitempty"`
	Condition *ConditionDef `yaml:"condition,omitempty"`
	Label     string        `yaml:"label,omitempty"`
	Type      string        `yaml:"type,omitempty"`
}

// ConditionDef gates an instruction on a classical register value.
type ConditionDef struct {
	Register string `yaml:"register"`
	Value    uint64 `yaml:"value"`
}

// LoadFile reads and parses a program file, resolving Targets relative to
// the file's directory.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if p.Targets != "" && !filepath.IsAbs(p.Targets) {
		p.Targets = filepath.Join(filepath.Dir(path), p.Targets)
	}
	return p, nil
}

// Parse decodes and validates a program. Unknown fields are rejected.
func Parse(data []byte) (*Program, error) {
	var p Program
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateProgram(&p); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}
	return &p, nil
}

// LoadTarget loads the program's target from its CUE package.
func LoadTarget(p *Program) (*target.Config, error) {
	if p.Targets == "" {
		return nil, fmt.Errorf("program %q: targets directory is required", p.Name)
	}
	targets, errs := target.LoadDir(p.Targets)
	if len(errs) > 0 {
		return nil, fmt.Errorf("program %q: loading targets: %w", p.Name, errs[0])
	}
	return target.Select(targets, p.Target)
}

func validateProgram(p *Program) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}

	switch p.Kind {
	case KindPulse:
		if len(p.Schedules) == 0 {
			return fmt.Errorf("schedules list is required and must be non-empty for pulse programs")
		}
	case KindCircuit:
		if len(p.Circuits) == 0 {
			return fmt.Errorf("circuits list is required and must be non-empty for circuit programs")
		}
		if len(p.Schedules) > 0 || len(p.LOConfigs) > 0 {
			return fmt.Errorf("circuit programs take no schedules or lo_configs")
		}
	default:
		return fmt.Errorf("kind must be %q or %q, got %q", KindPulse, KindCircuit, p.Kind)
	}

	if err := (compiler.Settings{Method: p.Run.Method}).Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	circuits := map[string]bool{}
	for i, c := range p.Circuits {
		if c.Name == "" {
			return fmt.Errorf("circuits[%d]: name is required", i)
		}
		if circuits[c.Name] {
			return fmt.Errorf("circuits[%d]: duplicate circuit %q", i, c.Name)
		}
		circuits[c.Name] = true
		for j, g := range c.Instructions {
			if g.Name == "" {
				return fmt.Errorf("circuits[%d].instructions[%d]: name is required", i, j)
			}
		}
	}

	schedules := map[string]bool{}
	emitted := 0
	for i, s := range p.Schedules {
		if s.Name == "" {
			return fmt.Errorf("schedules[%d]: name is required", i)
		}
		if schedules[s.Name] {
			return fmt.Errorf("schedules[%d]: duplicate schedule %q", i, s.Name)
		}
		if err := validatePolicy(s.Align); err != nil {
			return fmt.Errorf("schedules[%d]: %w", i, err)
		}
		if err := validateSteps(fmt.Sprintf("schedules[%d].body", i), s.Body, circuits, schedules); err != nil {
			return err
		}
		schedules[s.Name] = true
		if !s.Subroutine {
			emitted++
		}
	}
	if p.Kind == KindPulse && emitted == 0 {
		return fmt.Errorf("every schedule is a subroutine; nothing to lower")
	}
	return nil
}

func validatePolicy(name string) error {
	if name == "" {
		return nil
	}
	_, err := align.ParsePolicy(name)
	return err
}

// validateSteps checks step shape. Calls may only reference schedules
// declared earlier, which rules out cycles.
func validateSteps(path string, steps []Step, circuits, schedules map[string]bool) error {
	for i, st := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)

		set := 0
		for _, present := range []bool{
			st.Op != "", st.Gate != "", st.Circuit != "", st.Measure != nil,
			st.MeasureAll, st.Call != "", st.Block != nil,
		} {
			if present {
				set++
			}
		}
		if set != 1 {
			return fmt.Errorf("%s: exactly one of op, gate, circuit, measure, measure_all, call or block is required", at)
		}

		switch {
		case st.Op != "":
			if st.T0 != 0 {
				return fmt.Errorf("%s: t0 is not allowed in program steps; use alignment blocks", at)
			}
		case st.Circuit != "":
			if !circuits[st.Circuit] {
				return fmt.Errorf("%s: unknown circuit %q", at, st.Circuit)
			}
		case st.Measure != nil:
			if st.Slots != nil && len(st.Slots) != len(st.Measure) {
				return fmt.Errorf("%s: %d qubits but %d slots", at, len(st.Measure), len(st.Slots))
			}
		case st.Call != "":
			if !schedules[st.Call] {
				return fmt.Errorf("%s: unknown schedule %q (calls must reference an earlier schedule)", at, st.Call)
			}
		case st.Block != nil:
			blk := st.Block
			if err := validatePolicy(blk.Align); err != nil {
				return fmt.Errorf("%s.block: %w", at, err)
			}
			if blk.Pad && blk.Align != "" && blk.Align != "left" {
				return fmt.Errorf("%s.block: padded blocks are left-aligned, got align %q", at, blk.Align)
			}
			if blk.PhaseOffset != nil && blk.FrequencyOffset != nil {
				return fmt.Errorf("%s.block: phase_offset and frequency_offset are exclusive", at)
			}
			if (blk.PhaseOffset != nil || blk.FrequencyOffset != nil) && len(blk.Channels) == 0 {
				return fmt.Errorf("%s.block: frame offsets need channels", at)
			}
			if err := validateSteps(at+".block.body", blk.Body, circuits, schedules); err != nil {
				return err
			}
		}
	}
	return nil
}
