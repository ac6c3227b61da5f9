package compiler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
	"github.com/roach88/pulsekit/internal/target"
)

// InstructionMap compiles circuits from a target's calibration table.
//
// Gates with a calibration use it. u1, rz, u2 and u3 are expanded into
// frame changes around sx when the target has no calibration for them.
// measure, barrier and delay are handled structurally.
type InstructionMap struct {
	target target.Target
	logger *slog.Logger
}

// Option configures an InstructionMap.
type Option func(*InstructionMap)

// WithLogger sets the logger for compile diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *InstructionMap) { m.logger = logger }
}

// NewInstructionMap returns a compiler for t.
func NewInstructionMap(t target.Target, opts ...Option) *InstructionMap {
	m := &InstructionMap{
		target: t,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Compiler = (*InstructionMap)(nil)

// placed is one gate block and the qubits it occupies.
type placed struct {
	block  *schedule.Schedule
	qubits []int
	start  int64
}

// Compile implements Compiler.
func (m *InstructionMap) Compile(ctx context.Context, c *circuit.Circuit, s Settings) (*schedule.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if c.NumQubits() > m.target.NumQubits() {
		return nil, ir.ValidationErrorf("circuit %q uses %d qubits, target %q has %d",
			c.Name, c.NumQubits(), m.target.Name(), m.target.NumQubits())
	}

	blocks, err := m.lower(c)
	if err != nil {
		return nil, err
	}

	if s.method() == MethodALAP {
		for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
			blocks[i], blocks[j] = blocks[j], blocks[i]
		}
	}
	total := asap(blocks, m.target.NumQubits())

	out := schedule.New(c.Name)
	for i, b := range blocks {
		if b.block == nil {
			continue
		}
		start := b.start
		if s.method() == MethodALAP {
			start = total - (b.start + b.block.Stop())
		}
		if err := out.Insert(start, schedule.Node(b.block)); err != nil {
			return nil, fmt.Errorf("circuit %q gate %d: %w", c.Name, i, err)
		}
	}

	m.logger.Debug("compiled circuit",
		"circuit", c.Name,
		"method", s.method(),
		"gates", len(c.Instructions),
		"duration", out.Duration(),
	)
	return out, nil
}

// asap assigns start times qubit by qubit and returns the overall stop.
// A block with no qubits (barrier sync) moves its qubits' cursors to
// their common maximum.
func asap(blocks []*placed, numQubits int) int64 {
	cursor := make([]int64, numQubits)
	var total int64
	for _, b := range blocks {
		var start int64
		for _, q := range b.qubits {
			start = max(start, cursor[q])
		}
		b.start = start
		end := start
		if b.block != nil {
			end = start + b.block.Stop()
		}
		for _, q := range b.qubits {
			cursor[q] = end
		}
		total = max(total, end)
	}
	return total
}

// lower expands every circuit instruction into a placed block. Adjacent
// measurements are merged so that each must-acquire-together group is
// measured once.
func (m *InstructionMap) lower(c *circuit.Circuit) ([]*placed, error) {
	var (
		out     []*placed
		pending []int
		slots   []ir.Channel
	)
	flushMeasures := func() error {
		if len(pending) == 0 {
			return nil
		}
		block, err := MeasureSchedule(m.target, pending, slots)
		if err != nil {
			return err
		}
		out = append(out, &placed{block: block, qubits: MeasureGroupQubits(m.target, pending)})
		pending, slots = nil, nil
		return nil
	}

	for i, in := range c.Instructions {
		if in.Condition != nil {
			return nil, ir.ValidationErrorf("gate %d (%s): conditional instructions cannot be compiled to pulses", i, in.Name)
		}
		qubits := make([]int, len(in.Qubits))
		for j, q := range in.Qubits {
			idx, err := c.QubitIndex(q)
			if err != nil {
				return nil, err
			}
			qubits[j] = idx
		}

		if in.Name == "measure" {
			for j, q := range qubits {
				if j >= len(in.Clbits) {
					return nil, ir.ValidationErrorf("gate %d: measure of qubit %d has no classical bit", i, q)
				}
				clbit, err := c.ClbitIndex(in.Clbits[j])
				if err != nil {
					return nil, err
				}
				pending = append(pending, q)
				slots = append(slots, ir.MemorySlot(clbit))
			}
			continue
		}
		if err := flushMeasures(); err != nil {
			return nil, err
		}

		if in.Name == "barrier" {
			out = append(out, &placed{qubits: qubits})
			continue
		}

		params := make([]float64, len(in.Params))
		for j, p := range in.Params {
			v, err := p.Eval(c.Bindings)
			if err != nil {
				return nil, fmt.Errorf("gate %d (%s) param %d: %w", i, in.Name, j, err)
			}
			params[j] = v
		}
		block, err := m.Gate(in.Name, qubits, params)
		if err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
		out = append(out, &placed{block: block, qubits: qubits})
	}
	if err := flushMeasures(); err != nil {
		return nil, err
	}
	return out, nil
}

// Gate returns the schedule for one gate on physical qubits with evaluated
// parameters.
func (m *InstructionMap) Gate(name string, qubits []int, params []float64) (*schedule.Schedule, error) {
	if cal, err := m.target.Calibration(name, qubits...); err == nil {
		return cal, nil
	}

	need := func(nq, np int) error {
		if len(qubits) != nq || len(params) != np {
			return ir.ValidationErrorf("%s takes %d qubits and %d params, got %d and %d", name, nq, np, len(qubits), len(params))
		}
		return nil
	}

	switch name {
	case "u1", "rz", "p":
		if err := need(1, 1); err != nil {
			return nil, err
		}
		return m.frameSequence(name, qubits[0], -params[0])
	case "u2":
		if err := need(1, 2); err != nil {
			return nil, err
		}
		phi, lam := params[0], params[1]
		return m.frameSequence(name, qubits[0], -(lam - math.Pi/2), sxMarker, -(phi + math.Pi/2))
	case "u3":
		if err := need(1, 3); err != nil {
			return nil, err
		}
		theta, phi, lam := params[0], params[1], params[2]
		return m.frameSequence(name, qubits[0], -lam, sxMarker, -(theta + math.Pi), sxMarker, -(phi + math.Pi))
	case "delay":
		if err := need(1, 1); err != nil {
			return nil, err
		}
		d, err := m.target.DriveChannel(qubits[0])
		if err != nil {
			return nil, err
		}
		in, err := ir.Delay(int64(params[0]), d)
		if err != nil {
			return nil, err
		}
		s := schedule.New(name)
		if err := s.Append(schedule.Leaf(in)); err != nil {
			return nil, err
		}
		return s, nil
	case "id", "i":
		return schedule.New(name), nil
	}
	return nil, ir.ValidationErrorf("no calibration for %s on qubits %v", name, qubits)
}

// sxMarker in a frame sequence stands for an sx pulse.
var sxMarker = math.NaN()

// frameSequence alternates phase shifts on every channel that drives qubit
// with sx calibrations. NaN entries are sx pulses.
func (m *InstructionMap) frameSequence(name string, qubit int, steps ...float64) (*schedule.Schedule, error) {
	chs, err := m.frameChannels(qubit)
	if err != nil {
		return nil, err
	}
	s := schedule.New(fmt.Sprintf("%s(%d)", name, qubit))
	for _, step := range steps {
		if math.IsNaN(step) {
			sx, err := m.target.Calibration("sx", qubit)
			if err != nil {
				return nil, err
			}
			if err := s.Append(schedule.Node(sx)); err != nil {
				return nil, err
			}
			continue
		}
		at := s.Stop()
		for _, ch := range chs {
			in, err := ir.ShiftPhase(step, ch)
			if err != nil {
				return nil, err
			}
			if err := s.Insert(at, schedule.Leaf(in)); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// frameChannels are the drive channel of qubit and every control channel
// coupled to it.
func (m *InstructionMap) frameChannels(qubit int) ([]ir.Channel, error) {
	all, err := m.target.QubitChannels(qubit)
	if err != nil {
		return nil, err
	}
	var out []ir.Channel
	for _, ch := range all {
		if ch.Kind == ir.DriveKind || ch.Kind == ir.ControlKind {
			out = append(out, ch)
		}
	}
	return out, nil
}
