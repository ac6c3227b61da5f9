package lowering

import (
	"context"
	"fmt"
	"math/big"

	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/wire"
)

// CircuitConfig is the run configuration of a circuit job.
type CircuitConfig struct {
	Shots  int
	Memory bool
}

// DefaultShots is used when a run configuration leaves shots unset.
const DefaultShots = 1024

// LowerCircuits lowers circuits into one circuit job.
func (l *Lowerer) LowerCircuits(ctx context.Context, circuits []*circuit.Circuit, cfg CircuitConfig) (job *wire.CircuitJob, err error) {
	defer func() { observeJob("circuit", err) }()

	if len(circuits) == 0 {
		return nil, ir.ValidationErrorf("no circuits to lower")
	}
	if cfg.Shots == 0 {
		cfg.Shots = DefaultShots
	}

	job = &wire.CircuitJob{
		QobjID:        l.ids.Generate(),
		Type:          wire.TypeCircuit,
		SchemaVersion: ir.QobjVersion,
		Header:        wire.Header{BackendName: l.backend},
		Config:        wire.CircuitConfig{Shots: cfg.Shots, Memory: cfg.Memory},
	}
	for i, c := range circuits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		exp, err := lowerCircuit(c, i)
		if err != nil {
			return nil, fmt.Errorf("circuit %d: %w", i, err)
		}
		job.Config.NQubits = max(job.Config.NQubits, exp.Header.NQubits)
		job.Config.MemorySlots = max(job.Config.MemorySlots, exp.Header.MemorySlots)
		job.Experiments = append(job.Experiments, exp)
	}

	experimentsTotal.WithLabelValues("circuit").Add(float64(len(job.Experiments)))
	l.logger.Debug("lowered circuits",
		"qobj_id", job.QobjID,
		"experiments", len(job.Experiments),
		"n_qubits", job.Config.NQubits,
		"memory_slots", job.Config.MemorySlots,
	)
	return job, nil
}

func lowerCircuit(c *circuit.Circuit, idx int) (wire.CircuitExperiment, error) {
	header := wire.CircuitExperimentHeader{
		NQubits:     c.NumQubits(),
		MemorySlots: c.NumClbits(),
		Name:        c.Name,
	}
	if header.Name == "" {
		header.Name = fmt.Sprintf("circuit-%d", idx)
	}
	for _, r := range c.QRegs {
		header.QregSizes = append(header.QregSizes, wire.RegSize{Register: r.Name, Size: r.Size})
		for j := 0; j < r.Size; j++ {
			header.QubitLabels = append(header.QubitLabels, wire.BitLabel{Register: r.Name, Index: j})
		}
	}
	for _, r := range c.CRegs {
		header.CregSizes = append(header.CregSizes, wire.RegSize{Register: r.Name, Size: r.Size})
		for j := 0; j < r.Size; j++ {
			header.ClbitLabels = append(header.ClbitLabels, wire.BitLabel{Register: r.Name, Index: j})
		}
	}

	exp := wire.CircuitExperiment{
		Header: header,
		Config: wire.CircuitExperimentConfig{NQubits: header.NQubits, MemorySlots: header.MemorySlots},
	}

	mirrorMeasures := c.HasConditional()
	condSlots := 0
	for i, in := range c.Instructions {
		out, err := lowerInstruction(c, in)
		if err != nil {
			return wire.CircuitExperiment{}, fmt.Errorf("instruction %d (%s): %w", i, in.Name, err)
		}

		if in.Name == "measure" && mirrorMeasures {
			out.Register = &wire.RegisterField{List: append([]int(nil), out.Memory...)}
		}

		if in.Condition != nil {
			slot := header.MemorySlots + condSlots
			condSlots++
			bfunc, err := bitTest(c, *in.Condition, slot)
			if err != nil {
				return wire.CircuitExperiment{}, fmt.Errorf("instruction %d (%s): %w", i, in.Name, err)
			}
			exp.Instructions = append(exp.Instructions, bfunc)
			out.Conditional = &slot
		}
		exp.Instructions = append(exp.Instructions, out)
	}
	return exp, nil
}

func lowerInstruction(c *circuit.Circuit, in circuit.Instruction) (wire.CircuitInstruction, error) {
	out := wire.CircuitInstruction{Name: in.Name}
	for _, q := range in.Qubits {
		idx, err := c.QubitIndex(q)
		if err != nil {
			return out, err
		}
		out.Qubits = append(out.Qubits, idx)
	}
	for _, b := range in.Clbits {
		idx, err := c.ClbitIndex(b)
		if err != nil {
			return out, err
		}
		out.Memory = append(out.Memory, idx)
	}

	if in.Name == "snapshot" {
		out.Label = in.Label
		out.Type = in.Type
		return out, nil
	}
	out.Label = in.Label

	if len(in.Params) == 1 && in.Params[0].IsMatrix() {
		out.Params = matrixParams(in.Params[0].Matrix)
		return out, nil
	}
	for j, p := range in.Params {
		if p.IsMatrix() {
			out.Params = append(out.Params, matrixParams(p.Matrix))
			continue
		}
		v, err := p.Eval(c.Bindings)
		if err != nil {
			return out, fmt.Errorf("param %d: %w", j, err)
		}
		out.Params = append(out.Params, v)
	}
	return out, nil
}

// matrixParams renders a complex matrix as rows of [re, im] pairs.
func matrixParams(m [][]complex128) []any {
	rows := make([]any, len(m))
	for i, row := range m {
		cells := make([][2]float64, len(row))
		for j, z := range row {
			cells[j] = [2]float64{real(z), imag(z)}
		}
		rows[i] = cells
	}
	return rows
}

// bitTest builds the bfunc that compares the condition register's bits of
// classical memory against cond.Value and writes the result to slot.
func bitTest(c *circuit.Circuit, cond circuit.Condition, slot int) (wire.CircuitInstruction, error) {
	offset := 0
	size := -1
	for _, r := range c.CRegs {
		if r.Name == cond.Register {
			size = r.Size
			break
		}
		offset += r.Size
	}
	if size < 0 {
		return wire.CircuitInstruction{}, ir.ValidationErrorf("unsupported register %q in condition", cond.Register)
	}

	// Memory may be wider than 64 bits, so the masks are arbitrary precision.
	mask, val := new(big.Int), new(big.Int)
	for j := 0; j < size; j++ {
		mask.SetBit(mask, offset+j, 1)
		if j < 64 {
			val.SetBit(val, offset+j, uint((cond.Value>>j)&1))
		}
	}
	return wire.CircuitInstruction{
		Name:     "bfunc",
		Mask:     fmt.Sprintf("0x%X", mask),
		Relation: "==",
		Val:      fmt.Sprintf("0x%X", val),
		Register: &wire.RegisterField{Single: &slot},
	}, nil
}
