package program

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/ir"
)

// Build converts the declaration into a circuit.
func (d CircuitDef) Build() (*circuit.Circuit, error) {
	c := circuit.New(d.Name)
	for _, r := range d.QRegs {
		if err := c.AddQReg(r.Name, r.Size); err != nil {
			return nil, fmt.Errorf("circuit %s: %w", d.Name, err)
		}
	}
	for _, r := range d.CRegs {
		if err := c.AddCReg(r.Name, r.Size); err != nil {
			return nil, fmt.Errorf("circuit %s: %w", d.Name, err)
		}
	}
	for k, v := range d.Bindings {
		c.Bindings[k] = v
	}

	for i, g := range d.Instructions {
		in, err := g.instruction()
		if err != nil {
			return nil, fmt.Errorf("circuit %s instruction %d (%s): %w", d.Name, i, g.Name, err)
		}
		if err := c.Append(in); err != nil {
			return nil, fmt.Errorf("circuit %s instruction %d: %w", d.Name, i, err)
		}
	}
	return c, nil
}

func (g GateDef) instruction() (circuit.Instruction, error) {
	in := circuit.Instruction{Name: g.Name, Label: g.Label, Type: g.Type}
	for _, s := range g.Qubits {
		b, err := parseBit(s)
		if err != nil {
			return in, err
		}
		in.Qubits = append(in.Qubits, b)
	}
	for _, s := range g.Clbits {
		b, err := parseBit(s)
		if err != nil {
			return in, err
		}
		in.Clbits = append(in.Clbits, b)
	}

	for _, s := range g.Params {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			in.Params = append(in.Params, circuit.Number(v))
			continue
		}
		p, err := circuit.Symbolic(s)
		if err != nil {
			return in, err
		}
		in.Params = append(in.Params, p)
	}
	if g.Matrix != nil {
		m := make([][]complex128, len(g.Matrix))
		for i, row := range g.Matrix {
			m[i] = make([]complex128, len(row))
			for j, cell := range row {
				if len(cell) != 2 {
					return in, ir.ValidationErrorf("matrix cell [%d][%d] must be [re, im]", i, j)
				}
				m[i][j] = complex(cell[0], cell[1])
			}
		}
		in.Params = append(in.Params, circuit.MatrixParam(m))
	}

	if g.Condition != nil {
		in.Condition = &circuit.Condition{Register: g.Condition.Register, Value: g.Condition.Value}
	}
	return in, nil
}

// parseBit parses "reg[index]".
func parseBit(s string) (circuit.Bit, error) {
	reg, rest, ok := strings.Cut(s, "[")
	idx, found := strings.CutSuffix(rest, "]")
	if !ok || !found || reg == "" {
		return circuit.Bit{}, ir.ValidationErrorf("bit %q must look like reg[index]", s)
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return circuit.Bit{}, ir.ValidationErrorf("bit %q: bad index", s)
	}
	return circuit.Q(reg, n), nil
}
