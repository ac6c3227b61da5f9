// Package circuit models gate-level programs: quantum and classical
// registers, instructions over register bits, symbolic parameters and
// classical conditions.
package circuit

import (
	"fmt"
	"slices"

	"github.com/roach88/pulsekit/internal/ir"
)

// Register is a named, sized quantum or classical register.
type Register struct {
	Name string `json:"name" yaml:"name"`
	Size int    `json:"size" yaml:"size"`
}

// Bit addresses one bit of a register.
type Bit struct {
	Register string
	Index    int
}

// Q is shorthand for a bit of register reg.
func Q(reg string, index int) Bit { return Bit{Register: reg, Index: index} }

// Condition gates an instruction on "classical register Register == Value".
type Condition struct {
	Register string
	Value    uint64
}

// Param is an instruction parameter: a number, a symbolic expression, or a
// complex matrix.
type Param struct {
	Value  float64
	Expr   *Expr
	Matrix [][]complex128
}

// Number returns a numeric parameter.
func Number(v float64) Param { return Param{Value: v} }

// Symbolic parses src into a symbolic parameter.
func Symbolic(src string) (Param, error) {
	e, err := ParseExpr(src)
	if err != nil {
		return Param{}, err
	}
	return Param{Expr: e}, nil
}

// MatrixParam returns a matrix-valued parameter.
func MatrixParam(m [][]complex128) Param {
	cp := make([][]complex128, len(m))
	for i, row := range m {
		cp[i] = slices.Clone(row)
	}
	return Param{Matrix: cp}
}

// IsMatrix reports whether p holds a matrix.
func (p Param) IsMatrix() bool { return p.Matrix != nil }

// Eval returns the numeric value of a scalar parameter.
func (p Param) Eval(bind map[string]float64) (float64, error) {
	if p.IsMatrix() {
		return 0, ir.ValidationErrorf("matrix parameter has no scalar value")
	}
	if p.Expr != nil {
		return p.Expr.Eval(bind)
	}
	return p.Value, nil
}

// Instruction is one gate-level operation.
type Instruction struct {
	Name      string
	Qubits    []Bit
	Clbits    []Bit
	Params    []Param
	Condition *Condition
	Label     string

	// Type is the snapshot type of a snapshot instruction.
	Type string
}

// Circuit is an ordered list of instructions over declared registers.
type Circuit struct {
	Name         string
	QRegs        []Register
	CRegs        []Register
	Instructions []Instruction

	// Bindings supplies values for symbolic parameters.
	Bindings map[string]float64
}

// New creates an empty circuit.
func New(name string) *Circuit {
	return &Circuit{Name: name, Bindings: map[string]float64{}}
}

// AddQReg declares a quantum register.
func (c *Circuit) AddQReg(name string, size int) error {
	return c.addReg(&c.QRegs, name, size)
}

// AddCReg declares a classical register.
func (c *Circuit) AddCReg(name string, size int) error {
	return c.addReg(&c.CRegs, name, size)
}

func (c *Circuit) addReg(regs *[]Register, name string, size int) error {
	if name == "" || size <= 0 {
		return ir.ValidationErrorf("register %q must have a name and positive size, got %d", name, size)
	}
	if c.hasRegister(name) {
		return ir.ValidationErrorf("duplicate register %q", name)
	}
	*regs = append(*regs, Register{Name: name, Size: size})
	return nil
}

func (c *Circuit) hasRegister(name string) bool {
	for _, r := range slices.Concat(c.QRegs, c.CRegs) {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Append validates in against the declared registers and adds it.
func (c *Circuit) Append(in Instruction) error {
	if in.Name == "" {
		return ir.ValidationErrorf("instruction has no name")
	}
	for _, q := range in.Qubits {
		if _, err := c.QubitIndex(q); err != nil {
			return fmt.Errorf("%s: %w", in.Name, err)
		}
	}
	for _, b := range in.Clbits {
		if _, err := c.ClbitIndex(b); err != nil {
			return fmt.Errorf("%s: %w", in.Name, err)
		}
	}
	if in.Condition != nil {
		reg, ok := findRegister(c.CRegs, in.Condition.Register)
		if !ok {
			return ir.ValidationErrorf("%s: unsupported register %q in condition", in.Name, in.Condition.Register)
		}
		if reg.Size < 64 && in.Condition.Value >= 1<<reg.Size {
			return ir.ValidationErrorf("%s: condition value %d does not fit register %s[%d]", in.Name, in.Condition.Value, reg.Name, reg.Size)
		}
	}
	c.Instructions = append(c.Instructions, in)
	return nil
}

// NumQubits returns the total qubit count.
func (c *Circuit) NumQubits() int { return totalSize(c.QRegs) }

// NumClbits returns the total classical bit count.
func (c *Circuit) NumClbits() int { return totalSize(c.CRegs) }

// QubitIndex returns the flat 0-based index of q in declaration order.
func (c *Circuit) QubitIndex(q Bit) (int, error) { return flatIndex(c.QRegs, q, "quantum") }

// ClbitIndex returns the flat 0-based index of b in declaration order.
func (c *Circuit) ClbitIndex(b Bit) (int, error) { return flatIndex(c.CRegs, b, "classical") }

// HasConditional reports whether any instruction carries a condition.
func (c *Circuit) HasConditional() bool {
	return slices.ContainsFunc(c.Instructions, func(in Instruction) bool { return in.Condition != nil })
}

// SameRegisters reports whether c and o declare identical registers.
func (c *Circuit) SameRegisters(o *Circuit) bool {
	return slices.Equal(c.QRegs, o.QRegs) && slices.Equal(c.CRegs, o.CRegs)
}

// Clone returns a deep copy.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{
		Name:         c.Name,
		QRegs:        slices.Clone(c.QRegs),
		CRegs:        slices.Clone(c.CRegs),
		Instructions: make([]Instruction, len(c.Instructions)),
		Bindings:     make(map[string]float64, len(c.Bindings)),
	}
	for i, in := range c.Instructions {
		in.Qubits = slices.Clone(in.Qubits)
		in.Clbits = slices.Clone(in.Clbits)
		in.Params = slices.Clone(in.Params)
		out.Instructions[i] = in
	}
	for k, v := range c.Bindings {
		out.Bindings[k] = v
	}
	return out
}

func findRegister(regs []Register, name string) (Register, bool) {
	for _, r := range regs {
		if r.Name == name {
			return r, true
		}
	}
	return Register{}, false
}

func totalSize(regs []Register) int {
	n := 0
	for _, r := range regs {
		n += r.Size
	}
	return n
}

func flatIndex(regs []Register, b Bit, kind string) (int, error) {
	offset := 0
	for _, r := range regs {
		if r.Name == b.Register {
			if b.Index < 0 || b.Index >= r.Size {
				return 0, ir.ValidationErrorf("bit %s[%d] out of range for size %d", b.Register, b.Index, r.Size)
			}
			return offset + b.Index, nil
		}
		offset += r.Size
	}
	return 0, ir.ValidationErrorf("unsupported register %q: not a declared %s register", b.Register, kind)
}
