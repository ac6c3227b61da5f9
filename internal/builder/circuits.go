package builder

import (
	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/compiler"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
)

// Standard register names used for gates called by qubit index.
const (
	QuantumRegister   = "q"
	ClassicalRegister = "c"
)

// CallCircuit compiles c into the program. With lazy set, c joins the
// buffered circuit and is compiled at the next flush point; a circuit whose
// registers differ from the buffer's flushes the buffer first.
func (b *Builder) CallCircuit(c *circuit.Circuit, lazy bool) error {
	if _, err := b.active("call_circuit"); err != nil {
		return err
	}
	if c == nil {
		return b.fail(ir.ValidationErrorf("call_circuit: nil circuit"))
	}
	if err := b.requireTarget("call_circuit"); err != nil {
		return b.fail(err)
	}

	if !lazy {
		if err := b.flush("call_circuit"); err != nil {
			return err
		}
		block, err := b.compile(c)
		if err != nil {
			return b.fail(err)
		}
		return b.append("call_circuit", schedule.Node(block))
	}

	if !b.lazy.accepts(c) {
		if err := b.flush("call_circuit"); err != nil {
			return err
		}
	}
	b.lazy.add(c)
	return nil
}

// CallGate calls one gate on physical qubits using the standard registers.
func (b *Builder) CallGate(name string, qubits []int, params []float64, lazy bool) error {
	c, err := b.standardCircuit("call_gate")
	if err != nil {
		return err
	}
	in := circuit.Instruction{Name: name}
	for _, q := range qubits {
		in.Qubits = append(in.Qubits, circuit.Q(QuantumRegister, q))
	}
	for _, p := range params {
		in.Params = append(in.Params, circuit.Number(p))
	}
	if err := c.Append(in); err != nil {
		return b.fail(err)
	}
	return b.CallCircuit(c, lazy)
}

// standardCircuit returns an empty circuit over q[n] and c[n] for an
// n-qubit target.
func (b *Builder) standardCircuit(op string) (*circuit.Circuit, error) {
	if _, err := b.active(op); err != nil {
		return nil, err
	}
	if err := b.requireTarget(op); err != nil {
		return nil, b.fail(err)
	}
	n := b.target.NumQubits()
	c := circuit.New(op)
	if err := c.AddQReg(QuantumRegister, n); err != nil {
		return nil, b.fail(err)
	}
	if err := c.AddCReg(ClassicalRegister, n); err != nil {
		return nil, b.fail(err)
	}
	return c, nil
}

// X applies an X gate to qubit.
func (b *Builder) X(qubit int) error {
	return b.CallGate("x", []int{qubit}, nil, true)
}

// U1 applies a phase rotation to qubit.
func (b *Builder) U1(lambda float64, qubit int) error {
	return b.CallGate("u1", []int{qubit}, []float64{lambda}, true)
}

// U2 applies a single-pulse rotation to qubit.
func (b *Builder) U2(phi, lambda float64, qubit int) error {
	return b.CallGate("u2", []int{qubit}, []float64{phi, lambda}, true)
}

// U3 applies a generic single-qubit rotation to qubit.
func (b *Builder) U3(theta, phi, lambda float64, qubit int) error {
	return b.CallGate("u3", []int{qubit}, []float64{theta, phi, lambda}, true)
}

// CX applies a controlled-X from control to target.
func (b *Builder) CX(control, target int) error {
	return b.CallGate("cx", []int{control, target}, nil, true)
}

// Measure measures qubits into slots (memory slots matching the qubit
// index when slots is nil) and returns the slots used. The whole
// must-acquire-together group of every qubit is measured.
func (b *Builder) Measure(qubits []int, slots []ir.Channel) ([]ir.Channel, error) {
	if _, err := b.active("measure"); err != nil {
		return nil, err
	}
	if err := b.requireTarget("measure"); err != nil {
		return nil, b.fail(err)
	}
	if slots == nil {
		slots = make([]ir.Channel, len(qubits))
		for i, q := range qubits {
			slots[i] = ir.MemorySlot(q)
		}
	}
	block, err := compiler.MeasureSchedule(b.target, qubits, slots)
	if err != nil {
		return nil, b.fail(err)
	}
	if err := b.CallSchedule(block); err != nil {
		return nil, err
	}
	return slots, nil
}

// MeasureAll measures every qubit of the target into the memory slot of
// the same index.
func (b *Builder) MeasureAll() ([]ir.Channel, error) {
	n, err := b.NumQubits()
	if err != nil {
		return nil, err
	}
	qubits := make([]int, n)
	for i := range qubits {
		qubits[i] = i
	}
	return b.Measure(qubits, nil)
}

// DelayQubits idles every channel of qubits for duration samples.
func (b *Builder) DelayQubits(duration int64, qubits ...int) error {
	chs, err := b.qubitChannels("delay_qubits", qubits)
	if err != nil {
		return err
	}
	return b.AlignLeft(func() error {
		for _, ch := range chs {
			if err := b.Delay(duration, ch); err != nil {
				return err
			}
		}
		return nil
	})
}
