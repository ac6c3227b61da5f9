package lowering

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/wire"
)

func conditionalCircuit(t *testing.T) *circuit.Circuit {
	t.Helper()
	c := circuit.New("cond")
	require.NoError(t, c.AddQReg("q", 2))
	require.NoError(t, c.AddCReg("a", 2))
	require.NoError(t, c.AddCReg("c", 3))

	q0 := []circuit.Bit{circuit.Q("q", 0)}
	require.NoError(t, c.Append(circuit.Instruction{Name: "measure", Qubits: q0, Clbits: []circuit.Bit{circuit.Q("c", 1)}}))
	require.NoError(t, c.Append(circuit.Instruction{Name: "x", Qubits: q0, Condition: &circuit.Condition{Register: "c", Value: 5}}))
	require.NoError(t, c.Append(circuit.Instruction{Name: "x", Qubits: q0, Condition: &circuit.Condition{Register: "a", Value: 1}}))
	return c
}

func TestLowerConditional(t *testing.T) {
	job, err := newLowerer().LowerCircuits(context.Background(), []*circuit.Circuit{conditionalCircuit(t)}, CircuitConfig{})
	require.NoError(t, err)

	insts := job.Experiments[0].Instructions
	require.Len(t, insts, 5)

	measure := insts[0]
	assert.Equal(t, []int{3}, measure.Memory)
	require.NotNil(t, measure.Register)
	assert.Equal(t, []int{3}, measure.Register.List)

	first := insts[1]
	assert.Equal(t, "bfunc", first.Name)
	assert.Equal(t, "0x1C", first.Mask)
	assert.Equal(t, "0x14", first.Val)
	assert.Equal(t, "==", first.Relation)
	assert.Equal(t, 5, *first.Register.Single)
	assert.Equal(t, 5, *insts[2].Conditional)

	second := insts[3]
	assert.Equal(t, "0x3", second.Mask)
	assert.Equal(t, "0x1", second.Val)
	assert.Equal(t, 6, *second.Register.Single)
	assert.Equal(t, 6, *insts[4].Conditional)
}

func TestLowerConditionalPastBit63(t *testing.T) {
	c := circuit.New("wide")
	require.NoError(t, c.AddQReg("q", 1))
	require.NoError(t, c.AddCReg("big", 64))
	require.NoError(t, c.AddCReg("c", 2))
	require.NoError(t, c.Append(circuit.Instruction{
		Name:      "x",
		Qubits:    []circuit.Bit{circuit.Q("q", 0)},
		Condition: &circuit.Condition{Register: "c", Value: 3},
	}))

	job, err := newLowerer().LowerCircuits(context.Background(), []*circuit.Circuit{c}, CircuitConfig{})
	require.NoError(t, err)

	bfunc := job.Experiments[0].Instructions[0]
	assert.Equal(t, "bfunc", bfunc.Name)
	assert.Equal(t, "0x30000000000000000", bfunc.Mask)
	assert.Equal(t, "0x30000000000000000", bfunc.Val)
	assert.Equal(t, 66, *bfunc.Register.Single)
}

func TestLowerConditionalWideRegister(t *testing.T) {
	c := circuit.New("wide")
	require.NoError(t, c.AddQReg("q", 1))
	require.NoError(t, c.AddCReg("c", 70))
	require.NoError(t, c.Append(circuit.Instruction{
		Name:      "x",
		Qubits:    []circuit.Bit{circuit.Q("q", 0)},
		Condition: &circuit.Condition{Register: "c", Value: 1<<63 | 1},
	}))

	job, err := newLowerer().LowerCircuits(context.Background(), []*circuit.Circuit{c}, CircuitConfig{})
	require.NoError(t, err)

	bfunc := job.Experiments[0].Instructions[0]
	assert.Equal(t, "0x3FFFFFFFFFFFFFFFFF", bfunc.Mask)
	assert.Equal(t, "0x8000000000000001", bfunc.Val)
}

func TestLowerMeasureWithoutConditionals(t *testing.T) {
	c := circuit.New("plain")
	require.NoError(t, c.AddQReg("q", 1))
	require.NoError(t, c.AddCReg("c", 1))
	require.NoError(t, c.Append(circuit.Instruction{Name: "measure", Qubits: []circuit.Bit{circuit.Q("q", 0)}, Clbits: []circuit.Bit{circuit.Q("c", 0)}}))

	job, err := newLowerer().LowerCircuits(context.Background(), []*circuit.Circuit{c}, CircuitConfig{})
	require.NoError(t, err)
	assert.Nil(t, job.Experiments[0].Instructions[0].Register)
}

func TestLowerCircuitJSON(t *testing.T) {
	c := circuit.New("")
	require.NoError(t, c.AddQReg("q", 1))
	require.NoError(t, c.AddQReg("anc", 1))
	require.NoError(t, c.AddCReg("c", 1))
	theta, err := circuit.Symbolic("2 * theta")
	require.NoError(t, err)
	c.Bindings["theta"] = 0.25
	require.NoError(t, c.Append(circuit.Instruction{Name: "u1", Qubits: []circuit.Bit{circuit.Q("anc", 0)}, Params: []circuit.Param{theta}}))
	require.NoError(t, c.Append(circuit.Instruction{Name: "snapshot", Qubits: []circuit.Bit{circuit.Q("q", 0)}, Label: "s1", Type: "statevector"}))
	require.NoError(t, c.Append(circuit.Instruction{
		Name:   "unitary",
		Qubits: []circuit.Bit{circuit.Q("q", 0)},
		Params: []circuit.Param{circuit.MatrixParam([][]complex128{{0, 1}, {1i, 0}})},
		Label:  "flip",
	}))

	job, err := New(WithIDGenerator(wire.NewFixedGenerator("job-1"))).
		LowerCircuits(context.Background(), []*circuit.Circuit{c}, CircuitConfig{Shots: 100, Memory: true})
	require.NoError(t, err)

	data, err := json.Marshal(job)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"qobj_id": "job-1",
		"type": "QASM",
		"schema_version": "1.3.0",
		"header": {},
		"config": {"shots": 100, "memory": true, "n_qubits": 2, "memory_slots": 1},
		"experiments": [{
			"header": {
				"qubit_labels": [["q", 0], ["anc", 0]],
				"n_qubits": 2,
				"qreg_sizes": [["q", 1], ["anc", 1]],
				"clbit_labels": [["c", 0]],
				"memory_slots": 1,
				"creg_sizes": [["c", 1]],
				"name": "circuit-0"
			},
			"config": {"n_qubits": 2, "memory_slots": 1},
			"instructions": [
				{"name": "u1", "qubits": [1], "params": [0.5]},
				{"name": "snapshot", "qubits": [0], "label": "s1", "type": "statevector"},
				{"name": "unitary", "qubits": [0], "params": [[[0, 0], [1, 0]], [[0, 1], [0, 0]]], "label": "flip"}
			]
		}]
	}`, string(data))
}

func TestLowerCircuitsConfigMaxima(t *testing.T) {
	small := circuit.New("small")
	require.NoError(t, small.AddQReg("q", 1))
	require.NoError(t, small.AddCReg("c", 4))
	big := circuit.New("big")
	require.NoError(t, big.AddQReg("q", 5))
	require.NoError(t, big.AddCReg("c", 2))

	job, err := newLowerer().LowerCircuits(context.Background(), []*circuit.Circuit{small, big}, CircuitConfig{})
	require.NoError(t, err)
	assert.Equal(t, 5, job.Config.NQubits)
	assert.Equal(t, 4, job.Config.MemorySlots)
	assert.Equal(t, DefaultShots, job.Config.Shots)
	assert.Len(t, job.Experiments, 2)
}

func TestLowerCircuitsErrors(t *testing.T) {
	_, err := newLowerer().LowerCircuits(context.Background(), nil, CircuitConfig{})
	assert.True(t, ir.IsValidationError(err))

	c := circuit.New("bad")
	require.NoError(t, c.AddQReg("q", 1))
	c.Instructions = append(c.Instructions, circuit.Instruction{
		Name:      "x",
		Qubits:    []circuit.Bit{circuit.Q("q", 0)},
		Condition: &circuit.Condition{Register: "missing", Value: 1},
	})
	_, err = newLowerer().LowerCircuits(context.Background(), []*circuit.Circuit{c}, CircuitConfig{})
	assert.True(t, ir.IsValidationError(err))
	assert.Contains(t, err.Error(), "unsupported register")

	free := circuit.New("free")
	require.NoError(t, free.AddQReg("q", 1))
	p, err := circuit.Symbolic("phi")
	require.NoError(t, err)
	require.NoError(t, free.Append(circuit.Instruction{Name: "u1", Qubits: []circuit.Bit{circuit.Q("q", 0)}, Params: []circuit.Param{p}}))
	_, err = newLowerer().LowerCircuits(context.Background(), []*circuit.Circuit{free}, CircuitConfig{})
	assert.Error(t, err)
}
