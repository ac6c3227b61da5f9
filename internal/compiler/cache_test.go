package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
	"github.com/roach88/pulsekit/internal/testutil"
)

func TestCachedReusesEqualCircuits(t *testing.T) {
	inner := NewInstructionMap(testutil.FakeTarget(t))
	calls := 0
	counting := Func(func(ctx context.Context, c *circuit.Circuit, s Settings) (*schedule.Schedule, error) {
		calls++
		return inner.Compile(ctx, c, s)
	})

	cached, err := NewCached(counting, 8)
	require.NoError(t, err)
	ctx := context.Background()

	a := newCircuit(t, gate{name: "x", qubits: []int{0}})
	b := newCircuit(t, gate{name: "x", qubits: []int{0}})
	b.Name = "renamed"

	first, err := cached.Compile(ctx, a, Settings{})
	require.NoError(t, err)
	second, err := cached.Compile(ctx, b, Settings{})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Flatten(), second.Flatten())
	assert.Equal(t, "renamed", second.Name)

	_, err = cached.Compile(ctx, a, Settings{Method: MethodALAP})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	c := newCircuit(t, gate{name: "x", qubits: []int{1}})
	_, err = cached.Compile(ctx, c, Settings{})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, cached.Len())
}

func TestCachedDoesNotStoreErrors(t *testing.T) {
	cached, err := NewCached(NewInstructionMap(testutil.FakeTarget(t)), 0)
	require.NoError(t, err)

	_, err = cached.Compile(context.Background(), newCircuit(t, gate{name: "h", qubits: []int{0}}), Settings{})
	assert.True(t, ir.IsValidationError(err))
	assert.Equal(t, 0, cached.Len())
}

func TestCacheKeyEvaluatesSymbols(t *testing.T) {
	sym := circuit.New("sym")
	require.NoError(t, sym.AddQReg("q", 1))
	p, err := circuit.Symbolic("theta / 2")
	require.NoError(t, err)
	require.NoError(t, sym.Append(circuit.Instruction{Name: "u1", Qubits: []circuit.Bit{circuit.Q("q", 0)}, Params: []circuit.Param{p}}))
	sym.Bindings["theta"] = 1

	num := circuit.New("num")
	require.NoError(t, num.AddQReg("q", 1))
	require.NoError(t, num.Append(circuit.Instruction{Name: "u1", Qubits: []circuit.Bit{circuit.Q("q", 0)}, Params: []circuit.Param{circuit.Number(0.5)}}))

	k1, err := CacheKey(sym, Settings{})
	require.NoError(t, err)
	k2, err := CacheKey(num, Settings{Method: MethodASAP})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}
