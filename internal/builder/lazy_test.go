package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/compiler"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
	"github.com/roach88/pulsekit/internal/testutil"
)

func TestGatesAreBufferedUntilRawInstruction(t *testing.T) {
	tgt := testutil.FakeTarget(t)
	calls := 0
	b := New(WithTarget(tgt), WithCompiler(countingCompiler(tgt, &calls)))

	s := build(t, b, func(b *Builder) error {
		require.NoError(t, b.X(0))
		require.NoError(t, b.X(0))
		assert.Equal(t, 0, calls)

		require.NoError(t, b.Delay(10, d0))
		assert.Equal(t, 1, calls)

		return b.X(1)
	})

	assert.Equal(t, 2, calls)
	assert.Equal(t, []int64{0, 160, 320}, starts(s, d0))
	assert.Equal(t, []int64{0}, starts(s, d1))
}

func TestScopeBoundariesFlush(t *testing.T) {
	tgt := testutil.FakeTarget(t)
	calls := 0
	b := New(WithTarget(tgt), WithCompiler(countingCompiler(tgt, &calls)))

	build(t, b, func(b *Builder) error {
		require.NoError(t, b.X(0))
		return b.AlignRight(func() error {
			assert.Equal(t, 1, calls, "enter flushes")
			require.NoError(t, b.X(1))
			return nil
		})
	})
	assert.Equal(t, 2, calls, "exit flushes")
}

func TestCompilerSettingsFlush(t *testing.T) {
	tgt := testutil.FakeTarget(t)
	var methods []string
	inner := compiler.NewInstructionMap(tgt)
	recording := compiler.Func(func(ctx context.Context, c *circuit.Circuit, s compiler.Settings) (*schedule.Schedule, error) {
		methods = append(methods, s.Method)
		return inner.Compile(ctx, c, s)
	})
	b := New(WithTarget(tgt), WithCompiler(recording))

	build(t, b, func(b *Builder) error {
		require.NoError(t, b.X(0))
		require.NoError(t, b.CompilerSettings(compiler.Settings{Method: compiler.MethodALAP}, func() error {
			return b.X(1)
		}))
		return b.X(2)
	})
	assert.Equal(t, []string{"", compiler.MethodALAP, ""}, methods)

	_, err := b.Build(context.Background(), "bad", func(b *Builder) error {
		return b.CompilerSettings(compiler.Settings{Method: "never"}, func() error { return nil })
	})
	assert.True(t, ir.IsConfigurationError(err))
}

func TestCallCircuit(t *testing.T) {
	tgt := testutil.FakeTarget(t)
	calls := 0
	b := New(WithTarget(tgt), WithCompiler(countingCompiler(tgt, &calls)))

	custom := circuit.New("bell")
	require.NoError(t, custom.AddQReg("qr", 2))
	require.NoError(t, custom.Append(circuit.Instruction{Name: "cx", Qubits: []circuit.Bit{circuit.Q("qr", 0), circuit.Q("qr", 1)}}))

	s := build(t, b, func(b *Builder) error {
		require.NoError(t, b.X(2))
		require.NoError(t, b.CallCircuit(custom, true))
		assert.Equal(t, 1, calls, "different registers flush the buffer")
		require.NoError(t, b.CallCircuit(custom, true))
		assert.Equal(t, 1, calls, "same registers join the buffer")
		require.NoError(t, b.CallCircuit(custom, false))
		assert.Equal(t, 3, calls)
		return nil
	})
	// The eager cx block is transparent: its first u0 play sits at 160, so it
	// starts at 2880-160 and u0 stops at 2720+1440.
	assert.Equal(t, int64(3*1440-160), s.ChStop(u0))
}

func TestUnknownGateFailsAtFlush(t *testing.T) {
	b := New(WithTarget(testutil.FakeTarget(t)))
	_, err := b.Build(context.Background(), "h", func(b *Builder) error {
		return b.CallGate("h", []int{0}, nil, true)
	})
	assert.True(t, ir.IsValidationError(err))
}

func TestEagerGate(t *testing.T) {
	tgt := testutil.FakeTarget(t)
	calls := 0
	b := New(WithTarget(tgt), WithCompiler(countingCompiler(tgt, &calls)))

	build(t, b, func(b *Builder) error {
		require.NoError(t, b.CallGate("u3", []int{0}, []float64{1, 2, 3}, false))
		assert.Equal(t, 1, calls)
		return nil
	})
}

func TestGateHelpers(t *testing.T) {
	s := build(t, New(WithTarget(testutil.FakeTarget(t))), func(b *Builder) error {
		require.NoError(t, b.U2(0, 3.14159, 0))
		require.NoError(t, b.CX(0, 1))
		require.NoError(t, b.U1(0.3, 1))
		return b.U3(1, 2, 3, 2)
	})
	assert.Equal(t, int64(160+1440), s.ChStop(u0))
	assert.Equal(t, int64(320), s.ChStop(ir.DriveChannel(2)))
}

func TestMeasure(t *testing.T) {
	b := New(WithTarget(testutil.FakeTarget(t)))
	var slots []ir.Channel
	s := build(t, b, func(b *Builder) error {
		var err error
		slots, err = b.Measure([]int{1}, []ir.Channel{ir.MemorySlot(3)})
		return err
	})
	assert.Equal(t, []ir.Channel{ir.MemorySlot(3)}, slots)

	mems := map[int]ir.Channel{}
	for _, ti := range s.Flatten() {
		if ti.Inst.Op == ir.OpAcquire {
			mems[ti.Inst.Channel.Index] = ti.Inst.Mem
		}
	}
	assert.Equal(t, map[int]ir.Channel{1: ir.MemorySlot(3), 0: ir.MemorySlot(0)}, mems)
}

func TestMeasureAll(t *testing.T) {
	var slots []ir.Channel
	s := build(t, New(WithTarget(testutil.FakeTarget(t))), func(b *Builder) error {
		var err error
		slots, err = b.MeasureAll()
		return err
	})
	assert.Equal(t, []ir.Channel{ir.MemorySlot(0), ir.MemorySlot(1), ir.MemorySlot(2)}, slots)
	assert.Equal(t, int64(1200), s.Duration())
}

func TestDelayAndBarrierQubits(t *testing.T) {
	s := build(t, New(WithTarget(testutil.FakeTarget(t))), func(b *Builder) error {
		require.NoError(t, b.DelayQubits(50, 2))
		require.NoError(t, b.BarrierQubits(1, 2))
		return b.Delay(10, d1)
	})
	assert.Equal(t, []int64{0, 50}, starts(s, ir.AcquireChannel(2)))
	assert.Equal(t, []int64{50, 50}, starts(s, d1))
}
