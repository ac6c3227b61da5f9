package builder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsekit/internal/align"
	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/compiler"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
	"github.com/roach88/pulsekit/internal/target"
	"github.com/roach88/pulsekit/internal/testutil"
)

var (
	d0 = ir.DriveChannel(0)
	d1 = ir.DriveChannel(1)
	u0 = ir.ControlChannel(0)
)

// countingCompiler wraps the target's instruction map and counts calls.
func countingCompiler(tgt target.Target, calls *int) compiler.Compiler {
	inner := compiler.NewInstructionMap(tgt)
	return compiler.Func(func(ctx context.Context, c *circuit.Circuit, s compiler.Settings) (*schedule.Schedule, error) {
		*calls++
		return inner.Compile(ctx, c, s)
	})
}

func build(t *testing.T, b *Builder, fn func(b *Builder) error) *schedule.Schedule {
	t.Helper()
	s, err := b.Build(context.Background(), "test", fn)
	require.NoError(t, err)
	return s
}

// starts lists the start time of every instruction on ch, in time order.
func starts(s *schedule.Schedule, ch ir.Channel) []int64 {
	var out []int64
	for _, ti := range s.Flatten() {
		for _, c := range ti.Inst.Channels() {
			if c == ch {
				out = append(out, ti.Start)
			}
		}
	}
	return out
}

func TestNoActiveBuilder(t *testing.T) {
	b := New()
	assert.True(t, ir.IsStateError(b.Delay(10, d0)))
	assert.True(t, ir.IsStateError(b.Enter(align.Left)))
	assert.True(t, ir.IsStateError(b.Exit()))
	assert.True(t, ir.IsStateError(b.AlignLeft(func() error { return nil })))

	_, err := FromContext(context.Background())
	assert.True(t, ir.IsStateError(err))
}

func TestTargetNotSet(t *testing.T) {
	b := New()
	_, err := b.DriveChannel(0)
	assert.True(t, ir.IsStateError(err))

	_, err = b.Build(context.Background(), "x", func(b *Builder) error {
		return b.X(0)
	})
	assert.True(t, ir.IsStateError(err))
}

func TestTopologyOutsideBuild(t *testing.T) {
	b := New(WithTarget(testutil.FakeTarget(t)))

	n, err := b.NumQubits()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ch, err := b.MeasureChannel(2)
	require.NoError(t, err)
	assert.Equal(t, ir.MeasureChannel(2), ch)

	ctrl, err := b.ControlChannels(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []ir.Channel{u0}, ctrl)

	_, err = b.AcquireChannel(9)
	assert.True(t, ir.IsValidationError(err))
}

func TestSampleConversions(t *testing.T) {
	b := New(WithTarget(&target.Config{TargetName: "coarse", Qubits: 1, SamplePeriod: 0.25}))

	n, err := b.SecondsToSamples(10.9)
	require.NoError(t, err)
	assert.Equal(t, int64(43), n)

	s, err := b.SamplesToSeconds(6)
	require.NoError(t, err)
	assert.Equal(t, 1.5, s)
}

func TestLeftAlignmentByDefault(t *testing.T) {
	s := build(t, New(), func(b *Builder) error {
		require.NoError(t, b.Delay(10, d0))
		require.NoError(t, b.Delay(5, d1))
		return b.Delay(3, d0)
	})
	assert.Equal(t, []int64{0, 10}, starts(s, d0))
	assert.Equal(t, []int64{0}, starts(s, d1))
	assert.Equal(t, int64(13), s.Duration())
	assert.Equal(t, "test", s.Name)
}

func TestDefaultAlignmentOption(t *testing.T) {
	s := build(t, New(WithDefaultAlignment(align.Sequential)), func(b *Builder) error {
		require.NoError(t, b.Delay(10, d0))
		return b.Delay(5, d1)
	})
	assert.Equal(t, []int64{10}, starts(s, d1))
}

func TestAlignRight(t *testing.T) {
	s := build(t, New(), func(b *Builder) error {
		return b.AlignRight(func() error {
			require.NoError(t, b.Delay(10, d0))
			return b.Delay(4, d1)
		})
	})
	assert.Equal(t, []int64{6}, starts(s, d1))
}

func TestAlignSequential(t *testing.T) {
	s := build(t, New(), func(b *Builder) error {
		return b.AlignSequential(func() error {
			require.NoError(t, b.Delay(10, d0))
			require.NoError(t, b.Delay(4, d1))
			return b.Delay(2, d0)
		})
	})
	assert.Equal(t, int64(16), s.Duration())
	assert.Equal(t, []int64{10}, starts(s, d1))
}

func TestGroupIsOpaque(t *testing.T) {
	body := func(b *Builder) func() error {
		return func() error {
			require.NoError(t, b.Delay(10, d0))
			return b.Delay(2, d1)
		}
	}

	grouped := build(t, New(), func(b *Builder) error {
		require.NoError(t, b.Group(body(b)))
		return b.Delay(3, d1)
	})
	assert.Equal(t, []int64{0, 10}, starts(grouped, d1))

	transparent := build(t, New(), func(b *Builder) error {
		require.NoError(t, b.AlignLeft(body(b)))
		return b.Delay(3, d1)
	})
	assert.Equal(t, []int64{0, 2}, starts(transparent, d1))
}

func TestInlineSplicesInstructions(t *testing.T) {
	s := build(t, New(), func(b *Builder) error {
		require.NoError(t, b.Delay(1, d0))
		return b.Inline(func() error {
			require.NoError(t, b.Delay(2, d0))
			require.NoError(t, b.Delay(3, d1))
			return b.Delay(4, u0)
		})
	})

	children := s.Children()
	require.Len(t, children, 4)
	for _, c := range children {
		assert.True(t, c.IsLeaf())
	}
	assert.Equal(t, []int64{0, 1}, starts(s, d0))
}

func TestScopeInheritsPolicy(t *testing.T) {
	s := build(t, New(), func(b *Builder) error {
		return b.AlignSequential(func() error {
			return b.Scope(func() error {
				require.NoError(t, b.Delay(10, d0))
				return b.Delay(5, d1)
			})
		})
	})
	assert.Equal(t, []int64{10}, starts(s, d1))
}

func TestPad(t *testing.T) {
	s := build(t, New(), func(b *Builder) error {
		return b.Pad(func() error {
			require.NoError(t, b.Delay(10, d0))
			require.NoError(t, b.Delay(2, d1))
			return b.ShiftPhase(1, u0)
		}, d0, d1)
	})
	assert.Equal(t, []int64{0, 2}, starts(s, d1))
	assert.Equal(t, int64(10), s.ChStop(d1))
	assert.Equal(t, []int64{0}, starts(s, u0))
}

func TestRawOperations(t *testing.T) {
	w, err := ir.SampledWaveform("w", []complex128{0.1, 0.1})
	require.NoError(t, err)

	s := build(t, New(), func(b *Builder) error {
		require.NoError(t, b.Play(w, d0))
		require.NoError(t, b.SetFrequency(5e9, d0))
		require.NoError(t, b.ShiftFrequency(1e6, d0))
		require.NoError(t, b.SetPhase(0.5, d0))
		require.NoError(t, b.ShiftPhase(0.5, d0))
		require.NoError(t, b.Acquire(8, ir.AcquireChannel(0), ir.MemorySlot(0)))
		require.NoError(t, b.Acquire(8, ir.AcquireChannel(1), ir.RegisterSlot(0)))
		require.NoError(t, b.Barrier(d0, ir.AcquireChannel(0)))
		return b.Snapshot("end", "statevector")
	})

	ops := map[ir.Op]int{}
	for _, ti := range s.Flatten() {
		ops[ti.Inst.Op]++
	}
	assert.Equal(t, map[ir.Op]int{
		ir.OpPlay: 1, ir.OpSetFrequency: 1, ir.OpShiftFrequency: 1, ir.OpSetPhase: 1,
		ir.OpShiftPhase: 1, ir.OpAcquire: 2, ir.OpBarrier: 1, ir.OpSnapshot: 1,
	}, ops)
}

func TestInvalidOperationsAbortBuild(t *testing.T) {
	tests := []struct {
		name string
		fn   func(b *Builder) error
	}{
		{"acquire into drive channel", func(b *Builder) error {
			return b.Acquire(8, ir.AcquireChannel(0), d0)
		}},
		{"empty barrier", func(b *Builder) error { return b.Barrier() }},
		{"phase on memory slot", func(b *Builder) error { return b.ShiftPhase(1, ir.MemorySlot(0)) }},
		{"negative delay", func(b *Builder) error { return b.Delay(-1, d0) }},
		{"nil schedule", func(b *Builder) error { return b.CallSchedule(nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Build(context.Background(), "bad", tt.fn)
			assert.True(t, ir.IsValidationError(err), "got %v", err)
		})
	}
}

func TestSwallowedErrorStillAborts(t *testing.T) {
	b := New()
	s, err := b.Build(context.Background(), "bad", func(b *Builder) error {
		_ = b.Delay(-1, d0)
		return b.Delay(1, d0)
	})
	assert.Nil(t, s)
	assert.True(t, ir.IsValidationError(err))

	s = build(t, b, func(b *Builder) error { return b.Delay(1, d0) })
	assert.Equal(t, int64(1), s.Duration())
}

func TestCallSchedule(t *testing.T) {
	inner := schedule.New("inner")
	in, err := ir.Delay(10, d0)
	require.NoError(t, err)
	require.NoError(t, inner.Insert(0, schedule.Leaf(in)))

	s := build(t, New(), func(b *Builder) error {
		require.NoError(t, b.Delay(5, d0))
		return b.CallSchedule(inner)
	})
	assert.Equal(t, []int64{0, 5}, starts(s, d0))
	assert.Equal(t, int64(15), s.Duration())
}

func TestBuildStateErrors(t *testing.T) {
	b := New()
	_, err := b.Build(context.Background(), "outer", func(b *Builder) error {
		_, err := b.Build(context.Background(), "inner", func(*Builder) error { return nil })
		return err
	})
	assert.True(t, ir.IsStateError(err))

	_, err = b.Build(context.Background(), "open", func(b *Builder) error {
		return b.Enter(align.Right)
	})
	assert.True(t, ir.IsStateError(err))

	_, err = b.Build(context.Background(), "exit root", func(b *Builder) error {
		return b.Exit()
	})
	assert.True(t, ir.IsStateError(err))
}

func TestIndependentNestedBuilders(t *testing.T) {
	outer := New()
	s := build(t, outer, func(b *Builder) error {
		inner, err := New().Build(context.Background(), "inner", func(ib *Builder) error {
			return ib.Delay(7, d1)
		})
		if err != nil {
			return err
		}
		require.NoError(t, b.Delay(3, d0))
		return b.CallSchedule(inner)
	})
	assert.Equal(t, int64(7), s.Duration())
}

func TestContextCarriesBuilder(t *testing.T) {
	b := New()
	build(t, b, func(b *Builder) error {
		got, err := FromContext(b.Context())
		require.NoError(t, err)
		assert.Same(t, b, got)
		return nil
	})
	assert.Nil(t, b.Context())
}

func TestEnterExit(t *testing.T) {
	s := build(t, New(), func(b *Builder) error {
		require.NoError(t, b.Enter(align.Right))
		require.NoError(t, b.Delay(10, d0))
		require.NoError(t, b.Delay(4, d1))
		return b.Exit()
	})
	assert.Equal(t, []int64{6}, starts(s, d1))
}

func TestPhaseOffset(t *testing.T) {
	s := build(t, New(), func(b *Builder) error {
		return b.PhaseOffset(0.25, func() error {
			return b.Delay(10, d0)
		}, d0)
	})

	var phases []float64
	for _, ti := range s.Flatten() {
		if ti.Inst.Op == ir.OpShiftPhase {
			phases = append(phases, ti.Inst.Value)
		}
	}
	assert.Equal(t, []float64{0.25, -0.25}, phases)
	assert.Equal(t, []int64{0, 0, 10}, starts(s, d0))
}

func TestFrequencyOffsetCompensates(t *testing.T) {
	tgt := testutil.FakeTarget(t)
	s := build(t, New(WithTarget(tgt)), func(b *Builder) error {
		return b.FrequencyOffset(1e6, true, func() error {
			return b.Delay(160, d0)
		}, d0)
	})

	var freqs, phases []float64
	for _, ti := range s.Flatten() {
		switch ti.Inst.Op {
		case ir.OpShiftFrequency:
			freqs = append(freqs, ti.Inst.Value)
		case ir.OpShiftPhase:
			phases = append(phases, ti.Inst.Value)
		}
	}
	assert.Equal(t, []float64{1e6, -1e6}, freqs)
	require.Len(t, phases, 1)
	assert.InDelta(t, -2*math.Pi*math.Mod(tgt.Dt()*160*1e6, 1), phases[0], 1e-12)

	_, err := New().Build(context.Background(), "no target", func(b *Builder) error {
		return b.FrequencyOffset(1e6, true, func() error { return nil }, d0)
	})
	assert.True(t, ir.IsStateError(err))
}
