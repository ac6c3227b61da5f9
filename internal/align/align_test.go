package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
)

var (
	d0 = ir.DriveChannel(0)
	d1 = ir.DriveChannel(1)
	d2 = ir.DriveChannel(2)
)

func play(t *testing.T, n int, ch ir.Channel) schedule.Component {
	t.Helper()
	samples := make([]complex128, n)
	for i := range samples {
		samples[i] = 0.5
	}
	w, err := ir.SampledWaveform("w", samples)
	require.NoError(t, err)
	in, err := ir.Play(w, ch)
	require.NoError(t, err)
	return schedule.Leaf(in)
}

func starts(s *schedule.Schedule) []int64 {
	var out []int64
	for _, c := range s.Children() {
		out = append(out, c.Offset)
	}
	return out
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{Left, Right, Sequential, Group, Inline} {
		parsed, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	_, err := ParsePolicy("diagonal")
	assert.True(t, ir.IsValidationError(err))
}

func TestAlignLeft(t *testing.T) {
	batch := []schedule.Component{
		play(t, 10, d0),
		play(t, 5, d1),
		play(t, 3, d0),
		play(t, 4, d1),
	}

	s, err := Apply("left", Left, batch)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 0, 10, 5}, starts(s))
	assert.Equal(t, int64(13), s.Duration())
}

func TestAlignLeftBarrierSynchronizes(t *testing.T) {
	batch := []schedule.Component{
		play(t, 10, d0),
		play(t, 2, d1),
		schedule.Leaf(ir.Barrier(d0, d1)),
		play(t, 3, d1),
		play(t, 3, d2),
	}

	s, err := Apply("barrier", Left, batch)
	require.NoError(t, err)

	// d1 waits for d0 at the barrier; d2 is outside the barrier set.
	assert.Equal(t, []int64{0, 0, 10, 10, 0}, starts(s))
}

func TestAlignLeftNoIdleGap(t *testing.T) {
	batch := []schedule.Component{play(t, 4, d0), play(t, 6, d0), play(t, 2, d1)}

	s, err := Apply("gap", Left, batch)
	require.NoError(t, err)

	flat := s.Flatten()
	prevEnd := map[ir.Channel]int64{}
	for _, ti := range flat {
		ch := ti.Inst.Channel
		assert.Equal(t, prevEnd[ch], ti.Start, "start equals latest prior end on %s", ch)
		prevEnd[ch] = ti.Stop()
	}
}

func TestAlignLeftTransparentBlockInterleaves(t *testing.T) {
	inner, err := Apply("inner", Sequential, []schedule.Component{play(t, 5, d0), play(t, 5, d1)})
	require.NoError(t, err)

	s, err := Apply("outer", Left, []schedule.Component{play(t, 5, d1), schedule.Node(inner)})
	require.NoError(t, err)

	// The block's d1 play sits at its own time 5, exactly where the prior d1 play ends.
	assert.Equal(t, []int64{0, 0}, starts(s))
	assert.Equal(t, int64(10), s.Duration())

	inner.SetOpaque(true)
	opaque, err := Apply("outer", Left, []schedule.Component{play(t, 5, d1), schedule.Node(inner)})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 5}, starts(opaque))
}

func TestAlignGroupIsOpaque(t *testing.T) {
	inner := []schedule.Component{play(t, 10, d0), play(t, 2, d1)}

	grouped, err := Apply("g", Group, inner)
	require.NoError(t, err)
	assert.True(t, grouped.Opaque())

	transparent, err := Apply("t", Left, inner)
	require.NoError(t, err)

	withGroup, err := Apply("p", Left, []schedule.Component{schedule.Node(grouped), play(t, 3, d1)})
	require.NoError(t, err)
	withPlain, err := Apply("p", Left, []schedule.Component{schedule.Node(transparent), play(t, 3, d1)})
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 10}, starts(withGroup), "d1 may not slip into the group")
	assert.Equal(t, []int64{0, 2}, starts(withPlain), "d1 follows its own last use")
}

func TestAlignRight(t *testing.T) {
	batch := []schedule.Component{
		play(t, 10, d0),
		play(t, 3, d1),
		play(t, 2, d1),
	}

	s, err := Apply("right", Right, batch)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 5, 8}, starts(s))
	assert.Equal(t, int64(10), s.Duration())
}

func TestAlignRightMirrorsReversedLeft(t *testing.T) {
	batch := []schedule.Component{
		play(t, 7, d0),
		play(t, 3, d1),
		schedule.Leaf(ir.Barrier(d0, d1)),
		play(t, 2, d0),
		play(t, 9, d1),
		play(t, 4, d2),
	}
	reversed := make([]schedule.Component, len(batch))
	for i, c := range batch {
		reversed[len(batch)-1-i] = c
	}

	right, err := Apply("r", Right, batch)
	require.NoError(t, err)
	left, err := Apply("l", Left, reversed)
	require.NoError(t, err)

	total := left.Stop()
	rs := starts(right)
	ls := starts(left)
	for i, c := range batch {
		j := len(batch) - 1 - i
		assert.Equal(t, total-(ls[j]+c.Extent()), rs[i], "component %d", i)
	}
	assert.Equal(t, left.Duration(), right.Duration())
}

func TestAlignRightTransparentBlockInterleaves(t *testing.T) {
	inner, err := Apply("inner", Left, []schedule.Component{play(t, 10, d0), play(t, 2, d1)})
	require.NoError(t, err)

	s, err := Apply("outer", Right, []schedule.Component{schedule.Node(inner), play(t, 5, d1)})
	require.NoError(t, err)

	// d1 is free inside the block after time 2, so the trailing play ends with d0.
	assert.Equal(t, []int64{0, 5}, starts(s))
	assert.Equal(t, int64(10), s.Duration())

	inner.SetOpaque(true)
	opaque, err := Apply("outer", Right, []schedule.Component{schedule.Node(inner), play(t, 5, d1)})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 10}, starts(opaque))
	assert.Equal(t, int64(15), opaque.Duration())
}

func TestAlignSequential(t *testing.T) {
	batch := []schedule.Component{play(t, 4, d0), play(t, 6, d1), play(t, 2, d0), schedule.Leaf(ir.Barrier(d0)), play(t, 3, d2)}

	s, err := Apply("seq", Sequential, batch)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 4, 10, 12, 12}, starts(s))
	assert.Equal(t, int64(4+6+2+3), s.Duration())
}

func TestAlignDeterministic(t *testing.T) {
	batch := []schedule.Component{play(t, 4, d0), play(t, 6, d1), schedule.Leaf(ir.Barrier(d0, d1)), play(t, 2, d0)}
	for _, p := range []Policy{Left, Right, Sequential, Group} {
		a, err := Apply("a", p, batch)
		require.NoError(t, err)
		b, err := Apply("a", p, batch)
		require.NoError(t, err)
		assert.Equal(t, a.Flatten(), b.Flatten(), p.String())
	}
}

func TestPad(t *testing.T) {
	s, err := Apply("s", Left, []schedule.Component{play(t, 10, d0), play(t, 4, d1)})
	require.NoError(t, err)
	gapped := schedule.New("gapped")
	require.NoError(t, gapped.Insert(0, schedule.Node(s)))
	require.NoError(t, gapped.Insert(6, play(t, 2, d1)))

	padded, err := Pad(gapped)
	require.NoError(t, err)

	d1Intervals := padded.Occupancy().Query(d1)
	assert.Equal(t, []schedule.Interval{{Start: 0, Stop: 4}, {Start: 4, Stop: 6}, {Start: 6, Stop: 8}, {Start: 8, Stop: 10}}, d1Intervals)
	assert.Equal(t, []schedule.Interval{{Start: 0, Stop: 10}}, padded.Occupancy().Query(d0))
	assert.Len(t, gapped.Occupancy().Query(d1), 2, "original unchanged")
}

func TestPadSelectedChannels(t *testing.T) {
	s, err := Apply("s", Left, []schedule.Component{play(t, 10, d0)})
	require.NoError(t, err)

	padded, err := Pad(s, d2)
	require.NoError(t, err)
	assert.Equal(t, []schedule.Interval{{Start: 0, Stop: 10}}, padded.Occupancy().Query(d2))

	_, err = Pad(s, ir.MemorySlot(0))
	assert.True(t, ir.IsValidationError(err))
}

func TestPadFromFirstStart(t *testing.T) {
	s := schedule.New("late")
	require.NoError(t, s.Insert(0, play(t, 10, d0)))
	require.NoError(t, s.Insert(4, play(t, 2, d1)))

	padded, err := Pad(s, d1)
	require.NoError(t, err)
	assert.Equal(t, []schedule.Interval{{Start: 4, Stop: 6}, {Start: 6, Stop: 10}}, padded.Occupancy().Query(d1))
}
