package schedule

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/roach88/pulsekit/internal/ir"
)

// Interval is the half-open sample range [Start, Stop).
type Interval struct {
	Start int64 `json:"start"`
	Stop  int64 `json:"stop"`
}

// Duration returns Stop - Start.
func (iv Interval) Duration() int64 { return iv.Stop - iv.Start }

// Shift returns iv advanced by offset.
func (iv Interval) Shift(offset int64) Interval {
	return Interval{Start: iv.Start + offset, Stop: iv.Stop + offset}
}

// String implements fmt.Stringer.
func (iv Interval) String() string { return fmt.Sprintf("[%d, %d)", iv.Start, iv.Stop) }

// Occupancy records which intervals each channel is busy for.
//
// Zero-length intervals (barriers, frame changes) are recorded so they show
// up in queries but never conflict with anything.
//
// INVARIANTS:
//   - per-channel slices are sorted by Start, ties kept in insertion order
//   - non-zero intervals on one channel never overlap
type Occupancy struct {
	slots map[ir.Channel][]Interval
}

// NewOccupancy creates an empty tracker.
func NewOccupancy() *Occupancy {
	return &Occupancy{slots: make(map[ir.Channel][]Interval)}
}

// Add records iv on ch. Fails with a scheduling conflict if iv overlaps a
// non-zero interval already recorded on ch; the tracker is unchanged on failure.
func (o *Occupancy) Add(ch ir.Channel, iv Interval) error {
	if iv.Stop < iv.Start {
		return ir.ValidationErrorf("interval %s on %s ends before it starts", iv, ch)
	}
	if err := o.check(ch, iv); err != nil {
		return err
	}
	o.insert(ch, iv)
	return nil
}

// AddInstruction records in on all of its channels, starting at t.
// Either every channel is recorded or none is.
func (o *Occupancy) AddInstruction(t int64, in ir.Instruction) error {
	iv := Interval{Start: t, Stop: t + in.Duration()}
	chs := in.Channels()
	for _, ch := range chs {
		if err := o.check(ch, iv); err != nil {
			return err
		}
	}
	for _, ch := range chs {
		o.insert(ch, iv)
	}
	return nil
}

// Merge records every interval of other advanced by shift.
// Either every interval is recorded or none is.
func (o *Occupancy) Merge(other *Occupancy, shift int64) error {
	for ch, ivs := range other.slots {
		for _, iv := range ivs {
			if err := o.check(ch, iv.Shift(shift)); err != nil {
				return err
			}
		}
	}
	for ch, ivs := range other.slots {
		for _, iv := range ivs {
			o.insert(ch, iv.Shift(shift))
		}
	}
	return nil
}

// Query returns the intervals recorded on ch in time order.
func (o *Occupancy) Query(ch ir.Channel) []Interval {
	return slices.Clone(o.slots[ch])
}

// Channels returns every channel with at least one interval, sorted.
func (o *Occupancy) Channels() []ir.Channel {
	chs := slices.Collect(maps.Keys(o.slots))
	return ir.SortChannels(chs)
}

// Intervals returns a copy of the whole occupancy map.
func (o *Occupancy) Intervals() map[ir.Channel][]Interval {
	out := make(map[ir.Channel][]Interval, len(o.slots))
	for ch, ivs := range o.slots {
		out[ch] = slices.Clone(ivs)
	}
	return out
}

// Start returns the earliest start over chs, or 0 if none is occupied.
func (o *Occupancy) Start(chs ...ir.Channel) int64 {
	var (
		start int64
		found bool
	)
	for _, ch := range chs {
		ivs := o.slots[ch]
		if len(ivs) == 0 {
			continue
		}
		if !found || ivs[0].Start < start {
			start, found = ivs[0].Start, true
		}
	}
	return start
}

// Stop returns the latest stop over chs, or 0 if none is occupied.
func (o *Occupancy) Stop(chs ...ir.Channel) int64 {
	var stop int64
	for _, ch := range chs {
		for _, iv := range o.slots[ch] {
			stop = max(stop, iv.Stop)
		}
	}
	return stop
}

// Clone returns an independent copy.
func (o *Occupancy) Clone() *Occupancy {
	return &Occupancy{slots: o.Intervals()}
}

// check returns a conflict error if iv overlaps a non-zero interval on ch.
// Non-zero intervals on a channel are disjoint and sorted, so only the last
// one starting before iv.Stop can overlap.
func (o *Occupancy) check(ch ir.Channel, iv Interval) error {
	if iv.Duration() == 0 {
		return nil
	}
	ivs := o.slots[ch]
	i := sort.Search(len(ivs), func(k int) bool { return ivs[k].Start >= iv.Stop })
	for j := i - 1; j >= 0; j-- {
		ex := ivs[j]
		if ex.Duration() == 0 {
			continue
		}
		if ex.Stop > iv.Start {
			return ir.NewConflictError(ch, iv.Start, iv.Stop, ex.Start, ex.Stop)
		}
		break
	}
	return nil
}

func (o *Occupancy) insert(ch ir.Channel, iv Interval) {
	ivs := o.slots[ch]
	i := sort.Search(len(ivs), func(k int) bool { return ivs[k].Start > iv.Start })
	o.slots[ch] = slices.Insert(ivs, i, iv)
}
