// Package align turns a relatively ordered batch of components into a fully
// timed Schedule. Every policy is a pure, deterministic function of the batch:
// identical batches always produce identical absolute times.
package align

import (
	"fmt"

	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
)

// Policy selects how a batch is packed in time.
type Policy uint8

const (
	// Left packs every channel as early as possible (ASAP).
	Left Policy = iota + 1
	// Right packs every channel as late as possible (ALAP).
	Right
	// Sequential runs every component after the previous one, regardless of channel.
	Sequential
	// Group left-aligns internally and exposes the result as one opaque unit.
	Group
	// Inline splices the batch into the parent unaligned. The builder resolves
	// it; Apply treats it like Left.
	Inline
)

var policyNames = map[Policy]string{
	Left:       "left",
	Right:      "right",
	Sequential: "sequential",
	Group:      "group",
	Inline:     "inline",
}

// String implements fmt.Stringer.
func (p Policy) String() string {
	if n, ok := policyNames[p]; ok {
		return n
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// ParsePolicy parses a policy name ("left", "right", "sequential", "group", "inline").
func ParsePolicy(s string) (Policy, error) {
	for p, n := range policyNames {
		if n == s {
			return p, nil
		}
	}
	return 0, ir.ValidationErrorf("unknown alignment policy %q", s)
}

// Apply positions batch under policy p and returns the timed schedule.
// Component offsets in batch are ignored; the internal timing of nested
// blocks is preserved.
func Apply(name string, p Policy, batch []schedule.Component) (*schedule.Schedule, error) {
	var starts []int64
	switch p {
	case Left, Inline, Group:
		starts = leftStarts(batch, false)
	case Right:
		starts = rightStarts(batch)
	case Sequential:
		starts = sequentialStarts(batch)
	default:
		return nil, ir.ValidationErrorf("unknown alignment policy %d", p)
	}

	out := schedule.New(name)
	for i, c := range batch {
		if err := out.Insert(starts[i], c); err != nil {
			return nil, fmt.Errorf("align %s: %w", p, err)
		}
	}
	if p == Group {
		out.SetOpaque(true)
	}
	return out, nil
}

// leftStarts computes ASAP start times with one cursor per channel.
//
// A leaf, or any block when opaque is set, starts at the latest cursor over
// its channels and advances all of them to its end. A transparent block may
// interleave: it starts as early as each channel's own cursor allows, and
// each channel's cursor moves to that channel's stop inside the block. A
// barrier is a zero-length leaf, so it synchronizes the cursors of its channels.
func leftStarts(batch []schedule.Component, opaque bool) []int64 {
	return packStarts(batch, opaque, span{
		head: func(b *schedule.Schedule, ch ir.Channel) int64 { return b.ChStart(ch) },
		tail: func(b *schedule.Schedule, ch ir.Channel) int64 { return b.ChStop(ch) },
	})
}

// span reports where a channel's use begins and ends inside a nested block,
// measured from the block origin in the packing direction.
type span struct {
	head func(*schedule.Schedule, ir.Channel) int64
	tail func(*schedule.Schedule, ir.Channel) int64
}

func packStarts(batch []schedule.Component, opaque bool, sp span) []int64 {
	cursor := make(map[ir.Channel]int64)
	starts := make([]int64, len(batch))
	for i, c := range batch {
		chs := c.Channels()
		unit := opaque || c.IsLeaf() || c.Block.Opaque()

		var start int64
		for _, ch := range chs {
			need := cursor[ch]
			if !unit {
				need -= sp.head(c.Block, ch)
			}
			start = max(start, need)
		}
		starts[i] = start

		for _, ch := range chs {
			if unit {
				cursor[ch] = start + c.Extent()
			} else {
				cursor[ch] = start + sp.tail(c.Block, ch)
			}
		}
	}
	return starts
}

// rightStarts packs the reversed batch ASAP, then reflects each start about
// the total duration. Seen backwards, a transparent block's channel begins
// at Stop-ChStop and ends at Stop-ChStart, so nested blocks interleave per
// channel the same way they do under Left.
func rightStarts(batch []schedule.Component) []int64 {
	n := len(batch)
	reversed := make([]schedule.Component, n)
	for i, c := range batch {
		reversed[n-1-i] = c
	}
	rev := packStarts(reversed, false, span{
		head: func(b *schedule.Schedule, ch ir.Channel) int64 { return b.Stop() - b.ChStop(ch) },
		tail: func(b *schedule.Schedule, ch ir.Channel) int64 { return b.Stop() - b.ChStart(ch) },
	})

	var total int64
	for i, c := range reversed {
		total = max(total, rev[i]+c.Extent())
	}

	starts := make([]int64, n)
	for i, c := range reversed {
		starts[n-1-i] = total - (rev[i] + c.Extent())
	}
	return starts
}

// sequentialStarts shares one cursor across all channels.
func sequentialStarts(batch []schedule.Component) []int64 {
	var cursor int64
	starts := make([]int64, len(batch))
	for i, c := range batch {
		starts[i] = cursor
		cursor += c.Extent()
	}
	return starts
}
