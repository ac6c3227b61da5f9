package schedule

import (
	"slices"

	"github.com/roach88/pulsekit/internal/ir"
)

// Timed is an instruction at an absolute start time.
type Timed struct {
	Start int64
	Inst  ir.Instruction
}

// Stop returns Start plus the instruction's duration.
func (t Timed) Stop() int64 { return t.Start + t.Inst.Duration() }

// Flatten returns every leaf instruction with its absolute start, ordered by
// start time. Instructions with equal start keep their recording order.
func (s *Schedule) Flatten() []Timed {
	out := make([]Timed, 0, s.leaves)
	out = flattenInto(out, s, 0)
	slices.SortStableFunc(out, func(a, b Timed) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})
	return out
}

func flattenInto(out []Timed, s *Schedule, offset int64) []Timed {
	for _, c := range s.children {
		if c.IsLeaf() {
			out = append(out, Timed{Start: offset + c.Offset, Inst: c.Inst})
			continue
		}
		out = flattenInto(out, c.Block, offset+c.Offset)
	}
	return out
}

// FromTimed builds a flat schedule from absolute timed instructions.
func FromTimed(name string, timed []Timed) (*Schedule, error) {
	s := New(name)
	for _, t := range timed {
		if err := s.Insert(t.Start, Leaf(t.Inst)); err != nil {
			return nil, err
		}
	}
	return s, nil
}
