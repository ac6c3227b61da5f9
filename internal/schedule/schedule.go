package schedule

import (
	"slices"

	"github.com/roach88/pulsekit/internal/ir"
)

// Component is one child of a Schedule: either a single instruction (leaf)
// or a nested schedule (node), positioned at Offset relative to its parent.
type Component struct {
	Offset int64
	Inst   ir.Instruction
	Block  *Schedule
}

// Leaf wraps an instruction as a component at offset 0.
func Leaf(in ir.Instruction) Component { return Component{Inst: in} }

// Node wraps a schedule as a component at offset 0.
func Node(s *Schedule) Component { return Component{Block: s} }

// IsLeaf reports whether c holds a single instruction.
func (c Component) IsLeaf() bool { return c.Block == nil }

// At returns c positioned at offset.
func (c Component) At(offset int64) Component {
	c.Offset = offset
	return c
}

// Extent is the span of c measured from its own origin: an instruction's
// duration, or a nested block's stop time.
func (c Component) Extent() int64 {
	if c.IsLeaf() {
		return c.Inst.Duration()
	}
	return c.Block.Stop()
}

// Channels returns the channels c occupies.
func (c Component) Channels() []ir.Channel {
	if c.IsLeaf() {
		return c.Inst.Channels()
	}
	return c.Block.Channels()
}

// occupancy returns c's intervals relative to its own origin.
func (c Component) occupancy() (*Occupancy, error) {
	if !c.IsLeaf() {
		return c.Block.occ, nil
	}
	occ := NewOccupancy()
	if err := occ.AddInstruction(0, c.Inst); err != nil {
		return nil, err
	}
	return occ, nil
}

// Schedule is an ordered composite of timed instructions and nested
// schedules. Derived quantities (start, stop, occupancy) are maintained
// incrementally as children are added.
//
// INVARIANTS:
//   - no two non-zero-duration instructions on one channel overlap
//   - children keep insertion order; Flatten orders by time
type Schedule struct {
	Name string

	children []Component
	occ      *Occupancy
	start    int64
	stop     int64
	leaves   int
	opaque   bool
}

// New creates an empty schedule.
func New(name string) *Schedule {
	return &Schedule{Name: name, occ: NewOccupancy()}
}

// Append places c at the schedule's current stop time.
func (s *Schedule) Append(c Component) error {
	return s.Insert(s.stop, c)
}

// Insert places c at absolute time t (relative to this schedule's origin).
// Fails with a scheduling conflict on overlap; s is unchanged on failure.
func (s *Schedule) Insert(t int64, c Component) error {
	if t < 0 {
		return ir.ValidationErrorf("cannot insert at negative time %d", t)
	}
	c.Offset = t
	occ, err := c.occupancy()
	if err != nil {
		return err
	}
	if err := s.occ.Merge(occ, t); err != nil {
		return err
	}
	s.record(c)
	return nil
}

func (s *Schedule) record(c Component) {
	start, stop, leaves := c.Offset, c.Offset+c.Extent(), 1
	if !c.IsLeaf() {
		start, leaves = c.Offset+c.Block.Start(), c.Block.leaves
	}
	if leaves > 0 {
		if s.leaves == 0 || start < s.start {
			s.start = start
		}
		s.stop = max(s.stop, stop)
	}
	s.leaves += leaves
	s.children = append(s.children, c)
}

// Children returns the direct children in insertion order.
func (s *Schedule) Children() []Component { return slices.Clone(s.children) }

// Len returns the number of leaf instructions in the whole tree.
func (s *Schedule) Len() int { return s.leaves }

// Start is the earliest leaf start, or 0 for an empty schedule.
func (s *Schedule) Start() int64 { return s.start }

// Stop is the latest leaf end, or 0 for an empty schedule.
func (s *Schedule) Stop() int64 { return s.stop }

// Duration is Stop - Start.
func (s *Schedule) Duration() int64 { return s.stop - s.start }

// Channels returns every channel used anywhere in the tree, sorted.
func (s *Schedule) Channels() []ir.Channel { return s.occ.Channels() }

// ChStart returns the earliest time any of chs is used.
func (s *Schedule) ChStart(chs ...ir.Channel) int64 { return s.occ.Start(chs...) }

// ChStop returns the latest time any of chs is used.
func (s *Schedule) ChStop(chs ...ir.Channel) int64 { return s.occ.Stop(chs...) }

// Occupancy returns a copy of the per-channel interval sets.
func (s *Schedule) Occupancy() *Occupancy { return s.occ.Clone() }

// Opaque reports whether parents must treat s as one indivisible unit.
func (s *Schedule) Opaque() bool { return s.opaque }

// SetOpaque marks s as indivisible for the alignment of its parent.
func (s *Schedule) SetOpaque(opaque bool) { s.opaque = opaque }

// Shifted returns an equivalent schedule with every start time advanced by
// offset. s itself is not modified.
func (s *Schedule) Shifted(offset int64) (*Schedule, error) {
	if s.leaves > 0 && s.start+offset < 0 {
		return nil, ir.ValidationErrorf("shift by %d moves schedule %q before time 0", offset, s.Name)
	}
	out := New(s.Name)
	out.opaque = s.opaque
	for _, c := range s.children {
		if err := out.Insert(c.Offset+offset, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}
