package compiler

import (
	"slices"

	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
	"github.com/roach88/pulsekit/internal/target"
)

// MeasureSchedule builds the measurement of qubits into slots (memory or
// register slots, paired by position). Every must-acquire-together group
// touched by qubits is measured whole; group members that were not asked
// for are acquired into the lowest memory slots nobody else uses.
func MeasureSchedule(t target.Target, qubits []int, slots []ir.Channel) (*schedule.Schedule, error) {
	if len(qubits) != len(slots) {
		return nil, ir.ValidationErrorf("measure: %d qubits but %d slots", len(qubits), len(slots))
	}

	slotOf := make(map[int]ir.Channel, len(qubits))
	usedMem := map[int]bool{}
	for i, q := range qubits {
		slot := slots[i]
		if !slot.IsClassical() {
			return nil, ir.ValidationErrorf("measure: %s is not a memory or register slot", slot)
		}
		if _, dup := slotOf[q]; dup {
			return nil, ir.ValidationErrorf("measure: qubit %d listed twice", q)
		}
		slotOf[q] = slot
		if slot.Kind == ir.MemorySlotKind {
			usedMem[slot.Index] = true
		}
	}

	out := schedule.New("measure")
	covered := map[int]bool{}
	for _, group := range t.MeasMap() {
		if !slices.ContainsFunc(group, func(q int) bool { _, ok := slotOf[q]; return ok }) {
			continue
		}
		cal, err := t.Calibration("measure", group...)
		if err != nil {
			return nil, err
		}

		spare := spareSlots(slices.Max(group)+1+len(qubits), usedMem)
		for _, ti := range cal.Flatten() {
			in := ti.Inst
			if in.Op == ir.OpAcquire {
				q := in.Channel.Index
				var mem, reg ir.Channel
				if slot, ok := slotOf[q]; ok {
					if slot.Kind == ir.MemorySlotKind {
						mem = slot
					} else {
						reg = slot
					}
				} else {
					if len(spare) == 0 {
						return nil, ir.ValidationErrorf("measure: no spare memory slot for qubit %d", q)
					}
					mem, spare = ir.MemorySlot(spare[0]), spare[1:]
					usedMem[mem.Index] = true
				}
				remapped, err := ir.Acquire(in.Length, in.Channel, mem, reg)
				if err != nil {
					return nil, err
				}
				in = remapped.WithProcessors(in.Kernel, in.Discriminator)
			}
			if err := out.Insert(ti.Start, schedule.Leaf(in)); err != nil {
				return nil, err
			}
		}
		for _, q := range group {
			covered[q] = true
		}
	}

	for _, q := range qubits {
		if !covered[q] {
			return nil, ir.ValidationErrorf("measure: qubit %d is not in the target's measurement map", q)
		}
	}
	return out, nil
}

// MeasureGroupQubits returns every qubit that shares a must-acquire-together
// group with any of qubits, sorted.
func MeasureGroupQubits(t target.Target, qubits []int) []int {
	var out []int
	for _, group := range t.MeasMap() {
		if slices.ContainsFunc(group, func(q int) bool { return slices.Contains(qubits, q) }) {
			out = append(out, group...)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func spareSlots(limit int, used map[int]bool) []int {
	var out []int
	for i := 0; i < limit; i++ {
		if !used[i] {
			out = append(out, i)
		}
	}
	return out
}
