package builder

import (
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
)

// Play appends a waveform played on a pulse channel.
func (b *Builder) Play(w ir.Waveform, ch ir.Channel) error {
	in, err := ir.Play(w, ch)
	return b.appendInstruction("play", in, err)
}

// Delay appends an idle period on ch.
func (b *Builder) Delay(duration int64, ch ir.Channel) error {
	in, err := ir.Delay(duration, ch)
	return b.appendInstruction("delay", in, err)
}

// Acquire appends an acquisition on an acquire channel into slot, which
// must be a memory or register slot.
func (b *Builder) Acquire(duration int64, ch, slot ir.Channel) error {
	var (
		in  ir.Instruction
		err error
	)
	switch slot.Kind {
	case ir.MemorySlotKind:
		in, err = ir.Acquire(duration, ch, slot, ir.Channel{})
	case ir.RegisterSlotKind:
		in, err = ir.Acquire(duration, ch, ir.Channel{}, slot)
	default:
		err = ir.ValidationErrorf("acquire: slot %s must be a memory or register slot", slot)
	}
	return b.appendInstruction("acquire", in, err)
}

// SetFrequency sets the frame frequency of ch, in Hz.
func (b *Builder) SetFrequency(hz float64, ch ir.Channel) error {
	in, err := ir.SetFrequency(hz, ch)
	return b.appendInstruction("set_frequency", in, err)
}

// ShiftFrequency shifts the frame frequency of ch, in Hz.
func (b *Builder) ShiftFrequency(hz float64, ch ir.Channel) error {
	in, err := ir.ShiftFrequency(hz, ch)
	return b.appendInstruction("shift_frequency", in, err)
}

// SetPhase sets the frame phase of ch, in radians.
func (b *Builder) SetPhase(rad float64, ch ir.Channel) error {
	in, err := ir.SetPhase(rad, ch)
	return b.appendInstruction("set_phase", in, err)
}

// ShiftPhase shifts the frame phase of ch, in radians.
func (b *Builder) ShiftPhase(rad float64, ch ir.Channel) error {
	in, err := ir.ShiftPhase(rad, ch)
	return b.appendInstruction("shift_phase", in, err)
}

// Snapshot appends a simulator snapshot.
func (b *Builder) Snapshot(label, typ string) error {
	return b.appendInstruction("snapshot", ir.Snapshot(label, typ), nil)
}

// Instruction appends an already constructed instruction.
func (b *Builder) Instruction(in ir.Instruction) error {
	return b.appendInstruction("instruction", in, nil)
}

// Barrier synchronizes chs: nothing after the barrier on any of them starts
// before everything before it has finished.
func (b *Builder) Barrier(chs ...ir.Channel) error {
	if len(chs) == 0 {
		if _, err := b.active("barrier"); err != nil {
			return err
		}
		return b.fail(ir.ValidationErrorf("barrier needs at least one channel"))
	}
	return b.appendInstruction("barrier", ir.Barrier(chs...), nil)
}

// BarrierQubits places a barrier over every channel of qubits.
func (b *Builder) BarrierQubits(qubits ...int) error {
	chs, err := b.qubitChannels("barrier", qubits)
	if err != nil {
		return err
	}
	return b.Barrier(chs...)
}

// CallSchedule appends an already built schedule as one block.
func (b *Builder) CallSchedule(s *schedule.Schedule) error {
	if _, err := b.active("call"); err != nil {
		return err
	}
	if s == nil {
		return b.fail(ir.ValidationErrorf("call: nil schedule"))
	}
	return b.append("call", schedule.Node(s))
}

func (b *Builder) qubitChannels(op string, qubits []int) ([]ir.Channel, error) {
	if _, err := b.active(op); err != nil {
		return nil, err
	}
	if err := b.requireTarget(op); err != nil {
		return nil, b.fail(err)
	}
	var out []ir.Channel
	for _, q := range qubits {
		chs, err := b.target.QubitChannels(q)
		if err != nil {
			return nil, b.fail(err)
		}
		out = append(out, chs...)
	}
	return ir.SortChannels(out), nil
}
