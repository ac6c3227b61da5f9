package ir

import (
	"fmt"
	"slices"
)

// Op tags an Instruction variant.
type Op uint8

const (
	OpPlay Op = iota + 1
	OpDelay
	OpAcquire
	OpSetFrequency
	OpShiftFrequency
	OpSetPhase
	OpShiftPhase
	OpSnapshot
	OpBarrier
)

// String implements fmt.Stringer.
func (o Op) String() string {
	switch o {
	case OpPlay:
		return "play"
	case OpDelay:
		return "delay"
	case OpAcquire:
		return "acquire"
	case OpSetFrequency:
		return "set_frequency"
	case OpShiftFrequency:
		return "shift_frequency"
	case OpSetPhase:
		return "set_phase"
	case OpShiftPhase:
		return "shift_phase"
	case OpSnapshot:
		return "snapshot"
	case OpBarrier:
		return "barrier"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Processor names a kernel or discriminator attached to an Acquire.
type Processor struct {
	Name   string             `json:"name" yaml:"name"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// Instruction is an atomic operation bound to one or more channels.
//
// Instructions are values: construct them through the Op-specific
// constructors, which validate channel kinds and durations, and never
// mutate them afterwards.
type Instruction struct {
	Op Op

	// Channel is the primary channel. Zero for Snapshot and Barrier.
	Channel Channel

	// Waveform is the envelope of a Play.
	Waveform Waveform

	// Length is the duration of a Delay or Acquire.
	Length int64

	// Value is a frequency in Hz or a phase in radians.
	Value float64

	// Mem and Reg are the classical destinations of an Acquire.
	Mem Channel
	Reg Channel

	Kernel        *Processor
	Discriminator *Processor

	// Label and SnapshotType describe a Snapshot.
	Label        string
	SnapshotType string

	barrier []Channel
}

// Duration returns the intrinsic duration in samples.
func (in Instruction) Duration() int64 {
	switch in.Op {
	case OpPlay:
		return in.Waveform.Duration()
	case OpDelay, OpAcquire:
		return in.Length
	default:
		return 0
	}
}

// Channels returns every channel the instruction occupies.
func (in Instruction) Channels() []Channel {
	switch in.Op {
	case OpBarrier:
		return slices.Clone(in.barrier)
	case OpSnapshot:
		return nil
	case OpAcquire:
		chs := []Channel{in.Channel}
		if !in.Mem.IsZero() {
			chs = append(chs, in.Mem)
		}
		if !in.Reg.IsZero() {
			chs = append(chs, in.Reg)
		}
		return chs
	default:
		return []Channel{in.Channel}
	}
}

// IsDirective reports whether the instruction only constrains ordering.
func (in Instruction) IsDirective() bool { return in.Op == OpBarrier }

// String renders a short description for logs and errors.
func (in Instruction) String() string {
	switch in.Op {
	case OpBarrier:
		return fmt.Sprintf("barrier%v", in.barrier)
	case OpSnapshot:
		return fmt.Sprintf("snapshot(%s)", in.Label)
	default:
		return fmt.Sprintf("%s(%s, %d)", in.Op, in.Channel, in.Duration())
	}
}

func requirePulse(op Op, ch Channel) error {
	if !ch.IsPulse() {
		return ValidationErrorf("%s requires a pulse channel, got %s", op, ch)
	}
	return nil
}

// Play emits waveform w on pulse channel ch.
func Play(w Waveform, ch Channel) (Instruction, error) {
	if err := requirePulse(OpPlay, ch); err != nil {
		return Instruction{}, err
	}
	if w.Duration() <= 0 {
		return Instruction{}, ValidationErrorf("play on %s has an empty waveform", ch)
	}
	return Instruction{Op: OpPlay, Channel: ch, Waveform: w}, nil
}

// Delay idles ch for duration samples.
func Delay(duration int64, ch Channel) (Instruction, error) {
	if duration < 0 {
		return Instruction{}, ValidationErrorf("delay duration must be non-negative, got %d", duration)
	}
	if ch.IsZero() || ch.IsClassical() {
		return Instruction{}, ValidationErrorf("delay cannot target %s", ch)
	}
	return Instruction{Op: OpDelay, Channel: ch, Length: duration}, nil
}

// Acquire records duration samples from acquire channel ch into a memory
// slot, a register slot, or both.
func Acquire(duration int64, ch, mem, reg Channel) (Instruction, error) {
	if duration < 0 {
		return Instruction{}, ValidationErrorf("acquire duration must be non-negative, got %d", duration)
	}
	if ch.Kind != AcquireKind {
		return Instruction{}, ValidationErrorf("acquire requires an acquire channel, got %s", ch)
	}
	if mem.IsZero() && reg.IsZero() {
		return Instruction{}, ValidationErrorf("acquire on %s needs a memory slot or register slot", ch)
	}
	if !mem.IsZero() && mem.Kind != MemorySlotKind {
		return Instruction{}, ValidationErrorf("acquire memory destination must be a memory slot, got %s", mem)
	}
	if !reg.IsZero() && reg.Kind != RegisterSlotKind {
		return Instruction{}, ValidationErrorf("acquire register destination must be a register slot, got %s", reg)
	}
	return Instruction{Op: OpAcquire, Channel: ch, Length: duration, Mem: mem, Reg: reg}, nil
}

// WithProcessors returns a copy of an Acquire carrying kernel and discriminator metadata.
func (in Instruction) WithProcessors(kernel, discriminator *Processor) Instruction {
	in.Kernel = kernel
	in.Discriminator = discriminator
	return in
}

func frameOp(op Op, value float64, ch Channel) (Instruction, error) {
	if err := requirePulse(op, ch); err != nil {
		return Instruction{}, err
	}
	return Instruction{Op: op, Channel: ch, Value: value}, nil
}

// SetFrequency sets the carrier of ch to hz.
func SetFrequency(hz float64, ch Channel) (Instruction, error) {
	return frameOp(OpSetFrequency, hz, ch)
}

// ShiftFrequency offsets the carrier of ch by hz.
func ShiftFrequency(hz float64, ch Channel) (Instruction, error) {
	return frameOp(OpShiftFrequency, hz, ch)
}

// SetPhase sets the frame phase of ch to rad.
func SetPhase(rad float64, ch Channel) (Instruction, error) {
	return frameOp(OpSetPhase, rad, ch)
}

// ShiftPhase advances the frame phase of ch by rad.
func ShiftPhase(rad float64, ch Channel) (Instruction, error) {
	return frameOp(OpShiftPhase, rad, ch)
}

// Snapshot captures simulator state under label.
func Snapshot(label, typ string) Instruction {
	return Instruction{Op: OpSnapshot, Label: label, SnapshotType: typ}
}

// Barrier synchronizes chs without taking time.
func Barrier(chs ...Channel) Instruction {
	return Instruction{Op: OpBarrier, barrier: SortChannels(slices.Clone(chs))}
}
