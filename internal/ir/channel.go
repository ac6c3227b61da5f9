package ir

import (
	"fmt"
	"slices"
)

// ChannelKind tags what a Channel addresses.
type ChannelKind uint8

const (
	DriveKind ChannelKind = iota + 1
	MeasureKind
	AcquireKind
	ControlKind
	MemorySlotKind
	RegisterSlotKind
)

var channelPrefixes = map[ChannelKind]string{
	DriveKind:        "d",
	MeasureKind:      "m",
	AcquireKind:      "a",
	ControlKind:      "u",
	MemorySlotKind:   "mem",
	RegisterSlotKind: "reg",
}

// Prefix returns the wire prefix for the kind ("d", "m", "a", "u", "mem", "reg").
func (k ChannelKind) Prefix() string {
	if p, ok := channelPrefixes[k]; ok {
		return p
	}
	return "?"
}

// String implements fmt.Stringer.
func (k ChannelKind) String() string {
	switch k {
	case DriveKind:
		return "drive"
	case MeasureKind:
		return "measure"
	case AcquireKind:
		return "acquire"
	case ControlKind:
		return "control"
	case MemorySlotKind:
		return "memory_slot"
	case RegisterSlotKind:
		return "register_slot"
	default:
		return fmt.Sprintf("ChannelKind(%d)", uint8(k))
	}
}

// Channel is an addressable hardware resource. The zero value is "no channel".
type Channel struct {
	Kind  ChannelKind
	Index int
}

// DriveChannel returns the drive channel for qubit i.
func DriveChannel(i int) Channel { return Channel{Kind: DriveKind, Index: i} }

// MeasureChannel returns the measurement stimulus channel for qubit i.
func MeasureChannel(i int) Channel { return Channel{Kind: MeasureKind, Index: i} }

// AcquireChannel returns the acquisition channel for qubit i.
func AcquireChannel(i int) Channel { return Channel{Kind: AcquireKind, Index: i} }

// ControlChannel returns the i-th control channel.
func ControlChannel(i int) Channel { return Channel{Kind: ControlKind, Index: i} }

// MemorySlot returns classical memory slot i.
func MemorySlot(i int) Channel { return Channel{Kind: MemorySlotKind, Index: i} }

// RegisterSlot returns classical register slot i.
func RegisterSlot(i int) Channel { return Channel{Kind: RegisterSlotKind, Index: i} }

// IsZero reports whether c is the zero Channel.
func (c Channel) IsZero() bool { return c.Kind == 0 }

// IsPulse reports whether c carries pulse envelopes (drive, measure, control).
func (c Channel) IsPulse() bool {
	return c.Kind == DriveKind || c.Kind == MeasureKind || c.Kind == ControlKind
}

// IsClassical reports whether c is a memory or register slot.
func (c Channel) IsClassical() bool {
	return c.Kind == MemorySlotKind || c.Kind == RegisterSlotKind
}

// String returns the wire name, e.g. "d0" or "u3".
func (c Channel) String() string {
	return fmt.Sprintf("%s%d", c.Kind.Prefix(), c.Index)
}

// Compare orders channels by kind, then index.
func (c Channel) Compare(o Channel) int {
	if c.Kind != o.Kind {
		if c.Kind < o.Kind {
			return -1
		}
		return 1
	}
	switch {
	case c.Index < o.Index:
		return -1
	case c.Index > o.Index:
		return 1
	}
	return 0
}

// SortChannels sorts chs in place by (kind, index) and drops duplicates.
func SortChannels(chs []Channel) []Channel {
	slices.SortFunc(chs, Channel.Compare)
	return slices.Compact(chs)
}

// ParseChannel parses a wire name such as "d0", "u12" or "mem3".
func ParseChannel(s string) (Channel, error) {
	for _, k := range []ChannelKind{MemorySlotKind, RegisterSlotKind, DriveKind, MeasureKind, AcquireKind, ControlKind} {
		p := k.Prefix()
		if len(s) <= len(p) || s[:len(p)] != p {
			continue
		}
		var idx int
		if _, err := fmt.Sscanf(s[len(p):], "%d", &idx); err != nil || idx < 0 || fmt.Sprint(idx) != s[len(p):] {
			break
		}
		return Channel{Kind: k, Index: idx}, nil
	}
	return Channel{}, ValidationErrorf("invalid channel name %q", s)
}
