package target

import (
	"github.com/roach88/pulsekit/internal/ir"
)

// PulseDef is the declared form of a waveform: either explicit samples as
// [re, im] pairs or a parametric shape.
type PulseDef struct {
	Name     string      `json:"name,omitempty" yaml:"name,omitempty"`
	Shape    string      `json:"shape,omitempty" yaml:"shape,omitempty"`
	Duration int64       `json:"duration,omitempty" yaml:"duration,omitempty"`
	Amp      []float64   `json:"amp,omitempty" yaml:"amp,omitempty"`
	Sigma    *float64    `json:"sigma,omitempty" yaml:"sigma,omitempty"`
	Width    *float64    `json:"width,omitempty" yaml:"width,omitempty"`
	Beta     *float64    `json:"beta,omitempty" yaml:"beta,omitempty"`
	Samples  [][]float64 `json:"samples,omitempty" yaml:"samples,omitempty"`
}

// Waveform converts the definition into an ir.Waveform.
func (p PulseDef) Waveform() (ir.Waveform, error) {
	if len(p.Samples) > 0 {
		if p.Shape != "" {
			return ir.Waveform{}, ir.ValidationErrorf("pulse %q sets both samples and shape", p.Name)
		}
		samples := make([]complex128, len(p.Samples))
		for i, s := range p.Samples {
			z, err := complexPair(s)
			if err != nil {
				return ir.Waveform{}, ir.ValidationErrorf("pulse %q sample %d: %v", p.Name, i, err)
			}
			samples[i] = z
		}
		return ir.SampledWaveform(p.Name, samples)
	}

	amp, err := complexPair(p.Amp)
	if err != nil {
		return ir.Waveform{}, ir.ValidationErrorf("pulse %q amp: %v", p.Name, err)
	}
	params := map[string]float64{}
	for name, v := range map[string]*float64{"sigma": p.Sigma, "width": p.Width, "beta": p.Beta} {
		if v != nil {
			params[name] = *v
		}
	}
	w, err := ir.ParametricWaveform(p.Shape, p.Duration, amp, params)
	if err != nil {
		return ir.Waveform{}, err
	}
	w.Name = p.Name
	return w, nil
}

func complexPair(v []float64) (complex128, error) {
	switch len(v) {
	case 1:
		return complex(v[0], 0), nil
	case 2:
		return complex(v[0], v[1]), nil
	default:
		return 0, ir.ValidationErrorf("expected [re] or [re, im], got %d values", len(v))
	}
}

// InstructionDef is the declared form of one timed instruction, shared by
// target calibrations and program files.
type InstructionDef struct {
	Op           string    `json:"op" yaml:"op"`
	Ch           string    `json:"ch,omitempty" yaml:"ch,omitempty"`
	T0           int64     `json:"t0,omitempty" yaml:"t0,omitempty"`
	Duration     int64     `json:"duration,omitempty" yaml:"duration,omitempty"`
	Pulse        *PulseDef `json:"pulse,omitempty" yaml:"pulse,omitempty"`
	Phase        float64   `json:"phase,omitempty" yaml:"phase,omitempty"`
	Frequency    float64   `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	MemorySlot   *int      `json:"memory_slot,omitempty" yaml:"memory_slot,omitempty"`
	RegisterSlot *int      `json:"register_slot,omitempty" yaml:"register_slot,omitempty"`
	Channels     []string  `json:"channels,omitempty" yaml:"channels,omitempty"`
	Label        string    `json:"label,omitempty" yaml:"label,omitempty"`
	Type         string    `json:"type,omitempty" yaml:"type,omitempty"`
}

// Instruction converts the definition into an ir.Instruction. T0 is not
// part of the instruction; callers place it.
func (d InstructionDef) Instruction() (ir.Instruction, error) {
	switch d.Op {
	case "snapshot":
		return ir.Snapshot(d.Label, d.Type), nil
	case "barrier":
		chs := make([]ir.Channel, len(d.Channels))
		for i, s := range d.Channels {
			ch, err := ir.ParseChannel(s)
			if err != nil {
				return ir.Instruction{}, err
			}
			chs[i] = ch
		}
		return ir.Barrier(chs...), nil
	}

	ch, err := ir.ParseChannel(d.Ch)
	if err != nil {
		return ir.Instruction{}, err
	}
	switch d.Op {
	case "play":
		if d.Pulse == nil {
			return ir.Instruction{}, ir.ValidationErrorf("play on %s has no pulse", d.Ch)
		}
		w, err := d.Pulse.Waveform()
		if err != nil {
			return ir.Instruction{}, err
		}
		return ir.Play(w, ch)
	case "delay":
		return ir.Delay(d.Duration, ch)
	case "acquire":
		var mem, reg ir.Channel
		if d.MemorySlot != nil {
			mem = ir.MemorySlot(*d.MemorySlot)
		}
		if d.RegisterSlot != nil {
			reg = ir.RegisterSlot(*d.RegisterSlot)
		}
		return ir.Acquire(d.Duration, ch, mem, reg)
	case "shift_phase":
		return ir.ShiftPhase(d.Phase, ch)
	case "set_phase":
		return ir.SetPhase(d.Phase, ch)
	case "set_frequency":
		return ir.SetFrequency(d.Frequency, ch)
	case "shift_frequency":
		return ir.ShiftFrequency(d.Frequency, ch)
	default:
		return ir.Instruction{}, ir.ValidationErrorf("unknown instruction op %q", d.Op)
	}
}
