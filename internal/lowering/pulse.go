package lowering

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
	"github.com/roach88/pulsekit/internal/target"
	"github.com/roach88/pulsekit/internal/wire"
)

// Defaults for RunConfig fields left at their zero value.
const (
	DefaultMeasLevel  = 2
	DefaultMeasReturn = "avg"
)

// RunConfig carries the device and run settings pulse lowering needs.
// Frequencies are in Hz.
type RunConfig struct {
	QubitLOFreq      []float64
	MeasLOFreq       []float64
	MeasMap          [][]int
	ParametricPulses []string
	Shots            int
	MeasLevel        int
	MeasReturn       string
	MemorySlotSize   int
	RepTime          float64
}

// RunConfigFromTarget fills the device half of a RunConfig from t.
func RunConfigFromTarget(t target.Target) RunConfig {
	return RunConfig{
		QubitLOFreq:      t.QubitLOFreqs(),
		MeasLOFreq:       t.MeasLOFreqs(),
		MeasMap:          t.MeasMap(),
		ParametricPulses: t.ParametricShapes(),
	}
}

func (c RunConfig) withDefaults() RunConfig {
	if c.Shots == 0 {
		c.Shots = DefaultShots
	}
	if c.MeasLevel == 0 {
		c.MeasLevel = DefaultMeasLevel
	}
	if c.MeasReturn == "" {
		c.MeasReturn = DefaultMeasReturn
	}
	return c
}

// Program is the input of pulse lowering: schedules plus optional LO
// overrides.
type Program struct {
	Schedules []*schedule.Schedule
	LOConfigs []LOConfig
}

// LowerSchedules lowers p into one pulse job.
func (l *Lowerer) LowerSchedules(ctx context.Context, p Program, cfg RunConfig) (job *wire.PulseJob, err error) {
	defer func() { observeJob("pulse", err) }()

	if len(p.Schedules) == 0 {
		return nil, ir.ValidationErrorf("no schedules to lower")
	}
	if len(cfg.QubitLOFreq) == 0 {
		return nil, ir.ConfigurationErrorf("qubit_lo_freq must be supplied")
	}
	if len(cfg.MeasLOFreq) == 0 {
		return nil, ir.ConfigurationErrorf("meas_lo_freq must be supplied")
	}
	cfg = cfg.withDefaults()

	los, err := resolveLOs(len(p.Schedules), p.LOConfigs, cfg)
	if err != nil {
		return nil, err
	}

	lib := newPulseLibrary()
	var experiments []wire.PulseExperiment
	for i, s := range p.Schedules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		exp, err := lowerSchedule(s, i, cfg, lib)
		if err != nil {
			return nil, fmt.Errorf("schedule %d (%s): %w", i, s.Name, err)
		}
		experiments = append(experiments, exp)
	}

	experiments = los.apply(experiments)

	job = &wire.PulseJob{
		QobjID:        l.ids.Generate(),
		Type:          wire.TypePulse,
		SchemaVersion: ir.QobjVersion,
		Header:        wire.Header{BackendName: l.backend},
		Config: wire.PulseConfig{
			Shots:            cfg.Shots,
			MemorySlotSize:   cfg.MemorySlotSize,
			MeasLevel:        cfg.MeasLevel,
			MeasReturn:       cfg.MeasReturn,
			RepTime:          cfg.RepTime,
			PulseLibrary:     lib.items(),
			QubitLOFreq:      allToGHz(los.globalQubit),
			MeasLOFreq:       allToGHz(los.globalMeas),
			ParametricPulses: append([]string{}, cfg.ParametricPulses...),
		},
		Experiments: experiments,
	}
	for _, exp := range experiments {
		job.Config.MemorySlots = max(job.Config.MemorySlots, exp.Header.MemorySlots)
	}

	experimentsTotal.WithLabelValues("pulse").Add(float64(len(experiments)))
	l.logger.Debug("lowered schedules",
		"qobj_id", job.QobjID,
		"schedules", len(p.Schedules),
		"experiments", len(experiments),
		"pulse_library", len(job.Config.PulseLibrary),
	)
	return job, nil
}

// acquireKey groups acquires that the hardware performs as one.
type acquireKey struct {
	t0       int64
	duration int64
}

type acquireGroup struct {
	key   acquireKey
	insts []ir.Instruction
}

func lowerSchedule(s *schedule.Schedule, idx int, cfg RunConfig, lib *pulseLibrary) (wire.PulseExperiment, error) {
	var (
		out       []wire.PulseInstruction
		groups    []*acquireGroup
		byKey     = map[acquireKey]*acquireGroup{}
		maxMemory int
	)

	for _, ti := range s.Flatten() {
		in := ti.Inst
		switch in.Op {
		case ir.OpDelay, ir.OpBarrier:
			continue
		case ir.OpAcquire:
			if !in.Mem.IsZero() {
				maxMemory = max(maxMemory, in.Mem.Index)
			}
			key := acquireKey{t0: ti.Start, duration: in.Length}
			g, ok := byKey[key]
			if !ok {
				g = &acquireGroup{key: key}
				byKey[key] = g
				groups = append(groups, g)
			}
			g.insts = append(g.insts, in)
			continue
		}

		wi, err := lowerPulseInstruction(ti, cfg, lib)
		if err != nil {
			return wire.PulseExperiment{}, err
		}
		out = append(out, wi)
	}

	for _, g := range groups {
		if err := validateMeasMap(g, cfg.MeasMap); err != nil {
			return wire.PulseExperiment{}, err
		}
		out = append(out, bundleAcquires(g))
	}

	name := s.Name
	if name == "" {
		name = fmt.Sprintf("Experiment-%d", idx)
	}
	if out == nil {
		out = []wire.PulseInstruction{}
	}
	return wire.PulseExperiment{
		Header:       wire.PulseExperimentHeader{MemorySlots: maxMemory + 1, Name: name},
		Instructions: out,
	}, nil
}

func lowerPulseInstruction(ti schedule.Timed, cfg RunConfig, lib *pulseLibrary) (wire.PulseInstruction, error) {
	in := ti.Inst
	wi := wire.PulseInstruction{Ch: in.Channel.String(), T0: ti.Start}
	value := in.Value

	switch in.Op {
	case ir.OpPlay:
		w := in.Waveform
		if w.IsParametric() && slices.Contains(cfg.ParametricPulses, w.Shape) {
			wi.Name = wire.NameParametric
			wi.PulseShape = w.Shape
			wi.Parameters = w.ParameterList()
			return wi, nil
		}
		wi.Name = lib.add(w.SampleVector())
	case ir.OpShiftPhase:
		wi.Name = wire.NameShiftPhase
		wi.Phase = &value
	case ir.OpSetPhase:
		wi.Name = wire.NameSetPhase
		wi.Phase = &value
	case ir.OpSetFrequency:
		ghz := toGHz(value)
		wi.Name = wire.NameSetFrequency
		wi.Frequency = &ghz
	case ir.OpShiftFrequency:
		ghz := toGHz(value)
		wi.Name = wire.NameShiftFrequency
		wi.Frequency = &ghz
	case ir.OpSnapshot:
		wi.Name = wire.NameSnapshot
		wi.Ch = ""
		wi.Label = in.Label
		wi.Type = in.SnapshotType
	default:
		return wi, ir.ValidationErrorf("instruction %s cannot be lowered", in.Op)
	}
	return wi, nil
}

// bundleAcquires turns one acquire group into a single wire instruction
// with parallel qubit, memory slot and register slot arrays.
func bundleAcquires(g *acquireGroup) wire.PulseInstruction {
	duration := g.key.duration
	wi := wire.PulseInstruction{
		Name:     wire.NameAcquire,
		T0:       g.key.t0,
		Duration: &duration,
	}
	for _, in := range g.insts {
		wi.Qubits = append(wi.Qubits, in.Channel.Index)
		if !in.Mem.IsZero() {
			wi.MemorySlot = append(wi.MemorySlot, in.Mem.Index)
		}
		if !in.Reg.IsZero() {
			wi.RegisterSlot = append(wi.RegisterSlot, in.Reg.Index)
		}
	}
	first := g.insts[0]
	if first.Kernel != nil {
		wi.Kernels = []*ir.Processor{first.Kernel}
	}
	if first.Discriminator != nil {
		wi.Discriminators = []*ir.Processor{first.Discriminator}
	}
	return wi
}
