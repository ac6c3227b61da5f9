package program

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/pulsekit/internal/align"
	"github.com/roach88/pulsekit/internal/builder"
	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/compiler"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/lowering"
	"github.com/roach88/pulsekit/internal/schedule"
	"github.com/roach88/pulsekit/internal/store"
	"github.com/roach88/pulsekit/internal/target"
	"github.com/roach88/pulsekit/internal/wire"
)

// Result is a lowered program: exactly one of Pulse and Circuit is set.
type Result struct {
	Pulse   *wire.PulseJob
	Circuit *wire.CircuitJob
}

// Job returns whichever job the result holds.
func (r *Result) Job() any {
	if r.Pulse != nil {
		return r.Pulse
	}
	return r.Circuit
}

// JSON renders the job as indented wire JSON.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Job(), "", "  ")
}

// CanonicalJSON renders the job as canonical JSON for golden comparison.
func (r *Result) CanonicalJSON() ([]byte, error) {
	data, err := json.Marshal(r.Job())
	if err != nil {
		return nil, err
	}
	return ir.CanonicalizeJSON(data)
}

// Record prepares the job for archiving.
func (r *Result) Record() (store.Record, error) {
	if r.Pulse != nil {
		return store.NewPulseRecord(r.Pulse)
	}
	return store.NewCircuitRecord(r.Circuit)
}

// Runner lowers programs.
type Runner struct {
	logger    *slog.Logger
	ids       wire.IDGenerator
	cacheSize int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger passed to every stage.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithIDGenerator sets the job id source.
func WithIDGenerator(ids wire.IDGenerator) Option {
	return func(r *Runner) { r.ids = ids }
}

// WithCacheSize sets how many compiled gate circuits are kept per program.
func WithCacheSize(n int) Option {
	return func(r *Runner) { r.cacheSize = n }
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:       wire.UUIDv7Generator{},
		cacheSize: compiler.DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lower builds and lowers p. Pulse programs need tgt; circuit programs
// ignore it.
func (r *Runner) Lower(ctx context.Context, p *Program, tgt target.Target) (*Result, error) {
	circuits := make(map[string]*circuit.Circuit, len(p.Circuits))
	var ordered []*circuit.Circuit
	for _, def := range p.Circuits {
		c, err := def.Build()
		if err != nil {
			return nil, err
		}
		circuits[def.Name] = c
		ordered = append(ordered, c)
	}

	backend := p.Backend
	if backend == "" {
		backend = p.Target
	}
	l := lowering.New(
		lowering.WithIDGenerator(r.ids),
		lowering.WithLogger(r.logger),
		lowering.WithBackendName(backend),
	)

	if p.Kind == KindCircuit {
		job, err := l.LowerCircuits(ctx, ordered, lowering.CircuitConfig{Shots: p.Run.Shots, Memory: p.Run.Memory})
		if err != nil {
			return nil, err
		}
		return &Result{Circuit: job}, nil
	}

	if tgt == nil {
		return nil, ir.ConfigurationErrorf("pulse program %q needs a target", p.Name)
	}
	schedules, err := r.buildSchedules(ctx, p, tgt, circuits)
	if err != nil {
		return nil, err
	}

	los := make([]lowering.LOConfig, len(p.LOConfigs))
	for i, m := range p.LOConfigs {
		los[i] = lowering.LOConfig{}
		for name, hz := range m {
			ch, err := ir.ParseChannel(name)
			if err != nil {
				return nil, fmt.Errorf("lo_configs[%d]: %w", i, err)
			}
			los[i][ch] = hz
		}
	}

	cfg := lowering.RunConfigFromTarget(tgt)
	cfg.Shots = p.Run.Shots
	cfg.MeasLevel = p.Run.MeasLevel
	cfg.MeasReturn = p.Run.MeasReturn
	cfg.MemorySlotSize = p.Run.MemorySlotSize
	cfg.RepTime = p.Run.RepTime

	job, err := l.LowerSchedules(ctx, lowering.Program{Schedules: schedules, LOConfigs: los}, cfg)
	if err != nil {
		return nil, err
	}
	return &Result{Pulse: job}, nil
}

// env is what steps can refer to by name.
type env struct {
	circuits  map[string]*circuit.Circuit
	schedules map[string]*schedule.Schedule
}

func (r *Runner) buildSchedules(ctx context.Context, p *Program, tgt target.Target, circuits map[string]*circuit.Circuit) ([]*schedule.Schedule, error) {
	comp, err := compiler.NewCached(compiler.NewInstructionMap(tgt, compiler.WithLogger(r.logger)), r.cacheSize)
	if err != nil {
		return nil, err
	}
	e := &env{circuits: circuits, schedules: map[string]*schedule.Schedule{}}

	var out []*schedule.Schedule
	for _, def := range p.Schedules {
		policy := align.Left
		if def.Align != "" {
			if policy, err = align.ParsePolicy(def.Align); err != nil {
				return nil, err
			}
		}
		b := builder.New(
			builder.WithTarget(tgt),
			builder.WithCompiler(comp),
			builder.WithDefaultAlignment(policy),
			builder.WithCompilerSettings(compiler.Settings{Method: p.Run.Method}),
			builder.WithLogger(r.logger),
		)
		s, err := b.Build(ctx, def.Name, func(b *builder.Builder) error {
			return runSteps(b, def.Body, e)
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", def.Name, err)
		}
		e.schedules[def.Name] = s
		if !def.Subroutine {
			out = append(out, s)
		}
	}
	r.logger.Debug("built schedules", "program", p.Name, "schedules", len(out), "cached_circuits", comp.Len())
	return out, nil
}

func runSteps(b *builder.Builder, steps []Step, e *env) error {
	for i, st := range steps {
		if err := runStep(b, st, e); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func runStep(b *builder.Builder, st Step, e *env) error {
	switch {
	case st.Op != "":
		in, err := st.InstructionDef.Instruction()
		if err != nil {
			return err
		}
		return b.Instruction(in)
	case st.Gate != "":
		return b.CallGate(st.Gate, st.Qubits, st.Params, !st.Eager)
	case st.Circuit != "":
		return b.CallCircuit(e.circuits[st.Circuit], !st.Eager)
	case st.Measure != nil:
		var slots []ir.Channel
		if st.Slots != nil {
			slots = make([]ir.Channel, len(st.Slots))
			for i, n := range st.Slots {
				slots[i] = ir.MemorySlot(n)
			}
		}
		_, err := b.Measure(st.Measure, slots)
		return err
	case st.MeasureAll:
		_, err := b.MeasureAll()
		return err
	case st.Call != "":
		return b.CallSchedule(e.schedules[st.Call])
	case st.Block != nil:
		return runBlock(b, st.Block, e)
	default:
		return ir.ValidationErrorf("empty step")
	}
}

func runBlock(b *builder.Builder, blk *Block, e *env) error {
	chs := make([]ir.Channel, len(blk.Channels))
	for i, name := range blk.Channels {
		ch, err := ir.ParseChannel(name)
		if err != nil {
			return err
		}
		chs[i] = ch
	}

	body := func() error { return runSteps(b, blk.Body, e) }
	inner := body
	switch {
	case blk.PhaseOffset != nil:
		inner = func() error { return b.PhaseOffset(*blk.PhaseOffset, body, chs...) }
	case blk.FrequencyOffset != nil:
		inner = func() error { return b.FrequencyOffset(*blk.FrequencyOffset, blk.Compensate, body, chs...) }
	}

	if blk.Pad {
		return b.Pad(inner, chs...)
	}
	if blk.Align == "" {
		return b.Scope(inner)
	}
	policy, err := align.ParsePolicy(blk.Align)
	if err != nil {
		return err
	}
	switch policy {
	case align.Right:
		return b.AlignRight(inner)
	case align.Sequential:
		return b.AlignSequential(inner)
	case align.Group:
		return b.Group(inner)
	case align.Inline:
		return b.Inline(inner)
	default:
		return b.AlignLeft(inner)
	}
}
