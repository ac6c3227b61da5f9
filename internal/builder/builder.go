package builder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/pulsekit/internal/align"
	"github.com/roach88/pulsekit/internal/compiler"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
	"github.com/roach88/pulsekit/internal/target"
)

// Builder assembles one Schedule at a time. It is not safe for concurrent
// use; independent builds use independent Builders.
type Builder struct {
	target        target.Target
	compiler      compiler.Compiler
	defaultPolicy align.Policy
	settings      compiler.Settings
	logger        *slog.Logger

	// Build state, reset when a build ends.
	ctx    context.Context
	stack  []*scope
	lazy   lazyCircuit
	blocks int
	err    error
}

// scope is one open block.
type scope struct {
	name   string
	policy align.Policy
	batch  []schedule.Component

	// pad, when non-nil, pads the aligned block on these channels (all
	// channels when empty).
	pad []ir.Channel
}

// Option configures a Builder.
type Option func(*Builder)

// WithTarget sets the device the program is built for.
func WithTarget(t target.Target) Option {
	return func(b *Builder) { b.target = t }
}

// WithCompiler sets the gate-to-pulse compiler. Defaults to the target's
// instruction map.
func WithCompiler(c compiler.Compiler) Option {
	return func(b *Builder) { b.compiler = c }
}

// WithDefaultAlignment sets the policy of the outermost scope. Defaults to
// align.Left.
func WithDefaultAlignment(p align.Policy) Option {
	return func(b *Builder) { b.defaultPolicy = p }
}

// WithCompilerSettings sets the initial compiler settings.
func WithCompilerSettings(s compiler.Settings) Option {
	return func(b *Builder) { b.settings = s }
}

// WithLogger sets the logger for build diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		defaultPolicy: align.Left,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.compiler == nil && b.target != nil {
		b.compiler = compiler.NewInstructionMap(b.target, compiler.WithLogger(b.logger))
	}
	return b
}

// Build opens the outermost scope, runs fn, and returns the aligned
// schedule. Any error raised inside the build, whether returned by fn or
// swallowed by it, aborts the build: state is reset and no schedule is
// returned.
func (b *Builder) Build(ctx context.Context, name string, fn func(b *Builder) error) (*schedule.Schedule, error) {
	if b.stack != nil {
		return nil, ir.StateErrorf("build %q: a build is already in progress on this builder", name)
	}
	if err := b.settings.Validate(); err != nil {
		return nil, err
	}
	defer b.reset()

	b.ctx = NewContext(ctx, b)
	b.stack = []*scope{{name: name, policy: b.defaultPolicy}}
	b.logger.Debug("build started", "name", name, "policy", b.defaultPolicy.String())

	if err := fn(b); err != nil {
		b.fail(err)
	}
	if b.err != nil {
		b.logger.Debug("build aborted", "name", name, "error", b.err)
		return nil, b.err
	}
	if len(b.stack) != 1 {
		return nil, ir.StateErrorf("build %q: %d scopes left open", name, len(b.stack)-1)
	}

	if err := b.flush("close"); err != nil {
		return nil, err
	}
	root := b.stack[0]
	out, err := b.close(root)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("build finished", "name", name, "duration", out.Duration(), "instructions", out.Len())
	return out, nil
}

func (b *Builder) reset() {
	b.ctx = nil
	b.stack = nil
	b.lazy = lazyCircuit{}
	b.blocks = 0
	b.err = nil
}

// Context returns the build's context, which carries the builder for
// FromContext. It is nil outside a build.
func (b *Builder) Context() context.Context { return b.ctx }

// Enter opens a nested scope with policy p.
func (b *Builder) Enter(p align.Policy) error {
	return b.enter("enter", p, nil)
}

func (b *Builder) enter(op string, p align.Policy, pad []ir.Channel) error {
	if _, err := b.active(op); err != nil {
		return err
	}
	if err := b.flush("enter"); err != nil {
		return err
	}
	b.blocks++
	b.stack = append(b.stack, &scope{
		name:   fmt.Sprintf("%s-%d", p, b.blocks),
		policy: p,
		pad:    pad,
	})
	return nil
}

// Exit closes the innermost nested scope and adds its block to the parent.
func (b *Builder) Exit() error {
	sc, err := b.active("exit")
	if err != nil {
		return err
	}
	if len(b.stack) == 1 {
		return b.fail(ir.StateErrorf("exit: the outermost scope is closed by Build"))
	}
	if err := b.flush("exit"); err != nil {
		return err
	}
	b.stack = b.stack[:len(b.stack)-1]
	parent := b.stack[len(b.stack)-1]

	if sc.policy == align.Inline {
		parent.batch = append(parent.batch, sc.batch...)
		return nil
	}
	block, err := b.close(sc)
	if err != nil {
		return err
	}
	parent.batch = append(parent.batch, schedule.Node(block))
	return nil
}

// close aligns a scope's batch and applies padding.
func (b *Builder) close(sc *scope) (*schedule.Schedule, error) {
	block, err := align.Apply(sc.name, sc.policy, sc.batch)
	if err != nil {
		return nil, b.fail(err)
	}
	if sc.pad != nil {
		opaque := block.Opaque()
		block, err = align.Pad(block, sc.pad...)
		if err != nil {
			return nil, b.fail(err)
		}
		block.SetOpaque(opaque)
	}
	return block, nil
}

// active returns the innermost scope, or a "no active builder" error.
func (b *Builder) active(op string) (*scope, error) {
	if len(b.stack) == 0 {
		return nil, ir.NewNoActiveBuilderError(op)
	}
	return b.stack[len(b.stack)-1], nil
}

// requireTarget fails when no target is configured.
func (b *Builder) requireTarget(op string) error {
	if b.target == nil {
		return ir.NewTargetNotSetError(op)
	}
	return nil
}

// fail records the first error of a build so that Build aborts even when
// the caller drops it.
func (b *Builder) fail(err error) error {
	if err != nil && b.err == nil && b.stack != nil {
		b.err = err
	}
	return err
}

// append flushes the lazy circuit and adds c to the innermost scope.
func (b *Builder) append(op string, c schedule.Component) error {
	sc, err := b.active(op)
	if err != nil {
		return err
	}
	if err := b.flush(op); err != nil {
		return err
	}
	sc.batch = append(sc.batch, c)
	return nil
}

// appendInstruction is append for a freshly constructed instruction.
func (b *Builder) appendInstruction(op string, in ir.Instruction, err error) error {
	if _, aerr := b.active(op); aerr != nil {
		return aerr
	}
	if err != nil {
		return b.fail(err)
	}
	return b.append(op, schedule.Leaf(in))
}
