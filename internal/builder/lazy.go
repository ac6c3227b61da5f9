package builder

import (
	"fmt"

	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
)

type lazyState uint8

const (
	lazyEmpty lazyState = iota
	lazyPending
)

// lazyCircuit buffers gate-level calls until the next flush point.
type lazyCircuit struct {
	state lazyState
	circ  *circuit.Circuit
}

// accepts reports whether c can be appended to the buffer without a flush.
func (l *lazyCircuit) accepts(c *circuit.Circuit) bool {
	return l.state == lazyEmpty || l.circ.SameRegisters(c)
}

// add appends c's instructions. The caller checks accepts first.
func (l *lazyCircuit) add(c *circuit.Circuit) {
	if l.state == lazyEmpty {
		l.circ = c.Clone()
		l.circ.Name = "lazy"
		l.state = lazyPending
		return
	}
	l.circ.Instructions = append(l.circ.Instructions, c.Clone().Instructions...)
	for k, v := range c.Bindings {
		l.circ.Bindings[k] = v
	}
}

// take empties the buffer and returns what it held.
func (l *lazyCircuit) take() *circuit.Circuit {
	c := l.circ
	*l = lazyCircuit{}
	return c
}

// flush compiles the buffered circuit and appends it to the innermost
// scope. It is a no-op when the buffer is empty.
func (b *Builder) flush(reason string) error {
	if b.lazy.state == lazyEmpty {
		return nil
	}
	sc, err := b.active("flush")
	if err != nil {
		return err
	}
	c := b.lazy.take()
	block, err := b.compile(c)
	if err != nil {
		return b.fail(fmt.Errorf("flushing buffered gates before %s: %w", reason, err))
	}
	b.logger.Debug("flushed buffered gates",
		"reason", reason,
		"gates", len(c.Instructions),
		"duration", block.Duration(),
	)
	sc.batch = append(sc.batch, schedule.Node(block))
	return nil
}

// compile runs the configured compiler with the current settings.
func (b *Builder) compile(c *circuit.Circuit) (*schedule.Schedule, error) {
	if b.compiler == nil {
		if err := b.requireTarget("compile"); err != nil {
			return nil, err
		}
		return nil, ir.ConfigurationErrorf("no gate compiler configured")
	}
	return b.compiler.Compile(b.ctx, c, b.settings)
}
