package lowering

import (
	"io"
	"log/slog"

	"github.com/roach88/pulsekit/internal/wire"
)

// Lowerer holds the collaborators shared by both lowering passes.
type Lowerer struct {
	ids     wire.IDGenerator
	logger  *slog.Logger
	backend string
}

// Option configures a Lowerer.
type Option func(*Lowerer)

// WithIDGenerator sets the job id source. Defaults to UUIDv7.
func WithIDGenerator(ids wire.IDGenerator) Option {
	return func(l *Lowerer) { l.ids = ids }
}

// WithLogger sets the logger for lowering diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lowerer) { l.logger = logger }
}

// WithBackendName sets the backend name written into job headers.
func WithBackendName(name string) Option {
	return func(l *Lowerer) { l.backend = name }
}

// New creates a Lowerer.
func New(opts ...Option) *Lowerer {
	l := &Lowerer{
		ids:    wire.UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}
