package compiler

import (
	"context"

	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
)

// Scheduling methods.
const (
	MethodASAP = "asap"
	MethodALAP = "alap"
)

// Settings are the knobs a builder scope can change for the gates it
// compiles.
type Settings struct {
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
}

// Validate rejects unknown scheduling methods.
func (s Settings) Validate() error {
	switch s.Method {
	case "", MethodASAP, MethodALAP:
		return nil
	default:
		return ir.ConfigurationErrorf("unknown scheduling method %q", s.Method)
	}
}

// method returns the effective scheduling method.
func (s Settings) method() string {
	if s.Method == "" {
		return MethodASAP
	}
	return s.Method
}

// Compiler lowers a circuit to a pulse schedule. Implementations must be
// deterministic: equal inputs produce equal schedules.
type Compiler interface {
	Compile(ctx context.Context, c *circuit.Circuit, s Settings) (*schedule.Schedule, error)
}

// Func adapts a function to the Compiler interface.
type Func func(ctx context.Context, c *circuit.Circuit, s Settings) (*schedule.Schedule, error)

// Compile implements Compiler.
func (f Func) Compile(ctx context.Context, c *circuit.Circuit, s Settings) (*schedule.Schedule, error) {
	return f(ctx, c, s)
}
