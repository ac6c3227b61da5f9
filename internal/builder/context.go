package builder

import (
	"context"

	"github.com/roach88/pulsekit/internal/ir"
)

type ctxKey struct{}

// NewContext returns a copy of ctx carrying b.
func NewContext(ctx context.Context, b *Builder) context.Context {
	return context.WithValue(ctx, ctxKey{}, b)
}

// FromContext returns the builder of the build running under ctx. It fails
// with a "no active builder" error when ctx carries none or its build has
// finished.
func FromContext(ctx context.Context) (*Builder, error) {
	b, ok := ctx.Value(ctxKey{}).(*Builder)
	if !ok || b.stack == nil {
		return nil, ir.NewNoActiveBuilderError("context")
	}
	return b, nil
}
