package program

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden lowers the program file at path and compares its canonical
// JSON against testdata/golden/{program name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/program -update
//
// Pass WithIDGenerator with a fixed generator; a random job id never
// matches a golden file.
func RunWithGolden(t *testing.T, path string, opts ...Option) error {
	t.Helper()

	p, err := LoadFile(path)
	if err != nil {
		return err
	}
	result, err := LowerFile(context.Background(), p, opts...)
	if err != nil {
		return err
	}
	data, err := result.CanonicalJSON()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, p.Name, data)
	return nil
}

// LowerFile lowers a loaded program, loading its target first when it is a
// pulse program.
func LowerFile(ctx context.Context, p *Program, opts ...Option) (*Result, error) {
	runner := NewRunner(opts...)
	if p.Kind == KindCircuit {
		return runner.Lower(ctx, p, nil)
	}
	tgt, err := LoadTarget(p)
	if err != nil {
		return nil, err
	}
	return runner.Lower(ctx, p, tgt)
}
