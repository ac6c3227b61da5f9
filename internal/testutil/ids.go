package testutil

// FixedJobIDGenerator generates the same job id every time.
//
// This enables deterministic lowering and golden snapshot comparison: the
// same program lowered with the same generator produces byte-identical
// wire output.
//
// Thread-safety: FixedJobIDGenerator is stateless and safe for concurrent use.
type FixedJobIDGenerator struct {
	id string
}

// NewFixedJobIDGenerator creates a new fixed job id generator.
//
// If id is empty, Generate() returns "test-job-default".
func NewFixedJobIDGenerator(id string) *FixedJobIDGenerator {
	if id == "" {
		id = "test-job-default"
	}
	return &FixedJobIDGenerator{id: id}
}

// Generate returns the fixed job id.
//
// Implements wire.IDGenerator.
func (g *FixedJobIDGenerator) Generate() string {
	return g.id
}
