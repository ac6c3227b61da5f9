package program

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/testutil"
	"github.com/roach88/pulsekit/internal/wire"
)

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`
name: p
kind: pulse
schedule: []
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing name", `kind: pulse`, "name is required"},
		{"bad kind", "name: p\nkind: analog", "kind must be"},
		{"no schedules", "name: p\nkind: pulse", "schedules list is required"},
		{"no circuits", "name: p\nkind: circuit", "circuits list is required"},
		{"circuit with schedules", `
name: p
kind: circuit
circuits: [{name: c, qregs: [{name: q, size: 1}], instructions: []}]
schedules: [{name: s, body: []}]
`, "take no schedules"},
		{"bad method", `
name: p
kind: pulse
run: {method: never}
schedules: [{name: s, body: []}]
`, "unknown scheduling method"},
		{"two kinds in one step", `
name: p
kind: pulse
schedules: [{name: s, body: [{gate: x, qubits: [0], measure: [0]}]}]
`, "exactly one of"},
		{"empty step", `
name: p
kind: pulse
schedules: [{name: s, body: [{}]}]
`, "exactly one of"},
		{"t0 in step", `
name: p
kind: pulse
schedules: [{name: s, body: [{op: delay, ch: d0, duration: 4, t0: 8}]}]
`, "t0 is not allowed"},
		{"unknown circuit", `
name: p
kind: pulse
schedules: [{name: s, body: [{circuit: bell}]}]
`, "unknown circuit"},
		{"forward call", `
name: p
kind: pulse
schedules:
  - {name: a, body: [{call: b}]}
  - {name: b, body: []}
`, "unknown schedule"},
		{"padded right block", `
name: p
kind: pulse
schedules: [{name: s, body: [{block: {align: right, pad: true, body: []}}]}]
`, "left-aligned"},
		{"offset without channels", `
name: p
kind: pulse
schedules: [{name: s, body: [{block: {phase_offset: 1.0, body: []}}]}]
`, "need channels"},
		{"bad block policy", `
name: p
kind: pulse
schedules: [{name: s, body: [{block: {align: diagonal, body: []}}]}]
`, "unknown alignment policy"},
		{"slot count", `
name: p
kind: pulse
schedules: [{name: s, body: [{measure: [0, 1], slots: [0]}]}]
`, "2 qubits but 1 slots"},
		{"only subroutines", `
name: p
kind: pulse
schedules: [{name: s, subroutine: true, body: []}]
`, "nothing to lower"},
		{"duplicate schedule", `
name: p
kind: pulse
schedules: [{name: s, body: []}, {name: s, body: []}]
`, "duplicate schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFileResolvesTargets(t *testing.T) {
	p, err := LoadFile(filepath.Join("testdata", "programs", "measure_x.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "targets"), p.Targets)

	tgt, err := LoadTarget(p)
	require.NoError(t, err)
	assert.Equal(t, "fake3q", tgt.Name())

	_, err = LoadFile(filepath.Join("testdata", "programs", "missing.yaml"))
	assert.Error(t, err)
}

func lower(t *testing.T, src string) *wire.PulseJob {
	t.Helper()
	p, err := Parse([]byte(src))
	require.NoError(t, err)
	res, err := NewRunner(WithIDGenerator(testutil.NewFixedJobIDGenerator(""))).
		Lower(context.Background(), p, testutil.FakeTarget(t))
	require.NoError(t, err)
	require.NotNil(t, res.Pulse)
	return res.Pulse
}

func byName(insts []wire.PulseInstruction, name string) []wire.PulseInstruction {
	var out []wire.PulseInstruction
	for _, in := range insts {
		if in.Name == name {
			out = append(out, in)
		}
	}
	return out
}

func TestLowerSubroutinesAndBlocks(t *testing.T) {
	job := lower(t, `
name: blocks
kind: pulse
target: fake3q
schedules:
  - name: flip
    subroutine: true
    body:
      - gate: x
        qubits: [1]
  - name: main
    body:
      - block:
          align: right
          body:
            - {op: delay, ch: d0, duration: 100}
            - {op: shift_phase, ch: d1, phase: 0.5}
      - block:
          phase_offset: 1.5
          channels: [d2]
          body:
            - {op: delay, ch: d2, duration: 10}
      - call: flip
`)

	require.Len(t, job.Experiments, 1)
	exp := job.Experiments[0]
	assert.Equal(t, "main", exp.Header.Name)

	fcs := byName(exp.Instructions, wire.NameShiftPhase)
	require.Len(t, fcs, 3)
	assert.Equal(t, "d2", fcs[0].Ch)
	assert.Equal(t, 1.5, *fcs[0].Phase)
	assert.Equal(t, -1.5, *fcs[1].Phase)
	assert.Equal(t, int64(10), fcs[1].T0)
	assert.Equal(t, "d1", fcs[2].Ch)
	assert.Equal(t, int64(100), fcs[2].T0)

	plays := byName(exp.Instructions, wire.NameParametric)
	require.Len(t, plays, 1)
	assert.Equal(t, "d1", plays[0].Ch)
	assert.Equal(t, int64(100), plays[0].T0)
}

func TestLowerCircuitStepAndSweep(t *testing.T) {
	job := lower(t, `
name: sweep
kind: pulse
target: fake3q
lo_configs:
  - {d0: 4.9e9}
  - {d0: 4.95e9}
  - {d0: 5.0e9}
circuits:
  - name: bell
    qregs: [{name: q, size: 2}]
    instructions:
      - {name: sx, qubits: ["q[0]"]}
      - {name: cx, qubits: ["q[0]", "q[1]"]}
schedules:
  - name: main
    body:
      - circuit: bell
      - measure_all: true
`)

	require.Len(t, job.Experiments, 3)
	assert.Equal(t, []float64{4.9, 5.1, 5.2}, job.Experiments[0].Config.QubitLOFreq)
	assert.Equal(t, []float64{4.95, 5.1, 5.2}, job.Experiments[1].Config.QubitLOFreq)
	assert.Equal(t, []float64{5, 5.1, 5.2}, job.Config.QubitLOFreq)

	// Both meas-map groups acquire over the same (t0, duration), so they
	// share one acquire instruction.
	acq := byName(job.Experiments[0].Instructions, wire.NameAcquire)
	require.Len(t, acq, 1)
	assert.ElementsMatch(t, []int{0, 1, 2}, acq[0].Qubits)
	assert.ElementsMatch(t, []int{0, 1, 2}, acq[0].MemorySlot)
	assert.Equal(t, 3, job.Config.MemorySlots)
}

func TestLowerPulseNeedsTarget(t *testing.T) {
	p, err := Parse([]byte("name: p\nkind: pulse\nschedules: [{name: s, body: []}]"))
	require.NoError(t, err)

	_, err = NewRunner().Lower(context.Background(), p, nil)
	assert.True(t, ir.IsConfigurationError(err))
}

func TestLowerReportsStepErrors(t *testing.T) {
	p, err := Parse([]byte(`
name: p
kind: pulse
schedules: [{name: s, body: [{gate: h, qubits: [0], eager: true}]}]
`))
	require.NoError(t, err)

	_, err = NewRunner().Lower(context.Background(), p, testutil.FakeTarget(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule s")
	assert.True(t, ir.IsValidationError(err))
}

func TestResultRecord(t *testing.T) {
	p, err := LoadFile(filepath.Join("testdata", "programs", "conditional.yaml"))
	require.NoError(t, err)

	res, err := LowerFile(context.Background(), p, WithIDGenerator(testutil.NewFixedJobIDGenerator("job-7")))
	require.NoError(t, err)
	require.NotNil(t, res.Circuit)

	rec, err := res.Record()
	require.NoError(t, err)
	assert.Equal(t, "job-7", rec.ID)
	assert.Equal(t, wire.TypeCircuit, rec.Kind)
	assert.Equal(t, "fake3q", rec.Backend)

	data, err := res.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"qobj_id": "job-7"`)
}

func TestCircuitDefBuild(t *testing.T) {
	def := CircuitDef{
		Name:     "u",
		QRegs:    []circuit.Register{{Name: "q", Size: 1}},
		Bindings: map[string]float64{"phi": 2},
		Instructions: []GateDef{
			{Name: "u1", Qubits: []string{"q[0]"}, Params: []string{"phi / 2"}},
			{Name: "unitary", Qubits: []string{"q[0]"}, Matrix: [][][]float64{{{0, 0}, {1, 0}}, {{1, 0}, {0, 0}}}},
		},
	}
	c, err := def.Build()
	require.NoError(t, err)
	require.Len(t, c.Instructions, 2)

	v, err := c.Instructions[0].Params[0].Eval(c.Bindings)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	assert.True(t, c.Instructions[1].Params[0].IsMatrix())

	for _, bad := range []string{"q0", "q[x]", "[0]", "q[0"} {
		def := CircuitDef{Name: "b", QRegs: []circuit.Register{{Name: "q", Size: 1}},
			Instructions: []GateDef{{Name: "x", Qubits: []string{bad}}}}
		_, err := def.Build()
		assert.True(t, ir.IsValidationError(err), bad)
	}
}
