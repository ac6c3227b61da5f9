package lowering

import (
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/wire"
)

// pulseLibrary deduplicates sample vectors by content hash, keeping
// first-encounter order.
type pulseLibrary struct {
	order   []string
	samples map[string][]complex128
}

func newPulseLibrary() *pulseLibrary {
	return &pulseLibrary{samples: map[string][]complex128{}}
}

// add registers samples and returns their library name.
func (p *pulseLibrary) add(samples []complex128) string {
	name := ir.SampleHash(samples)
	if _, ok := p.samples[name]; !ok {
		p.samples[name] = samples
		p.order = append(p.order, name)
		pulseLibraryEntriesTotal.Inc()
	}
	return name
}

func (p *pulseLibrary) items() []wire.PulseLibraryItem {
	out := make([]wire.PulseLibraryItem, 0, len(p.order))
	for _, name := range p.order {
		s := p.samples[name]
		pairs := make([][2]float64, len(s))
		for i, z := range s {
			pairs[i] = [2]float64{real(z), imag(z)}
		}
		out = append(out, wire.PulseLibraryItem{Name: name, Samples: pairs})
	}
	return out
}
