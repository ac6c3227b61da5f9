package lowering

import (
	"slices"

	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/wire"
)

// LOConfig overrides LO frequencies (Hz) by drive or measure channel.
type LOConfig map[ir.Channel]float64

// loPlan is the resolved frequency layout of one job.
type loPlan struct {
	globalQubit []float64
	globalMeas  []float64

	// perExperiment is empty, or holds one config per emitted experiment.
	perExperiment []*wire.PulseExperimentConfig
	sweep         bool
}

// resolveLOs implements the three valid override shapes: none, one shared
// override, and either a single-schedule sweep or an N:N pairing.
func resolveLOs(nSchedules int, overrides []LOConfig, cfg RunConfig) (*loPlan, error) {
	plan := &loPlan{
		globalQubit: slices.Clone(cfg.QubitLOFreq),
		globalMeas:  slices.Clone(cfg.MeasLOFreq),
	}

	switch n := len(overrides); {
	case n == 0:
		return plan, nil
	case n == 1:
	case nSchedules == 1:
		plan.sweep = true
	case n == nSchedules:
	default:
		return nil, ir.ConfigurationErrorf(
			"invalid frequency setting: %d overrides for %d schedules; give one override for all schedules, one per schedule, or several for a single sweep schedule",
			n, nSchedules)
	}

	for _, o := range overrides {
		ec, err := experimentConfig(o, cfg)
		if err != nil {
			return nil, err
		}
		plan.perExperiment = append(plan.perExperiment, ec)
	}

	if len(overrides) == 1 {
		ec := plan.perExperiment[0]
		if ec.QubitLOFreq != nil {
			plan.globalQubit = hzLists(overrides[0], cfg).qubit
		}
		if ec.MeasLOFreq != nil {
			plan.globalMeas = hzLists(overrides[0], cfg).meas
		}
	}
	return plan, nil
}

type loLists struct {
	qubit []float64
	meas  []float64
}

// hzLists applies o to the default frequency lists.
func hzLists(o LOConfig, cfg RunConfig) loLists {
	out := loLists{qubit: slices.Clone(cfg.QubitLOFreq), meas: slices.Clone(cfg.MeasLOFreq)}
	for ch, hz := range o {
		switch ch.Kind {
		case ir.DriveKind:
			out.qubit[ch.Index] = hz
		case ir.MeasureKind:
			out.meas[ch.Index] = hz
		}
	}
	return out
}

// experimentConfig validates o and renders the lists it changes in GHz.
func experimentConfig(o LOConfig, cfg RunConfig) (*wire.PulseExperimentConfig, error) {
	var touchesQubit, touchesMeas bool
	for ch := range o {
		switch ch.Kind {
		case ir.DriveKind:
			if ch.Index >= len(cfg.QubitLOFreq) {
				return nil, ir.ValidationErrorf("LO override for %s has no default qubit LO", ch)
			}
			touchesQubit = true
		case ir.MeasureKind:
			if ch.Index >= len(cfg.MeasLOFreq) {
				return nil, ir.ValidationErrorf("LO override for %s has no default measurement LO", ch)
			}
			touchesMeas = true
		default:
			return nil, ir.ValidationErrorf("LO override on %s: only drive and measure channels carry an LO", ch)
		}
	}

	lists := hzLists(o, cfg)
	ec := &wire.PulseExperimentConfig{}
	if touchesQubit {
		ec.QubitLOFreq = allToGHz(lists.qubit)
	}
	if touchesMeas {
		ec.MeasLOFreq = allToGHz(lists.meas)
	}
	return ec, nil
}

// apply attaches per-experiment configs, replicating the single schedule
// of a sweep once per override.
func (p *loPlan) apply(experiments []wire.PulseExperiment) []wire.PulseExperiment {
	if len(p.perExperiment) == 0 {
		return experiments
	}
	if p.sweep {
		base := experiments[0]
		out := make([]wire.PulseExperiment, len(p.perExperiment))
		for i, ec := range p.perExperiment {
			out[i] = wire.PulseExperiment{Header: base.Header, Instructions: base.Instructions, Config: ec}
		}
		return out
	}
	for i := range experiments {
		idx := i
		if len(p.perExperiment) == 1 {
			idx = 0
		}
		experiments[i].Config = p.perExperiment[idx]
	}
	return experiments
}
