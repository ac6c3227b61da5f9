package builder

import (
	"math"

	"github.com/roach88/pulsekit/internal/align"
	"github.com/roach88/pulsekit/internal/compiler"
	"github.com/roach88/pulsekit/internal/ir"
)

// scoped runs fn inside a nested scope. When fn fails the scope is left
// open; Build unwinds it.
func (b *Builder) scoped(op string, p align.Policy, pad []ir.Channel, fn func() error) error {
	if err := b.enter(op, p, pad); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return b.fail(err)
	}
	return b.Exit()
}

// AlignLeft runs fn in a scope packed as early as possible.
func (b *Builder) AlignLeft(fn func() error) error {
	return b.scoped("align_left", align.Left, nil, fn)
}

// AlignRight runs fn in a scope packed as late as possible.
func (b *Builder) AlignRight(fn func() error) error {
	return b.scoped("align_right", align.Right, nil, fn)
}

// AlignSequential runs fn in a scope where each component follows the
// previous one regardless of channel.
func (b *Builder) AlignSequential(fn func() error) error {
	return b.scoped("align_sequential", align.Sequential, nil, fn)
}

// Group runs fn in a left-aligned scope whose block the parent treats as
// one indivisible unit.
func (b *Builder) Group(fn func() error) error {
	return b.scoped("group", align.Group, nil, fn)
}

// Inline runs fn in a scope whose components are spliced into the parent
// unaligned, as if the scope did not exist.
func (b *Builder) Inline(fn func() error) error {
	return b.scoped("inline", align.Inline, nil, fn)
}

// Scope runs fn in a nested scope that inherits the current policy.
func (b *Builder) Scope(fn func() error) error {
	sc, err := b.active("scope")
	if err != nil {
		return err
	}
	return b.scoped("scope", sc.policy, nil, fn)
}

// Pad runs fn in a left-aligned scope and fills every idle gap of chs (all
// channels of the block when none are given) with delays up to the block's
// end.
func (b *Builder) Pad(fn func() error, chs ...ir.Channel) error {
	pad := append([]ir.Channel{}, chs...)
	return b.scoped("pad", align.Left, pad, fn)
}

// PhaseOffset shifts the phase of chs by rad for the duration of fn.
func (b *Builder) PhaseOffset(rad float64, fn func() error, chs ...ir.Channel) error {
	for _, ch := range chs {
		if err := b.ShiftPhase(rad, ch); err != nil {
			return err
		}
	}
	if err := fn(); err != nil {
		return b.fail(err)
	}
	for _, ch := range chs {
		if err := b.ShiftPhase(-rad, ch); err != nil {
			return err
		}
	}
	return nil
}

// FrequencyOffset shifts the frequency of chs by hz for the duration of fn.
// With compensate set, the phase accrued at the offset frequency over fn's
// duration is removed afterwards, which needs a target for the sample
// period.
func (b *Builder) FrequencyOffset(hz float64, compensate bool, fn func() error, chs ...ir.Channel) error {
	sc, err := b.active("frequency_offset")
	if err != nil {
		return err
	}
	if compensate {
		if err := b.requireTarget("frequency_offset"); err != nil {
			return b.fail(err)
		}
	}

	t0, err := b.scopeDuration(sc)
	if err != nil {
		return err
	}
	for _, ch := range chs {
		if err := b.ShiftFrequency(hz, ch); err != nil {
			return err
		}
	}
	if err := fn(); err != nil {
		return b.fail(err)
	}
	for _, ch := range chs {
		if err := b.ShiftFrequency(-hz, ch); err != nil {
			return err
		}
	}
	if !compensate {
		return nil
	}

	t1, err := b.scopeDuration(sc)
	if err != nil {
		return err
	}
	samples := float64(t1 - t0)
	accrued := 2 * math.Pi * math.Mod(b.target.Dt()*samples*hz, 1)
	for _, ch := range chs {
		if err := b.ShiftPhase(-accrued, ch); err != nil {
			return err
		}
	}
	return nil
}

// scopeDuration aligns a copy of the scope's batch, after flushing, to
// learn how long the scope currently is.
func (b *Builder) scopeDuration(sc *scope) (int64, error) {
	if err := b.flush("frequency_offset"); err != nil {
		return 0, err
	}
	block, err := align.Apply(sc.name, sc.policy, sc.batch)
	if err != nil {
		return 0, b.fail(err)
	}
	return block.Stop(), nil
}

// CompilerSettings runs fn with s as the compiler settings. Buffered gates
// are flushed on entry and exit so each gate compiles under the settings
// active when it was called.
func (b *Builder) CompilerSettings(s compiler.Settings, fn func() error) error {
	if _, err := b.active("compiler_settings"); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return b.fail(err)
	}
	if err := b.flush("compiler settings change"); err != nil {
		return err
	}
	prev := b.settings
	b.settings = s
	err := fn()
	if err == nil {
		err = b.flush("compiler settings change")
	}
	b.settings = prev
	return b.fail(err)
}
