package builder

import (
	"github.com/roach88/pulsekit/internal/ir"
)

// Target topology queries. They need a configured target but no open
// scope.

// NumQubits returns the target's qubit count.
func (b *Builder) NumQubits() (int, error) {
	if err := b.requireTarget("num_qubits"); err != nil {
		return 0, b.fail(err)
	}
	return b.target.NumQubits(), nil
}

// DriveChannel returns the drive channel of qubit.
func (b *Builder) DriveChannel(qubit int) (ir.Channel, error) {
	if err := b.requireTarget("drive_channel"); err != nil {
		return ir.Channel{}, b.fail(err)
	}
	ch, err := b.target.DriveChannel(qubit)
	return ch, b.fail(err)
}

// MeasureChannel returns the measure channel of qubit.
func (b *Builder) MeasureChannel(qubit int) (ir.Channel, error) {
	if err := b.requireTarget("measure_channel"); err != nil {
		return ir.Channel{}, b.fail(err)
	}
	ch, err := b.target.MeasureChannel(qubit)
	return ch, b.fail(err)
}

// AcquireChannel returns the acquire channel of qubit.
func (b *Builder) AcquireChannel(qubit int) (ir.Channel, error) {
	if err := b.requireTarget("acquire_channel"); err != nil {
		return ir.Channel{}, b.fail(err)
	}
	ch, err := b.target.AcquireChannel(qubit)
	return ch, b.fail(err)
}

// ControlChannels returns the control channels acting on the ordered
// qubit tuple.
func (b *Builder) ControlChannels(qubits ...int) ([]ir.Channel, error) {
	if err := b.requireTarget("control_channels"); err != nil {
		return nil, b.fail(err)
	}
	chs, err := b.target.ControlChannels(qubits...)
	return chs, b.fail(err)
}

// QubitChannels returns every channel touching qubit.
func (b *Builder) QubitChannels(qubit int) ([]ir.Channel, error) {
	if err := b.requireTarget("qubit_channels"); err != nil {
		return nil, b.fail(err)
	}
	chs, err := b.target.QubitChannels(qubit)
	return chs, b.fail(err)
}

// SecondsToSamples converts a duration in seconds to whole samples,
// truncating.
func (b *Builder) SecondsToSamples(seconds float64) (int64, error) {
	if err := b.requireTarget("seconds_to_samples"); err != nil {
		return 0, b.fail(err)
	}
	return int64(seconds / b.target.Dt()), nil
}

// SamplesToSeconds converts a sample count to seconds.
func (b *Builder) SamplesToSeconds(samples int64) (float64, error) {
	if err := b.requireTarget("samples_to_seconds"); err != nil {
		return 0, b.fail(err)
	}
	return float64(samples) * b.target.Dt(), nil
}
