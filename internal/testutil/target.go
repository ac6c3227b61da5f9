package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsekit/internal/target"
)

// FakeTargetCUE declares a three-qubit device. Qubits 0 and 1 must be
// acquired together; qubit 2 is measured on its own. Every single-qubit
// calibration is 160 samples, cx(0,1) is 1440 and measure is 1200.
const FakeTargetCUE = `
_xpulse: {shape: "drag", duration: 160, amp: [0.2, 0.0], sigma: 40, beta: -1.2}
_sxpulse: {shape: "drag", duration: 160, amp: [0.1, 0.0], sigma: 40, beta: -1.2}
_crpulse: {shape: "gaussian_square", duration: 560, amp: [0.05, 0.01], sigma: 64, width: 304}
_crpulseNeg: {shape: "gaussian_square", duration: 560, amp: [-0.05, -0.01], sigma: 64, width: 304}
_measpulse: {shape: "gaussian_square", duration: 1200, amp: [0.3, 0.0], sigma: 64, width: 944}

target: fake3q: {
	n_qubits: 3
	dt: 2.2222222222222221e-10
	qubit_lo_freq: [5.0e9, 5.1e9, 5.2e9]
	meas_lo_freq: [6.5e9, 6.6e9, 6.7e9]
	meas_map: [[0, 1], [2]]
	parametric_pulses: ["gaussian", "gaussian_square", "drag", "constant"]
	control_channels: [
		{qubits: [0, 1], index: 0},
		{qubits: [1, 0], index: 1},
		{qubits: [1, 2], index: 2},
		{qubits: [2, 1], index: 3},
	]
	calibrations: [
		{gate: "x", qubits: [0], instructions: [{op: "play", ch: "d0", pulse: _xpulse}]},
		{gate: "x", qubits: [1], instructions: [{op: "play", ch: "d1", pulse: _xpulse}]},
		{gate: "x", qubits: [2], instructions: [{op: "play", ch: "d2", pulse: _xpulse}]},
		{gate: "sx", qubits: [0], instructions: [{op: "play", ch: "d0", pulse: _sxpulse}]},
		{gate: "sx", qubits: [1], instructions: [{op: "play", ch: "d1", pulse: _sxpulse}]},
		{gate: "sx", qubits: [2], instructions: [{op: "play", ch: "d2", pulse: _sxpulse}]},
		{gate: "cx", qubits: [0, 1], instructions: [
			{op: "play", ch: "d1", pulse: _sxpulse},
			{op: "play", ch: "u0", t0: 160, pulse: _crpulse},
			{op: "play", ch: "d0", t0: 720, pulse: _xpulse},
			{op: "play", ch: "u0", t0: 880, pulse: _crpulseNeg},
		]},
		{gate: "measure", qubits: [0, 1], instructions: [
			{op: "play", ch: "m0", pulse: _measpulse},
			{op: "play", ch: "m1", pulse: _measpulse},
			{op: "acquire", ch: "a0", duration: 1200, memory_slot: 0},
			{op: "acquire", ch: "a1", duration: 1200, memory_slot: 1},
		]},
		{gate: "measure", qubits: [2], instructions: [
			{op: "play", ch: "m2", pulse: _measpulse},
			{op: "acquire", ch: "a2", duration: 1200, memory_slot: 2},
		]},
	]
}
`

// FakeTarget compiles FakeTargetCUE and fails the test on any error.
func FakeTarget(t testing.TB) *target.Config {
	t.Helper()
	targets, errs := target.LoadString(FakeTargetCUE)
	require.Empty(t, errs)
	cfg, err := target.Select(targets, "fake3q")
	require.NoError(t, err)
	return cfg
}
