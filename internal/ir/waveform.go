package ir

import (
	"math"
	"math/cmplx"
	"slices"
)

// Parametric shape names understood by Waveform.Samples.
const (
	ShapeGaussian       = "gaussian"
	ShapeGaussianSquare = "gaussian_square"
	ShapeDrag           = "drag"
	ShapeConstant       = "constant"
)

// requiredParams lists the real-valued parameters each shape needs.
var requiredParams = map[string][]string{
	ShapeGaussian:       {"sigma"},
	ShapeGaussianSquare: {"sigma", "width"},
	ShapeDrag:           {"sigma", "beta"},
	ShapeConstant:       {},
}

// Waveform is the envelope carried by a Play instruction: either an explicit
// sample vector or a named parametric shape.
type Waveform struct {
	// Name is an optional user label. Lowering names library entries by content.
	Name string

	// Samples holds the explicit envelope. Empty for parametric waveforms.
	Samples []complex128

	// Shape is the parametric shape name. Empty for sampled waveforms.
	Shape string

	// Length is the parametric duration in samples.
	Length int64

	// Amp is the complex amplitude of a parametric shape.
	Amp complex128

	// Params holds the shape's real parameters (sigma, width, beta).
	Params map[string]float64
}

// SampledWaveform builds a waveform from explicit samples.
// Every sample must have modulus at most 1.
func SampledWaveform(name string, samples []complex128) (Waveform, error) {
	if len(samples) == 0 {
		return Waveform{}, ValidationErrorf("waveform %q has no samples", name)
	}
	for i, s := range samples {
		if cmplx.Abs(s) > 1+1e-9 {
			return Waveform{}, ValidationErrorf("waveform %q sample %d has modulus %g > 1", name, i, cmplx.Abs(s))
		}
	}
	return Waveform{Name: name, Samples: slices.Clone(samples)}, nil
}

// ParametricWaveform builds a parametric waveform and checks its parameters.
func ParametricWaveform(shape string, length int64, amp complex128, params map[string]float64) (Waveform, error) {
	required, ok := requiredParams[shape]
	if !ok {
		return Waveform{}, ValidationErrorf("unknown pulse shape %q", shape)
	}
	if length <= 0 {
		return Waveform{}, ValidationErrorf("%s duration must be positive, got %d", shape, length)
	}
	if cmplx.Abs(amp) > 1+1e-9 {
		return Waveform{}, ValidationErrorf("%s amplitude modulus %g > 1", shape, cmplx.Abs(amp))
	}
	for _, p := range required {
		if _, ok := params[p]; !ok {
			return Waveform{}, ValidationErrorf("%s requires parameter %q", shape, p)
		}
	}
	if s, ok := params["sigma"]; ok && s <= 0 {
		return Waveform{}, ValidationErrorf("%s sigma must be positive, got %g", shape, s)
	}
	if w, ok := params["width"]; ok && (w < 0 || w >= float64(length)) {
		return Waveform{}, ValidationErrorf("%s width must be in [0, %d), got %g", shape, length, w)
	}
	cp := make(map[string]float64, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return Waveform{Shape: shape, Length: length, Amp: amp, Params: cp}, nil
}

// IsParametric reports whether w is described by a shape rather than samples.
func (w Waveform) IsParametric() bool { return w.Shape != "" }

// Duration returns the envelope length in samples.
func (w Waveform) Duration() int64 {
	if w.IsParametric() {
		return w.Length
	}
	return int64(len(w.Samples))
}

// SampleVector returns the envelope as an explicit sample vector. Parametric
// shapes are evaluated at sample midpoints.
func (w Waveform) SampleVector() []complex128 {
	if !w.IsParametric() {
		return slices.Clone(w.Samples)
	}
	n := int(w.Length)
	out := make([]complex128, n)
	switch w.Shape {
	case ShapeConstant:
		for i := range out {
			out[i] = w.Amp
		}
	case ShapeGaussian:
		sigma := w.Params["sigma"]
		center := float64(n) / 2
		for i := range out {
			out[i] = w.Amp * complex(liftedGaussian(float64(i)+0.5, center, sigma, float64(n)+2), 0)
		}
	case ShapeDrag:
		sigma, beta := w.Params["sigma"], w.Params["beta"]
		center := float64(n) / 2
		edge := gaussian(float64(n)/2+1, 0, sigma)
		for i := range out {
			t := float64(i) + 0.5
			g := liftedGaussian(t, center, sigma, float64(n)+2)
			dg := -(t - center) / (sigma * sigma) * gaussian(t, center, sigma) / (1 - edge)
			out[i] = w.Amp * complex(g, beta*dg)
		}
	case ShapeGaussianSquare:
		sigma, width := w.Params["sigma"], w.Params["width"]
		rise := (float64(n) - width) / 2
		for i := range out {
			t := float64(i) + 0.5
			switch {
			case t < rise:
				out[i] = w.Amp * complex(liftedGaussian(t, rise, sigma, 2*rise+2), 0)
			case t > rise+width:
				out[i] = w.Amp * complex(liftedGaussian(t, rise+width, sigma, 2*rise+2), 0)
			default:
				out[i] = w.Amp
			}
		}
	}
	return out
}

// ParameterList returns the shape parameters for the wire format, with
// duration and amp included.
func (w Waveform) ParameterList() map[string]any {
	out := map[string]any{
		"duration": w.Length,
		"amp":      [2]float64{real(w.Amp), imag(w.Amp)},
	}
	for k, v := range w.Params {
		out[k] = v
	}
	return out
}

func gaussian(t, center, sigma float64) float64 {
	d := t - center
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

// liftedGaussian is a gaussian shifted so it reaches zero at center ± zeroedWidth/2.
func liftedGaussian(t, center, sigma, zeroedWidth float64) float64 {
	edge := gaussian(center+zeroedWidth/2, center, sigma)
	return (gaussian(t, center, sigma) - edge) / (1 - edge)
}
