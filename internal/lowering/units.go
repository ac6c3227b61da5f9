package lowering

import "github.com/shopspring/decimal"

// toGHz converts Hz to GHz by shifting the decimal point, so 4.9e9 becomes
// exactly 4.9 rather than 4.9e9/1e9.
func toGHz(hz float64) float64 {
	f, _ := decimal.NewFromFloat(hz).Shift(-9).Float64()
	return f
}

func allToGHz(hz []float64) []float64 {
	out := make([]float64, len(hz))
	for i, f := range hz {
		out[i] = toGHz(f)
	}
	return out
}
