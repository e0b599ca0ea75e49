package util

import "github.com/shopspring/decimal"

// RoundToOneDecimal rounds half away from zero to one decimal place.
func RoundToOneDecimal(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}

// MeanPercentage averages per-item percentages and rounds to one decimal.
// It returns nil for an empty input.
func MeanPercentage(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	mean, _ := sum.Div(decimal.NewFromInt(int64(len(values)))).Round(1).Float64()
	return &mean
}
