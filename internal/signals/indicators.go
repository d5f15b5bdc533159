// Package signals provides technical indicator calculations
package signals

import (
	"github.com/bobmcallan/trademind/internal/models"
)

// Standard overlay windows for history responses.
const (
	ShortWindow = 50
	LongWindow  = 200
)

// MovingAverage computes the trailing simple moving average of closes for the
// given window. The result is aligned 1:1 with the input: index i is nil until
// the window has filled (i+1 < window), then the arithmetic mean of the window
// closes ending at i. Uses a sliding sum, O(n).
func MovingAverage(closes []float64, window int) []*float64 {
	result := make([]*float64, len(closes))
	if window <= 0 {
		return result
	}

	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i+1 >= window {
			avg := sum / float64(window)
			result[i] = &avg
		}
	}
	return result
}

// Overlay computes moving-average overlays for each window over the series,
// ordered as given. Each window is computed independently over the same
// closes.
func Overlay(series *models.CandleSeries, windows ...int) []models.MovingAverage {
	closes := series.Closes()
	overlays := make([]models.MovingAverage, 0, len(windows))
	for _, w := range windows {
		overlays = append(overlays, models.MovingAverage{
			Window: w,
			Values: MovingAverage(closes, w),
		})
	}
	return overlays
}

// DetectCrossover classifies the most recent short/long moving-average
// crossover in a close series.
// Returns "golden_cross", "death_cross", or "none".
func DetectCrossover(closes []float64, shortWindow, longWindow int) string {
	if len(closes) < longWindow+1 {
		return "none"
	}

	short := MovingAverage(closes, shortWindow)
	long := MovingAverage(closes, longWindow)

	last := len(closes) - 1
	prev := last - 1
	if short[prev] == nil || long[prev] == nil || short[last] == nil || long[last] == nil {
		return "none"
	}

	if *short[prev] <= *long[prev] && *short[last] > *long[last] {
		return "golden_cross"
	}
	if *short[prev] >= *long[prev] && *short[last] < *long[last] {
		return "death_cross"
	}
	return "none"
}
