package loadtest

import (
	"math"
	"sort"
)

// Percentile computes the p-th percentile (0-100) of a sorted ascending
// sample set using linear interpolation between the two bracketing order
// statistics. It is defined as 0 for an empty set.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	k := float64(n-1) * p / 100
	f := int(math.Floor(k))
	c := f + 1
	if c >= n {
		c = n - 1
	}
	return sorted[f] + (k-float64(f))*(sorted[c]-sorted[f])
}

// LatencySummary holds the distribution statistics for one run, all in
// milliseconds.
type LatencySummary struct {
	Min    float64 `json:"min_ms"`
	Mean   float64 `json:"mean_ms"`
	Max    float64 `json:"max_ms"`
	P50    float64 `json:"p50_ms"`
	P95    float64 `json:"p95_ms"`
	P99    float64 `json:"p99_ms"`
	StdDev float64 `json:"stddev_ms"`
}

// Summarize sorts a copy of the samples and computes the summary. It returns
// nil when there are no samples; StdDev is the sample standard deviation and
// stays 0 below two samples.
func Summarize(samples []float64) *LatencySummary {
	if len(samples) == 0 {
		return nil
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	s := &LatencySummary{
		Min:  sorted[0],
		Mean: mean,
		Max:  sorted[len(sorted)-1],
		P50:  Percentile(sorted, 50),
		P95:  Percentile(sorted, 95),
		P99:  Percentile(sorted, 99),
	}
	if len(sorted) > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(len(sorted)-1))
	}
	return s
}
