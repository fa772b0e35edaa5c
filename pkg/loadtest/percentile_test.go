package loadtest

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 50, 0},
		{"single p0", []float64{7}, 0, 7},
		{"single p50", []float64{7}, 50, 7},
		{"single p100", []float64{7}, 100, 7},
		{"median even", []float64{1, 2, 3, 4}, 50, 2.5},
		{"median odd", []float64{1, 2, 3}, 50, 2},
		{"p95 interpolated", []float64{10, 20, 30, 40, 50}, 95, 48},
		{"p100 max", []float64{10, 20, 30}, 100, 30},
		{"p0 min", []float64{10, 20, 30}, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestPercentileMonotonic(t *testing.T) {
	sorted := []float64{1, 3, 3, 7, 12, 15, 15, 21, 40, 100}
	prev := math.Inf(-1)
	for p := 0.0; p <= 100; p += 0.5 {
		got := Percentile(sorted, p)
		if got < prev {
			t.Fatalf("Percentile not monotonic: p=%v gave %v after %v", p, got, prev)
		}
		prev = got
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize(nil); got != nil {
		t.Fatalf("Summarize(nil) = %+v, want nil", got)
	}

	s := Summarize([]float64{4, 2, 6, 8})
	if s.Min != 2 || s.Max != 8 {
		t.Errorf("min/max = %v/%v, want 2/8", s.Min, s.Max)
	}
	if s.Mean != 5 {
		t.Errorf("mean = %v, want 5", s.Mean)
	}
	if s.P50 != 5 {
		t.Errorf("p50 = %v, want 5", s.P50)
	}
	// Sample variance of {2,4,6,8} is 20/3.
	want := math.Sqrt(20.0 / 3.0)
	if math.Abs(s.StdDev-want) > 1e-9 {
		t.Errorf("stddev = %v, want %v", s.StdDev, want)
	}
}

func TestSummarizeSingleSample(t *testing.T) {
	s := Summarize([]float64{3.5})
	if s.StdDev != 0 {
		t.Errorf("stddev of one sample = %v, want 0", s.StdDev)
	}
	if s.Min != 3.5 || s.Max != 3.5 || s.P99 != 3.5 {
		t.Errorf("single sample summary = %+v", s)
	}
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	samples := []float64{9, 1, 5}
	Summarize(samples)
	if samples[0] != 9 || samples[1] != 1 || samples[2] != 5 {
		t.Errorf("input reordered: %v", samples)
	}
}
