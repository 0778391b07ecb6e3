package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{
			// A low outlier must not drag the result toward the mean.
			name:    "outlier resistance",
			samples: []float64{0.2, 0.9, 0.85},
			want:    0.85,
		},
		{
			name:    "single sample",
			samples: []float64{0.4},
			want:    0.4,
		},
		{
			name:    "even count averages middle pair",
			samples: []float64{0.0, 0.4, 0.6, 1.0},
			want:    0.5,
		},
		{
			name:    "empty",
			samples: nil,
			want:    0,
		},
		{
			name:    "all zeros",
			samples: []float64{0, 0, 0},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Median(tt.samples), 1e-9)
		})
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	samples := []float64{0.9, 0.1, 0.5}
	Median(samples)
	assert.Equal(t, []float64{0.9, 0.1, 0.5}, samples)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.42, Clamp01(0.42))
}

func TestLevelResultScore(t *testing.T) {
	lr := LevelResult{
		LevelID: "L1-recall",
		Grades: []GradingResult{
			{Score: 1.0},
			{Score: 0.5},
		},
	}
	assert.InDelta(t, 0.75, lr.Score(), 1e-9)

	fatal := LevelResult{LevelID: "L1-recall", Fatal: true}
	assert.Equal(t, 0.0, fatal.Score())
}
