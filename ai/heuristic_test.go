package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicProbability(t *testing.T) {
	tests := []struct {
		name           string
		hoursRequired  float64
		hoursAvailable float64
		daysUntilDue   int
		friendSupport  float64
		successRate    float64
		expected       float64
	}{
		{
			name:          "zero hours required is certain",
			hoursRequired: 0,
			expected:      1.0,
		},
		{
			name:           "negative hours required is certain",
			hoursRequired:  -5,
			hoursAvailable: 10,
			expected:       1.0,
		},
		{
			name:           "ample time and full deadline window",
			hoursRequired:  10,
			hoursAvailable: 20,
			daysUntilDue:   14,
			friendSupport:  0,
			successRate:    0.5,
			expected:       0.9,
		},
		{
			name:           "no time, no support, no history clamps to zero",
			hoursRequired:  10,
			hoursAvailable: 0,
			daysUntilDue:   0,
			friendSupport:  -1,
			successRate:    0,
			expected:       0,
		},
		{
			name:           "mixed factors",
			hoursRequired:  10,
			hoursAvailable: 7.5,
			daysUntilDue:   7,
			friendSupport:  0.5,
			successRate:    0.8,
			expected:       0.58,
		},
		{
			name:           "result rounded to three decimals",
			hoursRequired:  10,
			hoursAvailable: 10,
			daysUntilDue:   10,
			friendSupport:  0,
			successRate:    0.5,
			expected:       0.648,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeuristicProbability(tt.hoursRequired, tt.hoursAvailable, tt.daysUntilDue, tt.friendSupport, tt.successRate)
			assert.InDelta(t, tt.expected, got, 0.0001)
		})
	}
}

func TestHeuristicProbabilityBounds(t *testing.T) {
	// Extreme inputs must never leave [0, 1].
	got := HeuristicProbability(0.05, 1000, 365, 5, 1)
	assert.LessOrEqual(t, got, 1.0)

	got = HeuristicProbability(1000, 0, 0, -5, 0)
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
}

func TestFallbackClient(t *testing.T) {
	client := NewFallbackClient()

	questions := client.GenerateQuestions(context.Background(), QuestionInput{Title: "Run a 10k"})
	assert.Len(t, questions, 5)

	prediction := client.PredictOutcome(context.Background(), PredictionInput{})
	assert.Equal(t, 0.5, prediction.Probability)
	assert.Equal(t, "low", prediction.ConfidenceLabel)

	assert.Contains(t, client.CoachingReflection(context.Background(), CoachingInput{Outcome: "completed"}), "Congratulations")
	assert.Contains(t, client.CoachingReflection(context.Background(), CoachingInput{Outcome: "failed"}), "didn't work out")
}
