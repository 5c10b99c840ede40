package ai

import "math"

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// HeuristicProbability estimates completion probability from time
// budget and history alone, without calling a model. It backs up the
// predictor when no provider is available and can supplement its
// output. The result is in [0, 1], rounded to three decimals.
func HeuristicProbability(hoursRequired, hoursAvailable float64, daysUntilDue int, friendSupportScore, successRate float64) float64 {
	if hoursRequired <= 0 {
		return 1.0
	}

	// Ratio of free hours to required hours, clipped at 2x.
	ratio := clamp(hoursAvailable/math.Max(hoursRequired, 0.1), 0, 2)
	baseProb := math.Min(1.0, ratio/1.5)

	// More days until due helps, capped at 14 days.
	timeFactor := math.Min(1.0, float64(daysUntilDue)/14.0)

	friendFactor := 0.1 * clamp(friendSupportScore, -1, 1)
	historyFactor := 0.1 * (successRate - 0.5)

	prob := baseProb*0.5 + timeFactor*0.3 + friendFactor + historyFactor + 0.1
	prob = clamp(prob, 0, 1)

	return math.Round(prob*1000) / 1000
}
