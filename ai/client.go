package ai

import "context"

// QuestionInput carries the commitment details the question generator
// needs to produce follow-up questions.
type QuestionInput struct {
	Title          string
	Description    string
	Category       string
	DeadlineDays   int
	CompletedCount int
	FailedCount    int
}

// ContextEntry is a prior question/answer exchange attached to a
// commitment. Role is "ai" for generated questions and "user" for
// answers.
type ContextEntry struct {
	Role    string
	Content string
}

// PredictionInput carries everything the predictor considers.
type PredictionInput struct {
	Title          string
	Description    string
	Category       string
	DeadlineDays   int
	Context        []ContextEntry
	CompletedCount int
	FailedCount    int
	SuccessRate    float64
}

// PredictionResult is the predictor's output. Probability is always in
// [0, 1] and ConfidenceLabel is always one of "high", "medium", "low".
type PredictionResult struct {
	Probability     float64
	Explanation     string
	ConfidenceLabel string
}

// CoachingInput carries the resolved commitment details the coach
// reflects on. Outcome is "completed" or "failed".
type CoachingInput struct {
	Title                 string
	Description           string
	Outcome               string
	PredictionProbability *float64
	Context               []ContextEntry
	CompletionReport      *string
}

// Client generates questions, predictions, and coaching messages for
// commitments. Implementations never return errors; any provider
// failure is absorbed and a deterministic fallback returned instead,
// so callers can treat generation as infallible.
type Client interface {
	GenerateQuestions(ctx context.Context, input QuestionInput) []string
	PredictOutcome(ctx context.Context, input PredictionInput) PredictionResult
	CoachingReflection(ctx context.Context, input CoachingInput) string
}

// fallbackQuestions is returned whenever question generation fails or
// no provider is configured.
var fallbackQuestions = []string{
	"What's your main motivation for completing this?",
	"How many hours per day/week can you dedicate to this?",
	"What obstacles might prevent you from completing this?",
	"Have you attempted something similar before? What happened?",
	"Who can support you in achieving this goal?",
}

// FallbackPrediction is the neutral estimate used when no prediction
// can be generated.
func FallbackPrediction() PredictionResult {
	return PredictionResult{
		Probability:     0.5,
		Explanation:     "Unable to generate AI prediction. Using neutral estimate.",
		ConfidenceLabel: "low",
	}
}

func fallbackCoaching(outcome string) string {
	if outcome == "completed" {
		return "Congratulations on completing your commitment! Every success builds momentum for the next goal."
	}
	return "It's okay that this one didn't work out. Reflect on what you learned and use it to set yourself up for success next time."
}

// FallbackClient answers every request with the canned fallbacks. It
// is used when no API key is configured and in tests.
type FallbackClient struct{}

func NewFallbackClient() *FallbackClient {
	return &FallbackClient{}
}

func (c *FallbackClient) GenerateQuestions(ctx context.Context, input QuestionInput) []string {
	questions := make([]string, len(fallbackQuestions))
	copy(questions, fallbackQuestions)
	return questions
}

func (c *FallbackClient) PredictOutcome(ctx context.Context, input PredictionInput) PredictionResult {
	return FallbackPrediction()
}

func (c *FallbackClient) CoachingReflection(ctx context.Context, input CoachingInput) string {
	return fallbackCoaching(input.Outcome)
}
