package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const maxQuestions = 7

const questionSystemPrompt = `You are an AI coach helping users set realistic commitments.
Your job is to ask thoughtful follow-up questions to understand:
- How much effort/time the task requires
- What obstacles might come up
- The user's motivation and past experience
- Their available resources and support

Generate 3-5 short, specific questions. Be encouraging but realistic.
Return ONLY a JSON array of question strings, no other text.`

const predictionSystemPrompt = `You are an AI prediction engine for commitment tracking.
Based on the commitment details and user's answers to questions, predict the probability
of successful completion.

Consider:
- Specificity and clarity of the commitment
- User's responses showing preparation and motivation
- Time available vs. complexity
- Past success rate
- Potential obstacles mentioned

Return ONLY a valid JSON object with this exact structure:
{
  "probability": <number between 0 and 1>,
  "explanation": "<2-3 sentence explanation>",
  "confidence_label": "<high|medium|low>"
}

No other text, just the JSON object.`

const coachingSystemPrompt = `You are a supportive AI coach providing reflection after a commitment outcome.
Be encouraging regardless of the outcome. If they succeeded, celebrate and reinforce good habits.
If they didn't complete it, be understanding, help identify learnings, and encourage future attempts.

Keep your message to 2-4 sentences. Be warm and personal.`

// GeminiClient implements Client against Google's Gemini API. Every
// provider or parse failure is logged and converted into the same
// fallback the FallbackClient would return.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed client. The API key is
// required; the model defaults to gemini-2.0-flash when empty.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(userPrompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// stripCodeFence removes a surrounding markdown code block, which the
// model sometimes wraps JSON responses in despite instructions.
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	parts := strings.Split(content, "```")
	if len(parts) < 2 {
		return content
	}
	content = parts[1]
	content = strings.TrimPrefix(content, "json")
	return strings.TrimSpace(content)
}

func (c *GeminiClient) GenerateQuestions(ctx context.Context, input QuestionInput) []string {
	userPrompt := fmt.Sprintf(`The user wants to commit to the following:

Title: %s
Description: %s
Category: %s
Days until deadline: %d
User's past completions: %d
User's past failures: %d

Generate follow-up questions to better understand this commitment.`,
		input.Title, input.Description, input.Category,
		input.DeadlineDays, input.CompletedCount, input.FailedCount)

	content, err := c.generate(ctx, questionSystemPrompt, userPrompt)
	if err != nil {
		log.WithError(err).Warn("Failed to generate questions, using fallback")
		return (&FallbackClient{}).GenerateQuestions(ctx, input)
	}

	var questions []string
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &questions); err != nil {
		log.WithError(err).Warn("Failed to parse generated questions, using fallback")
		return (&FallbackClient{}).GenerateQuestions(ctx, input)
	}
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}
	return questions
}

func formatContext(entries []ContextEntry, aiLabel, userLabel string) string {
	var b strings.Builder
	for _, entry := range entries {
		switch entry.Role {
		case "ai":
			fmt.Fprintf(&b, "%s: %s\n", aiLabel, entry.Content)
		case "user":
			fmt.Fprintf(&b, "%s: %s\n", userLabel, entry.Content)
		}
	}
	return b.String()
}

func (c *GeminiClient) PredictOutcome(ctx context.Context, input PredictionInput) PredictionResult {
	qaContext := formatContext(input.Context, "AI Question", "User Answer")
	if qaContext == "" {
		qaContext = "No additional context provided."
	}

	userPrompt := fmt.Sprintf(`Analyze this commitment:

Title: %s
Description: %s
Category: %s
Days until deadline: %d
User's past success rate: %.0f%% (%d completed, %d failed)

Q&A Context:
%s

Predict the probability of successful completion.`,
		input.Title, input.Description, input.Category, input.DeadlineDays,
		input.SuccessRate*100, input.CompletedCount, input.FailedCount,
		qaContext)

	content, err := c.generate(ctx, predictionSystemPrompt, userPrompt)
	if err != nil {
		log.WithError(err).Warn("Failed to generate prediction, using fallback")
		return FallbackPrediction()
	}

	var parsed struct {
		Probability     float64 `json:"probability"`
		Explanation     string  `json:"explanation"`
		ConfidenceLabel string  `json:"confidence_label"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
		log.WithError(err).Warn("Failed to parse prediction, using fallback")
		return FallbackPrediction()
	}

	result := PredictionResult{
		Probability:     clamp(parsed.Probability, 0, 1),
		Explanation:     parsed.Explanation,
		ConfidenceLabel: strings.ToLower(parsed.ConfidenceLabel),
	}
	if result.Explanation == "" {
		result.Explanation = "Unable to generate explanation."
	}
	switch result.ConfidenceLabel {
	case "high", "medium", "low":
	default:
		result.ConfidenceLabel = "medium"
	}
	return result
}

func (c *GeminiClient) CoachingReflection(ctx context.Context, input CoachingInput) string {
	qaContext := formatContext(input.Context, "AI", "User")
	if qaContext == "" {
		qaContext = "No context available."
	}

	predictionText := ""
	if input.PredictionProbability != nil {
		predictionText = fmt.Sprintf("The AI had predicted a %.0f%% chance of success.", *input.PredictionProbability*100)
	}

	outcomeText := "not completed"
	if input.Outcome == "completed" {
		outcomeText = "successfully completed"
	}

	reportText := ""
	if input.CompletionReport != nil && *input.CompletionReport != "" {
		reportText = fmt.Sprintf("User's reflection: %s", *input.CompletionReport)
	}

	userPrompt := fmt.Sprintf(`The user had committed to:
Title: %s
Description: %s

%s

Outcome: The commitment was %s.
%s

Previous Q&A context:
%s

Provide a brief coaching message.`,
		input.Title, input.Description, predictionText, outcomeText, reportText, qaContext)

	content, err := c.generate(ctx, coachingSystemPrompt, userPrompt)
	if err != nil {
		log.WithError(err).Warn("Failed to generate coaching message, using fallback")
		return fallbackCoaching(input.Outcome)
	}
	return content
}
