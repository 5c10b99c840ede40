package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"commitcast/ai"
	"commitcast/models"
)

// advisorService implements the AdvisorService interface. It orchestrates
// the AI adapter around the Q&A log: adapter calls happen outside of any
// transaction and the resulting messages are stored in a short write
// transaction afterwards.
type advisorService struct {
	uowFactory UnitOfWorkFactory
	aiClient   ai.Client
}

// NewAdvisorService creates a new advisor service
func NewAdvisorService(uowFactory UnitOfWorkFactory, aiClient ai.Client) AdvisorService {
	return &advisorService{
		uowFactory: uowFactory,
		aiClient:   aiClient,
	}
}

// loadOwnedCommitment fetches a commitment and requires the actor to own it
func (s *advisorService) loadOwnedCommitment(ctx context.Context, uow UnitOfWork, commitmentID, actorID int64) (*models.Commitment, error) {
	commitment, err := uow.CommitmentRepository().GetByID(ctx, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}
	if commitment == nil {
		return nil, fmt.Errorf("commitment %d: %w", commitmentID, ErrNotFound)
	}
	if !commitment.IsOwner(actorID) {
		return nil, fmt.Errorf("only the owner can refine a commitment: %w", ErrForbidden)
	}
	return commitment, nil
}

// GenerateQuestions asks the adapter for clarifying questions and appends
// them to the commitment's Q&A log with the ai role.
func (s *advisorService) GenerateQuestions(ctx context.Context, commitmentID, actorID int64) ([]string, error) {
	commitment, counts, _, err := s.loadForAdapter(ctx, commitmentID, actorID, false)
	if err != nil {
		return nil, err
	}

	description := ""
	if commitment.Description != nil {
		description = *commitment.Description
	}

	questions := s.aiClient.GenerateQuestions(ctx, ai.QuestionInput{
		Title:          commitment.Title,
		Description:    description,
		Category:       commitment.Category,
		DeadlineDays:   commitment.DaysUntilDeadline(time.Now()),
		CompletedCount: counts.Completed,
		FailedCount:    counts.Failed,
	})

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	for _, question := range questions {
		msg := &models.ContextMessage{
			CommitmentID: commitmentID,
			Role:         models.MessageRoleAI,
			Content:      question,
		}
		if err := uow.MessageRepository().CreateContext(ctx, msg); err != nil {
			return nil, fmt.Errorf("failed to store question: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return questions, nil
}

// loadForAdapter reads everything an adapter call needs in one short
// transaction so the call itself never runs with a transaction open.
func (s *advisorService) loadForAdapter(ctx context.Context, commitmentID, actorID int64, withContext bool) (*models.Commitment, StatusCounts, []*models.ContextMessage, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, StatusCounts{}, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	commitment, err := s.loadOwnedCommitment(ctx, uow, commitmentID, actorID)
	if err != nil {
		return nil, StatusCounts{}, nil, err
	}

	counts, err := uow.CommitmentRepository().StatusCounts(ctx, actorID)
	if err != nil {
		return nil, StatusCounts{}, nil, fmt.Errorf("failed to get status counts: %w", err)
	}

	var messages []*models.ContextMessage
	if withContext {
		messages, err = uow.MessageRepository().ListContext(ctx, commitmentID)
		if err != nil {
			return nil, StatusCounts{}, nil, fmt.Errorf("failed to load context: %w", err)
		}
	}

	return commitment, counts, messages, nil
}

// SubmitAnswer records the owner's answer in the Q&A log
func (s *advisorService) SubmitAnswer(ctx context.Context, commitmentID, actorID int64, answer string) error {
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("answer cannot be empty: %w", ErrInvalidInput)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.loadOwnedCommitment(ctx, uow, commitmentID, actorID); err != nil {
		return err
	}

	msg := &models.ContextMessage{
		CommitmentID: commitmentID,
		Role:         models.MessageRoleUser,
		Content:      answer,
	}
	if err := uow.MessageRepository().CreateContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to store answer: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Predict produces a completion-probability estimate from the commitment,
// its Q&A log, and the owner's track record, and persists it on the
// commitment. Predicting again overwrites the previous estimate.
func (s *advisorService) Predict(ctx context.Context, commitmentID, actorID int64) (*models.Commitment, error) {
	commitment, counts, contextMessages, err := s.loadForAdapter(ctx, commitmentID, actorID, true)
	if err != nil {
		return nil, err
	}

	entries := make([]ai.ContextEntry, 0, len(contextMessages))
	for _, msg := range contextMessages {
		entries = append(entries, ai.ContextEntry{Role: string(msg.Role), Content: msg.Content})
	}

	description := ""
	if commitment.Description != nil {
		description = *commitment.Description
	}

	result := s.aiClient.PredictOutcome(ctx, ai.PredictionInput{
		Title:          commitment.Title,
		Description:    description,
		Category:       commitment.Category,
		DeadlineDays:   commitment.DaysUntilDeadline(time.Now()),
		Context:        entries,
		CompletedCount: counts.Completed,
		FailedCount:    counts.Failed,
		SuccessRate:    counts.SuccessRate(),
	})

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	confidence := models.ConfidenceLabel(result.ConfidenceLabel)
	if err := uow.CommitmentRepository().UpdatePrediction(ctx, commitmentID, result.Probability, result.Explanation, confidence); err != nil {
		return nil, fmt.Errorf("failed to store prediction: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	commitment.PredictionProbability = &result.Probability
	commitment.PredictionExplanation = &result.Explanation
	commitment.ConfidenceLabel = &confidence

	return commitment, nil
}

// ListContext returns the commitment's Q&A log in creation order
func (s *advisorService) ListContext(ctx context.Context, commitmentID, viewerID int64) ([]*models.ContextMessage, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	commitment, err := uow.CommitmentRepository().GetByID(ctx, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}
	if commitment == nil {
		return nil, fmt.Errorf("commitment %d: %w", commitmentID, ErrNotFound)
	}
	if !commitment.VisibleTo(viewerID) {
		return nil, fmt.Errorf("commitment %d is private: %w", commitmentID, ErrForbidden)
	}

	messages, err := uow.MessageRepository().ListContext(ctx, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list context: %w", err)
	}

	return messages, nil
}

// ListCoaching returns the commitment's coaching messages in creation order
func (s *advisorService) ListCoaching(ctx context.Context, commitmentID, viewerID int64) ([]*models.CoachingMessage, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	commitment, err := uow.CommitmentRepository().GetByID(ctx, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}
	if commitment == nil {
		return nil, fmt.Errorf("commitment %d: %w", commitmentID, ErrNotFound)
	}
	if !commitment.VisibleTo(viewerID) {
		return nil, fmt.Errorf("commitment %d is private: %w", commitmentID, ErrForbidden)
	}

	messages, err := uow.MessageRepository().ListCoaching(ctx, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coaching messages: %w", err)
	}

	return messages, nil
}
