package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"commitcast/ai"
	"commitcast/events"
	"commitcast/models"
)

// publicCodeAttempts bounds the collision retry loop for public codes.
// With 8 hex characters a collision is already vanishingly unlikely.
const publicCodeAttempts = 5

// commitmentService implements the CommitmentService interface
type commitmentService struct {
	uowFactory UnitOfWorkFactory
	aiClient   ai.Client
}

// NewCommitmentService creates a new commitment service
func NewCommitmentService(uowFactory UnitOfWorkFactory, aiClient ai.Client) CommitmentService {
	return &commitmentService{
		uowFactory: uowFactory,
		aiClient:   aiClient,
	}
}

// generatePublicCode produces a short shareable code, e.g. "A1B2C3D4"
func generatePublicCode() string {
	id := uuid.New()
	return strings.ToUpper(hex.EncodeToString(id[:])[:8])
}

// Create publishes a new pending commitment with a fresh public code
func (s *commitmentService) Create(ctx context.Context, ownerID int64, title, description, category string, deadline time.Time, visibility models.Visibility) (*models.Commitment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title cannot be empty: %w", ErrInvalidInput)
	}
	if !deadline.After(time.Now()) {
		return nil, fmt.Errorf("deadline must be in the future: %w", ErrInvalidInput)
	}
	if category == "" {
		category = "personal"
	}
	switch visibility {
	case models.VisibilityPublic, models.VisibilityPrivate:
	case "":
		visibility = models.VisibilityPublic
	default:
		return nil, fmt.Errorf("visibility must be public or private: %w", ErrInvalidInput)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	owner, err := uow.UserRepository().GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("owner %d: %w", ownerID, ErrNotFound)
	}

	var publicCode string
	for attempt := 0; attempt < publicCodeAttempts; attempt++ {
		candidate := generatePublicCode()
		taken, err := uow.CommitmentRepository().PublicCodeExists(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to check public code: %w", err)
		}
		if !taken {
			publicCode = candidate
			break
		}
	}
	if publicCode == "" {
		return nil, fmt.Errorf("failed to generate unique public code after %d attempts", publicCodeAttempts)
	}

	commitment := &models.Commitment{
		PublicCode: publicCode,
		OwnerID:    ownerID,
		Title:      title,
		Category:   category,
		Deadline:   deadline,
		Visibility: visibility,
		Status:     models.CommitmentStatusPending,
	}
	if desc := strings.TrimSpace(description); desc != "" {
		commitment.Description = &desc
	}

	if err := uow.CommitmentRepository().Create(ctx, commitment); err != nil {
		return nil, fmt.Errorf("failed to create commitment: %w", err)
	}

	uow.EventBus().Publish(events.CommitmentCreatedEvent{
		CommitmentID: commitment.ID,
		PublicCode:   commitment.PublicCode,
		OwnerID:      ownerID,
		Title:        title,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return commitment, nil
}

// Get retrieves a commitment by internal ID, enforcing visibility
func (s *commitmentService) Get(ctx context.Context, commitmentID int64, viewerID int64) (*models.Commitment, error) {
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

	return commitment, nil
}

// GetByPublicCode retrieves a commitment by its shareable code
func (s *commitmentService) GetByPublicCode(ctx context.Context, code string, viewerID int64) (*models.Commitment, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	commitment, err := uow.CommitmentRepository().GetByPublicCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}
	if commitment == nil {
		return nil, fmt.Errorf("commitment %q: %w", code, ErrNotFound)
	}
	if !commitment.VisibleTo(viewerID) {
		return nil, fmt.Errorf("commitment %q is private: %w", code, ErrForbidden)
	}

	return commitment, nil
}

// ListMine returns all commitments owned by the user
func (s *commitmentService) ListMine(ctx context.Context, ownerID int64) ([]*models.Commitment, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	commitments, err := uow.CommitmentRepository().GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commitments: %w", err)
	}

	return commitments, nil
}

// ListPublic returns recent public commitments
func (s *commitmentService) ListPublic(ctx context.Context, limit int) ([]*models.Commitment, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	commitments, err := uow.CommitmentRepository().GetPublic(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list public commitments: %w", err)
	}

	return commitments, nil
}

// Resolve transitions a pending commitment to completed or failed and settles
// all outstanding bets in the same transaction. The status flip is an
// optimistic update conditioned on the commitment still being pending, so a
// concurrent resolution loses the race and gets ErrInvalidState rather than
// settling the same bets twice.
func (s *commitmentService) Resolve(ctx context.Context, commitmentID, actorID int64, completed bool, report, evidence *string) (*models.Commitment, error) {
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
	if !commitment.IsOwner(actorID) {
		return nil, fmt.Errorf("only the owner can resolve a commitment: %w", ErrForbidden)
	}
	if !commitment.IsPending() {
		return nil, fmt.Errorf("commitment is already %s: %w", commitment.Status, ErrInvalidState)
	}

	status := models.CommitmentStatusFailed
	if completed {
		status = models.CommitmentStatusCompleted
	}

	now := time.Now()
	flipped, err := uow.CommitmentRepository().MarkResolved(ctx, commitmentID, status, report, evidence, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark commitment resolved: %w", err)
	}
	if !flipped {
		// Another resolution won the race between our read and the update.
		return nil, fmt.Errorf("commitment is no longer pending: %w", ErrInvalidState)
	}

	commitment.Status = status
	commitment.CompletionReport = report
	commitment.EvidenceURL = evidence
	commitment.ResolvedAt = &now

	if _, err := settleBets(ctx, uow, commitment); err != nil {
		return nil, fmt.Errorf("failed to settle bets: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Coaching happens after the commit. The resolution stands whether or
	// not a message can be generated or stored.
	s.recordCoaching(ctx, commitment)

	return commitment, nil
}

// recordCoaching generates and stores a post-resolution coaching message.
// Failures are logged and swallowed.
func (s *commitmentService) recordCoaching(ctx context.Context, commitment *models.Commitment) {
	contextMessages, err := s.loadContext(ctx, commitment.ID)
	if err != nil {
		log.WithError(err).Warn("Failed to load context for coaching")
		return
	}

	entries := make([]ai.ContextEntry, 0, len(contextMessages))
	for _, msg := range contextMessages {
		entries = append(entries, ai.ContextEntry{Role: string(msg.Role), Content: msg.Content})
	}

	description := ""
	if commitment.Description != nil {
		description = *commitment.Description
	}

	outcome := "failed"
	if commitment.Status == models.CommitmentStatusCompleted {
		outcome = "completed"
	}

	message := s.aiClient.CoachingReflection(ctx, ai.CoachingInput{
		Title:                 commitment.Title,
		Description:           description,
		Outcome:               outcome,
		PredictionProbability: commitment.PredictionProbability,
		Context:               entries,
		CompletionReport:      commitment.CompletionReport,
	})

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Warn("Failed to begin coaching transaction")
		return
	}
	defer uow.Rollback()

	coaching := &models.CoachingMessage{
		CommitmentID: commitment.ID,
		Role:         models.MessageRoleAI,
		Content:      message,
	}
	if err := uow.MessageRepository().CreateCoaching(ctx, coaching); err != nil {
		log.WithError(err).Warn("Failed to store coaching message")
		return
	}

	if err := uow.Commit(); err != nil {
		log.WithError(err).Warn("Failed to commit coaching message")
	}
}

func (s *commitmentService) loadContext(ctx context.Context, commitmentID int64) ([]*models.ContextMessage, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.MessageRepository().ListContext(ctx, commitmentID)
}

// Delete removes a pending commitment that nobody has bet on
func (s *commitmentService) Delete(ctx context.Context, commitmentID, actorID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	commitment, err := uow.CommitmentRepository().GetByID(ctx, commitmentID)
	if err != nil {
		return fmt.Errorf("failed to get commitment: %w", err)
	}
	if commitment == nil {
		return fmt.Errorf("commitment %d: %w", commitmentID, ErrNotFound)
	}
	if !commitment.IsOwner(actorID) {
		return fmt.Errorf("only the owner can delete a commitment: %w", ErrForbidden)
	}

	betCount, err := uow.BetRepository().CountByCommitment(ctx, commitmentID)
	if err != nil {
		return fmt.Errorf("failed to count bets: %w", err)
	}
	if betCount > 0 {
		return fmt.Errorf("commitment has %d bets: %w", betCount, ErrConflict)
	}

	if err := uow.MessageRepository().DeleteByCommitment(ctx, commitmentID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if err := uow.CommentRepository().DeleteByCommitment(ctx, commitmentID); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	if err := uow.CommitmentRepository().Delete(ctx, commitmentID); err != nil {
		return fmt.Errorf("failed to delete commitment: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
