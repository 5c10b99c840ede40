package service

import (
	"context"
	"fmt"
	"strings"

	"commitcast/models"
)

// commentService implements the CommentService interface
type commentService struct {
	uowFactory UnitOfWorkFactory
}

// NewCommentService creates a new comment service
func NewCommentService(uowFactory UnitOfWorkFactory) CommentService {
	return &commentService{
		uowFactory: uowFactory,
	}
}

// Add attaches a comment to a commitment the user can see
func (s *commentService) Add(ctx context.Context, commitmentID, userID int64, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment cannot be empty: %w", ErrInvalidInput)
	}

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
	if !commitment.VisibleTo(userID) {
		return nil, fmt.Errorf("commitment %d is private: %w", commitmentID, ErrForbidden)
	}

	comment := &models.Comment{
		CommitmentID: commitmentID,
		UserID:       userID,
		Content:      content,
	}
	if err := uow.CommentRepository().Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return comment, nil
}

// List returns all comments on a commitment in creation order
func (s *commentService) List(ctx context.Context, commitmentID int64) ([]*models.Comment, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	comments, err := uow.CommentRepository().GetByCommitment(ctx, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// Delete removes a comment; only its author may do so
func (s *commentService) Delete(ctx context.Context, commentID, actorID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	comment, err := uow.CommentRepository().GetByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil {
		return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}
	if comment.UserID != actorID {
		return fmt.Errorf("only the author can delete a comment: %w", ErrForbidden)
	}

	if err := uow.CommentRepository().Delete(ctx, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
