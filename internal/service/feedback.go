package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/storyboard/internal/domain"
)

type FeedbackService struct {
	feedback FeedbackStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewFeedbackService(feedback FeedbackStore, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{feedback: feedback, logger: logger.Named("feedback"), now: time.Now}
}

// SubmitFeedback stores a reader comment awaiting review. userID links it
// to the signed-in reader, if any.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, in FeedbackInput, userID *string) (FeedbackDTO, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateFeedbackInput(in); err != nil {
		return FeedbackDTO{}, err
	}
	f := domain.Feedback{
		Comment: in.Comment,
		Name:    in.Name,
		Email:   in.Email,
		UserID:  userID,
	}
	if err := s.feedback.Insert(ctx, &f); err != nil {
		return FeedbackDTO{}, fmt.Errorf("submit feedback: %w", err)
	}
	return NewFeedbackDTO(f), nil
}

func (s *FeedbackService) ListFeedback(ctx context.Context, approvedOnly bool) ([]FeedbackDTO, error) {
	rows, err := s.feedback.List(ctx, approvedOnly)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	out := make([]FeedbackDTO, 0, len(rows))
	for _, f := range rows {
		out = append(out, NewFeedbackDTO(f))
	}
	return out, nil
}

func (s *FeedbackService) ApproveFeedback(ctx context.Context, id int64) error {
	if err := s.feedback.Approve(ctx, id, s.now()); err != nil {
		return fmt.Errorf("approve feedback %d: %w", id, err)
	}
	s.logger.Info("feedback approved", zap.Int64("id", id))
	return nil
}
