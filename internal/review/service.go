package review

import (
	"context"
	"fmt"

	"github.com/tildaslashalef/reviewd/internal/loggy"
)

// Service orchestrates code review: it runs analysis over submitted code and
// persists the outcome through the repository.
type Service struct {
	repo     Repository
	analyzer Analyzer
	logger   *loggy.Logger
}

// NewService creates a new review service
func NewService(repo Repository, analyzer Analyzer, logger *loggy.Logger) *Service {
	return &Service{
		repo:     repo,
		analyzer: analyzer,
		logger:   logger,
	}
}

// CreateReview analyzes the submitted code and stores the resulting review.
// Analysis failures are absorbed into the review summary, so an error here
// means the review could not be persisted.
func (s *Service) CreateReview(ctx context.Context, req ReviewRequest) (*Review, error) {
	language := req.Language
	if language == "" {
		language = InferLanguage(req.FilePath)
	}

	result := s.analyzer.Analyze(ctx, req.Code, req.FilePath, language, req.Settings)

	review := &Review{
		FilePath:      req.FilePath,
		Language:      language,
		SourceCode:    req.Code,
		Summary:       result.Summary,
		ExecutionTime: result.ExecutionTime,
		Settings:      req.Settings,
		Status:        ReviewStatusCompleted,
		Suggestions:   result.Suggestions,
	}

	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("storing review: %w", err)
	}

	s.logger.Info("Review created",
		"id", review.ID,
		"file_path", review.FilePath,
		"language", review.Language,
		"suggestions", len(review.Suggestions))
	return review, nil
}

// GetReview fetches a review and its suggestions by ID.
func (s *Service) GetReview(ctx context.Context, id string) (*Review, error) {
	return s.repo.GetReview(ctx, id)
}

// ListReviews returns review summaries, newest first.
func (s *Service) ListReviews(ctx context.Context, skip, limit int) ([]*ReviewSummary, error) {
	return s.repo.ListReviews(ctx, skip, limit)
}

// RerunReview re-analyzes the original source of an existing review with its
// stored settings and replaces the review's suggestions in place. The review
// keeps its ID and creation time.
func (s *Service) RerunReview(ctx context.Context, id string) (*Review, error) {
	review, err := s.repo.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}

	result := s.analyzer.Analyze(ctx, review.SourceCode, review.FilePath, review.Language, review.Settings)

	review.Summary = result.Summary
	review.ExecutionTime = result.ExecutionTime
	review.Suggestions = result.Suggestions

	if err := s.repo.ReplaceSuggestions(ctx, review); err != nil {
		return nil, fmt.Errorf("storing rerun result: %w", err)
	}

	s.logger.Info("Review rerun",
		"id", review.ID,
		"suggestions", len(review.Suggestions))
	return review, nil
}
