package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/reviewd/internal/database"
	"github.com/tildaslashalef/reviewd/internal/loggy"
	"github.com/tildaslashalef/reviewd/internal/ulid"
)

// ErrReviewNotFound is returned when a review is not found
var ErrReviewNotFound = errors.New("review not found")

// DefaultListLimit caps unbounded listing queries.
const DefaultListLimit = 100

var reviewColumns = []string{
	"id",
	"file_path",
	"language",
	"source_code",
	"summary",
	"execution_time",
	"settings",
	"status",
	"user_id",
	"created_at",
	"updated_at",
}

var suggestionColumns = []string{
	"id",
	"review_id",
	"line_start",
	"line_end",
	"file_path",
	"message",
	"category",
	"severity",
	"suggested_fix",
}

// Repository defines the interface for review persistence operations
type Repository interface {
	CreateReview(ctx context.Context, review *Review) error
	GetReview(ctx context.Context, id string) (*Review, error)
	ListReviews(ctx context.Context, skip, limit int) ([]*ReviewSummary, error)
	ReplaceSuggestions(ctx context.Context, review *Review) error
}

// SQLRepository implements Repository using SQLite database
type SQLRepository struct {
	db      *sql.DB
	logger  *loggy.Logger
	builder sq.StatementBuilderType
}

// NewSQLRepository creates a new review SQL repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) Repository {
	return &SQLRepository{
		db:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// CreateReview saves a review and its suggestions in one transaction.
func (r *SQLRepository) CreateReview(ctx context.Context, review *Review) error {
	if review.ID == "" {
		review.ID = ulid.ReviewID()
	}
	now := time.Now().UTC()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	if review.UpdatedAt.IsZero() {
		review.UpdatedAt = review.CreatedAt
	}
	if review.Status == "" {
		review.Status = ReviewStatusCompleted
	}

	err := database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		query, args, err := r.builder.
			Insert("reviews").
			Columns(reviewColumns...).
			Values(
				review.ID,
				review.FilePath,
				review.Language,
				review.SourceCode,
				review.Summary,
				review.ExecutionTime,
				review.Settings,
				review.Status,
				review.UserID,
				review.CreatedAt,
				review.UpdatedAt,
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("building insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting review: %w", err)
		}

		return r.insertSuggestions(ctx, tx, review)
	})
	if err != nil {
		return err
	}

	r.logger.Info("Created review",
		"id", review.ID,
		"file_path", review.FilePath,
		"suggestions", len(review.Suggestions))
	return nil
}

// insertSuggestions writes the review's suggestions inside tx, assigning IDs
// and the parent review ID as it goes.
func (r *SQLRepository) insertSuggestions(ctx context.Context, tx *sql.Tx, review *Review) error {
	for i := range review.Suggestions {
		s := &review.Suggestions[i]
		if s.ID == "" {
			s.ID = ulid.SuggestionID()
		}
		s.ReviewID = review.ID

		query, args, err := r.builder.
			Insert("suggestions").
			Columns(suggestionColumns...).
			Values(
				s.ID,
				s.ReviewID,
				s.LineStart,
				s.LineEnd,
				s.FilePath,
				s.Message,
				s.Category,
				s.Severity,
				s.SuggestedFix,
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("building suggestion insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting suggestion: %w", err)
		}
	}
	return nil
}

// GetReview retrieves a review and its suggestions by ID.
func (r *SQLRepository) GetReview(ctx context.Context, id string) (*Review, error) {
	query, args, err := r.builder.
		Select(reviewColumns...).
		From("reviews").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("scanning review: %w", err)
	}

	suggestions, err := r.getSuggestions(ctx, id)
	if err != nil {
		return nil, err
	}
	review.Suggestions = suggestions

	return review, nil
}

// getSuggestions loads a review's suggestions in insertion order.
func (r *SQLRepository) getSuggestions(ctx context.Context, reviewID string) ([]Suggestion, error) {
	query, args, err := r.builder.
		Select(suggestionColumns...).
		From("suggestions").
		Where(sq.Eq{"review_id": reviewID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building suggestions query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := []Suggestion{}
	for rows.Next() {
		var s Suggestion
		if err := rows.Scan(
			&s.ID,
			&s.ReviewID,
			&s.LineStart,
			&s.LineEnd,
			&s.FilePath,
			&s.Message,
			&s.Category,
			&s.Severity,
			&s.SuggestedFix,
		); err != nil {
			return nil, fmt.Errorf("scanning suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating suggestions: %w", err)
	}

	return suggestions, nil
}

// ListReviews returns review summaries in reverse chronological order, with
// suggestion counts but without suggestion bodies. An explicit zero limit
// returns no rows; only a negative limit falls back to the default.
func (r *SQLRepository) ListReviews(ctx context.Context, skip, limit int) ([]*ReviewSummary, error) {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = DefaultListLimit
	}

	query, args, err := r.builder.
		Select(
			"r.id",
			"r.file_path",
			"r.language",
			"r.summary",
			"r.created_at",
			"r.status",
			"COUNT(s.id) AS suggestion_count",
		).
		From("reviews r").
		LeftJoin("suggestions s ON s.review_id = r.id").
		GroupBy("r.id").
		OrderBy("r.created_at DESC").
		Offset(uint64(skip)).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	summaries := []*ReviewSummary{}
	for rows.Next() {
		var s ReviewSummary
		if err := rows.Scan(
			&s.ID,
			&s.FilePath,
			&s.Language,
			&s.Summary,
			&s.CreatedAt,
			&s.Status,
			&s.SuggestionCount,
		); err != nil {
			return nil, fmt.Errorf("scanning review summary: %w", err)
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reviews: %w", err)
	}

	return summaries, nil
}

// ReplaceSuggestions overwrites a review's suggestions and analysis outcome
// in one transaction. The review's creation time is left untouched.
func (r *SQLRepository) ReplaceSuggestions(ctx context.Context, review *Review) error {
	review.UpdatedAt = time.Now().UTC()

	err := database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		query, args, err := r.builder.
			Update("reviews").
			Set("summary", review.Summary).
			Set("execution_time", review.ExecutionTime).
			Set("updated_at", review.UpdatedAt).
			Where(sq.Eq{"id": review.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("building update query: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("updating review: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("getting rows affected: %w", err)
		}
		if affected == 0 {
			return ErrReviewNotFound
		}

		query, args, err = r.builder.
			Delete("suggestions").
			Where(sq.Eq{"review_id": review.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("building delete query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("deleting suggestions: %w", err)
		}

		// Discard stale IDs so the insert assigns fresh ones.
		for i := range review.Suggestions {
			review.Suggestions[i].ID = ""
		}
		return r.insertSuggestions(ctx, tx, review)
	})
	if err != nil {
		return err
	}

	r.logger.Info("Replaced review suggestions",
		"id", review.ID,
		"suggestions", len(review.Suggestions))
	return nil
}

// scanReview scans a review row into a Review struct.
func scanReview(row *sql.Row) (*Review, error) {
	var review Review
	err := row.Scan(
		&review.ID,
		&review.FilePath,
		&review.Language,
		&review.SourceCode,
		&review.Summary,
		&review.ExecutionTime,
		&review.Settings,
		&review.Status,
		&review.UserID,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}
