package review

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/reviewd/internal/loggy"
)

func newTestRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{
		db:      db,
		logger:  loggy.NewNoopLogger(),
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

func TestReviewRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock database")
	defer db.Close()

	repo := newTestRepository(db)

	fix := "handle the error"
	sampleReview := &Review{
		ID:            "rev-01HTEST",
		FilePath:      "main.go",
		Language:      "go",
		SourceCode:    "package main",
		Summary:       "one issue found",
		ExecutionTime: 0.25,
		Settings:      Settings{"min_severity": "low"},
		Status:        ReviewStatusCompleted,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
		Suggestions: []Suggestion{
			{
				ID:           "sug-01HTEST",
				LineStart:    3,
				LineEnd:      5,
				FilePath:     "main.go",
				Message:      "unchecked error",
				Category:     CategoryLint,
				Severity:     SeverityHigh,
				SuggestedFix: &fix,
			},
		},
	}

	t.Run("CreateReview", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reviews").
			WithArgs(
				sampleReview.ID,
				sampleReview.FilePath,
				sampleReview.Language,
				sampleReview.SourceCode,
				sampleReview.Summary,
				sampleReview.ExecutionTime,
				sqlmock.AnyArg(), // settings serialize via Valuer
				string(sampleReview.Status),
				nil,
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO suggestions").
			WithArgs(
				"sug-01HTEST",
				sampleReview.ID,
				3,
				5,
				"main.go",
				"unchecked error",
				string(CategoryLint),
				string(SeverityHigh),
				&fix,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.CreateReview(context.Background(), sampleReview)
		assert.NoError(t, err, "CreateReview should not return an error")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CreateReview assigns IDs and timestamps", func(t *testing.T) {
		fresh := &Review{
			FilePath:    "lib.py",
			Language:    "python",
			Summary:     "ok",
			Suggestions: []Suggestion{{LineStart: 1, LineEnd: 1, FilePath: "lib.py", Message: "m", Category: CategoryStyle, Severity: SeverityLow}},
		}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reviews").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO suggestions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.CreateReview(context.Background(), fresh)
		require.NoError(t, err)
		assert.True(t, len(fresh.ID) > 4 && fresh.ID[:4] == "rev-", "review ID should carry the rev- prefix, got %q", fresh.ID)
		assert.True(t, len(fresh.Suggestions[0].ID) > 4 && fresh.Suggestions[0].ID[:4] == "sug-")
		assert.Equal(t, fresh.ID, fresh.Suggestions[0].ReviewID)
		assert.False(t, fresh.CreatedAt.IsZero())
		assert.Equal(t, fresh.CreatedAt, fresh.UpdatedAt)
		assert.Equal(t, ReviewStatusCompleted, fresh.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CreateReview rolls back on suggestion failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reviews").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO suggestions").
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err := repo.CreateReview(context.Background(), sampleReview)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetReview", func(t *testing.T) {
		reviewRows := sqlmock.NewRows([]string{
			"id", "file_path", "language", "source_code", "summary",
			"execution_time", "settings", "status", "user_id", "created_at", "updated_at",
		}).AddRow(
			"rev-01HTEST", "main.go", "go", "package main", "one issue found",
			0.25, `{"min_severity":"low"}`, "completed", nil, sampleReview.CreatedAt, sampleReview.UpdatedAt,
		)
		suggestionRows := sqlmock.NewRows([]string{
			"id", "review_id", "line_start", "line_end", "file_path",
			"message", "category", "severity", "suggested_fix",
		}).AddRow(
			"sug-01HTEST", "rev-01HTEST", 3, 5, "main.go",
			"unchecked error", "lint", "high", fix,
		)

		mock.ExpectQuery("SELECT .+ FROM reviews WHERE id = ?").
			WithArgs("rev-01HTEST").
			WillReturnRows(reviewRows)
		mock.ExpectQuery("SELECT .+ FROM suggestions WHERE review_id = ?").
			WithArgs("rev-01HTEST").
			WillReturnRows(suggestionRows)

		review, err := repo.GetReview(context.Background(), "rev-01HTEST")
		require.NoError(t, err)
		assert.Equal(t, "main.go", review.FilePath)
		assert.Equal(t, "package main", review.SourceCode)
		assert.Equal(t, SeverityLow, review.Settings.MinSeverity())
		require.Len(t, review.Suggestions, 1)
		assert.Equal(t, CategoryLint, review.Suggestions[0].Category)
		require.NotNil(t, review.Suggestions[0].SuggestedFix)
		assert.Equal(t, fix, *review.Suggestions[0].SuggestedFix)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetReview not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM reviews WHERE id = ?").
			WithArgs("rev-missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetReview(context.Background(), "rev-missing")
		assert.ErrorIs(t, err, ErrReviewNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListReviews", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "file_path", "language", "summary", "created_at", "status", "suggestion_count",
		}).
			AddRow("rev-02", "b.py", "python", "newer", time.Now(), "completed", 2).
			AddRow("rev-01", "a.py", "python", "older", time.Now().Add(-time.Hour), "completed", 0)

		mock.ExpectQuery("SELECT .+ FROM reviews r LEFT JOIN suggestions s ON s.review_id = r.id GROUP BY r.id ORDER BY r.created_at DESC LIMIT 10 OFFSET 0").
			WillReturnRows(rows)

		summaries, err := repo.ListReviews(context.Background(), 0, 10)
		require.NoError(t, err)
		require.Len(t, summaries, 2)
		assert.Equal(t, "rev-02", summaries[0].ID)
		assert.Equal(t, 2, summaries[0].SuggestionCount)
		assert.Equal(t, 0, summaries[1].SuggestionCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListReviews second-most-recent via skip and limit", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "file_path", "language", "summary", "created_at", "status", "suggestion_count",
		}).
			AddRow("rev-01", "a.py", "python", "older", time.Now().Add(-time.Hour), "completed", 1)

		mock.ExpectQuery("SELECT .+ FROM reviews r LEFT JOIN suggestions s ON s.review_id = r.id GROUP BY r.id ORDER BY r.created_at DESC LIMIT 1 OFFSET 1").
			WillReturnRows(rows)

		summaries, err := repo.ListReviews(context.Background(), 1, 1)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "rev-01", summaries[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListReviews negative limit uses default", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM reviews r LEFT JOIN suggestions s ON s.review_id = r.id GROUP BY r.id ORDER BY r.created_at DESC LIMIT 100 OFFSET 0").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "file_path", "language", "summary", "created_at", "status", "suggestion_count",
			}))

		summaries, err := repo.ListReviews(context.Background(), -3, -1)
		require.NoError(t, err)
		assert.NotNil(t, summaries)
		assert.Empty(t, summaries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListReviews explicit zero limit returns no rows", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM reviews r LEFT JOIN suggestions s ON s.review_id = r.id GROUP BY r.id ORDER BY r.created_at DESC LIMIT 0 OFFSET 0").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "file_path", "language", "summary", "created_at", "status", "suggestion_count",
			}))

		summaries, err := repo.ListReviews(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.NotNil(t, summaries)
		assert.Empty(t, summaries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ReplaceSuggestions", func(t *testing.T) {
		review := &Review{
			ID:            "rev-01HTEST",
			Summary:       "rerun summary",
			ExecutionTime: 0.5,
			Suggestions: []Suggestion{
				{LineStart: 1, LineEnd: 1, FilePath: "main.go", Message: "new finding", Category: CategoryStyle, Severity: SeverityLow},
			},
		}

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE reviews SET").
			WithArgs("rerun summary", 0.5, sqlmock.AnyArg(), "rev-01HTEST").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM suggestions").
			WithArgs("rev-01HTEST").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO suggestions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.ReplaceSuggestions(context.Background(), review)
		require.NoError(t, err)
		assert.False(t, review.UpdatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ReplaceSuggestions missing review", func(t *testing.T) {
		review := &Review{ID: "rev-missing", Summary: "s"}

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE reviews SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.ReplaceSuggestions(context.Background(), review)
		assert.ErrorIs(t, err, ErrReviewNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
