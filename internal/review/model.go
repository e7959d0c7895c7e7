// Package review implements code review orchestration: analysis of source
// files through a completion provider (or a deterministic mock), and
// persistence of the resulting reviews and suggestions.
package review

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Severity represents the severity of a suggestion, ordered from low to
// critical.
type Severity string

const (
	// SeverityLow represents a low-severity suggestion
	SeverityLow Severity = "low"
	// SeverityMedium represents a medium-severity suggestion
	SeverityMedium Severity = "medium"
	// SeverityHigh represents a high-severity suggestion
	SeverityHigh Severity = "high"
	// SeverityCritical represents a critical suggestion
	SeverityCritical Severity = "critical"
)

var severityRanks = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// ParseSeverity maps a string to a Severity, failing on unknown values.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if _, ok := severityRanks[sev]; !ok {
		return "", fmt.Errorf("unknown severity: %q", s)
	}
	return sev, nil
}

// Rank returns the position of the severity in the low < medium < high <
// critical order.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// AtLeast reports whether the severity is at least min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// Category represents the category of a suggestion
type Category string

const (
	// CategoryLint represents a lint finding
	CategoryLint Category = "lint"
	// CategorySecurity represents a security vulnerability
	CategorySecurity Category = "security"
	// CategoryPerformance represents a performance issue
	CategoryPerformance Category = "performance"
	// CategoryStyle represents a code style issue
	CategoryStyle Category = "style"
	// CategoryRefactor represents a refactoring opportunity
	CategoryRefactor Category = "refactor"
	// CategoryDocumentation represents missing or poor documentation
	CategoryDocumentation Category = "documentation"
	// CategoryTest represents a testing gap
	CategoryTest Category = "test"
)

// AllCategories lists every valid category, in prompt order.
var AllCategories = []Category{
	CategoryLint,
	CategorySecurity,
	CategoryPerformance,
	CategoryStyle,
	CategoryRefactor,
	CategoryDocumentation,
	CategoryTest,
}

var validCategories = func() map[Category]struct{} {
	m := make(map[Category]struct{}, len(AllCategories))
	for _, c := range AllCategories {
		m[c] = struct{}{}
	}
	return m
}()

// ParseCategory maps a string to a Category, failing on unknown values.
func ParseCategory(s string) (Category, error) {
	cat := Category(s)
	if _, ok := validCategories[cat]; !ok {
		return "", fmt.Errorf("unknown category: %q", s)
	}
	return cat, nil
}

// ReviewStatus represents the status of a review. Analysis is synchronous,
// so no in-progress state is modeled.
type ReviewStatus string

const (
	// ReviewStatusCompleted indicates the review has completed
	ReviewStatusCompleted ReviewStatus = "completed"
)

// Suggestion represents a single finding within a review, scoped to a
// 1-based inclusive line range.
type Suggestion struct {
	ID           string   `json:"-"`
	ReviewID     string   `json:"-"`
	LineStart    int      `json:"line_start"`
	LineEnd      int      `json:"line_end"`
	FilePath     string   `json:"file_path"`
	Message      string   `json:"message"`
	Category     Category `json:"category"`
	Severity     Severity `json:"severity"`
	SuggestedFix *string  `json:"suggested_fix"`
}

// Settings is the opaque key-value configuration echoed from a review
// request. It is stored as JSON alongside the review.
type Settings map[string]any

// Value implements the driver.Valuer interface for database serialization.
func (s Settings) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for database deserialization.
func (s *Settings) Scan(src any) error {
	var source []byte
	switch src := src.(type) {
	case string:
		source = []byte(src)
	case []byte:
		source = src
	case nil:
		return nil
	default:
		return errors.New("incompatible type for Settings")
	}
	if len(source) == 0 {
		return nil
	}
	return json.Unmarshal(source, s)
}

// FocusAreas returns the requested focus categories, defaulting to all
// categories when unset. Unknown entries are dropped.
func (s Settings) FocusAreas() []Category {
	raw, ok := s["focus_areas"]
	if !ok {
		return AllCategories
	}

	var names []string
	switch v := raw.(type) {
	case []string:
		names = v
	case []any:
		for _, item := range v {
			if str, ok := item.(string); ok {
				names = append(names, str)
			}
		}
	default:
		return AllCategories
	}

	var areas []Category
	for _, name := range names {
		if cat, err := ParseCategory(name); err == nil {
			areas = append(areas, cat)
		}
	}
	if len(areas) == 0 {
		return AllCategories
	}
	return areas
}

// MinSeverity returns the requested minimum severity, defaulting to low.
func (s Settings) MinSeverity() Severity {
	raw, ok := s["min_severity"].(string)
	if !ok {
		return SeverityLow
	}
	sev, err := ParseSeverity(raw)
	if err != nil {
		return SeverityLow
	}
	return sev
}

// Review represents one completed analysis run over a single file's content.
// The source code is persisted so a rerun analyzes the true original input.
type Review struct {
	ID            string       `json:"id"`
	FilePath      string       `json:"file_path"`
	Language      string       `json:"language"`
	SourceCode    string       `json:"-"`
	Summary       string       `json:"summary"`
	ExecutionTime float64      `json:"execution_time"`
	Settings      Settings     `json:"settings,omitempty"`
	Status        ReviewStatus `json:"status"`
	UserID        *string      `json:"user_id,omitempty"`
	Suggestions   []Suggestion `json:"suggestions,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ReviewSummary is a listing record for a review: its metadata and the
// number of suggestions it owns, without the suggestion bodies.
type ReviewSummary struct {
	ID              string       `json:"id"`
	FilePath        string       `json:"file_path"`
	Language        string       `json:"language"`
	Summary         string       `json:"summary"`
	CreatedAt       time.Time    `json:"created_at"`
	Status          ReviewStatus `json:"status"`
	SuggestionCount int          `json:"suggestion_count"`
}

// ReviewRequest is a request to analyze a file's content.
type ReviewRequest struct {
	Code     string   `json:"code"`
	FilePath string   `json:"file_path"`
	Language string   `json:"language,omitempty"`
	Settings Settings `json:"settings,omitempty"`
}

// ReviewResponse is the API response for a created, fetched, or rerun
// review.
type ReviewResponse struct {
	ReviewID      string       `json:"review_id"`
	Suggestions   []Suggestion `json:"suggestions"`
	Summary       string       `json:"summary"`
	ExecutionTime float64      `json:"execution_time"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ResponseFromReview assembles the API response shape for a review.
func ResponseFromReview(r *Review) *ReviewResponse {
	suggestions := r.Suggestions
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	return &ReviewResponse{
		ReviewID:      r.ID,
		Suggestions:   suggestions,
		Summary:       r.Summary,
		ExecutionTime: r.ExecutionTime,
		CreatedAt:     r.CreatedAt,
	}
}
