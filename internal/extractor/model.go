// Package extractor provides utilities for extracting JSON from LLM responses
package extractor

// AnalysisOutput represents the raw structure of an analysis response from
// the completion provider: a single JSON object with exactly two top-level
// keys, suggestions and summary.
type AnalysisOutput struct {
	Suggestions []SuggestionOutput `json:"suggestions"`
	Summary     string             `json:"summary"`
}

// SuggestionOutput represents a single raw suggestion in the provider
// response. Required fields are pointers so that absence can be told apart
// from a zero value during validation.
type SuggestionOutput struct {
	LineStart    *int    `json:"line_start"`
	LineEnd      *int    `json:"line_end"`
	FilePath     string  `json:"file_path"`
	Message      string  `json:"message"`
	Category     string  `json:"category"`
	Severity     string  `json:"severity"`
	SuggestedFix *string `json:"suggested_fix"`
}
