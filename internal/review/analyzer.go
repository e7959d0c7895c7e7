package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tildaslashalef/reviewd/internal/config"
	"github.com/tildaslashalef/reviewd/internal/extractor"
	"github.com/tildaslashalef/reviewd/internal/llm"
	"github.com/tildaslashalef/reviewd/internal/loggy"
)

// AnalysisResult is the outcome of one analysis run. An analysis never fails
// from the caller's point of view: provider or parse errors degrade to an
// empty suggestion list with the error recorded in the summary.
type AnalysisResult struct {
	Suggestions   []Suggestion
	Summary       string
	ExecutionTime float64
}

// Analyzer produces review suggestions for a single file's content.
type Analyzer interface {
	Analyze(ctx context.Context, code, filePath, language string, settings Settings) *AnalysisResult
}

// Engine implements Analyzer over a completion provider. When no provider
// client is configured the engine serves deterministic demo suggestions
// instead of calling out.
type Engine struct {
	client    llm.Client
	extractor *extractor.JSONExtractor
	cfg       config.ClaudeConfig
	logger    *loggy.Logger
}

// NewEngine creates an analysis engine. A nil client selects mock mode.
func NewEngine(client llm.Client, cfg config.ClaudeConfig, logger *loggy.Logger) *Engine {
	return &Engine{
		client:    client,
		extractor: extractor.NewJSONExtractor(logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// Analyze reviews the given code. The language is inferred from the file
// extension when not supplied.
func (e *Engine) Analyze(ctx context.Context, code, filePath, language string, settings Settings) *AnalysisResult {
	start := time.Now()

	if language == "" {
		language = InferLanguage(filePath)
	}

	if e.client == nil {
		return e.mockAnalyze(code, filePath, language, start)
	}

	suggestions, summary, err := e.providerAnalyze(ctx, code, filePath, language, settings)
	if err != nil {
		e.logger.Warn("analysis degraded to empty result",
			"file_path", filePath,
			"error", err)
		return &AnalysisResult{
			Suggestions:   []Suggestion{},
			Summary:       fmt.Sprintf("Error analyzing code: %s", err),
			ExecutionTime: time.Since(start).Seconds(),
		}
	}

	return &AnalysisResult{
		Suggestions:   suggestions,
		Summary:       summary,
		ExecutionTime: time.Since(start).Seconds(),
	}
}

func (e *Engine) providerAnalyze(ctx context.Context, code, filePath, language string, settings Settings) ([]Suggestion, string, error) {
	req := llm.ChatRequest{
		Model:  e.cfg.Model,
		System: buildSystemPrompt(language, settings),
		Messages: []llm.Message{
			{Role: "user", Content: buildUserMessage(filePath, language, code)},
		},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	}

	resp, err := e.client.GenerateChat(ctx, req)
	if err != nil {
		return nil, "", err
	}

	output, err := e.extractor.ExtractAnalysisOutput(resp.Content)
	if err != nil {
		return nil, "", err
	}

	suggestions, err := validateSuggestions(output.Suggestions, filePath)
	if err != nil {
		return nil, "", err
	}

	// The prompt asks the model to honor the severity floor, but models do
	// not always comply, so filter again here.
	minSeverity := settings.MinSeverity()
	filtered := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Severity.AtLeast(minSeverity) {
			filtered = append(filtered, s)
		}
	}

	e.logger.Debug("provider analysis complete",
		"file_path", filePath,
		"suggestions", len(filtered),
		"filtered_out", len(suggestions)-len(filtered))
	return filtered, output.Summary, nil
}

// validateSuggestions converts raw provider suggestions into domain
// suggestions. Validation is all or nothing: one invalid suggestion fails
// the whole batch so a partially hallucinated response is never persisted.
func validateSuggestions(raw []extractor.SuggestionOutput, defaultFilePath string) ([]Suggestion, error) {
	suggestions := make([]Suggestion, 0, len(raw))
	for i, r := range raw {
		if r.LineStart == nil {
			return nil, fmt.Errorf("suggestion %d: missing line_start", i)
		}
		if r.LineEnd == nil {
			return nil, fmt.Errorf("suggestion %d: missing line_end", i)
		}
		if *r.LineEnd < *r.LineStart {
			return nil, fmt.Errorf("suggestion %d: line_end %d before line_start %d", i, *r.LineEnd, *r.LineStart)
		}
		if r.Message == "" {
			return nil, fmt.Errorf("suggestion %d: missing message", i)
		}

		category, err := ParseCategory(r.Category)
		if err != nil {
			return nil, fmt.Errorf("suggestion %d: %w", i, err)
		}
		severity, err := ParseSeverity(r.Severity)
		if err != nil {
			return nil, fmt.Errorf("suggestion %d: %w", i, err)
		}

		filePath := r.FilePath
		if filePath == "" {
			filePath = defaultFilePath
		}

		suggestions = append(suggestions, Suggestion{
			LineStart:    *r.LineStart,
			LineEnd:      *r.LineEnd,
			FilePath:     filePath,
			Message:      r.Message,
			Category:     category,
			Severity:     severity,
			SuggestedFix: r.SuggestedFix,
		})
	}
	return suggestions, nil
}

// mockAnalyze produces a fixed set of demo suggestions keyed off the
// language and code shape. Settings are intentionally ignored so demo output
// stays stable across requests.
func (e *Engine) mockAnalyze(code, filePath, language string, start time.Time) *AnalysisResult {
	suggestions := []Suggestion{}

	switch {
	case language == "python":
		fix := "Add type hints to function parameters and return values."
		suggestions = append(suggestions, Suggestion{
			LineStart:    1,
			LineEnd:      1,
			FilePath:     filePath,
			Message:      "Consider adding type annotations to improve code readability and enable static type checking.",
			Category:     CategoryStyle,
			Severity:     SeverityLow,
			SuggestedFix: &fix,
		})
		if containsImport(code) {
			suggestions = append(suggestions, Suggestion{
				LineStart: 1,
				LineEnd:   2,
				FilePath:  filePath,
				Message:   "Organize imports according to PEP8: standard library, third-party, local application imports.",
				Category:  CategoryStyle,
				Severity:  SeverityLow,
			})
		}
	case language == "javascript" || language == "typescript":
		fix := "Replace 'let' with 'const' for variables that don't change."
		suggestions = append(suggestions, Suggestion{
			LineStart:    1,
			LineEnd:      1,
			FilePath:     filePath,
			Message:      "Consider using const instead of let for variables that are not reassigned.",
			Category:     CategoryStyle,
			Severity:     SeverityLow,
			SuggestedFix: &fix,
		})
	}

	midLine := countLines(code) / 2
	suggestions = append(suggestions, Suggestion{
		LineStart: midLine,
		LineEnd:   midLine,
		FilePath:  filePath,
		Message:   "Add comments to explain complex logic and improve code maintainability.",
		Category:  CategoryDocumentation,
		Severity:  SeverityMedium,
	})

	return &AnalysisResult{
		Suggestions:   suggestions,
		Summary:       fmt.Sprintf("Demo code review for %s code. %d suggestions were generated.", language, len(suggestions)),
		ExecutionTime: time.Since(start).Seconds(),
	}
}

func containsImport(code string) bool {
	return strings.Contains(code, "import ")
}

// countLines counts lines the way text is usually displayed: a trailing
// newline does not start an extra line, and empty content has no lines.
func countLines(code string) int {
	if code == "" {
		return 0
	}
	n := 1
	end := len(code)
	if code[end-1] == '\n' {
		end--
		if end == 0 {
			return 1
		}
	}
	for i := 0; i < end; i++ {
		if code[i] == '\n' {
			n++
		}
	}
	return n
}
