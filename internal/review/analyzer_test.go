package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/reviewd/internal/config"
	"github.com/tildaslashalef/reviewd/internal/llm"
	"github.com/tildaslashalef/reviewd/internal/loggy"
)

// fakeClient returns a canned response or error and records the last request.
type fakeClient struct {
	content string
	err     error
	lastReq llm.ChatRequest
}

func (f *fakeClient) GenerateChat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.content, Model: req.Model}, nil
}

func newMockEngine() *Engine {
	return NewEngine(nil, config.ClaudeConfig{}, loggy.NewNoopLogger())
}

func TestEngineMockAnalyze(t *testing.T) {
	e := newMockEngine()
	ctx := context.Background()

	t.Run("python with imports", func(t *testing.T) {
		code := "import os\nimport sys\n\nprint(os.getcwd())\n"
		result := e.Analyze(ctx, code, "script.py", "", nil)

		require.Len(t, result.Suggestions, 3)
		assert.Equal(t, "Demo code review for python code. 3 suggestions were generated.", result.Summary)

		assert.Equal(t, CategoryStyle, result.Suggestions[0].Category)
		assert.Equal(t, SeverityLow, result.Suggestions[0].Severity)
		require.NotNil(t, result.Suggestions[0].SuggestedFix)

		assert.Equal(t, 1, result.Suggestions[1].LineStart)
		assert.Equal(t, 2, result.Suggestions[1].LineEnd)
		assert.Nil(t, result.Suggestions[1].SuggestedFix)

		doc := result.Suggestions[2]
		assert.Equal(t, CategoryDocumentation, doc.Category)
		assert.Equal(t, SeverityMedium, doc.Severity)
		assert.Equal(t, 2, doc.LineStart) // 4 lines, middle is line 2
		assert.Equal(t, "script.py", doc.FilePath)
	})

	t.Run("python without imports", func(t *testing.T) {
		result := e.Analyze(ctx, "print('hi')\n", "hello.py", "", nil)
		require.Len(t, result.Suggestions, 2)
		assert.Equal(t, "Demo code review for python code. 2 suggestions were generated.", result.Summary)
	})

	t.Run("javascript", func(t *testing.T) {
		result := e.Analyze(ctx, "let x = 1;\nconsole.log(x);\n", "app.js", "", nil)
		require.Len(t, result.Suggestions, 2)
		assert.Equal(t, CategoryStyle, result.Suggestions[0].Category)
		assert.Equal(t, "Demo code review for javascript code. 2 suggestions were generated.", result.Summary)
	})

	t.Run("typescript via explicit language", func(t *testing.T) {
		result := e.Analyze(ctx, "let x = 1;", "file.txt", "typescript", nil)
		require.Len(t, result.Suggestions, 2)
		assert.Equal(t, "Demo code review for typescript code. 2 suggestions were generated.", result.Summary)
	})

	t.Run("other language gets only documentation suggestion", func(t *testing.T) {
		result := e.Analyze(ctx, "x = 1", "main.go", "", nil)
		require.Len(t, result.Suggestions, 1)

		s := result.Suggestions[0]
		assert.Equal(t, CategoryDocumentation, s.Category)
		assert.Equal(t, SeverityMedium, s.Severity)
		assert.Equal(t, 0, s.LineStart) // single line, middle rounds down
		assert.Equal(t, "Demo code review for go code. 1 suggestions were generated.", result.Summary)
	})

	t.Run("unknown extension", func(t *testing.T) {
		result := e.Analyze(ctx, "data", "notes.txt", "", nil)
		require.Len(t, result.Suggestions, 1)
		assert.Equal(t, "Demo code review for unknown code. 1 suggestions were generated.", result.Summary)
	})

	t.Run("settings do not change demo output", func(t *testing.T) {
		plain := e.Analyze(ctx, "x = 1", "a.go", "", nil)
		tuned := e.Analyze(ctx, "x = 1", "a.go", "", Settings{"min_severity": "critical"})
		assert.Equal(t, plain.Suggestions, tuned.Suggestions)
		assert.Equal(t, plain.Summary, tuned.Summary)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		first := e.Analyze(ctx, "import os\n", "s.py", "", nil)
		second := e.Analyze(ctx, "import os\n", "s.py", "", nil)
		assert.Equal(t, first.Suggestions, second.Suggestions)
		assert.Equal(t, first.Summary, second.Summary)
	})

	t.Run("execution time recorded", func(t *testing.T) {
		result := e.Analyze(ctx, "x = 1", "a.py", "", nil)
		assert.GreaterOrEqual(t, result.ExecutionTime, 0.0)
	})
}

func TestEngineProviderAnalyze(t *testing.T) {
	ctx := context.Background()
	cfg := config.ClaudeConfig{Model: "claude-3-7-sonnet-20250219", MaxTokens: 4096}

	newEngine := func(client llm.Client) *Engine {
		return NewEngine(client, cfg, loggy.NewNoopLogger())
	}

	t.Run("valid response", func(t *testing.T) {
		client := &fakeClient{content: `{
			"suggestions": [
				{"line_start": 3, "line_end": 5, "file_path": "", "message": "unchecked error", "category": "lint", "severity": "high", "suggested_fix": "handle the error"},
				{"line_start": 10, "line_end": 10, "file_path": "other.go", "message": "slow loop", "category": "performance", "severity": "medium"}
			],
			"summary": "two issues found"
		}`}
		e := newEngine(client)

		result := e.Analyze(ctx, "package main", "main.go", "", nil)
		require.Len(t, result.Suggestions, 2)
		assert.Equal(t, "two issues found", result.Summary)

		// empty file_path falls back to the reviewed file
		assert.Equal(t, "main.go", result.Suggestions[0].FilePath)
		assert.Equal(t, "other.go", result.Suggestions[1].FilePath)
		assert.Equal(t, CategoryLint, result.Suggestions[0].Category)
		assert.Equal(t, SeverityHigh, result.Suggestions[0].Severity)
	})

	t.Run("prompt carries language and code", func(t *testing.T) {
		client := &fakeClient{content: `{"suggestions": [], "summary": "clean"}`}
		e := newEngine(client)

		e.Analyze(ctx, "print('x')", "tool.py", "", Settings{"min_severity": "high"})

		assert.Contains(t, client.lastReq.System, "specialized in python")
		assert.Contains(t, client.lastReq.System, "severity of high or higher")
		require.Len(t, client.lastReq.Messages, 1)
		assert.Equal(t, "user", client.lastReq.Messages[0].Role)
		assert.Contains(t, client.lastReq.Messages[0].Content, "File: tool.py")
		assert.Contains(t, client.lastReq.Messages[0].Content, "```python\nprint('x')\n```")
		assert.Equal(t, "claude-3-7-sonnet-20250219", client.lastReq.Model)
	})

	t.Run("min severity filters results", func(t *testing.T) {
		client := &fakeClient{content: `{
			"suggestions": [
				{"line_start": 1, "line_end": 1, "message": "nit", "category": "style", "severity": "low"},
				{"line_start": 2, "line_end": 2, "message": "injection", "category": "security", "severity": "critical"}
			],
			"summary": "mixed"
		}`}
		e := newEngine(client)

		result := e.Analyze(ctx, "code", "a.py", "", Settings{"min_severity": "high"})
		require.Len(t, result.Suggestions, 1)
		assert.Equal(t, SeverityCritical, result.Suggestions[0].Severity)
	})

	t.Run("provider error degrades to empty", func(t *testing.T) {
		client := &fakeClient{err: errors.New("connection refused")}
		e := newEngine(client)

		result := e.Analyze(ctx, "code", "a.py", "", nil)
		assert.Empty(t, result.Suggestions)
		assert.Contains(t, result.Summary, "Error analyzing code:")
		assert.Contains(t, result.Summary, "connection refused")
		assert.GreaterOrEqual(t, result.ExecutionTime, 0.0)
	})

	t.Run("unparseable response degrades to empty", func(t *testing.T) {
		client := &fakeClient{content: "I see no problems with this code."}
		e := newEngine(client)

		result := e.Analyze(ctx, "code", "a.py", "", nil)
		assert.Empty(t, result.Suggestions)
		assert.Contains(t, result.Summary, "Error analyzing code:")
	})

	t.Run("unknown category degrades whole batch", func(t *testing.T) {
		client := &fakeClient{content: `{
			"suggestions": [
				{"line_start": 1, "line_end": 1, "message": "ok", "category": "style", "severity": "low"},
				{"line_start": 2, "line_end": 2, "message": "bad", "category": "vibes", "severity": "low"}
			],
			"summary": "partial"
		}`}
		e := newEngine(client)

		result := e.Analyze(ctx, "code", "a.py", "", nil)
		assert.Empty(t, result.Suggestions)
		assert.Contains(t, result.Summary, "Error analyzing code:")
		assert.Contains(t, result.Summary, "vibes")
	})

	t.Run("missing line fields degrade", func(t *testing.T) {
		client := &fakeClient{content: `{
			"suggestions": [{"message": "where?", "category": "lint", "severity": "low"}],
			"summary": "partial"
		}`}
		e := newEngine(client)

		result := e.Analyze(ctx, "code", "a.py", "", nil)
		assert.Empty(t, result.Suggestions)
		assert.Contains(t, result.Summary, "missing line_start")
	})

	t.Run("inverted line range degrades", func(t *testing.T) {
		client := &fakeClient{content: `{
			"suggestions": [{"line_start": 9, "line_end": 3, "message": "range", "category": "lint", "severity": "low"}],
			"summary": "partial"
		}`}
		e := newEngine(client)

		result := e.Analyze(ctx, "code", "a.py", "", nil)
		assert.Empty(t, result.Suggestions)
		assert.Contains(t, result.Summary, "Error analyzing code:")
	})
}

func TestInferLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.py", "python"},
		{"app.js", "javascript"},
		{"app.jsx", "javascript"},
		{"index.ts", "typescript"},
		{"view.tsx", "typescript"},
		{"main.go", "go"},
		{"lib.rs", "rust"},
		{"tool.rb", "ruby"},
		{"index.php", "php"},
		{"matrix.cpp", "c++"},
		{"UPPER.PY", "python"},
		{"notes.txt", "unknown"},
		{"Makefile", "unknown"},
		{"archive.", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferLanguage(tt.path), "path %q", tt.path)
	}
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 1, countLines("x = 1"))
	assert.Equal(t, 1, countLines("x = 1\n"))
	assert.Equal(t, 1, countLines("\n"))
	assert.Equal(t, 2, countLines("a\nb"))
	assert.Equal(t, 4, countLines("a\nb\nc\nd\n"))
}
