package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tildaslashalef/reviewd/internal/loggy"
)

var codeBlockRegexp = regexp.MustCompile("```(?:json)?([\\s\\S]*?)```")

// JSONExtractor extracts structured analysis output from LLM responses
type JSONExtractor struct {
	logger *loggy.Logger
}

// NewJSONExtractor creates a new JSONExtractor
func NewJSONExtractor(logger *loggy.Logger) *JSONExtractor {
	return &JSONExtractor{logger: logger}
}

// ExtractAnalysisOutput locates the JSON object in content and decodes it.
// Models are instructed to reply with nothing but the object, but some wrap
// it in a code fence or preamble text, so extraction tolerates surrounding
// noise. Decoding is strict: content with no parseable object, or an object
// that does not match the schema, is an error for the caller to absorb.
func (e *JSONExtractor) ExtractAnalysisOutput(content string) (*AnalysisOutput, error) {
	jsonContent, err := extractJSON(content)
	if err != nil {
		e.logger.Debug("failed to locate JSON in response", "error", err, "length", len(content))
		return nil, err
	}

	var output AnalysisOutput
	if err := json.Unmarshal([]byte(jsonContent), &output); err != nil {
		e.logger.Debug("failed to unmarshal analysis output", "error", err)
		return nil, fmt.Errorf("parsing analysis response: %w", err)
	}

	e.logger.Debug("extracted analysis output", "suggestions", len(output.Suggestions))
	return &output, nil
}

// extractJSON finds and extracts a JSON object from the content
func extractJSON(content string) (string, error) {
	// Try fenced code blocks first
	for _, match := range codeBlockRegexp.FindAllStringSubmatch(content, -1) {
		if len(match) > 1 {
			potential := strings.TrimSpace(match[1])
			if strings.HasPrefix(potential, "{") && strings.HasSuffix(potential, "}") {
				return potential, nil
			}
		}
	}

	// Fall back to brace matching from the first opening brace
	startIdx := strings.Index(content, "{")
	if startIdx >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i, char := range content[startIdx:] {
			switch {
			case escaped:
				escaped = false
			case char == '\\' && inString:
				escaped = true
			case char == '"':
				inString = !inString
			case char == '{' && !inString:
				depth++
			case char == '}' && !inString:
				depth--
				if depth == 0 {
					return content[startIdx : startIdx+i+1], nil
				}
			}
		}
	}

	return "", fmt.Errorf("no JSON object found in content")
}
