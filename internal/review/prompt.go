package review

import (
	"fmt"
	"strings"
)

// systemPromptTemplate instructs the model to reply with a single JSON
// object and nothing else. Placeholders: language, focus areas, minimum
// severity.
const systemPromptTemplate = `You are an expert code reviewer specialized in %s. Analyze the provided code and provide detailed review feedback.
Focus on these areas: %s

Your response should be in the following JSON format ONLY with no additional text:
{
    "suggestions": [
        {
            "line_start": <int>,
            "line_end": <int>,
            "file_path": "<string>",
            "message": "<string>",
            "category": "<category>",
            "severity": "<severity>",
            "suggested_fix": "<string or null>"
        }
    ],
    "summary": "<overall summary of the code quality and main issues>"
}

Categories must be one of: lint, security, performance, style, refactor, documentation, test
Severity levels must be one of: low, medium, high, critical
Only include suggestions with severity of %s or higher.

Be specific in your suggestions and provide concrete examples of how to fix the issues when possible.`

// buildSystemPrompt renders the reviewer instruction for a language and the
// request settings.
func buildSystemPrompt(language string, settings Settings) string {
	areas := settings.FocusAreas()
	names := make([]string, len(areas))
	for i, a := range areas {
		names[i] = string(a)
	}
	return fmt.Sprintf(systemPromptTemplate, language, strings.Join(names, ", "), settings.MinSeverity())
}

// buildUserMessage renders the file under review as a fenced code block.
func buildUserMessage(filePath, language, code string) string {
	return fmt.Sprintf("File: %s\n\n```%s\n%s\n```", filePath, language, code)
}

// languageByExtension maps lowercase file extensions to language names used
// in prompts and summaries.
var languageByExtension = map[string]string{
	"py":   "python",
	"js":   "javascript",
	"ts":   "typescript",
	"jsx":  "javascript",
	"tsx":  "typescript",
	"html": "html",
	"css":  "css",
	"java": "java",
	"c":    "c",
	"cpp":  "c++",
	"go":   "go",
	"rs":   "rust",
	"rb":   "ruby",
	"php":  "php",
}

// InferLanguage resolves the language for a file path from its extension,
// returning "unknown" for unrecognized or missing extensions.
func InferLanguage(filePath string) string {
	idx := strings.LastIndex(filePath, ".")
	if idx < 0 || idx == len(filePath)-1 {
		return "unknown"
	}
	ext := strings.ToLower(filePath[idx+1:])
	if lang, ok := languageByExtension[ext]; ok {
		return lang
	}
	return "unknown"
}
