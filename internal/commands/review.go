// Package commands implements the CLI commands for reviewd.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/reviewd/internal/app"
	"github.com/tildaslashalef/reviewd/internal/review"
	"github.com/tildaslashalef/reviewd/internal/utils"
)

// skippedExtensions are binary artifacts never worth reviewing.
var skippedExtensions = map[string]bool{
	".pyc": true,
	".so":  true,
	".dll": true,
	".exe": true,
}

// ReviewCommand returns the CLI command for reviewing files locally
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Review a file or directory for issues and suggestions",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "severity",
				Aliases: []string{"s"},
				Usage:   "Minimum severity level to report (low, medium, high, critical)",
				Value:   "low",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, json, markdown)",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"r"},
				Usage:   "Recursively scan directories",
			},
			&cli.StringSliceFlag{
				Name:  "ignore",
				Usage: "Path fragments to skip",
				Value: cli.NewStringSlice("venv", "node_modules", ".git"),
			},
		},
		Action: runReview,
	}
}

func runReview(c *cli.Context) error {
	application, ok := c.App.Metadata["app"].(*app.App)
	if !ok {
		return fmt.Errorf("application not initialized")
	}

	severity := c.String("severity")
	if _, err := review.ParseSeverity(severity); err != nil {
		return fmt.Errorf("invalid severity: %s", severity)
	}

	path := c.Args().First()
	if path == "" {
		path = "."
	}

	files, err := collectFiles(path, c.Bool("recursive"), c.StringSlice("ignore"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		utils.PrintWarning("No files to review")
		return nil
	}

	utils.PrintInfo(fmt.Sprintf("Reviewing %d file(s)", len(files)))

	settings := review.Settings{"min_severity": severity}
	results := make([]*review.ReviewResponse, 0, len(files))
	for _, file := range files {
		result, err := reviewFile(c.Context, application, file, settings)
		if err != nil {
			utils.PrintError(fmt.Sprintf("Error reviewing %s: %s", file, err))
			continue
		}
		results = append(results, result)
	}

	switch c.String("format") {
	case "json":
		return printJSONReport(results)
	case "markdown":
		printMarkdownReport(results)
	default:
		printTextReport(results)
	}
	return nil
}

// collectFiles resolves the review targets under path, honoring the ignore
// fragments and skipping binaries and extensionless files.
func collectFiles(path string, recursive bool, ignore []string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path %q does not exist", path)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if shouldProcessFile(p, ignore) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", path, err)
		}
		return files, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := filepath.Join(path, entry.Name())
		if shouldProcessFile(p, ignore) {
			files = append(files, p)
		}
	}
	return files, nil
}

func shouldProcessFile(path string, ignore []string) bool {
	ext := filepath.Ext(path)
	if ext == "" || skippedExtensions[ext] {
		return false
	}
	for _, fragment := range ignore {
		if fragment != "" && strings.Contains(path, fragment) {
			return false
		}
	}
	return true
}

// reviewFile analyzes one file through the review service, bounded by the
// configured per-file timeout.
func reviewFile(ctx context.Context, application *app.App, path string, settings review.Settings) (*review.ReviewResponse, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	fileCtx, cancel := context.WithTimeout(ctx, application.Config.Review.FileTimeout)
	defer cancel()

	created, err := application.Review.CreateReview(fileCtx, review.ReviewRequest{
		Code:     string(content),
		FilePath: path,
		Settings: settings,
	})
	if err != nil {
		return nil, err
	}
	return review.ResponseFromReview(created), nil
}

func totalSuggestions(results []*review.ReviewResponse) int {
	total := 0
	for _, r := range results {
		total += len(r.Suggestions)
	}
	return total
}

func severityString(s review.Severity) string {
	switch s {
	case review.SeverityLow:
		return color.GreenString(string(s))
	case review.SeverityMedium:
		return color.YellowString(string(s))
	case review.SeverityHigh:
		return color.RedString(string(s))
	case review.SeverityCritical:
		return color.New(color.FgRed, color.Bold).Sprint(string(s))
	default:
		return string(s)
	}
}

func printTextReport(results []*review.ReviewResponse) {
	total := totalSuggestions(results)
	if total == 0 {
		utils.PrintSuccess("No issues found!")
		return
	}

	utils.PrintHeading(fmt.Sprintf("Found %d issue(s) across %d file(s)", total, len(results)))

	for _, result := range results {
		if len(result.Suggestions) == 0 {
			continue
		}

		filePath := result.Suggestions[0].FilePath
		fmt.Println()
		utils.PrintKeyValue("File", filePath)
		fmt.Println(result.Summary)

		rows := make([][]string, 0, len(result.Suggestions))
		for _, s := range result.Suggestions {
			row := []string{
				fmt.Sprintf("%d-%d", s.LineStart, s.LineEnd),
				severityString(s.Severity),
				string(s.Category),
				s.Message,
			}
			rows = append(rows, row)
			if s.SuggestedFix != nil && *s.SuggestedFix != "" {
				rows = append(rows, []string{"", "", "", color.CyanString("Fix: %s", *s.SuggestedFix)})
			}
		}
		utils.PrintTable("", []string{"Lines", "Severity", "Category", "Message"}, rows)
	}
}

func printJSONReport(results []*review.ReviewResponse) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func printMarkdownReport(results []*review.ReviewResponse) {
	total := totalSuggestions(results)
	if total == 0 {
		fmt.Println("# Code Review Results\n\nNo issues found!")
		return
	}

	fmt.Printf("# Code Review Results\n\nFound %d issue(s) across %d file(s)\n\n", total, len(results))

	for _, result := range results {
		if len(result.Suggestions) == 0 {
			continue
		}

		filePath := result.Suggestions[0].FilePath
		fmt.Printf("## %s\n\n%s\n\n", filePath, result.Summary)

		for _, s := range result.Suggestions {
			fmt.Printf("### %s (Lines %d-%d)\n\n", titleCase(string(s.Category)), s.LineStart, s.LineEnd)
			fmt.Printf("**Severity:** %s\n\n", strings.ToUpper(string(s.Severity)))
			fmt.Printf("%s\n\n", s.Message)

			if s.SuggestedFix != nil && *s.SuggestedFix != "" {
				fmt.Printf("#### Suggested Fix\n\n```%s\n%s\n```\n\n", strings.TrimPrefix(filepath.Ext(filePath), "."), *s.SuggestedFix)
			}
		}
	}
}
