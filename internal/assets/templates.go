package assets

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

const progressReportTemplateName = "progress-report.md.go.tmpl"

//go:embed templates/progress-report.md.go.tmpl
var fallbackProgressReportTemplate string

// ProgressReportTemplate is the top-level data structure for progress report templates
type ProgressReportTemplate struct {
	GeneratedAt time.Time
	Decks       []ProgressReportDeck
}

// ProgressReportDeck is a deck section in the progress report
type ProgressReportDeck struct {
	Name    string
	Summary ProgressReportSummary
	Cards   []ProgressReportCard
}

type ProgressReportSummary struct {
	Total           int
	Reviewed        int
	Due             int
	Mastered        int
	ReadingProgress int
	WritingProgress int
}

type ProgressReportCard struct {
	Script   string
	Readings []string
	Meanings []string
	Progress int
	DueAt    time.Time
}

func WriteProgressReport(output io.Writer, templatePath string, templateData ProgressReportTemplate) error {
	tmpl, err := parseTemplateWithFallback(templatePath, progressReportTemplateName, fallbackProgressReportTemplate)
	if err != nil {
		return fmt.Errorf("parseTemplateWithFallback() > %w", err)
	}
	if err := tmpl.Execute(output, templateData); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}

func parseTemplateWithFallback(templatePath string, fallbackName string, fallbackTemplate string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			fileName := filepath.Base(templatePath)
			tmpl, err := template.New(fileName).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(fallbackName).
		Funcs(funcMap).
		Parse(fallbackTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}
