// Package report writes progress reports of decks.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	"github.com/at-ishikawa/jmemory/internal/assets"
	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/pdf"
	"github.com/at-ishikawa/jmemory/internal/statistics"
)

// Options controls where and how a report is written
type Options struct {
	OutputDirectory string
	// TemplatePath overrides the embedded Markdown template
	TemplatePath string
	// FontPath is passed to the PDF renderer for Japanese glyphs
	FontPath string
	// SkipPDF only writes the Markdown file
	SkipPDF bool
}

// Build summarizes each deck for the report template
func Build(decks []deck.Deck, lookup statistics.Lookup, now time.Time) assets.ProgressReportTemplate {
	return assets.ProgressReportTemplate{
		GeneratedAt: now,
		Decks: lo.Map(decks, func(d deck.Deck, _ int) assets.ProgressReportDeck {
			summary := statistics.Calculate(d.TaggedCards(), lookup, now)
			return assets.ProgressReportDeck{
				Name: d.DisplayName(),
				Summary: assets.ProgressReportSummary{
					Total:           summary.Total,
					Reviewed:        summary.Reviewed,
					Due:             summary.Due,
					Mastered:        summary.Mastered,
					ReadingProgress: summary.ReadingProgress,
					WritingProgress: summary.WritingProgress,
				},
				Cards: lo.Map(summary.Cards, func(c statistics.CardStatistics, _ int) assets.ProgressReportCard {
					return assets.ProgressReportCard{
						Script:   c.Card.Script,
						Readings: c.Card.Readings,
						Meanings: c.Card.Meanings,
						Progress: c.Progress,
						DueAt:    c.Record.DueAt,
					}
				}),
			}
		}),
	}
}

// Write renders the report as Markdown and converts it to PDF. It returns
// the path of the PDF, or of the Markdown file when SkipPDF is set.
func Write(decks []deck.Deck, lookup statistics.Lookup, now time.Time, opts Options) (string, error) {
	if err := os.MkdirAll(opts.OutputDirectory, 0o755); err != nil {
		return "", fmt.Errorf("os.MkdirAll(%s) > %w", opts.OutputDirectory, err)
	}

	markdownPath := filepath.Join(opts.OutputDirectory, fmt.Sprintf("progress-%s.md", now.Format("20060102")))
	file, err := os.Create(markdownPath)
	if err != nil {
		return "", fmt.Errorf("os.Create(%s) > %w", markdownPath, err)
	}
	if err := assets.WriteProgressReport(file, opts.TemplatePath, Build(decks, lookup, now)); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("assets.WriteProgressReport() > %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("file.Close() > %w", err)
	}

	if opts.SkipPDF {
		return markdownPath, nil
	}
	pdfPath, err := pdf.ConvertMarkdownToPDF(markdownPath, pdf.Options{FontPath: opts.FontPath})
	if err != nil {
		return "", fmt.Errorf("pdf.ConvertMarkdownToPDF() > %w", err)
	}
	return pdfPath, nil
}
