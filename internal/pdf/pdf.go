package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mandolyte/mdtopdf"
)

// unicodeFontFamily is the name the configured font is registered under
const unicodeFontFamily = "jmemory-unicode"

// Options controls the PDF rendering
type Options struct {
	// FontPath is a TrueType font with Japanese glyphs. Without it the
	// built-in fonts are used and kana or kanji are not rendered.
	FontPath string
}

// ConvertMarkdownToPDF converts a markdown file to PDF using mdtopdf package
// The PDF file will be created in the same directory as the markdown file
func ConvertMarkdownToPDF(markdownPath string, opts Options) (string, error) {
	if !strings.HasSuffix(markdownPath, ".md") {
		return "", fmt.Errorf("input file must have .md extension: %s", markdownPath)
	}

	content, err := os.ReadFile(markdownPath)
	if err != nil {
		return "", fmt.Errorf("os.ReadFile(%s) > %w", markdownPath, err)
	}

	pdfPath := strings.TrimSuffix(markdownPath, ".md") + ".pdf"

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if opts.FontPath != "" {
		if _, err := os.Stat(opts.FontPath); err != nil {
			return "", fmt.Errorf("os.Stat(%s) > %w", opts.FontPath, err)
		}
		useUnicodeFont(renderer, opts.FontPath)
	}
	if err := renderer.Process(content); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return pdfPath, nil
	}

	return absPath, nil
}

func useUnicodeFont(renderer *mdtopdf.PdfRenderer, fontPath string) {
	renderer.Pdf.AddUTF8Font(unicodeFontFamily, "", fontPath)
	renderer.Pdf.AddUTF8Font(unicodeFontFamily, "B", fontPath)
	renderer.Pdf.AddUTF8Font(unicodeFontFamily, "I", fontPath)
	renderer.Pdf.AddUTF8Font(unicodeFontFamily, "BI", fontPath)

	for _, styler := range []*mdtopdf.Styler{
		&renderer.Normal,
		&renderer.H1,
		&renderer.H2,
		&renderer.H3,
		&renderer.THeader,
		&renderer.TBody,
	} {
		styler.Font = unicodeFontFamily
	}
}
