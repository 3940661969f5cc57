// Package extract turns source documents into raw text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"

	"github.com/bastiangx/pdfserve/internal/logger"
)

var (
	// ErrEmptyPath is returned when no source path is configured.
	ErrEmptyPath = errors.New("extract: empty source path")
	// ErrNoText is returned when a document yields no text at all.
	ErrNoText = errors.New("extract: no text content found")
)

// Extractor produces the raw text of the document at path.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, path string) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// PageSeparator joins the text of consecutive pages.
const PageSeparator = "\n\n"

// PDF extracts plain text page by page with ledongthuc/pdf.
type PDF struct {
	// MaxPages limits extraction to the first N pages, 0 for all.
	MaxPages int
	log      *log.Logger
}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	return &PDF{log: logger.New("extract")}
}

// Extract reads every page of the PDF at path. Pages that fail are skipped
// and logged. Malformed files that make the parser panic are reported as
// errors.
func (p *PDF) Extract(ctx context.Context, path string) (text string, err error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parsing %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	if p.MaxPages > 0 && p.MaxPages < total {
		total = p.MaxPages
	}

	var b strings.Builder
	skipped := 0
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			skipped++
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			p.logger().Warnf("Skipping page %d of %s: %v", i, path, err)
			skipped++
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			skipped++
			continue
		}
		if b.Len() > 0 {
			b.WriteString(PageSeparator)
		}
		b.WriteString(pageText)
	}

	p.logger().Debug("Extracted PDF", "path", path, "pages", total, "skipped", skipped, "bytes", b.Len())
	if b.Len() == 0 {
		return "", ErrNoText
	}
	return b.String(), nil
}

func (p *PDF) logger() *log.Logger {
	if p.log == nil {
		return log.Default()
	}
	return p.log
}
