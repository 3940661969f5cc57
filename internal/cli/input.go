// Package cli handles cmd line input for debugging completions in real time.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/pdfserve/internal/utils"
	"github.com/bastiangx/pdfserve/pkg/match"
	"github.com/bastiangx/pdfserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Completions is the part of the provider the CLI drives.
type Completions interface {
	Complete(ctx context.Context, prefix string, limit int) ([]suggest.Suggestion, error)
	Lines(ctx context.Context, lineUpToCursor string) ([]match.Suggestion, error)
}

var (
	wordStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	insertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Italic(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// InputHandler reads lines of text and prints the word completions for the
// last word and the inline completions for the whole line.
type InputHandler struct {
	completions     Completions
	minPrefixLength int
	maxPrefixLength int
	suggestLimit    int
	noFilter        bool
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(c Completions, minLength, maxLength, limit int, noFilter bool) *InputHandler {
	return &InputHandler{
		completions:     c,
		minPrefixLength: minLength,
		maxPrefixLength: maxLength,
		suggestLimit:    limit,
		noFilter:        noFilter,
	}
}

// Start runs the loop until r is exhausted or ctx is cancelled.
func (h *InputHandler) Start(ctx context.Context, r io.Reader, w io.Writer) error {
	fmt.Fprintln(w, "pdfserve CLI [BETA]")
	fmt.Fprintln(w, dimStyle.Render("type the start of a line and press Enter (Ctrl+C to exit):"))

	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		h.handleInput(ctx, w, line)
	}
}

func (h *InputHandler) handleInput(ctx context.Context, w io.Writer, line string) {
	h.printWords(ctx, w, lastWord(line))
	h.printLines(ctx, w, line)
}

func (h *InputHandler) printWords(ctx context.Context, w io.Writer, prefix string) {
	n := utils.RuneLen(prefix)
	if n < h.minPrefixLength {
		log.Debugf("Prefix too short: %s", prefix)
		return
	}
	if n > h.maxPrefixLength {
		log.Errorf("Prefix too long: %s", prefix)
		return
	}
	if !h.noFilter && !utils.IsValidInput(prefix) {
		fmt.Fprintf(w, "no words for '%s' (filtered out)\n", prefix)
		return
	}

	start := time.Now()
	suggestions, err := h.completions.Complete(ctx, prefix, h.suggestLimit)
	if err != nil {
		log.Errorf("Completing '%s': %v", prefix, err)
		return
	}
	log.Debugf("Took [ %v ] for prefix '%s'", time.Since(start), prefix)

	if len(suggestions) == 0 {
		fmt.Fprintf(w, "no words for '%s'\n", prefix)
		return
	}
	fmt.Fprintf(w, "%d words for '%s':\n", len(suggestions), prefix)
	for i, s := range suggestions {
		fmt.Fprintf(w, "%2d. %s %s\n", i+1, wordStyle.Render(s.Word),
			dimStyle.Render(fmt.Sprintf("(freq: %s)", formatWithCommas(s.Frequency))))
	}
}

func (h *InputHandler) printLines(ctx context.Context, w io.Writer, line string) {
	start := time.Now()
	suggestions, err := h.completions.Lines(ctx, line)
	if err != nil {
		log.Errorf("Line completion: %v", err)
		return
	}
	log.Debugf("Took [ %v ] for line completion", time.Since(start))

	if len(suggestions) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no line completions"))
		return
	}
	fmt.Fprintf(w, "%d line completions:\n", len(suggestions))
	for i, s := range suggestions {
		fmt.Fprintf(w, "%2d. %s%s\n", i+1, line, insertStyle.Render(" "+s.InsertText))
	}
}

// lastWord returns the word being typed at the end of line.
func lastWord(line string) string {
	if strings.HasSuffix(line, " ") {
		return ""
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// formatWithCommas formats an integer with comma separators
func formatWithCommas(n int) string {
	str := fmt.Sprintf("%d", n)
	if n < 1000 && n > -1000 {
		return str
	}
	neg := strings.HasPrefix(str, "-")
	str = strings.TrimPrefix(str, "-")

	var b strings.Builder
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
