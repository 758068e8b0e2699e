package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/noteseek/noteseek/internal/scan"
	"github.com/noteseek/noteseek/internal/store"
)

// Renderer writes progress lines and search results. Colors are used only
// when the output is a terminal.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer for out, enabling color when out is a
// TTY.
func NewRenderer(out io.Writer) *Renderer {
	styles := NoColorStyles()
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		styles = DefaultStyles()
	}
	return &Renderer{out: out, styles: styles}
}

// Progress prints one throttled scan progress line.
func (r *Renderer) Progress(p scan.Progress) {
	if p.Done {
		return
	}
	fmt.Fprintf(r.out, "%s %d/%d files\n",
		r.styles.Dim.Render("indexing"), p.Processed, p.Total)
}

// Summary prints the scan completion line.
func (r *Renderer) Summary(s *scan.Summary) {
	line := fmt.Sprintf("Indexed %d files (%d unchanged, %d removed) in %s",
		s.Processed, s.Skipped, s.Removed, s.Duration.Round(10*time.Millisecond))
	fmt.Fprintln(r.out, r.styles.Success.Render(line))

	if s.Failed > 0 {
		fmt.Fprintln(r.out, r.styles.Error.Render(
			fmt.Sprintf("%d files failed; see the log for details", s.Failed)))
	}
}

// Results prints fused search results, one block per document.
func (r *Renderer) Results(results []store.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(r.out, r.styles.Dim.Render("no results"))
		return
	}

	for i, res := range results {
		fmt.Fprintf(r.out, "%2d. %s  %s %s\n",
			i+1,
			r.styles.Title.Render(res.Title),
			r.styles.Score.Render(fmt.Sprintf("%.2f", res.Score)),
			r.styles.Badge.Render("["+string(res.Match)+"]"))
		fmt.Fprintf(r.out, "    %s\n", r.styles.Path.Render(res.Path))

		if snippet := cleanSnippet(res.Snippet); snippet != "" {
			fmt.Fprintf(r.out, "    %s\n", r.styles.Snippet.Render(snippet))
		}
		fmt.Fprintln(r.out)
	}
}

// Errorf prints an error line.
func (r *Renderer) Errorf(format string, args ...any) {
	fmt.Fprintln(r.out, r.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// cleanSnippet strips highlight markup and trims a snippet to one line.
func cleanSnippet(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "")
	s = strings.ReplaceAll(s, "</mark>", "")
	s = strings.Join(strings.Fields(s), " ")

	const maxLen = 160
	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen]) + "…"
	}
	return s
}
