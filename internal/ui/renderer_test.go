package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noteseek/noteseek/internal/scan"
	"github.com/noteseek/noteseek/internal/store"
)

func TestRenderer_ResultsPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.Results([]store.SearchResult{
		{
			DocID: "d1", Path: "/notes/plan.md", Title: "Project Plan",
			Score: 0.87, Snippet: "the <mark>plan</mark> for next quarter",
			Match: store.MatchBoth,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Project Plan")
	assert.Contains(t, out, "/notes/plan.md")
	assert.Contains(t, out, "0.87")
	assert.Contains(t, out, "[both]")
	assert.Contains(t, out, "the plan for next quarter")
	assert.NotContains(t, out, "<mark>")
}

func TestRenderer_EmptyResults(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Results(nil)
	assert.Contains(t, buf.String(), "no results")
}

func TestRenderer_Summary(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.Summary(&scan.Summary{
		Processed: 12, Skipped: 3, Removed: 1, Failed: 0,
		Duration: 1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "Indexed 12 files")
	assert.Contains(t, out, "3 unchanged")
	assert.Contains(t, out, "1 removed")
	assert.NotContains(t, out, "failed")
}

func TestRenderer_SummaryWithFailures(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.Summary(&scan.Summary{Processed: 1, Failed: 2, Duration: time.Second})
	assert.Contains(t, buf.String(), "2 files failed")
}

func TestRenderer_ProgressSkipsFinalNotification(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.Progress(scan.Progress{Processed: 5, Total: 10})
	r.Progress(scan.Progress{Processed: 10, Total: 10, Done: true})

	assert.Contains(t, buf.String(), "5/10")
	assert.NotContains(t, buf.String(), "10/10")
}

func TestCleanSnippet_TruncatesLongText(t *testing.T) {
	long := make([]byte, 0, 400)
	for i := 0; i < 40; i++ {
		long = append(long, []byte("ten chars ")...)
	}

	out := cleanSnippet(string(long))
	assert.LessOrEqual(t, len([]rune(out)), 161)
}
