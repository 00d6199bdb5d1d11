package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/masahif/bgpscope/internal/crawler"
)

// Run describes one finished crawl for reporting
type Run struct {
	Company   string
	Seeds     []string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   *crawler.Outcome
}

// MarkdownWriter outputs a run report in Markdown format
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to w
func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: w}
}

// Write renders run and returns the number of bytes produced
func (w *MarkdownWriter) Write(run *Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(fmt.Sprintf("Address space of %s", run.Company))
	md.PlainText("")
	w.writeSummary(md, run)
	w.writeStatus(md, run.Outcome)
	w.writeList(md, "Seeds", run.Seeds, "No organization was selected.")
	w.writeList(md, "Address ranges", run.Outcome.Results.AddressRanges, "No address ranges found.")
	w.writeList(md, "Domain names", run.Outcome.Results.DomainNames, "No domain names found.")
	if len(run.Outcome.Pending) > 0 {
		w.writeList(md, "Not visited", run.Outcome.Pending, "")
	}

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, run *Run) {
	out := run.Outcome
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Company", run.Company},
			{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", run.Duration.Round(time.Second).String()},
			{"Termination", out.Reason.String()},
			{"Pages processed", strconv.Itoa(out.PagesProcessed)},
			{"Address ranges", strconv.Itoa(len(out.Results.AddressRanges))},
			{"Domain names", strconv.Itoa(len(out.Results.DomainNames))},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeStatus(md *markdown.Markdown, out *crawler.Outcome) {
	switch out.Reason {
	case crawler.Exhausted:
		md.Tip("Every discovered page was processed.")
	case crawler.RateLimited:
		md.Warningf("The query limit was reached after %d page(s). Results are partial.", out.PagesProcessed)
	case crawler.Cancelled:
		md.Note("The crawl was interrupted. Results are partial.")
	case crawler.Fatal:
		md.Cautionf("The crawl stopped on an unexpected page: %v", out.Cause)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeList(md *markdown.Markdown, title string, items []string, empty string) {
	md.H2(title)
	md.PlainText("")
	if len(items) == 0 {
		md.PlainText(empty)
		md.PlainText("")
		return
	}
	md.BulletList(items...)
	md.PlainText("")
}
