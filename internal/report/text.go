package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/masahif/bgpscope/internal/crawler"
)

const rule = "------------------------"

// TextWriter prints results for the terminal
type TextWriter struct {
	output io.Writer
}

// NewTextWriter creates a TextWriter that outputs to w
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{output: w}
}

// Write lists the address ranges, then the domain names, in discovery order
func (w *TextWriter) Write(company string, results *crawler.ResultSet) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CIDRs belonging to %s:\n", company)
	b.WriteString(rule + "\n")
	b.WriteString(strings.Join(results.AddressRanges, "\n") + "\n")
	b.WriteString("\n")
	b.WriteString("Domain names discovered:\n")
	b.WriteString(rule + "\n")
	b.WriteString(strings.Join(results.DomainNames, "\n") + "\n")

	_, err := io.WriteString(w.output, b.String())
	return err
}

// ResultFiles names the two plain-text files written for an output prefix
type ResultFiles struct {
	AddressRanges string
	DomainNames   string
}

// FilesFor returns the file names used for prefix
func FilesFor(prefix string) ResultFiles {
	return ResultFiles{
		AddressRanges: prefix + ".ips.txt",
		DomainNames:   prefix + ".domains.txt",
	}
}

// WriteResultFiles writes one entry per line with no trailing newline,
// replacing existing files.
func WriteResultFiles(prefix string, results *crawler.ResultSet) (ResultFiles, error) {
	files := FilesFor(prefix)
	if err := os.WriteFile(files.AddressRanges, []byte(strings.Join(results.AddressRanges, "\n")), 0o644); err != nil {
		return files, fmt.Errorf("failed to write address ranges: %w", err)
	}
	if err := os.WriteFile(files.DomainNames, []byte(strings.Join(results.DomainNames, "\n")), 0o644); err != nil {
		return files, fmt.Errorf("failed to write domain names: %w", err)
	}
	return files, nil
}
