// Package observability provides logging setup and formatted output for the
// terminal chat and the record validator.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/posting-assistant/internal/schema"
	"github.com/jonathan/posting-assistant/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the terminal
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRecord outputs every filled field of a record in canonical order.
func (p *Printer) PrintRecord(r types.Record, lang string) {
	filled := r.FilledFields()
	if len(filled) == 0 {
		p.printBox("JOB POSTING", word(lang, "unset"))
		return
	}

	width := 0
	for _, f := range filled {
		width = max(width, len(f))
	}

	var sb strings.Builder
	for _, f := range filled {
		sb.WriteString(fmt.Sprintf("%-*s  %s\n", width, f, FormatField(r, f, lang)))
	}
	p.printBox("JOB POSTING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMissing outputs the required fields that are still empty.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintMissing(r types.Record) {
	missing := schema.MissingFields(r)
	if len(missing) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ RECORD COMPLETE")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d required fields missing:\n\n", len(missing)))
	count := min(len(missing), maxItemsToShow)
	for i := 0; i < count; i++ {
		f := missing[i]
		sb.WriteString(fmt.Sprintf("• %s", f))
		if spec, ok := schema.Lookup(f); ok {
			sb.WriteString(fmt.Sprintf(" (%s)", spec.Description))
		}
		sb.WriteString("\n")
	}
	if len(missing) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more", len(missing)-maxItemsToShow))
	}
	p.printBox("MISSING FIELDS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProblems outputs schema or validation problems found in a record.
func (p *Printer) PrintProblems(problems []string) {
	if len(problems) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d problems:\n\n", len(problems)))
	for i, msg := range problems {
		sb.WriteString(fmt.Sprintf("⚠ %s", msg))
		if i < len(problems)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("RECORD PROBLEMS", sb.String())
}
