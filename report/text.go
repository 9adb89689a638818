// Package report renders analysis results for a terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"contractguard-backend/models"

	"github.com/fatih/color"
)

const (
	// Width is the column limit for wrapped clause text and rules
	Width  = 80
	indent = "   "
)

// TextRenderer writes the human-readable analysis report
type TextRenderer struct {
	title    *color.Color
	header   *color.Color
	positive *color.Color
	negative *color.Color
	warning  *color.Color
	emphasis *color.Color
}

// NewTextRenderer creates a renderer; colorize is usually whether stdout is a terminal
func NewTextRenderer(colorize bool) *TextRenderer {
	r := &TextRenderer{
		title:    color.New(color.FgWhite, color.Bold),
		header:   color.New(color.FgCyan, color.Bold),
		positive: color.New(color.FgGreen, color.Bold),
		negative: color.New(color.FgRed, color.Bold),
		warning:  color.New(color.FgYellow),
		emphasis: color.New(color.FgWhite, color.Bold),
	}
	for _, c := range []*color.Color{r.title, r.header, r.positive, r.negative, r.warning, r.emphasis} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Render writes the summary and one block per violation
func (r *TextRenderer) Render(w io.Writer, laws []models.LawExcerpt, report models.Report) error {
	var b strings.Builder
	rule := strings.Repeat("=", Width)

	b.WriteString("\n" + rule + "\n")
	b.WriteString(r.title.Sprint("ANALYSIS COMPLETE - FINAL REPORT") + "\n")
	b.WriteString(rule + "\n")

	b.WriteString("\n" + r.header.Sprint("Summary:") + "\n")
	fmt.Fprintf(&b, "%sLaws Retrieved: %d\n", indent, len(laws))
	fmt.Fprintf(&b, "%sClauses Analyzed: %d\n", indent, report.TotalClauses)
	fmt.Fprintf(&b, "%sViolations Found: %d\n", indent, len(report.Violations))
	fmt.Fprintf(&b, "%sCompliance Score: %s\n", indent, r.score(report.ComplianceScore))

	if len(report.Violations) == 0 {
		b.WriteString("\n" + r.positive.Sprint("NO VIOLATIONS - Contract is compliant!") + "\n")
	} else {
		b.WriteString("\n" + rule + "\n")
		b.WriteString(r.negative.Sprint("VIOLATIONS DETECTED") + "\n")
		b.WriteString(rule + "\n")

		for i, v := range report.Violations {
			b.WriteString("\n" + strings.Repeat("-", Width) + "\n")
			b.WriteString(r.negative.Sprintf("VIOLATION #%d", i+1) + "\n")
			b.WriteString(strings.Repeat("-", Width) + "\n")

			b.WriteString("\n" + r.emphasis.Sprintf("Clause %s:", v.Clause.ID) + "\n")
			for _, line := range Wrap(v.Clause.Text, Width-2, indent) {
				b.WriteString(line + "\n")
			}

			b.WriteString("\n" + r.emphasis.Sprintf("Violates Law #%d:", v.Law.Ordinal) + "\n")
			fmt.Fprintf(&b, "%s%s (Page %s)\n", indent, v.Law.SourceFile, v.Law.Page)
			fmt.Fprintf(&b, "%sConfidence: %s\n", indent, Percent(v.Confidence))

			b.WriteString("\n" + r.warning.Sprint("Why:") + " " + v.Reason + "\n")
			b.WriteString("\n" + r.positive.Sprint("Fix:") + " " + v.Suggestion + "\n")
		}
	}

	b.WriteString("\n" + rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *TextRenderer) score(score float64) string {
	s := fmt.Sprintf("%.1f%%", score)
	switch {
	case score >= 80:
		return r.positive.Sprint(s)
	case score >= 50:
		return r.warning.Sprint(s)
	default:
		return r.negative.Sprint(s)
	}
}

// Percent formats a 0..1 confidence as a whole percentage
func Percent(confidence float64) string {
	return fmt.Sprintf("%.0f%%", confidence*100)
}

// Wrap word-wraps text so no line exceeds width runes, prefixing every line
// with prefix. Blank input lines are dropped; a single word longer than the
// width gets a line of its own.
func Wrap(text string, width int, prefix string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		words := strings.Fields(raw)
		if len(words) == 0 {
			continue
		}

		current := prefix
		for _, word := range words {
			switch {
			case current == prefix:
				current += word
			case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) > width:
				lines = append(lines, current)
				current = prefix + word
			default:
				current += " " + word
			}
		}
		lines = append(lines, current)
	}
	return lines
}
