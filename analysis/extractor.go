package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"contractguard-backend/models"
)

// MinClauseLength is the trimmed length a clause body must exceed to be kept
const MinClauseLength = 30

var (
	// clauseAnchor matches a clause id such as "4.2" or "٤.٢" followed by
	// whitespace. Digits and spaces are Unicode classes, so NBSP and
	// Arabic-Indic numbering count.
	clauseAnchor = regexp.MustCompile(`(\p{Nd}+\.\p{Nd}+)[\s\p{Z}\x{85}]+`)
	// clauseBoundary ends a clause body wherever another dotted number starts
	clauseBoundary = regexp.MustCompile(`\p{Nd}+\.\p{Nd}+`)
)

// ExtractClauses splits contract text into numbered clauses.
//
// A clause starts at a "<int>.<int>" anchor followed by whitespace and its
// body runs, across lines, until the next dotted number or the end of the
// text. Bodies of MinClauseLength characters or fewer are dropped. Ids are
// neither deduplicated nor reordered.
func ExtractClauses(text string) []models.Clause {
	return splitNumbered(text, MinClauseLength)
}

// NumberedParagraphs splits text like ExtractClauses but keeps every
// non-empty body regardless of length
func NumberedParagraphs(text string) []models.Clause {
	return splitNumbered(text, 0)
}

func splitNumbered(text string, minLength int) []models.Clause {
	clauses := make([]models.Clause, 0)

	pos := 0
	for pos < len(text) {
		loc := clauseAnchor.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}

		id := text[pos+loc[2] : pos+loc[3]]
		bodyStart := pos + loc[1]
		if bodyStart >= len(text) {
			break
		}

		// The body holds at least one character before a boundary can end it
		_, size := utf8.DecodeRuneInString(text[bodyStart:])
		searchFrom := bodyStart + size

		end := len(text)
		if next := clauseBoundary.FindStringIndex(text[searchFrom:]); next != nil {
			end = searchFrom + next[0]
		}

		body := strings.TrimSpace(text[bodyStart:end])
		if utf8.RuneCountInString(body) > minLength {
			clauses = append(clauses, models.Clause{ID: id, Text: body})
		}

		pos = end
	}

	return clauses
}
