package analysis

import (
	"strings"

	"contractguard-backend/models"
)

// Terms is a conjunction of substring conditions over lower-cased text.
// Every entry of All must be present, and every group in Any must have at
// least one member present. The zero value matches everything.
type Terms struct {
	All []string
	Any [][]string
}

// Match reports whether s satisfies the conditions
func (t Terms) Match(s string) bool {
	for _, term := range t.All {
		if !strings.Contains(s, term) {
			return false
		}
	}
	for _, group := range t.Any {
		if !containsAny(s, group) {
			return false
		}
	}
	return true
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// subject holds the case-folded views of a (clause, law) pair that rules test against
type subject struct {
	clause string
	law    string
	source string
}

func newSubject(clause models.Clause, law models.LawExcerpt) subject {
	return subject{
		clause: strings.ToLower(clause.Text),
		law:    strings.ToLower(law.Content),
		source: strings.ToLower(law.SourceFile),
	}
}

// firstMatch returns the first item satisfying pred
func firstMatch[T any](items []T, pred func(T) bool) (T, bool) {
	for _, item := range items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
