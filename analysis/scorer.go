package analysis

import (
	"sort"

	"contractguard-backend/models"
)

// Scorer ranks law excerpts by heuristic relevance to a clause
type Scorer struct {
	tables Tables
}

// NewScorer creates a scorer over the given tables
func NewScorer(tables Tables) *Scorer {
	return &Scorer{tables: tables}
}

// Score returns the laws whose relevance to clause exceeds the threshold,
// highest first. Ties keep input order.
func (s *Scorer) Score(clause models.Clause, laws []models.LawExcerpt) []models.RelevanceMatch {
	matches := make([]models.RelevanceMatch, 0, len(laws))
	for _, law := range laws {
		score := s.relevance(newSubject(clause, law))
		if score > s.tables.Threshold {
			matches = append(matches, models.RelevanceMatch{Law: law, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

func (s *Scorer) relevance(subj subject) float64 {
	score := 0.0

	// Overlapping categories each add their weight
	for _, category := range s.tables.Categories {
		if containsAny(subj.clause, category.Keywords) && containsAny(subj.law, category.Keywords) {
			score += s.tables.CategoryWeight
		}
	}

	for _, boost := range s.tables.Boosts {
		if boost.Clause.Match(subj.clause) && boost.Law.Match(subj.law) && boost.Source.Match(subj.source) {
			score += boost.Weight
		}
	}

	if score > s.tables.MaxScore {
		score = s.tables.MaxScore
	}
	return score
}
