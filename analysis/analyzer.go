// Package analysis flags contract clauses that appear to conflict with
// retrieved statutory text. It performs no I/O: laws are supplied by the
// caller and results are returned as structured reports.
package analysis

import (
	"contractguard-backend/models"
)

// Aggregate reduces violations into a report.
// The compliance score is the share of clauses without any violation, 100 when there are no clauses.
func Aggregate(totalClauses int, violations []models.Violation) models.Report {
	if violations == nil {
		violations = make([]models.Violation, 0)
	}

	report := models.Report{
		TotalClauses:    totalClauses,
		Violations:      violations,
		ComplianceScore: 100,
	}

	if totalClauses > 0 {
		violated := report.ViolatedClauseCount()
		report.ComplianceScore = float64(totalClauses-violated) / float64(totalClauses) * 100
	}

	return report
}

// Analyzer runs the extract, score, detect and aggregate pipeline.
// It holds only read-only tables and is safe for concurrent use.
type Analyzer struct {
	scorer *Scorer
	engine *Engine
}

// NewAnalyzer creates an analyzer from scoring tables and a rule chain
func NewAnalyzer(tables Tables, rules []Rule) *Analyzer {
	return &Analyzer{
		scorer: NewScorer(tables),
		engine: NewEngine(rules),
	}
}

// NewDefaultAnalyzer creates an analyzer with the production tables and rules
func NewDefaultAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultTables(), DefaultRules())
}

// Analyze checks every clause of contract against laws
func (a *Analyzer) Analyze(contract string, laws []models.LawExcerpt) models.Report {
	clauses := ExtractClauses(contract)
	return a.AnalyzeClauses(clauses, laws)
}

// AnalyzeClauses checks already extracted clauses against laws
func (a *Analyzer) AnalyzeClauses(clauses []models.Clause, laws []models.LawExcerpt) models.Report {
	violations := make([]models.Violation, 0)

	for _, clause := range clauses {
		for _, match := range a.scorer.Score(clause, laws) {
			verdict := a.engine.Evaluate(clause, match.Law)
			if !verdict.IsViolation {
				continue
			}
			violations = append(violations, models.Violation{
				Clause:     clause,
				Law:        match.Law,
				Confidence: match.Score,
				Rule:       verdict.Rule,
				Reason:     verdict.Reason,
				Suggestion: verdict.Suggestion,
			})
		}
	}

	return Aggregate(len(clauses), violations)
}
