package models

// Clause represents a numbered paragraph extracted from contract text
type Clause struct {
	ID   string `json:"clause_id"`
	Text string `json:"clause_text"`
}

// LawExcerpt represents a passage of statutory text returned by retrieval
type LawExcerpt struct {
	Ordinal    int    `json:"ordinal"`
	SourceFile string `json:"source_file"`
	Page       string `json:"page"`
	Content    string `json:"content"`
}

// RelevanceMatch pairs a law excerpt with its relevance score for one clause
type RelevanceMatch struct {
	Law   LawExcerpt `json:"law"`
	Score float64    `json:"score"`
}

// Violation represents a clause flagged against a law excerpt
type Violation struct {
	Clause     Clause     `json:"clause"`
	Law        LawExcerpt `json:"law"`
	Confidence float64    `json:"confidence"`
	Rule       string     `json:"rule"`
	Reason     string     `json:"reason"`
	Suggestion string     `json:"suggestion"`
}

// Report is the result of one contract analysis run
type Report struct {
	TotalClauses    int         `json:"total_clauses"`
	Violations      []Violation `json:"violations"`
	ComplianceScore float64     `json:"compliance_score"`
}

// ViolatedClauseCount returns the number of distinct clause ids with at least one violation
func (r Report) ViolatedClauseCount() int {
	seen := make(map[string]struct{}, len(r.Violations))
	for _, v := range r.Violations {
		seen[v.Clause.ID] = struct{}{}
	}
	return len(seen)
}
