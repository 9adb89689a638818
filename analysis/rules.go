package analysis

import (
	"contractguard-backend/models"
)

// Rule is one violation pattern. It fires when the clause text, the law
// content and the law's source filename all satisfy their term sets.
type Rule struct {
	Name       string
	Clause     Terms
	Law        Terms
	Source     Terms
	Reason     string
	Suggestion string
}

func (r Rule) matches(subj subject) bool {
	return r.Clause.Match(subj.clause) && r.Law.Match(subj.law) && r.Source.Match(subj.source)
}

// Verdict is the outcome of checking one clause against one law
type Verdict struct {
	IsViolation bool
	Rule        string
	Reason      string
	Suggestion  string
}

// Rule names
const (
	RuleForeignArbitration    = "foreign_arbitration"
	RuleWrongGoverningLaw     = "wrong_governing_law"
	RuleInvalidSignature      = "invalid_signature_method"
	RuleUnconsentedDataUse    = "unconsented_data_use"
	RuleMissingRepresentative = "missing_foreign_representative"
	RuleAutomaticIPTransfer   = "automatic_ip_transfer"
)

// DefaultRules returns the production rule chain in evaluation order
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       RuleForeignArbitration,
			Clause:     Terms{All: []string{"london", "arbitration"}},
			Law:        Terms{Any: [][]string{{"egyptian courts", "null and void"}}},
			Reason:     "Arbitration in London violates Egyptian law requiring Egypt jurisdiction.",
			Suggestion: "Change to: 'Disputes resolved through arbitration in Egypt under Egyptian law.'",
		},
		{
			Name:       RuleWrongGoverningLaw,
			Clause:     Terms{All: []string{"english law", "governed"}},
			Law:        Terms{All: []string{"egyptian law"}},
			Reason:     "English law violates Egyptian jurisdiction requirements.",
			Suggestion: "Replace with: 'Governed by Egyptian law.'",
		},
		{
			Name:       RuleInvalidSignature,
			Clause:     Terms{Any: [][]string{{"typed name", "scanned signature"}}},
			Law:        Terms{All: []string{"certification"}},
			Source:     Terms{All: []string{"electronic"}},
			Reason:     "Typed names/scanned signatures invalid. Egyptian law requires certified digital signatures.",
			Suggestion: "Use certified digital signatures from Egyptian Electronic Signature Authority.",
		},
		{
			Name: RuleUnconsentedDataUse,
			Clause: Terms{
				All: []string{"data"},
				Any: [][]string{
					{"sell", "monetize", "share", "transfer"},
					{"without consent", "sole discretion", "without permission"},
				},
			},
			Source:     Terms{Any: [][]string{{"data", "information"}}},
			Reason:     "Selling/monetizing data without consent violates Egyptian Data Protection Law.",
			Suggestion: "Add: 'Requires explicit written consent. Cannot sell/transfer without authorization.'",
		},
		{
			Name:       RuleMissingRepresentative,
			Clause:     Terms{All: []string{"singapore", "data"}},
			Law:        Terms{All: []string{"egypt"}},
			Reason:     "Data outside Egypt requires compliance. Must appoint Egyptian representative.",
			Suggestion: "Ensure: 'Foreign processors must appoint legal representative in Egypt.'",
		},
		{
			Name:       RuleAutomaticIPTransfer,
			Clause:     Terms{All: []string{"derivative", "automatically"}},
			Source:     Terms{All: []string{"copyright"}},
			Reason:     "Automatic derivative work transfer may violate copyright law.",
			Suggestion: "Modify: 'Derivative works jointly owned or with fair compensation.'",
		},
	}
}

// Engine evaluates an ordered rule chain; the first matching rule wins
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine over rules, evaluated in the given order
func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Evaluate checks clause against law. A zero Verdict means no rule matched.
func (e *Engine) Evaluate(clause models.Clause, law models.LawExcerpt) Verdict {
	subj := newSubject(clause, law)

	rule, ok := firstMatch(e.rules, func(r Rule) bool { return r.matches(subj) })
	if !ok {
		return Verdict{}
	}

	return Verdict{
		IsViolation: true,
		Rule:        rule.Name,
		Reason:      rule.Reason,
		Suggestion:  rule.Suggestion,
	}
}
