package ocl

import (
	"regexp"
	"sort"
	"strings"

	"contractguard-backend/models"
)

var selfProperty = regexp.MustCompile(`self\.([a-zA-Z_][a-zA-Z0-9_]*)`)

var (
	stringNameHints = []string{
		"country", "city", "name", "type", "category", "role",
		"department", "position", "region", "location", "company",
		"nationality", "address", "email", "phone",
	}
	integerNameHints = []string{
		"salary", "age", "amount", "price", "days", "count",
		"quantity", "score", "id", "number", "total", "limit",
		"money", "times", "frequency", "rate", "percentage",
	}
)

// ExtractProperties returns the sorted, distinct property names referenced as self.<name>
func ExtractProperties(expr string) []string {
	seen := make(map[string]struct{})
	for _, m := range selfProperty.FindAllStringSubmatch(expr, -1) {
		seen[m[1]] = struct{}{}
	}

	props := make([]string, 0, len(seen))
	for p := range seen {
		props = append(props, p)
	}
	sort.Strings(props)
	return props
}

// expressionPart drops an optional "context X inv:" header
func expressionPart(expr string) string {
	if i := strings.LastIndex(expr, "inv:"); i >= 0 {
		return strings.TrimSpace(expr[i+len("inv:"):])
	}
	return expr
}

// InferPropertyTypes guesses a type for each property from how expr uses it.
// In priority order: compared to a number, compared to a string literal,
// compared to date(...), name hints, used with an ordering operator.
// Anything else is a string.
func InferPropertyTypes(expr string, props []string) models.PropertyTypes {
	expr = expressionPart(expr)
	types := make(models.PropertyTypes, len(props))

	for _, prop := range props {
		types[prop] = inferPropertyType(expr, prop)
	}
	return types
}

func inferPropertyType(expr, prop string) models.PropertyType {
	quoted := regexp.QuoteMeta(prop)

	if regexp.MustCompile(`self\.` + quoted + `\s*([=<>!]+)\s*(\d+\.?\d*)`).MatchString(expr) {
		return models.PropertyTypeInteger
	}
	if regexp.MustCompile(`self\.` + quoted + `\s*=\s*["']([^"']+)["']`).MatchString(expr) {
		return models.PropertyTypeString
	}
	if regexp.MustCompile(`(?i)self\.` + quoted + `\s*[<>=]+\s*date\(`).MatchString(expr) {
		return models.PropertyTypeDate
	}

	lower := strings.ToLower(prop)
	switch {
	case containsAny(lower, stringNameHints):
		return models.PropertyTypeString
	case strings.Contains(lower, "date"):
		return models.PropertyTypeDate
	case containsAny(lower, integerNameHints):
		return models.PropertyTypeInteger
	}

	if regexp.MustCompile(`self\.` + quoted + `\s*(>=|>|<=|<)`).MatchString(expr) {
		return models.PropertyTypeInteger
	}
	return models.PropertyTypeString
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// DetectPolicyType reports whether a constraint compares strings, which
// the OCL evaluator cannot handle, or can go to the OCL evaluator as-is
func DetectPolicyType(expr string) models.PolicyType {
	expr = strings.TrimSpace(expr)
	if strings.ContainsAny(expr, `"'`) {
		return models.PolicyTypeString
	}

	lower := strings.ToLower(expr)
	if strings.Contains(lower, "tolower") || strings.Contains(lower, "includes") {
		return models.PolicyTypeString
	}
	return models.PolicyTypeOCL
}
