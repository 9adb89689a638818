// Package ocl turns model answers into clean OCL constraint expressions,
// infers the properties they use, and renders throwaway test harnesses.
package ocl

import (
	"regexp"
	"strings"
)

var (
	codeFenceStart = regexp.MustCompile("(?i)^```(?:ocl)?\\s*\\n?")
	codeFenceEnd   = regexp.MustCompile("\\n?```\\s*$")
	contextPrefix  = regexp.MustCompile(`(?i)^context\s+\w+\s+inv\s*:\s*`)

	selfOperandRight = regexp.MustCompile(`(self\.\w+)([=<>!]+)(\d+\.?\d*)`)
	selfOperandLeft  = regexp.MustCompile(`(\d+\.?\d*)([=<>!]+)(self\.\w+)`)
	wordOperandRight = regexp.MustCompile(`(\w+)([=<>!]+)(\d+\.?\d*)`)
	wordOperandLeft  = regexp.MustCompile(`(\d+\.?\d*)([=<>!]+)(\w+)`)
	whitespaceRun    = regexp.MustCompile(`\s+`)

	singleQuotedLiteral = regexp.MustCompile(`=\s*'([^']*)'`)
)

// Clean strips code fences and a leading "context X inv:" header from a
// model answer, pads comparison operators with spaces and collapses
// whitespace
func Clean(answer string) string {
	expr := strings.TrimSpace(answer)

	expr = codeFenceStart.ReplaceAllString(expr, "")
	expr = codeFenceEnd.ReplaceAllString(expr, "")
	expr = strings.TrimSpace(expr)

	expr = contextPrefix.ReplaceAllString(expr, "")
	expr = strings.TrimSpace(expr)

	expr = selfOperandRight.ReplaceAllString(expr, "$1 $2 $3")
	expr = selfOperandLeft.ReplaceAllString(expr, "$1 $2 $3")
	expr = wordOperandRight.ReplaceAllString(expr, "$1 $2 $3")
	expr = wordOperandLeft.ReplaceAllString(expr, "$1 $2 $3")

	expr = whitespaceRun.ReplaceAllString(expr, " ")
	return strings.TrimSpace(expr)
}

// Normalize drops toLower() calls and rewrites single-quoted string
// literals after "=" as double-quoted ones
func Normalize(expr string) string {
	expr = strings.TrimSpace(expr)
	expr = strings.ReplaceAll(expr, ".toLower()", "")
	return singleQuotedLiteral.ReplaceAllString(expr, `= "$1"`)
}

// SanityCheck returns the problems that make expr unusable, or nil
func SanityCheck(expr string) []string {
	var problems []string
	expr = strings.TrimSpace(expr)

	if expr == "" {
		problems = append(problems, "Empty OCL expression.")
	}
	if !strings.HasPrefix(expr, "self.") {
		problems = append(problems, "OCL must start with self.<property>")
	}

	lower := strings.ToLower(expr)
	if strings.Contains(lower, "context") || strings.Contains(lower, "inv:") {
		problems = append(problems, "OCL must NOT contain context/inv:")
	}

	depth := 0
	for _, ch := range expr {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth < 0 {
			break
		}
	}
	if depth != 0 {
		problems = append(problems, "Unbalanced parentheses")
	}

	return problems
}
