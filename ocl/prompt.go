package ocl

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ConversionPrompt builds the few-shot prompt that asks the model for a
// single OCL constraint expression
func ConversionPrompt(policy string) string {
	return fmt.Sprintf(`You are an expert OCL generator. Convert the following policy into a valid OCL constraint expression.

POLICY:
"%s"

EXAMPLES:

Policy: "employee must be older than 18"
OCL: self.age > 18

Policy: "employee must be from egypt"
OCL: self.country = "egypt"

Policy: "salary must be at least 3000"
OCL: self.salary >= 3000

Policy: "money should be paid 2 times"
OCL: self.money = 2

Policy: "employee age must be 25"
OCL: self.age = 25

RULES:

1. Always use self.<property> (e.g., self.country, self.salary)

2. STRING POLICIES:
   - DO NOT use toLower() or includes().
   - Use direct equality only.
   - Always wrap string values in DOUBLE quotes.

3. NUMERIC POLICIES:
   - "equals X" or "is X" or "= X"  ->  self.<prop> = X
   - "more than X" or "greater than X"  ->  self.<prop> > X
   - "less than X"  ->  self.<prop> < X
   - "at least X" or "greater than or equal to X"  ->  self.<prop> >= X
   - "at most X" or "less than or equal to X"  ->  self.<prop> <= X
   - For percentages: "50%%" -> 50
   - Always use integers in OCL constraints, avoid decimal numbers

4. DATE POLICIES:
   - Compare dates with date(year,month,day), e.g. self.<prop> < date(2024,1,1)

5. IMPORTANT:
   - Use = for equality (not ==)
   - Do NOT include "context" or "inv:" - return ONLY the expression part

6. Return ONLY the OCL constraint expression. No explanation, no context, no inv: prefix.`, policy)
}

// MetadataPrompt builds the prompt that asks the model to categorize a policy
func MetadataPrompt(policy string) string {
	return fmt.Sprintf(`You are a precise JSON extractor.
From this policy, output ONLY a valid JSON object with two fields:
"category" and "keywords".

Example:
{
    "category": "Return Policy",
    "keywords": ["return", "date", "10 days"]
}

Policy: "%s"`, policy)
}

// FallbackCategory is used when the model's metadata cannot be parsed
const FallbackCategory = "Uncategorized"

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// Metadata is the category and keywords the model assigns to a policy
type Metadata struct {
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
}

// ParseMetadata extracts the first JSON object from a model answer
func ParseMetadata(answer string) (Metadata, error) {
	raw := jsonObject.FindString(strings.TrimSpace(answer))
	if raw == "" {
		return Metadata{}, fmt.Errorf("no JSON object found in metadata answer")
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if meta.Category == "" {
		meta.Category = FallbackCategory
	}
	if meta.Keywords == nil {
		meta.Keywords = []string{}
	}
	return meta, nil
}
