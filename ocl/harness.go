package ocl

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"contractguard-backend/models"
)

// ErrUnsupportedExpression is returned when a constraint uses OCL the harness cannot express
var ErrUnsupportedExpression = errors.New("unsupported OCL expression")

// HarnessInput describes the policy a harness is generated for
type HarnessInput struct {
	PolicyID    string
	CompanyName string
	Description string
	Expression  string
	// Types overrides inferred property types; missing entries are inferred
	Types models.PropertyTypes
}

type harnessField struct {
	Name   string
	GoName string
	GoType string
}

type harnessData struct {
	PolicyID     string
	CompanyName  string
	Description  string
	Expression   string
	GoExpression string
	Fields       []harnessField
}

var harnessTemplate = template.Must(template.New("harness").Parse(`// Code generated by contractguard. DO NOT EDIT.
//
// Policy {{.PolicyID}} ({{.CompanyName}}): {{.Description}}
// Constraint: {{.Expression}}
//
// Usage: go run <file> {{range .Fields}}{{.Name}}=<value> {{end}}

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type subject struct {
{{- range .Fields}}
	{{.GoName}} {{.GoType}}
{{- end}}
}

func check(s subject) bool {
	return {{.GoExpression}}
}

// parseDate accepts 2024-01-31 or 20240131
func parseDate(value string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(value, "-", ""))
}

func main() {
	var s subject
	for _, arg := range os.Args[1:] {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "invalid argument %q, want property=value\n", arg)
			os.Exit(2)
		}
		switch key {
{{- range .Fields}}
		case {{printf "%q" .Name}}:
{{- if eq .GoType "string"}}
			s.{{.GoName}} = value
{{- else if eq .GoType "float64"}}
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid number for {{.Name}}: %v\n", err)
				os.Exit(2)
			}
			s.{{.GoName}} = v
{{- else}}
			v, err := parseDate(value)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid date for {{.Name}}: %v\n", err)
				os.Exit(2)
			}
			s.{{.GoName}} = v
{{- end}}
{{- end}}
		default:
			fmt.Fprintf(os.Stderr, "unknown property %q\n", key)
			os.Exit(2)
		}
	}

	if check(s) {
		fmt.Println("SATISFIED")
		return
	}
	fmt.Println("VIOLATED")
	os.Exit(1)
}
`))

// GenerateHarness renders a standalone Go program that evaluates the
// constraint against property values given as name=value arguments
func GenerateHarness(in HarnessInput) ([]byte, error) {
	expr := expressionPart(strings.TrimSpace(in.Expression))
	props := ExtractProperties(expr)

	propTypes := InferPropertyTypes(expr, props)
	for name, t := range in.Types {
		if _, ok := propTypes[name]; ok {
			propTypes[name] = t
		}
	}
	unifyComparedTypes(expr, propTypes)

	names := fieldNames(props)
	goExpr, err := translate(expr, func(prop string) string { return names[prop] })
	if err != nil {
		return nil, err
	}

	data := harnessData{
		PolicyID:     commentSafe(in.PolicyID),
		CompanyName:  commentSafe(in.CompanyName),
		Description:  commentSafe(in.Description),
		Expression:   commentSafe(expr),
		GoExpression: goExpr,
	}
	for _, p := range props {
		data.Fields = append(data.Fields, harnessField{
			Name:   p,
			GoName: names[p],
			GoType: goType(propTypes[p]),
		})
	}
	if err := typeCheck(data.Fields, goExpr); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := harnessTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render harness: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedExpression, err)
	}
	return src, nil
}

func goType(t models.PropertyType) string {
	switch t {
	case models.PropertyTypeInteger:
		return "float64"
	case models.PropertyTypeDate:
		return "int"
	default:
		return "string"
	}
}

// goFieldName turns return_date or returnDate into ReturnDate
func goFieldName(prop string) string {
	var b strings.Builder
	upper := true
	for _, r := range prop {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Field"
	}
	return b.String()
}

// fieldNames maps each property to a distinct Go field name; properties
// that spell the same name (a_b, aB) get numeric suffixes in sorted order
func fieldNames(props []string) map[string]string {
	names := make(map[string]string, len(props))
	used := make(map[string]bool, len(props))
	for _, p := range props {
		base := goFieldName(p)
		name := base
		for n := 2; used[name]; n++ {
			name = base + strconv.Itoa(n)
		}
		used[name] = true
		names[p] = name
	}
	return names
}

var propertyComparison = regexp.MustCompile(`self\.([A-Za-z_][A-Za-z0-9_]*)\s*(?:<>|<=|>=|==|!=|=|<|>)\s*self\.([A-Za-z_][A-Za-z0-9_]*)`)

func typeRank(t models.PropertyType) int {
	switch t {
	case models.PropertyTypeDate:
		return 3
	case models.PropertyTypeInteger:
		return 2
	default:
		return 1
	}
}

// unifyComparedTypes gives properties compared with each other the same
// type, preferring date over integer over string
func unifyComparedTypes(expr string, propTypes models.PropertyTypes) {
	pairs := propertyComparison.FindAllStringSubmatch(expr, -1)
	for changed := true; changed; {
		changed = false
		for _, m := range pairs {
			a, b := propTypes[m[1]], propTypes[m[2]]
			if a == b {
				continue
			}
			wider := a
			if typeRank(b) > typeRank(a) {
				wider = b
			}
			propTypes[m[1]], propTypes[m[2]] = wider, wider
			changed = true
		}
	}
}

// typeCheck compiles the subject struct and check function on their own
func typeCheck(fields []harnessField, goExpr string) error {
	var b strings.Builder
	b.WriteString("package harness\n\ntype subject struct {\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "\t%s %s\n", f.GoName, f.GoType)
	}
	fmt.Fprintf(&b, "}\n\nfunc check(s subject) bool {\n\treturn %s\n}\n", goExpr)

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "check.go", b.String(), 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedExpression, err)
	}

	conf := types.Config{}
	if _, err := conf.Check("harness", fset, []*ast.File{file}, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedExpression, err)
	}
	return nil
}

func commentSafe(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	dateLiteral = regexp.MustCompile(`^date\(\s*(\d{4})\s*,\s*(\d{1,2})\s*,\s*(\d{1,2})\s*\)`)
	numberToken = regexp.MustCompile(`^\d+(\.\d+)?`)
	identToken  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
	selfToken   = regexp.MustCompile(`^self\.([A-Za-z_][A-Za-z0-9_]*)`)
)

var operatorTokens = []struct {
	ocl string
	goe string
}{
	// Longest first
	{"<>", "!="},
	{"<=", "<="},
	{">=", ">="},
	{"==", "=="},
	{"!=", "!="},
	{"=", "=="},
	{"<", "<"},
	{">", ">"},
	{"(", "("},
	{")", ")"},
	{"+", "+"},
	{"-", "-"},
	{"*", "*"},
	{"/", "/"},
}

var keywordTokens = map[string]string{
	"and":   "&&",
	"or":    "||",
	"not":   "!",
	"true":  "true",
	"false": "false",
}

// TranslateExpression rewrites a simple OCL boolean expression as Go.
// Dates become yyyymmdd integers and properties become fields of s.
func TranslateExpression(expr string) (string, error) {
	return translate(expr, goFieldName)
}

func translate(expr string, fieldName func(string) string) (string, error) {
	var out []string
	rest := strings.TrimSpace(expr)

	for rest != "" {
		if unicode.IsSpace(rune(rest[0])) {
			rest = rest[1:]
			continue
		}

		if m := selfToken.FindStringSubmatch(rest); m != nil {
			out = append(out, "s."+fieldName(m[1]))
			rest = rest[len(m[0]):]
			continue
		}
		if m := dateLiteral.FindStringSubmatch(rest); m != nil {
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			out = append(out, fmt.Sprintf("%04d%02d%02d", year, month, day))
			rest = rest[len(m[0]):]
			continue
		}
		if m := numberToken.FindString(rest); m != "" {
			out = append(out, m)
			rest = rest[len(m):]
			continue
		}
		if rest[0] == '"' || rest[0] == '\'' {
			end := strings.IndexByte(rest[1:], rest[0])
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated string literal", ErrUnsupportedExpression)
			}
			out = append(out, strconv.Quote(rest[1:end+1]))
			rest = rest[end+2:]
			continue
		}
		if m := identToken.FindString(rest); m != "" {
			kw, ok := keywordTokens[strings.ToLower(m)]
			if !ok {
				return "", fmt.Errorf("%w: unknown identifier %q", ErrUnsupportedExpression, m)
			}
			out = append(out, kw)
			rest = rest[len(m):]
			continue
		}

		matched := false
		for _, op := range operatorTokens {
			if strings.HasPrefix(rest, op.ocl) {
				out = append(out, op.goe)
				rest = rest[len(op.ocl):]
				matched = true
				break
			}
		}
		if !matched {
			return "", fmt.Errorf("%w: unexpected %q", ErrUnsupportedExpression, rest[:1])
		}
	}

	if len(out) == 0 {
		return "", fmt.Errorf("%w: empty expression", ErrUnsupportedExpression)
	}
	return strings.Join(out, " "), nil
}
