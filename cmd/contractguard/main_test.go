package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"contractguard-backend/models"
	"contractguard-backend/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadContractStopsAtDone(t *testing.T) {
	in := strings.NewReader("1. First clause\n2. Second clause\n  done  \n3. Ignored\n")

	got, err := readContract(in)

	require.NoError(t, err)
	assert.Equal(t, "1. First clause\n2. Second clause", got)
}

func TestReadContractUntilEOF(t *testing.T) {
	got, err := readContract(strings.NewReader("1. Only clause\n\nmore text"))

	require.NoError(t, err)
	assert.Equal(t, "1. Only clause\n\nmore text", got)
}

func TestReadContractEmpty(t *testing.T) {
	got, err := readContract(strings.NewReader("DONE\n"))

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadLine(t *testing.T) {
	got, err := readLine(strings.NewReader("  salary must be at least 3000 \nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "salary must be at least 3000", got)

	got, err = readLine(strings.NewReader("no newline"))
	require.NoError(t, err)
	assert.Equal(t, "no newline", got)
}

func TestContractInputFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract.txt")
	require.NoError(t, os.WriteFile(path, []byte("1. Clause"), 0o644))

	var out bytes.Buffer
	got, err := contractInput(strings.NewReader("ignored"), &out, path)

	require.NoError(t, err)
	assert.Equal(t, "1. Clause", got)
	assert.Empty(t, out.String())
}

func TestAnalyzeWithoutContract(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("\nDONE\n"))
	cmd.SetArgs([]string{"analyze", "--no-color"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No contract provided")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	cmd := rootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"token", "--subject", "ops", "--hours", "2"})

	require.NoError(t, cmd.Execute())

	raw := strings.TrimSpace(out.String())
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Contains(t, errOut.String(), "expires")
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AUTH_JWT_SECRET", "")

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--subject", "ops"})

	assert.Error(t, cmd.Execute())
}

func TestPrintConversion(t *testing.T) {
	var out bytes.Buffer
	printConversion(&out, &service.Conversion{
		Expression: "self.age > 18",
		Category:   "Employment",
		Keywords:   []string{"age", "minimum"},
		PolicyType: models.PolicyTypeOCL,
		Properties: models.PropertyTypes{"age": models.PropertyTypeInteger},
		Attempts:   2,
	}, false)

	got := out.String()
	assert.Contains(t, got, "OCL: self.age > 18")
	assert.Contains(t, got, "Keywords: age, minimum")
	assert.Contains(t, got, "   age: IntegerType")
	assert.Contains(t, got, "valid after 2 attempts")
}
