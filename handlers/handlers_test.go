package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"contractguard-backend/models"
	"contractguard-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func perform(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

type fakeAnalyzer struct {
	result *service.AnalysisResult
	err    error
	got    string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, contract string) (*service.AnalysisResult, error) {
	f.got = contract
	return f.result, f.err
}

func analysisRouter(a ContractAnalyzer) *gin.Engine {
	r := gin.New()
	r.POST("/api/analyze", NewAnalysisHandler(a).Analyze)
	return r
}

func TestAnalyzeReturnsReport(t *testing.T) {
	law := models.LawExcerpt{Ordinal: 2, SourceFile: "Commercial_Law.pdf", Page: "12"}
	fake := &fakeAnalyzer{result: &service.AnalysisResult{
		Laws: []models.LawExcerpt{{Ordinal: 1}, law},
		Report: models.Report{
			TotalClauses:    2,
			ComplianceScore: 50,
			Violations: []models.Violation{{
				Clause:     models.Clause{ID: "1", Text: "Arbitration in London."},
				Law:        law,
				Confidence: 0.9,
				Rule:       "foreign_arbitration",
				Reason:     "why",
				Suggestion: "fix",
			}},
		},
	}}

	w, env := perform(t, analysisRouter(fake), http.MethodPost, "/api/analyze", gin.H{"contract": "1. Arbitration in London."})

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "1. Arbitration in London.", fake.got)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 2, resp.TotalClauses)
	assert.Equal(t, 2, resp.LawsRetrieved)
	assert.InDelta(t, 50, resp.ComplianceScore, 1e-9)
	assert.Equal(t, "1 violation found", resp.Message)
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, ViolationResponse{
		ClauseID:    "1",
		ClauseText:  "Arbitration in London.",
		Reason:      "why",
		Suggestion:  "fix",
		Confidence:  0.9,
		Rule:        "foreign_arbitration",
		ViolatedLaw: ViolatedLaw{Ordinal: 2, SourceFile: "Commercial_Law.pdf", Page: "12"},
	}, resp.Violations[0])
}

func TestAnalyzeCompliantHasEmptyViolations(t *testing.T) {
	fake := &fakeAnalyzer{result: &service.AnalysisResult{
		Laws:   []models.LawExcerpt{{Ordinal: 1}},
		Report: models.Report{TotalClauses: 1, ComplianceScore: 100},
	}}

	w, env := perform(t, analysisRouter(fake), http.MethodPost, "/api/analyze", gin.H{"contract": "1. Fine."})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"violations":[]`)
	assert.Contains(t, string(env.Data), "compliant")
}

func TestAnalyzeNestsReportUnderData(t *testing.T) {
	fake := &fakeAnalyzer{result: &service.AnalysisResult{
		Laws:   []models.LawExcerpt{{Ordinal: 1}},
		Report: models.Report{TotalClauses: 1, ComplianceScore: 100},
	}}

	w, _ := perform(t, analysisRouter(fake), http.MethodPost, "/api/analyze", gin.H{"contract": "1. Fine."})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotContains(t, body, "compliance_score")
	assert.JSONEq(t, "true", string(body["success"]))

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body["data"], &data))
	assert.JSONEq(t, "100", string(data["compliance_score"]))
	assert.JSONEq(t, "1", string(data["total_clauses"]))
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty contract", service.ErrEmptyContract, http.StatusBadRequest, "EMPTY_CONTRACT"},
		{"no laws", service.ErrNoLawsRetrieved, http.StatusServiceUnavailable, "NO_LAWS"},
		{"embedding", fmt.Errorf("%w: quota", service.ErrEmbeddingFailed), http.StatusInternalServerError, "ANALYSIS_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := perform(t, analysisRouter(&fakeAnalyzer{err: tt.err}), http.MethodPost, "/api/analyze", gin.H{"contract": " "})

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestAnalyzeRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()

	analysisRouter(&fakeAnalyzer{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
}

type fakePolicies struct {
	conversion *service.Conversion
	policies   map[uuid.UUID]*models.Policy
	harnessKey string
	err        error

	convertReq service.ConvertRequest
	listLimit  int
	listOffset int
}

func newFakePolicies() *fakePolicies {
	return &fakePolicies{policies: make(map[uuid.UUID]*models.Policy)}
}

func (f *fakePolicies) Convert(_ context.Context, req service.ConvertRequest) (*service.Conversion, error) {
	f.convertReq = req
	return f.conversion, f.err
}

func (f *fakePolicies) Save(_ context.Context, p *models.Policy) error {
	if f.err != nil {
		return f.err
	}
	p.ID = uuid.New()
	f.policies[p.ID] = p
	return nil
}

func (f *fakePolicies) Get(_ context.Context, id uuid.UUID) (*models.Policy, error) {
	p, ok := f.policies[id]
	if !ok {
		return nil, service.ErrPolicyNotFound
	}
	return p, nil
}

func (f *fakePolicies) List(_ context.Context, limit, offset int) ([]models.Policy, error) {
	f.listLimit, f.listOffset = limit, offset
	var out []models.Policy
	for _, p := range f.policies {
		out = append(out, *p)
	}
	return out, f.err
}

func (f *fakePolicies) GenerateHarness(_ context.Context, id uuid.UUID) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, ok := f.policies[id]; !ok {
		return "", service.ErrPolicyNotFound
	}
	return f.harnessKey, nil
}

func policyRouter(p PolicyManager) *gin.Engine {
	h := NewPolicyHandler(p)
	r := gin.New()
	r.POST("/api/policies/convert", h.Convert)
	r.POST("/api/policies", h.Create)
	r.GET("/api/policies", h.List)
	r.GET("/api/policies/:id", h.Get)
	r.POST("/api/policies/:id/harness", h.GenerateHarness)
	return r
}

func TestConvertPolicy(t *testing.T) {
	fake := newFakePolicies()
	fake.conversion = &service.Conversion{
		Expression: "self.age > 18",
		Category:   "Employment",
		Keywords:   []string{"age"},
		PolicyType: models.PolicyTypeOCL,
		Properties: models.PropertyTypes{"age": models.PropertyTypeInteger},
	}

	w, env := perform(t, policyRouter(fake), http.MethodPost, "/api/policies/convert", gin.H{
		"policy_name":     "Minimum age",
		"legal_framework": "Labour Law",
		"policy_text":     "employee must be older than 18",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ConvertRequest{Name: "Minimum age", LegalFramework: "Labour Law", Text: "employee must be older than 18"}, fake.convertReq)

	var resp ConvertPolicyResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "self.age > 18", resp.OCLCode)
	assert.Equal(t, "Employment", resp.Category)
	assert.Equal(t, models.PropertyTypeInteger, resp.Properties["age"])
}

func TestConvertPolicyErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   gin.H
		err    error
		status int
		code   string
	}{
		{"missing text", gin.H{"policy_name": "x"}, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"empty text", gin.H{"policy_text": " "}, service.ErrEmptyPolicy, http.StatusBadRequest, "EMPTY_POLICY"},
		{"no valid ocl", gin.H{"policy_text": "x"}, service.ErrConversionFailed, http.StatusUnprocessableEntity, "CONVERSION_FAILED"},
		{"model down", gin.H{"policy_text": "x"}, errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakePolicies()
			fake.err = tt.err

			w, env := perform(t, policyRouter(fake), http.MethodPost, "/api/policies/convert", tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestCreateAndGetPolicy(t *testing.T) {
	fake := newFakePolicies()
	router := policyRouter(fake)

	w, env := perform(t, router, http.MethodPost, "/api/policies", gin.H{
		"policy_name": "Minimum age",
		"policy_text": "employee must be older than 18",
		"ocl_code":    "self.age > 18",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Policy
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, []string{}, created.Keywords)

	w, env = perform(t, router, http.MethodGet, "/api/policies/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Policy
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Minimum age", got.Name)
	assert.Equal(t, "employee must be older than 18", got.Description)
}

func TestCreatePolicyInvalid(t *testing.T) {
	fake := newFakePolicies()
	fake.err = fmt.Errorf("%w: OCL must start with self.<property>", service.ErrInvalidPolicy)

	w, env := perform(t, policyRouter(fake), http.MethodPost, "/api/policies", gin.H{"policy_name": "x", "ocl_code": "age > 1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_POLICY", env.Error.Code)
}

func TestGetPolicyErrors(t *testing.T) {
	router := policyRouter(newFakePolicies())

	w, env := perform(t, router, http.MethodGet, "/api/policies/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	w, env = perform(t, router, http.MethodGet, "/api/policies/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestListPolicies(t *testing.T) {
	fake := newFakePolicies()
	router := policyRouter(fake)

	w, env := perform(t, router, http.MethodGet, "/api/policies?limit=10&offset=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(env.Data))
	assert.Equal(t, 10, fake.listLimit)
	assert.Equal(t, 5, fake.listOffset)

	w, env = perform(t, router, http.MethodGet, "/api/policies?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
}

func TestGenerateHarness(t *testing.T) {
	fake := newFakePolicies()
	fake.harnessKey = "harnesses/ab/x_policy_harness.go"
	id := uuid.New()
	fake.policies[id] = &models.Policy{ID: id}
	router := policyRouter(fake)

	w, env := perform(t, router, http.MethodPost, "/api/policies/"+id.String()+"/harness", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"file_path":"harnesses/ab/x_policy_harness.go"}`, string(env.Data))

	w, env = perform(t, router, http.MethodPost, "/api/policies/"+uuid.NewString()+"/harness", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
