package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"contractguard-backend/models"
	"contractguard-backend/pkg/logger"
	"contractguard-backend/service"

	"github.com/gin-gonic/gin"
)

// ContractAnalyzer checks contract text against retrieved laws
type ContractAnalyzer interface {
	Analyze(ctx context.Context, contract string) (*service.AnalysisResult, error)
}

// AnalysisHandler handles HTTP requests for contract analysis
type AnalysisHandler struct {
	analyzer ContractAnalyzer
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer ContractAnalyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

// AnalyzeRequest represents the request body for analyzing a contract
type AnalyzeRequest struct {
	Contract string `json:"contract"`
}

// ViolatedLaw identifies the excerpt a clause was flagged against
type ViolatedLaw struct {
	Ordinal    int    `json:"ordinal"`
	SourceFile string `json:"source_file"`
	Page       string `json:"page"`
}

// ViolationResponse is one flagged clause
type ViolationResponse struct {
	ClauseID    string      `json:"clause_id"`
	ClauseText  string      `json:"clause_text"`
	Reason      string      `json:"reason"`
	Suggestion  string      `json:"suggestion"`
	Confidence  float64     `json:"confidence"`
	Rule        string      `json:"rule"`
	ViolatedLaw ViolatedLaw `json:"violated_law"`
}

// AnalyzeResponse is the analysis report
type AnalyzeResponse struct {
	TotalClauses    int                 `json:"total_clauses"`
	ComplianceScore float64             `json:"compliance_score"`
	LawsRetrieved   int                 `json:"laws_retrieved"`
	Message         string              `json:"message"`
	Violations      []ViolationResponse `json:"violations"`
}

// Analyze handles POST /api/analyze
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), req.Contract)
	switch {
	case errors.Is(err, service.ErrEmptyContract):
		respondError(c, http.StatusBadRequest, "EMPTY_CONTRACT", "No contract provided")
		return
	case errors.Is(err, service.ErrNoLawsRetrieved):
		respondError(c, http.StatusServiceUnavailable, "NO_LAWS", "No laws retrieved. Check your database.")
		return
	case err != nil:
		logger.Error(c.Request.Context(), "contract analysis failed", "error", err)
		respondError(c, http.StatusInternalServerError, "ANALYSIS_FAILED", err.Error())
		return
	}

	respondData(c, http.StatusOK, newAnalyzeResponse(result))
}

func newAnalyzeResponse(result *service.AnalysisResult) AnalyzeResponse {
	report := result.Report
	resp := AnalyzeResponse{
		TotalClauses:    report.TotalClauses,
		ComplianceScore: report.ComplianceScore,
		LawsRetrieved:   len(result.Laws),
		Message:         summaryMessage(report),
		Violations:      make([]ViolationResponse, 0, len(report.Violations)),
	}

	for _, v := range report.Violations {
		resp.Violations = append(resp.Violations, ViolationResponse{
			ClauseID:   v.Clause.ID,
			ClauseText: v.Clause.Text,
			Reason:     v.Reason,
			Suggestion: v.Suggestion,
			Confidence: v.Confidence,
			Rule:       v.Rule,
			ViolatedLaw: ViolatedLaw{
				Ordinal:    v.Law.Ordinal,
				SourceFile: v.Law.SourceFile,
				Page:       v.Law.Page,
			},
		})
	}
	return resp
}

func summaryMessage(report models.Report) string {
	switch n := len(report.Violations); n {
	case 0:
		return "No violations - contract is compliant"
	case 1:
		return "1 violation found"
	default:
		return fmt.Sprintf("%d violations found", n)
	}
}
