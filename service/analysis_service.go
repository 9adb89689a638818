package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"contractguard-backend/analysis"
	"contractguard-backend/metrics"
	"contractguard-backend/models"
	"contractguard-backend/pkg/logger"
)

// Retriever supplies the law excerpts a contract is checked against
type Retriever interface {
	Retrieve(ctx context.Context, contract string) ([]models.LawExcerpt, error)
}

// AnalysisService retrieves laws for a contract and runs the analyzer on them
type AnalysisService struct {
	retriever Retriever
	analyzer  *analysis.Analyzer
	metrics   *metrics.Metrics
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

func WithRetriever(r Retriever) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.retriever = r
	}
}

func WithAnalyzer(a *analysis.Analyzer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.analyzer = a
	}
}

func WithMetrics(m *metrics.Metrics) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.metrics = m
	}
}

// NewAnalysisService creates the service; the analyzer defaults to the production tables
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{analyzer: analysis.NewDefaultAnalyzer()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalysisResult is a report together with the laws it was computed against
type AnalysisResult struct {
	Laws   []models.LawExcerpt
	Report models.Report
}

// Analyze checks contract against the laws retrieved for it
func (s *AnalysisService) Analyze(ctx context.Context, contract string) (*AnalysisResult, error) {
	start := time.Now()

	if strings.TrimSpace(contract) == "" {
		s.metrics.ObserveAnalysis(metrics.OutcomeInvalid, nil, time.Since(start))
		return nil, ErrEmptyContract
	}
	if s.retriever == nil {
		return nil, errors.New("law retriever not set")
	}

	laws, err := s.retriever.Retrieve(ctx, contract)
	if err != nil {
		s.metrics.ObserveAnalysis(metrics.OutcomeError, nil, time.Since(start))
		return nil, err
	}
	if len(laws) == 0 {
		s.metrics.ObserveAnalysis(metrics.OutcomeError, nil, time.Since(start))
		return nil, ErrNoLawsRetrieved
	}

	report := s.analyzer.Analyze(contract, laws)
	s.metrics.ObserveAnalysis(metrics.OutcomeOK, &report, time.Since(start))

	logger.Info(ctx, "contract analyzed",
		"clauses", report.TotalClauses,
		"violations", len(report.Violations),
		"compliance_score", report.ComplianceScore,
		"laws", len(laws),
	)

	return &AnalysisResult{Laws: laws, Report: report}, nil
}
