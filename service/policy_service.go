package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"contractguard-backend/metrics"
	"contractguard-backend/models"
	"contractguard-backend/ocl"
	"contractguard-backend/pkg/logger"
	"contractguard-backend/repository"
	"contractguard-backend/storage"

	"github.com/google/uuid"
)

// Generator answers a prompt with model text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PolicyStore persists converted policies
type PolicyStore interface {
	Create(ctx context.Context, policy *models.Policy) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Policy, error)
	List(ctx context.Context, limit, offset int) ([]models.Policy, error)
	UpdateHarnessPath(ctx context.Context, id uuid.UUID, path string) error
}

const defaultConversionAttempts = 3

// PolicyService converts natural-language policies to OCL and manages them
type PolicyService struct {
	generator Generator
	store     PolicyStore
	artifacts storage.Storage
	metrics   *metrics.Metrics
	attempts  int
}

// PolicyServiceOption is a functional option for PolicyService
type PolicyServiceOption func(*PolicyService)

func PolicyWithGenerator(g Generator) PolicyServiceOption {
	return func(s *PolicyService) {
		s.generator = g
	}
}

func PolicyWithStore(store PolicyStore) PolicyServiceOption {
	return func(s *PolicyService) {
		s.store = store
	}
}

func PolicyWithArtifacts(artifacts storage.Storage) PolicyServiceOption {
	return func(s *PolicyService) {
		s.artifacts = artifacts
	}
}

func PolicyWithMetrics(m *metrics.Metrics) PolicyServiceOption {
	return func(s *PolicyService) {
		s.metrics = m
	}
}

func NewPolicyService(opts ...PolicyServiceOption) *PolicyService {
	s := &PolicyService{attempts: defaultConversionAttempts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConvertRequest is a policy sentence to convert
type ConvertRequest struct {
	Name           string
	LegalFramework string
	CompanyName    string
	Text           string
}

// ValidationCheck is one line of the validation summary shown with a conversion
type ValidationCheck struct {
	Label    string `json:"label"`
	Standard string `json:"standard"`
}

// Conversion is a validated OCL constraint and what was inferred about it
type Conversion struct {
	Expression  string
	Explanation string
	ArticleRef  string
	Validation  []ValidationCheck
	Category    string
	Keywords    []string
	PolicyType  models.PolicyType
	Properties  models.PropertyTypes
	Attempts    int
}

// Convert asks the model for an OCL constraint until one passes the sanity
// check, then asks for the policy's category and keywords
func (s *PolicyService) Convert(ctx context.Context, req ConvertRequest) (*Conversion, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		s.metrics.ObserveConversion(metrics.OutcomeInvalid)
		return nil, ErrEmptyPolicy
	}
	if s.generator == nil {
		return nil, errors.New("generator not set")
	}

	var expr string
	var problems []string
	attempt := 0
	for attempt < s.attempts {
		attempt++

		answer, err := s.generator.Generate(ctx, ocl.ConversionPrompt(text))
		if err != nil {
			s.metrics.ObserveConversion(metrics.OutcomeError)
			return nil, fmt.Errorf("failed to generate OCL: %w", err)
		}

		expr = ocl.Normalize(ocl.Clean(answer))
		problems = ocl.SanityCheck(expr)
		if len(problems) == 0 {
			break
		}
		logger.Warn(ctx, "generated OCL rejected", "attempt", attempt, "ocl", expr, "problems", problems)
	}
	if len(problems) > 0 {
		s.metrics.ObserveConversion(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w after %d attempts: %s", ErrConversionFailed, attempt, strings.Join(problems, "; "))
	}

	meta := s.metadata(ctx, text)
	props := ocl.ExtractProperties(expr)

	conv := &Conversion{
		Expression:  expr,
		Explanation: fmt.Sprintf("This policy maps to %s. The constraint ensures compliance with the specified legal requirements.", req.LegalFramework),
		ArticleRef:  fmt.Sprintf("%s - %s", req.LegalFramework, meta.Category),
		Validation: []ValidationCheck{
			{Label: "OCL Syntax Valid", Standard: "OCL 2.0 Specification"},
			{Label: "Legal Framework Compliance", Standard: req.LegalFramework},
		},
		Category:   meta.Category,
		Keywords:   meta.Keywords,
		PolicyType: ocl.DetectPolicyType(expr),
		Properties: ocl.InferPropertyTypes(expr, props),
		Attempts:   attempt,
	}

	s.metrics.ObserveConversion(metrics.OutcomeOK)
	logger.Info(ctx, "policy converted", "ocl", expr, "category", meta.Category, "attempts", attempt)
	return conv, nil
}

// metadata never fails; unusable answers fall back to the default category
func (s *PolicyService) metadata(ctx context.Context, text string) ocl.Metadata {
	fallback := ocl.Metadata{Category: ocl.FallbackCategory, Keywords: []string{}}

	answer, err := s.generator.Generate(ctx, ocl.MetadataPrompt(text))
	if err != nil {
		logger.Warn(ctx, "metadata generation failed", "error", err)
		return fallback
	}
	meta, err := ocl.ParseMetadata(answer)
	if err != nil {
		logger.Warn(ctx, "metadata answer unusable", "error", err)
		return fallback
	}
	return meta
}

// Save validates and stores a policy, inferring its evaluation mode and
// property types when they are missing
func (s *PolicyService) Save(ctx context.Context, policy *models.Policy) error {
	policy.OCLCode = ocl.Normalize(policy.OCLCode)
	if problems := ocl.SanityCheck(policy.OCLCode); len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPolicy, strings.Join(problems, "; "))
	}
	if strings.TrimSpace(policy.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPolicy)
	}

	if policy.PolicyType == "" {
		policy.PolicyType = ocl.DetectPolicyType(policy.OCLCode)
	}
	if len(policy.Properties) == 0 {
		policy.Properties = ocl.InferPropertyTypes(policy.OCLCode, ocl.ExtractProperties(policy.OCLCode))
	}
	if policy.Category == "" {
		policy.Category = ocl.FallbackCategory
	}

	if err := s.store.Create(ctx, policy); err != nil {
		return err
	}
	logger.Info(ctx, "policy saved", "policy_id", policy.ID, "name", policy.Name)
	return nil
}

// ConvertAndSave converts req and stores the result
func (s *PolicyService) ConvertAndSave(ctx context.Context, req ConvertRequest) (*models.Policy, *Conversion, error) {
	conv, err := s.Convert(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	name := req.Name
	if name == "" {
		name = conv.Category
	}
	policy := &models.Policy{
		Name:           name,
		LegalFramework: req.LegalFramework,
		CompanyName:    req.CompanyName,
		Description:    strings.TrimSpace(req.Text),
		OCLCode:        conv.Expression,
		Category:       conv.Category,
		Keywords:       conv.Keywords,
		PolicyType:     conv.PolicyType,
		Properties:     conv.Properties,
	}
	if err := s.Save(ctx, policy); err != nil {
		return nil, nil, err
	}
	return policy, conv, nil
}

func (s *PolicyService) Get(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	policy, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	return policy, nil
}

func (s *PolicyService) List(ctx context.Context, limit, offset int) ([]models.Policy, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}

// GenerateHarness renders the policy's test harness, stores it as an
// artifact and records the storage key on the policy
func (s *PolicyService) GenerateHarness(ctx context.Context, id uuid.UUID) (string, error) {
	if s.artifacts == nil {
		return "", errors.New("artifact storage not set")
	}

	policy, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	src, err := ocl.GenerateHarness(ocl.HarnessInput{
		PolicyID:    policy.ID.String(),
		CompanyName: policy.CompanyName,
		Description: policy.Description,
		Expression:  policy.OCLCode,
		Types:       policy.Properties,
	})
	if err != nil {
		return "", err
	}

	key, err := s.artifacts.Put(ctx, storage.KindHarness, policy.ID, "policy_harness.go", bytes.NewReader(src))
	if err != nil {
		return "", err
	}

	err = s.store.UpdateHarnessPath(ctx, policy.ID, key)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrPolicyNotFound
	}
	if err != nil {
		return "", err
	}

	logger.Info(ctx, "harness generated", "policy_id", policy.ID, "path", key)
	return key, nil
}
