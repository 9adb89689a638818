package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"contractguard-backend/models"
	"contractguard-backend/ocl"
	"contractguard-backend/pkg/logger"
	"contractguard-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PolicyManager converts, stores and renders policies
type PolicyManager interface {
	Convert(ctx context.Context, req service.ConvertRequest) (*service.Conversion, error)
	Save(ctx context.Context, policy *models.Policy) error
	Get(ctx context.Context, id uuid.UUID) (*models.Policy, error)
	List(ctx context.Context, limit, offset int) ([]models.Policy, error)
	GenerateHarness(ctx context.Context, id uuid.UUID) (string, error)
}

// PolicyHandler handles HTTP requests for policies
type PolicyHandler struct {
	policies PolicyManager
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policies PolicyManager) *PolicyHandler {
	return &PolicyHandler{policies: policies}
}

// ConvertPolicyRequest represents the request body for converting a policy
type ConvertPolicyRequest struct {
	PolicyName     string `json:"policy_name"`
	LegalFramework string `json:"legal_framework"`
	PolicyText     string `json:"policy_text" binding:"required"`
}

// ConvertPolicyResponse is a generated constraint with its metadata
type ConvertPolicyResponse struct {
	Explanation string                    `json:"explanation"`
	OCLCode     string                    `json:"ocl_code"`
	ArticleRef  string                    `json:"article_ref"`
	Validation  []service.ValidationCheck `json:"validation"`
	Category    string                    `json:"category"`
	Keywords    []string                  `json:"keywords"`
	PolicyType  models.PolicyType         `json:"policy_type"`
	Properties  models.PropertyTypes      `json:"properties"`
}

// Convert handles POST /api/policies/convert
func (h *PolicyHandler) Convert(c *gin.Context) {
	var req ConvertPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	conv, err := h.policies.Convert(c.Request.Context(), service.ConvertRequest{
		Name:           req.PolicyName,
		LegalFramework: req.LegalFramework,
		Text:           req.PolicyText,
	})
	if err != nil {
		h.fail(c, "policy conversion failed", err)
		return
	}

	respondData(c, http.StatusOK, ConvertPolicyResponse{
		Explanation: conv.Explanation,
		OCLCode:     conv.Expression,
		ArticleRef:  conv.ArticleRef,
		Validation:  conv.Validation,
		Category:    conv.Category,
		Keywords:    conv.Keywords,
		PolicyType:  conv.PolicyType,
		Properties:  conv.Properties,
	})
}

// SavePolicyRequest represents the request body for storing a converted policy
type SavePolicyRequest struct {
	PolicyName     string               `json:"policy_name" binding:"required"`
	LegalFramework string               `json:"legal_framework"`
	CompanyName    string               `json:"company_name"`
	PolicyText     string               `json:"policy_text"`
	OCLCode        string               `json:"ocl_code" binding:"required"`
	Category       string               `json:"category"`
	Keywords       []string             `json:"keywords"`
	PolicyType     models.PolicyType    `json:"policy_type"`
	Properties     models.PropertyTypes `json:"properties"`
}

// Create handles POST /api/policies
func (h *PolicyHandler) Create(c *gin.Context) {
	var req SavePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	keywords := req.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	policy := &models.Policy{
		Name:           req.PolicyName,
		LegalFramework: req.LegalFramework,
		CompanyName:    req.CompanyName,
		Description:    req.PolicyText,
		OCLCode:        req.OCLCode,
		Category:       req.Category,
		Keywords:       keywords,
		PolicyType:     req.PolicyType,
		Properties:     req.Properties,
	}
	if err := h.policies.Save(c.Request.Context(), policy); err != nil {
		h.fail(c, "policy save failed", err)
		return
	}

	respondData(c, http.StatusCreated, policy)
}

// List handles GET /api/policies
func (h *PolicyHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be an integer")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "offset must be an integer")
		return
	}

	policies, err := h.policies.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, "policy list failed", err)
		return
	}
	if policies == nil {
		policies = []models.Policy{}
	}

	respondData(c, http.StatusOK, policies)
}

// Get handles GET /api/policies/:id
func (h *PolicyHandler) Get(c *gin.Context) {
	id, ok := policyID(c)
	if !ok {
		return
	}

	policy, err := h.policies.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "policy lookup failed", err)
		return
	}

	respondData(c, http.StatusOK, policy)
}

// GenerateHarness handles POST /api/policies/:id/harness
func (h *PolicyHandler) GenerateHarness(c *gin.Context) {
	id, ok := policyID(c)
	if !ok {
		return
	}

	key, err := h.policies.GenerateHarness(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "harness generation failed", err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{"file_path": key})
}

func (h *PolicyHandler) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyPolicy):
		respondError(c, http.StatusBadRequest, "EMPTY_POLICY", err.Error())
	case errors.Is(err, service.ErrInvalidPolicy):
		respondError(c, http.StatusBadRequest, "INVALID_POLICY", err.Error())
	case errors.Is(err, service.ErrPolicyNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Policy not found")
	case errors.Is(err, service.ErrConversionFailed):
		respondError(c, http.StatusUnprocessableEntity, "CONVERSION_FAILED", err.Error())
	case errors.Is(err, ocl.ErrUnsupportedExpression):
		respondError(c, http.StatusUnprocessableEntity, "UNSUPPORTED_EXPRESSION", err.Error())
	default:
		logger.Error(c.Request.Context(), msg, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func policyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid policy ID format")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
