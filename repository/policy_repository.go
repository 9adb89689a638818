package repository

import (
	"context"
	"errors"
	"fmt"

	"contractguard-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// PolicyRepository handles database operations for converted policies
type PolicyRepository struct {
	db *pgxpool.Pool
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{db: db}
}

const policyColumns = `
	id, name, legal_framework, company_name, description, ocl_code,
	category, keywords, policy_type, properties, harness_path,
	created_at, updated_at`

func scanPolicy(row pgx.Row) (*models.Policy, error) {
	policy := &models.Policy{}
	err := row.Scan(
		&policy.ID,
		&policy.Name,
		&policy.LegalFramework,
		&policy.CompanyName,
		&policy.Description,
		&policy.OCLCode,
		&policy.Category,
		&policy.Keywords,
		&policy.PolicyType,
		&policy.Properties,
		&policy.HarnessPath,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return policy, nil
}

// Create inserts a policy and fills in its id and timestamps
func (r *PolicyRepository) Create(ctx context.Context, policy *models.Policy) error {
	if policy.Keywords == nil {
		policy.Keywords = []string{}
	}

	query := `
		INSERT INTO policies (
			name, legal_framework, company_name, description, ocl_code,
			category, keywords, policy_type, properties, harness_path
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		policy.Name,
		policy.LegalFramework,
		policy.CompanyName,
		policy.Description,
		policy.OCLCode,
		policy.Category,
		policy.Keywords,
		policy.PolicyType,
		policy.Properties,
		policy.HarnessPath,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert policy: %w", err)
	}
	return nil
}

// GetByID retrieves a policy by ID
func (r *PolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE id = $1`
	return scanPolicy(r.db.QueryRow(ctx, query, id))
}

// List returns policies newest first
func (r *PolicyRepository) List(ctx context.Context, limit, offset int) ([]models.Policy, error) {
	query := `SELECT ` + policyColumns + `
		FROM policies
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	policies := []models.Policy{}
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, *policy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policies: %w", err)
	}
	return policies, nil
}

// UpdateHarnessPath records where a policy's generated harness is stored
func (r *PolicyRepository) UpdateHarnessPath(ctx context.Context, id uuid.UUID, path string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE policies
		SET harness_path = $2, updated_at = NOW()
		WHERE id = $1`, id, path)
	if err != nil {
		return fmt.Errorf("failed to update harness path: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
