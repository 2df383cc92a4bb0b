package approvals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripflow/tripflow/internal/shared"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository. The schema
// carries a partial unique index on (quotation_id) WHERE decision =
// 'pending', so concurrent creates cannot produce two open requests.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Create(ctx context.Context, a ApprovalRequest) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO approval_requests
(id, quotation_id, option_code, discount_percentage, reason, requested_by, requested_by_name, decision, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.QuotationID, a.OptionCode, a.DiscountPercentage, a.Reason,
		a.RequestedBy, a.RequestedByName, string(a.Decision), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePending
		}
		return fmt.Errorf("insert approval request: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*ApprovalRequest, error) {
	var a ApprovalRequest
	var decision string
	err := r.pool.QueryRow(ctx, `SELECT id, quotation_id, option_code, discount_percentage, reason, requested_by, requested_by_name, decision, COALESCE(decision_comment, ''), COALESCE(decided_by, ''), decided_at, created_at, updated_at
FROM approval_requests WHERE id = $1`, id).Scan(
		&a.ID, &a.QuotationID, &a.OptionCode, &a.DiscountPercentage, &a.Reason,
		&a.RequestedBy, &a.RequestedByName, &decision, &a.DecisionComment, &a.DecidedBy, &a.DecidedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	a.Decision = Decision(decision)
	return &a, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]ApprovalRequest, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	if filter.QuotationID != nil {
		conditions = append(conditions, fmt.Sprintf("quotation_id = $%d", argPos))
		args = append(args, *filter.QuotationID)
		argPos++
	}
	if filter.Decision != nil {
		conditions = append(conditions, fmt.Sprintf("decision = $%d", argPos))
		args = append(args, string(*filter.Decision))
		argPos++
	}
	if filter.RequestedBy != nil {
		conditions = append(conditions, fmt.Sprintf("requested_by = $%d", argPos))
		args = append(args, *filter.RequestedBy)
		argPos++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM approval_requests WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT id, quotation_id, option_code, discount_percentage, reason, requested_by, requested_by_name, decision, COALESCE(decision_comment, ''), COALESCE(decided_by, ''), decided_at, created_at, updated_at
FROM approval_requests WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ApprovalRequest
	for rows.Next() {
		var a ApprovalRequest
		var decision string
		if err := rows.Scan(&a.ID, &a.QuotationID, &a.OptionCode, &a.DiscountPercentage, &a.Reason,
			&a.RequestedBy, &a.RequestedByName, &decision, &a.DecisionComment, &a.DecidedBy, &a.DecidedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		a.Decision = Decision(decision)
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *repository) Decide(ctx context.Context, id uuid.UUID, decision Decision, comment, decidedBy string, decidedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE approval_requests
SET decision = $1, decision_comment = NULLIF($2, ''), decided_by = $3, decided_at = $4, updated_at = $4
WHERE id = $5 AND decision = 'pending'`,
		string(decision), comment, decidedBy, decidedAt, id)
	if err != nil {
		return fmt.Errorf("decide approval request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyDecided
	}
	return nil
}

func (r *repository) PendingExists(ctx context.Context, quotationID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM approval_requests WHERE quotation_id = $1 AND decision = 'pending')`, quotationID).Scan(&exists)
	return exists, err
}

func (r *repository) ApprovedExists(ctx context.Context, quotationID uuid.UUID, optionCode string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM approval_requests WHERE quotation_id = $1 AND option_code = $2 AND decision = 'approved')`, quotationID, optionCode).Scan(&exists)
	return exists, err
}

func isUniqueViolation(err error) bool {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code == "23505"
	}
	return false
}

var _ Repository = (*repository)(nil)
