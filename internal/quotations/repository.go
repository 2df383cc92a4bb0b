package quotations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripflow/tripflow/internal/platform/db"
	"github.com/tripflow/tripflow/internal/pricing"
	"github.com/tripflow/tripflow/internal/shared"
)

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Create(ctx context.Context, q Quotation) error {
	_, err := r.db.Exec(ctx, `INSERT INTO quotations
(id, request_id, customer_id, salesperson_id, salesperson_name, title, validity_days, status, terms_conditions, selected_option_code, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		q.ID, q.RequestID, q.CustomerID, q.SalespersonID, q.SalespersonName, q.Title,
		q.ValidityDays, string(q.Status), q.TermsConditions, q.SelectedOptionCode, q.Version, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert quotation: %w", err)
	}
	return r.insertOptions(ctx, q.ID, q.Options)
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	var q Quotation
	var status string
	err := r.db.QueryRow(ctx, `SELECT id, request_id, customer_id, salesperson_id, salesperson_name, title, validity_days, status, terms_conditions, COALESCE(selected_option_code, ''), version, created_at, updated_at
FROM quotations WHERE id = $1`, id).Scan(
		&q.ID, &q.RequestID, &q.CustomerID, &q.SalespersonID, &q.SalespersonName, &q.Title,
		&q.ValidityDays, &status, &q.TermsConditions, &q.SelectedOptionCode, &q.Version, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	q.Status = Status(status)

	opts, err := r.loadOptions(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.Options = opts
	return &q, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Quotation, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	if filter.RequestID != nil {
		conditions = append(conditions, fmt.Sprintf("request_id = $%d", argPos))
		args = append(args, *filter.RequestID)
		argPos++
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *filter.CustomerID)
		argPos++
	}
	if filter.SalespersonID != nil {
		conditions = append(conditions, fmt.Sprintf("salesperson_id = $%d", argPos))
		args = append(args, *filter.SalespersonID)
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*filter.Status))
		argPos++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM quotations WHERE "+where, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf(`SELECT id, request_id, customer_id, salesperson_id, salesperson_name, title, validity_days, status, terms_conditions, COALESCE(selected_option_code, ''), version, created_at, updated_at
FROM quotations WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		var q Quotation
		var status string
		if err := rows.Scan(&q.ID, &q.RequestID, &q.CustomerID, &q.SalespersonID, &q.SalespersonName, &q.Title,
			&q.ValidityDays, &status, &q.TermsConditions, &q.SelectedOptionCode, &q.Version, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, 0, err
		}
		q.Status = Status(status)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		opts, err := r.loadOptions(ctx, out[i].ID)
		if err != nil {
			return nil, 0, err
		}
		out[i].Options = opts
	}
	return out, total, nil
}

func (r *repository) Update(ctx context.Context, q Quotation) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotations
SET title = $1, validity_days = $2, terms_conditions = $3, version = version + 1, updated_at = $4
WHERE id = $5 AND version = $6`,
		q.Title, q.ValidityDays, q.TermsConditions, q.UpdatedAt, q.ID, q.Version)
	if err != nil {
		return fmt.Errorf("update quotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM quotation_options WHERE quotation_id = $1`, q.ID); err != nil {
		return fmt.Errorf("clear options: %w", err)
	}
	return r.insertOptions(ctx, q.ID, q.Options)
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int64, status Status, selectedOption string) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotations
SET status = $1, selected_option_code = NULLIF($2, ''), version = version + 1, updated_at = NOW()
WHERE id = $3 AND version = $4`,
		string(status), selectedOption, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *repository) insertOptions(ctx context.Context, quotationID uuid.UUID, opts []pricing.Option) error {
	for i, opt := range opts {
		var optionID int64
		err := r.db.QueryRow(ctx, `INSERT INTO quotation_options
(quotation_id, code, name, duration, margin_percentage, total_price, position)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			quotationID, opt.Code, opt.Name, opt.Duration, opt.MarginPercentage, opt.TotalPrice, i).Scan(&optionID)
		if err != nil {
			return fmt.Errorf("insert option %s: %w", opt.Code, err)
		}
		for j, item := range opt.LineItems {
			_, err := r.db.Exec(ctx, `INSERT INTO quotation_line_items
(option_id, category, description, quantity, unit_price, total, is_fixed, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				optionID, string(item.Category), item.Description, item.Quantity, item.UnitPrice, item.Total, item.IsFixed, j)
			if err != nil {
				return fmt.Errorf("insert line item: %w", err)
			}
		}
	}
	return nil
}

func (r *repository) loadOptions(ctx context.Context, quotationID uuid.UUID) ([]pricing.Option, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, duration, margin_percentage, total_price
FROM quotation_options WHERE quotation_id = $1 ORDER BY position`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []pricing.Option
	var optionIDs []int64
	for rows.Next() {
		var opt pricing.Option
		var id int64
		if err := rows.Scan(&id, &opt.Code, &opt.Name, &opt.Duration, &opt.MarginPercentage, &opt.TotalPrice); err != nil {
			return nil, err
		}
		opts = append(opts, opt)
		optionIDs = append(optionIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, optionID := range optionIDs {
		items, err := r.loadLineItems(ctx, optionID)
		if err != nil {
			return nil, err
		}
		opts[i].LineItems = items
	}
	return opts, nil
}

func (r *repository) loadLineItems(ctx context.Context, optionID int64) ([]pricing.LineItem, error) {
	rows, err := r.db.Query(ctx, `SELECT id, category, description, quantity, unit_price, total, is_fixed
FROM quotation_line_items WHERE option_id = $1 ORDER BY position`, optionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []pricing.LineItem
	for rows.Next() {
		var item pricing.LineItem
		var category string
		if err := rows.Scan(&item.ID, &category, &item.Description, &item.Quantity, &item.UnitPrice, &item.Total, &item.IsFixed); err != nil {
			return nil, err
		}
		item.Category = pricing.Category(category)
		items = append(items, item)
	}
	return items, rows.Err()
}

var _ Repository = (*repository)(nil)
