package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripflow/tripflow/internal/shared"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository. Destinations
// and transport modes live in text[] columns.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const requestColumns = `id, title, customer_id, customer_name, travel_type, travelers_count, adults, children, infants,
departure_date, return_date, is_flexible_dates, budget_min, budget_max, budget_per_person,
destinations, transport_modes, accommodation_star, COALESCE(meal_preference, ''), COALESCE(special_requirements, ''),
status, COALESCE(assigned_salesperson, ''), created_at, updated_at`

func (r *repository) Create(ctx context.Context, tr TravelRequest) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO travel_requests
(id, title, customer_id, customer_name, travel_type, travelers_count, adults, children, infants,
 departure_date, return_date, is_flexible_dates, budget_min, budget_max, budget_per_person,
 destinations, transport_modes, accommodation_star, meal_preference, special_requirements,
 status, assigned_salesperson, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NULLIF($19, ''), NULLIF($20, ''), $21, NULLIF($22, ''), $23, $24)`,
		tr.ID, tr.Title, tr.CustomerID, tr.CustomerName, tr.TravelType, tr.TravelersCount, tr.Adults, tr.Children, tr.Infants,
		tr.DepartureDate, tr.ReturnDate, tr.IsFlexibleDates, tr.BudgetMin, tr.BudgetMax, tr.BudgetPerPerson,
		tr.Destinations, tr.TransportModes, tr.AccommodationStar, tr.MealPreference, tr.SpecialRequirements,
		string(tr.Status), tr.AssignedSalesperson, tr.CreatedAt, tr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert travel request: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*TravelRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM travel_requests WHERE id = $1`, id)
	tr, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return tr, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]TravelRequest, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*filter.Status))
		argPos++
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *filter.CustomerID)
		argPos++
	}
	if filter.AssignedSalesperson != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_salesperson = $%d", argPos))
		args = append(args, *filter.AssignedSalesperson)
		argPos++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM travel_requests WHERE "+where, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf(`SELECT %s FROM travel_requests WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		requestColumns, where, argPos, argPos+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []TravelRequest
	for rows.Next() {
		tr, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *tr)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, tr TravelRequest) error {
	tag, err := r.pool.Exec(ctx, `UPDATE travel_requests
SET status = $1, assigned_salesperson = NULLIF($2, ''), updated_at = $3
WHERE id = $4`,
		string(tr.Status), tr.AssignedSalesperson, tr.UpdatedAt, tr.ID)
	if err != nil {
		return fmt.Errorf("update travel request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanRequest(row pgx.Row) (*TravelRequest, error) {
	var tr TravelRequest
	var status string
	err := row.Scan(&tr.ID, &tr.Title, &tr.CustomerID, &tr.CustomerName, &tr.TravelType, &tr.TravelersCount,
		&tr.Adults, &tr.Children, &tr.Infants, &tr.DepartureDate, &tr.ReturnDate, &tr.IsFlexibleDates,
		&tr.BudgetMin, &tr.BudgetMax, &tr.BudgetPerPerson, &tr.Destinations, &tr.TransportModes,
		&tr.AccommodationStar, &tr.MealPreference, &tr.SpecialRequirements, &status,
		&tr.AssignedSalesperson, &tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	tr.Status = Status(status)
	return &tr, nil
}

var _ Repository = (*repository)(nil)
