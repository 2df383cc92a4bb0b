package bookings

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

// NewRepository constructs a PostgreSQL-backed Repository. A unique index
// on quotation_id keeps bookings one-per-quotation.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const bookingColumns = `id, quotation_id, customer_id, customer_name, total_amount, amount_paid, payment_status, booking_status, travel_date, COALESCE(operation_notes, ''), created_at, updated_at`

func (r *repository) Create(ctx context.Context, b Booking) error {
	_, err := r.db.Exec(ctx, `INSERT INTO bookings
(id, quotation_id, customer_id, customer_name, total_amount, amount_paid, payment_status, booking_status, travel_date, operation_notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)`,
		b.ID, b.QuotationID, b.CustomerID, b.CustomerName, b.TotalAmount, b.AmountPaid,
		string(b.PaymentStatus), string(b.BookingStatus), b.TravelDate, b.OperationNotes, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return ErrAlreadyBooked
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := r.scanOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	payments, err := r.loadPayments(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Payments = payments
	return b, nil
}

func (r *repository) GetByQuotation(ctx context.Context, quotationID uuid.UUID) (*Booking, error) {
	return r.scanOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE quotation_id = $1`, quotationID)
}

func (r *repository) scanOne(ctx context.Context, query string, arg any) (*Booking, error) {
	var b Booking
	var paymentStatus, bookingStatus string
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&b.ID, &b.QuotationID, &b.CustomerID, &b.CustomerName, &b.TotalAmount, &b.AmountPaid,
		&paymentStatus, &bookingStatus, &b.TravelDate, &b.OperationNotes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	b.PaymentStatus = PaymentStatus(paymentStatus)
	b.BookingStatus = BookingStatus(bookingStatus)
	return &b, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Booking, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	if filter.PaymentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", argPos))
		args = append(args, string(*filter.PaymentStatus))
		argPos++
	}
	if filter.BookingStatus != nil {
		conditions = append(conditions, fmt.Sprintf("booking_status = $%d", argPos))
		args = append(args, string(*filter.BookingStatus))
		argPos++
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *filter.CustomerID)
		argPos++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM bookings WHERE "+where, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, argPos, argPos+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		var paymentStatus, bookingStatus string
		if err := rows.Scan(&b.ID, &b.QuotationID, &b.CustomerID, &b.CustomerName, &b.TotalAmount, &b.AmountPaid,
			&paymentStatus, &bookingStatus, &b.TravelDate, &b.OperationNotes, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		b.PaymentStatus = PaymentStatus(paymentStatus)
		b.BookingStatus = BookingStatus(bookingStatus)
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, b Booking) error {
	tag, err := r.db.Exec(ctx, `UPDATE bookings
SET amount_paid = $1, payment_status = $2, booking_status = $3, operation_notes = NULLIF($4, ''), updated_at = $5
WHERE id = $6`,
		b.AmountPaid, string(b.PaymentStatus), string(b.BookingStatus), b.OperationNotes, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) AddPayment(ctx context.Context, bookingID uuid.UUID, p Payment) error {
	_, err := r.db.Exec(ctx, `INSERT INTO booking_payments
(booking_id, kind, amount, reference, recorded_by, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`,
		bookingID, string(p.Kind), p.Amount, p.Reference, p.RecordedBy, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *repository) loadPayments(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, kind, amount, COALESCE(reference, ''), recorded_by, created_at
FROM booking_payments WHERE booking_id = $1 ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		var kind string
		if err := rows.Scan(&p.ID, &kind, &p.Amount, &p.Reference, &p.RecordedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Kind = PaymentKind(kind)
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ Repository = (*repository)(nil)
