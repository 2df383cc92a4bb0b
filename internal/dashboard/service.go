// Package dashboard aggregates per-role headline numbers for the home
// screen. Each role gets the counts it acts on, computed live from the
// operational tables.
package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripflow/tripflow/internal/shared"
)

// Stats is a role-shaped bag of headline numbers.
type Stats map[string]any

// Service computes dashboard aggregates.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// StatsFor returns the headline numbers for the actor's role.
func (s *Service) StatsFor(ctx context.Context, actor shared.Identity) (Stats, error) {
	switch actor.Role {
	case "customer":
		return s.customerStats(ctx, actor.UserID)
	case "salesperson":
		return s.salespersonStats(ctx, actor.UserID)
	case "sales_manager":
		return s.managerStats(ctx)
	case "operations":
		return s.operationsStats(ctx)
	case "admin":
		return s.adminStats(ctx)
	default:
		return nil, fmt.Errorf("%w: no dashboard for role", shared.ErrForbidden)
	}
}

func (s *Service) customerStats(ctx context.Context, customerID string) (Stats, error) {
	var activeRequests, totalBookings, pendingPayments int
	err := s.pool.QueryRow(ctx, `SELECT
(SELECT COUNT(*) FROM travel_requests WHERE customer_id = $1 AND status IN ('pending', 'quoted')),
(SELECT COUNT(*) FROM bookings WHERE customer_id = $1),
(SELECT COUNT(*) FROM bookings WHERE customer_id = $1 AND payment_status IN ('pending', 'partial'))`,
		customerID).Scan(&activeRequests, &totalBookings, &pendingPayments)
	if err != nil {
		return nil, fmt.Errorf("customer stats: %w", err)
	}
	return Stats{
		"active_requests":  activeRequests,
		"total_bookings":   totalBookings,
		"pending_payments": pendingPayments,
	}, nil
}

func (s *Service) salespersonStats(ctx context.Context, salespersonID string) (Stats, error) {
	var assignedRequests, draftQuotations, sentQuotations, acceptedQuotations int
	err := s.pool.QueryRow(ctx, `SELECT
(SELECT COUNT(*) FROM travel_requests WHERE assigned_salesperson = $1),
(SELECT COUNT(*) FROM quotations WHERE salesperson_id = $1 AND status = 'draft'),
(SELECT COUNT(*) FROM quotations WHERE salesperson_id = $1 AND status IN ('sent', 'accepted', 'rejected')),
(SELECT COUNT(*) FROM quotations WHERE salesperson_id = $1 AND status = 'accepted')`,
		salespersonID).Scan(&assignedRequests, &draftQuotations, &sentQuotations, &acceptedQuotations)
	if err != nil {
		return nil, fmt.Errorf("salesperson stats: %w", err)
	}
	conversionRate := 0.0
	if sentQuotations > 0 {
		conversionRate = float64(acceptedQuotations) / float64(sentQuotations) * 100
	}
	return Stats{
		"assigned_requests":  assignedRequests,
		"pending_quotations": draftQuotations,
		"conversion_rate":    conversionRate,
	}, nil
}

func (s *Service) managerStats(ctx context.Context) (Stats, error) {
	var pendingApprovals, teamSize int
	var monthlyRevenue float64
	err := s.pool.QueryRow(ctx, `SELECT
(SELECT COUNT(*) FROM approval_requests WHERE decision = 'pending'),
(SELECT COUNT(*) FROM users WHERE role = 'salesperson' AND is_active),
(SELECT COALESCE(SUM(amount_paid), 0) FROM bookings WHERE created_at >= date_trunc('month', NOW()))`,
	).Scan(&pendingApprovals, &teamSize, &monthlyRevenue)
	if err != nil {
		return nil, fmt.Errorf("manager stats: %w", err)
	}
	return Stats{
		"pending_approvals": pendingApprovals,
		"team_size":         teamSize,
		"monthly_revenue":   monthlyRevenue,
	}, nil
}

func (s *Service) operationsStats(ctx context.Context) (Stats, error) {
	var confirmedBookings, pendingPayments, upcomingTrips int
	err := s.pool.QueryRow(ctx, `SELECT
(SELECT COUNT(*) FROM bookings WHERE booking_status = 'confirmed'),
(SELECT COUNT(*) FROM bookings WHERE payment_status IN ('pending', 'partial')),
(SELECT COUNT(*) FROM bookings WHERE booking_status = 'confirmed' AND travel_date::date >= CURRENT_DATE)`,
	).Scan(&confirmedBookings, &pendingPayments, &upcomingTrips)
	if err != nil {
		return nil, fmt.Errorf("operations stats: %w", err)
	}
	return Stats{
		"confirmed_bookings": confirmedBookings,
		"pending_payments":   pendingPayments,
		"upcoming_trips":     upcomingTrips,
	}, nil
}

func (s *Service) adminStats(ctx context.Context) (Stats, error) {
	var totalUsers, totalRequests, totalQuotations int
	err := s.pool.QueryRow(ctx, `SELECT
(SELECT COUNT(*) FROM users),
(SELECT COUNT(*) FROM travel_requests),
(SELECT COUNT(*) FROM quotations)`,
	).Scan(&totalUsers, &totalRequests, &totalQuotations)
	if err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return Stats{
		"total_users":      totalUsers,
		"total_requests":   totalRequests,
		"total_quotations": totalQuotations,
	}, nil
}
