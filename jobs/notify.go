package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/tripflow/tripflow/internal/approvals"
	"github.com/tripflow/tripflow/internal/quotations"
)

// QuotationNotifier turns quotation lifecycle events into queued emails.
// Satisfies the quotations service's Notifier.
type QuotationNotifier struct {
	pool    *pgxpool.Pool
	client  *Client
	logger  *slog.Logger
	printer *message.Printer
}

// NewQuotationNotifier constructs a QuotationNotifier. Amounts are
// formatted for the Indian market.
func NewQuotationNotifier(pool *pgxpool.Pool, client *Client, logger *slog.Logger) *QuotationNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuotationNotifier{
		pool:    pool,
		client:  client,
		logger:  logger,
		printer: message.NewPrinter(language.MustParse("en-IN")),
	}
}

// QuotationSent emails the customer that their quotation is ready.
func (n *QuotationNotifier) QuotationSent(ctx context.Context, q *quotations.Quotation) error {
	if n.client == nil {
		return nil
	}
	email, name, err := n.customerContact(ctx, q.CustomerID)
	if err != nil {
		return fmt.Errorf("resolve customer contact: %w", err)
	}

	opt, err := q.Option(q.SelectedOptionCode)
	if err != nil {
		return err
	}
	price := n.printer.Sprintf("INR %v", number.Decimal(opt.TotalPrice))

	_, err = n.client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      email,
		Subject: "Your travel quotation: " + q.Title,
		Body: fmt.Sprintf("Hi %s, your quotation %q is ready at %s. It stays valid for %d days.",
			name, q.Title, price, q.ValidityDays),
	})
	if err != nil {
		return fmt.Errorf("enqueue quotation email: %w", err)
	}
	return nil
}

// ApprovalDecided emails the requesting salesperson the outcome of their
// discount approval request.
func (n *QuotationNotifier) ApprovalDecided(ctx context.Context, a *approvals.ApprovalRequest) error {
	if n.client == nil {
		return nil
	}
	email, name, err := n.customerContact(ctx, a.RequestedBy)
	if err != nil {
		return fmt.Errorf("resolve requester contact: %w", err)
	}

	discount := n.printer.Sprintf("%.2f%%", a.DiscountPercentage)
	body := fmt.Sprintf("Hi %s, your discount request of %s was %s.", name, discount, a.Decision)
	if a.DecisionComment != "" {
		body += " Comment: " + a.DecisionComment
	}

	_, err = n.client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      email,
		Subject: "Discount request " + string(a.Decision),
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("enqueue decision email: %w", err)
	}
	return nil
}

func (n *QuotationNotifier) customerContact(ctx context.Context, userID string) (email, name string, err error) {
	err = n.pool.QueryRow(ctx, `SELECT email, name FROM users WHERE id::text = $1`, userID).Scan(&email, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", fmt.Errorf("user %s not found", userID)
	}
	return email, name, err
}

var (
	_ quotations.Notifier = (*QuotationNotifier)(nil)
	_ approvals.Notifier  = (*QuotationNotifier)(nil)
)
