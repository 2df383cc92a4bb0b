package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tripflow/tripflow/internal/observability"
)

// ExpiryScanJob sweeps sent quotations past their validity window and
// notifies the owning salesperson. Quotation rows are never mutated:
// expiry stays a read-time property, the sweep only surfaces it.
type ExpiryScanJob struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Client  *Client
	Logger  *slog.Logger
	Metrics *observability.Metrics
	clock   func() time.Time
}

// NewExpiryScanJob initialises the expiry sweep handler.
func NewExpiryScanJob(pool *pgxpool.Pool, rdb *redis.Client, client *Client, logger *slog.Logger, metrics *observability.Metrics) *ExpiryScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpiryScanJob{
		Pool:    pool,
		Redis:   rdb,
		Client:  client,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type expiredQuotation struct {
	ID    string
	Title string
	Email string
	Name  string
}

// Handle executes one sweep.
func (j *ExpiryScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("expiry scan: handler not configured")
	}
	var payload ExpiryScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Limit <= 0 {
		payload.Limit = 500
	}

	expired, err := j.findExpired(ctx, payload.Limit)
	if err != nil {
		return fmt.Errorf("expiry scan: %w", err)
	}

	notified := 0
	for _, q := range expired {
		fresh, err := j.markNotified(ctx, q.ID)
		if err != nil {
			j.Logger.Warn("mark expiry notified", slog.Any("error", err), slog.String("quotation_id", q.ID))
			continue
		}
		if !fresh {
			continue
		}
		if j.Metrics != nil {
			j.Metrics.QuotationExpired()
		}
		if j.Client != nil {
			_, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
				To:      q.Email,
				Subject: "Quotation expired: " + q.Title,
				Body:    fmt.Sprintf("Hi %s, your quotation %q passed its validity window. Issue a refreshed quote if the customer is still interested.", q.Name, q.Title),
			})
			if err != nil {
				j.Logger.Warn("enqueue expiry email", slog.Any("error", err), slog.String("quotation_id", q.ID))
			}
		}
		notified++
	}

	j.Logger.Info("expiry scan complete",
		slog.Int("expired", len(expired)),
		slog.Int("notified", notified))
	return nil
}

func (j *ExpiryScanJob) findExpired(ctx context.Context, limit int) ([]expiredQuotation, error) {
	rows, err := j.Pool.Query(ctx, `SELECT q.id, q.title, u.email, u.name
FROM quotations q
JOIN users u ON u.id::text = q.salesperson_id
WHERE q.status = 'sent'
  AND q.created_at + make_interval(days => q.validity_days) < $1
ORDER BY q.created_at
LIMIT $2`, j.clock(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []expiredQuotation
	for rows.Next() {
		var q expiredQuotation
		if err := rows.Scan(&q.ID, &q.Title, &q.Email, &q.Name); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// markNotified records the notification in Redis so repeated sweeps stay
// quiet about the same quotation. Returns false when already notified.
func (j *ExpiryScanJob) markNotified(ctx context.Context, quotationID string) (bool, error) {
	if j.Redis == nil {
		return true, nil
	}
	return j.Redis.SetNX(ctx, "tripflow:expiry:notified:"+quotationID, j.clock().Format(time.RFC3339), 30*24*time.Hour).Result()
}
