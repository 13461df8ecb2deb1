// Package reconcile periodically reports orders left in CREATED after a
// gateway outage or crash. It never resubmits them: an automatic retry could
// register a duplicate instruction, so recovery is an operator decision.
package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/finvera/wealthgate/internal/orders"
	"github.com/finvera/wealthgate/pkg/metrics"
	"github.com/finvera/wealthgate/pkg/models"
)

// Reconciler sweeps for stuck orders on a fixed interval.
type Reconciler struct {
	logger    *zap.Logger
	repo      *orders.Repository
	events    orders.EventPublisher
	interval  time.Duration
	threshold time.Duration
}

func New(logger *zap.Logger, repo *orders.Repository, events orders.EventPublisher, interval, threshold time.Duration) *Reconciler {
	if interval == 0 {
		interval = 15 * time.Minute
	}
	if threshold == 0 {
		threshold = time.Hour
	}
	if events == nil {
		events = orders.NopPublisher{}
	}
	return &Reconciler{
		logger:    logger,
		repo:      repo,
		events:    events,
		interval:  interval,
		threshold: threshold,
	}
}

// Run sweeps until the context is cancelled. Intended to be started as a
// goroutine from main.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.logger.Error("stuck-order sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep reports every order sitting in CREATED past the threshold.
func (r *Reconciler) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-r.threshold)
	stuck, err := r.repo.ListStuckCreated(ctx, cutoff)
	if err != nil {
		return err
	}

	metrics.StuckOrders.Set(float64(len(stuck)))
	for _, order := range stuck {
		r.logger.Warn("order stuck in CREATED, operator action required",
			zap.String("order_id", order.ID.String()),
			zap.String("type", string(order.Type)),
			zap.String("reference_number", order.ReferenceNumber),
			zap.Time("created_at", order.CreatedAt),
		)
		event := orders.OrderEvent{
			Type:       orders.EventOrderStuck,
			OrderID:    order.ID,
			AdvisorID:  order.AdvisorID,
			OrderType:  order.Type,
			Status:     models.OrderStatusCreated,
			OccurredAt: time.Now(),
		}
		if err := r.events.Publish(ctx, event); err != nil {
			r.logger.Warn("failed to publish stuck-order event",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}
