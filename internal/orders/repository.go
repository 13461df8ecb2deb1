package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finvera/wealthgate/pkg/errors"
	"github.com/finvera/wealthgate/pkg/models"
)

// Repository is the storage boundary for orders and the read-only
// collaborator entities the orchestrator consults.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateOrder durably writes the order in CREATED before any network call,
// so a crash mid-flight leaves a recoverable, inspectable record.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// MarkAccepted performs the single CREATED -> ACCEPTED transition, recording
// the gateway registration number, response code/message and submission
// time. The update is guarded by the current status so the transition can
// happen at most once.
func (r *Repository) MarkAccepted(ctx context.Context, orderID uuid.UUID, regNo, code, message string) error {
	now := time.Now()
	return r.transition(ctx, orderID, models.OrderStatusCreated, map[string]any{
		"status":                  models.OrderStatusAccepted,
		"gateway_registration_no": regNo,
		"response_code":           code,
		"response_message":        message,
		"submitted_at":            &now,
	})
}

// MarkRejected performs the single CREATED -> REJECTED transition, keeping
// the gateway's own code and message verbatim for audit.
func (r *Repository) MarkRejected(ctx context.Context, orderID uuid.UUID, code, message string) error {
	now := time.Now()
	return r.transition(ctx, orderID, models.OrderStatusCreated, map[string]any{
		"status":           models.OrderStatusRejected,
		"response_code":    code,
		"response_message": message,
		"submitted_at":     &now,
	})
}

// MarkCancelled performs the ACCEPTED -> CANCELLED transition.
func (r *Repository) MarkCancelled(ctx context.Context, orderID uuid.UUID, code, message string) error {
	now := time.Now()
	return r.transition(ctx, orderID, models.OrderStatusAccepted, map[string]any{
		"status":           models.OrderStatusCancelled,
		"response_code":    code,
		"response_message": message,
		"cancelled_at":     &now,
	})
}

// transition applies a guarded single atomic status update. A zero row count
// means the order was not in the expected state, i.e. the transition was
// already taken or never legal.
func (r *Repository) transition(ctx context.Context, orderID uuid.UUID, from models.OrderStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s is not in status %s", orderID, from)
	}
	return nil
}

// GetOrderForAdvisor loads an order owned by the advisor. Cross-advisor
// lookups report NotFound, hiding the order's existence.
func (r *Repository) GetOrderForAdvisor(ctx context.Context, advisorID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ? AND advisor_id = ?", orderID, advisorID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound.Explain("order %s not found", orderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// GetClientForAdvisor verifies the client belongs to the requesting advisor.
// NotFound also hides cross-advisor existence.
func (r *Repository) GetClientForAdvisor(ctx context.Context, advisorID, clientID uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).Where("id = ? AND advisor_id = ?", clientID, advisorID).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound.Explain("client %s not found", clientID)
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	return &client, nil
}

// GetUCC returns the client's gateway registration, or NotFound if the
// client was never registered with the gateway.
func (r *Repository) GetUCC(ctx context.Context, clientID uuid.UUID) (*models.UCCRegistration, error) {
	var ucc models.UCCRegistration
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&ucc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound.Explain("client %s has no gateway registration", clientID)
		}
		return nil, fmt.Errorf("failed to load UCC registration: %w", err)
	}
	return &ucc, nil
}

// GetMandate returns the client's mandate by id, or NotFound.
func (r *Repository) GetMandate(ctx context.Context, clientID, mandateID uuid.UUID) (*models.Mandate, error) {
	var mandate models.Mandate
	err := r.db.WithContext(ctx).Where("id = ? AND client_id = ?", mandateID, clientID).First(&mandate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound.Explain("mandate %s not found", mandateID)
		}
		return nil, fmt.Errorf("failed to load mandate: %w", err)
	}
	return &mandate, nil
}

// ListChildOrders returns the installment executions recorded for an order,
// oldest first. Read-only passthrough; child orders are produced by the
// downstream scheduler.
func (r *Repository) ListChildOrders(ctx context.Context, orderID uuid.UUID) ([]models.ChildOrder, error) {
	var children []models.ChildOrder
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("installment_no asc").
		Find(&children).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list child orders: %w", err)
	}
	return children, nil
}

// ListStuckCreated returns orders still in CREATED older than the given
// threshold, for the reconciliation sweep.
func (r *Repository) ListStuckCreated(ctx context.Context, olderThan time.Time) ([]models.Order, error) {
	var stuck []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.OrderStatusCreated, olderThan).
		Order("created_at asc").
		Find(&stuck).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck orders: %w", err)
	}
	return stuck, nil
}
