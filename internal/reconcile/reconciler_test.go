package reconcile

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/finvera/wealthgate/internal/orders"
	"github.com/finvera/wealthgate/pkg/models"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []orders.OrderEvent
}

func (c *capturePublisher) Publish(ctx context.Context, event orders.OrderEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturePublisher) all() []orders.OrderEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]orders.OrderEvent{}, c.events...)
}

func newTestRepo(t *testing.T) (*orders.Repository, *gorm.DB) {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}))
	return orders.NewRepository(db), db
}

func seedOrder(t *testing.T, db *gorm.DB, status models.OrderStatus, age time.Duration) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		AdvisorID:       uuid.New(),
		ClientID:        uuid.New(),
		ReferenceNumber: "MEM001" + uuid.NewString()[:8],
		MemberID:        "MEM001",
		Type:            models.OrderTypeSIP,
		Status:          status,
		SchemeCode:      "SCH001",
		Amount:          decimal.NewFromInt(5000),
		Frequency:       models.FrequencyMonthly,
		StartDate:       time.Now(),
	}
	require.NoError(t, db.Create(order).Error)
	require.NoError(t, db.Model(order).Update("created_at", time.Now().Add(-age)).Error)
	return order
}

func TestSweepReportsStuckOrders(t *testing.T) {
	repo, db := newTestRepo(t)
	stuck := seedOrder(t, db, models.OrderStatusCreated, 2*time.Hour)
	seedOrder(t, db, models.OrderStatusCreated, time.Minute)
	seedOrder(t, db, models.OrderStatusAccepted, 2*time.Hour)

	events := &capturePublisher{}
	r := New(zap.NewNop(), repo, events, time.Minute, time.Hour)

	require.NoError(t, r.Sweep(context.Background()))

	published := events.all()
	require.Len(t, published, 1)
	assert.Equal(t, orders.EventOrderStuck, published[0].Type)
	assert.Equal(t, stuck.ID, published[0].OrderID)
	assert.Equal(t, models.OrderStatusCreated, published[0].Status)
}

func TestSweepNeverMutatesOrders(t *testing.T) {
	repo, db := newTestRepo(t)
	stuck := seedOrder(t, db, models.OrderStatusCreated, 2*time.Hour)

	r := New(zap.NewNop(), repo, &capturePublisher{}, time.Minute, time.Hour)
	require.NoError(t, r.Sweep(context.Background()))

	var got models.Order
	require.NoError(t, db.First(&got, "id = ?", stuck.ID).Error)
	assert.Equal(t, models.OrderStatusCreated, got.Status,
		"the sweep reports, it never resubmits or transitions")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo, _ := newTestRepo(t)
	r := New(zap.NewNop(), repo, &capturePublisher{}, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestDefaultsApplied(t *testing.T) {
	repo, _ := newTestRepo(t)
	r := New(zap.NewNop(), repo, nil, 0, 0)
	assert.Equal(t, 15*time.Minute, r.interval)
	assert.Equal(t, time.Hour, r.threshold)
	assert.NotNil(t, r.events)
}
