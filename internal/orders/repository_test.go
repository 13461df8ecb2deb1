package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/finvera/wealthgate/pkg/errors"
	"github.com/finvera/wealthgate/pkg/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Order{},
		&models.ChildOrder{},
		&models.Client{},
		&models.UCCRegistration{},
		&models.Mandate{},
		&models.AdvisorCredential{},
	))
	return db
}

func newOrder(advisorID, clientID uuid.UUID) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		AdvisorID:       advisorID,
		ClientID:        clientID,
		ReferenceNumber: "MEM001" + uuid.NewString()[:8],
		MemberID:        "MEM001",
		Type:            models.OrderTypeSIP,
		Status:          models.OrderStatusCreated,
		SchemeCode:      "SCH001",
		Amount:          decimal.NewFromInt(5000),
		Frequency:       models.FrequencyMonthly,
		StartDate:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestOrderTransitions(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	advisorID, clientID := uuid.New(), uuid.New()

	t.Run("AcceptedExactlyOnce", func(t *testing.T) {
		order := newOrder(advisorID, clientID)
		require.NoError(t, repo.CreateOrder(ctx, order))

		require.NoError(t, repo.MarkAccepted(ctx, order.ID, "REG98765", "100", "OK"))

		var got models.Order
		require.NoError(t, db.First(&got, "id = ?", order.ID).Error)
		assert.Equal(t, models.OrderStatusAccepted, got.Status)
		assert.Equal(t, "REG98765", got.GatewayRegistrationNo)
		assert.NotNil(t, got.SubmittedAt)

		// The transition is guarded; a second attempt is rejected.
		assert.Error(t, repo.MarkAccepted(ctx, order.ID, "REG-OTHER", "100", "OK"))
		require.NoError(t, db.First(&got, "id = ?", order.ID).Error)
		assert.Equal(t, "REG98765", got.GatewayRegistrationNo)
	})

	t.Run("RejectedKeepsGatewayCodeVerbatim", func(t *testing.T) {
		order := newOrder(advisorID, clientID)
		require.NoError(t, repo.CreateOrder(ctx, order))

		require.NoError(t, repo.MarkRejected(ctx, order.ID, "101", "INVALID CLIENT CODE"))

		var got models.Order
		require.NoError(t, db.First(&got, "id = ?", order.ID).Error)
		assert.Equal(t, models.OrderStatusRejected, got.Status)
		assert.Equal(t, "101", got.ResponseCode)
		assert.Equal(t, "INVALID CLIENT CODE", got.ResponseMessage)

		// No path from REJECTED to anywhere.
		assert.Error(t, repo.MarkAccepted(ctx, order.ID, "REG1", "100", "OK"))
		assert.Error(t, repo.MarkCancelled(ctx, order.ID, "100", "CXL"))
	})

	t.Run("CancelledOnlyFromAccepted", func(t *testing.T) {
		order := newOrder(advisorID, clientID)
		require.NoError(t, repo.CreateOrder(ctx, order))

		assert.Error(t, repo.MarkCancelled(ctx, order.ID, "100", "CXL"),
			"CREATED order cannot be cancelled")

		require.NoError(t, repo.MarkAccepted(ctx, order.ID, "REG1", "100", "OK"))
		require.NoError(t, repo.MarkCancelled(ctx, order.ID, "100", "CANCELLED"))

		var got models.Order
		require.NoError(t, db.First(&got, "id = ?", order.ID).Error)
		assert.Equal(t, models.OrderStatusCancelled, got.Status)
		assert.NotNil(t, got.CancelledAt)

		assert.Error(t, repo.MarkCancelled(ctx, order.ID, "100", "CXL"),
			"CANCELLED is terminal")
	})
}

func TestOwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner, stranger := uuid.New(), uuid.New()
	client := &models.Client{ID: uuid.New(), AdvisorID: owner, Name: "R. Mehta"}
	require.NoError(t, db.Create(client).Error)
	order := newOrder(owner, client.ID)
	require.NoError(t, repo.CreateOrder(ctx, order))

	t.Run("OwnerSeesOrder", func(t *testing.T) {
		got, err := repo.GetOrderForAdvisor(ctx, owner, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	})

	t.Run("CrossAdvisorLookupIsNotFound", func(t *testing.T) {
		_, err := repo.GetOrderForAdvisor(ctx, stranger, order.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.NotFound))

		_, err = repo.GetClientForAdvisor(ctx, stranger, client.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.NotFound))
	})

	t.Run("MissingUCCIsNotFound", func(t *testing.T) {
		_, err := repo.GetUCC(ctx, client.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.NotFound))
	})
}

func TestListStuckCreated(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	advisorID, clientID := uuid.New(), uuid.New()

	old := newOrder(advisorID, clientID)
	require.NoError(t, repo.CreateOrder(ctx, old))
	require.NoError(t, db.Model(old).Update("created_at", time.Now().Add(-2*time.Hour)).Error)

	fresh := newOrder(advisorID, clientID)
	require.NoError(t, repo.CreateOrder(ctx, fresh))

	accepted := newOrder(advisorID, clientID)
	require.NoError(t, repo.CreateOrder(ctx, accepted))
	require.NoError(t, db.Model(accepted).Update("created_at", time.Now().Add(-2*time.Hour)).Error)
	require.NoError(t, repo.MarkAccepted(ctx, accepted.ID, "REG1", "100", "OK"))

	stuck, err := repo.ListStuckCreated(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, old.ID, stuck[0].ID)
}

func TestListChildOrders(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	for _, n := range []int{3, 1, 2} {
		require.NoError(t, db.Create(&models.ChildOrder{
			ID:            uuid.New(),
			OrderID:       orderID,
			InstallmentNo: n,
			Amount:        decimal.NewFromInt(5000),
			Status:        "EXECUTED",
		}).Error)
	}

	children, err := repo.ListChildOrders(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, 1, children[0].InstallmentNo)
	assert.Equal(t, 3, children[2].InstallmentNo)
}
