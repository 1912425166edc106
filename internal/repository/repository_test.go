package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"paybridge/config"
	"paybridge/internal/database"
	"paybridge/internal/domain"
	"paybridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openTestDB connects to the MySQL database named by TEST_DATABASE_DSN.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := database.NewDB(&config.DatabaseConfig{DSN: dsn, MaxIdleConns: 2, MaxOpenConns: 4, ConnMaxLifetime: time.Minute})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestOrderRepository_UpsertIsKeyedByOrderID(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	id := uniqueID("ORDER")

	require.NoError(t, repo.Upsert(ctx, &models.Order{
		OrderID: id, AmountMinor: 10000, Status: domain.OrderStatusPaid, Source: domain.OrderSourceVerify,
		CustomerID: "c-1", CustomerEmail: "a@example.com",
	}))
	require.NoError(t, repo.Upsert(ctx, &models.Order{
		OrderID: id, AmountMinor: 12000, Status: domain.OrderStatusPaid, Source: domain.OrderSourceManual,
	}))

	got, err := repo.GetByOrderID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), got.AmountMinor)
	assert.Equal(t, domain.OrderSourceManual, got.Source)
	assert.Equal(t, "c-1", got.CustomerID, "customer kept when the update has none")

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Where("order_id = ?", id).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestOrderRepository_List(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &models.Order{OrderID: uniqueID("LIST"), AmountMinor: 100, Status: domain.OrderStatusPending, Source: domain.OrderSourceManual}))

	list, total, err := repo.List(ctx, domain.OrderStatusPending, 10, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(1))
	assert.NotEmpty(t, list)
	for _, o := range list {
		assert.Equal(t, domain.OrderStatusPending, o.Status)
	}
}

func TestRewardRepository_AccrueOnce(t *testing.T) {
	db := openTestDB(t)
	repo := NewRewardRepository(db)
	ctx := context.Background()
	customer := uniqueID("cust")
	orderID := uniqueID("ORDER")

	require.NoError(t, repo.AccrueOnce(ctx, &models.RewardEntry{CustomerID: customer, OrderID: orderID, Points: 10, AmountMinor: 10000}))
	err := repo.AccrueOnce(ctx, &models.RewardEntry{CustomerID: customer, OrderID: orderID, Points: 10, AmountMinor: 10000})
	assert.ErrorIs(t, err, ErrAlreadyAccrued)

	require.NoError(t, repo.AccrueOnce(ctx, &models.RewardEntry{CustomerID: customer, OrderID: uniqueID("ORDER"), Points: 5, AmountMinor: 5000}))

	acct, err := repo.GetAccount(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, int64(15), acct.Points)

	entries, err := repo.ListEntries(ctx, customer, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWebhookRepository_Create(t *testing.T) {
	db := openTestDB(t)
	repo := NewWebhookRepository(db)
	e := &models.WebhookEvent{Provider: domain.ProviderPhonePe, Body: `{"event":"checkout.order.completed"}`}
	require.NoError(t, repo.Create(context.Background(), e))
	assert.NotZero(t, e.ID)
}
