package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_payments/internal/models"
	"github.com/Skotchmaster/shop_payments/internal/testdb"
)

func pendingOrder(t *testing.T, l *Ledger, userID uint, slug string, qty int) {
	t.Helper()
	o := &models.Order{UserID: userID, Currency: "ETB", TotalAmount: decimal.Zero, Status: models.OrderStatusPending}
	require.NoError(t, l.DB.Create(o).Error)
	require.NoError(t, l.DB.Create(&models.OrderItem{
		OrderID: o.ID, ProductSlug: slug, UnitPrice: decimal.NewFromInt(1), Quantity: qty, LineTotal: decimal.NewFromInt(int64(qty)),
	}).Error)
}

func TestReserveCheck(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	l := New(db)

	testdb.CreateProduct(t, db, "book-1", "10.00", 5)
	off := testdb.CreateProduct(t, db, "old", "1.00", 5)
	require.NoError(t, db.Model(off).Update("is_active", false).Error)

	p, err := l.ReserveCheck(ctx, "book-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	_, err = l.ReserveCheck(ctx, "book-1", 6)
	var pe *ProductError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "book-1", pe.Slug)
	assert.Equal(t, 6, pe.Requested)
	assert.Equal(t, 5, pe.Available)

	_, err = l.ReserveCheck(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = l.ReserveCheck(ctx, "old", 1)
	assert.ErrorIs(t, err, ErrProductInactive)

	assert.Equal(t, 5, testdb.Stock(t, db, "book-1"))
}

func TestReserveCheck_CountsPendingOrders(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	l := New(db)

	u := testdb.CreateUser(t, db, "a@example.com")
	testdb.CreateProduct(t, db, "book-1", "10.00", 5)
	pendingOrder(t, l, u.ID, "book-1", 3)

	reserved, err := l.Reserved(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 3, reserved)

	_, err = l.ReserveCheck(ctx, "book-1", 2)
	require.NoError(t, err)

	_, err = l.ReserveCheck(ctx, "book-1", 3)
	var pe *ProductError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Available)

	require.NoError(t, db.Model(&models.Order{}).Where("1 = 1").Update("status", models.OrderStatusFailed).Error)
	_, err = l.ReserveCheck(ctx, "book-1", 5)
	assert.NoError(t, err)
}

func TestSettleDecrement(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	l := New(db)

	testdb.CreateProduct(t, db, "book-1", "10.00", 5)

	require.NoError(t, l.SettleDecrement(ctx, "book-1", 3))
	assert.Equal(t, 2, testdb.Stock(t, db, "book-1"))

	err := l.SettleDecrement(ctx, "book-1", 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, testdb.Stock(t, db, "book-1"))
}
