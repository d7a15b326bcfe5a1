package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_payments/internal/models"
)

func TestNormalizeLines(t *testing.T) {
	_, err := NormalizeLines(nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = NormalizeLines([]Line{{ProductSlug: "book-1", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NormalizeLines([]Line{{ProductSlug: "book-1", Quantity: -2}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NormalizeLines([]Line{{ProductSlug: " ", Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NormalizeLines([]Line{{ProductSlug: "book-1", Quantity: math.MaxInt}, {ProductSlug: "book-1", Quantity: math.MaxInt}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NormalizeLines([]Line{{ProductSlug: "book-1", Quantity: MaxLineQuantity}, {ProductSlug: "book-1", Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	got, err := NormalizeLines([]Line{{ProductSlug: "book-1", Quantity: MaxLineQuantity - 1}, {ProductSlug: "book-1", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, []Line{{"book-1", MaxLineQuantity}}, got)

	got, err = NormalizeLines([]Line{
		{ProductSlug: "pen", Quantity: 1},
		{ProductSlug: "book-1", Quantity: 2},
		{ProductSlug: "pen", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []Line{{"book-1", 2}, {"pen", 4}}, got)
}

func TestAddItem_TotalsMatchLines(t *testing.T) {
	o := NewOrder(1, "ETB", nil)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.True(t, o.TotalAmount.IsZero())

	book := &models.Product{Slug: "book-1", Price: decimal.RequireFromString("10.00")}
	pen := &models.Product{Slug: "pen", Price: decimal.RequireFromString("0.35")}

	it := AddItem(o, book, 3)
	assert.Equal(t, "30.00", it.LineTotal.StringFixed(2))
	assert.Equal(t, "10.00", it.UnitPrice.StringFixed(2))

	AddItem(o, pen, 3)
	assert.Equal(t, "31.05", o.TotalAmount.StringFixed(2))

	sum := decimal.Zero
	for _, i := range o.Items {
		sum = sum.Add(i.LineTotal)
	}
	assert.True(t, sum.Equal(o.TotalAmount))
}

func TestAddItem_PriceIsSnapshot(t *testing.T) {
	o := NewOrder(1, "ETB", nil)
	p := &models.Product{Slug: "book-1", Price: decimal.RequireFromString("10.00")}
	it := AddItem(o, p, 1)

	p.Price = decimal.RequireFromString("99.00")
	assert.Equal(t, "10.00", it.UnitPrice.StringFixed(2))
}

func TestStateMachine(t *testing.T) {
	cases := []struct {
		name  string
		from  models.OrderStatus
		apply func(*models.Order) (bool, error)
		to    models.OrderStatus
		fired bool
		err   bool
	}{
		{"pending to paid", models.OrderStatusPending, MarkPaid, models.OrderStatusPaid, true, false},
		{"paid again is noop", models.OrderStatusPaid, MarkPaid, models.OrderStatusPaid, false, false},
		{"failed cannot be paid", models.OrderStatusFailed, MarkPaid, models.OrderStatusFailed, false, true},
		{"canceled cannot be paid", models.OrderStatusCanceled, MarkPaid, models.OrderStatusCanceled, false, true},
		{"pending to failed", models.OrderStatusPending, MarkFailed, models.OrderStatusFailed, true, false},
		{"failed again is noop", models.OrderStatusFailed, MarkFailed, models.OrderStatusFailed, false, false},
		{"paid never fails", models.OrderStatusPaid, MarkFailed, models.OrderStatusPaid, false, true},
		{"pending to canceled", models.OrderStatusPending, Cancel, models.OrderStatusCanceled, true, false},
		{"canceled again is noop", models.OrderStatusCanceled, Cancel, models.OrderStatusCanceled, false, false},
		{"paid cannot cancel", models.OrderStatusPaid, Cancel, models.OrderStatusPaid, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := &models.Order{Status: tc.from}
			fired, err := tc.apply(o)
			if tc.err {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.fired, fired)
			assert.Equal(t, tc.to, o.Status)
		})
	}
}

func TestTransition_UnknownTarget(t *testing.T) {
	o := &models.Order{Status: models.OrderStatusPending}
	_, err := Transition(o, models.OrderStatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestValidCurrency(t *testing.T) {
	assert.True(t, ValidCurrency("ETB"))
	assert.True(t, ValidCurrency("usd"))
	assert.False(t, ValidCurrency("EU"))
	assert.False(t, ValidCurrency("E1B"))
}
