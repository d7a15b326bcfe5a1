package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/shop_payments/internal/models"
	"github.com/Skotchmaster/shop_payments/pkg/metrics"
)

type flakySender struct {
	calls atomic.Int32
	inner Memory
}

func (f *flakySender) Send(ctx context.Context, msg Message) error {
	if f.calls.Add(1) == 1 {
		return errors.New("smtp down")
	}
	return f.inner.Send(ctx, msg)
}

func TestDispatcher_DeliversAllOnClose(t *testing.T) {
	mem := &Memory{}
	d := NewDispatcher(mem, 3, 16, nil)
	d.Start(context.Background())

	for i := 1; i <= 10; i++ {
		d.Notify(context.Background(), Message{Kind: KindOrderCreated, OrderID: uint(i)})
	}
	d.Close()

	assert.Equal(t, 10, mem.Count(KindOrderCreated))
}

func TestDispatcher_FailureIsCountedNotRetried(t *testing.T) {
	m := metrics.NewServerMetrics("test")
	s := &flakySender{}
	d := NewDispatcher(s, 1, 4, m)
	d.Start(context.Background())

	d.Notify(context.Background(), Message{Kind: KindPaymentSucceeded, OrderID: 1})
	d.Notify(context.Background(), Message{Kind: KindPaymentSucceeded, OrderID: 2})
	d.Close()

	assert.Len(t, s.inner.Messages(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("payment_succeeded", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("payment_succeeded", "sent")))
}

func TestDispatcher_NotifyAfterCloseDrops(t *testing.T) {
	mem := &Memory{}
	d := NewDispatcher(mem, 1, 1, nil)
	d.Start(context.Background())
	d.Close()

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), Message{Kind: KindOrderCreated})
	})
	assert.Empty(t, mem.Messages())
}

func TestMessages_Content(t *testing.T) {
	o := &models.Order{ID: 7, Currency: "ETB", TotalAmount: decimal.RequireFromString("30")}
	u := &models.User{Email: "buyer@example.com", Username: "buyer"}

	created := OrderCreated(o, u)
	assert.Equal(t, "Order #7 Created", created.Subject)
	assert.Contains(t, created.Body, "Total: 30.00 ETB")
	assert.Equal(t, "buyer@example.com", created.To)

	assert.Equal(t, "Order #7 Paid", PaymentSucceeded(o, u).Subject)
	assert.Equal(t, "Order #7 Payment Failed", PaymentFailed(o, u).Subject)
	assert.Equal(t, KindOrderCanceled, OrderCanceled(o, u).Kind)
}
