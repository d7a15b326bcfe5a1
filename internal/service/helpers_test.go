package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_payments/internal/models"
	"github.com/Skotchmaster/shop_payments/internal/notify"
	"github.com/Skotchmaster/shop_payments/internal/payment"
	"github.com/Skotchmaster/shop_payments/internal/repo"
	"github.com/Skotchmaster/shop_payments/internal/testdb"
)

type fakeGateway struct {
	mu    sync.Mutex
	err   error
	calls []payment.InitializeRequest
}

func (g *fakeGateway) Initialize(_ context.Context, req payment.InitializeRequest) (*payment.InitializeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return &payment.InitializeResult{CheckoutURL: "https://checkout.test/" + req.TxRef, TxRef: req.TxRef}, nil
}

func (g *fakeGateway) lastRef() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[len(g.calls)-1].TxRef
}

type fixture struct {
	db       *gorm.DB
	repo     *repo.GormRepo
	gateway  *fakeGateway
	mail     *notify.Memory
	checkout *CheckoutService
	webhook  *WebhookService
	orders   *OrderService
	user     *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	r := &repo.GormRepo{DB: db}
	gw := &fakeGateway{}
	mail := &notify.Memory{}

	var seq atomic.Int64
	f := &fixture{
		db:      db,
		repo:    r,
		gateway: gw,
		mail:    mail,
		checkout: &CheckoutService{
			Repo:            r,
			Gateway:         gw,
			Notifier:        mail,
			CallbackURL:     "https://shop.test/api/payments/webhook",
			DefaultCurrency: "ETB",
			NewReference:    func() string { return fmt.Sprintf("ref-%d", seq.Add(1)) },
		},
		webhook: &WebhookService{Repo: r, Notifier: mail},
		orders:  &OrderService{Repo: r, Notifier: mail},
	}
	f.user = testdb.CreateUser(t, db, "buyer@example.com")
	return f
}
