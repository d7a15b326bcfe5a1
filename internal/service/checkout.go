package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shop_payments/internal/domain"
	"github.com/Skotchmaster/shop_payments/internal/inventory"
	"github.com/Skotchmaster/shop_payments/internal/models"
	"github.com/Skotchmaster/shop_payments/internal/notify"
	"github.com/Skotchmaster/shop_payments/internal/payment"
	"github.com/Skotchmaster/shop_payments/internal/repo"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
	"github.com/Skotchmaster/shop_payments/pkg/metrics"
)

type CheckoutInput struct {
	Items    []domain.Line
	Currency string
	Metadata models.JSONMap
}

type CheckoutResult struct {
	OrderID     uint
	CheckoutURL string
	Amount      decimal.Decimal
	Currency    string
	Status      models.OrderStatus
}

type CheckoutService struct {
	Repo     *repo.GormRepo
	Gateway  payment.Gateway
	Notifier notify.Notifier
	Metrics  *metrics.ServerMetrics

	CallbackURL     string
	ReturnURL       string
	DefaultCurrency string

	// NewReference generates payment references; uuid v4 when nil.
	NewReference func() string
}

// Checkout prices the cart against locked product rows, creates a PENDING
// order and opens a gateway session, all in one transaction. On any error
// nothing is persisted.
func (s *CheckoutService) Checkout(ctx context.Context, user *models.User, in CheckoutInput) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("svc", "checkout", "user_id", user.ID)

	lines, err := domain.NormalizeLines(in.Items)
	if err != nil {
		s.Metrics.CheckoutOutcome("invalid")
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.DefaultCurrency
	}
	if !domain.ValidCurrency(currency) {
		s.Metrics.CheckoutOutcome("invalid")
		return nil, fmt.Errorf("%w: currency %q", ErrValidation, in.Currency)
	}

	var order *models.Order
	var checkoutURL string

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order = domain.NewOrder(user.ID, currency, in.Metadata)
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		ledger := inventory.New(tx.DB)
		for _, line := range lines {
			product, err := ledger.ReserveCheck(ctx, line.ProductSlug, line.Quantity)
			if err != nil {
				return err
			}
			domain.AddItem(order, product, line.Quantity)
		}

		if err := tx.CreateOrderItems(ctx, order.Items); err != nil {
			return fmt.Errorf("create items: %w", err)
		}
		if err := tx.UpdateOrderTotal(ctx, order); err != nil {
			return fmt.Errorf("update total: %w", err)
		}

		ref := s.reference()
		res, err := s.Gateway.Initialize(ctx, payment.InitializeRequest{
			Amount:   order.TotalAmount,
			Currency: currency,
			Customer: payment.Customer{
				Email:     user.Email,
				FirstName: user.FirstName,
				LastName:  user.LastName,
			},
			TxRef:       ref,
			CallbackURL: s.CallbackURL,
			ReturnURL:   s.ReturnURL,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPaymentGateway, err)
		}

		if err := tx.SetPaymentReference(ctx, order.ID, ref); err != nil {
			return fmt.Errorf("set payment reference: %w", err)
		}
		order.PaymentReference = &ref
		checkoutURL = res.CheckoutURL
		return nil
	})
	if err != nil {
		var pe *inventory.ProductError
		switch {
		case errors.As(err, &pe):
			s.Metrics.CheckoutOutcome("rejected")
			l.Warn("checkout_rejected", "product_slug", pe.Slug, "requested", pe.Requested, "available", pe.Available, "error", err)
		case errors.Is(err, ErrPaymentGateway):
			s.Metrics.CheckoutOutcome("gateway_error")
			l.Error("checkout_gateway_failed", "error", err)
		default:
			s.Metrics.CheckoutOutcome("error")
			l.Error("checkout_failed", "error", err)
		}
		return nil, err
	}

	s.Metrics.CheckoutOutcome("ok")
	l.Info("checkout_success", "order_id", order.ID, "amount", order.TotalAmount.StringFixed(2), "currency", currency)

	if s.Notifier != nil {
		s.Notifier.Notify(ctx, notify.OrderCreated(order, user))
	}

	return &CheckoutResult{
		OrderID:     order.ID,
		CheckoutURL: checkoutURL,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Status:      order.Status,
	}, nil
}

func (s *CheckoutService) reference() string {
	if s.NewReference != nil {
		return s.NewReference()
	}
	return uuid.NewString()
}
