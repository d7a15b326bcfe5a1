package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/shop_payments/internal/domain"
	"github.com/Skotchmaster/shop_payments/internal/inventory"
	"github.com/Skotchmaster/shop_payments/internal/models"
	"github.com/Skotchmaster/shop_payments/internal/notify"
	"github.com/Skotchmaster/shop_payments/internal/repo"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
	"github.com/Skotchmaster/shop_payments/pkg/metrics"
)

const (
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

type ReconcileResult struct {
	OrderID uint
	Status  models.OrderStatus
	// Applied is false when the delivery repeated a state already reached.
	Applied bool
}

type WebhookService struct {
	Repo     *repo.GormRepo
	Notifier notify.Notifier
	Metrics  *metrics.ServerMetrics
}

// Handle applies a gateway status report to the order holding txRef. Each
// terminal transition fires at most once no matter how often or how
// concurrently the gateway repeats itself.
func (s *WebhookService) Handle(ctx context.Context, txRef, status string) (*ReconcileResult, error) {
	l := logging.FromContext(ctx).With("svc", "webhook", "tx_ref", txRef, "payment_status", status)

	normalized := strings.ToLower(strings.TrimSpace(status))
	label := statusLabel(normalized)

	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		s.Metrics.WebhookOutcome(label, "missing_ref")
		return nil, ErrMissingReference
	}

	var result ReconcileResult
	var order *models.Order

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = tx.LockOrderByReference(ctx, txRef)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		result.OrderID = order.ID

		var target models.OrderStatus
		switch normalized {
		case PaymentStatusSuccess:
			target = models.OrderStatusPaid
		case PaymentStatusFailed:
			target = models.OrderStatusFailed
		default:
			return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
		}

		from := order.Status
		fired, err := domain.Transition(order, target)
		if err != nil {
			return err
		}
		result.Status = order.Status
		if !fired {
			return nil
		}

		n, err := tx.TransitionStatus(ctx, order.ID, from, target)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if n == 0 {
			// another delivery won; re-evaluate against what it wrote
			current, err := tx.GetOrderStatus(ctx, order.ID)
			if err != nil {
				return err
			}
			order.Status = current
			if fired, err = domain.Transition(order, target); err != nil {
				return err
			}
			if fired {
				return fmt.Errorf("order %d changed concurrently", order.ID)
			}
			result.Status = order.Status
			return nil
		}

		if target == models.OrderStatusPaid {
			items, err := tx.OrderItems(ctx, order.ID)
			if err != nil {
				return err
			}
			ledger := inventory.New(tx.DB)
			for _, it := range items {
				if err := ledger.SettleDecrement(ctx, it.ProductSlug, it.Quantity); err != nil {
					return fmt.Errorf("settle %s: %w", it.ProductSlug, err)
				}
			}
		}

		result.Applied = true
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			s.Metrics.WebhookOutcome(label, "not_found")
			l.Warn("webhook_rejected", "reason", "order not found")
		case errors.Is(err, ErrUnknownStatus):
			s.Metrics.WebhookOutcome(label, "unknown_status")
			l.Warn("webhook_rejected", "reason", "unknown status")
		case errors.Is(err, domain.ErrInvalidTransition) && normalized == PaymentStatusSuccess &&
			order != nil && order.Status == models.OrderStatusCanceled:
			// money was captured for an order the buyer or the sweeper canceled
			s.Metrics.WebhookOutcome(label, "paid_after_cancel")
			l.Error("paid_after_cancel", "order_id", result.OrderID, "user_id", order.UserID,
				"amount", order.TotalAmount.StringFixed(2), "currency", order.Currency, "error", err)
		case errors.Is(err, domain.ErrInvalidTransition):
			s.Metrics.WebhookOutcome(label, "invalid_transition")
			l.Error("webhook_conflict", "order_id", result.OrderID, "error", err)
		default:
			s.Metrics.WebhookOutcome(label, "error")
			l.Error("webhook_failed", "error", err)
		}
		return nil, err
	}

	if !result.Applied {
		s.Metrics.WebhookOutcome(label, "duplicate")
		l.Info("webhook_duplicate", "order_id", result.OrderID, "status", result.Status)
		return &result, nil
	}

	s.Metrics.WebhookOutcome(label, "applied")
	l.Info("webhook_applied", "order_id", result.OrderID, "status", result.Status)
	s.notifyOwner(ctx, order, result.Status)
	return &result, nil
}

// statusLabel keeps the metric label set closed; the status comes from an
// unauthenticated caller.
func statusLabel(normalized string) string {
	switch normalized {
	case PaymentStatusSuccess, PaymentStatusFailed:
		return normalized
	default:
		return "other"
	}
}

func (s *WebhookService) notifyOwner(ctx context.Context, order *models.Order, status models.OrderStatus) {
	if s.Notifier == nil {
		return
	}
	user, err := s.Repo.GetUserByID(ctx, order.UserID)
	if err != nil {
		logging.FromContext(ctx).Error("notification_skipped", "order_id", order.ID, "reason", "user lookup failed", "error", err)
		return
	}
	switch status {
	case models.OrderStatusPaid:
		s.Notifier.Notify(ctx, notify.PaymentSucceeded(order, user))
	case models.OrderStatusFailed:
		s.Notifier.Notify(ctx, notify.PaymentFailed(order, user))
	}
}
