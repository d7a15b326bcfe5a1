package service

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/shop_payments/internal/domain"
	"github.com/Skotchmaster/shop_payments/internal/models"
	"github.com/Skotchmaster/shop_payments/internal/notify"
	"github.com/Skotchmaster/shop_payments/internal/repo"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
)

const expireBatch = 100

type OrderService struct {
	Repo     *repo.GormRepo
	Notifier notify.Notifier
}

func (s *OrderService) List(ctx context.Context, userID uint, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListUserOrders(ctx, userID, offset, limit)
}

func (s *OrderService) Get(ctx context.Context, userID, id uint) (*models.Order, error) {
	o, err := s.Repo.GetUserOrder(ctx, userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// Cancel releases a PENDING order's reservation. Canceling twice is a no-op;
// canceling a paid or failed order is ErrInvalidTransition.
func (s *OrderService) Cancel(ctx context.Context, userID, id uint) (*models.Order, error) {
	o, fired, err := s.cancel(ctx, id, func(o *models.Order) bool { return o.UserID == userID })
	if err != nil {
		return nil, err
	}
	if fired {
		logging.FromContext(ctx).Info("order_canceled", "order_id", id, "user_id", userID)
		s.notifyCanceled(ctx, o)
	}
	return s.Get(ctx, userID, id)
}

func (s *OrderService) cancel(ctx context.Context, id uint, allowed func(*models.Order) bool) (*models.Order, bool, error) {
	var order *models.Order
	var fired bool

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = tx.LockOrderByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && !allowed(order)) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		if fired, err = domain.Cancel(order); err != nil || !fired {
			return err
		}

		n, err := tx.TransitionStatus(ctx, id, models.OrderStatusPending, models.OrderStatusCanceled)
		if err != nil {
			return err
		}
		if n == 0 {
			fired = false
			current, err := tx.GetOrderStatus(ctx, id)
			if err != nil {
				return err
			}
			order.Status = current
			_, err = domain.Cancel(order)
			return err
		}
		return nil
	})
	return order, fired, err
}

// ExpireStale cancels PENDING orders older than ttl and returns how many
// were canceled. Each order is canceled in its own transaction.
func (s *OrderService) ExpireStale(ctx context.Context, ttl time.Duration) (int, error) {
	l := logging.FromContext(ctx).With("svc", "order.expire")

	ids, err := s.Repo.StalePendingOrders(ctx, time.Now().Add(-ttl), expireBatch)
	if err != nil {
		return 0, err
	}

	canceled := 0
	for _, id := range ids {
		o, fired, err := s.cancel(ctx, id, func(*models.Order) bool { return true })
		if err != nil {
			// lost the race to a webhook that paid or failed it
			l.Warn("order_expire_skipped", "order_id", id, "error", err)
			continue
		}
		if fired {
			canceled++
			l.Info("order_expired", "order_id", id)
			s.notifyCanceled(ctx, o)
		}
	}
	return canceled, nil
}

// RunExpiry sweeps on every tick until ctx is done.
func (s *OrderService) RunExpiry(ctx context.Context, ttl, every time.Duration) {
	l := logging.FromContext(ctx).With("svc", "order.expire")
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.ExpireStale(ctx, ttl); err != nil && ctx.Err() == nil {
				l.Error("order_expire_failed", "error", err)
			}
		}
	}
}

func (s *OrderService) notifyCanceled(ctx context.Context, o *models.Order) {
	if s.Notifier == nil {
		return
	}
	user, err := s.Repo.GetUserByID(ctx, o.UserID)
	if err != nil {
		logging.FromContext(ctx).Error("notification_skipped", "order_id", o.ID, "reason", "user lookup failed", "error", err)
		return
	}
	s.Notifier.Notify(ctx, notify.OrderCanceled(o, user))
}
