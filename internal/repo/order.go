package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shop_payments/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *GormRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *GormRepo) UpdateOrderTotal(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Model(order).Update("total_amount", order.TotalAmount).Error
}

func (r *GormRepo) SetPaymentReference(ctx context.Context, orderID uint, ref string) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_reference IS NULL", orderID).
		Update("payment_reference", ref)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) lockOrder(ctx context.Context, where string, arg any) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(where, arg).
		First(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// LockOrderByReference selects the order FOR UPDATE so concurrent webhook
// deliveries for one reference run one after another.
func (r *GormRepo) LockOrderByReference(ctx context.Context, ref string) (*models.Order, error) {
	return r.lockOrder(ctx, "payment_reference = ?", ref)
}

func (r *GormRepo) LockOrderByID(ctx context.Context, id uint) (*models.Order, error) {
	return r.lockOrder(ctx, "id = ?", id)
}

// TransitionStatus moves an order out of from. Zero affected rows means
// another writer already moved it.
func (r *GormRepo) TransitionStatus(ctx context.Context, id uint, from, to models.OrderStatus) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *GormRepo) GetOrderStatus(ctx context.Context, id uint) (models.OrderStatus, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Select("id", "status").First(&o, id).Error; err != nil {
		return "", notFound(err)
	}
	return o.Status, nil
}

func (r *GormRepo) OrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("product_slug ASC").
		Find(&items).Error
	return items, err
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_slug ASC") }).
		Preload("Items.Product")
}

func (r *GormRepo) GetUserOrder(ctx context.Context, userID, id uint) (*models.Order, error) {
	var o models.Order
	err := withItems(r.DB.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *GormRepo) ListUserOrders(ctx context.Context, userID uint, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	err := withItems(r.DB.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// StalePendingOrders returns ids of PENDING orders created before cutoff.
func (r *GormRepo) StalePendingOrders(ctx context.Context, cutoff time.Time, limit int) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ? AND created_at < ?", models.OrderStatusPending, cutoff).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
