package inventory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shop_payments/internal/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product inactive")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductError ties a ledger failure to the product that caused it.
type ProductError struct {
	Slug      string
	Requested int
	Available int
	Err       error
}

func (e *ProductError) Error() string {
	if errors.Is(e.Err, ErrInsufficientStock) {
		return fmt.Sprintf("%s: %s (requested %d, available %d)", e.Err, e.Slug, e.Requested, e.Available)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Slug)
}

func (e *ProductError) Unwrap() error { return e.Err }

// Ledger reads and settles stock. It must be built on the transaction the
// caller wants the locks to live in.
type Ledger struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// ReserveCheck locks the product row and verifies that qty units are free
// once pending orders are accounted for. Stock is not modified.
func (l *Ledger) ReserveCheck(ctx context.Context, slug string, qty int) (*models.Product, error) {
	p, err := l.Lock(ctx, slug)
	if err != nil {
		var pe *ProductError
		if errors.As(err, &pe) {
			pe.Requested = qty
		}
		return nil, err
	}

	if !p.IsActive {
		return nil, &ProductError{Slug: slug, Requested: qty, Err: ErrProductInactive}
	}

	reserved, err := l.Reserved(ctx, slug)
	if err != nil {
		return nil, err
	}

	available := p.Stock - reserved
	if available < 0 {
		available = 0
	}
	if available < qty {
		return nil, &ProductError{Slug: slug, Requested: qty, Available: available, Err: ErrInsufficientStock}
	}
	return p, nil
}

// Lock selects the product row FOR UPDATE; the lock lasts until the
// enclosing transaction ends.
func (l *Ledger) Lock(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	err := l.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("slug = ?", slug).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ProductError{Slug: slug, Err: ErrProductNotFound}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Reserved sums the quantities held by PENDING orders for slug.
func (l *Ledger) Reserved(ctx context.Context, slug string) (int, error) {
	var n int64
	err := l.DB.WithContext(ctx).
		Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_slug = ? AND orders.status = ?", slug, models.OrderStatusPending).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Scan(&n).Error
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Available is stock minus pending reservations, without locking.
func (l *Ledger) Available(ctx context.Context, p *models.Product) (int, error) {
	reserved, err := l.Reserved(ctx, p.Slug)
	if err != nil {
		return 0, err
	}
	return p.Stock - reserved, nil
}

// SettleDecrement permanently removes qty units. The guard keeps stock from
// going negative even if the reservation accounting was bypassed.
func (l *Ledger) SettleDecrement(ctx context.Context, slug string, qty int) error {
	res := l.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("slug = ? AND stock >= ?", slug, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &ProductError{Slug: slug, Requested: qty, Err: ErrInsufficientStock}
	}
	return nil
}
