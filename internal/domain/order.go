package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shop_payments/internal/models"
)

// MaxLineQuantity caps a merged line so quantity sums stay well inside int
// and the integer column.
const MaxLineQuantity = math.MaxInt32

// Line is one requested cart entry before it is priced.
type Line struct {
	ProductSlug string
	Quantity    int
}

// NormalizeLines merges duplicate slugs and sorts by slug so every caller
// takes product locks in the same order.
func NormalizeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	merged := make(map[string]int, len(lines))
	for _, l := range lines {
		slug := strings.TrimSpace(l.ProductSlug)
		if slug == "" {
			return nil, fmt.Errorf("%w: product_slug required", ErrInvalidQuantity)
		}
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for %s must be > 0", ErrInvalidQuantity, slug)
		}
		if l.Quantity > MaxLineQuantity-merged[slug] {
			return nil, fmt.Errorf("%w: quantity for %s exceeds %d", ErrInvalidQuantity, slug, MaxLineQuantity)
		}
		merged[slug] += l.Quantity
	}

	out := make([]Line, 0, len(merged))
	for slug, qty := range merged {
		out = append(out, Line{ProductSlug: slug, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductSlug < out[j].ProductSlug })
	return out, nil
}

func NewOrder(userID uint, currency string, metadata models.JSONMap) *models.Order {
	if metadata == nil {
		metadata = models.JSONMap{}
	}
	return &models.Order{
		UserID:      userID,
		Currency:    currency,
		TotalAmount: decimal.Zero,
		Status:      models.OrderStatusPending,
		Metadata:    metadata,
	}
}

// AddItem snapshots the product price onto a new line and adds the line
// total to the order.
func AddItem(order *models.Order, product *models.Product, qty int) models.OrderItem {
	unit := product.Price.Round(2)
	lineTotal := unit.Mul(decimal.NewFromInt(int64(qty))).Round(2)

	item := models.OrderItem{
		OrderID:     order.ID,
		ProductSlug: product.Slug,
		UnitPrice:   unit,
		Quantity:    qty,
		LineTotal:   lineTotal,
	}
	order.TotalAmount = order.TotalAmount.Add(lineTotal)
	order.Items = append(order.Items, item)
	return item
}

// MarkPaid reports fired=true only on the PENDING to PAID edge.
func MarkPaid(order *models.Order) (bool, error) {
	switch order.Status {
	case models.OrderStatusPending:
		order.Status = models.OrderStatusPaid
		return true, nil
	case models.OrderStatusPaid:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, models.OrderStatusPaid)
	}
}

func MarkFailed(order *models.Order) (bool, error) {
	switch order.Status {
	case models.OrderStatusPending:
		order.Status = models.OrderStatusFailed
		return true, nil
	case models.OrderStatusFailed:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, models.OrderStatusFailed)
	}
}

func Cancel(order *models.Order) (bool, error) {
	switch order.Status {
	case models.OrderStatusPending:
		order.Status = models.OrderStatusCanceled
		return true, nil
	case models.OrderStatusCanceled:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, models.OrderStatusCanceled)
	}
}

// Transition applies the named target status.
func Transition(order *models.Order, to models.OrderStatus) (bool, error) {
	switch to {
	case models.OrderStatusPaid:
		return MarkPaid(order)
	case models.OrderStatusFailed:
		return MarkFailed(order)
	case models.OrderStatusCanceled:
		return Cancel(order)
	default:
		return false, fmt.Errorf("%w: unknown target %s", ErrInvalidTransition, to)
	}
}

// ValidCurrency accepts three-letter alphabetic codes.
func ValidCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
