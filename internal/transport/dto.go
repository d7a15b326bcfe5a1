package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shop_payments/internal/models"
)

type CheckoutItem struct {
	ProductSlug string `json:"product_slug"`
	Quantity    int    `json:"quantity"`
}

type CheckoutRequest struct {
	Items    []CheckoutItem `json:"items"`
	Currency string         `json:"currency"`
	Metadata map[string]any `json:"metadata"`
}

type CheckoutResponse struct {
	OrderID     uint   `json:"order_id"`
	CheckoutURL string `json:"checkout_url"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// WebhookRequest accepts both tx_ref and trx_ref; the gateway uses either
// depending on the event.
type WebhookRequest struct {
	TxRef  string `json:"tx_ref"`
	TrxRef string `json:"trx_ref"`
	Status string `json:"status"`
}

func (r WebhookRequest) Reference() string {
	if r.TxRef != "" {
		return r.TxRef
	}
	return r.TrxRef
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message     string `json:"message"`
	Code        string `json:"code"`
	ProductSlug string `json:"product_slug,omitempty"`
	Requested   int    `json:"requested,omitempty"`
	Available   *int   `json:"available,omitempty"`
}

type Product struct {
	ID           uint      `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CategorySlug *string   `json:"category_slug"`
	Price        string    `json:"price"`
	Stock        int       `json:"stock"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ProductFromModel(p *models.Product) Product {
	return Product{
		ID:           p.ID,
		Slug:         p.Slug,
		Title:        p.Title,
		Description:  p.Description,
		CategorySlug: p.CategorySlug,
		Price:        p.Price.StringFixed(2),
		Stock:        p.Stock,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func ProductsFromModels(ps []models.Product) []Product {
	out := make([]Product, 0, len(ps))
	for i := range ps {
		out = append(out, ProductFromModel(&ps[i]))
	}
	return out
}

type OrderItem struct {
	ID          uint    `json:"id"`
	ProductSlug string  `json:"product_slug"`
	Product     Product `json:"product"`
	UnitPrice   string  `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	LineTotal   string  `json:"line_total"`
}

type Order struct {
	ID               uint           `json:"id"`
	UserID           uint           `json:"user"`
	Items            []OrderItem    `json:"items"`
	TotalAmount      string         `json:"total_amount"`
	Currency         string         `json:"currency"`
	Status           string         `json:"status"`
	PaymentReference *string        `json:"payment_reference"`
	Metadata         map[string]any `json:"metadata"`
	CreatedAt        time.Time      `json:"created_at"`
}

func OrderFromModel(o *models.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for i := range o.Items {
		it := &o.Items[i]
		items = append(items, OrderItem{
			ID:          it.ID,
			ProductSlug: it.ProductSlug,
			Product:     ProductFromModel(&it.Product),
			UnitPrice:   it.UnitPrice.StringFixed(2),
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal.StringFixed(2),
		})
	}
	return Order{
		ID:               o.ID,
		UserID:           o.UserID,
		Items:            items,
		TotalAmount:      o.TotalAmount.StringFixed(2),
		Currency:         o.Currency,
		Status:           string(o.Status),
		PaymentReference: o.PaymentReference,
		Metadata:         o.Metadata,
		CreatedAt:        o.CreatedAt,
	}
}

func OrdersFromModels(orders []models.Order) []Order {
	out := make([]Order, 0, len(orders))
	for i := range orders {
		out = append(out, OrderFromModel(&orders[i]))
	}
	return out
}

type Page struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func NewPage(page, offset, limit int, total int64) Page {
	return Page{
		Page:       page,
		Size:       limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
		HasPrev:    page > 1,
		HasNext:    int64(offset+limit) < total,
	}
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
}

type User struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func UserFromModel(u *models.User) User {
	return User{ID: u.ID, Email: u.Email, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role}
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CreateProductRequest struct {
	Slug         string          `json:"slug"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	CategorySlug *string         `json:"category_slug"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	IsActive     *bool           `json:"is_active"`
}

type PatchProductRequest struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	CategorySlug *string          `json:"category_slug"`
	Price        *decimal.Decimal `json:"price"`
	Stock        *int             `json:"stock"`
	IsActive     *bool            `json:"is_active"`
}
