package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusPaid     OrderStatus = "PAID"
	OrderStatusCanceled OrderStatus = "CANCELED"
	OrderStatusFailed   OrderStatus = "FAILED"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	Username     string    `gorm:"not null"                  json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         string    `gorm:"not null;default:user"     json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name string `gorm:"not null"                  json:"name"`
	Slug string `gorm:"uniqueIndex;not null"      json:"slug"`
}

type Product struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"                 json:"id"`
	Slug         string          `gorm:"uniqueIndex;not null"                     json:"slug"`
	Title        string          `gorm:"not null"                                 json:"title"`
	Description  string          `json:"description"`
	CategorySlug *string         `gorm:"index"                                    json:"category_slug"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null"              json:"price"`
	Stock        int             `gorm:"not null;default:0;check:stock >= 0"      json:"stock"`
	IsActive     bool            `gorm:"not null;default:true"                    json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type Order struct {
	ID               uint            `gorm:"primaryKey;autoIncrement"             json:"id"`
	UserID           uint            `gorm:"index;not null"                       json:"user_id"`
	Currency         string          `gorm:"size:10;not null"                     json:"currency"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null"          json:"total_amount"`
	PaymentReference *string         `gorm:"uniqueIndex;size:255"                 json:"payment_reference"`
	Status           OrderStatus     `gorm:"size:20;index;not null"               json:"status"`
	Metadata         JSONMap         `json:"metadata"`
	Items            []OrderItem     `gorm:"constraint:OnDelete:CASCADE"          json:"items"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"                                        json:"id"`
	OrderID     uint            `gorm:"index;not null"                                                  json:"order_id"`
	ProductSlug string          `gorm:"index;not null"                                                  json:"product_slug"`
	Product     Product         `gorm:"foreignKey:ProductSlug;references:Slug;constraint:OnDelete:RESTRICT" json:"product"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"                                     json:"unit_price"`
	Quantity    int             `gorm:"not null;check:quantity > 0"                                     json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null"                                     json:"line_total"`
}

// All lists the tables in migration order.
func All() []any {
	return []any{&User{}, &Category{}, &Product{}, &Order{}, &OrderItem{}}
}

// JSONMap stores a free-form JSON object; jsonb on postgres, text elsewhere.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("models: unsupported JSONMap source")
	}
	out := JSONMap{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return err
		}
	}
	*m = out
	return nil
}

func (JSONMap) GormDataType() string {
	return "json"
}

func (JSONMap) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "TEXT"
}
