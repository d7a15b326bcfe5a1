package testdb

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_payments/internal/models"
)

func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{
		Email:        email,
		Username:     email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
		Role:         models.RoleUser,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateProduct(t *testing.T, db *gorm.DB, slug, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Slug:     slug,
		Title:    slug,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func Stock(t *testing.T, db *gorm.DB, slug string) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.Where("slug = ?", slug).First(&p).Error)
	return p.Stock
}

func CountOrders(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	return n
}
