package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_payments/pkg/metrics"
	middleware "github.com/Skotchmaster/shop_payments/pkg/middleware/auth"
)

type Deps struct {
	OrderHandler   *OrderHTTP
	PaymentHandler *PaymentHTTP
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP

	JWTSecret []byte
	DB        *gorm.DB
	Metrics   *metrics.ServerMetrics
	// RateLimit wraps checkout and webhook when set.
	RateLimit echo.MiddlewareFunc
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	authMW := middleware.NewJWTAuth(d.JWTSecret)
	limited := []echo.MiddlewareFunc{}
	if d.RateLimit != nil {
		limited = append(limited, d.RateLimit)
	}

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login, limited...)

	orders := api.Group("/orders", authMW.RequireAuth)
	orders.POST("/checkout", d.OrderHandler.CreateCheckout, limited...)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)

	api.POST("/payments/webhook", d.PaymentHandler.HandleWebhook, limited...)

	catalog := api.Group("/catalog")
	catalog.GET("/products", d.CatalogHandler.GetProducts)
	catalog.GET("/products/search", d.CatalogHandler.SearchProducts)
	catalog.GET("/products/:slug", d.CatalogHandler.GetProduct)
	catalog.GET("/categories", d.CatalogHandler.GetCategories)

	admin := catalog.Group("", authMW.RequireAdmin)
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:slug", d.CatalogHandler.PatchProduct)
	admin.DELETE("/products/:slug", d.CatalogHandler.DeleteProduct)
	admin.POST("/categories", d.CatalogHandler.CreateCategory)
}

func (d *Deps) ready(c echo.Context) error {
	if d.DB == nil {
		return c.NoContent(http.StatusOK)
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}
