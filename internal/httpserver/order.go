package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_payments/internal/domain"
	"github.com/Skotchmaster/shop_payments/internal/service"
	"github.com/Skotchmaster/shop_payments/internal/transport"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
	"github.com/Skotchmaster/shop_payments/pkg/util"
)

type OrderHTTP struct {
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Auth     *service.AuthService
}

func (h *OrderHTTP) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	id, err := userID(c)
	if err != nil {
		l.Warn("checkout_error", "status", 401, "reason", "unauthorized", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Auth.CurrentUser(ctx, id)
	if err != nil {
		l.Warn("checkout_error", "status", 401, "reason", "unknown user", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	lines := make([]domain.Line, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, domain.Line{ProductSlug: it.ProductSlug, Quantity: it.Quantity})
	}

	res, err := h.Checkout.Checkout(ctx, user, service.CheckoutInput{
		Items:    lines,
		Currency: req.Currency,
		Metadata: req.Metadata,
	})
	if err != nil {
		return httpError(l, "checkout_error", err)
	}

	l.Info("checkout_success", "order_id", res.OrderID)
	return c.JSON(http.StatusCreated, transport.CheckoutResponse{
		OrderID:     res.OrderID,
		CheckoutURL: res.CheckoutURL,
		Amount:      res.Amount.StringFixed(2),
		Currency:    res.Currency,
		Status:      string(res.Status),
	})
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	id, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Orders.List(ctx, id, offset, limit)
	if err != nil {
		return httpError(l, "list_orders_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.OrdersFromModels(orders),
		"meta": transport.NewPage(page, offset, limit, total),
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	o, err := h.Orders.Get(ctx, uid, id)
	if err != nil {
		return httpError(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, transport.OrderFromModel(o))
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel_order")

	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	o, err := h.Orders.Cancel(ctx, uid, id)
	if err != nil {
		return httpError(l, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", id)
	return c.JSON(http.StatusOK, transport.OrderFromModel(o))
}
