package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_payments/internal/service"
	"github.com/Skotchmaster/shop_payments/internal/transport"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
)

const maxWebhookBody = 1 << 20

type PaymentHTTP struct {
	Webhook *service.WebhookService
	// Secret enables signature checks when non-empty.
	Secret []byte
}

func (h *PaymentHTTP) HandleWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.webhook")

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		l.Warn("webhook_error", "status", 400, "reason", "cannot read body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if len(h.Secret) > 0 && !h.validSignature(c.Request().Header, body) {
		l.Warn("webhook_error", "status", 401, "reason", "bad signature")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	var req transport.WebhookRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			l.Warn("webhook_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
	}
	if req.Reference() == "" {
		req.TxRef = c.QueryParam("tx_ref")
		req.TrxRef = c.QueryParam("trx_ref")
	}
	if req.Status == "" {
		req.Status = c.QueryParam("status")
	}

	res, err := h.Webhook.Handle(ctx, req.Reference(), req.Status)
	if err != nil {
		return httpError(l, "webhook_error", err)
	}

	msg := fmt.Sprintf("Order %d marked as %s.", res.OrderID, res.Status)
	if !res.Applied {
		msg = fmt.Sprintf("Order %d already %s.", res.OrderID, res.Status)
	}
	l.Info("webhook_success", "order_id", res.OrderID, "applied", res.Applied, "order_status", res.Status)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: msg})
}

// validSignature accepts an HMAC-SHA256 of the raw body, hex encoded, in
// either header the gateway sends.
func (h *PaymentHTTP) validSignature(hdr http.Header, body []byte) bool {
	mac := hmac.New(sha256.New, h.Secret)
	mac.Write(body)
	want := mac.Sum(nil)

	for _, name := range []string{"Chapa-Signature", "X-Chapa-Signature"} {
		got, err := hex.DecodeString(strings.TrimSpace(hdr.Get(name)))
		if err == nil && len(got) > 0 && hmac.Equal(got, want) {
			return true
		}
	}
	return false
}
