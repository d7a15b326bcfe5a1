package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrGatewayUnreachable       = errors.New("payment gateway unreachable")
	ErrGatewayRejected          = errors.New("payment gateway rejected request")
	ErrGatewayMalformedResponse = errors.New("payment gateway malformed response")
)

type Customer struct {
	Email     string
	FirstName string
	LastName  string
}

type InitializeRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Customer    Customer
	TxRef       string
	CallbackURL string
	ReturnURL   string
}

type InitializeResult struct {
	CheckoutURL string
	TxRef       string
}

// Gateway starts a hosted payment session. The outcome arrives later on the
// webhook.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
}
