package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ChapaClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewChapaClient(baseURL, secretKey string, timeout time.Duration) *ChapaClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ChapaClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

type chapaInitializePayload struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
	ReturnURL   string `json:"return_url,omitempty"`
}

type chapaInitializeResponse struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message"`
	Data    *struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

func (c *ChapaClient) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	firstName := req.Customer.FirstName
	if firstName == "" {
		firstName = "User"
	}

	body, err := json.Marshal(chapaInitializePayload{
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Email:       req.Customer.Email,
		FirstName:   firstName,
		LastName:    req.Customer.LastName,
		TxRef:       req.TxRef,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("chapa: marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrGatewayUnreachable, err)
	}

	var out chapaInitializeResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: http %d: %s", ErrGatewayRejected, resp.StatusCode, gatewayMessage(out.Message, raw))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayMalformedResponse, decodeErr)
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("%w: status %q: %s", ErrGatewayRejected, out.Status, gatewayMessage(out.Message, raw))
	}
	if out.Data == nil || out.Data.CheckoutURL == "" {
		return nil, fmt.Errorf("%w: checkout_url missing", ErrGatewayMalformedResponse)
	}

	return &InitializeResult{CheckoutURL: out.Data.CheckoutURL, TxRef: req.TxRef}, nil
}

// gatewayMessage flattens Chapa's message field, which is either a string or
// an object of field errors.
func gatewayMessage(msg json.RawMessage, raw []byte) string {
	if len(msg) > 0 {
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			return s
		}
		return string(msg)
	}
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return string(raw)
}
