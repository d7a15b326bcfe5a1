package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initReq() InitializeRequest {
	return InitializeRequest{
		Amount:      decimal.RequireFromString("30"),
		Currency:    "ETB",
		Customer:    Customer{Email: "buyer@example.com", LastName: "Doe"},
		TxRef:       "ref-1",
		CallbackURL: "https://shop.example.com/api/payments/webhook",
		ReturnURL:   "https://shop.example.com/paid",
	}
}

func TestInitialize_Success(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"checkout_url":"https://checkout.chapa.co/pay/abc"}}`))
	}))
	defer srv.Close()

	c := NewChapaClient(srv.URL+"/", "sk-test", time.Second)
	res, err := c.Initialize(context.Background(), initReq())
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.chapa.co/pay/abc", res.CheckoutURL)
	assert.Equal(t, "ref-1", res.TxRef)
	assert.Equal(t, "30.00", got["amount"])
	assert.Equal(t, "User", got["first_name"])
	assert.Equal(t, "Doe", got["last_name"])
	assert.Equal(t, "ref-1", got["tx_ref"])
}

func TestInitialize_Errors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"http error", http.StatusUnauthorized, `{"status":"failed","message":"Invalid API Key"}`, ErrGatewayRejected},
		{"status not success", http.StatusOK, `{"status":"failed","message":"currency not supported"}`, ErrGatewayRejected},
		{"not json", http.StatusOK, `<html>oops</html>`, ErrGatewayMalformedResponse},
		{"missing url", http.StatusOK, `{"status":"success","data":{}}`, ErrGatewayMalformedResponse},
		{"missing data", http.StatusOK, `{"status":"success"}`, ErrGatewayMalformedResponse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewChapaClient(srv.URL, "sk", time.Second).Initialize(context.Background(), initReq())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestInitialize_RejectedCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"failed","message":"Invalid API Key"}`))
	}))
	defer srv.Close()

	_, err := NewChapaClient(srv.URL, "sk", time.Second).Initialize(context.Background(), initReq())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API Key")
}

func TestInitialize_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewChapaClient(url, "sk", time.Second).Initialize(context.Background(), initReq())
	assert.ErrorIs(t, err, ErrGatewayUnreachable)
}

func TestInitialize_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewChapaClient(srv.URL, "sk", 50*time.Millisecond).Initialize(context.Background(), initReq())
	assert.ErrorIs(t, err, ErrGatewayUnreachable)
}
