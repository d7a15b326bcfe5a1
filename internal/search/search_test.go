package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_payments/internal/models"
)

type fakeES struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
}

func (f *fakeES) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/":
		_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`))
	case strings.HasSuffix(r.URL.Path, "/_search"):
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":2},"hits":[{"_source":{"slug":"go-book"}},{"_source":{"slug":"rust-book"}}]}}`))
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	default:
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}
}

func newClient(t *testing.T) (*Client, *fakeES) {
	t.Helper()
	f := &fakeES{}
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), srv.URL, "", "", "products")
	require.NoError(t, err)
	return c, f
}

func TestSearch_ReturnsSlugsInOrder(t *testing.T) {
	c, f := newClient(t)

	total, slugs, err := c.Search(context.Background(), "book", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"go-book", "rust-book"}, slugs)

	f.mu.Lock()
	defer f.mu.Unlock()
	last := f.bodies[len(f.bodies)-1]
	var q map[string]any
	require.NoError(t, json.Unmarshal([]byte(last), &q))
	assert.EqualValues(t, 10, q["size"])
	assert.Contains(t, last, `"is_active":true`)
}

func TestIndexAndDelete(t *testing.T) {
	c, f := newClient(t)

	p := &models.Product{Slug: "go-book", Title: "Go", Price: decimal.RequireFromString("10"), IsActive: true}
	require.NoError(t, c.IndexProduct(context.Background(), p))
	require.NoError(t, c.DeleteProduct(context.Background(), "go-book"))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Contains(t, f.requests, "PUT /products/_doc/go-book")
	assert.Contains(t, f.requests, "DELETE /products/_doc/go-book")
	assert.Contains(t, strings.Join(f.bodies, "\n"), `"price":"10.00"`)
}
