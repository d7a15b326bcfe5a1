package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/shop_payments/internal/models"
)

// Client keeps the product index in Elasticsearch. The database stays the
// source of truth; search only returns slugs.
type Client struct {
	es    *elasticsearch.Client
	index string
}

type productDoc struct {
	Slug         string  `json:"slug"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	CategorySlug *string `json:"category_slug,omitempty"`
	Price        string  `json:"price"`
	IsActive     bool    `json:"is_active"`
}

func NewClient(ctx context.Context, addr, user, password, index string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es: info: %s: %s", res.Status(), body)
	}

	return &Client{es: es, index: index}, nil
}

func (c *Client) IndexProduct(ctx context.Context, p *models.Product) error {
	doc := productDoc{
		Slug:         p.Slug,
		Title:        p.Title,
		Description:  p.Description,
		CategorySlug: p.CategorySlug,
		Price:        p.Price.StringFixed(2),
		IsActive:     p.IsActive,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("es: encode: %w", err)
	}

	res, err := c.es.Index(c.index, &buf,
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(p.Slug),
	)
	if err != nil {
		return fmt.Errorf("es: index %s: %w", p.Slug, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: index %s: %s", p.Slug, res.Status())
	}
	return nil
}

func (c *Client) DeleteProduct(ctx context.Context, slug string) error {
	res, err := c.es.Delete(c.index, slug, c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: delete %s: %w", slug, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es: delete %s: %s", slug, res.Status())
	}
	return nil
}

// Search returns matching active product slugs in relevance order.
func (c *Client) Search(ctx context.Context, query string, from, size int) (int64, []string, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"title^2", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"is_active": true},
				},
			},
		},
		"from":    from,
		"size":    size,
		"_source": []string{"slug"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("es: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source productDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("es: decode: %w", err)
	}

	slugs := make([]string, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		slugs = append(slugs, hit.Source.Slug)
	}
	return r.Hits.Total.Value, slugs, nil
}
