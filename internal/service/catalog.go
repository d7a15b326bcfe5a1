package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shop_payments/internal/inventory"
	"github.com/Skotchmaster/shop_payments/internal/models"
	"github.com/Skotchmaster/shop_payments/internal/repo"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
)

// ProductIndex is the search backend; nil disables it.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, slug string) error
	Search(ctx context.Context, query string, from, size int) (int64, []string, error)
}

// EventPublisher receives catalog change events; nil disables them.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type ProductEvent struct {
	Type  string    `json:"type"`
	Slug  string    `json:"slug"`
	Title string    `json:"title,omitempty"`
	Price string    `json:"price,omitempty"`
	At    time.Time `json:"at"`
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductIndex
	Events EventPublisher
}

type ProductInput struct {
	Slug         string
	Title        string
	Description  string
	CategorySlug *string
	Price        decimal.Decimal
	Stock        int
	IsActive     *bool
}

type ProductPatch struct {
	Title        *string
	Description  *string
	CategorySlug *string
	Price        *decimal.Decimal
	Stock        *int
	IsActive     *bool
}

func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.Repo.GetProductBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, slug)
	}
	return p, err
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter) (int64, []models.Product, error) {
	if !repo.ValidOrdering(f.Ordering) {
		return 0, nil, fmt.Errorf("%w: unknown ordering %q", ErrValidation, f.Ordering)
	}
	return s.Repo.ListProducts(ctx, f)
}

// Search asks the index first and falls back to the database when the index
// is absent or failing.
func (s *CatalogService) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Product{}, nil
	}

	if s.Index != nil {
		total, items, err := s.searchIndex(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func (s *CatalogService) searchIndex(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	total, slugs, err := s.Index.Search(ctx, q, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	if len(slugs) == 0 {
		return total, []models.Product{}, nil
	}
	found, err := s.Repo.GetProductsBySlugs(ctx, slugs)
	if err != nil {
		return 0, nil, err
	}
	bySlug := make(map[string]models.Product, len(found))
	for _, p := range found {
		bySlug[p.Slug] = p
	}
	out := make([]models.Product, 0, len(slugs))
	for _, slug := range slugs {
		if p, ok := bySlug[slug]; ok {
			out = append(out, p)
		}
	}
	return total, out, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	name, slug = strings.TrimSpace(name), strings.TrimSpace(slug)
	if name == "" || slug == "" {
		return nil, fmt.Errorf("%w: name and slug required", ErrValidation)
	}
	exists, err := s.Repo.CategoryExists(ctx, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: category %s exists", ErrConflict, slug)
	}
	c := &models.Category{Name: name, Slug: slug}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" || strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: slug and title required", ErrValidation)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	if err := s.checkCategory(ctx, in.CategorySlug); err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetProductBySlug(ctx, in.Slug); err == nil {
		return nil, fmt.Errorf("%w: product %s exists", ErrConflict, in.Slug)
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p := &models.Product{
		Slug:         in.Slug,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		CategorySlug: in.CategorySlug,
		Price:        in.Price.Round(2),
		Stock:        in.Stock,
		IsActive:     active,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "product_created", p)
	return p, nil
}

// PatchProduct refuses changes that would strand pending orders: stock
// below the reserved amount, or deactivating a product orders still point at.
func (s *CatalogService) PatchProduct(ctx context.Context, slug string, patch ProductPatch) (*models.Product, error) {
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	if err := s.checkCategory(ctx, patch.CategorySlug); err != nil {
		return nil, err
	}

	var p *models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		ledger := inventory.New(tx.DB)
		locked, err := ledger.Lock(ctx, slug)
		if errors.Is(err, inventory.ErrProductNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, slug)
		}
		if err != nil {
			return err
		}
		p = locked

		if patch.Stock != nil {
			reserved, err := ledger.Reserved(ctx, slug)
			if err != nil {
				return err
			}
			if *patch.Stock < reserved {
				return fmt.Errorf("%w: stock %d below reserved %d", ErrConflict, *patch.Stock, reserved)
			}
			p.Stock = *patch.Stock
		}
		if patch.IsActive != nil && !*patch.IsActive && p.IsActive {
			referenced, err := tx.ProductReferenced(ctx, slug)
			if err != nil {
				return err
			}
			if referenced {
				return fmt.Errorf("%w: product %s is referenced by orders", ErrConflict, slug)
			}
		}

		if patch.Title != nil {
			p.Title = *patch.Title
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.CategorySlug != nil {
			p.CategorySlug = patch.CategorySlug
		}
		if patch.Price != nil {
			p.Price = patch.Price.Round(2)
		}
		if patch.IsActive != nil {
			p.IsActive = *patch.IsActive
		}
		return tx.SaveProduct(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "product_updated", p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, slug string) error {
	referenced, err := s.Repo.ProductReferenced(ctx, slug)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: product %s is referenced by orders", ErrConflict, slug)
	}

	if err := s.Repo.DeleteProduct(ctx, slug); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, slug)
		}
		return err
	}

	l := logging.FromContext(ctx)
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, slug); err != nil {
			l.Error("search_index_delete_failed", "product_slug", slug, "error", err)
		}
	}
	s.publish(ctx, ProductEvent{Type: "product_deleted", Slug: slug, At: time.Now().UTC()})
	return nil
}

func (s *CatalogService) checkCategory(ctx context.Context, slug *string) error {
	if slug == nil || *slug == "" {
		return nil
	}
	ok, err := s.Repo.CategoryExists(ctx, *slug)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown category %s", ErrValidation, *slug)
	}
	return nil
}

func (s *CatalogService) afterWrite(ctx context.Context, kind string, p *models.Product) {
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, p); err != nil {
			logging.FromContext(ctx).Error("search_index_failed", "product_slug", p.Slug, "error", err)
		}
	}
	s.publish(ctx, ProductEvent{
		Type:  kind,
		Slug:  p.Slug,
		Title: p.Title,
		Price: p.Price.StringFixed(2),
		At:    time.Now().UTC(),
	})
}

func (s *CatalogService) publish(ctx context.Context, ev ProductEvent) {
	if s.Events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.PublishJSON(pctx, ev.Slug, ev); err != nil {
		logging.FromContext(ctx).Error("product_event_publish_failed", "type", ev.Type, "product_slug", ev.Slug, "error", err)
	}
}
