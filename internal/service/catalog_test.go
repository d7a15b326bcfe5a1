package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_payments/internal/models"
	"github.com/Skotchmaster/shop_payments/internal/repo"
	"github.com/Skotchmaster/shop_payments/internal/testdb"
)

type fakeIndex struct {
	indexed []string
	deleted []string
	hits    []string
	err     error
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.indexed = append(f.indexed, p.Slug)
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, slug string) error {
	f.deleted = append(f.deleted, slug)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int, int) (int64, []string, error) {
	return int64(len(f.hits)), f.hits, f.err
}

type fakeEvents struct {
	events []ProductEvent
}

func (f *fakeEvents) PublishJSON(_ context.Context, _ string, v any) error {
	f.events = append(f.events, v.(ProductEvent))
	return nil
}

func newCatalog(t *testing.T) (*CatalogService, *fakeIndex, *fakeEvents) {
	t.Helper()
	idx, ev := &fakeIndex{}, &fakeEvents{}
	return &CatalogService{Repo: &repo.GormRepo{DB: testdb.Open(t)}, Index: idx, Events: ev}, idx, ev
}

func ptr[T any](v T) *T { return &v }

func TestCatalog_CreatePatchDelete(t *testing.T) {
	s, idx, ev := newCatalog(t)
	ctx := context.Background()

	_, err := s.CreateCategory(ctx, "Books", "books")
	require.NoError(t, err)
	_, err = s.CreateCategory(ctx, "Books", "books")
	assert.ErrorIs(t, err, ErrConflict)

	p, err := s.CreateProduct(ctx, ProductInput{
		Slug: "book-1", Title: "Book", CategorySlug: ptr("books"),
		Price: decimal.RequireFromString("10.005"), Stock: 5,
	})
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, "10.01", p.Price.StringFixed(2))

	_, err = s.CreateProduct(ctx, ProductInput{Slug: "book-1", Title: "Again", Price: decimal.Zero})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.CreateProduct(ctx, ProductInput{Slug: "x", Title: "X", CategorySlug: ptr("nope"), Price: decimal.Zero})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.CreateProduct(ctx, ProductInput{Slug: "y", Title: "Y", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrValidation)

	p, err = s.PatchProduct(ctx, "book-1", ProductPatch{Title: ptr("Better Book"), Stock: ptr(7)})
	require.NoError(t, err)
	assert.Equal(t, "Better Book", p.Title)
	assert.Equal(t, 7, p.Stock)

	_, err = s.PatchProduct(ctx, "missing", ProductPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteProduct(ctx, "book-1"))
	assert.ErrorIs(t, s.DeleteProduct(ctx, "book-1"), ErrNotFound)

	assert.Equal(t, []string{"book-1", "book-1"}, idx.indexed)
	assert.Equal(t, []string{"book-1"}, idx.deleted)
	require.Len(t, ev.events, 3)
	assert.Equal(t, "product_created", ev.events[0].Type)
	assert.Equal(t, "product_updated", ev.events[1].Type)
	assert.Equal(t, "product_deleted", ev.events[2].Type)
}

func TestCatalog_ProtectsReferencedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := &CatalogService{Repo: f.repo}
	testdb.CreateProduct(t, f.db, "book-1", "10.00", 5)
	checkoutBook(t, f, 3)

	assert.ErrorIs(t, s.DeleteProduct(ctx, "book-1"), ErrConflict)

	_, err := s.PatchProduct(ctx, "book-1", ProductPatch{IsActive: ptr(false)})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.PatchProduct(ctx, "book-1", ProductPatch{Stock: ptr(2)})
	assert.ErrorIs(t, err, ErrConflict)

	p, err := s.PatchProduct(ctx, "book-1", ProductPatch{Stock: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestCatalog_SearchUsesIndexThenFallsBack(t *testing.T) {
	s, idx, _ := newCatalog(t)
	ctx := context.Background()
	db := s.Repo.DB

	testdb.CreateProduct(t, db, "go-book", "10.00", 1)
	testdb.CreateProduct(t, db, "rust-book", "12.00", 1)

	idx.hits = []string{"rust-book", "ghost", "go-book"}
	total, items, err := s.Search(ctx, "book", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "rust-book", items[0].Slug)
	assert.Equal(t, "go-book", items[1].Slug)

	idx.err = errors.New("es down")
	total, items, err = s.Search(ctx, "rust", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "rust-book", items[0].Slug)

	total, items, err = s.Search(ctx, "   ", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestCatalog_ListRejectsUnknownOrdering(t *testing.T) {
	s, _, _ := newCatalog(t)
	_, _, err := s.ListProducts(context.Background(), repo.ProductFilter{Ordering: "stock", Limit: 10})
	assert.ErrorIs(t, err, ErrValidation)
}
