package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_payments/internal/repo"
	"github.com/Skotchmaster/shop_payments/internal/service"
	"github.com/Skotchmaster/shop_payments/internal/transport"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
	"github.com/Skotchmaster/shop_payments/pkg/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	p, err := h.Svc.GetProduct(ctx, c.Param("slug"))
	if err != nil {
		return httpError(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, transport.ProductFromModel(p))
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	f := repo.ProductFilter{
		Category: c.QueryParam("category"),
		Ordering: c.QueryParam("ordering"),
		Offset:   offset,
		Limit:    limit,
	}
	if v := c.QueryParam("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			l.Warn("get_products_error", "status", 400, "reason", "is_active must be a bool", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "is_active must be a bool")
		}
		f.IsActive = &b
	}

	total, items, err := h.Svc.ListProducts(ctx, f)
	if err != nil {
		return httpError(l, "get_products_error", err)
	}

	l.Info("get_products_success")
	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.ProductsFromModels(items),
		"meta": transport.NewPage(page, offset, limit, total),
	})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return httpError(l, "search_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.ProductsFromModels(items),
		"meta": transport.NewPage(page, offset, limit, total),
	})
}

func (h *CatalogHTTP) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_categories")

	cats, err := h.Svc.Categories(ctx)
	if err != nil {
		return httpError(l, "get_categories_error", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_category")

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_category_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cat, err := h.Svc.CreateCategory(ctx, req.Name, req.Slug)
	if err != nil {
		return httpError(l, "create_category_error", err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.CreateProduct(ctx, service.ProductInput{
		Slug:         req.Slug,
		Title:        req.Title,
		Description:  req.Description,
		CategorySlug: req.CategorySlug,
		Price:        req.Price,
		Stock:        req.Stock,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return httpError(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_slug", p.Slug)
	return c.JSON(http.StatusCreated, transport.ProductFromModel(p))
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_product")

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_product_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.PatchProduct(ctx, c.Param("slug"), service.ProductPatch{
		Title:        req.Title,
		Description:  req.Description,
		CategorySlug: req.CategorySlug,
		Price:        req.Price,
		Stock:        req.Stock,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return httpError(l, "patch_product_error", err)
	}

	l.Info("patch_product_success", "product_slug", p.Slug)
	return c.JSON(http.StatusOK, transport.ProductFromModel(p))
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_product")

	slug := c.Param("slug")
	if err := h.Svc.DeleteProduct(ctx, slug); err != nil {
		return httpError(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_slug", slug)
	return c.NoContent(http.StatusNoContent)
}
