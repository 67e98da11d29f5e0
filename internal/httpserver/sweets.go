package httpserver

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/logging"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/models"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/service"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/transport"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/util"
)

type SweetsHTTP struct {
	Svc *service.CatalogService
}

func parseID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func parseBound(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (h *SweetsHTTP) GetSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.get")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_sweet_failed", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	item, err := h.Svc.GetItem(ctx, id)
	if err != nil {
		return fail(l, "get_sweet_failed", err)
	}
	return c.JSON(http.StatusOK, item)
}

// ListSweets serves both the plain listing and /search; the filters are optional on either.
func (h *SweetsHTTP) ListSweets(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.list")

	minPrice, err := parseBound(c.QueryParam("minPrice"))
	if err != nil {
		l.Warn("list_sweets_failed", "status", 400, "reason", "minPrice is not a number", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "minPrice is not a number")
	}
	maxPrice, err := parseBound(c.QueryParam("maxPrice"))
	if err != nil {
		l.Warn("list_sweets_failed", "status", 400, "reason", "maxPrice is not a number", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "maxPrice is not a number")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := transport.SearchQuery{
		Query:    c.QueryParam("q"),
		Name:     c.QueryParam("name"),
		Category: c.QueryParam("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}

	total, items, err := h.Svc.ListItems(ctx, q, offset, limit)
	if err != nil {
		return fail(l, "list_sweets_failed", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"items": items,
		"meta":  util.Meta(page, offset, limit, total),
	})
}

func (h *SweetsHTTP) CreateSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.create")

	var req transport.CreateItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_sweet_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.CreateItem(ctx, req)
	if err != nil {
		return fail(l, "create_sweet_failed", err)
	}

	l.Info("create_sweet_success", "item_id", item.ID)
	return c.JSON(http.StatusCreated, item)
}

func (h *SweetsHTTP) UpdateSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.update")

	id, err := parseID(c)
	if err != nil {
		l.Warn("update_sweet_failed", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.PatchItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_sweet_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.PatchItem(ctx, id, req)
	if err != nil {
		return fail(l, "update_sweet_failed", err)
	}

	l.Info("update_sweet_success", "item_id", item.ID)
	return c.JSON(http.StatusOK, item)
}

func (h *SweetsHTTP) DeleteSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.delete")

	id, err := parseID(c)
	if err != nil {
		l.Warn("delete_sweet_failed", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	if err := h.Svc.DeleteItem(ctx, id); err != nil {
		return fail(l, "delete_sweet_failed", err)
	}

	l.Info("delete_sweet_success", "item_id", id)
	return c.JSON(http.StatusOK, echo.Map{"message": "sweet deleted"})
}

func (h *SweetsHTTP) PurchaseSweet(c echo.Context) error {
	return h.changeStock(c, "purchase", h.Svc.Purchase)
}

func (h *SweetsHTTP) RestockSweet(c echo.Context) error {
	return h.changeStock(c, "restock", h.Svc.Restock)
}

type stockOp func(ctx context.Context, id uuid.UUID, quantity *float64) (*models.Item, error)

func (h *SweetsHTTP) changeStock(c echo.Context, op string, apply stockOp) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets."+op)

	id, err := parseID(c)
	if err != nil {
		l.Warn(op+"_failed", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.QuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn(op+"_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	item, err := apply(ctx, id, req.Quantity)
	if err != nil {
		return fail(l, op+"_failed", err)
	}

	l.Info(op+"_success", "item_id", item.ID, "stock", item.Stock)
	return c.JSON(http.StatusOK, item)
}
