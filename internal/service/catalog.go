package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/events"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/logging"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/models"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/repo"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/search"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/transport"
)

// MaxQuantity bounds a single purchase or restock.
const MaxQuantity = 1_000_000_000

type CatalogService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Search  search.Index
	Timeout time.Duration
}

// ParseQuantity reads an optional JSON number; absent means 1.
func ParseQuantity(q *float64) (int64, error) {
	if q == nil {
		return 1, nil
	}
	v := *q
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v <= 0 || v > MaxQuantity {
		return 0, fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidQuantity)
	}
	return int64(v), nil
}

func parsePrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return fmt.Errorf("%w: price must be a non-negative number", ErrValidation)
	}
	return nil
}

func parseStock(s float64) (int64, error) {
	if math.IsNaN(s) || math.IsInf(s, 0) || s != math.Trunc(s) || s < 0 || s > MaxQuantity {
		return 0, fmt.Errorf("%w: stock must be a non-negative integer", ErrValidation)
	}
	return int64(s), nil
}

func mapStoreErr(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%w: sweet %v", ErrNotFound, err)
	case errors.Is(err, repo.ErrOutOfStock):
		return fmt.Errorf("%w: %v", ErrOutOfStock, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *CatalogService) CreateItem(ctx context.Context, req transport.CreateItemRequest) (*models.Item, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Price == nil {
		return nil, fmt.Errorf("%w: price is required", ErrValidation)
	}
	if err := parsePrice(*req.Price); err != nil {
		return nil, err
	}
	var stock int64
	if req.Stock != nil {
		v, err := parseStock(*req.Stock)
		if err != nil {
			return nil, err
		}
		stock = v
	}

	item := &models.Item{
		Name:        name,
		Price:       *req.Price,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Stock:       stock,
	}

	dbCtx, cancel := bounded(ctx, s.Timeout)
	defer cancel()
	created, err := s.Repo.CreateItem(dbCtx, item)
	if err != nil {
		return nil, mapStoreErr("create sweet", err)
	}

	s.afterWrite(ctx, created, map[string]any{
		"type":   "sweet_created",
		"itemID": created.ID,
		"name":   created.Name,
		"stock":  created.Stock,
	})
	return created, nil
}

func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	dbCtx, cancel := bounded(ctx, s.Timeout)
	defer cancel()
	item, err := s.Repo.GetItem(dbCtx, id)
	if err != nil {
		return nil, mapStoreErr("get sweet", err)
	}
	return item, nil
}

func (s *CatalogService) ListItems(ctx context.Context, q transport.SearchQuery, offset, limit int) (int64, []models.Item, error) {
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return 0, nil, fmt.Errorf("%w: minPrice is greater than maxPrice", ErrValidation)
	}
	for _, p := range []*float64{q.MinPrice, q.MaxPrice} {
		if p != nil && (math.IsNaN(*p) || math.IsInf(*p, 0)) {
			return 0, nil, fmt.Errorf("%w: price bound is not a number", ErrValidation)
		}
	}

	filter := repo.ItemFilter{
		Query:    strings.TrimSpace(q.Query),
		Name:     strings.TrimSpace(q.Name),
		Category: strings.TrimSpace(q.Category),
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
	}

	if filter.Query != "" {
		total, items, err := s.fullText(ctx, filter, offset, limit)
		if err == nil {
			return total, items, nil
		}
		if !errors.Is(err, search.ErrDisabled) {
			logging.FromContext(ctx).Warn("search_fallback", "reason", "full text search failed", "error", err)
		}
	}

	dbCtx, cancel := bounded(ctx, s.Timeout)
	defer cancel()
	total, items, err := s.Repo.ListItems(dbCtx, filter, offset, limit)
	if err != nil {
		return 0, nil, mapStoreErr("list sweets", err)
	}
	return total, items, nil
}

func (s *CatalogService) fullText(ctx context.Context, f repo.ItemFilter, offset, limit int) (int64, []models.Item, error) {
	if s.Search == nil {
		return 0, nil, search.ErrDisabled
	}
	sCtx, cancel := bounded(ctx, s.Timeout)
	defer cancel()
	return s.Search.Search(sCtx, f, offset, limit)
}

func (s *CatalogService) PatchItem(ctx context.Context, id uuid.UUID, req transport.PatchItemRequest) (*models.Item, error) {
	var patch repo.ItemPatch
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		patch.Name = &name
	}
	if req.Price != nil {
		if err := parsePrice(*req.Price); err != nil {
			return nil, err
		}
		patch.Price = req.Price
	}
	if req.Stock != nil {
		v, err := parseStock(*req.Stock)
		if err != nil {
			return nil, err
		}
		patch.Stock = &v
	}
	patch.Category = trimmed(req.Category)
	patch.Description = trimmed(req.Description)
	patch.ImageURL = trimmed(req.ImageURL)

	dbCtx, cancel := bounded(ctx, s.Timeout)
	defer cancel()
	item, err := s.Repo.UpdateItem(dbCtx, id, patch)
	if err != nil {
		return nil, mapStoreErr("update sweet", err)
	}

	s.afterWrite(ctx, item, map[string]any{
		"type":   "sweet_updated",
		"itemID": item.ID,
		"name":   item.Name,
		"stock":  item.Stock,
	})
	return item, nil
}

func (s *CatalogService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	dbCtx, cancel := bounded(ctx, s.Timeout)
	defer cancel()
	if err := s.Repo.DeleteItem(dbCtx, id); err != nil {
		return mapStoreErr("delete sweet", err)
	}

	sideCtx, sideCancel := detached(ctx)
	defer sideCancel()
	if s.Search != nil {
		if err := s.Search.DeleteItem(sideCtx, id); err != nil {
			logging.FromContext(ctx).Warn("search_delete_failed", "item_id", id, "error", err)
		}
	}
	s.publish(sideCtx, id, map[string]any{"type": "sweet_deleted", "itemID": id})
	return nil
}

func (s *CatalogService) Purchase(ctx context.Context, id uuid.UUID, quantity *float64) (*models.Item, error) {
	qty, err := ParseQuantity(quantity)
	if err != nil {
		return nil, err
	}

	dbCtx, cancel := bounded(ctx, s.Timeout)
	defer cancel()
	item, err := s.Repo.PurchaseItem(dbCtx, id, qty)
	if err != nil {
		return nil, mapStoreErr("purchase sweet", err)
	}

	s.afterWrite(ctx, item, map[string]any{
		"type":     "sweet_purchased",
		"itemID":   item.ID,
		"quantity": qty,
		"stock":    item.Stock,
	})
	return item, nil
}

func (s *CatalogService) Restock(ctx context.Context, id uuid.UUID, quantity *float64) (*models.Item, error) {
	qty, err := ParseQuantity(quantity)
	if err != nil {
		return nil, err
	}

	dbCtx, cancel := bounded(ctx, s.Timeout)
	defer cancel()
	item, err := s.Repo.RestockItem(dbCtx, id, qty)
	if err != nil {
		return nil, mapStoreErr("restock sweet", err)
	}

	s.afterWrite(ctx, item, map[string]any{
		"type":     "sweet_restocked",
		"itemID":   item.ID,
		"quantity": qty,
		"stock":    item.Stock,
	})
	return item, nil
}

// afterWrite mirrors the item into the search index and emits the event.
// Both are best effort: the database write has already committed.
func (s *CatalogService) afterWrite(ctx context.Context, item *models.Item, event map[string]any) {
	sideCtx, cancel := detached(ctx)
	defer cancel()
	if s.Search != nil {
		if err := s.Search.IndexItem(sideCtx, *item); err != nil {
			logging.FromContext(ctx).Warn("search_index_failed", "item_id", item.ID, "error", err)
		}
	}
	s.publish(sideCtx, item.ID, event)
}

func (s *CatalogService) publish(ctx context.Context, id uuid.UUID, event map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, events.TopicSweets, id.String(), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "topic", events.TopicSweets, "error", err)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
