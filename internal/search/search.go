package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/models"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/repo"
)

var ErrDisabled = errors.New("search backend not configured")

type Index interface {
	IndexItem(ctx context.Context, item models.Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f repo.ItemFilter, from, size int) (int64, []models.Item, error)
}

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type Elastic struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

func NewElastic(es *elasticsearch.Client, index string) *Elastic {
	return &Elastic{es: es, index: index}
}

func (e *Elastic) IndexItem(ctx context.Context, item models.Item) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(item); err != nil {
		return fmt.Errorf("encode item: %w", err)
	}

	res, err := e.es.Index(
		e.index,
		&buf,
		e.es.Index.WithContext(ctx),
		e.es.Index.WithDocumentID(item.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index item: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index item: %s", res.Status())
	}
	return nil
}

func (e *Elastic) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res, err := e.es.Delete(e.index, id.String(), e.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete item: %s", res.Status())
	}
	return nil
}

// Search runs f.Query as full text; the remaining fields of f restrict the hits the same way
// the database listing does.
func (e *Elastic) Search(ctx context.Context, f repo.ItemFilter, from, size int) (int64, []models.Item, error) {
	body, err := buildQuery(f, from, size)
	if err != nil {
		return 0, nil, err
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(body),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}
	return decodeHits(res.Body)
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func containsWildcard(field, value string) map[string]any {
	return map[string]any{
		"wildcard": map[string]any{
			field: map[string]any{
				"value":            "*" + wildcardEscaper.Replace(value) + "*",
				"case_insensitive": true,
			},
		},
	}
}

func buildQuery(f repo.ItemFilter, from, size int) (io.Reader, error) {
	filters := []any{}
	if f.Name != "" {
		filters = append(filters, containsWildcard("name.keyword", f.Name))
	}
	if f.Category != "" {
		filters = append(filters, containsWildcard("category.keyword", f.Category))
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		bounds := map[string]any{}
		if f.MinPrice != nil {
			bounds["gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			bounds["lte"] = *f.MaxPrice
		}
		filters = append(filters, map[string]any{"range": map[string]any{"price": bounds}})
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{
						"multi_match": map[string]any{
							"query":     f.Query,
							"fields":    []string{"name^2", "category", "description"},
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": filters,
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return &buf, nil
}

func decodeHits(r io.Reader) (int64, []models.Item, error) {
	var resp struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Item `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return 0, nil, fmt.Errorf("decode hits: %w", err)
	}

	items := make([]models.Item, len(resp.Hits.Hits))
	for i, hit := range resp.Hits.Hits {
		items[i] = hit.Source
	}
	return resp.Hits.Total.Value, items, nil
}

// Disabled is the Index used when ES_URL is empty.
type Disabled struct{}

func (Disabled) IndexItem(context.Context, models.Item) error { return nil }
func (Disabled) DeleteItem(context.Context, uuid.UUID) error  { return nil }
func (Disabled) Search(context.Context, repo.ItemFilter, int, int) (int64, []models.Item, error) {
	return 0, nil, ErrDisabled
}
