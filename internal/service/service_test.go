package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/db"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/hash"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/models"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/repo"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/tokens"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, _ := event.(map[string]any)
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: m})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event["type"].(string))
	}
	return out
}

type fakeIndex struct {
	mu         sync.Mutex
	indexed    map[uuid.UUID]models.Item
	deleted    []uuid.UUID
	hits       []models.Item
	lastFilter repo.ItemFilter
	err        error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[uuid.UUID]models.Item{}}
}

func (f *fakeIndex) IndexItem(_ context.Context, item models.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[item.ID] = item
	return nil
}

func (f *fakeIndex) DeleteItem(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexed, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// Search returns the configured hits that pass the filter clauses, as Elasticsearch would.
func (f *fakeIndex) Search(_ context.Context, filter repo.ItemFilter, _, _ int) (int64, []models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	if f.err != nil {
		return 0, nil, f.err
	}
	out := make([]models.Item, 0, len(f.hits))
	for _, it := range f.hits {
		if filter.Name != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Category != "" && !strings.Contains(strings.ToLower(it.Category), strings.ToLower(filter.Category)) {
			continue
		}
		if filter.MinPrice != nil && it.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && it.Price > *filter.MaxPrice {
			continue
		}
		out = append(out, it)
	}
	return int64(len(out)), out, nil
}

type testEnv struct {
	Repo    *repo.GormRepo
	Auth    *AuthService
	Catalog *CatalogService
	Tokens  *tokens.Service
	Events  *recordingPublisher
	Index   *fakeIndex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	tok, err := tokens.NewService([]byte("test-jwt-secret"), time.Hour)
	require.NoError(t, err)

	r := repo.New(gdb)
	pub := &recordingPublisher{}
	idx := newFakeIndex()

	return &testEnv{
		Repo:   r,
		Tokens: tok,
		Events: pub,
		Index:  idx,
		Auth: &AuthService{
			Repo:             r,
			Hasher:           hash.NewHasher(bcrypt.MinCost),
			Tokens:           tok,
			Events:           pub,
			AllowAdminSignup: true,
			Timeout:          5 * time.Second,
		},
		Catalog: &CatalogService{
			Repo:    r,
			Events:  pub,
			Search:  idx,
			Timeout: 5 * time.Second,
		},
	}
}

func ptr[T any](v T) *T { return &v }

func isOneOf(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
