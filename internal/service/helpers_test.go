package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/Skotchmaster/phone_shop/internal/inventory"
	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/repo"
	"github.com/Skotchmaster/phone_shop/internal/testutil"
	"github.com/Skotchmaster/phone_shop/pkg/search"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: event.(map[string]any)})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event["type"].(string))
	}
	return out
}

type memoryIndex struct {
	mu   sync.Mutex
	docs map[uint]search.ProductDocument
	err  error
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{docs: map[uint]search.ProductDocument{}}
}

func (m *memoryIndex) IndexProduct(_ context.Context, doc search.ProductDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *memoryIndex) DeleteProduct(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *memoryIndex) SearchProducts(_ context.Context, q string, from, size int) (int64, []uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, nil, m.err
	}
	var ids []uint
	for id, doc := range m.docs {
		if strings.Contains(strings.ToLower(doc.Title), strings.ToLower(q)) {
			ids = append(ids, id)
		}
	}
	return int64(len(ids)), ids, nil
}

type env struct {
	fx       *testutil.Fixtures
	repo     *repo.GormRepo
	ledger   *inventory.Ledger
	events   *recordingPublisher
	index    *memoryIndex
	catalog  *CatalogService
	orders   *OrderService
	vendors  *VendorService
	users    *UserService
	comments *CommentService
	wishlist *WishlistService
	city     *models.City
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	r := &repo.GormRepo{DB: db}
	ledger := inventory.NewLedger(db)
	pub := &recordingPublisher{}
	idx := newMemoryIndex()

	catalog := &CatalogService{Repo: r, Ledger: ledger, Index: idx, Events: pub}
	fx := testutil.NewFixtures(t, db)
	return &env{
		fx:       fx,
		repo:     r,
		ledger:   ledger,
		events:   pub,
		index:    idx,
		catalog:  catalog,
		orders:   &OrderService{Repo: r, Ledger: ledger, Catalog: catalog, Events: pub},
		vendors:  &VendorService{Repo: r, Ledger: ledger, Catalog: catalog, Events: pub},
		users:    &UserService{Repo: r, Events: pub},
		comments: &CommentService{Repo: r},
		wishlist: &WishlistService{Repo: r},
		city:     fx.City("Moscow"),
	}
}
