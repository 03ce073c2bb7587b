package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
	"github.com/Skotchmaster/phone_shop/pkg/search"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

type ProductIndex interface {
	IndexProduct(ctx context.Context, doc search.ProductDocument) error
	DeleteProduct(ctx context.Context, id uint) error
	SearchProducts(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type ProductCache interface {
	Product(ctx context.Context, id uint, load func(context.Context) (*models.Product, error)) (*models.Product, error)
	Brands(ctx context.Context, load func(context.Context) ([]models.Brand, error)) ([]models.Brand, error)
	InvalidateProducts(ctx context.Context, ids ...uint)
	InvalidateBrands(ctx context.Context)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint
	Admin  bool
}

func (a Actor) Owns(userID *uint) bool {
	return userID != nil && *userID == a.UserID
}

const sideEffectTimeout = 5 * time.Second

// publish sends an event after the data is committed. Failures are logged and
// never fail the request.
func publish(ctx context.Context, p EventPublisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	event["occurred_at"] = time.Now().UTC().Format(time.RFC3339)
	if err := p.Publish(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", event["type"], "error", err)
	}
}
