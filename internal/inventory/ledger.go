package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/phone_shop/internal/models"
)

var tracer = otel.Tracer("github.com/Skotchmaster/phone_shop/internal/inventory")

// Ledger owns products.stock_count. Every change of the stock goes through Adjust.
type Ledger struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithTx binds the ledger to a running transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{DB: tx, now: l.now}
}

// Adjust adds delta to the stock of a product and returns the updated row.
// The check and the write are one conditional UPDATE, so concurrent callers
// can never drive the stock below zero.
func (l *Ledger) Adjust(ctx context.Context, productID uint, delta int64) (*models.Product, error) {
	ctx, span := tracer.Start(ctx, "inventory.adjust")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product.id", int64(productID)),
		attribute.Int64("stock.delta", delta),
	)

	p, err := l.adjust(ctx, productID, delta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int64("stock.count", p.StockCount))
	return p, nil
}

func (l *Ledger) adjust(ctx context.Context, productID uint, delta int64) (*models.Product, error) {
	db := l.DB.WithContext(ctx)

	if delta != 0 {
		res := db.Model(&models.Product{}).
			Where("id = ? AND stock_count + ? >= 0", productID, delta).
			UpdateColumns(map[string]any{
				"stock_count": gorm.Expr("stock_count + ?", delta),
				"updated_at":  l.now(),
			})
		if res.Error != nil {
			return nil, fmt.Errorf("adjust stock of product %d: %w", productID, res.Error)
		}
		if res.RowsAffected == 0 {
			current, err := l.current(ctx, productID)
			if err != nil {
				return nil, err
			}
			return nil, &InsufficientStockError{
				ProductID: productID,
				Requested: -delta,
				Available: current.StockCount,
			}
		}
	}

	return l.current(ctx, productID)
}

// Stock returns the current stock count of a product.
func (l *Ledger) Stock(ctx context.Context, productID uint) (int64, error) {
	p, err := l.current(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.StockCount, nil
}

func (l *Ledger) current(ctx context.Context, productID uint) (*models.Product, error) {
	var p models.Product
	if err := l.DB.WithContext(ctx).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("read product %d: %w", productID, err)
	}
	return &p, nil
}
