package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/phone_shop/internal/inventory"
	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/repo"
	"github.com/Skotchmaster/phone_shop/internal/transport"
	"github.com/Skotchmaster/phone_shop/pkg/events"
)

type VendorService struct {
	Repo    *repo.GormRepo
	Ledger  *inventory.Ledger
	Catalog *CatalogService
	Events  EventPublisher
}

func (s *VendorService) ListVendors(ctx context.Context, sortBy, sortDir string) ([]repo.VendorView, error) {
	views, err := s.Repo.ListVendors(ctx, repo.ResolveSort(repo.VendorSorts, sortBy, sortDir, repo.DefaultVendorSort))
	if err != nil {
		return nil, storeErr("list vendors", err)
	}
	return views, nil
}

type VendorDetails struct {
	*models.Vendor
	Deliveries []models.Delivery `json:"deliveries"`
}

func (s *VendorService) GetVendor(ctx context.Context, id uint) (*VendorDetails, error) {
	v, err := s.Repo.GetVendor(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("read vendor %d", id), err)
	}
	deliveries, err := s.Repo.ListDeliveries(ctx, id)
	if err != nil {
		return nil, storeErr("list deliveries", err)
	}
	for i := range deliveries {
		deliveries[i].Vendor = nil
	}
	return &VendorDetails{Vendor: v, Deliveries: deliveries}, nil
}

func (s *VendorService) CreateVendor(ctx context.Context, req transport.VendorRequest) (*models.Vendor, error) {
	req = transport.VendorRequest{
		FirstName:       strings.TrimSpace(req.FirstName),
		SecondName:      strings.TrimSpace(req.SecondName),
		Surname:         strings.TrimSpace(req.Surname),
		NumberTelephone: strings.TrimSpace(req.NumberTelephone),
	}
	if err := checkStruct(req); err != nil {
		return nil, err
	}
	v := &models.Vendor{
		FirstName:       req.FirstName,
		SecondName:      req.SecondName,
		Surname:         req.Surname,
		NumberTelephone: req.NumberTelephone,
	}
	if err := s.Repo.CreateVendor(ctx, v); err != nil {
		return nil, storeErr("insert vendor", err)
	}
	return v, nil
}

func (s *VendorService) PatchVendor(ctx context.Context, id uint, req transport.PatchVendorRequest) (*models.Vendor, error) {
	fields, err := nameFields(true, req.FirstName, req.SecondName, req.Surname)
	if err != nil {
		return nil, err
	}
	if req.NumberTelephone != nil {
		phone := strings.TrimSpace(*req.NumberTelephone)
		if err := checkVar("number_telephone", phone, "max=20"); err != nil {
			return nil, err
		}
		fields["number_telephone"] = phone
	}
	v, err := s.Repo.UpdateVendor(ctx, id, fields)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("update vendor %d", id), err)
	}
	return v, nil
}

func (s *VendorService) DeleteVendor(ctx context.Context, id uint) error {
	n, err := s.Repo.CountVendorDeliveries(ctx, id)
	if err != nil {
		return storeErr("count vendor deliveries", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: vendor %d has %d deliveries", ErrConflict, id, n)
	}
	if err := s.Repo.DeleteVendor(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("delete vendor %d", id), err)
	}
	return nil
}

func (s *VendorService) ListDeliveries(ctx context.Context, vendorID uint) ([]models.Delivery, error) {
	deliveries, err := s.Repo.ListDeliveries(ctx, vendorID)
	if err != nil {
		return nil, storeErr("list deliveries", err)
	}
	return deliveries, nil
}

func (s *VendorService) GetDelivery(ctx context.Context, id uint) (*models.Delivery, error) {
	d, err := s.Repo.GetDelivery(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("read delivery %d", id), err)
	}
	return d, nil
}

// CreateDelivery stores a delivery and puts every line into stock in one transaction.
func (s *VendorService) CreateDelivery(ctx context.Context, req transport.CreateDeliveryRequest) (*models.Delivery, error) {
	if req.VendorID == 0 {
		return nil, fmt.Errorf("%w: vendor_id required", ErrValidation)
	}
	if req.DeliveryPrice < 0 {
		return nil, fmt.Errorf("%w: delivery_price must be >= 0", ErrValidation)
	}
	if len(req.Details) == 0 {
		return nil, fmt.Errorf("%w: details required", ErrValidation)
	}
	for _, d := range req.Details {
		if d.ProductID == 0 {
			return nil, fmt.Errorf("%w: telephone_id required", ErrValidation)
		}
		if d.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be > 0", ErrValidation)
		}
		if d.PriceOnePhone < 0 {
			return nil, fmt.Errorf("%w: price_one_phone must be >= 0", ErrValidation)
		}
	}

	ctx, span := tracer.Start(ctx, "delivery.create")
	defer span.End()

	var deliveryID uint
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)
		if _, err := txRepo.GetVendor(ctx, req.VendorID); err != nil {
			return storeErr(fmt.Sprintf("vendor %d", req.VendorID), err)
		}

		ledger := s.Ledger.WithTx(tx)
		lines := make([]models.DeliveryLine, 0, len(req.Details))
		for _, d := range req.Details {
			if _, err := ledger.Adjust(ctx, d.ProductID, d.Amount); err != nil {
				return err
			}
			lines = append(lines, models.DeliveryLine{
				ProductID:     d.ProductID,
				PriceOnePhone: d.PriceOnePhone,
				Amount:        d.Amount,
			})
		}

		delivery := models.Delivery{VendorID: req.VendorID, DeliveryPrice: req.DeliveryPrice}
		if err := txRepo.CreateDelivery(ctx, &delivery, lines); err != nil {
			return storeErr("insert delivery", err)
		}
		deliveryID = delivery.ID
		return nil
	})
	if err != nil {
		return nil, ledgerErr(err)
	}

	d, err := s.Repo.GetDelivery(ctx, deliveryID)
	if err != nil {
		return nil, storeErr("read delivery", err)
	}
	s.stockChanged(ctx, "delivery_received", d.ID, deliveryProductIDs(d.Lines))
	return d, nil
}

func (s *VendorService) PatchDelivery(ctx context.Context, id uint, req transport.PatchDeliveryRequest) (*models.Delivery, error) {
	if req.DeliveryPrice != nil {
		if *req.DeliveryPrice < 0 {
			return nil, fmt.Errorf("%w: delivery_price must be >= 0", ErrValidation)
		}
		if err := s.Repo.UpdateDeliveryPrice(ctx, id, *req.DeliveryPrice); err != nil {
			return nil, storeErr(fmt.Sprintf("update delivery %d", id), err)
		}
	}
	return s.GetDelivery(ctx, id)
}

// PatchDeliveryLine edits a delivered line. A changed amount moves the stock
// by the difference, so lowering it fails if those items were already sold.
func (s *VendorService) PatchDeliveryLine(ctx context.Context, lineID uint, req transport.PatchDeliveryLineRequest) (*models.DeliveryLine, error) {
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}
	if req.PriceOnePhone != nil && *req.PriceOnePhone < 0 {
		return nil, fmt.Errorf("%w: price_one_phone must be >= 0", ErrValidation)
	}

	var (
		line    *models.DeliveryLine
		touched bool
	)
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)
		var err error
		line, err = txRepo.LockDeliveryLine(ctx, lineID)
		if err != nil {
			return storeErr(fmt.Sprintf("read delivery line %d", lineID), err)
		}

		fields := map[string]any{}
		if req.Amount != nil && *req.Amount != line.Amount {
			diff := *req.Amount - line.Amount
			if _, err := s.Ledger.WithTx(tx).Adjust(ctx, line.ProductID, diff); err != nil {
				return err
			}
			fields["amount"] = *req.Amount
			line.Amount = *req.Amount
			touched = true
		}
		if req.PriceOnePhone != nil {
			fields["price_one_phone"] = *req.PriceOnePhone
			line.PriceOnePhone = *req.PriceOnePhone
		}
		if err := txRepo.UpdateDeliveryLine(ctx, lineID, fields); err != nil {
			return storeErr("update delivery line", err)
		}
		return nil
	})
	if err != nil {
		return nil, ledgerErr(err)
	}

	if touched {
		s.stockChanged(ctx, "delivery_corrected", line.DeliveryID, []uint{line.ProductID})
	}
	return line, nil
}

// DeleteDelivery takes the delivered amounts back out of stock and removes the
// delivery. Fails without changes when some of the items were already sold.
func (s *VendorService) DeleteDelivery(ctx context.Context, id uint) error {
	var productIDs []uint
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)
		d, err := txRepo.GetDelivery(ctx, id)
		if err != nil {
			return storeErr(fmt.Sprintf("read delivery %d", id), err)
		}
		ledger := s.Ledger.WithTx(tx)
		for _, line := range d.Lines {
			if _, err := ledger.Adjust(ctx, line.ProductID, -line.Amount); err != nil {
				return err
			}
		}
		if err := txRepo.DeleteDelivery(ctx, id); err != nil {
			return storeErr("delete delivery", err)
		}
		productIDs = deliveryProductIDs(d.Lines)
		return nil
	})
	if err != nil {
		return ledgerErr(err)
	}
	s.stockChanged(ctx, "delivery_reverted", id, productIDs)
	return nil
}

func (s *VendorService) stockChanged(ctx context.Context, eventType string, deliveryID uint, productIDs []uint) {
	s.Catalog.ProductsChanged(ctx, productIDs...)
	publish(ctx, s.Events, events.TopicStockEvents, strconv.FormatUint(uint64(deliveryID), 10), map[string]any{
		"type":        eventType,
		"delivery_id": deliveryID,
		"product_ids": productIDs,
	})
}

// ledgerErr keeps InsufficientStockError intact and maps a missing product to ErrNotFound.
func ledgerErr(err error) error {
	if errors.Is(err, inventory.ErrProductNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func deliveryProductIDs(lines []models.DeliveryLine) []uint {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; !ok {
			seen[l.ProductID] = struct{}{}
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}
