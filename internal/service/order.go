package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/phone_shop/internal/inventory"
	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/repo"
	"github.com/Skotchmaster/phone_shop/internal/transport"
	"github.com/Skotchmaster/phone_shop/pkg/events"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
)

var tracer = otel.Tracer("github.com/Skotchmaster/phone_shop/internal/service")

// BuyerIdentity is either a registered user or a guest with contact details.
type BuyerIdentity struct {
	UserID *uint
	Email  string
	Phone  string
}

func Registered(userID uint) BuyerIdentity {
	return BuyerIdentity{UserID: &userID}
}

func Guest(email, phone string) BuyerIdentity {
	return BuyerIdentity{Email: strings.TrimSpace(email), Phone: strings.TrimSpace(phone)}
}

func (b BuyerIdentity) IsGuest() bool { return b.UserID == nil }

func (b BuyerIdentity) validate() error {
	if !b.IsGuest() {
		if *b.UserID == 0 {
			return fmt.Errorf("%w: user id required", ErrValidation)
		}
		return nil
	}
	return checkStruct(guestContact{Email: b.Email, Phone: b.Phone})
}

// guestContact is what a guest has to leave instead of an account.
type guestContact struct {
	Email string `json:"email"            validate:"required,email,max=254"`
	Phone string `json:"number_telephone" validate:"required,max=20"`
}

type PlaceOrderInput struct {
	Buyer      BuyerIdentity               `json:"-"`
	FirstName  string                      `json:"first_name"  validate:"required,max=50"`
	SecondName string                      `json:"second_name" validate:"max=50"`
	Surname    string                      `json:"surname"     validate:"required,max=50"`
	Address    transport.AddressRequest    `json:"address"`
	Lines      []transport.CreateOrderItem `json:"products"    validate:"required,min=1,dive"`
}

// validate trims the free text fields in place before checking them.
func (in *PlaceOrderInput) validate() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.SecondName = strings.TrimSpace(in.SecondName)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Address.StreetName = strings.TrimSpace(in.Address.StreetName)
	in.Address.PostCode = strings.TrimSpace(in.Address.PostCode)
	if err := checkStruct(in); err != nil {
		return err
	}
	return in.Buyer.validate()
}

type OrderView struct {
	*models.Order
	FullPrice int64 `json:"full_price"`
}

func newOrderView(o *models.Order) *OrderView {
	return &OrderView{Order: o, FullPrice: o.FullPrice()}
}

type OrderService struct {
	Repo    *repo.GormRepo
	Ledger  *inventory.Ledger
	Catalog *CatalogService
	Events  EventPublisher
}

// PlaceOrder creates the address, takes every line out of stock, snapshots
// the effective prices and stores the order. Either all of it is committed
// or nothing is.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*OrderView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "order.place")
	defer span.End()
	span.SetAttributes(attribute.Int("order.lines", len(in.Lines)), attribute.Bool("order.guest", in.Buyer.IsGuest()))

	var orderID uint
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)
		ledger := s.Ledger.WithTx(tx)

		ok, err := txRepo.CityExists(ctx, in.Address.CityID)
		if err != nil {
			return storeErr("check city", err)
		}
		if !ok {
			return fmt.Errorf("%w: city %d", ErrNotFound, in.Address.CityID)
		}

		address := models.Address{
			StreetName: strings.TrimSpace(in.Address.StreetName),
			PostCode:   strings.TrimSpace(in.Address.PostCode),
			CityID:     in.Address.CityID,
		}
		if err := txRepo.CreateAddress(ctx, &address); err != nil {
			return storeErr("insert address", err)
		}

		lines := make([]models.OrderLine, 0, len(in.Lines))
		for _, item := range in.Lines {
			product, err := ledger.Adjust(ctx, item.ProductID, -item.Amount)
			if err != nil {
				return err
			}
			image, err := txRepo.FirstProductImage(ctx, product.ID)
			if err != nil {
				return storeErr("read product image", err)
			}
			lines = append(lines, models.OrderLine{
				ProductID: product.ID,
				Price:     EffectivePrice(product.Price, product.Discount),
				Amount:    item.Amount,
				Image:     image,
			})
		}

		order := models.Order{
			UserID:     in.Buyer.UserID,
			Status:     models.OrderStatusPending,
			AddressID:  address.ID,
			FirstName:  strings.TrimSpace(in.FirstName),
			SecondName: strings.TrimSpace(in.SecondName),
			Surname:    strings.TrimSpace(in.Surname),
		}
		if in.Buyer.IsGuest() {
			order.GuestEmail = in.Buyer.Email
			order.GuestPhone = in.Buyer.Phone
		}
		if err := txRepo.CreateOrder(ctx, &order, lines); err != nil {
			return storeErr("insert order", err)
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "place order failed")
		return nil, ledgerErr(err)
	}
	span.SetAttributes(attribute.Int64("order.id", int64(orderID)))

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr("read order", err)
	}
	view := newOrderView(order)

	s.Catalog.ProductsChanged(ctx, lineProductIDs(order.Lines)...)
	publish(ctx, s.Events, events.TopicOrderEvents, strconv.FormatUint(uint64(order.ID), 10), map[string]any{
		"type":       "order_created",
		"order_id":   order.ID,
		"user_id":    order.UserID,
		"guest":      in.Buyer.IsGuest(),
		"full_price": view.FullPrice,
		"lines":      len(order.Lines),
	})
	logging.FromContext(ctx).Info("order_placed", "order_id", order.ID, "full_price", view.FullPrice)

	return view, nil
}

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending: {models.OrderStatusSended, models.OrderStatusCanceled},
	models.OrderStatusSended:  {models.OrderStatusDone, models.OrderStatusCanceled},
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ChangeStatus moves an order through the status machine. Admins may make any
// allowed move, the owner of the order may only cancel it. Cancelling puts
// every line back into stock in the same transaction.
func (s *OrderService) ChangeStatus(ctx context.Context, orderID uint, target models.OrderStatus, actor Actor) (*OrderView, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, target)
	}

	ctx, span := tracer.Start(ctx, "order.change_status")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", int64(orderID)), attribute.String("order.target", string(target)))

	var from models.OrderStatus
	var restocked []uint
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)

		order, err := txRepo.GetOrder(ctx, orderID)
		if err != nil {
			return storeErr("read order", err)
		}
		if !actor.Admin {
			if !actor.Owns(order.UserID) {
				return fmt.Errorf("%w: order %d belongs to another user", ErrForbidden, orderID)
			}
			if target != models.OrderStatusCanceled {
				return fmt.Errorf("%w: users may only cancel orders", ErrForbidden)
			}
		}
		from = order.Status
		if !CanTransition(from, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
		}

		moved, err := txRepo.SetOrderStatus(ctx, orderID, from, target)
		if err != nil {
			return storeErr("update order status", err)
		}
		if !moved {
			return fmt.Errorf("%w: order %d changed concurrently", ErrInvalidTransition, orderID)
		}

		if target == models.OrderStatusCanceled {
			ledger := s.Ledger.WithTx(tx)
			for _, line := range order.Lines {
				if _, err := ledger.Adjust(ctx, line.ProductID, line.Amount); err != nil {
					return fmt.Errorf("restock product %d: %w", line.ProductID, ledgerErr(err))
				}
				restocked = append(restocked, line.ProductID)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "change status failed")
		return nil, err
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr("read order", err)
	}

	s.Catalog.ProductsChanged(ctx, restocked...)
	publish(ctx, s.Events, events.TopicOrderEvents, strconv.FormatUint(uint64(orderID), 10), map[string]any{
		"type":     "order_status_changed",
		"order_id": orderID,
		"from":     from,
		"to":       target,
		"by_admin": actor.Admin,
	})

	return newOrderView(order), nil
}

// Cancel is ChangeStatus to CANCELED.
func (s *OrderService) Cancel(ctx context.Context, orderID uint, actor Actor) (*OrderView, error) {
	return s.ChangeStatus(ctx, orderID, models.OrderStatusCanceled, actor)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint, actor Actor) (*OrderView, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr("read order", err)
	}
	if !actor.Admin && !actor.Owns(order.UserID) {
		return nil, fmt.Errorf("%w: order %d belongs to another user", ErrForbidden, orderID)
	}
	return newOrderView(order), nil
}

type OrderListFilter struct {
	UserID *uint
	Status models.OrderStatus
	Offset int
	Limit  int
}

func (s *OrderService) ListOrders(ctx context.Context, f OrderListFilter) (int64, []*OrderView, error) {
	if f.Status != "" && !f.Status.Valid() {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	total, orders, err := s.Repo.ListOrders(ctx, repo.OrderFilter{
		UserID: f.UserID,
		Status: f.Status,
		Offset: f.Offset,
		Limit:  f.Limit,
	})
	if err != nil {
		return 0, nil, storeErr("list orders", err)
	}
	views := make([]*OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	return total, views, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID uint, offset, limit int) (int64, []*OrderView, error) {
	return s.ListOrders(ctx, OrderListFilter{UserID: &userID, Offset: offset, Limit: limit})
}

// PatchOrder edits the recipient names. Status has its own operation.
func (s *OrderService) PatchOrder(ctx context.Context, orderID uint, req transport.PatchOrderRequest) (*OrderView, error) {
	fields, err := nameFields(true, req.FirstName, req.SecondName, req.Surname)
	if err != nil {
		return nil, err
	}
	if req.AddressID != nil {
		ok, err := s.Repo.AddressExists(ctx, *req.AddressID)
		if err != nil {
			return nil, storeErr("check address", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: address %d", ErrNotFound, *req.AddressID)
		}
		fields["address_id"] = *req.AddressID
	}
	if err := s.Repo.UpdateOrder(ctx, orderID, fields); err != nil {
		return nil, storeErr("update order", err)
	}
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr("read order", err)
	}
	return newOrderView(order), nil
}

func lineProductIDs(lines []models.OrderLine) []uint {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
