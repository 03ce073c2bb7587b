package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/repo"
)

type WishlistService struct {
	Repo *repo.GormRepo
}

func (s *WishlistService) List(ctx context.Context, userID uint) ([]models.WishlistItem, error) {
	items, err := s.Repo.ListWishlist(ctx, userID)
	if err != nil {
		return nil, storeErr("list wish-list", err)
	}
	return items, nil
}

func (s *WishlistService) Add(ctx context.Context, userID, productID uint) (*models.WishlistItem, error) {
	ok, err := s.Repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, storeErr("check product", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	item := &models.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.Repo.AddToWishlist(ctx, item); err != nil {
		return nil, storeErr("add to wish-list", err)
	}
	return item, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uint) error {
	removed, err := s.Repo.RemoveFromWishlist(ctx, userID, productID)
	if err != nil {
		return storeErr("remove from wish-list", err)
	}
	if !removed {
		return fmt.Errorf("%w: product %d is not in the wish-list", ErrNotFound, productID)
	}
	return nil
}
