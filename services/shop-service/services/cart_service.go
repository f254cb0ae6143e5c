package services

import (
	"context"

	"github.com/yashrajoria/capture-backend/pkg/docstore"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"go.uber.org/zap"
)

// CartStore is satisfied by *repository.CartRepository.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

type CartService struct {
	store   CartStore
	gateway docstore.Gateway
	logger  *zap.Logger
}

func NewCartService(store CartStore, gateway docstore.Gateway, logger *zap.Logger) *CartService {
	return &CartService{store: store, gateway: gateway, logger: logger}
}

// Get returns the user's cart, empty when none is stored.
func (s *CartService) Get(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("userID", userID), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	if cart == nil {
		cart = models.NewCart(userID)
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := s.store.SaveCart(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("userID", cart.UserID), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	return cart, nil
}

// AddItem adds one unit of the product, snapshotting its current name, price
// and primary image.
func (s *CartService) AddItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	var product models.Product
	if err := s.gateway.Get(ctx, docstore.Products, productID, &product); err != nil {
		return nil, remoteErr(err)
	}
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Add(product)
	return s.save(ctx, cart)
}

func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.SetQuantity(productID, quantity) {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "product %s is not in the cart", productID)
	}
	return s.save(ctx, cart)
}

// Remove is a no-op for products not in the cart.
func (s *CartService) Remove(ctx context.Context, userID, productID string) (*models.Cart, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.Remove(productID) {
		return cart, nil
	}
	return s.save(ctx, cart)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.store.DeleteCart(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart", zap.String("userID", userID), zap.Error(err))
		return apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	return nil
}
