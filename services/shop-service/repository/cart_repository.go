package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
)

// CartRepository stores one JSON cart per user with a sliding TTL, plus the
// checkout idempotency keys.
type CartRepository struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCartRepository(client redis.Cmdable, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *CartRepository) cartKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func (r *CartRepository) idemKey(key string) string {
	return "idem:checkout:" + key
}

// GetCart returns nil, nil when the user has no cart.
func (r *CartRepository) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("corrupt cart for %s: %w", userID, err)
	}
	return &cart, nil
}

func (r *CartRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.cartKey(cart.UserID), data, r.ttl).Err()
}

func (r *CartRepository) DeleteCart(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.cartKey(userID)).Err()
}

// ReserveIdempotency binds key to orderID unless another request already did,
// in which case the earlier order id is returned.
func (r *CartRepository) ReserveIdempotency(ctx context.Context, key, orderID string, ttl time.Duration) (string, error) {
	ok, err := r.client.SetNX(ctx, r.idemKey(key), orderID, ttl).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return orderID, nil
	}
	existing, err := r.client.Get(ctx, r.idemKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return orderID, r.client.Set(ctx, r.idemKey(key), orderID, ttl).Err()
	}
	if err != nil {
		return "", err
	}
	return existing, nil
}

func (r *CartRepository) LookupIdempotency(ctx context.Context, key string) (string, bool, error) {
	orderID, err := r.client.Get(ctx, r.idemKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return orderID, true, nil
}
