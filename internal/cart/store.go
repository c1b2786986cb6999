// Package cart keeps each shopper's pending cart in Redis. A cart is a hash
// of product id to quantity that expires after a period of inactivity.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smarthealth/storefront/config"
	"github.com/smarthealth/storefront/internal/domain"
)

const keyPrefix = "storefront:cart:"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrNoUser          = errors.New("user id is required")
)

// Store is a Redis backed cart store
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore wraps client; a zero ttl keeps carts forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Dial connects to cfg.URL and checks the server answers. Timeouts are in seconds.
func Dial(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = time.Duration(cfg.DialTimeout) * time.Second
	}
	if cfg.ReadTimeout > 0 {
		opt.ReadTimeout = time.Duration(cfg.ReadTimeout) * time.Second
	}
	if cfg.WriteTimeout > 0 {
		opt.WriteTimeout = time.Duration(cfg.WriteTimeout) * time.Second
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func key(userID string) string {
	return keyPrefix + userID
}

// Lines returns the cart ordered by product id. Unparseable entries are skipped.
func (s *Store) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	raw, err := s.client.HGetAll(ctx, key(userID)).Result()
	if err != nil {
		return nil, err
	}
	lines := make([]domain.CartLine, 0, len(raw))
	for field, val := range raw {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(val)
		if err != nil || qty <= 0 {
			continue
		}
		lines = append(lines, domain.CartLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

// Add increments the quantity of a product and returns the new quantity.
func (s *Store) Add(ctx context.Context, userID string, productID int64, qty int) (int, error) {
	if userID == "" {
		return 0, ErrNoUser
	}
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	k := key(userID)
	pipe := s.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, k, strconv.FormatInt(productID, 10), int64(qty))
	s.touch(ctx, pipe, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// Set overwrites the quantity of a product; zero removes it.
func (s *Store) Set(ctx context.Context, userID string, productID int64, qty int) error {
	if userID == "" {
		return ErrNoUser
	}
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if qty == 0 {
		return s.Remove(ctx, userID, productID)
	}
	k := key(userID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, strconv.FormatInt(productID, 10), qty)
	s.touch(ctx, pipe, k)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Remove(ctx context.Context, userID string, productID int64) error {
	if userID == "" {
		return ErrNoUser
	}
	return s.client.HDel(ctx, key(userID), strconv.FormatInt(productID, 10)).Err()
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNoUser
	}
	return s.client.Del(ctx, key(userID)).Err()
}

func (s *Store) touch(ctx context.Context, pipe redis.Pipeliner, k string) {
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
}
