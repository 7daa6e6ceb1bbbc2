package repository

import (
	"checkout-service/internal/entity"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"os"
	"time"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// ProductRepository reads the catalog through a redis read-through cache.
type ProductRepository struct {
	db       *sql.DB
	rdb      *redis.Client
	cacheTTL time.Duration
}

func NewProductRepository(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration) *ProductRepository {
	return &ProductRepository{db: db, rdb: rdb, cacheTTL: cacheTTL}
}

func productCacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// GetByID returns the product or a NotFound error.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	// Read from cache
	key := productCacheKey(id)
	productCache, err := r.rdb.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Error().Err(err).Msgf("Error getting product %d from cache", id)
	}

	if productCache != "" {
		var product entity.Product
		err = json.Unmarshal([]byte(productCache), &product)
		if err == nil {
			return &product, nil
		}
		logger.Error().Err(err).Msgf("Error unmarshalling product %d", id)
	}

	product := &entity.Product{}
	query := `SELECT id, sku, name, price, enabled FROM products WHERE id = ?`
	err = r.db.QueryRowContext(ctx, query, id).Scan(&product.ID, &product.SKU, &product.Name, &product.Price, &product.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFoundf("The product that was requested doesn't exist. Verify the product and try again.")
	}
	if err != nil {
		return nil, err
	}

	r.cache(ctx, product)
	return product, nil
}

// WarmCache loads every enabled product into the cache.
func (r *ProductRepository) WarmCache(ctx context.Context) (int, error) {
	query := `SELECT id, sku, name, price, enabled FROM products WHERE enabled = 1`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var product entity.Product
		err := rows.Scan(&product.ID, &product.SKU, &product.Name, &product.Price, &product.Enabled)
		if err != nil {
			return count, err
		}
		r.cache(ctx, &product)
		count++
	}

	return count, rows.Err()
}

// Invalidate drops the cached copy of a product.
func (r *ProductRepository) Invalidate(ctx context.Context, id int64) error {
	return r.rdb.Del(ctx, productCacheKey(id)).Err()
}

func (r *ProductRepository) cache(ctx context.Context, product *entity.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		logger.Error().Err(err).Msgf("Error marshalling product %d", product.ID)
		return
	}
	err = r.rdb.Set(ctx, productCacheKey(product.ID), data, r.cacheTTL).Err()
	if err != nil {
		logger.Error().Err(err).Msgf("Error setting product %d in cache", product.ID)
	}
}
