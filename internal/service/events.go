package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ken-b2024/ecommerce-api/internal/models"
	"github.com/ken-b2024/ecommerce-api/internal/mykafka"
	"github.com/ken-b2024/ecommerce-api/pkg/cache"
	"github.com/ken-b2024/ecommerce-api/pkg/logging"
)

const (
	EventUserCreated    = "user_created"
	EventUserUpdated    = "user_updated"
	EventUserDeleted    = "user_deleted"
	EventProductCreated = "product_created"
	EventProductUpdated = "product_updated"
	EventProductDeleted = "product_deleted"
	EventStockUpdated   = "stock_updated"
	EventOrderCreated   = "order_created"
	EventOrderDeleted   = "order_deleted"
)

func idKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// publish runs after the database commit; a broker failure is logged and
// never fails the request.
func publish(ctx context.Context, p mykafka.Publisher, key, eventType string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, key, eventType, payload); err != nil {
		logging.FromContext(ctx).Error("publish_event_error", "type", eventType, "key", key, "error", err)
	}
}

// ProductCache is a read-through cache of single products. Every
// invalidation bumps a per-product generation; a value read from the
// database is only cached if no invalidation happened since the read began.
type ProductCache struct {
	Cache cache.Cache
	TTL   time.Duration

	mu   sync.Mutex
	gens map[uint]uint64
}

func productKey(id uint) string {
	return "product:" + idKey(id)
}

func (c *ProductCache) get(ctx context.Context, id uint) (*models.Product, bool) {
	if c == nil || c.Cache == nil {
		return nil, false
	}
	var p models.Product
	ok, err := c.Cache.Get(ctx, productKey(id), &p)
	if err != nil {
		logging.FromContext(ctx).Warn("product_cache_get_error", "product_id", id, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &p, true
}

// generation must be taken before the database read whose result is
// passed to put.
func (c *ProductCache) generation(id uint) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[id]
}

// put holds the lock through Set so an invalidation either lands first and
// skips the write, or deletes the key after it.
func (c *ProductCache) put(ctx context.Context, p *models.Product, gen uint64) {
	if c == nil || c.Cache == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[p.ID] != gen {
		return
	}
	if err := c.Cache.Set(ctx, productKey(p.ID), p, c.TTL); err != nil {
		logging.FromContext(ctx).Warn("product_cache_set_error", "product_id", p.ID, "error", err)
	}
}

func (c *ProductCache) invalidate(ctx context.Context, ids ...uint) {
	if c == nil || c.Cache == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	c.mu.Lock()
	if c.gens == nil {
		c.gens = make(map[uint]uint64)
	}
	for _, id := range ids {
		c.gens[id]++
		keys = append(keys, productKey(id))
	}
	c.mu.Unlock()
	if err := c.Cache.Delete(ctx, keys...); err != nil {
		logging.FromContext(ctx).Warn("product_cache_invalidate_error", "product_ids", ids, "error", err)
	}
}
