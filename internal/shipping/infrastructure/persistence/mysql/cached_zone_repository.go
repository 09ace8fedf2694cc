package mysql

import (
	"context"
	"time"

	"github.com/wyfcoding/onlinestore/internal/shipping/domain"
	"github.com/wyfcoding/onlinestore/pkg/cache"
	"github.com/wyfcoding/onlinestore/pkg/logger"
)

const (
	activeZonesKey = "shipping:zones:active"
	activeZonesTTL = 5 * time.Minute
)

// cachedZoneRepository 用 Redis 缓存启用区域列表，写操作失效缓存。
// 报价在每次结账页刷新都要读区域配置，而配置本身极少变化。
type cachedZoneRepository struct {
	inner domain.ZoneRepository
	cache *cache.RedisCache
}

// NewCachedZoneRepository 包装区域仓储加 Redis 读缓存
func NewCachedZoneRepository(inner domain.ZoneRepository, c *cache.RedisCache) domain.ZoneRepository {
	return &cachedZoneRepository{inner: inner, cache: c}
}

func (r *cachedZoneRepository) ListActive(ctx context.Context) ([]domain.ShippingZone, error) {
	var zones []domain.ShippingZone
	if err := r.cache.GetJSON(ctx, activeZonesKey, &zones); err == nil {
		return zones, nil
	}

	zones, err := r.inner.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetJSON(ctx, activeZonesKey, zones, activeZonesTTL); err != nil {
		logger.Warn(ctx, "区域列表缓存写入失败", "error", err)
	}
	return zones, nil
}

func (r *cachedZoneRepository) GetByID(ctx context.Context, id uint) (*domain.ShippingZone, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *cachedZoneRepository) Save(ctx context.Context, zone *domain.ShippingZone) error {
	if err := r.inner.Save(ctx, zone); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedZoneRepository) Delete(ctx context.Context, id uint) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedZoneRepository) invalidate(ctx context.Context) {
	if err := r.cache.Delete(ctx, activeZonesKey); err != nil {
		logger.Warn(ctx, "区域列表缓存失效失败", "error", err)
	}
}
