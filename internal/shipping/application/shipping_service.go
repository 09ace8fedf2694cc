package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/wyfcoding/onlinestore/internal/shipping/domain"
)

// ShippingService 配送配置管理服务
type ShippingService struct {
	zones    domain.ZoneRepository
	carriers domain.CarrierRepository
}

func NewShippingService(zones domain.ZoneRepository, carriers domain.CarrierRepository) *ShippingService {
	return &ShippingService{zones: zones, carriers: carriers}
}

// SaveZone 新建或更新区域。国家码统一转大写存储。
func (s *ShippingService) SaveZone(ctx context.Context, zone *domain.ShippingZone) error {
	for i, c := range zone.Countries {
		if !validCountry(c) {
			return fmt.Errorf("%q: %w", c, domain.ErrInvalidCountry)
		}
		zone.Countries[i] = strings.ToUpper(c)
	}
	if err := s.zones.Save(ctx, zone); err != nil {
		return fmt.Errorf("save zone: %w", err)
	}
	return nil
}

// GetZone 获取区域及其方式
func (s *ShippingService) GetZone(ctx context.Context, id uint) (*domain.ShippingZone, error) {
	return s.zones.GetByID(ctx, id)
}

// ListActiveZones 列出启用区域
func (s *ShippingService) ListActiveZones(ctx context.Context) ([]domain.ShippingZone, error) {
	return s.zones.ListActive(ctx)
}

// DeleteZone 删除区域及其全部方式
func (s *ShippingService) DeleteZone(ctx context.Context, id uint) error {
	return s.zones.Delete(ctx, id)
}

// ListCarriers 列出承运商
func (s *ShippingService) ListCarriers(ctx context.Context) ([]domain.Carrier, error) {
	return s.carriers.List(ctx)
}

// SaveCarrier 新建或更新承运商
func (s *ShippingService) SaveCarrier(ctx context.Context, carrier *domain.Carrier) error {
	if carrier.Code == "" {
		return fmt.Errorf("carrier code is required")
	}
	return s.carriers.Save(ctx, carrier)
}
