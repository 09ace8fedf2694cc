// Package application 实现运费报价引擎与配送配置管理。
package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/onlinestore/internal/shipping/domain"
	"github.com/wyfcoding/onlinestore/pkg/logger"
)

// CartContext 报价所需的购物车上下文。Known 为 false 表示调用方没有可用购物车，
// 此时依赖小计或重量的方式不出现在报价里。
type CartContext struct {
	Subtotal    decimal.Decimal
	WeightGrams int
	Known       bool
}

// Option 一条可选运费报价。RequiresCart 标记价格是否依赖购物车内容。
type Option struct {
	MethodID      uint            `json:"method_id"`
	ZoneID        uint            `json:"zone_id"`
	CarrierID     *uint           `json:"carrier_id,omitempty"`
	Name          string          `json:"name"`
	RateType      domain.RateType `json:"rate_type"`
	Price         decimal.Decimal `json:"price"`
	EstimatedDays *int            `json:"estimated_days,omitempty"`
	RequiresCart  bool            `json:"requires_cart"`
	displayOrder  int
}

// RateEngine 运费报价引擎
type RateEngine struct {
	zones domain.ZoneRepository
}

func NewRateEngine(zones domain.ZoneRepository) *RateEngine {
	return &RateEngine{zones: zones}
}

// Quote 按目的国与购物车上下文给出全部可选运费。
// 同一方式经多个区域命中时只报一次；无任何命中返回空列表而非错误。
func (e *RateEngine) Quote(ctx context.Context, country string, cart CartContext) ([]Option, error) {
	if !validCountry(country) {
		return nil, fmt.Errorf("%q: %w", country, domain.ErrInvalidCountry)
	}

	zones, err := e.zones.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shipping zones: %w", err)
	}

	options := make([]Option, 0)
	seen := make(map[uint]struct{})
	for _, zone := range zones {
		if !zone.Covers(country) {
			continue
		}
		for i := range zone.Methods {
			method := &zone.Methods[i]
			if !method.IsActive {
				continue
			}
			if _, dup := seen[method.ID]; dup {
				continue
			}
			price, requiresCart, offered := e.price(method, cart)
			if !offered {
				continue
			}
			seen[method.ID] = struct{}{}
			options = append(options, Option{
				MethodID:      method.ID,
				ZoneID:        zone.ID,
				CarrierID:     method.CarrierID,
				Name:          method.Name,
				RateType:      method.RateType,
				Price:         price,
				EstimatedDays: method.EstimatedDays,
				RequiresCart:  requiresCart,
				displayOrder:  method.DisplayOrder,
			})
		}
	}

	sort.SliceStable(options, func(i, j int) bool {
		if options[i].displayOrder != options[j].displayOrder {
			return options[i].displayOrder < options[j].displayOrder
		}
		return options[i].Name < options[j].Name
	})
	return options, nil
}

// QuoteMethod 对指定方式单独报价，下单时用来核对所选方式仍然有效。
func (e *RateEngine) QuoteMethod(ctx context.Context, methodID uint, country string, cart CartContext) (*Option, error) {
	options, err := e.Quote(ctx, country, cart)
	if err != nil {
		return nil, err
	}
	for i := range options {
		if options[i].MethodID == methodID {
			return &options[i], nil
		}
	}
	return nil, fmt.Errorf("method %d for %s: %w", methodID, country, domain.ErrMethodNotFound)
}

// price 计算方式的报价。最后一个返回值为 false 表示该方式在当前上下文下不出现。
func (e *RateEngine) price(m *domain.ShippingMethod, cart CartContext) (price decimal.Decimal, requiresCart, offered bool) {
	switch m.RateType {
	case domain.RateFlat:
		return m.FlatRate, false, true
	case domain.RateFree:
		// 未配置门槛视为无条件免邮
		if !m.FreeThreshold.Valid {
			return decimal.Zero, false, true
		}
		if !cart.Known || cart.Subtotal.LessThan(m.FreeThreshold.Decimal) {
			return decimal.Zero, true, false
		}
		return decimal.Zero, true, true
	case domain.RatePriceBased:
		if !cart.Known {
			return decimal.Zero, true, false
		}
		rate, ok := pickTier(m.Tiers, cart.Subtotal)
		return rate, true, ok
	case domain.RateWeightBased:
		if !cart.Known {
			return decimal.Zero, true, false
		}
		rate, ok := pickTier(m.Tiers, decimal.NewFromInt(int64(cart.WeightGrams)))
		return rate, true, ok
	default:
		logger.Warn(context.Background(), "未知的运费计费方式", "method_id", m.ID, "rate_type", m.RateType)
		return decimal.Zero, false, false
	}
}

// pickTier 取下界不超过 value 的最后一档；value 低于最低档下界时不报价
func pickTier(tiers []domain.RateTier, value decimal.Decimal) (decimal.Decimal, bool) {
	sorted := make([]domain.RateTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Bound.LessThan(sorted[j].Bound)
	})

	rate := decimal.Zero
	found := false
	for _, tier := range sorted {
		if value.GreaterThanOrEqual(tier.Bound) {
			rate = tier.Rate
			found = true
		}
	}
	return rate, found
}

// validCountry 两位 ASCII 字母
func validCountry(country string) bool {
	if len(country) != 2 {
		return false
	}
	for _, r := range country {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
