// 配送域模型。区域圈定国家，方式挂在区域下定价，承运商负责实际履约。
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RateType 计费方式
type RateType string

const (
	// RateFlat 固定运费
	RateFlat RateType = "FLAT"
	// RateFree 满额免邮
	RateFree RateType = "FREE"
	// RatePriceBased 按购物车小计分档
	RatePriceBased RateType = "PRICE_BASED"
	// RateWeightBased 按总重分档
	RateWeightBased RateType = "WEIGHT_BASED"
)

// ShippingZone 配送区域。Countries 为空表示通配所有国家。
type ShippingZone struct {
	gorm.Model
	Name         string           `gorm:"column:name;size:255;not null" json:"name"`
	Countries    []string         `gorm:"column:countries;serializer:json" json:"countries"`
	IsActive     bool             `gorm:"column:is_active;default:true" json:"is_active"`
	DisplayOrder int              `gorm:"column:display_order;default:0" json:"display_order"`
	Methods      []ShippingMethod `gorm:"foreignKey:ZoneID" json:"methods"`
}

func (ShippingZone) TableName() string { return "shipping_zones" }

// Covers 区域是否覆盖给定国家码（大小写不敏感，空列表通配）
func (z *ShippingZone) Covers(country string) bool {
	if len(z.Countries) == 0 {
		return true
	}
	for _, c := range z.Countries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

// RateTier 分档。Bound 对按价计费是小计下界，对按重计费是克数下界。
type RateTier struct {
	Bound decimal.Decimal `json:"bound"`
	Rate  decimal.Decimal `json:"rate"`
}

// ShippingMethod 配送方式
type ShippingMethod struct {
	gorm.Model
	ZoneID        uint                `gorm:"column:zone_id;index;not null" json:"zone_id"`
	CarrierID     *uint               `gorm:"column:carrier_id" json:"carrier_id"`
	Name          string              `gorm:"column:name;size:255;not null" json:"name"`
	RateType      RateType            `gorm:"column:rate_type;size:32;not null" json:"rate_type"`
	FlatRate      decimal.Decimal     `gorm:"column:flat_rate;type:decimal(12,2)" json:"flat_rate"`
	FreeThreshold decimal.NullDecimal `gorm:"column:free_threshold;type:decimal(12,2)" json:"free_threshold"`
	Tiers         []RateTier          `gorm:"column:tiers;serializer:json" json:"tiers"`
	EstimatedDays *int                `gorm:"column:estimated_days" json:"estimated_days"`
	IsActive      bool                `gorm:"column:is_active;default:true" json:"is_active"`
	DisplayOrder  int                 `gorm:"column:display_order;default:0" json:"display_order"`
}

func (ShippingMethod) TableName() string { return "shipping_methods" }

// Carrier 承运商
type Carrier struct {
	gorm.Model
	Name        string `gorm:"column:name;size:255;not null" json:"name"`
	Code        string `gorm:"column:code;size:64;uniqueIndex;not null" json:"code"`
	SupportsAPI bool   `gorm:"column:supports_api;default:false" json:"supports_api"`
	IsActive    bool   `gorm:"column:is_active;default:true" json:"is_active"`
}

func (Carrier) TableName() string { return "carriers" }
