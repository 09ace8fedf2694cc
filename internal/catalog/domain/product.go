// 商品与变体聚合。变体可按字段覆盖商品的价格与重量，两个字段相互独立。
package domain

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("product variant not found")
)

// Product 商品
type Product struct {
	gorm.Model
	Name        string           `gorm:"column:name;size:255;not null" json:"name"`
	SKU         string           `gorm:"column:sku;size:64;uniqueIndex;not null" json:"sku"`
	Price       decimal.Decimal  `gorm:"column:price;type:decimal(12,2);not null" json:"price"`
	WeightGrams int              `gorm:"column:weight_grams;not null" json:"weight_grams"`
	ImageKey    string           `gorm:"column:image_key;size:255" json:"image_key"`
	IsActive    bool             `gorm:"column:is_active;default:true" json:"is_active"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID" json:"variants"`
}

func (Product) TableName() string { return "products" }

// ProductVariant 商品变体。Price/WeightGrams 为空时回落到商品本身的值。
type ProductVariant struct {
	gorm.Model
	ProductID   uint                `gorm:"column:product_id;index;not null" json:"product_id"`
	Name        string              `gorm:"column:name;size:255;not null" json:"name"`
	SKU         string              `gorm:"column:sku;size:64;uniqueIndex" json:"sku"`
	Price       decimal.NullDecimal `gorm:"column:price;type:decimal(12,2)" json:"price"`
	WeightGrams *int                `gorm:"column:weight_grams" json:"weight_grams"`
	IsActive    bool                `gorm:"column:is_active;default:true" json:"is_active"`
}

func (ProductVariant) TableName() string { return "product_variants" }

// Variant 按 ID 查找变体
func (p *Product) Variant(variantID uint) (*ProductVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// EffectivePrice 行生效价格：变体价格非空则覆盖，否则取商品价格
func (p *Product) EffectivePrice(v *ProductVariant) decimal.Decimal {
	if v != nil && v.Price.Valid {
		return v.Price.Decimal
	}
	return p.Price
}

// EffectiveWeightGrams 行生效重量：变体重量非空则覆盖，否则取商品重量
func (p *Product) EffectiveWeightGrams(v *ProductVariant) int {
	if v != nil && v.WeightGrams != nil {
		return *v.WeightGrams
	}
	return p.WeightGrams
}
