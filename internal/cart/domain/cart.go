// 购物车聚合。购物车的归属键是用户 ID 或访客会话令牌，二者有且只有一个。
package domain

import (
	"gorm.io/gorm"
)

// Cart 购物车
type Cart struct {
	gorm.Model
	UserID       *string    `gorm:"column:user_id;type:varchar(36);uniqueIndex" json:"user_id"`
	SessionToken *string    `gorm:"column:session_token;type:varchar(64);uniqueIndex" json:"session_token"`
	Items        []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

func (Cart) TableName() string { return "carts" }

// CartItem 购物车行。(cart_id, product_id, variant_id) 唯一，重复加购累加数量。
type CartItem struct {
	gorm.Model
	CartID    uint  `gorm:"column:cart_id;uniqueIndex:uk_cart_product_variant;not null" json:"cart_id"`
	ProductID uint  `gorm:"column:product_id;uniqueIndex:uk_cart_product_variant;not null" json:"product_id"`
	VariantID *uint `gorm:"column:variant_id;uniqueIndex:uk_cart_product_variant" json:"variant_id"`
	Quantity  int   `gorm:"column:quantity;not null" json:"quantity"`
}

func (CartItem) TableName() string { return "cart_items" }

// SameLine 判断两行是否指向同一 (商品, 变体) 组合
func (i *CartItem) SameLine(productID uint, variantID *uint) bool {
	if i.ProductID != productID {
		return false
	}
	if i.VariantID == nil || variantID == nil {
		return i.VariantID == variantID
	}
	return *i.VariantID == *variantID
}

// AddItem 追加一行；已存在同组合则累加数量
func (c *Cart) AddItem(productID uint, variantID *uint, qty int) {
	for idx := range c.Items {
		if c.Items[idx].SameLine(productID, variantID) {
			c.Items[idx].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, CartItem{CartID: c.ID, ProductID: productID, VariantID: variantID, Quantity: qty})
}

// FindItem 查找同 (商品, 变体) 组合的行
func (c *Cart) FindItem(productID uint, variantID *uint) (*CartItem, bool) {
	for idx := range c.Items {
		if c.Items[idx].SameLine(productID, variantID) {
			return &c.Items[idx], true
		}
	}
	return nil, false
}

// RemoveItem 删除同 (商品, 变体) 组合的行
func (c *Cart) RemoveItem(productID uint, variantID *uint) bool {
	for idx := range c.Items {
		if c.Items[idx].SameLine(productID, variantID) {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty 是否为空车。空车不会被自动删除。
func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }
