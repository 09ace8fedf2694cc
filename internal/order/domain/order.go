// 订单域模型。订单是下单瞬间的不可变快照，价格、重量、地址、运费
// 全部拷贝入库，后续只有状态与发运字段会变。
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	// StatusConfirmed 已确认（支付完成后创建即为此态）
	StatusConfirmed OrderStatus = "CONFIRMED"
	// StatusShipped 已发运
	StatusShipped OrderStatus = "SHIPPED"
	// StatusCancelled 已取消
	StatusCancelled OrderStatus = "CANCELLED"
)

// AddressSnapshot 地址快照，嵌入订单行内
type AddressSnapshot struct {
	Name       string `gorm:"size:255" json:"name"`
	Street     string `gorm:"size:255" json:"street"`
	City       string `gorm:"size:128" json:"city"`
	PostalCode string `gorm:"size:32" json:"postal_code"`
	Country    string `gorm:"size:2" json:"country"`
	Phone      string `gorm:"size:32" json:"phone"`
}

// Order 订单
type Order struct {
	gorm.Model
	OrderNumber        string          `gorm:"column:order_number;size:32;uniqueIndex;not null" json:"order_number"`
	UserID             string          `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	Status             OrderStatus     `gorm:"column:status;size:32;not null" json:"status"`
	ShippingAddress    AddressSnapshot `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	BillingAddress     AddressSnapshot `gorm:"embedded;embeddedPrefix:bill_" json:"billing_address"`
	ShippingMethodID   uint            `gorm:"column:shipping_method_id" json:"shipping_method_id"`
	ShippingMethodName string          `gorm:"column:shipping_method_name;size:255" json:"shipping_method_name"`
	ShippingCost       decimal.Decimal `gorm:"column:shipping_cost;type:decimal(12,2)" json:"shipping_cost"`
	EstimatedDays      *int            `gorm:"column:estimated_days" json:"estimated_days"`
	Subtotal           decimal.Decimal `gorm:"column:subtotal;type:decimal(12,2);not null" json:"subtotal"`
	Total              decimal.Decimal `gorm:"column:total;type:decimal(12,2);not null" json:"total"`
	TotalWeightGrams   int             `gorm:"column:total_weight_grams;not null" json:"total_weight_grams"`
	PickupPointID      *string         `gorm:"column:pickup_point_id;size:64" json:"pickup_point_id"`
	ShipmentNumber     *string         `gorm:"column:shipment_number;size:64" json:"shipment_number"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
}

func (Order) TableName() string { return "orders" }

// HasShipment 是否已向承运商订过舱
func (o *Order) HasShipment() bool {
	return o.ShipmentNumber != nil && *o.ShipmentNumber != ""
}

// OrderItem 订单行快照
type OrderItem struct {
	gorm.Model
	OrderID     uint            `gorm:"column:order_id;index;not null" json:"order_id"`
	ProductID   uint            `gorm:"column:product_id;not null" json:"product_id"`
	VariantID   *uint           `gorm:"column:variant_id" json:"variant_id"`
	ProductName string          `gorm:"column:product_name;size:255;not null" json:"product_name"`
	VariantName string          `gorm:"column:variant_name;size:255" json:"variant_name"`
	SKU         string          `gorm:"column:sku;size:64" json:"sku"`
	Quantity    int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:decimal(12,2);not null" json:"line_total"`
	WeightGrams int             `gorm:"column:weight_grams;not null" json:"weight_grams"`
}

func (OrderItem) TableName() string { return "order_items" }

// Address 用户地址簿条目
type Address struct {
	gorm.Model
	UserID            string `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	Name              string `gorm:"column:name;size:255;not null" json:"name"`
	Street            string `gorm:"column:street;size:255;not null" json:"street"`
	City              string `gorm:"column:city;size:128;not null" json:"city"`
	PostalCode        string `gorm:"column:postal_code;size:32;not null" json:"postal_code"`
	Country           string `gorm:"column:country;size:2;not null" json:"country"`
	Phone             string `gorm:"column:phone;size:32" json:"phone"`
	IsDefaultShipping bool   `gorm:"column:is_default_shipping;default:false" json:"is_default_shipping"`
	IsDefaultBilling  bool   `gorm:"column:is_default_billing;default:false" json:"is_default_billing"`
}

func (Address) TableName() string { return "addresses" }

// Snapshot 地址簿条目转订单快照
func (a *Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		Name:       a.Name,
		Street:     a.Street,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

// OutboxStatus 发件箱状态
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "PENDING"
	OutboxSent    OutboxStatus = "SENT"
	OutboxFailed  OutboxStatus = "FAILED"
)

// OutboxMessage 事务性发件箱行。与订单同事务写入，由中继异步投递 Kafka。
type OutboxMessage struct {
	gorm.Model
	Topic     string       `gorm:"column:topic;size:255;not null" json:"topic"`
	Key       string       `gorm:"column:msg_key;size:255;not null" json:"key"`
	Payload   []byte       `gorm:"column:payload;type:blob;not null" json:"payload"`
	Status    OutboxStatus `gorm:"column:status;size:16;index;default:PENDING" json:"status"`
	Attempts  int          `gorm:"column:attempts;default:0" json:"attempts"`
	LastError string       `gorm:"column:last_error;size:1024" json:"last_error"`
	SentAt    *time.Time   `gorm:"column:sent_at" json:"sent_at"`
}

func (OutboxMessage) TableName() string { return "outbox_messages" }
