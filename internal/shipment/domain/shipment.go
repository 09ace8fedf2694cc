// 发运域。订单上的发运号就是状态机：空号未订舱，有号已订舱。
package domain

import (
	"context"
	"errors"
)

var (
	// ErrMissingPickupPoint 订舱要求订单带取货点
	ErrMissingPickupPoint = errors.New("order has no pickup point")
	// ErrNoShipmentYet 尚未订舱，无标签可取
	ErrNoShipmentYet = errors.New("no shipment booked yet")
	// ErrCarrierUnavailable 承运商接口超时或网络故障
	ErrCarrierUnavailable = errors.New("carrier unavailable")
	// ErrCarrierRejected 承运商明确拒绝请求
	ErrCarrierRejected = errors.New("carrier rejected request")
)

// Party 发运单上的一方（寄件或收件）
type Party struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// ShipmentRequest 订舱请求
type ShipmentRequest struct {
	OrderNumber   string `json:"order_number"`
	PickupPointID string `json:"pickup_point_id"`
	Sender        Party  `json:"sender"`
	Recipient     Party  `json:"recipient"`
	WeightGrams   int    `json:"weight_grams"`
}

// CarrierClient 承运商客户端。实现方不做内部重试，超时交给调用方 context。
type CarrierClient interface {
	// CreateShipment 订舱，返回承运商发运号
	CreateShipment(ctx context.Context, req *ShipmentRequest) (string, error)
	// FetchLabel 按发运号取 PDF 标签
	FetchLabel(ctx context.Context, shipmentNumber string) ([]byte, error)
}
