// Package application 实现发运标签管理：按需订舱并取回 PDF 标签。
package application

import (
	"context"
	"fmt"

	orderdomain "github.com/wyfcoding/onlinestore/internal/order/domain"
	"github.com/wyfcoding/onlinestore/internal/shipment/domain"
	"github.com/wyfcoding/onlinestore/pkg/config"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/metrics"
	"github.com/wyfcoding/onlinestore/pkg/utils"
)

// Label 标签取回结果
type Label struct {
	PDF      []byte
	Filename string
}

// LabelService 发运标签服务。订舱订一次，标签可反复取。
type LabelService struct {
	orders       orderdomain.OrderRepository
	carrier      domain.CarrierClient
	storeAddress config.StoreAddressConfig
	metrics      *metrics.Metrics
}

func NewLabelService(orders orderdomain.OrderRepository, carrier domain.CarrierClient, storeAddress config.StoreAddressConfig, m *metrics.Metrics) *LabelService {
	return &LabelService{
		orders:       orders,
		carrier:      carrier,
		storeAddress: storeAddress,
		metrics:      m,
	}
}

// Label 取订单的发运标签。
//   - create 为真且未订舱：校验取货点后向承运商订舱，持久化发运号再取标签。
//   - create 为真且已订舱：跳过订舱，直接重取标签（幂等）。
//   - create 为假且未订舱：ErrNoShipmentYet。
//   - create 为假且已订舱：直接取标签。
func (s *LabelService) Label(ctx context.Context, orderID uint, create bool) (*Label, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.HasShipment() {
		if !create {
			return nil, domain.ErrNoShipmentYet
		}
		if err := s.book(ctx, order); err != nil {
			return nil, err
		}
	}

	pdf, err := s.carrier.FetchLabel(ctx, *order.ShipmentNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch label for %s: %w", order.OrderNumber, err)
	}
	return &Label{
		PDF:      pdf,
		Filename: fmt.Sprintf("label-%s.pdf", order.OrderNumber),
	}, nil
}

// book 订舱并把发运号落库。取货点缺失时不触碰承运商接口。
func (s *LabelService) book(ctx context.Context, order *orderdomain.Order) error {
	pickupPoint := utils.DerefString(order.PickupPointID)
	if pickupPoint == "" {
		return fmt.Errorf("order %s: %w", order.OrderNumber, domain.ErrMissingPickupPoint)
	}

	number, err := s.carrier.CreateShipment(ctx, &domain.ShipmentRequest{
		OrderNumber:   order.OrderNumber,
		PickupPointID: pickupPoint,
		Sender: domain.Party{
			Name:       s.storeAddress.Name,
			Street:     s.storeAddress.Street,
			City:       s.storeAddress.City,
			PostalCode: s.storeAddress.PostalCode,
			Country:    s.storeAddress.Country,
			Phone:      s.storeAddress.Phone,
			Email:      s.storeAddress.Email,
		},
		Recipient: domain.Party{
			Name:       order.ShippingAddress.Name,
			Street:     order.ShippingAddress.Street,
			City:       order.ShippingAddress.City,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
			Phone:      order.ShippingAddress.Phone,
		},
		WeightGrams: order.TotalWeightGrams,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.CarrierErrorsTotal.Inc()
		}
		return fmt.Errorf("book shipment for %s: %w", order.OrderNumber, err)
	}

	if err := s.orders.UpdateShipment(ctx, order.ID, number); err != nil {
		return fmt.Errorf("persist shipment number: %w", err)
	}
	order.ShipmentNumber = &number
	order.Status = orderdomain.StatusShipped

	if s.metrics != nil {
		s.metrics.ShipmentsBookedTotal.Inc()
	}
	logger.Info(ctx, "发运已订舱", "order_number", order.OrderNumber, "shipment_number", number)
	return nil
}
