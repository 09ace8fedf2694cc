package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cartapp "github.com/wyfcoding/onlinestore/internal/cart/application"
	cartdomain "github.com/wyfcoding/onlinestore/internal/cart/domain"
	checkoutapp "github.com/wyfcoding/onlinestore/internal/checkout/application"
	"github.com/wyfcoding/onlinestore/internal/order/domain"
	shippingapp "github.com/wyfcoding/onlinestore/internal/shipping/application"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/metrics"
)

// ErrUserRequired 下单必须是登录用户
var ErrUserRequired = errors.New("placing an order requires a logged-in user")

// numberAttempts 订单号冲突重试上限
const numberAttempts = 3

// TxRepos 绑定同一事务的仓储集合
type TxRepos struct {
	Orders domain.OrderRepository
	Outbox domain.OutboxRepository
	Carts  cartdomain.CartRepository
}

// TxRunner 在单个事务内执行下单写入
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// PlaceOrderRequest 下单请求。支付确认后由回调方调用。
type PlaceOrderRequest struct {
	ShippingAddressID uint    `json:"shipping_address_id" binding:"required"`
	BillingAddressID  *uint   `json:"billing_address_id"`
	ShippingMethodID  uint    `json:"shipping_method_id" binding:"required"`
	PickupPointID     *string `json:"pickup_point_id"`
}

// OrderCreatedEvent 订单创建事件，经发件箱投递 Kafka
type OrderCreatedEvent struct {
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Total       string    `json:"total"`
	Lines       int       `json:"lines"`
	Country     string    `json:"country"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderService 订单应用服务
type OrderService struct {
	orders     domain.OrderRepository
	addresses  domain.AddressRepository
	aggregator *checkoutapp.Aggregator
	rateEngine *shippingapp.RateEngine
	numbers    *NumberGenerator
	tx         TxRunner
	orderTopic string
	metrics    *metrics.Metrics
}

func NewOrderService(
	orders domain.OrderRepository,
	addresses domain.AddressRepository,
	aggregator *checkoutapp.Aggregator,
	rateEngine *shippingapp.RateEngine,
	numbers *NumberGenerator,
	tx TxRunner,
	orderTopic string,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		orders:     orders,
		addresses:  addresses,
		aggregator: aggregator,
		rateEngine: rateEngine,
		numbers:    numbers,
		tx:         tx,
		orderTopic: orderTopic,
		metrics:    m,
	}
}

// PlaceOrder 下单。聚合购物车、核对所选运费、生成订单号，
// 然后在一个事务里写入订单快照、清空购物车并追加发件箱事件。
// 订单号撞唯一索引时重新发号重试。
func (s *OrderService) PlaceOrder(ctx context.Context, identity cartapp.Identity, req *PlaceOrderRequest) (*domain.Order, error) {
	if !identity.HasUser() {
		return nil, ErrUserRequired
	}

	summary, err := s.aggregator.Aggregate(ctx, identity)
	if err != nil {
		return nil, err
	}

	shipAddr, err := s.ownedAddress(ctx, identity.UserID, req.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	billAddr := shipAddr
	if req.BillingAddressID != nil && *req.BillingAddressID != req.ShippingAddressID {
		if billAddr, err = s.ownedAddress(ctx, identity.UserID, *req.BillingAddressID); err != nil {
			return nil, err
		}
	}

	quote, err := s.rateEngine.QuoteMethod(ctx, req.ShippingMethodID, shipAddr.Country, shippingapp.CartContext{
		Subtotal:    summary.Subtotal,
		WeightGrams: summary.TotalWeightGrams,
		Known:       true,
	})
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(identity.UserID, summary, quote, shipAddr, billAddr, req.PickupPointID)

	for attempt := 0; attempt < numberAttempts; attempt++ {
		number, err := s.numbers.Next(ctx)
		if err != nil {
			return nil, err
		}
		order.OrderNumber = number

		err = s.tx.InTx(ctx, func(ctx context.Context, repos TxRepos) error {
			if err := repos.Orders.Create(ctx, order); err != nil {
				return err
			}
			if err := repos.Carts.Delete(ctx, summary.CartID); err != nil {
				return err
			}
			return s.appendCreatedEvent(ctx, repos.Outbox, order)
		})
		if err == nil {
			if s.metrics != nil {
				s.metrics.OrdersTotal.Inc()
			}
			logger.Info(ctx, "订单已创建",
				"order_number", order.OrderNumber, "user_id", order.UserID, "total", order.Total)
			return order, nil
		}
		if !errors.Is(err, domain.ErrDuplicateNumber) {
			return nil, err
		}
		logger.Warn(ctx, "订单号冲突，重新发号", "order_number", order.OrderNumber, "attempt", attempt+1)
		s.numbers.Resync()
		// 回滚后清掉 gorm 可能已分配的主键，重试时重新插入
		order.ID = 0
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].OrderID = 0
		}
	}
	return nil, domain.ErrNumberExhausted
}

func (s *OrderService) ownedAddress(ctx context.Context, userID string, addressID uint) (*domain.Address, error) {
	addr, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if addr.UserID != userID {
		// 他人地址与不存在同样处理，不泄露存在性
		return nil, domain.ErrAddressNotFound
	}
	return addr, nil
}

func (s *OrderService) buildOrder(
	userID string,
	summary *checkoutapp.Summary,
	quote *shippingapp.Option,
	shipAddr, billAddr *domain.Address,
	pickupPointID *string,
) *domain.Order {
	order := &domain.Order{
		UserID:             userID,
		Status:             domain.StatusConfirmed,
		ShippingAddress:    shipAddr.Snapshot(),
		BillingAddress:     billAddr.Snapshot(),
		ShippingMethodID:   quote.MethodID,
		ShippingMethodName: quote.Name,
		ShippingCost:       quote.Price,
		EstimatedDays:      quote.EstimatedDays,
		Subtotal:           summary.Subtotal,
		Total:              summary.Subtotal.Add(quote.Price),
		TotalWeightGrams:   summary.TotalWeightGrams,
		PickupPointID:      pickupPointID,
	}
	for _, line := range summary.Lines {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			VariantName: line.VariantName,
			SKU:         line.SKU,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
			WeightGrams: line.WeightGrams,
		})
	}
	return order
}

func (s *OrderService) appendCreatedEvent(ctx context.Context, outbox domain.OutboxRepository, order *domain.Order) error {
	payload, err := json.Marshal(OrderCreatedEvent{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total.String(),
		Lines:       len(order.Items),
		Country:     order.ShippingAddress.Country,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	return outbox.Append(ctx, &domain.OutboxMessage{
		Topic:   s.orderTopic,
		Key:     order.OrderNumber,
		Payload: payload,
		Status:  domain.OutboxPending,
	})
}

// GetOrder 按 ID 获取订单
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// GetOrderByNumber 按订单号获取订单
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.orders.GetByNumber(ctx, number)
}

// ListUserOrders 列出用户订单
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.orders.ListByUser(ctx, userID, limit, offset)
}
