package domain

import "context"

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Create 插入订单及其行快照。订单号唯一索引冲突返回 ErrDuplicateNumber。
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id uint) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	// LastOrderNumber 返回已发出的最大订单号，从未发号时返回空串
	LastOrderNumber(ctx context.Context) (string, error)
	// UpdateShipment 持久化承运商发运号并推进状态
	UpdateShipment(ctx context.Context, orderID uint, shipmentNumber string) error
}

// AddressRepository 地址簿仓储接口
type AddressRepository interface {
	GetByID(ctx context.Context, id uint) (*Address, error)
	ListByUser(ctx context.Context, userID string) ([]Address, error)
	Save(ctx context.Context, address *Address) error
	Delete(ctx context.Context, id uint) error
	// SetDefault 把地址设为默认收货/账单地址，同事务内先清掉该用户其余默认位
	SetDefault(ctx context.Context, userID string, addressID uint, shipping, billing bool) error
}

// OutboxRepository 发件箱仓储接口
type OutboxRepository interface {
	Append(ctx context.Context, msg *OutboxMessage) error
	// FetchPending 按创建顺序取一批待投递消息
	FetchPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkSent(ctx context.Context, id uint) error
	// RecordFailure 记录一次失败但保持 PENDING，等待下一轮投递
	RecordFailure(ctx context.Context, id uint, attempts int, lastError string) error
	// MarkDead 重试用尽后置为 FAILED，不再投递
	MarkDead(ctx context.Context, id uint, attempts int, lastError string) error
}
