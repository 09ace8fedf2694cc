package domain

import "context"

// ZoneRepository 配送区域仓储接口
type ZoneRepository interface {
	// ListActive 返回所有启用区域，带各自启用的方式，按 (display_order, name) 排序
	ListActive(ctx context.Context) ([]ShippingZone, error)
	GetByID(ctx context.Context, id uint) (*ShippingZone, error)
	Save(ctx context.Context, zone *ShippingZone) error
	Delete(ctx context.Context, id uint) error
}

// CarrierRepository 承运商仓储接口
type CarrierRepository interface {
	GetByID(ctx context.Context, id uint) (*Carrier, error)
	GetByCode(ctx context.Context, code string) (*Carrier, error)
	List(ctx context.Context) ([]Carrier, error)
	Save(ctx context.Context, carrier *Carrier) error
}
