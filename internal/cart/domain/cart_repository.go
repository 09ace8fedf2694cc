package domain

import "context"

// CartRepository 购物车仓储接口
type CartRepository interface {
	GetByID(ctx context.Context, id uint) (*Cart, error)
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	GetBySessionToken(ctx context.Context, token string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, id uint) error
	DeleteItem(ctx context.Context, itemID uint) error
}
