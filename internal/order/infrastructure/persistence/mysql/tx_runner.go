package mysql

import (
	"context"

	"gorm.io/gorm"

	cartmysql "github.com/wyfcoding/onlinestore/internal/cart/infrastructure/persistence/mysql"
	"github.com/wyfcoding/onlinestore/internal/order/application"
	"github.com/wyfcoding/onlinestore/pkg/db"
)

// txRunner 把订单、发件箱、购物车仓储绑定进同一个事务
type txRunner struct {
	db *db.DB
}

// NewTxRunner 创建下单事务执行器
func NewTxRunner(database *db.DB) application.TxRunner {
	return &txRunner{db: database}
}

func (r *txRunner) InTx(ctx context.Context, fn func(ctx context.Context, repos application.TxRepos) error) error {
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(ctx, application.TxRepos{
			Orders: NewOrderRepository(tx),
			Outbox: NewOutboxRepository(tx),
			Carts:  cartmysql.NewCartRepository(tx),
		})
	})
}
