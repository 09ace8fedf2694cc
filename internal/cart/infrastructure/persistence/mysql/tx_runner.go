package mysql

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/wyfcoding/onlinestore/internal/cart/application"
	"github.com/wyfcoding/onlinestore/internal/cart/domain"
	"github.com/wyfcoding/onlinestore/pkg/db"
)

// txRunner 在 SERIALIZABLE 隔离级别下运行合并事务
type txRunner struct {
	db *db.DB
}

// NewTxRunner 创建合并事务执行器
func NewTxRunner(database *db.DB) application.TxRunner {
	return &txRunner{db: database}
}

func (r *txRunner) InSerializableTx(ctx context.Context, fn func(ctx context.Context, repo domain.CartRepository) error) error {
	err := r.db.WithTxIsolation(ctx, "SERIALIZABLE", func(tx *gorm.DB) error {
		return fn(ctx, &cartRepository{db: tx})
	})
	if err != nil && isConflict(err) {
		return fmt.Errorf("%w: %v", application.ErrTxConflict, err)
	}
	return err
}

// isConflict 识别 MySQL 死锁 (1213) 与锁等待超时 (1205)
func isConflict(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Error 1213") ||
		strings.Contains(msg, "Error 1205") ||
		strings.Contains(msg, "Deadlock found")
}
