package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/onlinestore/internal/cart/domain"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/metrics"
	"github.com/wyfcoding/onlinestore/pkg/utils"
)

// ErrTxConflict 事务提交冲突（死锁或序列化失败），可重试一次
var ErrTxConflict = errors.New("transaction conflict")

// TxRunner 在 SERIALIZABLE 事务内执行合并，fn 收到绑定事务的仓储。
type TxRunner interface {
	InSerializableTx(ctx context.Context, fn func(ctx context.Context, repo domain.CartRepository) error) error
}

// MergeEngine 购物车合并引擎。登录瞬间把访客车并入用户车。
type MergeEngine struct {
	tx      TxRunner
	metrics *metrics.Metrics
}

func NewMergeEngine(tx TxRunner, m *metrics.Metrics) *MergeEngine {
	return &MergeEngine{tx: tx, metrics: m}
}

// Merge 将 sessionToken 对应的访客车并入 userID 的用户车。
//   - 访客车不存在：无事发生，幂等。
//   - 用户车不存在：访客车直接改挂到该用户名下。
//   - 两车都在：逐行搬入用户车，同 (商品, 变体) 组合数量相加，访客车删除。
//
// 整个过程在一个 SERIALIZABLE 事务内完成，冲突时重试一次。
func (e *MergeEngine) Merge(ctx context.Context, userID, sessionToken string) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = e.tx.InSerializableTx(ctx, func(ctx context.Context, repo domain.CartRepository) error {
			return e.mergeInTx(ctx, repo, userID, sessionToken)
		})
		if err == nil {
			if e.metrics != nil {
				e.metrics.CartMergesTotal.Inc()
			}
			return nil
		}
		if !errors.Is(err, ErrTxConflict) {
			return err
		}
		logger.Warn(ctx, "购物车合并事务冲突，重试", "user_id", userID, "attempt", attempt+1)
	}
	return fmt.Errorf("%w: %v", domain.ErrMergeConflict, err)
}

func (e *MergeEngine) mergeInTx(ctx context.Context, repo domain.CartRepository, userID, sessionToken string) error {
	guest, err := repo.GetBySessionToken(ctx, sessionToken)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	user, err := repo.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		// 用户从未有过购物车，访客车直接改归属
		guest.UserID = utils.StringPtr(userID)
		guest.SessionToken = nil
		return repo.Save(ctx, guest)
	}
	if err != nil {
		return err
	}

	for _, item := range guest.Items {
		user.AddItem(item.ProductID, item.VariantID, item.Quantity)
	}
	if err := repo.Save(ctx, user); err != nil {
		return err
	}
	if err := repo.Delete(ctx, guest.ID); err != nil {
		return err
	}
	logger.Info(ctx, "访客购物车已并入用户购物车",
		"user_cart_id", user.ID, "guest_cart_id", guest.ID, "merged_lines", len(guest.Items))
	return nil
}
