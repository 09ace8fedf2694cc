package application

import (
	"context"
	"time"

	"github.com/wyfcoding/onlinestore/internal/order/domain"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/mq"
)

// Publisher 发件箱消息投递端
type Publisher interface {
	SendRaw(ctx context.Context, topic string, key string, value []byte) error
}

// DeadLetter 投递多次失败后的兜底
type DeadLetter interface {
	Send(ctx context.Context, originalMessage *mq.Message, reason string, err error) error
}

// OutboxRelay 发件箱中继。轮询待投递行发往 Kafka，
// 超过重试上限的消息转入死信主题并标记 FAILED。
type OutboxRelay struct {
	outbox     domain.OutboxRepository
	producer   Publisher
	dlq        DeadLetter
	interval   time.Duration
	batchSize  int
	maxRetries int
}

func NewOutboxRelay(outbox domain.OutboxRepository, producer Publisher, dlq DeadLetter, interval time.Duration, maxRetries int) *OutboxRelay {
	if interval <= 0 {
		interval = time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &OutboxRelay{
		outbox:     outbox,
		producer:   producer,
		dlq:        dlq,
		interval:   interval,
		batchSize:  100,
		maxRetries: maxRetries,
	}
}

// Run 阻塞轮询直到 ctx 取消，作为独立 goroutine 运行。
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info(ctx, "发件箱中继已启动", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "发件箱中继已停止")
			return
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				logger.Error(ctx, "发件箱轮询失败", "error", err)
			}
		}
	}
}

// Drain 处理一批待投递消息
func (r *OutboxRelay) Drain(ctx context.Context) error {
	pending, err := r.outbox.FetchPending(ctx, r.batchSize)
	if err != nil {
		return err
	}

	for i := range pending {
		msg := &pending[i]
		if err := r.producer.SendRaw(ctx, msg.Topic, msg.Key, msg.Payload); err != nil {
			r.handleFailure(ctx, msg, err)
			continue
		}
		if err := r.outbox.MarkSent(ctx, msg.ID); err != nil {
			logger.Error(ctx, "发件箱标记已发送失败", "outbox_id", msg.ID, "error", err)
		}
	}
	return nil
}

func (r *OutboxRelay) handleFailure(ctx context.Context, msg *domain.OutboxMessage, sendErr error) {
	attempts := msg.Attempts + 1
	if attempts < r.maxRetries {
		// 留在 PENDING，下一轮继续投递
		if err := r.outbox.RecordFailure(ctx, msg.ID, attempts, sendErr.Error()); err != nil {
			logger.Error(ctx, "发件箱记录失败次数出错", "outbox_id", msg.ID, "error", err)
		}
		return
	}

	logger.Error(ctx, "发件箱消息重试用尽，转入死信",
		"outbox_id", msg.ID, "topic", msg.Topic, "key", msg.Key, "error", sendErr)
	if r.dlq != nil {
		dead := &mq.Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Payload, Time: msg.CreatedAt}
		if err := r.dlq.Send(ctx, dead, "outbox retries exhausted", sendErr); err != nil {
			logger.Error(ctx, "死信投递失败", "outbox_id", msg.ID, "error", err)
			// 死信也没送出去，留在 PENDING 等下一轮
			if err := r.outbox.RecordFailure(ctx, msg.ID, attempts, sendErr.Error()); err != nil {
				logger.Error(ctx, "发件箱记录失败次数出错", "outbox_id", msg.ID, "error", err)
			}
			return
		}
	}
	if err := r.outbox.MarkDead(ctx, msg.ID, attempts, sendErr.Error()); err != nil {
		logger.Error(ctx, "发件箱标记失败出错", "outbox_id", msg.ID, "error", err)
	}
}
