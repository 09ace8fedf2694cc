package application

import (
	"context"
	"time"

	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/mq"
)

// MessageSource 订单事件来源，通常是绑定订单主题的 Kafka 消费者。
type MessageSource interface {
	ReadMessage(ctx context.Context) (*mq.Message, error)
}

// ConfirmationListener 订单确认监听器。
// 消费发件箱投递出去的 OrderCreated 事件，记录确认通知；
// 解析失败的消息转入死信主题，不阻塞后续消费。
type ConfirmationListener struct {
	source MessageSource
	dlq    DeadLetter
}

func NewConfirmationListener(source MessageSource, dlq DeadLetter) *ConfirmationListener {
	return &ConfirmationListener{source: source, dlq: dlq}
}

// Run 持续消费直到 ctx 取消。作为独立 goroutine 运行。
func (l *ConfirmationListener) Run(ctx context.Context) {
	for {
		msg, err := l.source.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error(ctx, "读取订单事件失败", "error", err)
			time.Sleep(time.Second)
			continue
		}
		l.Handle(ctx, msg)
	}
}

// Handle 处理单条订单事件
func (l *ConfirmationListener) Handle(ctx context.Context, msg *mq.Message) {
	var event OrderCreatedEvent
	if err := msg.UnmarshalPayload(&event); err != nil {
		logger.Error(ctx, "订单事件解析失败", "key", msg.Key, "error", err)
		if l.dlq != nil {
			if dlqErr := l.dlq.Send(ctx, msg, "unmarshal order event", err); dlqErr != nil {
				logger.Error(ctx, "订单事件转死信失败", "key", msg.Key, "error", dlqErr)
			}
		}
		return
	}

	logger.Info(ctx, "订单确认通知已记录",
		"order_number", event.OrderNumber,
		"user_id", event.UserID,
		"total", event.Total,
		"lines", event.Lines,
	)
}
