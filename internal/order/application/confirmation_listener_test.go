package application

import (
	"context"
	"testing"

	"github.com/wyfcoding/onlinestore/pkg/mq"
)

type queuedSource struct {
	messages []*mq.Message
}

func (s *queuedSource) ReadMessage(ctx context.Context) (*mq.Message, error) {
	if len(s.messages) == 0 {
		return nil, context.Canceled
	}
	msg := s.messages[0]
	s.messages = s.messages[1:]
	return msg, nil
}

func TestConfirmationListenerHandlesOrderEvent(t *testing.T) {
	dlq := &fakeDLQ{}
	listener := NewConfirmationListener(&queuedSource{}, dlq)

	listener.Handle(context.Background(), &mq.Message{
		Topic: "store.orders",
		Key:   "SO-100001",
		Value: []byte(`{"order_number":"SO-100001","user_id":"u-1","total":"24.90","lines":1}`),
	})

	if len(dlq.received) != 0 {
		t.Errorf("valid event landed in DLQ: %v", dlq.received)
	}
}

func TestConfirmationListenerDeadLettersMalformedPayload(t *testing.T) {
	dlq := &fakeDLQ{}
	listener := NewConfirmationListener(&queuedSource{}, dlq)

	listener.Handle(context.Background(), &mq.Message{
		Topic: "store.orders",
		Key:   "SO-100002",
		Value: []byte(`not-json`),
	})

	if len(dlq.received) != 1 || dlq.received[0] != "SO-100002" {
		t.Errorf("malformed event not dead-lettered: %v", dlq.received)
	}
}

func TestConfirmationListenerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	listener := NewConfirmationListener(&queuedSource{}, &fakeDLQ{})
	done := make(chan struct{})
	go func() {
		listener.Run(ctx)
		close(done)
	}()
	<-done
}
