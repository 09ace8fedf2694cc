package application

import (
	"context"
	"errors"
	"testing"

	"github.com/wyfcoding/onlinestore/internal/order/domain"
	"github.com/wyfcoding/onlinestore/pkg/mq"
)

type fakePublisher struct {
	failLeft int
	sent     []string
}

func (p *fakePublisher) SendRaw(_ context.Context, _ string, key string, _ []byte) error {
	if p.failLeft > 0 {
		p.failLeft--
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, key)
	return nil
}

type fakeDLQ struct {
	received []string
}

func (d *fakeDLQ) Send(_ context.Context, msg *mq.Message, _ string, _ error) error {
	d.received = append(d.received, msg.Key)
	return nil
}

func pendingRow(outbox *fakeOutboxRepo, key string) {
	outbox.Append(context.Background(), &domain.OutboxMessage{
		Topic:   "store.orders",
		Key:     key,
		Payload: []byte(`{}`),
		Status:  domain.OutboxPending,
	})
}

func TestDrainPublishesAndMarksSent(t *testing.T) {
	outbox := &fakeOutboxRepo{}
	pendingRow(outbox, "SO-100001")
	pendingRow(outbox, "SO-100002")

	pub := &fakePublisher{}
	relay := NewOutboxRelay(outbox, pub, nil, 0, 3)

	if err := relay.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if len(pub.sent) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.sent))
	}
	for _, row := range outbox.rows {
		if row.Status != domain.OutboxSent {
			t.Errorf("row %s status = %s, want SENT", row.Key, row.Status)
		}
	}
}

func TestDrainKeepsFailedRowPendingForRetry(t *testing.T) {
	outbox := &fakeOutboxRepo{}
	pendingRow(outbox, "SO-100001")

	pub := &fakePublisher{failLeft: 1}
	relay := NewOutboxRelay(outbox, pub, nil, 0, 3)

	if err := relay.Drain(context.Background()); err != nil {
		t.Fatalf("first drain: %v", err)
	}
	if outbox.rows[0].Status != domain.OutboxPending || outbox.rows[0].Attempts != 1 {
		t.Errorf("after first failure: status = %s attempts = %d, want PENDING/1",
			outbox.rows[0].Status, outbox.rows[0].Attempts)
	}

	// 第二轮投递成功
	if err := relay.Drain(context.Background()); err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if outbox.rows[0].Status != domain.OutboxSent {
		t.Errorf("after retry: status = %s, want SENT", outbox.rows[0].Status)
	}
}

func TestDrainSendsExhaustedRowToDeadLetter(t *testing.T) {
	outbox := &fakeOutboxRepo{}
	pendingRow(outbox, "SO-100001")

	pub := &fakePublisher{failLeft: 10}
	dlq := &fakeDLQ{}
	relay := NewOutboxRelay(outbox, pub, dlq, 0, 2)

	for i := 0; i < 2; i++ {
		if err := relay.Drain(context.Background()); err != nil {
			t.Fatalf("drain %d: %v", i+1, err)
		}
	}

	if len(dlq.received) != 1 || dlq.received[0] != "SO-100001" {
		t.Fatalf("dead letter received = %v, want [SO-100001]", dlq.received)
	}
	if outbox.rows[0].Status != domain.OutboxFailed {
		t.Errorf("status = %s, want FAILED", outbox.rows[0].Status)
	}
}
