package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/onlinestore/internal/order/domain"
)

type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository 创建发件箱仓储
func NewOutboxRepository(db *gorm.DB) domain.OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Append(ctx context.Context, msg *domain.OutboxMessage) error {
	if msg.Status == "" {
		msg.Status = domain.OutboxPending
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("append outbox message: %w", err)
	}
	return nil
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	var msgs []domain.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.OutboxPending).
		Order("created_at asc").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("fetch pending outbox: %w", err)
	}
	return msgs, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id uint) error {
	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&domain.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  domain.OutboxSent,
			"sent_at": &now,
		}).Error
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}

func (r *outboxRepository) RecordFailure(ctx context.Context, id uint, attempts int, lastError string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   attempts,
			"last_error": truncate(lastError, 1024),
		}).Error
	if err != nil {
		return fmt.Errorf("record outbox failure: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkDead(ctx context.Context, id uint, attempts int, lastError string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.OutboxFailed,
			"attempts":   attempts,
			"last_error": truncate(lastError, 1024),
		}).Error
	if err != nil {
		return fmt.Errorf("mark outbox dead: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
