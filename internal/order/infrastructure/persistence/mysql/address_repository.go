package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wyfcoding/onlinestore/internal/order/domain"
)

type addressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址簿仓储
func NewAddressRepository(db *gorm.DB) domain.AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) GetByID(ctx context.Context, id uint) (*domain.Address, error) {
	var addr domain.Address
	err := r.db.WithContext(ctx).First(&addr, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query address: %w", err)
	}
	return &addr, nil
}

func (r *addressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	var addrs []domain.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&addrs).Error
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addrs, nil
}

func (r *addressRepository) Save(ctx context.Context, address *domain.Address) error {
	if err := r.db.WithContext(ctx).Save(address).Error; err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	return nil
}

func (r *addressRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Address{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete address: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

// SetDefault 同一事务内先清掉该用户的默认位再落到目标地址，保证排他
func (r *addressRepository) SetDefault(ctx context.Context, userID string, addressID uint, shipping, billing bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if shipping {
			if err := tx.Model(&domain.Address{}).
				Where("user_id = ?", userID).
				Update("is_default_shipping", false).Error; err != nil {
				return fmt.Errorf("clear default shipping: %w", err)
			}
		}
		if billing {
			if err := tx.Model(&domain.Address{}).
				Where("user_id = ?", userID).
				Update("is_default_billing", false).Error; err != nil {
				return fmt.Errorf("clear default billing: %w", err)
			}
		}

		updates := map[string]interface{}{}
		if shipping {
			updates["is_default_shipping"] = true
		}
		if billing {
			updates["is_default_billing"] = true
		}
		if len(updates) == 0 {
			return nil
		}
		result := tx.Model(&domain.Address{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("set default address: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrAddressNotFound
		}
		return nil
	})
}
