package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wyfcoding/onlinestore/internal/shipping/domain"
)

type zoneRepository struct {
	db *gorm.DB
}

// NewZoneRepository 创建配送区域仓储
func NewZoneRepository(db *gorm.DB) domain.ZoneRepository {
	return &zoneRepository{db: db}
}

func (r *zoneRepository) ListActive(ctx context.Context) ([]domain.ShippingZone, error) {
	var zones []domain.ShippingZone
	err := r.db.WithContext(ctx).
		Preload("Methods", "is_active = ?", true).
		Where("is_active = ?", true).
		Order("display_order asc, name asc").
		Find(&zones).Error
	if err != nil {
		return nil, fmt.Errorf("list active zones: %w", err)
	}
	return zones, nil
}

func (r *zoneRepository) GetByID(ctx context.Context, id uint) (*domain.ShippingZone, error) {
	var zone domain.ShippingZone
	err := r.db.WithContext(ctx).Preload("Methods").First(&zone, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrZoneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query zone: %w", err)
	}
	return &zone, nil
}

func (r *zoneRepository) Save(ctx context.Context, zone *domain.ShippingZone) error {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(zone).Error; err != nil {
		return fmt.Errorf("save zone: %w", err)
	}
	return nil
}

func (r *zoneRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("zone_id = ?", id).Delete(&domain.ShippingMethod{}).Error; err != nil {
			return fmt.Errorf("delete zone methods: %w", err)
		}
		result := tx.Delete(&domain.ShippingZone{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete zone: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrZoneNotFound
		}
		return nil
	})
}

type carrierRepository struct {
	db *gorm.DB
}

// NewCarrierRepository 创建承运商仓储
func NewCarrierRepository(db *gorm.DB) domain.CarrierRepository {
	return &carrierRepository{db: db}
}

func (r *carrierRepository) GetByID(ctx context.Context, id uint) (*domain.Carrier, error) {
	var carrier domain.Carrier
	err := r.db.WithContext(ctx).First(&carrier, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCarrierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query carrier: %w", err)
	}
	return &carrier, nil
}

func (r *carrierRepository) GetByCode(ctx context.Context, code string) (*domain.Carrier, error) {
	var carrier domain.Carrier
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&carrier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCarrierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query carrier by code: %w", err)
	}
	return &carrier, nil
}

func (r *carrierRepository) List(ctx context.Context) ([]domain.Carrier, error) {
	var carriers []domain.Carrier
	if err := r.db.WithContext(ctx).Order("name asc").Find(&carriers).Error; err != nil {
		return nil, fmt.Errorf("list carriers: %w", err)
	}
	return carriers, nil
}

func (r *carrierRepository) Save(ctx context.Context, carrier *domain.Carrier) error {
	if err := r.db.WithContext(ctx).Save(carrier).Error; err != nil {
		return fmt.Errorf("save carrier: %w", err)
	}
	return nil
}
