package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/wyfcoding/onlinestore/internal/order/domain"
)

// AddressService 地址簿应用服务
type AddressService struct {
	addresses domain.AddressRepository
}

func NewAddressService(addresses domain.AddressRepository) *AddressService {
	return &AddressService{addresses: addresses}
}

// SaveAddress 新建或更新地址。国家码转大写校验两位字母。
func (s *AddressService) SaveAddress(ctx context.Context, addr *domain.Address) error {
	addr.Country = strings.ToUpper(addr.Country)
	if len(addr.Country) != 2 {
		return fmt.Errorf("country %q must be a two-letter code", addr.Country)
	}
	if addr.UserID == "" {
		return fmt.Errorf("address requires a user")
	}
	if err := s.addresses.Save(ctx, addr); err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	// 默认位的排他性由 SetDefault 在事务里保证
	if addr.IsDefaultShipping || addr.IsDefaultBilling {
		return s.addresses.SetDefault(ctx, addr.UserID, addr.ID, addr.IsDefaultShipping, addr.IsDefaultBilling)
	}
	return nil
}

// ListAddresses 列出用户地址
func (s *AddressService) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.addresses.ListByUser(ctx, userID)
}

// SetDefault 设置默认收货/账单地址
func (s *AddressService) SetDefault(ctx context.Context, userID string, addressID uint, shipping, billing bool) error {
	addr, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		return err
	}
	if addr.UserID != userID {
		return domain.ErrAddressNotFound
	}
	return s.addresses.SetDefault(ctx, userID, addressID, shipping, billing)
}

// DeleteAddress 删除地址
func (s *AddressService) DeleteAddress(ctx context.Context, userID string, addressID uint) error {
	addr, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		return err
	}
	if addr.UserID != userID {
		return domain.ErrAddressNotFound
	}
	return s.addresses.Delete(ctx, addressID)
}
