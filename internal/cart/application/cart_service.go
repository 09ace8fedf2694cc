package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/onlinestore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/onlinestore/internal/catalog/domain"
	"github.com/wyfcoding/onlinestore/pkg/logger"
)

// Identity 一次请求携带的购物车身份。UserID 优先于 SessionToken。
type Identity struct {
	UserID       string
	SessionToken string
}

// HasUser 是否为已登录用户
func (id Identity) HasUser() bool { return id.UserID != "" }

// HasSession 是否携带访客会话令牌
func (id Identity) HasSession() bool { return id.SessionToken != "" }

// CartService 购物车应用服务。解析身份、读写购物车行。
type CartService struct {
	carts    domain.CartRepository
	products catalogdomain.ProductRepository
	merger   *MergeEngine
}

func NewCartService(carts domain.CartRepository, products catalogdomain.ProductRepository, merger *MergeEngine) *CartService {
	return &CartService{carts: carts, products: products, merger: merger}
}

// Resolve 按身份解析购物车：用户车优先，没有则回退访客车。
// 纯读操作，不创建、不合并；合并只在登录完成钩子 Merge 里发生。
func (s *CartService) Resolve(ctx context.Context, id Identity) (*domain.Cart, error) {
	if !id.HasUser() && !id.HasSession() {
		return nil, domain.ErrNoIdentity
	}
	if id.HasUser() {
		cart, err := s.carts.GetByUserID(ctx, id.UserID)
		if err == nil || !errors.Is(err, domain.ErrCartNotFound) || !id.HasSession() {
			return cart, err
		}
	}
	return s.carts.GetBySessionToken(ctx, id.SessionToken)
}

// Merge 登录完成钩子：把访客车并入用户车，返回合并后的用户车。
// 用户本无车时访客车被改挂到用户名下，两边都没有车则返回 ErrCartNotFound。
func (s *CartService) Merge(ctx context.Context, id Identity) (*domain.Cart, error) {
	if !id.HasUser() || !id.HasSession() {
		return nil, domain.ErrNoIdentity
	}
	if err := s.merger.Merge(ctx, id.UserID, id.SessionToken); err != nil {
		return nil, err
	}
	return s.carts.GetByUserID(ctx, id.UserID)
}

// ResolveOrCreate 解析购物车，不存在时按身份惰性创建空车。
func (s *CartService) ResolveOrCreate(ctx context.Context, id Identity) (*domain.Cart, error) {
	cart, err := s.Resolve(ctx, id)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrCartNotFound) {
		return nil, err
	}

	cart = &domain.Cart{}
	if id.HasUser() {
		cart.UserID = &id.UserID
	} else {
		cart.SessionToken = &id.SessionToken
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	logger.Info(ctx, "购物车已创建", "cart_id", cart.ID, "has_user", id.HasUser())
	return cart, nil
}

// AddItem 加购。同 (商品, 变体) 组合已存在时累加数量。
func (s *CartService) AddItem(ctx context.Context, id Identity, productID uint, variantID *uint, qty int) (*domain.Cart, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if variantID != nil {
		if _, ok := product.Variant(*variantID); !ok {
			return nil, catalogdomain.ErrVariantNotFound
		}
	}

	cart, err := s.ResolveOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	cart.AddItem(productID, variantID, qty)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// UpdateQuantity 修改行数量。qty 必须 ≥ 1，删除行走 RemoveItem。
func (s *CartService) UpdateQuantity(ctx context.Context, id Identity, productID uint, variantID *uint, qty int) (*domain.Cart, error) {
	if qty < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	cart, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	item, ok := cart.FindItem(productID, variantID)
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	item.Quantity = qty
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// RemoveItem 删除行。全部行删完后购物车保留为空车。
func (s *CartService) RemoveItem(ctx context.Context, id Identity, productID uint, variantID *uint) (*domain.Cart, error) {
	cart, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	item, ok := cart.FindItem(productID, variantID)
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	itemID := item.ID
	cart.RemoveItem(productID, variantID)
	if itemID != 0 {
		if err := s.carts.DeleteItem(ctx, itemID); err != nil {
			return nil, fmt.Errorf("delete cart item: %w", err)
		}
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}
