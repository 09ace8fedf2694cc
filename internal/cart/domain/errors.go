package domain

import "errors"

var (
	// ErrCartNotFound 购物车不存在
	ErrCartNotFound = errors.New("cart not found")
	// ErrItemNotFound 购物车行不存在
	ErrItemNotFound = errors.New("cart item not found")
	// ErrInvalidQuantity 数量必须为正整数
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrNoIdentity 请求既无用户身份也无会话令牌
	ErrNoIdentity = errors.New("no cart identity provided")
	// ErrMergeConflict 合并事务冲突重试仍失败
	ErrMergeConflict = errors.New("cart merge conflict")
)
