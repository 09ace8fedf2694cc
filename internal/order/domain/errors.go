package domain

import "errors"

var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrAddressNotFound 地址不存在
	ErrAddressNotFound = errors.New("address not found")
	// ErrDuplicateNumber 订单号唯一索引冲突
	ErrDuplicateNumber = errors.New("duplicate order number")
	// ErrNumberExhausted 订单号重试次数用尽（瞬态，可稍后重试）
	ErrNumberExhausted = errors.New("order number generation exhausted")
)
