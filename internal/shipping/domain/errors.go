package domain

import "errors"

var (
	// ErrInvalidCountry 国家码必须是两位字母
	ErrInvalidCountry = errors.New("country must be a two-letter code")
	// ErrZoneNotFound 配送区域不存在
	ErrZoneNotFound = errors.New("shipping zone not found")
	// ErrMethodNotFound 配送方式不存在
	ErrMethodNotFound = errors.New("shipping method not found")
	// ErrCarrierNotFound 承运商不存在
	ErrCarrierNotFound = errors.New("carrier not found")
)
