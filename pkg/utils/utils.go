// Package utils 提供 retry/backoff 与指针辅助等通用工具
package utils

import (
	"time"
)

// Retry 以固定间隔重试 fn，最多 maxAttempts 次
func Retry(maxAttempts int, delay time.Duration, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < maxAttempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}

// RetryWithBackoff 以指数退避重试 fn
func RetryWithBackoff(maxAttempts int, initialDelay time.Duration, maxDelay time.Duration, fn func() error) error {
	var err error
	delay := initialDelay
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < maxAttempts-1 {
			time.Sleep(delay)
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}
	return err
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string { return &s }

// DerefString 解引用字符串指针，nil 时返回空串
func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
