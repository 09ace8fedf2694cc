// Package storage 本地磁盘商品图片存储。
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalImageStore 把图片按 key 存在本地目录下
type LocalImageStore struct {
	root string
}

// NewLocalImageStore 创建本地图片存储
func NewLocalImageStore(root string) *LocalImageStore {
	return &LocalImageStore{root: root}
}

// Save 写入图片内容，返回存储 key
func (s *LocalImageStore) Save(_ context.Context, key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image %s: %w", key, err)
	}
	return nil
}

// Remove 删除图片。key 不存在不算错误。
func (s *LocalImageStore) Remove(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image %s: %w", key, err)
	}
	return nil
}

// resolve 拼出绝对路径并拒绝越出根目录的 key
func (s *LocalImageStore) resolve(key string) (string, error) {
	clean := filepath.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid image key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}
