package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/wyfcoding/onlinestore/pkg/logger"
)

// NumberSource 提供已发出的最大订单号
type NumberSource interface {
	LastOrderNumber(ctx context.Context) (string, error)
}

// NumberGenerator 订单号发生器。进程内用互斥锁串行发号，
// 首次发号时从仓储同步已发出的最大序号；跨进程冲突靠订单号
// 唯一索引兜底，调用方捕获冲突后 Resync 再取号。
type NumberGenerator struct {
	mu     sync.Mutex
	prefix string
	seed   int64
	last   int64
	loaded bool
	source NumberSource
}

// NewNumberGenerator 创建订单号发生器
func NewNumberGenerator(prefix string, seed int64, source NumberSource) *NumberGenerator {
	return &NumberGenerator{prefix: prefix, seed: seed, source: source}
}

// Next 取下一个订单号
func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.loaded {
		if err := g.syncLocked(ctx); err != nil {
			return "", err
		}
	}
	g.last++
	return fmt.Sprintf("%s%d", g.prefix, g.last), nil
}

// Resync 丢弃进程内序号，下次取号重新从仓储同步。
// 插入撞唯一索引后调用，吸收其他进程发出的号段。
func (g *NumberGenerator) Resync() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loaded = false
}

func (g *NumberGenerator) syncLocked(ctx context.Context) error {
	last, err := g.source.LastOrderNumber(ctx)
	if err != nil {
		return fmt.Errorf("load last order number: %w", err)
	}

	g.last = g.seed
	if last != "" {
		seq, perr := strconv.ParseInt(strings.TrimPrefix(last, g.prefix), 10, 64)
		if perr != nil {
			logger.Warn(ctx, "已有订单号无法解析，从种子重新开始", "last", last, "error", perr)
		} else if seq > g.seed {
			g.last = seq
		}
	}
	g.loaded = true
	return nil
}
