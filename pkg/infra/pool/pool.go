// Package pool wraps ants goroutine pools used by background jobs such as
// document extraction.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Config defines the configuration for the worker pool.
type Config struct {
	// Capacity 池容量（最大并发 goroutine 数）
	Capacity int
	// ExpiryDuration goroutine 空闲过期时间
	ExpiryDuration time.Duration
	// Nonblocking 池满时直接返回错误
	Nonblocking bool
	// PanicHandler 恐慌处理函数
	PanicHandler func(interface{})
}

// DefaultConfig 返回默认池配置
func DefaultConfig() *Config {
	return &Config{
		Capacity:       4,
		ExpiryDuration: 10 * time.Second,
	}
}

// Pool is a named ants pool with task counters.
type Pool struct {
	name   string
	pool   *ants.Pool
	closed atomic.Bool
	mu     sync.Mutex

	submitted atomic.Int64
	completed atomic.Int64
	panics    atomic.Int64
}

// Stats contains statistics about the worker pool.
type Stats struct {
	Submitted int64
	Completed int64
	Panics    int64
	Running   int
}

// New creates a new worker pool.
func New(name string, cfg *Config) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidPoolConfig)
	}

	p := &Pool{name: name}
	handler := cfg.PanicHandler
	if handler == nil {
		handler = func(r interface{}) {
			logger.Errorw("Worker panic recovered", "pool", name, "panic", r)
		}
	}

	ap, err := ants.NewPool(cfg.Capacity,
		ants.WithExpiryDuration(cfg.ExpiryDuration),
		ants.WithNonblocking(cfg.Nonblocking),
		ants.WithPanicHandler(func(r interface{}) {
			p.panics.Add(1)
			handler(r)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("创建 ants 池失败: %w", err)
	}
	p.pool = ap

	logger.Debugw("Worker pool created", "name", name, "capacity", cfg.Capacity)
	return p, nil
}

// Name 返回池名称
func (p *Pool) Name() string {
	return p.name
}

// Cap 返回池容量
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Submit 提交任务到池中执行
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	p.submitted.Add(1)
	err := p.pool.Submit(func() {
		defer p.completed.Add(1)
		task()
	})
	if err != nil {
		p.submitted.Add(-1)
		if errors.Is(err, ants.ErrPoolOverload) {
			return ErrPoolOverload
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// ForEach runs fn(i) for i in [0, n) on the pool and waits for all of them.
// Tasks not yet started are skipped once ctx is done.
func (p *Pool) ForEach(ctx context.Context, n int, fn func(i int)) error {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		idx := i
		if err := p.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			fn(idx)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return err
		}
	}
	wg.Wait()
	return ctx.Err()
}

// Stats 返回池统计信息快照
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panics:    p.panics.Load(),
		Running:   p.pool.Running(),
	}
}

// Release 关闭池并释放资源
func (p *Pool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Swap(true) {
		return
	}
	p.pool.Release()
	logger.Debugw("Worker pool released", "name", p.name)
}
