package mastersheet

import (
	"context"
	"runtime"
	"sync"
)

// RequestGuard 按 key 记录最新一次生成请求的 id
//
// 新请求不会取消旧请求；旧请求在每个批次边界检查自己是否仍是最新，
// 不是则静默退出，避免两次生成交错写入同一份输出。
type RequestGuard struct {
	mu     sync.Mutex
	seq    uint64
	active map[string]uint64
}

// NewRequestGuard 创建 RequestGuard
func NewRequestGuard() *RequestGuard {
	return &RequestGuard{active: make(map[string]uint64)}
}

// Begin 为 key 登记新请求，返回单调递增的请求 id
func (g *RequestGuard) Begin(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.active[key] = g.seq
	return g.seq
}

// IsCurrent id 是否仍是 key 的最新请求
func (g *RequestGuard) IsCurrent(key string, id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active[key] == id
}

// Finish 请求结束；只有最新请求才会清除登记
func (g *RequestGuard) Finish(key string, id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[key] == id {
		delete(g.active, key)
	}
}

// Yielder 批次之间的让出点，返回错误时终止生成
type Yielder func(ctx context.Context) error

// GoschedYielder 让出当前 goroutine 的执行权，下一批次在新一轮调度中继续
func GoschedYielder(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// ProgressFunc 进度回调 (已处理数, 总数)
type ProgressFunc func(current, total int)
