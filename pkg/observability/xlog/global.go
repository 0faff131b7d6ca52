package xlog

import (
	"context"
	"sync"
	"sync/atomic"
)

// =============================================================================
// 进程级默认仓库
//
// 定位：为顶层调用提供便利入口。
// Repository 本身可独立构造，测试应使用自己的实例。
// =============================================================================

// globalRepo 默认仓库实例（并发安全）
var globalRepo atomic.Pointer[Repository]

// globalMu 保护 globalOnce 及其 Do 执行（也用于 ResetDefault/Shutdown）
var globalMu sync.Mutex

// globalOnce 确保默认仓库只初始化一次
var globalOnce sync.Once

// newDefaultRepository 默认仓库的构造函数，测试可替换
var newDefaultRepository = func() *Repository { return NewRepository() }

// defaultRepository 惰性创建默认仓库
//
// 在持锁状态下执行 once.Do，ResetDefault 重置 globalOnce 时不会与之竞争。
func defaultRepository() *Repository {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalOnce.Do(func() {
		globalRepo.Store(newDefaultRepository())
	})
	return globalRepo.Load()
}

// Default 返回进程级默认仓库
//
// 首次调用时创建；Shutdown 之后的下一次调用会重新创建。
func Default() *Repository {
	if r := globalRepo.Load(); r != nil {
		return r
	}
	return defaultRepository()
}

// SetDefault 替换默认仓库，nil 会被忽略
func SetDefault(r *Repository) {
	if r == nil {
		return
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	// 标记 once 已执行，防止后续 Default 覆盖
	globalOnce.Do(func() {})
	globalRepo.Store(r)
}

// ResetDefault 丢弃默认仓库（不关闭 appender），仅用于测试
func ResetDefault() {
	globalMu.Lock()
	globalRepo.Store(nil)
	globalOnce = sync.Once{}
	globalMu.Unlock()
}

// GetLogger 从默认仓库获取 logger
func GetLogger(name string) *Logger {
	return Default().Logger(name)
}

// Root 返回默认仓库的根 logger
func Root() *Logger {
	return Default().Root()
}

// Reset 重置默认仓库
func Reset() error {
	return Default().Reset()
}

// Shutdown 关闭默认仓库并丢弃它
//
// 之前取得的 logger 引用进入空操作状态；之后的 Default 创建新仓库。
func Shutdown() error {
	globalMu.Lock()
	r := globalRepo.Swap(nil)
	globalOnce = sync.Once{}
	globalMu.Unlock()
	if r == nil {
		return nil
	}
	return r.Shutdown()
}

// =============================================================================
// 便利函数：写入默认仓库的根 logger
// =============================================================================

// Log 使用默认根 logger 记录
//
//go:noinline
func Log(ctx context.Context, level Level, msg string) {
	// 全局函数直接调用 logWithSkip，比实例方法少一层 log 帧
	Root().logWithSkip(ctx, level, msg, -1)
}

// Error 使用默认根 logger 记录 ERROR 级别日志
//
//go:noinline
func Error(ctx context.Context, msg string) {
	Root().logWithSkip(ctx, LevelError, msg, -1)
}

// Warn 使用默认根 logger 记录 WARN 级别日志
//
//go:noinline
func Warn(ctx context.Context, msg string) {
	Root().logWithSkip(ctx, LevelWarn, msg, -1)
}

// Info 使用默认根 logger 记录 INFO 级别日志
//
//go:noinline
func Info(ctx context.Context, msg string) {
	Root().logWithSkip(ctx, LevelInfo, msg, -1)
}

// Debug 使用默认根 logger 记录 DEBUG 级别日志
//
//go:noinline
func Debug(ctx context.Context, msg string) {
	Root().logWithSkip(ctx, LevelDebug, msg, -1)
}
