package xlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
)

// levelUnset 表示未设置显式级别（继承父级）
const levelUnset = math.MinInt64

// stackPool 堆栈缓冲区池，避免每次 Stack 调用都分配内存
var stackPool = sync.Pool{
	New: func() any {
		buf := make([]byte, initialStackSize)
		return &buf
	},
}

const (
	// initialStackSize 初始堆栈缓冲区大小
	initialStackSize = 4096
	// maxStackSize 最大堆栈缓冲区大小（64KB）
	maxStackSize = 64 * 1024
)

// Logger 层级树中的一个命名节点
//
// 只能通过 Repository 获取，同名总是返回同一实例。
// 所有方法并发安全。
type Logger struct {
	name string
	repo *Repository

	parent   atomic.Pointer[Logger]
	level    atomic.Int64 // levelUnset 表示继承
	additive atomic.Bool

	mu        sync.RWMutex
	appenders []Appender
}

func newLogger(name string, repo *Repository) *Logger {
	l := &Logger{name: name, repo: repo}
	l.level.Store(levelUnset)
	l.additive.Store(true)
	return l
}

// Name 返回 logger 名称，根 logger 为 "root"
func (l *Logger) Name() string {
	return l.name
}

// Parent 返回父节点，根 logger 返回 nil
func (l *Logger) Parent() *Logger {
	return l.parent.Load()
}

// IsRoot 是否为根 logger
func (l *Logger) IsRoot() bool {
	return l == l.repo.root
}

// Level 返回显式级别；ok 为 false 表示继承
func (l *Logger) Level() (level Level, ok bool) {
	v := l.level.Load()
	if v == levelUnset {
		return 0, false
	}
	return Level(v), true
}

// SetLevel 设置显式级别
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int64(level))
}

// ClearLevel 清除显式级别，改为继承父级
//
// 根 logger 必须始终有级别，对根调用返回 ErrRootLevel。
func (l *Logger) ClearLevel() error {
	if l.IsRoot() {
		return ErrRootLevel
	}
	l.level.Store(levelUnset)
	return nil
}

// EffectiveLevel 沿父链向上找到的第一个显式级别
func (l *Logger) EffectiveLevel() Level {
	for n := l; n != nil; n = n.parent.Load() {
		if v := n.level.Load(); v != levelUnset {
			return Level(v)
		}
	}
	// 根 logger 级别恒不为空，正常不会走到这里
	return DefaultRootLevel
}

// IsEnabled 判断该级别的事件是否会被分发
func (l *Logger) IsEnabled(level Level) bool {
	if level == LevelOff || l.repo.shutdown.Load() {
		return false
	}
	if level < Level(l.repo.threshold.Load()) {
		return false
	}
	return level >= l.EffectiveLevel()
}

// Additive 返回可加性标记
func (l *Logger) Additive() bool {
	return l.additive.Load()
}

// SetAdditive 设置可加性：false 时事件不再向祖先的 appender 传播
func (l *Logger) SetAdditive(additive bool) {
	l.additive.Store(additive)
}

// AddAppender 挂载 appender，按身份去重，重复挂载为空操作
func (l *Logger) AddAppender(a Appender) error {
	if a == nil {
		return ErrNilAppender
	}
	if l.repo.shutdown.Load() {
		return ErrShutdown
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !slices.Contains(l.appenders, a) {
		l.appenders = append(l.appenders, a)
	}
	return nil
}

// RemoveAppender 卸载 appender，不关闭它
func (l *Logger) RemoveAppender(a Appender) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := slices.Index(l.appenders, a); i >= 0 {
		l.appenders = slices.Delete(l.appenders, i, i+1)
	}
}

// RemoveAllAppenders 卸载全部 appender 并返回它们，不关闭
func (l *Logger) RemoveAllAppenders() []Appender {
	l.mu.Lock()
	defer l.mu.Unlock()
	old := l.appenders
	l.appenders = nil
	return old
}

// Appender 按名称查找自身挂载的 appender
func (l *Logger) Appender(name string) Appender {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, a := range l.appenders {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// Appenders 返回自身挂载的 appender 副本（不含祖先）
func (l *Logger) Appenders() []Appender {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.appenders)
}

// NumberOfAppenders 返回自身挂载的 appender 数量
func (l *Logger) NumberOfAppenders() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.appenders)
}

// replaceAppenders 原子替换 appender 列表，返回旧列表
func (l *Logger) replaceAppenders(as []Appender) []Appender {
	l.mu.Lock()
	defer l.mu.Unlock()
	old := l.appenders
	l.appenders = slices.Clone(as)
	return old
}

// collect 收集事件的分发列表
//
// 先自身，再父级，依次向上；收集完第一个不可加节点后停止。
func (l *Logger) collect() []Appender {
	var out []Appender
	for n := l; n != nil; n = n.parent.Load() {
		n.mu.RLock()
		out = append(out, n.appenders...)
		n.mu.RUnlock()
		if !n.additive.Load() {
			break
		}
	}
	return out
}

// Dispatch 将事件交给收集到的全部 appender
//
// 不检查级别。单个 appender 失败不影响其他 appender，
// 所有失败合并返回，同时上报给仓库的错误回调。
func (l *Logger) Dispatch(e *Event) error {
	if l.repo.shutdown.Load() {
		return nil
	}
	var errs []error
	for _, a := range l.collect() {
		if err := l.repo.callAppender(a, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// logWithSkip 通用日志方法
// extraSkip: 额外需要跳过的栈帧数（用于全局函数等间接调用场景）
//
//go:noinline
func (l *Logger) logWithSkip(ctx context.Context, level Level, msg string, extraSkip int) {
	if !l.IsEnabled(level) {
		return
	}
	e := NewEvent(l.name, level, msg)
	if l.repo.captureLocation.Load() {
		// skip: logWithSkip(0) → log(1) → Info/…(2) → 业务代码(3)
		e.Location = callerLocation(3 + extraSkip)
	}
	e.withTrace(ctx)
	_ = l.Dispatch(e)
}

// log 实例方法的公共入口，正确捕获调用者位置
//
//go:noinline
func (l *Logger) log(ctx context.Context, level Level, msg string) {
	l.logWithSkip(ctx, level, msg, 0)
}

// Log 以指定级别记录
func (l *Logger) Log(level Level, msg string) {
	l.log(context.Background(), level, msg)
}

// Logf 以指定级别格式化记录，级别未启用时不做格式化
func (l *Logger) Logf(level Level, format string, args ...any) {
	if !l.IsEnabled(level) {
		return
	}
	l.log(context.Background(), level, fmt.Sprintf(format, args...))
}

// LogContext 以指定级别记录，并从 ctx 提取 trace_id/span_id
func (l *Logger) LogContext(ctx context.Context, level Level, msg string) {
	l.log(ctx, level, msg)
}

// LogAt 以调用方给出的源码位置记录
//
// 供绑定层使用：位置由绑定层在其调用点捕获。
func (l *Logger) LogAt(level Level, loc Location, msg string) {
	if !l.IsEnabled(level) {
		return
	}
	e := NewEvent(l.name, level, msg)
	e.Location = loc
	_ = l.Dispatch(e)
}

// Fatal 记录 FATAL 级别日志，不终止进程
func (l *Logger) Fatal(msg string) { l.log(context.Background(), LevelFatal, msg) }

// Error 记录 ERROR 级别日志
func (l *Logger) Error(msg string) { l.log(context.Background(), LevelError, msg) }

// Warn 记录 WARN 级别日志
func (l *Logger) Warn(msg string) { l.log(context.Background(), LevelWarn, msg) }

// Info 记录 INFO 级别日志
func (l *Logger) Info(msg string) { l.log(context.Background(), LevelInfo, msg) }

// Debug 记录 DEBUG 级别日志
func (l *Logger) Debug(msg string) { l.log(context.Background(), LevelDebug, msg) }

// Trace 记录 TRACE 级别日志
func (l *Logger) Trace(msg string) { l.log(context.Background(), LevelTrace, msg) }

// Fatalf 格式化记录 FATAL 级别日志
func (l *Logger) Fatalf(format string, args ...any) { l.logf(LevelFatal, format, args) }

// Errorf 格式化记录 ERROR 级别日志
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args) }

// Warnf 格式化记录 WARN 级别日志
func (l *Logger) Warnf(format string, args ...any) { l.logf(LevelWarn, format, args) }

// Infof 格式化记录 INFO 级别日志
func (l *Logger) Infof(format string, args ...any) { l.logf(LevelInfo, format, args) }

// Debugf 格式化记录 DEBUG 级别日志
func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args) }

// Tracef 格式化记录 TRACE 级别日志
func (l *Logger) Tracef(format string, args ...any) { l.logf(LevelTrace, format, args) }

// logf 与 log 处于同一栈深度，供 …f 系列方法使用
//
//go:noinline
func (l *Logger) logf(level Level, format string, args []any) {
	if !l.IsEnabled(level) {
		return
	}
	l.logWithSkip(context.Background(), level, fmt.Sprintf(format, args...), 0)
}

// Stack 记录附带当前 goroutine 堆栈的日志
//
//go:noinline
func (l *Logger) Stack(level Level, msg string) {
	l.stackWithSkip(level, msg, 0)
}

// stackWithSkip 记录附带堆栈的日志，支持额外的栈帧跳过
//
//go:noinline
func (l *Logger) stackWithSkip(level Level, msg string, extraSkip int) {
	if !l.IsEnabled(level) {
		return
	}

	bufp, ok := stackPool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, initialStackSize)
		bufp = &buf
	}

	// 堆栈填满缓冲区时可能被截断，翻倍扩展直到上限
	buf := *bufp
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxStackSize {
		buf = make([]byte, min(len(buf)*2, maxStackSize))
		n = runtime.Stack(buf, false)
	}

	// 必须在 Put 之前完成拷贝，否则其他 goroutine 可能覆盖共享的底层数组
	e := NewEvent(l.name, level, msg+"\n"+string(buf[:n]))
	stackPool.Put(bufp)

	if l.repo.captureLocation.Load() {
		// skip: stackWithSkip(0) → Stack(1) → 业务代码(2)
		e.Location = callerLocation(2 + extraSkip)
	}
	_ = l.Dispatch(e)
}

// Slog 返回以该 logger 为输出的 *slog.Logger
func (l *Logger) Slog() *slog.Logger {
	return slog.New(NewHandler(l))
}
