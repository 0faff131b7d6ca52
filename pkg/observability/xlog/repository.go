package xlog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/logkit/pkg/observability/xmetrics"
)

// RootName 根 logger 的名称，同时作为配置中寻址根的别名
const RootName = "root"

// Option 仓库配置选项
type Option func(*Repository)

// WithRootLevel 设置根 logger 的默认级别（Reset 时恢复到该级别）
func WithRootLevel(level Level) Option {
	return func(r *Repository) {
		r.rootLevel = level
	}
}

// WithOnError 设置 appender 失败回调
//
// 同一 appender 只回调一次，计数器记录全部失败。
// 回调串行执行；回调期间（包括回调内部）出现的新失败排队，
// 在当前回调返回后投递，不会递归进入回调。
func WithOnError(fn func(error)) Option {
	return func(r *Repository) {
		r.onError = fn
	}
}

// WithObserver 设置观测器，记录 append/configure 的指标
func WithObserver(o xmetrics.Observer) Option {
	return func(r *Repository) {
		r.observer = o
	}
}

// WithCaptureLocation 设置是否在日志调用点捕获源码位置，默认开启
func WithCaptureLocation(enabled bool) Option {
	return func(r *Repository) {
		r.captureLocation.Store(enabled)
	}
}

// Repository logger 层级树及其生命周期
//
// 名称查找走读锁，创建节点与配置替换走写锁；
// 日志调用路径只读取原子字段和各 logger 自身的读锁。
type Repository struct {
	mu         sync.RWMutex
	root       *Logger
	loggers    map[string]*Logger
	provisions map[string][]*Logger // 尚未创建的祖先名 → 等待它的后代

	rootLevel       Level
	threshold       atomic.Int64
	shutdown        atomic.Bool
	captureLocation atomic.Bool

	observer   xmetrics.Observer
	onError    func(error)
	errorCount atomic.Uint64
	reported   sync.Map // Appender → struct{}，失败只回调一次

	errMu      sync.Mutex
	pending    []error // 回调执行期间到达的错误，由正在回调的 goroutine 依次投递
	delivering bool
}

// NewRepository 创建独立的仓库
func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		loggers:    make(map[string]*Logger),
		provisions: make(map[string][]*Logger),
		rootLevel:  DefaultRootLevel,
	}
	r.captureLocation.Store(true)
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.root = newLogger(RootName, r)
	r.root.level.Store(int64(r.rootLevel))
	r.threshold.Store(int64(LevelAll))
	return r
}

// Root 返回根 logger
func (r *Repository) Root() *Logger {
	return r.root
}

// Logger 返回指定名称的 logger，不存在时创建
//
// 同名总是返回同一实例。空名和 "root" 寻址根 logger。
func (r *Repository) Logger(name string) *Logger {
	name = strings.TrimSpace(name)
	if name == "" || name == RootName {
		return r.root
	}

	r.mu.RLock()
	l, ok := r.loggers[name]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loggerLocked(name)
}

// loggerLocked 调用方必须持有写锁
func (r *Repository) loggerLocked(name string) *Logger {
	if name == "" || name == RootName {
		return r.root
	}
	if l, ok := r.loggers[name]; ok {
		return l
	}
	l := newLogger(name, r)
	r.loggers[name] = l
	r.linkParent(l)
	r.linkChildren(l)
	return l
}

// linkParent 父节点为已注册的最长祖先前缀；沿途缺失的祖先登记为 provision
func (r *Repository) linkParent(l *Logger) {
	name := l.name
	for i := strings.LastIndexByte(name, '.'); i > 0; i = strings.LastIndexByte(name[:i], '.') {
		prefix := name[:i]
		if p, ok := r.loggers[prefix]; ok {
			l.parent.Store(p)
			return
		}
		r.provisions[prefix] = append(r.provisions[prefix], l)
	}
	l.parent.Store(r.root)
}

// linkChildren 新节点插入后，把父指针指向更远祖先的后代改挂到新节点
func (r *Repository) linkChildren(l *Logger) {
	children, ok := r.provisions[l.name]
	if !ok {
		return
	}
	delete(r.provisions, l.name)
	for _, c := range children {
		p := c.parent.Load()
		// 子节点当前父级若是 l 的祖先，说明 l 更近；否则已有更近的中间节点
		if p == r.root || strings.HasPrefix(l.name, p.name+".") {
			c.parent.Store(l)
		}
	}
}

// Exists 返回已存在的 logger，不存在时返回 nil
func (r *Repository) Exists(name string) *Logger {
	name = strings.TrimSpace(name)
	if name == "" || name == RootName {
		return r.root
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loggers[name]
}

// Loggers 返回全部非根 logger，按名称排序
func (r *Repository) Loggers() []*Logger {
	r.mu.RLock()
	out := make([]*Logger, 0, len(r.loggers))
	for _, l := range r.loggers {
		out = append(out, l)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Logger) int { return strings.Compare(a.name, b.name) })
	return out
}

// Threshold 返回仓库级阈值
func (r *Repository) Threshold() Level {
	return Level(r.threshold.Load())
}

// SetThreshold 设置仓库级阈值，低于阈值的事件一律丢弃
func (r *Repository) SetThreshold(level Level) {
	r.threshold.Store(int64(level))
}

// SetCaptureLocation 设置是否捕获调用点源码位置
func (r *Repository) SetCaptureLocation(enabled bool) {
	r.captureLocation.Store(enabled)
}

// CaptureLocation 是否捕获调用点源码位置
func (r *Repository) CaptureLocation() bool {
	return r.captureLocation.Load()
}

// IsShutdown 仓库是否已关闭
func (r *Repository) IsShutdown() bool {
	return r.shutdown.Load()
}

// ErrorCount 返回累计的 appender 失败次数
func (r *Repository) ErrorCount() uint64 {
	return r.errorCount.Load()
}

// Reset 卸载并关闭全部 appender，清除非根级别，可加性恢复为 true
//
// logger 节点保留，已持有的引用仍然有效。返回前所有输出目标都已关闭。
// 关闭与进行中的 append 由各 appender 自身的锁串行化。
func (r *Repository) Reset() error {
	r.mu.Lock()
	detached := r.resetLocked()
	r.mu.Unlock()
	return closeAppenders(detached)
}

// Shutdown 与 Reset 效果相同，并进入终止状态
//
// 之后的日志调用为空操作，AddAppender/Configure 返回 ErrShutdown。
func (r *Repository) Shutdown() error {
	r.shutdown.Store(true)
	return r.Reset()
}

// resetLocked 恢复未配置状态并返回被卸载的 appender（已去重），调用方持有写锁
func (r *Repository) resetLocked() []Appender {
	var detached []Appender
	r.each(func(l *Logger) {
		detached = appendUnique(detached, l.RemoveAllAppenders()...)
		if l != r.root {
			l.level.Store(levelUnset)
		}
		l.additive.Store(true)
	})
	r.root.level.Store(int64(r.rootLevel))
	r.threshold.Store(int64(LevelAll))
	r.reported.Clear()
	return detached
}

// each 遍历根及全部 logger，调用方持有锁
func (r *Repository) each(fn func(l *Logger)) {
	fn(r.root)
	for _, l := range r.loggers {
		fn(l)
	}
}

// attached 当前挂载的全部 appender（去重），调用方持有锁
func (r *Repository) attached() []Appender {
	var out []Appender
	r.each(func(l *Logger) {
		out = appendUnique(out, l.Appenders()...)
	})
	return out
}

// callAppender 调用单个 appender，隔离其失败
//
// appender panic 被转换为资源错误，不影响同一事件的其他 appender。
// 关闭竞争下的 ErrClosed 视为丢弃，不作为失败上报。
func (r *Repository) callAppender(a Appender, e *Event) (err error) {
	if r.observer != nil {
		_, span := xmetrics.Start(context.Background(), r.observer, xmetrics.SpanOptions{
			Component: "xlog",
			Operation: "append",
			NoTrace:   true,
			Attrs:     []xmetrics.Attr{xmetrics.String("appender", a.Name())},
		})
		defer func() { span.End(xmetrics.Result{Err: err}) }()
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: appender %s panicked: %v", ErrResource, a.Name(), p)
			r.reportAppendError(a, err)
		}
	}()

	err = a.Append(e)
	if err == nil || errors.Is(err, ErrClosed) {
		return nil
	}
	r.reportAppendError(a, err)
	return err
}

// reportAppendError 计数全部失败，每个 appender 只回调一次
func (r *Repository) reportAppendError(a Appender, err error) {
	r.errorCount.Add(1)
	if _, loaded := r.reported.LoadOrStore(a, struct{}{}); loaded {
		return
	}
	r.handleError(fmt.Errorf("xlog: appender %q: %w", a.Name(), err))
}

// handleError 回调错误处理函数
//
// 同一时刻只有一个 goroutine 执行回调，其他错误进入队列由它依次投递。
// 回调 panic 被隔离并计数。
func (r *Repository) handleError(err error) {
	if r.onError == nil || err == nil {
		return
	}
	r.errMu.Lock()
	if r.delivering {
		r.pending = append(r.pending, err)
		r.errMu.Unlock()
		return
	}
	r.delivering = true
	r.errMu.Unlock()

	for {
		r.deliver(err)

		r.errMu.Lock()
		if len(r.pending) == 0 {
			r.delivering = false
			r.errMu.Unlock()
			return
		}
		err = r.pending[0]
		r.pending = r.pending[1:]
		r.errMu.Unlock()
	}
}

func (r *Repository) deliver(err error) {
	defer func() {
		if p := recover(); p != nil {
			r.errorCount.Add(1)
		}
	}()
	r.onError(err)
}

// appendUnique 按身份去重追加
func appendUnique(dst []Appender, as ...Appender) []Appender {
	for _, a := range as {
		if a != nil && !slices.Contains(dst, a) {
			dst = append(dst, a)
		}
	}
	return dst
}

// closeAppenders 逐个关闭，合并错误
func closeAppenders(as []Appender) error {
	var errs []error
	for _, a := range as {
		if err := a.Close(); err != nil && !errors.Is(err, ErrClosed) {
			errs = append(errs, fmt.Errorf("xlog: close appender %q: %w", a.Name(), err))
		}
	}
	return errors.Join(errs...)
}
