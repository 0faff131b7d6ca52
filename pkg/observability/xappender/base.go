package xappender

import (
	"sync"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// base 所有 appender 共享的状态：名称、layout、过滤器链和阈值
//
// mu 串行化同一 appender 的全部写出，一个事件对应一次底层写入。
type base struct {
	mu        sync.Mutex
	name      string
	layout    xlog.Layout
	filters   []xlog.Filter
	threshold xlog.Level
	closed    bool
	buf       []byte
}

func newBase(name string, layout xlog.Layout) base {
	return base{name: name, layout: layout, threshold: xlog.LevelAll}
}

// Name 返回 appender 名称
func (b *base) Name() string {
	return b.name
}

// SetLayout 设置 layout
func (b *base) SetLayout(l xlog.Layout) {
	b.mu.Lock()
	b.layout = l
	b.mu.Unlock()
}

// Layout 返回当前 layout
func (b *base) Layout() xlog.Layout {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.layout
}

// AddFilter 追加到过滤器链末尾
func (b *base) AddFilter(f xlog.Filter) {
	if f == nil {
		return
	}
	b.mu.Lock()
	b.filters = append(b.filters, f)
	b.mu.Unlock()
}

// ClearFilters 清空过滤器链
func (b *base) ClearFilters() {
	b.mu.Lock()
	b.filters = nil
	b.mu.Unlock()
}

// Filters 返回过滤器链的副本
func (b *base) Filters() []xlog.Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]xlog.Filter, len(b.filters))
	copy(out, b.filters)
	return out
}

// SetThreshold 低于阈值的事件直接丢弃
func (b *base) SetThreshold(l xlog.Level) {
	b.mu.Lock()
	b.threshold = l
	b.mu.Unlock()
}

// Threshold 返回阈值
func (b *base) Threshold() xlog.Level {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.threshold
}

// setOption 处理所有 appender 共有的选项，handled 为 false 表示交给具体类型
func (b *base) setOption(key, value string) (handled bool, err error) {
	if xlog.OptionKey(key) != "threshold" {
		return false, nil
	}
	l, err := xlog.ParseLevelOption(key, value)
	if err != nil {
		return true, err
	}
	b.SetThreshold(l)
	return true, nil
}

// accept 阈值与过滤器链判定，调用方持有 mu
func (b *base) accept(e *xlog.Event) bool {
	if e.Level < b.threshold {
		return false
	}
	return xlog.Decide(b.filters, e)
}

// format 用 layout 格式化到复用缓冲区，调用方持有 mu
func (b *base) format(e *xlog.Event) ([]byte, error) {
	if b.layout == nil {
		return nil, xlog.ErrNoLayout
	}
	out, err := b.layout.Format(b.buf[:0], e)
	if err != nil {
		return nil, err
	}
	// 超大事件不长期占用内存
	if cap(out) <= maxRetainedBuf {
		b.buf = out
	}
	return out, nil
}

const maxRetainedBuf = 64 << 10
