package xappender

import (
	"fmt"
	"io"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

var (
	_ xlog.Appender      = (*WriterAppender)(nil)
	_ xlog.OptionHandler = (*WriterAppender)(nil)
	_ xlog.Filterable    = (*WriterAppender)(nil)
	_ xlog.LayoutHolder  = (*WriterAppender)(nil)
)

// flusher 带缓冲的写出目标
type flusher interface {
	Flush() error
}

// WriterAppender 把格式化后的事件写入任意 io.Writer
//
// 不持有 writer 的所有权，Close 只刷新缓冲，不关闭 writer。
type WriterAppender struct {
	base
	out            io.Writer
	closer         io.Closer // 由 appender 打开的目标，Close 时关闭
	immediateFlush bool
	target         string // 错误信息中的目标描述
}

// NewWriterAppender 创建写入 w 的 appender
func NewWriterAppender(name string, w io.Writer, layout xlog.Layout) *WriterAppender {
	return &WriterAppender{
		base:           newBase(name, layout),
		out:            w,
		immediateFlush: true,
		target:         name,
	}
}

// SetImmediateFlush 为 true 时每个事件写出后立即刷新缓冲
func (a *WriterAppender) SetImmediateFlush(v bool) {
	a.mu.Lock()
	a.immediateFlush = v
	a.mu.Unlock()
}

// SetOption 支持 Threshold、ImmediateFlush
func (a *WriterAppender) SetOption(key, value string) error {
	if ok, err := a.setOption(key, value); ok {
		return err
	}
	if xlog.OptionKey(key) != "immediateflush" {
		return xlog.OptionError("WriterAppender", key)
	}
	v, err := xlog.ParseBoolOption(key, value)
	if err != nil {
		return err
	}
	a.SetImmediateFlush(v)
	return nil
}

// ActivateOptions 检查 layout 与输出目标
func (a *WriterAppender) ActivateOptions() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.layout == nil {
		return xlog.ErrNoLayout
	}
	if a.out == nil {
		return fmt.Errorf("%w: %s has no writer", xlog.ErrUsage, a.name)
	}
	return nil
}

// Append 阈值与过滤器通过后格式化并写出
func (a *WriterAppender) Append(e *xlog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.appendLocked(e)
}

func (a *WriterAppender) appendLocked(e *xlog.Event) error {
	if a.closed {
		return xlog.ErrClosed
	}
	if !a.accept(e) {
		return nil
	}
	p, err := a.format(e)
	if err != nil {
		return err
	}
	if a.out == nil {
		return xlog.ErrNotActivated
	}
	if _, err := a.out.Write(p); err != nil {
		return xlog.ResourceError("write", a.target, err)
	}
	if a.immediateFlush {
		return a.flushLocked()
	}
	return nil
}

func (a *WriterAppender) flushLocked() error {
	if f, ok := a.out.(flusher); ok {
		if err := f.Flush(); err != nil {
			return xlog.ResourceError("flush", a.target, err)
		}
	}
	return nil
}

// Flush 刷新缓冲区
func (a *WriterAppender) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.out == nil {
		return nil
	}
	return a.flushLocked()
}

// Close 刷新缓冲并释放自己打开的目标，幂等
func (a *WriterAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.releaseLocked()
}

// releaseLocked 刷新并关闭当前目标
func (a *WriterAppender) releaseLocked() error {
	var err error
	if a.out != nil {
		err = a.flushLocked()
	}
	if a.closer != nil {
		if cerr := a.closer.Close(); cerr != nil && err == nil {
			err = xlog.ResourceError("close", a.target, cerr)
		}
		a.closer = nil
	}
	a.out = nil
	return err
}
