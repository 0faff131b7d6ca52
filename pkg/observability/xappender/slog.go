package xappender

import (
	"context"
	"log/slog"
	"strings"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// SlogAppender 把事件转发给 *slog.Logger
//
// 不需要 layout；设置了 layout 时消息取格式化结果（去掉结尾换行）。
// 事件的 logger 名挂在 Domain 下，作为 "logger" 属性输出，
// 例如 Domain=app、事件来自 db 时为 logger=app.db。
//
// 目标 slog.Logger 不能再经由 xlog.Handler 回到同一仓库，否则会递归。
type SlogAppender struct {
	base
	logger *slog.Logger
	domain string
}

var (
	_ xlog.Appender      = (*SlogAppender)(nil)
	_ xlog.OptionHandler = (*SlogAppender)(nil)
	_ xlog.Filterable    = (*SlogAppender)(nil)
	_ xlog.LayoutHolder  = (*SlogAppender)(nil)
)

// NewSlogAppender 创建转发 appender，logger 为 nil 时在 Append 时取 slog.Default()
func NewSlogAppender(name string, logger *slog.Logger) *SlogAppender {
	return &SlogAppender{base: newBase(name, nil), logger: logger}
}

// SetDomain 设置目标 logger 名前缀
func (a *SlogAppender) SetDomain(domain string) {
	a.mu.Lock()
	a.domain = domain
	a.mu.Unlock()
}

// SetOption 支持 Domain、Threshold
func (a *SlogAppender) SetOption(key, value string) error {
	if ok, err := a.setOption(key, value); ok {
		return err
	}
	if xlog.OptionKey(key) != "domain" {
		return xlog.OptionError("SlogAppender", key)
	}
	a.SetDomain(value)
	return nil
}

// ActivateOptions 无需额外准备
func (a *SlogAppender) ActivateOptions() error {
	return nil
}

// childName 对应原 logger 的子 logger 名
func childName(domain, logger string) string {
	switch {
	case domain == "":
		return logger
	case logger == "":
		return domain
	default:
		return domain + "." + logger
	}
}

// Append 转换为 slog.Record 交给目标 handler，保留事件时间
func (a *SlogAppender) Append(e *xlog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return xlog.ErrClosed
	}
	if !a.accept(e) {
		return nil
	}

	msg := e.Message
	if a.layout != nil {
		p, err := a.format(e)
		if err != nil {
			return err
		}
		msg = strings.TrimRight(string(p), "\r\n")
	}

	logger := a.logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()
	level := e.Level.Slog()
	h := logger.Handler()
	if !h.Enabled(ctx, level) {
		return nil
	}

	r := slog.NewRecord(e.Time, level, msg, 0)
	if name := childName(a.domain, e.Logger); name != "" {
		r.AddAttrs(slog.String("logger", name))
	}
	if !e.Location.IsZero() {
		r.AddAttrs(slog.Group("source",
			slog.String("function", e.Location.Function),
			slog.String("file", e.Location.File),
			slog.Int("line", e.Location.Line),
		))
	}
	if e.TraceID != "" {
		r.AddAttrs(slog.String("trace_id", e.TraceID))
	}
	if e.SpanID != "" {
		r.AddAttrs(slog.String("span_id", e.SpanID))
	}
	if err := h.Handle(ctx, r); err != nil {
		return xlog.ResourceError("forward", a.name, err)
	}
	return nil
}

// Close 释放 logger 引用，幂等
func (a *SlogAppender) Close() error {
	a.mu.Lock()
	a.closed = true
	a.logger = nil
	a.mu.Unlock()
	return nil
}
