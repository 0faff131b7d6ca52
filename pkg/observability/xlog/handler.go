package xlog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// 编译时接口检查
var _ slog.Handler = (*Handler)(nil)

// Handler 将 slog 记录转发到 Logger 的 slog.Handler
//
// 属性以 " key=value" 追加到消息文本之后，分组以 "group." 作为键前缀。
// 级别判断与 Logger.IsEnabled 一致。
type Handler struct {
	logger *Logger
	prefix string // 当前分组前缀，形如 "a.b."
	attrs  string // 已预渲染的 WithAttrs 属性
}

// NewHandler 创建以 l 为输出的 Handler
func NewHandler(l *Logger) *Handler {
	return &Handler{logger: l}
}

// Enabled 实现 slog.Handler
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.IsEnabled(LevelFromSlog(level))
}

// Handle 实现 slog.Handler
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.prefix, a)
		return true
	})

	e := &Event{
		Logger:   h.logger.name,
		Level:    LevelFromSlog(r.Level),
		Message:  b.String(),
		Time:     r.Time,
		Location: locationFromPC(r.PC),
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.withTrace(ctx)
	return h.logger.Dispatch(e)
}

// WithAttrs 实现 slog.Handler
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, h.prefix, a)
	}
	nh := *h
	nh.attrs = b.String()
	return &nh
}

// WithGroup 实现 slog.Handler
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

// appendAttr 渲染单个属性，分组递归展开
func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			appendAttr(b, p, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	s := v.String()
	if strings.ContainsAny(s, " =\"\n") {
		s = strconv.Quote(s)
	}
	b.WriteString(s)
}
