package xlayout

import "github.com/omeyang/logkit/pkg/observability/xlog"

var (
	_ xlog.Layout        = SimpleLayout{}
	_ xlog.OptionHandler = SimpleLayout{}
)

// SimpleLayout 输出 "LEVEL - message\n"，无选项，无需激活
type SimpleLayout struct{}

// Format 实现 xlog.Layout
func (SimpleLayout) Format(dst []byte, e *xlog.Event) ([]byte, error) {
	dst = append(dst, e.Level.String()...)
	dst = append(dst, " - "...)
	dst = append(dst, e.Message...)
	return append(dst, '\n'), nil
}

// SetOption 不支持任何选项
func (SimpleLayout) SetOption(key, _ string) error {
	return xlog.OptionError("SimpleLayout", key)
}

// ActivateOptions 无需处理
func (SimpleLayout) ActivateOptions() error { return nil }
