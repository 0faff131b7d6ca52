package xappender

import (
	"io"
	"os"
	"strings"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// Console 输出目标
const (
	TargetStdout = "System.out"
	TargetStderr = "System.err"
)

// ConsoleAppender 写入标准输出或标准错误
type ConsoleAppender struct {
	WriterAppender
	targetName string
}

// NewConsoleAppender 创建写入标准输出的 appender
func NewConsoleAppender(name string, layout xlog.Layout) *ConsoleAppender {
	return &ConsoleAppender{
		WriterAppender: WriterAppender{
			base:           newBase(name, layout),
			out:            os.Stdout,
			immediateFlush: true,
			target:         TargetStdout,
		},
		targetName: TargetStdout,
	}
}

// SetTarget 设置输出目标，ActivateOptions 后生效
func (a *ConsoleAppender) SetTarget(target string) error {
	if _, ok := consoleWriter(target); !ok {
		return xlog.InvalidOption("Target", target, nil)
	}
	a.mu.Lock()
	a.targetName = target
	a.mu.Unlock()
	return nil
}

// Target 返回输出目标
func (a *ConsoleAppender) Target() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.targetName
}

// consoleWriter 接受 System.out/System.err 及 stdout/stderr，不区分大小写
func consoleWriter(target string) (io.Writer, bool) {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "system.out", "stdout":
		return os.Stdout, true
	case "system.err", "stderr":
		return os.Stderr, true
	default:
		return nil, false
	}
}

// SetOption 支持 Target 以及 WriterAppender 的选项
func (a *ConsoleAppender) SetOption(key, value string) error {
	switch xlog.OptionKey(key) {
	case "target":
		return a.SetTarget(value)
	case "threshold", "immediateflush":
		return a.WriterAppender.SetOption(key, value)
	default:
		return xlog.OptionError("ConsoleAppender", key)
	}
}

// ActivateOptions 绑定输出目标
func (a *ConsoleAppender) ActivateOptions() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.layout == nil {
		return xlog.ErrNoLayout
	}
	w, _ := consoleWriter(a.targetName)
	a.out = w
	a.target = a.targetName
	return nil
}
