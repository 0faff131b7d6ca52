package xlogconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/omeyang/logkit/pkg/observability/xappender"
	"github.com/omeyang/logkit/pkg/observability/xlayout"
	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// 内置转换模式
const (
	// FilePattern 文件输出：级别、ISO8601 时间、logger、消息
	FilePattern = "%-5p %d{ISO8601}  %c %m%n"

	// ConsolePattern 控制台输出：着色级别、时分秒毫秒、logger、消息
	ConsolePattern = "%Y%-5p%y %d{HH:mm:ss,SSS}  %c %m%n"
)

// 默认名称
const (
	// FileAppenderName 基础配置创建的文件 appender 名称，该 appender 从不着色
	FileAppenderName = "FILE"

	// ConsoleAppenderName 基础配置创建的控制台 appender 名称
	ConsoleAppenderName = "CONSOLE"

	// DefaultConfigFile DefaultConfig 优先加载的配置文件（相对工作目录）
	DefaultConfigFile = "logkit.conf"

	// DefaultLoggerName DefaultLogger 使用的 logger 名称
	DefaultLoggerName = "Default"
)

// WriteToConsole 为 logger 添加控制台 appender
func WriteToConsole(logger *xlog.Logger) (*xappender.ConsoleAppender, error) {
	a, err := newConsole(ConsolePattern)
	if err != nil {
		return nil, err
	}
	if err := attach(logger, a); err != nil {
		return nil, err
	}
	return a, nil
}

// WriteToFile 为 logger 添加文件 appender，appendMode 为 false 时清空已有内容
func WriteToFile(path string, appendMode bool, logger *xlog.Logger) (*xappender.FileAppender, error) {
	a, err := newFile(path, appendMode, FilePattern)
	if err != nil {
		return nil, err
	}
	if err := attach(logger, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AppendToFile 为 logger 添加追加写入的文件 appender
func AppendToFile(path string, logger *xlog.Logger) (*xappender.FileAppender, error) {
	return WriteToFile(path, true, logger)
}

// LogToConsole 根 logger 输出到控制台并设置级别
func LogToConsole(repo *xlog.Repository, level xlog.Level) (*xappender.ConsoleAppender, error) {
	a, err := WriteToConsole(repo.Root())
	if err != nil {
		return nil, err
	}
	repo.Root().SetLevel(level)
	return a, nil
}

// LogToFile 根 logger 输出到文件（先清空）并设置级别
func LogToFile(repo *xlog.Repository, path string, level xlog.Level) (*xappender.FileAppender, error) {
	a, err := WriteToFile(path, false, repo.Root())
	if err != nil {
		return nil, err
	}
	repo.Root().SetLevel(level)
	return a, nil
}

// DefaultOptions 默认配置参数
type DefaultOptions struct {
	// Level 级别，零值使用 xlog.DefaultRootLevel
	Level xlog.Level

	// File 日志文件，为空时只输出到控制台
	File string

	// Dual 同时输出到控制台和 File
	Dual bool

	// PrintLocation 每条记录后追加 "  ->  file:line" 行
	PrintLocation bool

	// Color 控制台着色，文件输出从不着色
	Color bool

	// DatePattern 时间格式，默认 ABSOLUTE
	DatePattern string

	// ConfigFile 存在时优先加载的配置文件，默认 DefaultConfigFile
	ConfigFile string
}

func (o DefaultOptions) withDefaults() DefaultOptions {
	if o.Level == 0 {
		o.Level = xlog.DefaultRootLevel
	}
	if o.DatePattern == "" {
		o.DatePattern = xlayout.DateAbsolute
	}
	if o.ConfigFile == "" {
		o.ConfigFile = DefaultConfigFile
	}
	return o
}

// pattern 按选项拼出转换模式
func (o DefaultOptions) pattern(color bool) string {
	var b strings.Builder
	if color {
		b.WriteString("%Y")
	}
	b.WriteString("%-5p")
	if color {
		b.WriteString("%y")
	}
	b.WriteString(" %d{" + o.DatePattern + "}  %c %m%n")
	if o.PrintLocation {
		b.WriteString("  ->  %F:%L%n")
	}
	return b.String()
}

// DefaultConfig 配置根 logger
//
// ConfigFile 存在时直接加载它；否则按选项为根添加控制台和/或文件 appender。
// 不会先重置仓库，重复调用会叠加 appender。
func DefaultConfig(repo *xlog.Repository, opts DefaultOptions) error {
	opts = opts.withDefaults()
	_, err := os.Stat(opts.ConfigFile)
	switch {
	case err == nil:
		return Load(repo, opts.ConfigFile)
	case !errors.Is(err, fs.ErrNotExist):
		return xlog.ResourceError("stat", opts.ConfigFile, err)
	}
	if opts.PrintLocation {
		repo.SetCaptureLocation(true)
	}
	return configureDefault(repo.Root(), opts)
}

// defaultMu 串行化 DefaultLogger 的首次配置
var defaultMu sync.Mutex

// DefaultLogger 返回不向根传播的 "Default" logger
//
// 只有在它还没有 appender 时才按选项配置，之后的调用直接返回。
func DefaultLogger(repo *xlog.Repository, opts DefaultOptions) (*xlog.Logger, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	l := repo.Logger(DefaultLoggerName)
	l.SetAdditive(false)
	if l.NumberOfAppenders() > 0 {
		return l, nil
	}
	opts = opts.withDefaults()
	if opts.PrintLocation {
		repo.SetCaptureLocation(true)
	}
	if err := configureDefault(l, opts); err != nil {
		return nil, err
	}
	return l, nil
}

// configureDefault 先创建全部 appender，都成功后再挂载
func configureDefault(logger *xlog.Logger, opts DefaultOptions) error {
	if opts.Dual && opts.File == "" {
		return fmt.Errorf("%w: dual mode requires a file", xlog.ErrUsage)
	}

	var as []xlog.Appender
	if opts.File == "" || opts.Dual {
		a, err := newConsole(opts.pattern(opts.Color))
		if err != nil {
			return err
		}
		as = append(as, a)
	}
	if opts.File != "" {
		a, err := newFile(opts.File, true, opts.pattern(false))
		if err != nil {
			return errors.Join(err, xlog.CloseAll(as))
		}
		as = append(as, a)
	}

	logger.SetLevel(opts.Level)
	for i, a := range as {
		if err := logger.AddAppender(a); err != nil {
			for _, added := range as[:i] {
				logger.RemoveAppender(added)
			}
			return errors.Join(err, xlog.CloseAll(as))
		}
	}
	return nil
}

func newLayout(pattern string) (*xlayout.PatternLayout, error) {
	l := xlayout.NewPatternLayout(pattern)
	if err := l.ActivateOptions(); err != nil {
		return nil, err
	}
	return l, nil
}

func newConsole(pattern string) (*xappender.ConsoleAppender, error) {
	layout, err := newLayout(pattern)
	if err != nil {
		return nil, err
	}
	a := xappender.NewConsoleAppender(ConsoleAppenderName, layout)
	if err := a.ActivateOptions(); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

func newFile(path string, appendMode bool, pattern string) (*xappender.FileAppender, error) {
	layout, err := newLayout(pattern)
	if err != nil {
		return nil, err
	}
	a := xappender.NewFileAppender(FileAppenderName, path, layout)
	a.SetAppend(appendMode)
	a.SetImmediateFlush(true)
	if err := a.ActivateOptions(); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

// attach 挂载失败时关闭 appender
func attach(logger *xlog.Logger, a xlog.Appender) error {
	if logger == nil {
		return errors.Join(fmt.Errorf("%w: nil logger", xlog.ErrUsage), a.Close())
	}
	if err := logger.AddAppender(a); err != nil {
		return errors.Join(err, a.Close())
	}
	return nil
}
