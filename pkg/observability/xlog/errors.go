package xlog

import (
	"errors"
	"fmt"
)

// 错误类别，使用 errors.Is 判断
var (
	// ErrConfiguration 配置错误：语法错误、未知别名、未声明的 appender 引用等
	ErrConfiguration = errors.New("xlog: configuration error")

	// ErrResource 资源错误：输出目标无法打开或写入
	ErrResource = errors.New("xlog: resource error")

	// ErrUsage 使用错误：违反调用前置条件
	ErrUsage = errors.New("xlog: usage error")
)

// 具体错误
var (
	// ErrUnknownLevel 无法识别的级别符号
	ErrUnknownLevel = fmt.Errorf("%w: unknown level", ErrConfiguration)

	// ErrRootLevel 根 logger 的级别不能设置为继承
	ErrRootLevel = fmt.Errorf("%w: root logger level cannot be inherited", ErrUsage)

	// ErrNotActivated 组件在 ActivateOptions 之前被使用
	ErrNotActivated = fmt.Errorf("%w: options not activated", ErrUsage)

	// ErrClosed appender 已关闭
	ErrClosed = fmt.Errorf("%w: appender is closed", ErrUsage)

	// ErrNoLayout appender 未设置 layout
	ErrNoLayout = fmt.Errorf("%w: appender has no layout", ErrUsage)

	// ErrNilAppender 传入了 nil appender
	ErrNilAppender = fmt.Errorf("%w: appender is nil", ErrUsage)

	// ErrShutdown 仓库已关闭
	ErrShutdown = fmt.Errorf("%w: repository is shut down", ErrUsage)

	// ErrUnknownOption 组件不支持该选项
	ErrUnknownOption = fmt.Errorf("%w: unknown option", ErrConfiguration)

	// ErrInvalidOption 选项值非法
	ErrInvalidOption = fmt.Errorf("%w: invalid option value", ErrConfiguration)
)

// ConfigError 携带出错配置键的配置错误
//
// errors.Is(err, ErrConfiguration) 恒为 true，同时保留底层原因。
type ConfigError struct {
	Key string
	Err error
}

// Error 实现 error 接口
func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("xlog: configuration error: %v", e.Err)
	}
	return fmt.Sprintf("xlog: configuration error at %q: %v", e.Key, e.Err)
}

// Unwrap 同时暴露类别和原因
func (e *ConfigError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

// NewConfigError 创建配置错误
func NewConfigError(key string, err error) error {
	return &ConfigError{Key: key, Err: err}
}

// ResourceError 包装输出目标的 I/O 失败
func ResourceError(op, target string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrResource, op, target, err)
}

// OptionError 返回选项不支持的错误
func OptionError(component, key string) error {
	return fmt.Errorf("%w %q for %s", ErrUnknownOption, key, component)
}

// InvalidOption 返回选项值非法的错误
func InvalidOption(key, value string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidOption, key, value)
	}
	return fmt.Errorf("%w: %s=%q: %w", ErrInvalidOption, key, value, err)
}
