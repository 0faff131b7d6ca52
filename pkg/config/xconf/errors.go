package xconf

import "errors"

// 配置加载和解析相关错误。
var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 配置文件读取失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 配置内容解析失败，包括 ${} 展开时的循环引用。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrNotReloadable 从字节数据创建的配置不能重载或监视。
	ErrNotReloadable = errors.New("xconf: config created from bytes")
)
