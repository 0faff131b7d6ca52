package xlogconf

import (
	"fmt"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// 配置加载错误，均属于 xlog.ErrConfiguration 类别
var (
	// ErrUnknownAlias 注册表中没有该类别名
	ErrUnknownAlias = fmt.Errorf("%w: unknown class alias", xlog.ErrConfiguration)

	// ErrUndeclaredAppender logger 行引用了未声明的 appender
	ErrUndeclaredAppender = fmt.Errorf("%w: undeclared appender", xlog.ErrConfiguration)

	// ErrMalformed 键或值的结构不合法
	ErrMalformed = fmt.Errorf("%w: malformed entry", xlog.ErrConfiguration)

	// ErrUnsupportedComponent 组件不具备所需能力（如 appender 不接受 layout）
	ErrUnsupportedComponent = fmt.Errorf("%w: unsupported component", xlog.ErrConfiguration)
)
