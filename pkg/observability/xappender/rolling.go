package xappender

import (
	"errors"
	"sync/atomic"

	"github.com/omeyang/logkit/pkg/observability/xlog"
	"github.com/omeyang/logkit/pkg/observability/xrotate"
)

// RollingFileAppender 默认值
const (
	DefaultMaxFileSize    = 10 * 1024 * 1024
	DefaultMaxBackupIndex = 1
)

// RollingFileAppender 按大小或定时轮转的文件 appender
//
// 轮转由 xrotate 完成。定时轮转在后台发生，其错误在下一次 Append 时
// 以 ResourceError 返回，由仓库的错误回调上报。
type RollingFileAppender struct {
	FileAppender
	maxFileSize    uint64
	maxBackupIndex int
	maxAge         int
	compress       bool
	schedule       string

	rotator xrotate.Rotator
	pending atomic.Pointer[error]
}

// NewRollingFileAppender 创建轮转 appender，默认 10MB、保留 1 个备份
func NewRollingFileAppender(name, file string, layout xlog.Layout) *RollingFileAppender {
	return &RollingFileAppender{
		FileAppender:   newFileAppender(name, file, layout),
		maxFileSize:    DefaultMaxFileSize,
		maxBackupIndex: DefaultMaxBackupIndex,
	}
}

// SetMaxFileSize 设置单文件大小上限（字节），按 MB 向上取整
func (a *RollingFileAppender) SetMaxFileSize(n uint64) {
	a.mu.Lock()
	a.maxFileSize = n
	a.mu.Unlock()
}

// SetMaxBackupIndex 设置保留的备份数量
func (a *RollingFileAppender) SetMaxBackupIndex(n int) {
	a.mu.Lock()
	a.maxBackupIndex = n
	a.mu.Unlock()
}

// SetMaxAge 设置备份保留天数，0 表示不按天数清理
func (a *RollingFileAppender) SetMaxAge(days int) {
	a.mu.Lock()
	a.maxAge = days
	a.mu.Unlock()
}

// SetCompress 备份是否 gzip 压缩
func (a *RollingFileAppender) SetCompress(v bool) {
	a.mu.Lock()
	a.compress = v
	a.mu.Unlock()
}

// SetSchedule 设置 cron 表达式，为空时只按大小轮转
func (a *RollingFileAppender) SetSchedule(spec string) {
	a.mu.Lock()
	a.schedule = spec
	a.mu.Unlock()
}

// SetOption 在 FileAppender 选项之外支持
// MaxFileSize、MaxBackupIndex、MaxAge、Compress、Schedule
func (a *RollingFileAppender) SetOption(key, value string) error {
	switch xlog.OptionKey(key) {
	case "maxfilesize":
		n, err := xrotate.ParseSize(value)
		if err != nil {
			return xlog.InvalidOption(key, value, err)
		}
		a.SetMaxFileSize(n)
	case "maxbackupindex":
		n, err := xlog.ParseIntOption(key, value)
		if err != nil {
			return err
		}
		a.SetMaxBackupIndex(n)
	case "maxage":
		n, err := xlog.ParseIntOption(key, value)
		if err != nil {
			return err
		}
		a.SetMaxAge(n)
	case "compress":
		v, err := xlog.ParseBoolOption(key, value)
		if err != nil {
			return err
		}
		a.SetCompress(v)
	case "schedule":
		if err := xrotate.ValidateSchedule(value); err != nil {
			return xlog.InvalidOption(key, value, err)
		}
		a.SetSchedule(value)
	default:
		return a.setFileOption("RollingFileAppender", key, value)
	}
	return nil
}

// ActivateOptions 创建轮转器
//
// 轮转参数非法返回配置错误，文件无法打开返回 ResourceError。
func (a *RollingFileAppender) ActivateOptions() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkLocked(); err != nil {
		return err
	}

	r, err := xrotate.New(a.file,
		xrotate.WithMaxSize(xrotate.SizeToMB(a.maxFileSize)),
		xrotate.WithMaxBackups(a.maxBackupIndex),
		xrotate.WithMaxAge(a.maxAge),
		xrotate.WithCompress(a.compress),
		xrotate.WithSchedule(a.schedule),
		xrotate.WithTruncate(!a.appendMode),
		xrotate.WithOnError(a.deferError),
	)
	if err != nil {
		if isRotateConfigError(err) {
			return xlog.NewConfigError(a.name, err)
		}
		return xlog.ResourceError("open", a.file, err)
	}
	a.rotator = r
	return a.installLocked(r, r.Filename())
}

func isRotateConfigError(err error) bool {
	for _, target := range []error{
		xrotate.ErrInvalidMaxSize, xrotate.ErrInvalidMaxBackups, xrotate.ErrInvalidMaxAge,
		xrotate.ErrNoCleanupPolicy, xrotate.ErrInvalidFileMode, xrotate.ErrInvalidSchedule,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// deferError 保存后台错误，留给下一次 Append 返回
func (a *RollingFileAppender) deferError(err error) {
	a.pending.Store(&err)
}

// Append 写出事件，并返回此前积压的轮转错误
func (a *RollingFileAppender) Append(e *xlog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.appendLocked(e); err != nil {
		return err
	}
	if p := a.pending.Swap(nil); p != nil {
		return xlog.ResourceError("rotate", a.target, *p)
	}
	return nil
}

// Rotate 立即轮转
func (a *RollingFileAppender) Rotate() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return xlog.ErrClosed
	}
	if a.rotator == nil {
		return xlog.ErrNotActivated
	}
	if err := a.flushLocked(); err != nil {
		return err
	}
	if err := a.rotator.Rotate(); err != nil {
		return xlog.ResourceError("rotate", a.target, err)
	}
	return nil
}
