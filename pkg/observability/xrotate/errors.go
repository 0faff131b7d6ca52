package xrotate

import "errors"

// 配置校验错误
var (
	// ErrInvalidMaxSize MaxSizeMB 超出 1~10240
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSizeMB")

	// ErrInvalidMaxBackups MaxBackups 超出 0~1024
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidMaxAge MaxAgeDays 超出 0~3650
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxAgeDays")

	// ErrNoCleanupPolicy MaxBackups 和 MaxAgeDays 同时为 0
	ErrNoCleanupPolicy = errors.New("xrotate: no cleanup policy configured")

	// ErrInvalidFileMode FileMode 包含权限位以外的位
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")

	// ErrInvalidSchedule cron 表达式无法解析
	ErrInvalidSchedule = errors.New("xrotate: invalid schedule")

	// ErrInvalidSize 文件大小字符串无法解析
	ErrInvalidSize = errors.New("xrotate: invalid size")

	// ErrClosed 轮转器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")
)
