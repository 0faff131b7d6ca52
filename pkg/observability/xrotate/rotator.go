package xrotate

import "io"

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器
//
// RollingFileAppender 的写入目标。所有实现并发安全，
// Close 后调用 Write 或 Rotate 返回 [ErrClosed]。
type Rotator interface {
	// Write 写入日志数据，超过大小上限时自动轮转
	Write(p []byte) (n int, err error)

	// Close 停止定时轮转并关闭当前文件，重复调用返回 [ErrClosed]
	Close() error

	// Rotate 手动触发轮转：当前文件改名为备份，再创建新文件
	Rotate() error

	// Filename 返回规范化后的日志文件路径
	Filename() string
}
