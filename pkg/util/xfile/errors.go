package xfile

import "errors"

var (
	// ErrEmptyPath 路径为空
	ErrEmptyPath = errors.New("xfile: path is required")

	// ErrInvalidPath 路径格式无效（目录路径、缺少文件名）
	ErrInvalidPath = errors.New("xfile: invalid path")

	// ErrNullByte 路径中包含空字节，内核会在该处截断路径
	ErrNullByte = errors.New("xfile: path contains null byte")

	// ErrInvalidPerm 目录权限缺少所有者执行位
	ErrInvalidPerm = errors.New("xfile: invalid directory permission")
)
