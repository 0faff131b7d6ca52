package xfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDirPerm 默认目录权限（gosec G301）
const DefaultDirPerm = 0o750

// DefaultFilePerm 日志文件权限，采集进程需要读取
const DefaultFilePerm = 0o644

// EnsureDir 以 DefaultDirPerm 创建 filename 的父目录，已存在时不报错
func EnsureDir(filename string) error {
	return EnsureDirWithPerm(filename, DefaultDirPerm)
}

// EnsureDirWithPerm 以指定权限创建 filename 的父目录
//
// perm 必须包含所有者执行位（0100），否则目录无法遍历。
// 已存在的目录不修改权限。
func EnsureDirWithPerm(filename string, perm os.FileMode) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	if perm&0o100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, perm)
}

// OpenFile 校验路径、创建父目录后打开日志文件
//
// appendMode 为 true 时追加写入，否则截断已有内容。
// 返回规范化后的路径，供后续轮转、重开使用。
func OpenFile(filename string, appendMode bool) (*os.File, string, error) {
	path, err := SanitizePath(filename)
	if err != nil {
		return nil, "", err
	}
	if err := EnsureDir(path); err != nil {
		return nil, "", err
	}
	flag := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	//#nosec G302 G304 -- 路径已经过 SanitizePath 校验
	f, err := os.OpenFile(path, flag, DefaultFilePerm)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}
