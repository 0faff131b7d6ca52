package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SanitizePath 校验并规范化日志文件路径
//
// 路径先经 filepath.Clean 规范化。以 ".." 开头的相对路径（如 "../logs/app.log"）
// 按当前工作目录解析为绝对路径，其余相对路径保持相对。
// 拒绝空路径、含空字节的路径、以分隔符结尾的目录路径。
// 文件名中的 ".."（如 "app..2024.log"）不受影响。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if strings.ContainsRune(filename, 0) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// Clean 会去掉尾部分隔符，必须先检查
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path %q is a directory: %w", filename, ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if cleaned == ".." {
		return "", fmt.Errorf("no file name in %q: %w", filename, ErrInvalidPath)
	}
	if escapesWorkDir(cleaned) {
		abs, err := filepath.Abs(cleaned)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w: %w", filename, ErrInvalidPath, err)
		}
		cleaned = abs
	}
	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name in %q: %w", filename, ErrInvalidPath)
	}
	return cleaned, nil
}

// escapesWorkDir 规范化后的相对路径是否以 ".." 段开头
func escapesWorkDir(cleaned string) bool {
	if filepath.IsAbs(cleaned) {
		return false
	}
	return strings.HasPrefix(cleaned, ".."+string(filepath.Separator))
}
