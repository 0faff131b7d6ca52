package xlog

import (
	"strconv"
	"strings"
)

// 选项值解析，供 appender/layout/filter 的 SetOption 使用。
// 解析失败统一返回 InvalidOption 错误（配置错误类别）。

// OptionKey 归一化选项键：去空白、转小写
func OptionKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// ParseBoolOption 只接受 true/false（大小写不敏感）
func ParseBoolOption(key, value string) (bool, error) {
	v := strings.TrimSpace(value)
	switch {
	case strings.EqualFold(v, "true"):
		return true, nil
	case strings.EqualFold(v, "false"):
		return false, nil
	default:
		return false, InvalidOption(key, value, nil)
	}
}

// ParseLevelOption 解析级别选项
func ParseLevelOption(key, value string) (Level, error) {
	l, err := ParseLevel(value)
	if err != nil {
		return 0, InvalidOption(key, value, err)
	}
	return l, nil
}

// ParseIntOption 解析非负整数选项
func ParseIntOption(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, InvalidOption(key, value, err)
	}
	if n < 0 {
		return 0, InvalidOption(key, value, nil)
	}
	return n, nil
}
