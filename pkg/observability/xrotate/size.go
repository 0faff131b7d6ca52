package xrotate

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const bytesPerMB = 1024 * 1024

// ParseSize 解析文件大小配置，返回字节数
//
// 接受纯数字（字节）以及 KB/MB/GB 后缀，后缀不区分大小写且按 1024 进制，
// 与 "10MiB" 等价。显式的 SI 写法无法表达，"10 kB" 同样按 1024 计算。
func ParseSize(s string) (uint64, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSize)
	}
	u := strings.ToUpper(t)
	for _, suffix := range []string{"KB", "MB", "GB", "TB"} {
		if strings.HasSuffix(u, suffix) {
			t = t[:len(t)-len(suffix)] + suffix[:1] + "iB"
			break
		}
	}
	n, err := humanize.ParseBytes(t)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidSize, s, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidSize, s)
	}
	return n, nil
}

// SizeToMB 将字节数向上取整为 MB，lumberjack 的大小粒度为 MB
func SizeToMB(n uint64) int {
	mb := (n + bytesPerMB - 1) / bytesPerMB
	if mb == 0 {
		return 1
	}
	if mb > maxSizeMB {
		return maxSizeMB + 1
	}
	return int(mb)
}

// FormatSize 以 1024 进制输出可读大小，如 "10 MiB"
func FormatSize(n uint64) string {
	return humanize.IBytes(n)
}
