package xlog

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Level 日志级别，按 rank 全序比较
//
// 数值沿用 log4j 体系（TRACE=5000 … FATAL=50000），
// ALL/OFF 为哨兵值：ALL 总是启用，OFF 从不启用。
type Level int32

// 日志级别常量
const (
	LevelAll   Level = math.MinInt32
	LevelTrace Level = 5000
	LevelDebug Level = 10000
	LevelInfo  Level = 20000
	LevelWarn  Level = 30000
	LevelError Level = 40000
	LevelFatal Level = 50000
	LevelOff   Level = math.MaxInt32
)

// DefaultRootLevel 根 logger 的默认级别
const DefaultRootLevel = LevelWarn

// String 返回级别的符号名
func (l Level) String() string {
	switch l {
	case LevelAll:
		return "ALL"
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	case LevelOff:
		return "OFF"
	default:
		return "LEVEL(" + strconv.Itoa(int(l)) + ")"
	}
}

// MarshalText 实现 encoding.TextMarshaler 接口
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler 接口
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析级别符号名
//
// 大小写敏感：只接受 ALL/TRACE/DEBUG/INFO/WARN/ERROR/FATAL/OFF，
// 与配置文件中已有的写法保持一致。首尾空白会被去除。
func ParseLevel(s string) (Level, error) {
	switch strings.TrimSpace(s) {
	case "ALL":
		return LevelAll, nil
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	case "OFF":
		return LevelOff, nil
	default:
		return LevelOff, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}

// Levels 返回六个可用于记录事件的级别，按 rank 从高到低
func Levels() []Level {
	return []Level{LevelFatal, LevelError, LevelWarn, LevelInfo, LevelDebug, LevelTrace}
}

// Slog 转换为 slog.Level
//
// TRACE → Debug-4，FATAL → Error+4，ALL/OFF 映射到 slog 可表示的两端。
func (l Level) Slog() slog.Level {
	switch {
	case l <= LevelAll:
		return slog.Level(math.MinInt32 / 2)
	case l < LevelDebug:
		return slog.LevelDebug - 4
	case l < LevelInfo:
		return slog.LevelDebug
	case l < LevelWarn:
		return slog.LevelInfo
	case l < LevelError:
		return slog.LevelWarn
	case l < LevelFatal:
		return slog.LevelError
	case l < LevelOff:
		return slog.LevelError + 4
	default:
		return slog.Level(math.MaxInt32 / 2)
	}
}

// LevelFromSlog 将 slog.Level 映射到最接近的 Level
func LevelFromSlog(l slog.Level) Level {
	switch {
	case l < slog.LevelDebug:
		return LevelTrace
	case l < slog.LevelInfo:
		return LevelDebug
	case l < slog.LevelWarn:
		return LevelInfo
	case l < slog.LevelError:
		return LevelWarn
	case l < slog.LevelError+4:
		return LevelError
	default:
		return LevelFatal
	}
}
