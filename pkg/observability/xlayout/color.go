package xlayout

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// ANSI 颜色
const (
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// levelColor ERROR 及以上红色，WARN 黄色，其余绿色
func levelColor(l xlog.Level) string {
	switch {
	case l >= xlog.LevelError:
		return colorRed
	case l >= xlog.LevelWarn:
		return colorYellow
	default:
		return colorGreen
	}
}

// levelWidth 级别列宽：五字符级别名加一个分隔空格
const levelWidth = 6

var (
	_ xlog.Layout        = (*ColorLayout)(nil)
	_ xlog.OptionHandler = (*ColorLayout)(nil)
	_ xlog.LocationAware = (*ColorLayout)(nil)
)

// colorConfig ActivateOptions 时生成的只读快照
type colorConfig struct {
	color         bool
	printLocation bool
	date          *DateFormat
}

// ColorLayout 按级别着色的单行布局
//
// 输出形如：
//
//	[时间 ]LEVEL  logger message
//	  -> file:line
//
// 时间和位置行均为可选。Color 为 true 时级别名按严重程度着色，
// 位置行中文件名黄色、行号红色。
type ColorLayout struct {
	mu            sync.Mutex
	color         bool
	printLocation bool
	datePattern   string

	active atomic.Pointer[colorConfig]
}

// NewColorLayout 创建布局，默认不着色、不输出时间和位置，需调用 ActivateOptions
func NewColorLayout() *ColorLayout {
	return &ColorLayout{datePattern: DateNull}
}

// SetColor 设置是否着色
func (l *ColorLayout) SetColor(v bool) {
	l.mu.Lock()
	l.color = v
	l.mu.Unlock()
}

// SetPrintLocation 设置是否输出位置行
func (l *ColorLayout) SetPrintLocation(v bool) {
	l.mu.Lock()
	l.printLocation = v
	l.mu.Unlock()
}

// SetDatePattern 设置日期格式
func (l *ColorLayout) SetDatePattern(p string) {
	l.mu.Lock()
	l.datePattern = p
	l.mu.Unlock()
}

// SetOption 支持 Color、PrintLocation、DatePattern、PrintTime
//
// PrintTime=true 等价于 DatePattern=RELATIVE。
func (l *ColorLayout) SetOption(key, value string) error {
	switch xlog.OptionKey(key) {
	case "color":
		v, err := xlog.ParseBoolOption(key, value)
		if err != nil {
			return err
		}
		l.SetColor(v)
	case "printlocation":
		v, err := xlog.ParseBoolOption(key, value)
		if err != nil {
			return err
		}
		l.SetPrintLocation(v)
	case "printtime":
		v, err := xlog.ParseBoolOption(key, value)
		if err != nil {
			return err
		}
		if v {
			l.SetDatePattern(DateRelative)
		} else {
			l.SetDatePattern(DateNull)
		}
	case "datepattern":
		l.SetDatePattern(value)
	default:
		return xlog.OptionError("ColorLayout", key)
	}
	return nil
}

// ActivateOptions 解析日期格式并使当前选项生效，可重复调用
func (l *ColorLayout) ActivateOptions() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	df, err := NewDateFormat(l.datePattern)
	if err != nil {
		return err
	}
	l.active.Store(&colorConfig{color: l.color, printLocation: l.printLocation, date: df})
	return nil
}

// RequiresLocation 输出位置行时需要调用点信息
func (l *ColorLayout) RequiresLocation() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.printLocation
}

// Format 实现 xlog.Layout
func (l *ColorLayout) Format(dst []byte, e *xlog.Event) ([]byte, error) {
	cfg := l.active.Load()
	if cfg == nil {
		return dst, xlog.ErrNotActivated
	}

	if !cfg.date.IsNull() {
		dst = cfg.date.AppendFormat(dst, e.Time)
		dst = append(dst, ' ')
	}
	if cfg.color {
		dst = append(dst, levelColor(e.Level)...)
	}
	dst = appendLeft(dst, e.Level.String(), levelWidth)
	if cfg.color {
		dst = append(dst, colorReset...)
	}
	dst = append(dst, e.Logger...)
	dst = append(dst, ' ')
	dst = append(dst, e.Message...)

	if cfg.printLocation {
		dst = append(dst, "\n  -> "...)
		if cfg.color {
			dst = append(dst, colorYellow...)
		}
		dst = append(dst, locationFile(e.Location)...)
		if cfg.color {
			dst = append(dst, colorReset...)
		}
		dst = append(dst, ':')
		if cfg.color {
			dst = append(dst, colorRed...)
		}
		dst = appendLine(dst, e.Location)
		if cfg.color {
			dst = append(dst, colorReset...)
		}
	}
	return append(dst, '\n'), nil
}

// appendLeft 左对齐，不足 width 时右侧补空格
func appendLeft(dst []byte, s string, width int) []byte {
	dst = append(dst, s...)
	for i := len(s); i < width; i++ {
		dst = append(dst, ' ')
	}
	return dst
}

func locationFile(loc xlog.Location) string {
	if loc.File == "" {
		return "?"
	}
	return loc.File
}

func appendLine(dst []byte, loc xlog.Location) []byte {
	if loc.Line <= 0 {
		return append(dst, '?')
	}
	return strconv.AppendInt(dst, int64(loc.Line), 10)
}
