package xlayout

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// DefaultConversionPattern 未设置 ConversionPattern 时使用
const DefaultConversionPattern = "%m%n"

var (
	_ xlog.Layout        = (*PatternLayout)(nil)
	_ xlog.OptionHandler = (*PatternLayout)(nil)
	_ xlog.LocationAware = (*PatternLayout)(nil)
)

// patternOp 转换模式中的一个片段
type patternOp struct {
	literal   string
	conv      byte   // 转换字符，literal 非空时为 0
	arg       string // 花括号参数
	leftAlign bool
	min       int
	max       int // 0 表示不截断

	precision int         // %c{n}
	date      *DateFormat // %d{fmt}
}

// compiledPattern ActivateOptions 时生成的只读快照
type compiledPattern struct {
	ops      []patternOp
	location bool
}

// PatternLayout 按转换模式格式化事件
//
// 支持的转换字符：
//
//	%c{n}  logger 名，n 为保留的末尾段数
//	%p     级别
//	%m     消息
//	%n     换行
//	%d{f}  时间，f 为日期格式（默认 ISO8601，NULL 为空）
//	%r     自启动以来的毫秒数
//	%F %L %M %l  文件、行号、函数、三者合并
//	%X{k}  trace_id 或 span_id
//	%Y %y  按级别着色开始、结束
//	%%     百分号
//
// 修饰符：- 左对齐，数字为最小宽度，.数字为最大宽度（超出时保留末尾）。
type PatternLayout struct {
	mu      sync.Mutex
	pattern string

	active atomic.Pointer[compiledPattern]
}

// NewPatternLayout 创建布局，需调用 ActivateOptions
func NewPatternLayout(pattern string) *PatternLayout {
	if pattern == "" {
		pattern = DefaultConversionPattern
	}
	return &PatternLayout{pattern: pattern}
}

// SetConversionPattern 设置转换模式，重新激活后生效
func (l *PatternLayout) SetConversionPattern(p string) {
	l.mu.Lock()
	l.pattern = p
	l.mu.Unlock()
}

// ConversionPattern 返回当前设置的转换模式
func (l *PatternLayout) ConversionPattern() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pattern
}

// SetOption 支持 ConversionPattern
func (l *PatternLayout) SetOption(key, value string) error {
	switch xlog.OptionKey(key) {
	case "conversionpattern":
		l.SetConversionPattern(value)
	default:
		return xlog.OptionError("PatternLayout", key)
	}
	return nil
}

// ActivateOptions 编译转换模式，可重复调用
func (l *PatternLayout) ActivateOptions() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp, err := compilePattern(l.pattern)
	if err != nil {
		return err
	}
	l.active.Store(cp)
	return nil
}

// RequiresLocation 模式中含 %F %L %M %l 时需要调用点信息
func (l *PatternLayout) RequiresLocation() bool {
	if cp := l.active.Load(); cp != nil {
		return cp.location
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cp, err := compilePattern(l.pattern)
	return err == nil && cp.location
}

// Format 实现 xlog.Layout
func (l *PatternLayout) Format(dst []byte, e *xlog.Event) ([]byte, error) {
	cp := l.active.Load()
	if cp == nil {
		return dst, xlog.ErrNotActivated
	}
	for i := range cp.ops {
		op := &cp.ops[i]
		if op.conv == 0 {
			dst = append(dst, op.literal...)
			continue
		}
		start := len(dst)
		dst = op.render(dst, e)
		dst = op.fit(dst, start)
	}
	return dst, nil
}

// render 输出转换结果
func (op *patternOp) render(dst []byte, e *xlog.Event) []byte {
	switch op.conv {
	case 'c':
		return append(dst, lastSegments(e.Logger, op.precision)...)
	case 'p':
		return append(dst, e.Level.String()...)
	case 'm':
		return append(dst, e.Message...)
	case 'n':
		return append(dst, '\n')
	case 'd':
		return op.date.AppendFormat(dst, e.Time)
	case 'r':
		return strconv.AppendInt(dst, e.Relative(), 10)
	case 'F':
		return append(dst, locationFile(e.Location)...)
	case 'L':
		return appendLine(dst, e.Location)
	case 'M':
		if e.Location.Function == "" {
			return append(dst, '?')
		}
		return append(dst, e.Location.Function...)
	case 'l':
		if e.Location.Function != "" {
			dst = append(dst, e.Location.Function...)
		} else {
			dst = append(dst, '?')
		}
		dst = append(dst, '(')
		dst = append(dst, locationFile(e.Location)...)
		dst = append(dst, ':')
		dst = appendLine(dst, e.Location)
		return append(dst, ')')
	case 'X':
		switch op.arg {
		case "trace_id":
			return append(dst, e.TraceID...)
		case "span_id":
			return append(dst, e.SpanID...)
		}
		return dst
	case 'Y':
		return append(dst, levelColor(e.Level)...)
	case 'y':
		return append(dst, colorReset...)
	}
	return dst
}

// fit 对 dst[start:] 应用最大宽度截断和最小宽度填充
func (op *patternOp) fit(dst []byte, start int) []byte {
	n := len(dst) - start
	if op.max > 0 && n > op.max {
		copy(dst[start:], dst[len(dst)-op.max:])
		dst = dst[:start+op.max]
		n = op.max
	}
	if n >= op.min {
		return dst
	}
	pad := op.min - n
	if op.leftAlign {
		for range pad {
			dst = append(dst, ' ')
		}
		return dst
	}
	for range pad {
		dst = append(dst, ' ')
	}
	copy(dst[start+pad:], dst[start:start+n])
	for i := start; i < start+pad; i++ {
		dst[i] = ' '
	}
	return dst
}

// lastSegments 保留名称末尾 n 段，n<=0 返回全名
func lastSegments(name string, n int) string {
	if n <= 0 {
		return name
	}
	end := len(name)
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			n--
			if n == 0 {
				return name[i+1 : end]
			}
		}
	}
	return name
}

// compilePattern 解析转换模式
func compilePattern(p string) (*compiledPattern, error) {
	cp := &compiledPattern{}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			cp.ops = append(cp.ops, patternOp{literal: lit.String()})
			lit.Reset()
		}
	}
	bad := func(format string, args ...any) error {
		return xlog.InvalidOption("ConversionPattern", p, fmt.Errorf(format, args...))
	}

	for i := 0; i < len(p); i++ {
		if p[i] != '%' {
			lit.WriteByte(p[i])
			continue
		}
		i++
		if i >= len(p) {
			return nil, bad("dangling %%")
		}
		if p[i] == '%' {
			lit.WriteByte('%')
			continue
		}

		var op patternOp
		if p[i] == '-' {
			op.leftAlign = true
			i++
		}
		var ok bool
		if op.min, i, ok = readInt(p, i); !ok {
			return nil, bad("width exceeds %d", maxFieldWidth)
		}
		if i < len(p) && p[i] == '.' {
			if op.max, i, ok = readInt(p, i+1); !ok {
				return nil, bad("max width exceeds %d", maxFieldWidth)
			}
		}
		if i >= len(p) {
			return nil, bad("missing conversion character")
		}
		op.conv = p[i]
		if i+1 < len(p) && p[i+1] == '{' {
			end := strings.IndexByte(p[i+2:], '}')
			if end < 0 {
				return nil, bad("unterminated {")
			}
			op.arg = p[i+2 : i+2+end]
			i += end + 2
		}

		switch op.conv {
		case 'p', 'm', 'n', 'r', 'Y', 'y':
		case 'c':
			if op.arg != "" {
				n, err := strconv.Atoi(op.arg)
				if err != nil || n < 0 {
					return nil, bad("invalid precision %q", op.arg)
				}
				op.precision = n
			}
		case 'd':
			arg := op.arg
			if arg == "" {
				arg = DateISO8601
			}
			df, err := NewDateFormat(arg)
			if err != nil {
				return nil, err
			}
			op.date = df
		case 'F', 'L', 'M', 'l':
			cp.location = true
		case 'X':
			if op.arg != "trace_id" && op.arg != "span_id" {
				return nil, bad("unsupported %%X key %q", op.arg)
			}
		default:
			return nil, bad("unknown conversion character %q", op.conv)
		}
		flush()
		cp.ops = append(cp.ops, op)
	}
	flush()
	return cp, nil
}

// maxFieldWidth 宽度修饰符上限，每个事件都会按宽度补齐
const maxFieldWidth = 4096

// readInt 读取十进制数，超过 maxFieldWidth 时 ok 为 false
func readInt(p string, i int) (n, next int, ok bool) {
	for i < len(p) && p[i] >= '0' && p[i] <= '9' {
		n = n*10 + int(p[i]-'0')
		if n > maxFieldWidth {
			return 0, i, false
		}
		i++
	}
	return n, i, true
}
