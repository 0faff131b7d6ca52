package xlayout

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// 命名日期格式
const (
	DateNull     = "NULL"
	DateRelative = "RELATIVE"
	DateAbsolute = "ABSOLUTE"
	DateDate     = "DATE"
	DateISO8601  = "ISO8601"
)

// 命名格式对应的模式串
const (
	absolutePattern = "HH:mm:ss,SSS"
	datePattern     = "dd MMM yyyy HH:mm:ss,SSS"
	iso8601Pattern  = "yyyy-MM-dd HH:mm:ss,SSS"
)

// dateOp 日期格式的一个片段
type dateOp struct {
	literal string // 原样输出
	layout  string // 交给 time.AppendFormat 的 Go 布局片段
	special byte   // 'S' 毫秒、'H' 不补零小时、'r' 相对毫秒
	width   int
}

// DateFormat 编译后的日期格式
//
// 支持命名格式 NULL/RELATIVE/ABSOLUTE/DATE/ISO8601，以及
// yyyy-MM-dd HH:mm:ss,SSS 形式的自定义模式（单引号包裹字面量）。
// NULL 格式输出为空，IsNull 返回 true。
type DateFormat struct {
	pattern string
	ops     []dateOp
}

// NewDateFormat 编译日期格式，模式中出现无法识别的字母时返回配置错误
func NewDateFormat(pattern string) (*DateFormat, error) {
	p := strings.TrimSpace(pattern)
	switch strings.ToUpper(p) {
	case DateNull, "":
		return &DateFormat{pattern: DateNull}, nil
	case DateRelative:
		return &DateFormat{pattern: DateRelative, ops: []dateOp{{special: 'r'}}}, nil
	case DateAbsolute:
		p = absolutePattern
	case DateDate:
		p = datePattern
	case DateISO8601:
		p = iso8601Pattern
	}
	ops, err := compileDate(p)
	if err != nil {
		return nil, err
	}
	return &DateFormat{pattern: p, ops: ops}, nil
}

// Pattern 返回解析后的模式串
func (f *DateFormat) Pattern() string {
	return f.pattern
}

// IsNull 是否为不输出时间的 NULL 格式
func (f *DateFormat) IsNull() bool {
	return len(f.ops) == 0
}

// AppendFormat 将 t 格式化后追加到 dst
func (f *DateFormat) AppendFormat(dst []byte, t time.Time) []byte {
	for _, op := range f.ops {
		switch {
		case op.literal != "":
			dst = append(dst, op.literal...)
		case op.layout != "":
			dst = t.AppendFormat(dst, op.layout)
		case op.special == 'S':
			dst = appendPadded(dst, int64(t.Nanosecond()/int(time.Millisecond)), op.width)
		case op.special == 'H':
			dst = appendPadded(dst, int64(t.Hour()), op.width)
		case op.special == 'r':
			dst = strconv.AppendInt(dst, t.Sub(xlog.StartTime()).Milliseconds(), 10)
		}
	}
	return dst
}

// Format 返回格式化后的字符串
func (f *DateFormat) Format(t time.Time) string {
	return string(f.AppendFormat(nil, t))
}

func appendPadded(dst []byte, v int64, width int) []byte {
	s := strconv.FormatInt(v, 10)
	for i := len(s); i < width; i++ {
		dst = append(dst, '0')
	}
	return append(dst, s...)
}

// compileDate 把模式串按连续相同字母切分为片段
func compileDate(p string) ([]dateOp, error) {
	var ops []dateOp
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			ops = append(ops, dateOp{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(p); {
		c := p[i]
		switch {
		case c == '\'':
			// '' 表示单引号本身，'...' 为字面量
			if i+1 < len(p) && p[i+1] == '\'' {
				lit.WriteByte('\'')
				i += 2
				continue
			}
			// 引号内的 '' 同样表示单引号
			j := i + 1
			for {
				if j >= len(p) {
					return nil, xlog.InvalidOption("DatePattern", p, fmt.Errorf("unterminated quote"))
				}
				if p[j] == '\'' {
					if j+1 < len(p) && p[j+1] == '\'' {
						lit.WriteByte('\'')
						j += 2
						continue
					}
					break
				}
				lit.WriteByte(p[j])
				j++
			}
			i = j + 1
		case isLetter(c):
			n := 1
			for i+n < len(p) && p[i+n] == c {
				n++
			}
			op, err := dateToken(c, n)
			if err != nil {
				return nil, xlog.InvalidOption("DatePattern", p, err)
			}
			flush()
			ops = append(ops, op)
			i += n
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return ops, nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// dateToken 将 n 个连续字母 c 映射为片段
func dateToken(c byte, n int) (dateOp, error) {
	switch c {
	case 'y':
		if n == 2 {
			return dateOp{layout: "06"}, nil
		}
		return dateOp{layout: "2006"}, nil
	case 'M':
		switch {
		case n >= 4:
			return dateOp{layout: "January"}, nil
		case n == 3:
			return dateOp{layout: "Jan"}, nil
		case n == 2:
			return dateOp{layout: "01"}, nil
		default:
			return dateOp{layout: "1"}, nil
		}
	case 'd':
		return pick(n, "2", "02"), nil
	case 'H':
		return dateOp{special: 'H', width: n}, nil
	case 'h':
		return pick(n, "3", "03"), nil
	case 'm':
		return pick(n, "4", "04"), nil
	case 's':
		return pick(n, "5", "05"), nil
	case 'S':
		return dateOp{special: 'S', width: n}, nil
	case 'a':
		return dateOp{layout: "PM"}, nil
	case 'E':
		if n >= 4 {
			return dateOp{layout: "Monday"}, nil
		}
		return dateOp{layout: "Mon"}, nil
	case 'z':
		return dateOp{layout: "MST"}, nil
	case 'Z':
		return dateOp{layout: "-0700"}, nil
	case 'X':
		return dateOp{layout: "Z07:00"}, nil
	default:
		return dateOp{}, fmt.Errorf("unsupported pattern letter %q", c)
	}
}

func pick(n int, one, two string) dateOp {
	if n >= 2 {
		return dateOp{layout: two}
	}
	return dateOp{layout: one}
}
