package xfilter

import (
	"fmt"
	"strings"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// 编译时接口检查
var (
	_ xlog.Filter        = (*LevelRangeFilter)(nil)
	_ xlog.OptionHandler = (*LevelRangeFilter)(nil)
	_ xlog.Filter        = (*LevelMatchFilter)(nil)
	_ xlog.OptionHandler = (*LevelMatchFilter)(nil)
	_ xlog.Filter        = (*StringMatchFilter)(nil)
	_ xlog.OptionHandler = (*StringMatchFilter)(nil)
	_ xlog.Filter        = (*LoggerMatchFilter)(nil)
	_ xlog.OptionHandler = (*LoggerMatchFilter)(nil)
	_ xlog.Filter        = DenyAllFilter{}
	_ xlog.OptionHandler = DenyAllFilter{}
)

// matchDecision 命中时的决策
func matchDecision(accept bool) xlog.Decision {
	if accept {
		return xlog.Accept
	}
	return xlog.Deny
}

// =============================================================================
// LevelRangeFilter
// =============================================================================

// LevelRangeFilter 按级别区间过滤
//
// 级别在 [LevelMin, LevelMax]（含边界）之外 DENY；区间内 AcceptOnMatch 为 true
// 时 ACCEPT，否则 NEUTRAL 交给后续过滤器。
type LevelRangeFilter struct {
	LevelMin      xlog.Level
	LevelMax      xlog.Level
	AcceptOnMatch bool
}

// NewLevelRangeFilter 创建区间过滤器，默认区间 [ALL, OFF]
func NewLevelRangeFilter() *LevelRangeFilter {
	return &LevelRangeFilter{LevelMin: xlog.LevelAll, LevelMax: xlog.LevelOff, AcceptOnMatch: true}
}

// Decide 实现 xlog.Filter
func (f *LevelRangeFilter) Decide(e *xlog.Event) xlog.Decision {
	if e.Level < f.LevelMin || e.Level > f.LevelMax {
		return xlog.Deny
	}
	if f.AcceptOnMatch {
		return xlog.Accept
	}
	return xlog.Neutral
}

// SetOption 支持 LevelMin、LevelMax、AcceptOnMatch
func (f *LevelRangeFilter) SetOption(key, value string) (err error) {
	switch xlog.OptionKey(key) {
	case "levelmin":
		f.LevelMin, err = xlog.ParseLevelOption(key, value)
	case "levelmax":
		f.LevelMax, err = xlog.ParseLevelOption(key, value)
	case "acceptonmatch":
		f.AcceptOnMatch, err = xlog.ParseBoolOption(key, value)
	default:
		err = xlog.OptionError("LevelRangeFilter", key)
	}
	return err
}

// ActivateOptions 校验区间
func (f *LevelRangeFilter) ActivateOptions() error {
	if f.LevelMin > f.LevelMax {
		return fmt.Errorf("%w: LevelMin %s > LevelMax %s", xlog.ErrInvalidOption, f.LevelMin, f.LevelMax)
	}
	return nil
}

// =============================================================================
// LevelMatchFilter
// =============================================================================

// LevelMatchFilter 级别等于 LevelToMatch 时按 AcceptOnMatch 接受或拒绝，否则 NEUTRAL
type LevelMatchFilter struct {
	LevelToMatch  xlog.Level
	AcceptOnMatch bool
	matchSet      bool
}

// NewLevelMatchFilter 创建级别匹配过滤器
func NewLevelMatchFilter(level xlog.Level) *LevelMatchFilter {
	return &LevelMatchFilter{LevelToMatch: level, AcceptOnMatch: true, matchSet: true}
}

// Decide 实现 xlog.Filter
func (f *LevelMatchFilter) Decide(e *xlog.Event) xlog.Decision {
	if !f.matchSet || e.Level != f.LevelToMatch {
		return xlog.Neutral
	}
	return matchDecision(f.AcceptOnMatch)
}

// SetOption 支持 LevelToMatch、AcceptOnMatch
func (f *LevelMatchFilter) SetOption(key, value string) (err error) {
	switch xlog.OptionKey(key) {
	case "leveltomatch":
		f.LevelToMatch, err = xlog.ParseLevelOption(key, value)
		f.matchSet = err == nil
	case "acceptonmatch":
		f.AcceptOnMatch, err = xlog.ParseBoolOption(key, value)
	default:
		err = xlog.OptionError("LevelMatchFilter", key)
	}
	return err
}

// ActivateOptions 无需额外处理
func (f *LevelMatchFilter) ActivateOptions() error { return nil }

// =============================================================================
// StringMatchFilter
// =============================================================================

// StringMatchFilter 消息包含 StringToMatch 时按 AcceptOnMatch 接受或拒绝，否则 NEUTRAL
type StringMatchFilter struct {
	StringToMatch string
	AcceptOnMatch bool
}

// NewStringMatchFilter 创建子串匹配过滤器
func NewStringMatchFilter(s string) *StringMatchFilter {
	return &StringMatchFilter{StringToMatch: s, AcceptOnMatch: true}
}

// Decide 实现 xlog.Filter，空匹配串总是 NEUTRAL
func (f *StringMatchFilter) Decide(e *xlog.Event) xlog.Decision {
	if f.StringToMatch == "" || !strings.Contains(e.Message, f.StringToMatch) {
		return xlog.Neutral
	}
	return matchDecision(f.AcceptOnMatch)
}

// SetOption 支持 StringToMatch、AcceptOnMatch
func (f *StringMatchFilter) SetOption(key, value string) (err error) {
	switch xlog.OptionKey(key) {
	case "stringtomatch":
		f.StringToMatch = value
	case "acceptonmatch":
		f.AcceptOnMatch, err = xlog.ParseBoolOption(key, value)
	default:
		err = xlog.OptionError("StringMatchFilter", key)
	}
	return err
}

// ActivateOptions 无需额外处理
func (f *StringMatchFilter) ActivateOptions() error { return nil }

// =============================================================================
// LoggerMatchFilter
// =============================================================================

// LoggerMatchFilter 按 logger 子树匹配
//
// LoggerToMatch 为 "a" 时匹配 "a" 与 "a.b"，不匹配 "ab"。
// "root" 匹配所有 logger。
type LoggerMatchFilter struct {
	LoggerToMatch string
	AcceptOnMatch bool
}

// NewLoggerMatchFilter 创建 logger 匹配过滤器
func NewLoggerMatchFilter(name string) *LoggerMatchFilter {
	return &LoggerMatchFilter{LoggerToMatch: name, AcceptOnMatch: true}
}

// Decide 实现 xlog.Filter
func (f *LoggerMatchFilter) Decide(e *xlog.Event) xlog.Decision {
	if !IsDescendant(e.Logger, f.LoggerToMatch) {
		return xlog.Neutral
	}
	return matchDecision(f.AcceptOnMatch)
}

// SetOption 支持 LoggerToMatch、AcceptOnMatch
func (f *LoggerMatchFilter) SetOption(key, value string) (err error) {
	switch xlog.OptionKey(key) {
	case "loggertomatch":
		f.LoggerToMatch = strings.TrimSpace(value)
	case "acceptonmatch":
		f.AcceptOnMatch, err = xlog.ParseBoolOption(key, value)
	default:
		err = xlog.OptionError("LoggerMatchFilter", key)
	}
	return err
}

// ActivateOptions 校验 LoggerToMatch 非空
func (f *LoggerMatchFilter) ActivateOptions() error {
	if f.LoggerToMatch == "" {
		return xlog.InvalidOption("LoggerToMatch", "", nil)
	}
	return nil
}

// IsDescendant name 是否为 ancestor 本身或其后代
func IsDescendant(name, ancestor string) bool {
	if ancestor == xlog.RootName || name == ancestor {
		return true
	}
	return strings.HasPrefix(name, ancestor) && len(name) > len(ancestor) && name[len(ancestor)] == '.'
}

// =============================================================================
// DenyAllFilter
// =============================================================================

// DenyAllFilter 拒绝所有事件
type DenyAllFilter struct{}

// Decide 实现 xlog.Filter
func (DenyAllFilter) Decide(*xlog.Event) xlog.Decision { return xlog.Deny }

// SetOption 不支持任何选项
func (DenyAllFilter) SetOption(key, _ string) error {
	return xlog.OptionError("DenyAllFilter", key)
}

// ActivateOptions 无需额外处理
func (DenyAllFilter) ActivateOptions() error { return nil }
