package xfilter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/omeyang/logkit/pkg/observability/xlog"
	"github.com/omeyang/logkit/pkg/observability/xsampling"
)

var (
	_ xlog.Filter        = (*SamplingFilter)(nil)
	_ xlog.OptionHandler = (*SamplingFilter)(nil)
)

// SampleKey 采样 key 的来源
type SampleKey string

// 采样 key 取值
const (
	// KeyMessage 按消息文本采样：同一消息总是同时保留或同时丢弃
	KeyMessage SampleKey = "message"
	// KeyLogger 按 logger 名采样：整个 logger 的输出要么保留要么丢弃
	KeyLogger SampleKey = "logger"
	// KeyTrace 按 trace_id 采样：同一条链路的日志一致保留
	KeyTrace SampleKey = "trace"
	// KeyRandom 不看事件内容，按比率随机保留
	KeyRandom SampleKey = "random"
)

// SamplingFilter 采样过滤器
//
// 级别不低于 MinLevel 的事件直接放行（NEUTRAL），其余事件交给采样器：
// 保留返回 NEUTRAL 交给后续过滤器，丢弃返回 DENY。
// Every > 0 时每 Every 个事件保留 1 个，忽略 Rate 和 Key；
// 否则按 Key 做一致性采样（xsampling.KeyBasedSampler）。
//
// 字段修改在下一次 ActivateOptions 后生效；未激活时每次按当前字段决策。
type SamplingFilter struct {
	Rate     float64
	Key      SampleKey
	MinLevel xlog.Level
	Every    int

	sampler xsampling.Sampler
}

// NewSamplingFilter 创建采样过滤器，默认按消息采样，WARN 及以上不采样
func NewSamplingFilter(rate float64) *SamplingFilter {
	return &SamplingFilter{Rate: rate, Key: KeyMessage, MinLevel: xlog.LevelWarn}
}

// Decide 实现 xlog.Filter
func (f *SamplingFilter) Decide(e *xlog.Event) xlog.Decision {
	if e.Level >= f.MinLevel {
		return xlog.Neutral
	}
	s := f.sampler
	if s == nil {
		var err error
		if s, err = f.newSampler(); err != nil {
			return xlog.Neutral
		}
	}
	if s.ShouldSample(e) {
		return xlog.Neutral
	}
	return xlog.Deny
}

// newSampler 按当前字段构造采样器
func (f *SamplingFilter) newSampler() (xsampling.Sampler, error) {
	if f.Every > 0 {
		return xsampling.NewCountSampler(f.Every)
	}
	switch f.Key {
	case KeyMessage, "":
		return xsampling.NewKeyBasedSampler(f.Rate, xsampling.ByMessage)
	case KeyLogger:
		return xsampling.NewKeyBasedSampler(f.Rate, xsampling.ByLogger)
	case KeyTrace:
		return xsampling.NewKeyBasedSampler(f.Rate, xsampling.ByTrace)
	case KeyRandom:
		return xsampling.NewRateSampler(f.Rate)
	default:
		return nil, xlog.InvalidOption("Key", string(f.Key), nil)
	}
}

// SetOption 支持 Rate、Key、MinLevel、Every
func (f *SamplingFilter) SetOption(key, value string) (err error) {
	switch xlog.OptionKey(key) {
	case "rate":
		f.Rate, err = strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return xlog.InvalidOption(key, value, err)
		}
	case "key":
		f.Key = SampleKey(strings.ToLower(strings.TrimSpace(value)))
	case "minlevel":
		f.MinLevel, err = xlog.ParseLevelOption(key, value)
	case "every":
		f.Every, err = xlog.ParseIntOption(key, value)
	default:
		err = xlog.OptionError("SamplingFilter", key)
	}
	return err
}

// ActivateOptions 校验参数并构造采样器
func (f *SamplingFilter) ActivateOptions() error {
	if math.IsNaN(f.Rate) || f.Rate < 0 || f.Rate > 1 {
		return fmt.Errorf("%w: Rate must be in [0.0, 1.0], got %v", xlog.ErrInvalidOption, f.Rate)
	}
	if f.Every < 0 {
		return xlog.InvalidOption("Every", strconv.Itoa(f.Every), nil)
	}
	if f.Key == "" {
		f.Key = KeyMessage
	}
	s, err := f.newSampler()
	if err != nil {
		return err
	}
	f.sampler = s
	return nil
}
