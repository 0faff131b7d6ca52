package xsampling

import (
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// KeyFunc 从事件中提取采样 key
//
// 相同的 key 总是产生相同的采样决策。返回空字符串时回退到随机采样，
// 仍保持近似的采样率，但失去跨进程一致性。
type KeyFunc func(e *xlog.Event) string

// ByMessage 按消息文本取 key
func ByMessage(e *xlog.Event) string { return e.Message }

// ByLogger 按 logger 名取 key
func ByLogger(e *xlog.Event) string { return e.Logger }

// ByTrace 按 trace_id 取 key，事件不在链路中时为空
func ByTrace(e *xlog.Event) string { return e.TraceID }

// KeyBasedOption 配置 KeyBasedSampler 的可选参数
type KeyBasedOption func(*KeyBasedSampler)

// WithOnEmptyKey 设置空 key 回调，在随机采样回退前调用
//
// 用于计数 trace 传播断裂等情况。回调应当轻量，nil 回调会被忽略。
func WithOnEmptyKey(fn func()) KeyBasedOption {
	return func(s *KeyBasedSampler) {
		if fn != nil {
			s.onEmptyKey = fn
		}
	}
}

// KeyBasedSampler 基于 key 的一致性采样
//
// 相同 key 在相同 rate 下的决策在所有进程中一致（xxhash），例如：
//   - 按 trace_id 采样，同一条链路的日志一起保留或一起丢弃
//   - 按消息文本采样，重复刷屏的同一条消息整体保留或丢弃
type KeyBasedSampler struct {
	rate       float64
	keyFunc    KeyFunc
	onEmptyKey func()
}

// NewKeyBasedSampler 创建基于 key 的一致性采样器
//
// rate 超出 [0.0, 1.0] 范围或为 NaN 时返回 ErrInvalidRate；
// keyFunc 为 nil 时返回 ErrNilKeyFunc；nil option 返回 ErrNilOption。
//
//	s, err := xsampling.NewKeyBasedSampler(0.1, xsampling.ByTrace)
func NewKeyBasedSampler(rate float64, keyFunc KeyFunc, opts ...KeyBasedOption) (*KeyBasedSampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	if keyFunc == nil {
		return nil, ErrNilKeyFunc
	}
	s := &KeyBasedSampler{
		rate:    rate,
		keyFunc: keyFunc,
	}
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		opt(s)
	}
	return s, nil
}

func (s *KeyBasedSampler) ShouldSample(e *xlog.Event) bool {
	if s.rate <= 0 {
		return false
	}
	if s.rate >= 1 {
		return true
	}

	var key string
	if e != nil {
		key = s.keyFunc(e)
	}
	if key == "" {
		if s.onEmptyKey != nil {
			s.onEmptyKey()
		}
		return randomFloat64() < s.rate
	}

	// hash == MaxUint64 时 normalized 可能等于 1.0，rate < 1 时不会误判
	normalized := float64(xxhash.Sum64String(key)) / float64(math.MaxUint64)
	return normalized < s.rate
}

// Rate 返回当前采样比率
func (s *KeyBasedSampler) Rate() float64 {
	return s.rate
}

var _ Sampler = (*KeyBasedSampler)(nil)
