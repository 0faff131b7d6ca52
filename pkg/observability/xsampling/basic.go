package xsampling

import (
	"sync/atomic"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

type alwaysSampler struct{}

var alwaysSamplerInstance = &alwaysSampler{}

// Always 返回全采样策略
func Always() Sampler {
	return alwaysSamplerInstance
}

func (s *alwaysSampler) ShouldSample(*xlog.Event) bool {
	return true
}

type neverSampler struct{}

var neverSamplerInstance = &neverSampler{}

// Never 返回不采样策略
func Never() Sampler {
	return neverSamplerInstance
}

func (s *neverSampler) ShouldSample(*xlog.Event) bool {
	return false
}

// RateSampler 固定比率随机采样，不保证同一事件的决策一致
type RateSampler struct {
	rate float64
}

// NewRateSampler 创建固定比率采样器
//
// rate 超出 [0.0, 1.0] 范围或为 NaN 时返回 ErrInvalidRate。
func NewRateSampler(rate float64) (*RateSampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	return &RateSampler{rate: rate}, nil
}

func (s *RateSampler) ShouldSample(*xlog.Event) bool {
	if s.rate <= 0 {
		return false
	}
	if s.rate >= 1 {
		return true
	}
	return randomFloat64() < s.rate
}

// Rate 返回当前采样比率
func (s *RateSampler) Rate() float64 {
	return s.rate
}

// CountSampler 每 n 个事件保留 1 个，保留第 1、n+1、2n+1... 个
type CountSampler struct {
	n       int
	counter atomic.Uint64
}

// NewCountSampler 创建计数采样器，n < 1 时返回 ErrInvalidCount
func NewCountSampler(n int) (*CountSampler, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}
	return &CountSampler{n: n}, nil
}

func (s *CountSampler) ShouldSample(*xlog.Event) bool {
	n := s.n
	if n <= 0 {
		// 零值实例按全采样处理，避免除零
		return true
	}
	count := s.counter.Add(1)
	return (count-1)%uint64(n) == 0
}

// Reset 重置计数器
func (s *CountSampler) Reset() {
	s.counter.Store(0)
}

// N 返回采样间隔
func (s *CountSampler) N() int {
	return s.n
}

var (
	_ Sampler           = (*alwaysSampler)(nil)
	_ Sampler           = (*neverSampler)(nil)
	_ Sampler           = (*RateSampler)(nil)
	_ Sampler           = (*CountSampler)(nil)
	_ ResettableSampler = (*CountSampler)(nil)
)
