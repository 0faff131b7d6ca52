package xsampling

import "github.com/omeyang/logkit/pkg/observability/xlog"

// Sampler 采样策略接口
//
// 返回 true 表示保留事件，false 表示丢弃。
type Sampler interface {
	// ShouldSample 判断是否保留事件，e 可以为 nil
	ShouldSample(e *xlog.Event) bool
}

// ResettableSampler 可重置的采样器
//
// 有状态的采样器（如 CountSampler）可以被重置到初始状态。
type ResettableSampler interface {
	Sampler
	// Reset 重置采样器状态
	Reset()
}
