// Package xsampling 提供日志事件的采样策略。
//
// [Sampler] 对单个 [xlog.Event] 做保留/丢弃决策，xfilter.SamplingFilter
// 把它接入 appender 的过滤器链。
//
// # 策略
//
//   - [Always]、[Never]：全保留、全丢弃
//   - [NewRateSampler]：固定比率随机采样
//   - [NewCountSampler]：每 n 个事件保留 1 个
//   - [NewKeyBasedSampler]：按 key 一致性采样，key 由 [KeyFunc] 从事件中提取，
//     内置 [ByMessage]、[ByLogger]、[ByTrace]
//
// # 跨进程一致性
//
// KeyBasedSampler 使用 xxhash（github.com/cespare/xxhash/v2），同一 key 在所有
// 进程中得到相同的哈希值，因此同一 trace_id 在所有服务中被一致保留或丢弃，
// 服务重启后决策不变。key 为空时回退到随机采样。
//
// # 并发安全
//
// 所有采样器都可以在多个 goroutine 中同时使用。
package xsampling
