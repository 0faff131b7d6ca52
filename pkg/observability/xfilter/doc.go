// Package xfilter 提供 appender 过滤器链的内置过滤器。
//
// 每个过滤器对事件给出 ACCEPT、DENY 或 NEUTRAL（见 xlog.Decision）：
//
//   - [LevelRangeFilter]：级别落在 [LevelMin, LevelMax] 之外拒绝
//   - [LevelMatchFilter]：级别等于 LevelToMatch 时接受或拒绝
//   - [StringMatchFilter]：消息包含子串时接受或拒绝
//   - [LoggerMatchFilter]：logger 名称属于某个子树时接受或拒绝
//   - [DenyAllFilter]：拒绝一切，通常放在链尾
//   - [SamplingFilter]：委托 xsampling 按 key 一致性采样或按计数采样，高级别事件不受影响
//
// 所有过滤器都实现 xlog.OptionHandler，可由配置文件驱动：
//
//	log4j.appender.A1.filter.1=LevelRangeFilter
//	log4j.appender.A1.filter.1.LevelMin=DEBUG
//	log4j.appender.A1.filter.1.LevelMax=WARN
//
// 选项修改后需调用 ActivateOptions 校验；过滤器挂到 appender 之后不应再修改。
package xfilter
