// Package observability 提供日志引擎及其周边子包。
//
// 子包列表：
//   - xlog: 分层 logger 仓库、级别、事件和分发
//   - xlayout: PatternLayout、SimpleLayout、ColorLayout
//   - xfilter: 级别、字符串、logger 名称和采样过滤器
//   - xsampling: 采样策略（计数、随机和基于 xxhash 的一致性采样）
//   - xappender: 控制台、文件、轮转文件和 slog 转发 appender
//   - xrotate: 基于 lumberjack 的文件轮转，支持 cron 定时轮转
//   - xlogconf: 属性文件配置器、组件注册表和基础配置器
//   - xmetrics: 分发和 appender 写出的 OpenTelemetry span 与指标
//
// 设计原则：
//   - 配置加载是事务性的，失败时保留原有配置
//   - 引擎自身的诊断日志走 log/slog，从不经过引擎本身
//   - 自动从 context 中提取追踪信息注入事件
package observability
