// Package xmetrics 提供日志引擎自身的可观测接口（metrics + tracing）。
//
// xmetrics 仅定义最小化接口：Observer/Span/Attr，
// 引擎代码只依赖接口；默认实现基于 OpenTelemetry。
//
// # 使用示例
//
//	obs, _ := xmetrics.NewOTelObserver()
//	repo := xlog.NewRepository(xlog.WithObserver(obs))
//
// 每次 appender 调用记录一次指标（不建 span），每次配置替换记录指标并建 span。
//
// # 指标命名
//
//   - logkit.operation.total
//   - logkit.operation.duration
//
// 统一属性：component / operation / status，外加 SpanOptions.Attrs。
package xmetrics
