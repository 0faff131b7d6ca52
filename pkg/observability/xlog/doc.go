// Package xlog 层级化日志引擎的核心：级别、事件、logger 树与仓库生命周期。
//
// # 核心概念
//
//   - [Level]：TRACE < DEBUG < INFO < WARN < ERROR < FATAL，另有哨兵 ALL/OFF
//   - [Event]：一次日志调用的只读快照（logger 名、级别、消息、时间、可选源码位置）
//   - [Logger]：以点分隔的命名节点，持有可选显式级别、可加性标记和 appender 列表
//   - [Repository]：名称到 Logger 的映射、根 logger、Reset/Shutdown 生命周期
//   - [Filter]/[Layout]/[Appender]：由 xfilter、xlayout、xappender 提供实现
//
// # 层级与有效级别
//
// 父节点是已注册的最长祖先前缀。节点按需创建，中间节点后创建时，
// 之前挂在更远祖先下的后代会被改挂到它下面。
// 有效级别沿 self → parent → … → root 找到第一个显式级别，根级别恒不为空。
//
// # 分发
//
// 级别低于有效级别（或仓库阈值）时调用是空操作。否则从发起 logger 开始
// 收集 appender：自身在前、父级在后，收集完第一个不可加节点即停止。
// 每个 appender 独立执行过滤器链；单个 appender 失败不影响其他 appender，
// 失败通过 [WithOnError] 回调上报（同一 appender 只回调一次）。
//
// # 生命周期
//
//   - [Repository.Reset]：卸载并关闭全部 appender，清除非根级别，恢复可加性
//   - [Repository.Shutdown]：Reset 后进入终止状态
//   - [Repository.Configure]：写锁下一次性应用暂存好的 [Configuration]
//
// # 默认仓库
//
// [Default] 惰性创建进程级仓库，[GetLogger]、[Root]、[Reset]、[Shutdown]
// 为其便利入口。[Shutdown] 之后下一次 [Default] 会重新创建。
//
// # 错误
//
// 错误类别 [ErrConfiguration]、[ErrResource]、[ErrUsage]，用 errors.Is 判断。
//
// # slog 桥接
//
// [NewHandler] 把 slog 记录转发到 Logger，[Logger.Slog] 直接返回 *slog.Logger。
package xlog
