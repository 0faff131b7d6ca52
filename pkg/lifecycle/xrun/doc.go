// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// 任一服务返回错误或收到终止信号时 context 被取消，所有服务应监听
// ctx.Done() 并退出。[Run] 默认监听 [DefaultSignals]，以 *[SignalError]
// 报告信号退出，用 errors.Is(err, [ErrSignal]) 判断。
//
// 常驻进程热加载日志配置：
//
//	w, err := xlogconf.Watch(repo, "logkit.conf", nil)
//	if err != nil {
//		return err
//	}
//	err = xrun.Run(ctx,
//		xrun.WaitForDone(),
//		xrun.OnShutdown(w.Stop),
//		xrun.OnShutdown(repo.Shutdown),
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//		err = nil
//	}
//
// 需要更细的控制时使用 [NewGroup]，服务函数可由 [Ticker]、[WaitForDone]、
// [OnShutdown] 构造。
package xrun
