// Package xappender 提供 xlog 的输出端实现。
//
//   - [WriterAppender]：写入任意 io.Writer
//   - [ConsoleAppender]：Target=System.out|System.err
//   - [FileAppender]：File、Append、BufferedIO、BufferSize
//   - [RollingFileAppender]：在文件选项之外支持 MaxFileSize、MaxBackupIndex、
//     MaxAge、Compress 以及 cron 表达式 Schedule，轮转由 xrotate 完成
//   - [SlogAppender]：转发到 *slog.Logger，Domain 选项指定 logger 名前缀
//
// 所有 appender 支持 Threshold 选项与过滤器链，每个 appender 自带互斥锁，
// 一个事件只产生一次底层写入。ImmediateFlush 默认开启，逐事件刷新缓冲。
// Close 幂等，关闭后 Append 返回 xlog.ErrClosed。
//
// 选项先通过 SetOption 或 setter 设置，ActivateOptions 之后才生效：
//
//	a := xappender.NewFileAppender("FILE", "logs/app.log", layout)
//	a.SetBufferedIO(true)
//	if err := a.ActivateOptions(); err != nil {
//		return err
//	}
//	return repo.Root().AddAppender(a)
package xappender
