package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/logkit/pkg/config/xconf"
	"github.com/omeyang/logkit/pkg/lifecycle/xrun"
	"github.com/omeyang/logkit/pkg/observability/xlog"
	"github.com/omeyang/logkit/pkg/observability/xlogconf"
	"github.com/omeyang/logkit/pkg/observability/xrotate"
)

// heartbeatLogger watch --heartbeat 默认写入的 logger
const heartbeatLogger = "logkitctl"

// usageError 参数错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// onUsageError 将 flag 解析错误统一为 usageError
func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return &usageError{msg: err.Error()}
}

// 创建所有子命令。
func createCommands(stdout, stderr io.Writer) []*cli.Command {
	return []*cli.Command{
		{
			Name:         "validate",
			Usage:        "校验配置文件",
			ArgsUsage:    "<file>",
			OnUsageError: onUsageError,
			Action: func(_ context.Context, cmd *cli.Command) error {
				path, err := fileArg(cmd, 1)
				if err != nil {
					return err
				}
				return cmdValidate(stdout, newConfigurator(cmd, stderr), path)
			},
		},
		{
			Name:         "tree",
			Usage:        "打印 logger 层级、有效级别和 appender 绑定",
			ArgsUsage:    "<file>",
			OnUsageError: onUsageError,
			Action: func(_ context.Context, cmd *cli.Command) error {
				path, err := fileArg(cmd, 1)
				if err != nil {
					return err
				}
				return cmdTree(stdout, newConfigurator(cmd, stderr), path)
			},
		},
		{
			Name:         "emit",
			Usage:        "按配置写一条日志",
			ArgsUsage:    "<file> <logger> <LEVEL> <msg>",
			OnUsageError: onUsageError,
			Action: func(_ context.Context, cmd *cli.Command) error {
				if cmd.Args().Len() != 4 {
					return newUsageError("emit requires <file> <logger> <LEVEL> <msg>")
				}
				a := cmd.Args()
				return cmdEmit(newConfigurator(cmd, stderr), a.Get(0), a.Get(1), a.Get(2), a.Get(3))
			},
		},
		{
			Name:         "watch",
			Usage:        "加载并热更新配置，直到收到终止信号",
			ArgsUsage:    "<file>",
			OnUsageError: onUsageError,
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:  "heartbeat",
					Usage: "周期写一条 INFO 日志，0 表示关闭",
				},
				&cli.StringFlag{
					Name:  "logger",
					Usage: "心跳日志使用的 logger",
					Value: heartbeatLogger,
				},
				&cli.DurationFlag{
					Name:  "debounce",
					Usage: "文件变更的去抖间隔",
					Value: xconf.DefaultDebounce,
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				path, err := fileArg(cmd, 1)
				if err != nil {
					return err
				}
				if cmd.Duration("heartbeat") < 0 {
					return newUsageError("heartbeat must not be negative")
				}
				conf := newConfigurator(cmd, stderr, xlogconf.WithDebounce(cmd.Duration("debounce")))
				return cmdWatch(ctx, stdout, stderr, conf, path, watchOptions{
					heartbeat: cmd.Duration("heartbeat"),
					logger:    cmd.String("logger"),
					diag:      diagLogger(cmd, stderr),
				})
			},
		},
	}
}

// fileArg 检查参数个数并返回第一个参数
func fileArg(cmd *cli.Command, n int) (string, error) {
	if cmd.Args().Len() != n {
		return "", newUsageError("%s requires %s", cmd.Name, cmd.ArgsUsage)
	}
	return cmd.Args().First(), nil
}

// diagLogger 返回诊断日志，--verbose 时输出 Debug 级别
func diagLogger(cmd *cli.Command, stderr io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

func newConfigurator(cmd *cli.Command, stderr io.Writer, extra ...xlogconf.Option) *xlogconf.Configurator {
	opts := []xlogconf.Option{xlogconf.WithLogger(diagLogger(cmd, stderr))}
	if cmd.Bool("no-expand") {
		opts = append(opts, xlogconf.WithoutExpansion())
	}
	return xlogconf.New(append(opts, extra...)...)
}

// cmdValidate 在临时仓库中应用配置
func cmdValidate(w io.Writer, conf *xlogconf.Configurator, path string) error {
	if err := conf.Validate(path); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: OK\n", path)
	return nil
}

// cmdTree 加载配置并打印每个 logger 的状态，root 在首行
func cmdTree(w io.Writer, conf *xlogconf.Configurator, path string) error {
	repo := xlog.NewRepository()
	if err := conf.Load(repo, path); err != nil {
		return errors.Join(err, repo.Shutdown())
	}

	fmt.Fprintf(w, "threshold: %s\n", repo.Threshold())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOGGER\tLEVEL\tEFFECTIVE\tADDITIVE\tAPPENDERS")
	for _, l := range append([]*xlog.Logger{repo.Root()}, repo.Loggers()...) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			l.Name(), levelColumn(l), l.EffectiveLevel(), l.Additive(), appendersColumn(l))
	}
	return errors.Join(tw.Flush(), repo.Shutdown())
}

func levelColumn(l *xlog.Logger) string {
	if lvl, ok := l.Level(); ok {
		return lvl.String()
	}
	return "-"
}

func appendersColumn(l *xlog.Logger) string {
	as := l.Appenders()
	if len(as) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(as))
	for _, a := range as {
		parts = append(parts, describeAppender(a))
	}
	return strings.Join(parts, ", ")
}

// describeAppender 附带输出目标，文件目标附带当前大小
func describeAppender(a xlog.Appender) string {
	switch t := a.(type) {
	case interface{ Target() string }:
		return fmt.Sprintf("%s(%s)", a.Name(), t.Target())
	case interface{ File() string }:
		if fi, err := os.Stat(t.File()); err == nil {
			return fmt.Sprintf("%s(%s, %s)", a.Name(), t.File(), xrotate.FormatSize(uint64(fi.Size())))
		}
		return fmt.Sprintf("%s(%s)", a.Name(), t.File())
	default:
		return a.Name()
	}
}

// cmdEmit 加载配置后向 logger 写一条日志
func cmdEmit(conf *xlogconf.Configurator, path, name, levelArg, msg string) error {
	level, err := xlog.ParseLevel(strings.ToUpper(levelArg))
	if err != nil {
		return newUsageError("unknown level %q", levelArg)
	}

	var appendErr atomic.Pointer[error]
	repo := xlog.NewRepository(xlog.WithOnError(func(err error) {
		appendErr.CompareAndSwap(nil, &err)
	}))
	if err := conf.Load(repo, path); err != nil {
		return errors.Join(err, repo.Shutdown())
	}

	repo.Logger(name).Log(level, msg)
	err = repo.Shutdown()
	if p := appendErr.Load(); p != nil {
		err = errors.Join(*p, err)
	}
	return err
}

type watchOptions struct {
	heartbeat time.Duration
	logger    string
	diag      *slog.Logger
}

// cmdWatch 加载配置并监视文件变更，ctx 取消或收到信号时退出
func cmdWatch(ctx context.Context, stdout, stderr io.Writer, conf *xlogconf.Configurator, path string, o watchOptions) error {
	repo := xlog.NewRepository(xlog.WithOnError(func(err error) {
		o.diag.Warn("append failed", slog.Any("error", err))
	}))
	w, err := conf.Watch(repo, path, func(err error) {
		if err != nil {
			fmt.Fprintf(stderr, "reload %s failed, keeping previous configuration: %v\n", path, err)
			return
		}
		fmt.Fprintf(stdout, "reloaded %s\n", path)
	})
	if err != nil {
		return errors.Join(err, repo.Shutdown())
	}
	fmt.Fprintf(stdout, "watching %s\n", path)

	services := []func(ctx context.Context) error{
		xrun.WaitForDone(),
		xrun.OnShutdown(func() error {
			return errors.Join(w.Stop(), repo.Shutdown())
		}),
	}
	if o.heartbeat > 0 {
		var n atomic.Uint64
		services = append(services, xrun.Ticker(o.heartbeat, false, func(context.Context) error {
			repo.Logger(o.logger).Infof("heartbeat %d", n.Add(1))
			return nil
		}))
	}

	err = xrun.RunWithOptions(ctx, []xrun.Option{xrun.WithLogger(o.diag), xrun.WithName(appName)}, services...)
	if errors.Is(err, xrun.ErrSignal) {
		fmt.Fprintf(stdout, "stopped: %v\n", err)
		return nil
	}
	return err
}
