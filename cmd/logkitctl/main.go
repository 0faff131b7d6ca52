// logkitctl 是日志配置文件的命令行工具。
//
// 用法:
//
//	logkitctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	--no-expand        不展开 ${VAR} 占位符
//	-v, --verbose      输出配置加载的诊断日志
//
// 命令:
//
//	validate <file>                       校验配置文件（会实际打开输出目标）
//	tree <file>                           打印 logger 层级、有效级别和 appender 绑定
//	emit <file> <logger> <LEVEL> <msg>    按配置写一条日志
//	watch <file>                          加载并热更新配置，直到收到终止信号
//
// 退出码:
//
//	0: 成功
//	1: 输出目标 I/O 失败或其他运行错误
//	2: 参数错误（缺少参数、未知级别、未知命令等）
//	3: 配置错误
//
// 示例:
//
//	logkitctl validate logkit.conf
//	logkitctl tree logkit.conf
//	logkitctl emit logkit.conf com.foo.Bar WARN "disk almost full"
//	logkitctl watch --heartbeat 10s logkit.conf
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// 退出码
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitConfig  = 3
)

const appName = "logkitctl"

// 版本信息（可通过 -ldflags 注入）
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// createApp 创建 CLI 应用。
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      appName,
		Usage:     "日志配置文件的校验、查看和热加载工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-expand",
				Usage: "不展开 ${VAR} 占位符",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "输出配置加载的诊断日志",
			},
		},
		Commands:     createCommands(stdout, stderr),
		OnUsageError: onUsageError,
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Present() {
				return newUsageError("unknown command %q", cmd.Args().First())
			}
			return cli.ShowAppHelp(cmd)
		},
		// 禁止 urfave/cli 直接调用 os.Exit，退出码统一由 exitCode 映射
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := createApp(stdout, stderr).Run(ctx, args)
	code := exitCode(err)
	if code != exitOK {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
	}
	return code
}

// exitCode 将错误类别映射为退出码
func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue), errors.Is(err, xlog.ErrUsage):
		return exitUsage
	case errors.Is(err, xlog.ErrConfiguration):
		return exitConfig
	default:
		return exitFailure
	}
}
