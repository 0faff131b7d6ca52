package xlog

import (
	"context"
	"fmt"
	"slices"

	"github.com/omeyang/logkit/pkg/observability/xmetrics"
)

// LoggerConfig 单个 logger 的目标状态
//
// 零值字段表示保持不变。
type LoggerConfig struct {
	// Name logger 名称，"root" 或空表示根
	Name string

	// Level 显式级别，nil 表示不修改
	Level *Level

	// Inherit 清除显式级别（INHERITED/NULL），对根无效
	Inherit bool

	// Additive 可加性，nil 表示不修改
	Additive *bool

	// Appenders 替换后的 appender 列表，仅当 ReplaceAppenders 为 true 时生效
	Appenders        []Appender
	ReplaceAppenders bool
}

// Configuration 一次完整配置的暂存结构
//
// 由配置加载器完整构建（appender 已创建并激活）后一次性交给 Configure。
type Configuration struct {
	// Reset 为 true 时先恢复未配置状态，再应用本配置
	Reset bool

	// Threshold 仓库级阈值，nil 表示不修改
	Threshold *Level

	// Loggers 按顺序应用
	Loggers []LoggerConfig
}

// Appenders 返回配置中引用的全部 appender（已去重）
func (c *Configuration) Appenders() []Appender {
	var out []Appender
	for _, lc := range c.Loggers {
		out = appendUnique(out, lc.Appenders...)
	}
	return out
}

// validate 在修改仓库前检查，保证应用阶段不会失败
func (c *Configuration) validate() error {
	for _, lc := range c.Loggers {
		if lc.Inherit && isRootName(lc.Name) {
			return fmt.Errorf("%w: %w", ErrConfiguration, ErrRootLevel)
		}
		for _, a := range lc.Appenders {
			if a == nil {
				return fmt.Errorf("%w: logger %q: %w", ErrConfiguration, lc.Name, ErrNilAppender)
			}
		}
	}
	return nil
}

// Configure 在写锁下一次性应用配置
//
// 校验失败时仓库保持原状并返回错误，调用方负责关闭配置中已创建的 appender。
// 成功后，不再被任何 logger 引用的旧 appender 会被关闭；关闭失败通过
// 错误回调上报，不影响本次配置结果。
func (r *Repository) Configure(cfg *Configuration) (err error) {
	if cfg == nil {
		return fmt.Errorf("%w: nil configuration", ErrUsage)
	}
	if r.observer != nil {
		_, span := xmetrics.Start(context.Background(), r.observer, xmetrics.SpanOptions{
			Component: "xlog",
			Operation: "configure",
			Attrs: []xmetrics.Attr{
				xmetrics.Int("loggers", len(cfg.Loggers)),
				xmetrics.Bool("reset", cfg.Reset),
			},
		})
		defer func() { span.End(xmetrics.Result{Err: err}) }()
	}
	if r.shutdown.Load() {
		return ErrShutdown
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	before := r.attached()
	if cfg.Reset {
		r.resetLocked()
	}
	if cfg.Threshold != nil {
		r.threshold.Store(int64(*cfg.Threshold))
	}
	for _, lc := range cfg.Loggers {
		r.applyLocked(lc)
	}
	after := r.attached()
	r.mu.Unlock()

	var stale []Appender
	for _, a := range before {
		if !slices.Contains(after, a) {
			stale = append(stale, a)
		}
	}
	if err := closeAppenders(stale); err != nil {
		r.errorCount.Add(1)
		r.handleError(err)
	}
	return nil
}

// applyLocked 应用单个 logger 配置，调用方持有写锁
func (r *Repository) applyLocked(lc LoggerConfig) {
	l := r.loggerLocked(lc.Name)
	switch {
	case lc.Level != nil:
		l.level.Store(int64(*lc.Level))
	case lc.Inherit && l != r.root:
		l.level.Store(levelUnset)
	}
	if lc.Additive != nil {
		l.additive.Store(*lc.Additive)
	}
	if lc.ReplaceAppenders {
		l.replaceAppenders(appendUnique(nil, lc.Appenders...))
	}
}

// CloseAll 关闭一组 appender，用于丢弃配置失败时已创建的 appender
func CloseAll(as []Appender) error {
	return closeAppenders(appendUnique(nil, as...))
}

func isRootName(name string) bool {
	return name == "" || name == RootName
}
