package xlogconf

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/omeyang/logkit/pkg/config/xconf"
	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// Configurator 把配置文档应用到仓库
//
// 加载是事务性的：所有被引用的 appender 先创建并激活，
// 全部成功后才一次性交给 Repository.Configure；任何一步失败，
// 已创建的 appender 被关闭，仓库保持加载前的状态。
type Configurator struct {
	registry  *Registry
	logger    *slog.Logger
	debounce  time.Duration
	xconfOpts []xconf.Option
}

// Option 配置器选项
type Option func(*Configurator)

// WithRegistry 使用自定义注册表
func WithRegistry(r *Registry) Option {
	return func(c *Configurator) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithLogger 设置配置器自身的诊断日志，默认丢弃
func WithLogger(l *slog.Logger) Option {
	return func(c *Configurator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDebounce 设置 Watch 的防抖时间
func WithDebounce(d time.Duration) Option {
	return func(c *Configurator) {
		c.debounce = d
	}
}

// WithoutExpansion 关闭 ${name} 展开
func WithoutExpansion() Option {
	return func(c *Configurator) {
		c.xconfOpts = append(c.xconfOpts, xconf.WithoutExpansion())
	}
}

// New 创建配置器，默认使用 DefaultRegistry
func New(opts ...Option) *Configurator {
	c := &Configurator{
		logger:   slog.New(slog.DiscardHandler),
		debounce: xconf.DefaultDebounce,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.registry == nil {
		c.registry = DefaultRegistry()
	}
	return c
}

// Registry 返回配置器使用的注册表
func (c *Configurator) Registry() *Registry {
	return c.registry
}

// Load 读取配置文件并应用，格式按扩展名识别
func (c *Configurator) Load(repo *xlog.Repository, path string) error {
	cfg, err := xconf.New(path, c.xconfOpts...)
	if err != nil {
		return loadError(path, err)
	}
	return c.Apply(repo, cfg)
}

// LoadBytes 解析内存中的配置并应用
func (c *Configurator) LoadBytes(repo *xlog.Repository, data []byte, format xconf.Format) error {
	cfg, err := xconf.NewFromBytes(data, format, c.xconfOpts...)
	if err != nil {
		return loadError("", err)
	}
	return c.Apply(repo, cfg)
}

// Apply 应用已加载的配置文档
func (c *Configurator) Apply(repo *xlog.Repository, cfg xconf.Config) error {
	if repo == nil || cfg == nil {
		return fmt.Errorf("%w: nil repository or config", xlog.ErrUsage)
	}
	props, err := cfg.Properties()
	if err != nil {
		return xlog.NewConfigError(cfg.Path(), err)
	}
	return c.Configure(repo, props)
}

// Configure 应用扁平属性表，值中的 ${name} 不再展开
func (c *Configurator) Configure(repo *xlog.Repository, props map[string]string) error {
	if repo == nil {
		return fmt.Errorf("%w: nil repository", xlog.ErrUsage)
	}
	p, err := parsePlan(props)
	if err != nil {
		return err
	}
	res, err := p.build(c.registry)
	if err != nil {
		return err
	}
	if err := repo.Configure(res.config); err != nil {
		return errors.Join(err, xlog.CloseAll(res.appenders))
	}
	if res.captureLocation {
		repo.SetCaptureLocation(true)
	}
	c.logger.Debug("logging configured",
		slog.Int("loggers", len(res.config.Loggers)),
		slog.Int("appenders", len(res.appenders)),
		slog.Bool("reset", res.config.Reset))
	return nil
}

// Validate 在临时仓库上完整加载一次后丢弃
//
// 会真正打开文件目标，能发现权限等资源问题。
func (c *Configurator) Validate(path string) error {
	cfg, err := xconf.New(path, c.xconfOpts...)
	if err != nil {
		return loadError(path, err)
	}
	return c.ValidateConfig(cfg)
}

// ValidateConfig 校验已加载的配置文档
func (c *Configurator) ValidateConfig(cfg xconf.Config) error {
	scratch := xlog.NewRepository()
	err := c.Apply(scratch, cfg)
	return errors.Join(err, scratch.Shutdown())
}

// Watch 加载配置并在文件变化时重新加载
//
// 首次加载失败直接返回错误。之后每次重载的结果通过 cb 通知，
// 失败时仓库保持上一次成功的配置。返回的监视器已在后台运行，
// 调用 Stop 结束监视。
func (c *Configurator) Watch(repo *xlog.Repository, path string, cb func(error)) (*xconf.Watcher, error) {
	cfg, err := xconf.New(path, c.xconfOpts...)
	if err != nil {
		return nil, loadError(path, err)
	}
	if err := c.Apply(repo, cfg); err != nil {
		return nil, err
	}

	w, err := xconf.Watch(cfg, func(cfg xconf.Config, err error) {
		if err != nil {
			err = loadError(path, err)
		} else {
			err = c.Apply(repo, cfg)
		}
		if err != nil {
			c.logger.Warn("logging reload failed", slog.String("path", path), slog.Any("error", err))
		} else {
			c.logger.Info("logging reloaded", slog.String("path", path))
		}
		if cb != nil {
			cb(err)
		}
	}, xconf.WithDebounce(c.debounce))
	if err != nil {
		return nil, xlog.ResourceError("watch", path, err)
	}
	w.StartAsync()
	return w, nil
}

// loadError 读文件失败归为资源错误，其余归为配置错误
func loadError(path string, err error) error {
	if errors.Is(err, xconf.ErrLoadFailed) {
		return xlog.ResourceError("read", path, err)
	}
	return xlog.NewConfigError(path, err)
}

// 使用默认配置器的便捷函数

// Load 见 Configurator.Load
func Load(repo *xlog.Repository, path string, opts ...Option) error {
	return New(opts...).Load(repo, path)
}

// LoadBytes 见 Configurator.LoadBytes
func LoadBytes(repo *xlog.Repository, data []byte, format xconf.Format, opts ...Option) error {
	return New(opts...).LoadBytes(repo, data, format)
}

// Apply 见 Configurator.Apply
func Apply(repo *xlog.Repository, cfg xconf.Config, opts ...Option) error {
	return New(opts...).Apply(repo, cfg)
}

// Validate 见 Configurator.Validate
func Validate(path string, opts ...Option) error {
	return New(opts...).Validate(path)
}

// Watch 见 Configurator.Watch
func Watch(repo *xlog.Repository, path string, cb func(error), opts ...Option) (*xconf.Watcher, error) {
	return New(opts...).Watch(repo, path, cb)
}
