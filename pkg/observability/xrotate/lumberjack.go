package xrotate

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/logkit/pkg/util/xfile"
)

// 默认配置，与 RollingFileAppender 的默认值一致
const (
	// DefaultMaxSizeMB 单个文件大小上限（MB）
	DefaultMaxSizeMB = 10

	// DefaultMaxBackups 保留的备份数量
	DefaultMaxBackups = 1

	maxSizeMB  = 10240
	maxBackups = 1024
	maxAgeDays = 3650
)

type config struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	LocalTime  bool
	Truncate   bool

	// FileMode 为 0 时保留 lumberjack 的 0600
	FileMode os.FileMode

	// Schedule 为空时只按大小轮转
	Schedule string

	// OnError 接收权限调整和定时轮转的错误。
	// 回调不得写入同一个 Rotator，否则会递归。
	OnError func(error)
}

// Option 轮转器配置选项
type Option func(*config)

// WithMaxSize 设置单个文件大小上限（MB）
func WithMaxSize(mb int) Option {
	return func(c *config) { c.MaxSizeMB = mb }
}

// WithMaxBackups 设置保留的备份数量，0 表示只按天数清理
func WithMaxBackups(n int) Option {
	return func(c *config) { c.MaxBackups = n }
}

// WithMaxAge 设置备份保留天数，0 表示只按数量清理
func WithMaxAge(days int) Option {
	return func(c *config) { c.MaxAgeDays = days }
}

// WithCompress 设置是否 gzip 压缩备份
func WithCompress(compress bool) Option {
	return func(c *config) { c.Compress = compress }
}

// WithLocalTime 备份文件名使用本地时间，默认 UTC
func WithLocalTime(local bool) Option {
	return func(c *config) { c.LocalTime = local }
}

// WithTruncate 打开时清空已有文件，默认追加
func WithTruncate(truncate bool) Option {
	return func(c *config) { c.Truncate = truncate }
}

// WithFileMode 设置日志文件权限
func WithFileMode(mode os.FileMode) Option {
	return func(c *config) { c.FileMode = mode }
}

// WithSchedule 按 cron 表达式定时轮转
//
// 支持 5 段、带秒的 6 段表达式以及 @daily、@every 1h 等描述符。
func WithSchedule(spec string) Option {
	return func(c *config) { c.Schedule = spec }
}

// WithOnError 设置内部错误回调
func WithOnError(fn func(error)) Option {
	return func(c *config) { c.OnError = fn }
}

// scheduleParser 秒字段可选
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule 检查 cron 表达式能否解析
func ValidateSchedule(spec string) error {
	if _, err := scheduleParser.Parse(spec); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, spec, err)
	}
	return nil
}

type lumberjackRotator struct {
	logger   *lumberjack.Logger
	path     string
	fileMode os.FileMode
	onError  func(error)
	mu       sync.Mutex // 保护 ensureFileMode 的 Stat+Chmod

	cron *cron.Cron // nil 表示没有定时轮转

	closed atomic.Bool

	// 累计写入超过 maxSizeBytes 时 lumberjack 可能已自动轮转，需要重新检查权限
	modeApplied  atomic.Bool
	maxSizeBytes int64
	bytesWritten atomic.Int64

	// 仅测试注入，nil 时使用 os 包
	statFn  func(string) (os.FileInfo, error)
	chmodFn func(string, os.FileMode) error
}

// New 创建基于 lumberjack 的轮转器
//
// 路径经 xfile 校验，父目录不存在时以 0750 创建。
// 配置了 Schedule 时立即启动 cron 调度，Close 会等待正在执行的轮转结束。
func New(filename string, opts ...Option) (Rotator, error) {
	cfg := config{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	f, path, err := xfile.OpenFile(filename, !cfg.Truncate)
	if err != nil {
		return nil, err
	}
	// lumberjack 延迟打开文件，这里只负责校验路径和截断
	if err := f.Close(); err != nil {
		return nil, err
	}

	r := &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  cfg.LocalTime,
		},
		path:         path,
		fileMode:     cfg.FileMode,
		onError:      cfg.OnError,
		maxSizeBytes: int64(cfg.MaxSizeMB) * 1024 * 1024,
	}

	if cfg.Schedule != "" {
		c := cron.New(cron.WithParser(scheduleParser))
		if _, err := c.AddFunc(cfg.Schedule, r.scheduledRotate); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, cfg.Schedule, err)
		}
		c.Start()
		r.cron = c
	}
	return r, nil
}

func validateConfig(cfg *config) error {
	if cfg.MaxSizeMB <= 0 || cfg.MaxSizeMB > maxSizeMB {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, cfg.MaxSizeMB, maxSizeMB)
	}
	if cfg.MaxBackups < 0 || cfg.MaxBackups > maxBackups {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, cfg.MaxBackups, maxBackups)
	}
	if cfg.MaxAgeDays < 0 || cfg.MaxAgeDays > maxAgeDays {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, cfg.MaxAgeDays, maxAgeDays)
	}
	if cfg.MaxBackups == 0 && cfg.MaxAgeDays == 0 {
		return fmt.Errorf("%w: MaxBackups and MaxAgeDays cannot both be 0", ErrNoCleanupPolicy)
	}
	if cfg.FileMode != 0 && cfg.FileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, cfg.FileMode)
	}
	if cfg.Schedule != "" {
		return ValidateSchedule(cfg.Schedule)
	}
	return nil
}

func (r *lumberjackRotator) Filename() string {
	return r.path
}

func (r *lumberjackRotator) Write(p []byte) (n int, err error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}

	n, err = r.logger.Write(p)
	if err != nil {
		// Close 可能在 logger.Write 期间完成，调用方始终应得到 ErrClosed
		if r.closed.Load() {
			return n, ErrClosed
		}
		return n, err
	}

	if r.fileMode != 0 {
		needCheck := !r.modeApplied.Load()
		if !needCheck && r.bytesWritten.Add(int64(n)) >= r.maxSizeBytes {
			needCheck = true
		}
		if needCheck {
			r.reportError(r.ensureFileMode())
		}
	}
	return n, nil
}

func (r *lumberjackRotator) ensureFileMode() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stat := r.statFn
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if info.Mode().Perm() != r.fileMode {
		chmod := r.chmodFn
		if chmod == nil {
			chmod = os.Chmod
		}
		//#nosec G302 -- 权限来自配置
		if err := chmod(r.path, r.fileMode); err != nil {
			return err
		}
	}
	r.modeApplied.Store(true)
	r.bytesWritten.Store(0)
	return nil
}

// reportError 回调 panic 不向外传播
func (r *lumberjackRotator) reportError(err error) {
	if err != nil && r.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.onError(err)
	}
}

func (r *lumberjackRotator) scheduledRotate() {
	if err := r.Rotate(); err != nil && !errors.Is(err, ErrClosed) {
		r.reportError(fmt.Errorf("scheduled rotate %s: %w", r.path, err))
	}
}

// Close 关闭标记一旦设置不再重置，底层关闭失败后重试得到 ErrClosed
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	return r.logger.Close()
}

func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		if r.closed.Load() {
			return ErrClosed
		}
		return err
	}
	if r.fileMode != 0 {
		// 新文件是 0600，需要重新调整
		r.modeApplied.Store(false)
		r.bytesWritten.Store(0)
		r.reportError(r.ensureFileMode())
	}
	return nil
}
