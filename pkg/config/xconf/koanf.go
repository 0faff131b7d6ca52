package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatProperties 属性文件：.properties、.conf 或无扩展名。
	FormatProperties Format = "properties"

	// FormatYAML YAML 格式，嵌套映射按层级展开为点分键。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式，展开规则同 YAML。
	FormatJSON Format = "json"
)

// Config 已加载的配置文档。
type Config interface {
	// Client 返回底层 koanf 实例，层级分隔符见 Options.Delim。
	Client() *koanf.Koanf

	// Properties 返回点分键到字符串值的扁平表，${name} 已展开。
	Properties() (map[string]string, error)

	// Reload 重新读取文件，解析失败时保留原内容。
	Reload() error

	// Path 返回配置文件路径，从字节数据创建时为空。
	Path() string

	// Format 返回配置格式。
	Format() Format
}

type koanfConfig struct {
	k      atomic.Pointer[koanf.Koanf]
	path   string
	format Format
	opts   *Options
}

// New 从文件创建配置，按扩展名识别格式
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	c := &koanfConfig{path: path, format: format, opts: buildOptions(opts)}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromBytes 从字节数据创建配置，空数据得到空配置
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if !isValidFormat(format) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	c := &koanfConfig{format: format, opts: buildOptions(opts)}
	k, err := c.parse(data)
	if err != nil {
		return nil, err
	}
	c.k.Store(k)
	return c, nil
}

func buildOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (c *koanfConfig) Client() *koanf.Koanf {
	return c.k.Load()
}

func (c *koanfConfig) Properties() (map[string]string, error) {
	k := c.k.Load()
	raw := make(map[string]string)
	for key, v := range k.All() {
		raw[strings.ReplaceAll(key, c.opts.Delim, ".")] = stringify(v)
	}
	if c.opts.DisableExpansion {
		return raw, nil
	}
	return expand(raw)
}

// Reload 解析成功后原子替换 koanf 实例，旧实例仍可读但内容过期
func (c *koanfConfig) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := c.parse(data)
	if err != nil {
		return err
	}
	c.k.Store(k)
	return nil
}

func (c *koanfConfig) Path() string {
	return c.path
}

func (c *koanfConfig) Format() Format {
	return c.format
}

func (c *koanfConfig) parse(data []byte) (*koanf.Koanf, error) {
	k := koanf.New(c.opts.Delim)
	if len(data) == 0 {
		return k, nil
	}
	if err := k.Load(rawbytes.Provider(data), parserFor(c.format)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}

// DetectFormat 按扩展名识别格式
func DetectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "", ".properties", ".conf":
		return FormatProperties, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}

// ParseFormat 解析格式名，大小写不敏感，"yml" 等同 "yaml"
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatProperties, FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "conf":
		return FormatProperties, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func isValidFormat(format Format) bool {
	switch format {
	case FormatProperties, FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}

func parserFor(format Format) koanf.Parser {
	switch format {
	case FormatYAML:
		return yaml.Parser()
	case FormatJSON:
		return json.Parser()
	default:
		return PropertiesParser{}
	}
}
