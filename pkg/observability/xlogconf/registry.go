package xlogconf

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/omeyang/logkit/pkg/observability/xappender"
	"github.com/omeyang/logkit/pkg/observability/xfilter"
	"github.com/omeyang/logkit/pkg/observability/xlayout"
	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// 兼容 log4j 配置文件的类名前缀
const (
	log4jPackage      = "org.apache.log4j."
	log4jVariaPackage = "org.apache.log4j.varia."
)

// AppenderFactory 按引用名创建 appender
type AppenderFactory func(name string) (xlog.Appender, error)

// LayoutFactory 创建 layout
type LayoutFactory func() (xlog.Layout, error)

// FilterFactory 创建 filter
type FilterFactory func() (xlog.Filter, error)

// Kind 可注册的组件种类
type Kind string

// 组件种类
const (
	KindAppender Kind = "appender"
	KindLayout   Kind = "layout"
	KindFilter   Kind = "filter"
)

// Registry 类别名到工厂的注册表
//
// 别名大小写敏感。重复注册覆盖原有工厂。
type Registry struct {
	mu        sync.RWMutex
	appenders map[string]AppenderFactory
	layouts   map[string]LayoutFactory
	filters   map[string]FilterFactory
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		appenders: make(map[string]AppenderFactory),
		layouts:   make(map[string]LayoutFactory),
		filters:   make(map[string]FilterFactory),
	}
}

// DefaultRegistry 创建注册了全部内置组件的注册表
//
// 每次调用返回新实例，自定义注册不会影响其他实例。
func DefaultRegistry() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// RegisterAppender 注册 appender 工厂
func (r *Registry) RegisterAppender(alias string, f AppenderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appenders[alias] = f
}

// RegisterLayout 注册 layout 工厂
func (r *Registry) RegisterLayout(alias string, f LayoutFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[alias] = f
}

// RegisterFilter 注册 filter 工厂
func (r *Registry) RegisterFilter(alias string, f FilterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[alias] = f
}

// Has 检查别名是否已注册
func (r *Registry) Has(kind Kind, alias string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ok bool
	switch kind {
	case KindAppender:
		_, ok = r.appenders[alias]
	case KindLayout:
		_, ok = r.layouts[alias]
	case KindFilter:
		_, ok = r.filters[alias]
	}
	return ok
}

// Aliases 返回某一种类的全部别名（按字母排序）
func (r *Registry) Aliases(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	switch kind {
	case KindAppender:
		names = keysOf(r.appenders)
	case KindLayout:
		names = keysOf(r.layouts)
	case KindFilter:
		names = keysOf(r.filters)
	}
	sort.Strings(names)
	return names
}

// NewAppender 按别名创建 appender
func (r *Registry) NewAppender(alias, name string) (xlog.Appender, error) {
	r.mu.RLock()
	f := r.appenders[strings.TrimSpace(alias)]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: appender %q", ErrUnknownAlias, alias)
	}
	return f(name)
}

// NewLayout 按别名创建 layout
func (r *Registry) NewLayout(alias string) (xlog.Layout, error) {
	r.mu.RLock()
	f := r.layouts[strings.TrimSpace(alias)]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: layout %q", ErrUnknownAlias, alias)
	}
	return f()
}

// NewFilter 按别名创建 filter
func (r *Registry) NewFilter(alias string) (xlog.Filter, error) {
	r.mu.RLock()
	f := r.filters[strings.TrimSpace(alias)]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: filter %q", ErrUnknownAlias, alias)
	}
	return f()
}

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// registerBuiltins 内置组件同时以短名和 log4j 全限定名注册
func registerBuiltins(r *Registry) {
	appenders := map[string]AppenderFactory{
		"ConsoleAppender": func(name string) (xlog.Appender, error) {
			return xappender.NewConsoleAppender(name, nil), nil
		},
		"FileAppender": func(name string) (xlog.Appender, error) {
			return xappender.NewFileAppender(name, "", nil), nil
		},
		"RollingFileAppender": func(name string) (xlog.Appender, error) {
			return xappender.NewRollingFileAppender(name, "", nil), nil
		},
	}
	for alias, f := range appenders {
		r.RegisterAppender(alias, f)
		r.RegisterAppender(log4jPackage+alias, f)
	}
	r.RegisterAppender("SlogAppender", func(name string) (xlog.Appender, error) {
		return xappender.NewSlogAppender(name, nil), nil
	})

	layouts := map[string]LayoutFactory{
		"PatternLayout": func() (xlog.Layout, error) { return xlayout.NewPatternLayout(""), nil },
		"SimpleLayout":  func() (xlog.Layout, error) { return xlayout.SimpleLayout{}, nil },
		"ColorLayout":   func() (xlog.Layout, error) { return xlayout.NewColorLayout(), nil },
	}
	for alias, f := range layouts {
		r.RegisterLayout(alias, f)
		r.RegisterLayout(log4jPackage+alias, f)
	}

	filters := map[string]FilterFactory{
		"LevelRangeFilter":  func() (xlog.Filter, error) { return xfilter.NewLevelRangeFilter(), nil },
		"LevelMatchFilter":  func() (xlog.Filter, error) { return &xfilter.LevelMatchFilter{AcceptOnMatch: true}, nil },
		"StringMatchFilter": func() (xlog.Filter, error) { return xfilter.NewStringMatchFilter(""), nil },
		"LoggerMatchFilter": func() (xlog.Filter, error) { return xfilter.NewLoggerMatchFilter(""), nil },
		"DenyAllFilter":     func() (xlog.Filter, error) { return xfilter.DenyAllFilter{}, nil },
	}
	for alias, f := range filters {
		r.RegisterFilter(alias, f)
		r.RegisterFilter(log4jVariaPackage+alias, f)
	}
	r.RegisterFilter("SamplingFilter", func() (xlog.Filter, error) { return xfilter.NewSamplingFilter(1), nil })
}
