package xconf

// Options 配置加载选项。
type Options struct {
	// Delim koanf 内部的层级分隔符，默认 "/"。
	// 属性键本身以 "." 分隔，分隔符不能出现在键中。
	Delim string

	// DisableExpansion 为 true 时 Properties 返回未展开的原始值。
	DisableExpansion bool
}

// Option 配置选项函数。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{Delim: "/"}
}

// WithDelim 设置 koanf 层级分隔符。
func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

// WithoutExpansion 关闭 ${name} 占位符展开。
func WithoutExpansion() Option {
	return func(o *Options) {
		o.DisableExpansion = true
	}
}
