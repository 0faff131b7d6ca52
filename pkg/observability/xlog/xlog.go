// xlog.go 定义组件能力接口：Filter、Layout、Appender 及其可选能力
//
// 设计理念：
//   - 每个可由配置产生的组件只实现一组很小的能力接口
//   - 过滤器链三值决策：DENY/ACCEPT 短路，NEUTRAL 继续
//   - 选项以字符串键值设置，ActivateOptions 之后才生效
package xlog

//go:generate mockgen -destination=mock_appender_test.go -package=xlog_test github.com/omeyang/logkit/pkg/observability/xlog Appender

// Decision 过滤器决策
type Decision int

// 过滤器决策取值
const (
	Deny    Decision = -1
	Neutral Decision = 0
	Accept  Decision = 1
)

// String 返回决策名
func (d Decision) String() string {
	switch d {
	case Deny:
		return "DENY"
	case Accept:
		return "ACCEPT"
	default:
		return "NEUTRAL"
	}
}

// Filter 过滤器链中的一个节点
type Filter interface {
	// Decide 对事件给出 ACCEPT、DENY 或 NEUTRAL
	Decide(e *Event) Decision
}

// FilterFunc 函数适配为 Filter
type FilterFunc func(e *Event) Decision

// Decide 实现 Filter 接口
func (f FilterFunc) Decide(e *Event) Decision {
	return f(e)
}

// Decide 按顺序执行过滤器链
//
// 第一个 DENY 拒绝，第一个 ACCEPT 接受，走到链尾视为接受。
// 空链接受所有事件。
func Decide(chain []Filter, e *Event) bool {
	for _, f := range chain {
		switch f.Decide(e) {
		case Deny:
			return false
		case Accept:
			return true
		}
	}
	return true
}

// Layout 将事件格式化为文本
type Layout interface {
	// Format 将格式化结果追加到 dst 并返回
	Format(dst []byte, e *Event) ([]byte, error)
}

// Appender 日志输出端
//
// 实现必须是并发安全的，且可比较（通常为指针类型），
// 仓库按身份对 appender 去重。
type Appender interface {
	// Name 返回 appender 名称（配置中的引用名）
	Name() string

	// Append 过滤、格式化并写出一个事件
	// 被过滤器拒绝时返回 nil
	Append(e *Event) error

	// Close 释放输出目标，幂等
	Close() error
}

// OptionHandler 可由配置键值驱动的组件
type OptionHandler interface {
	// SetOption 设置选项，键大小写不敏感
	SetOption(key, value string) error

	// ActivateOptions 使已设置的选项生效，可重复调用
	ActivateOptions() error
}

// Filterable 支持挂载过滤器链的 appender
type Filterable interface {
	AddFilter(f Filter)
	ClearFilters()
	Filters() []Filter
}

// LayoutHolder 持有 layout 的 appender
type LayoutHolder interface {
	SetLayout(l Layout)
	Layout() Layout
}

// LocationAware 需要源码位置的 layout
type LocationAware interface {
	RequiresLocation() bool
}
