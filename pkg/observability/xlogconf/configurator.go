package xlogconf

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// 属性键
const (
	keyRootLogger    = "rootLogger"
	keyRootCategory  = "rootCategory"
	keyThreshold     = "threshold"
	keyReset         = "reset"
	prefixLogger     = "logger."
	prefixCategory   = "category."
	prefixAdditivity = "additivity."
	prefixAppender   = "appender."
)

// keyPrefixes 可省略的键前缀
var keyPrefixes = []string{"log4j.", "log4cxx."}

// entry 一条属性，key 保留原始写法用于报错
type entry struct {
	key   string
	value string
}

type filterSpec struct {
	id      string
	alias   *entry
	options map[string]entry
}

type appenderSpec struct {
	ref           string
	alias         *entry
	options       map[string]entry
	layout        *entry
	layoutOptions map[string]entry
	filters       map[string]*filterSpec
}

// plan 属性表解析后的中间结构，尚未创建任何组件
type plan struct {
	reset     bool
	threshold *xlog.Level
	loggers   map[string]*xlog.LoggerConfig
	lineKeys  map[string]string   // logger 名 → 其 logger 行的键
	refs      map[string][]string // logger 名 → appender 引用
	appenders map[string]*appenderSpec
}

func newPlan() *plan {
	return &plan{
		reset:     true,
		loggers:   make(map[string]*xlog.LoggerConfig),
		lineKeys:  make(map[string]string),
		refs:      make(map[string][]string),
		appenders: make(map[string]*appenderSpec),
	}
}

// parsePlan 解析扁平属性表
//
// 不属于任何已知键族的属性被忽略，它们通常只用于 ${name} 展开。
func parsePlan(props map[string]string) (*plan, error) {
	norm := make(map[string]entry, len(props))
	for _, k := range sortedKeys(props) {
		short := stripPrefix(k)
		if prev, dup := norm[short]; dup {
			return nil, xlog.NewConfigError(k, fmt.Errorf("%w: duplicates %q", ErrMalformed, prev.key))
		}
		norm[short] = entry{key: k, value: props[k]}
	}

	p := newPlan()
	for _, short := range sortedKeys(norm) {
		if err := p.add(short, norm[short]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func stripPrefix(key string) string {
	key = strings.TrimSpace(key)
	for _, prefix := range keyPrefixes {
		if rest, ok := strings.CutPrefix(key, prefix); ok {
			return rest
		}
	}
	return key
}

func (p *plan) add(short string, e entry) error {
	switch {
	case short == keyRootLogger || short == keyRootCategory:
		return p.addLogger(xlog.RootName, e)
	case strings.HasPrefix(short, prefixLogger):
		return p.addLogger(strings.TrimPrefix(short, prefixLogger), e)
	case strings.HasPrefix(short, prefixCategory):
		return p.addLogger(strings.TrimPrefix(short, prefixCategory), e)
	case strings.HasPrefix(short, prefixAdditivity):
		name := loggerName(strings.TrimPrefix(short, prefixAdditivity))
		if name == "" {
			return xlog.NewConfigError(e.key, fmt.Errorf("%w: missing logger name", ErrMalformed))
		}
		v, err := xlog.ParseBoolOption(e.key, e.value)
		if err != nil {
			return xlog.NewConfigError(e.key, err)
		}
		p.logger(name).Additive = &v
	case short == keyThreshold:
		l, err := xlog.ParseLevelOption(e.key, e.value)
		if err != nil {
			return xlog.NewConfigError(e.key, err)
		}
		p.threshold = &l
	case short == keyReset:
		v, err := xlog.ParseBoolOption(e.key, e.value)
		if err != nil {
			return xlog.NewConfigError(e.key, err)
		}
		p.reset = v
	case strings.HasPrefix(short, prefixAppender):
		return p.addAppenderEntry(strings.TrimPrefix(short, prefixAppender), e)
	}
	return nil
}

func loggerName(name string) string {
	return strings.TrimSpace(name)
}

func (p *plan) logger(name string) *xlog.LoggerConfig {
	lc, ok := p.loggers[name]
	if !ok {
		lc = &xlog.LoggerConfig{Name: name}
		p.loggers[name] = lc
	}
	return lc
}

// isInherit INHERITED 与 NULL 表示清除显式级别
func isInherit(token string) bool {
	return token == "INHERITED" || token == "NULL"
}

// addLogger 解析 "[LEVEL][, ref...]"
//
// logger 行总是替换该 logger 的 appender 列表，只写级别时列表为空。
func (p *plan) addLogger(name string, e entry) error {
	name = loggerName(name)
	if name == "" {
		return xlog.NewConfigError(e.key, fmt.Errorf("%w: missing logger name", ErrMalformed))
	}
	if prev, dup := p.lineKeys[name]; dup {
		return xlog.NewConfigError(e.key, fmt.Errorf("%w: duplicates %q", ErrMalformed, prev))
	}

	tokens := strings.Split(e.value, ",")
	lc := p.logger(name)
	switch lvl := strings.TrimSpace(tokens[0]); {
	case lvl == "":
	case isInherit(lvl):
		if name == xlog.RootName {
			return xlog.NewConfigError(e.key, xlog.ErrRootLevel)
		}
		lc.Inherit = true
	default:
		level, err := xlog.ParseLevel(lvl)
		if err != nil {
			return xlog.NewConfigError(e.key, err)
		}
		lc.Level = &level
	}

	refs := make([]string, 0, len(tokens)-1)
	for _, t := range tokens[1:] {
		if t = strings.TrimSpace(t); t != "" && !slices.Contains(refs, t) {
			refs = append(refs, t)
		}
	}
	lc.ReplaceAppenders = true
	p.lineKeys[name] = e.key
	p.refs[name] = refs
	return nil
}

// addAppenderEntry 解析 appender.<ref> 之后的部分
func (p *plan) addAppenderEntry(rest string, e entry) error {
	ref, sub, hasSub := strings.Cut(rest, ".")
	if ref == "" {
		return xlog.NewConfigError(e.key, fmt.Errorf("%w: missing appender name", ErrMalformed))
	}
	spec := p.appender(ref)
	if !hasSub {
		spec.alias = &e
		return nil
	}

	head, tail, hasTail := strings.Cut(sub, ".")
	switch {
	case strings.EqualFold(head, "layout"):
		if !hasTail {
			spec.layout = &e
		} else {
			spec.layoutOptions[tail] = e
		}
	case strings.EqualFold(head, "filter"):
		id, opt, hasOpt := strings.Cut(tail, ".")
		if !hasTail || id == "" {
			return xlog.NewConfigError(e.key, fmt.Errorf("%w: missing filter id", ErrMalformed))
		}
		f := spec.filter(id)
		if !hasOpt {
			f.alias = &e
		} else {
			f.options[opt] = e
		}
	default:
		spec.options[sub] = e
	}
	return nil
}

func (p *plan) appender(ref string) *appenderSpec {
	spec, ok := p.appenders[ref]
	if !ok {
		spec = &appenderSpec{
			ref:           ref,
			options:       make(map[string]entry),
			layoutOptions: make(map[string]entry),
			filters:       make(map[string]*filterSpec),
		}
		p.appenders[ref] = spec
	}
	return spec
}

func (s *appenderSpec) filter(id string) *filterSpec {
	f, ok := s.filters[id]
	if !ok {
		f = &filterSpec{id: id, options: make(map[string]entry)}
		s.filters[id] = f
	}
	return f
}

// loggerNames 根在前，其余按名称排序（祖先先于后代）
func (p *plan) loggerNames() []string {
	names := sortedKeys(p.loggers)
	sort.SliceStable(names, func(i, j int) bool {
		return names[i] == xlog.RootName && names[j] != xlog.RootName
	})
	return names
}

// referenced 返回被 logger 行引用的 appender，先检查全部引用均已声明
func (p *plan) referenced() ([]string, error) {
	var refs []string
	for _, name := range p.loggerNames() {
		for _, ref := range p.refs[name] {
			if spec, ok := p.appenders[ref]; !ok || spec.alias == nil {
				return nil, xlog.NewConfigError(p.lineKeys[name], fmt.Errorf("%w: %q", ErrUndeclaredAppender, ref))
			}
			if !slices.Contains(refs, ref) {
				refs = append(refs, ref)
			}
		}
	}
	sort.Strings(refs)
	return refs, nil
}

// result 构建结果
type result struct {
	config          *xlog.Configuration
	appenders       []xlog.Appender
	captureLocation bool
}

// build 创建并激活全部被引用的 appender，再解析 logger 绑定
//
// 失败时已创建的 appender 全部关闭。
func (p *plan) build(reg *Registry) (*result, error) {
	refs, err := p.referenced()
	if err != nil {
		return nil, err
	}

	res := &result{}
	built := make(map[string]xlog.Appender, len(refs))
	for _, ref := range refs {
		a, needLoc, err := buildAppender(reg, p.appenders[ref])
		if err != nil {
			return nil, errors.Join(err, xlog.CloseAll(res.appenders))
		}
		built[ref] = a
		res.appenders = append(res.appenders, a)
		res.captureLocation = res.captureLocation || needLoc
	}

	cfg := &xlog.Configuration{Reset: p.reset, Threshold: p.threshold}
	for _, name := range p.loggerNames() {
		lc := *p.loggers[name]
		for _, ref := range p.refs[name] {
			lc.Appenders = append(lc.Appenders, built[ref])
		}
		cfg.Loggers = append(cfg.Loggers, lc)
	}
	res.config = cfg
	return res, nil
}

// wrapError 资源错误保持原类别，其余错误带上出错的键
func wrapError(key string, err error) error {
	if errors.Is(err, xlog.ErrResource) && !errors.Is(err, xlog.ErrConfiguration) {
		return fmt.Errorf("%s: %w", key, err)
	}
	return xlog.NewConfigError(key, err)
}

func buildAppender(reg *Registry, spec *appenderSpec) (xlog.Appender, bool, error) {
	a, err := reg.NewAppender(spec.alias.value, spec.ref)
	if err != nil {
		return nil, false, xlog.NewConfigError(spec.alias.key, err)
	}
	fail := func(key string, err error) (xlog.Appender, bool, error) {
		return nil, false, errors.Join(wrapError(key, err), a.Close())
	}

	for _, opt := range sortedKeys(spec.options) {
		e := spec.options[opt]
		h, ok := a.(xlog.OptionHandler)
		if !ok {
			return fail(e.key, fmt.Errorf("%w: appender %q takes no options", ErrUnsupportedComponent, spec.ref))
		}
		if err := h.SetOption(opt, e.value); err != nil {
			return fail(e.key, err)
		}
	}

	needLoc := false
	switch {
	case spec.layout != nil:
		holder, ok := a.(xlog.LayoutHolder)
		if !ok {
			return fail(spec.layout.key, fmt.Errorf("%w: appender %q takes no layout", ErrUnsupportedComponent, spec.ref))
		}
		layout, err := buildLayout(reg, spec)
		if err != nil {
			_ = a.Close()
			return nil, false, err
		}
		holder.SetLayout(layout)
		if la, ok := layout.(xlog.LocationAware); ok {
			needLoc = la.RequiresLocation()
		}
	case len(spec.layoutOptions) > 0:
		first := spec.layoutOptions[sortedKeys(spec.layoutOptions)[0]]
		return fail(first.key, fmt.Errorf("%w: layout options without layout", ErrMalformed))
	}

	if len(spec.filters) > 0 {
		chain, ok := a.(xlog.Filterable)
		if !ok {
			return fail(prefixAppender+spec.ref, fmt.Errorf("%w: appender %q takes no filters", ErrUnsupportedComponent, spec.ref))
		}
		// 按 id 排序挂载
		for _, id := range sortedKeys(spec.filters) {
			f, err := buildFilter(reg, spec.filters[id])
			if err != nil {
				_ = a.Close()
				return nil, false, err
			}
			chain.AddFilter(f)
		}
	}

	if h, ok := a.(xlog.OptionHandler); ok {
		if err := h.ActivateOptions(); err != nil {
			return fail(spec.alias.key, err)
		}
	}
	return a, needLoc, nil
}

func buildLayout(reg *Registry, spec *appenderSpec) (xlog.Layout, error) {
	layout, err := reg.NewLayout(spec.layout.value)
	if err != nil {
		return nil, xlog.NewConfigError(spec.layout.key, err)
	}
	if err := configure(layout, spec.layoutOptions, spec.layout.key); err != nil {
		return nil, err
	}
	return layout, nil
}

func buildFilter(reg *Registry, spec *filterSpec) (xlog.Filter, error) {
	if spec.alias == nil {
		key := spec.options[sortedKeys(spec.options)[0]].key
		return nil, xlog.NewConfigError(key, fmt.Errorf("%w: filter %q has no class", ErrMalformed, spec.id))
	}
	f, err := reg.NewFilter(spec.alias.value)
	if err != nil {
		return nil, xlog.NewConfigError(spec.alias.key, err)
	}
	if err := configure(f, spec.options, spec.alias.key); err != nil {
		return nil, err
	}
	return f, nil
}

// configure 依次设置选项并激活 layout 或 filter
func configure(component any, options map[string]entry, aliasKey string) error {
	h, ok := component.(xlog.OptionHandler)
	if !ok {
		if len(options) > 0 {
			e := options[sortedKeys(options)[0]]
			return xlog.NewConfigError(e.key, fmt.Errorf("%w: %T takes no options", ErrUnsupportedComponent, component))
		}
		return nil
	}
	for _, opt := range sortedKeys(options) {
		e := options[opt]
		if err := h.SetOption(opt, e.value); err != nil {
			return xlog.NewConfigError(e.key, err)
		}
	}
	if err := h.ActivateOptions(); err != nil {
		return xlog.NewConfigError(aliasKey, err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := keysOf(m)
	sort.Strings(keys)
	return keys
}
