package xconf

import (
	"fmt"
	"slices"
	"strings"

	"github.com/knadh/koanf/v2"
	"github.com/magiconair/properties"
)

var _ koanf.Parser = PropertiesParser{}

// PropertiesParser 基于 magiconair/properties 的 koanf 解析器
//
// 支持 key=value、key: value、key value 三种写法，# 与 ! 注释，
// 行尾反斜杠续行以及 \uXXXX 转义。解析结果是扁平的键值表，
// 键中的 "." 原样保留。
type PropertiesParser struct{}

// Unmarshal 解析属性文本，值保持未展开
func (PropertiesParser) Unmarshal(b []byte) (map[string]any, error) {
	p, err := properties.LoadString(string(b))
	if err != nil {
		return nil, err
	}
	raw := p.Map()
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out, nil
}

// Marshal 按键排序输出属性文本，嵌套层级以 "." 连接
func (PropertiesParser) Marshal(m map[string]any) ([]byte, error) {
	flat := make(map[string]string)
	flattenInto(flat, "", m)

	p := properties.NewProperties()
	p.DisableExpansion = true
	for _, k := range sortedKeys(flat) {
		if _, _, err := p.Set(k, flat[k]); err != nil {
			return nil, err
		}
	}
	return []byte(p.String()), nil
}

func flattenInto(dst map[string]string, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flattenInto(dst, key, child)
			continue
		}
		dst[key] = stringify(v)
	}
}

// stringify 把 YAML/JSON 的标量和列表转为属性值，列表以 ", " 连接
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(x)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// expand 展开 ${name}：先查其他属性，找不到时取同名环境变量
//
// 循环引用和未闭合的 ${ 返回 ErrParseFailed。
func expand(raw map[string]string) (map[string]string, error) {
	p := properties.NewProperties()
	keys := sortedKeys(raw)
	for _, k := range keys {
		if _, _, err := p.Set(k, raw[k]); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParseFailed, k, err)
		}
	}
	out := make(map[string]string, len(raw))
	for _, k := range keys {
		v, _ := p.Get(k)
		out[k] = v
	}
	return out, nil
}
