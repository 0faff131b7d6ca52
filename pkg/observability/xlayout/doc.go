// Package xlayout 提供事件到文本的布局。
//
//   - [ColorLayout]：级别着色的单行格式，可选时间前缀和位置行
//   - [PatternLayout]：log4j 风格的转换模式（%-5p %d{ISO8601} %c %m%n）
//   - [SimpleLayout]：LEVEL - message
//
// ColorLayout 与 PatternLayout 在 SetOption 之后必须调用 ActivateOptions，
// 之前调用 Format 返回 xlog.ErrNotActivated。激活时生成只读快照，
// 之后修改选项不影响正在使用的快照，重新激活才生效。
//
// # 日期格式
//
// [DateFormat] 支持 NULL、RELATIVE、ABSOLUTE（HH:mm:ss,SSS）、
// DATE（dd MMM yyyy HH:mm:ss,SSS）、ISO8601（yyyy-MM-dd HH:mm:ss,SSS），
// 以及由 y M d H h m s S a E z Z X 组成的自定义模式，单引号包裹字面量。
package xlayout
