// Package xconf 加载日志配置文档，基于 koanf 实现。
//
// # 支持的格式
//
//   - 属性文件（.properties、.conf、无扩展名）：由 [PropertiesParser] 解析，
//     底层为 magiconair/properties
//   - YAML（.yaml、.yml）与 JSON（.json）：嵌套映射按层级展开为点分键，
//     列表值以 ", " 连接，因此 rootLogger: [INFO, A1] 等价于 rootLogger=INFO, A1
//
// 同一节点既有值又有子键时（如 appender.A1 与 appender.A1.layout），
// YAML/JSON 中写成带点的扁平键即可。
//
// # 占位符
//
// [Config.Properties] 统一展开 ${name}：先查找同一文档中的其他键，
// 找不到时读取同名环境变量。循环引用返回 [ErrParseFailed]。
//
// # 重载与监视
//
// Reload 解析成功后原子替换内部 koanf 实例，失败时保留旧内容。
// [Watch] 基于 fsnotify 监视文件所在目录，内置防抖，
// Stop 之后不会再开始新的重载。从字节数据创建的配置不支持重载和监视。
package xconf
