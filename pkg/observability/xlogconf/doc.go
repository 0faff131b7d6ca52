// Package xlogconf 从配置文档构建 xlog 仓库状态。
//
// # 键语法
//
// 键可带 log4j. 或 log4cxx. 前缀，下列写法等价于去掉前缀后的键：
//
//	rootLogger=LEVEL[, ref...]            根 logger（rootCategory 同义）
//	logger.<name>=[LEVEL][, ref...]       INHERITED 或 NULL 清除显式级别（category.<name> 同义）
//	additivity.<name>=true|false
//	threshold=LEVEL                       仓库级阈值
//	reset=true|false                      默认 true：替换现有配置；false：合并
//	appender.<ref>=<类别名>
//	appender.<ref>.<选项>=<值>
//	appender.<ref>.layout=<类别名>
//	appender.<ref>.layout.<选项>=<值>
//	appender.<ref>.filter.<id>=<类别名>   过滤器按 id 排序挂载
//	appender.<ref>.filter.<id>.<选项>=<值>
//
// 级别名大小写敏感。值中的 ${name} 在加载时从其他属性或环境变量展开。
// 其余键被忽略，可用作展开用的变量。文件按扩展名识别为 properties、
// YAML 或 JSON，后两者的嵌套映射展开为点分键，见 xconf。
//
// # 加载
//
// 只创建被 logger 行引用的 appender，前向引用合法。全部 appender
// 创建并激活成功后一次性应用到仓库；未知类别名、未声明的引用、
// 未知选项、非法级别或值都返回配置错误，已创建的 appender 被关闭，
// 仓库保持加载前的状态。
//
//	if err := xlogconf.Load(repo, "logkit.conf"); err != nil {
//		return err
//	}
//
// 自定义组件通过 [Registry] 注册后以 [WithRegistry] 传入。
//
// # 基础配置
//
// [WriteToConsole]、[WriteToFile]、[AppendToFile]、[LogToConsole]、
// [LogToFile] 以内置模式直接挂载 appender。[DefaultConfig] 在工作目录
// 存在 logkit.conf 时加载它，否则按 [DefaultOptions] 配置根 logger；
// [DefaultLogger] 以同样的选项配置名为 "Default" 的独立 logger。
package xlogconf
