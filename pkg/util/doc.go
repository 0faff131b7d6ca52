// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 日志文件路径清理、目录创建和带权限的文件打开
package util
