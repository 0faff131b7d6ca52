// Package xfile 提供日志输出文件的路径校验与打开。
//
//   - [SanitizePath]：规范化路径，拒绝空路径、空字节和目录路径，
//     以 ".." 开头的相对路径按工作目录解析为绝对路径
//   - [EnsureDir]：创建文件的父目录（默认 0750）
//   - [OpenFile]：校验路径、创建父目录，以追加或截断方式打开文件
//
// FileAppender 与 xrotate 都通过本包打开目标文件，
// 配置中的文件路径在这里统一校验。
package xfile
