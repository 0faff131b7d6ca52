// Package xrotate 是 RollingFileAppender 的文件轮转后端。
//
// [New] 基于 lumberjack v2 按大小轮转，备份数量、保留天数与 gzip 压缩
// 均由 lumberjack 管理。[WithSchedule] 额外挂一个 robfig/cron 定时任务，
// 按 cron 表达式（支持秒字段与 @daily 等描述符）触发轮转。
//
// [ParseSize] 解析 "10MB"、"512KB" 这类大小配置，KB/MB/GB 按 1024 进制计算。
//
// lumberjack 以 0600 创建文件，需要其他权限时使用 [WithFileMode]，
// 权限在写入和轮转后通过 chmod 调整。
package xrotate
