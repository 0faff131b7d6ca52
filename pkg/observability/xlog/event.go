package xlog

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// startTime 引擎启动时刻，RELATIVE 时间格式以此为零点
var startTime = time.Now()

// StartTime 返回引擎启动时刻
func StartTime() time.Time {
	return startTime
}

// Location 调用点源码位置
type Location struct {
	File     string
	Line     int
	Function string
}

// IsZero 位置是否未知
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Function == ""
}

// Event 一次日志调用的只读快照
//
// 每次调用创建一次，分发后不再修改。
type Event struct {
	Logger   string
	Level    Level
	Message  string
	Time     time.Time
	Location Location
	TraceID  string
	SpanID   string
}

// NewEvent 以当前时间创建事件
func NewEvent(logger string, level Level, msg string) *Event {
	return &Event{
		Logger:  logger,
		Level:   level,
		Message: msg,
		Time:    time.Now(),
	}
}

// Relative 返回自引擎启动以来的毫秒数
func (e *Event) Relative() int64 {
	return e.Time.Sub(startTime).Milliseconds()
}

// withTrace 从 ctx 中的 span 补充 trace_id/span_id
func (e *Event) withTrace(ctx context.Context) {
	if ctx == nil {
		return
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	e.TraceID = sc.TraceID().String()
	e.SpanID = sc.SpanID().String()
}

// CallerLocation 返回调用栈上第 skip 层调用者的位置
//
// skip=0 表示 CallerLocation 的直接调用者。
//
//go:noinline
func CallerLocation(skip int) Location {
	return callerLocation(skip + 1)
}

// callerLocation skip=0 表示 callerLocation 的直接调用者
//
//go:noinline
func callerLocation(skip int) Location {
	var pcs [1]uintptr
	// runtime.Callers(0) → Callers 自身，(1) → callerLocation，(2) → 直接调用者
	if runtime.Callers(skip+2, pcs[:]) == 0 {
		return Location{}
	}
	return locationFromPC(pcs[0])
}

// locationFromPC 解析单个程序计数器
func locationFromPC(pc uintptr) Location {
	if pc == 0 {
		return Location{}
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	return Location{File: f.File, Line: f.Line, Function: f.Function}
}
