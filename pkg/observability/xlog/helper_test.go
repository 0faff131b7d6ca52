package xlog_test

import (
	"fmt"
	"sync"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// recorder 记录收到事件的测试 appender
type recorder struct {
	name string

	mu     sync.Mutex
	events []xlog.Event
	closed int
	err    error // Append 返回的错误
}

func newRecorder(name string) *recorder {
	return &recorder{name: name}
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Append(e *xlog.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed > 0 {
		return xlog.ErrClosed
	}
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

// lines 以 "LEVEL logger msg" 形式返回已记录的事件
func (r *recorder) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, fmt.Sprintf("%s %s %s", e.Level, e.Logger, e.Message))
	}
	return out
}

func (r *recorder) last() xlog.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recorder) closeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// orderRecorder 多个 appender 共享同一序列，验证分发顺序
type orderRecorder struct {
	name string
	seq  *[]string
}

func (o *orderRecorder) Name() string { return o.name }

func (o *orderRecorder) Append(e *xlog.Event) error {
	*o.seq = append(*o.seq, o.name+":"+e.Message)
	return nil
}

func (o *orderRecorder) Close() error { return nil }
