package xappender

import (
	"bufio"
	"errors"
	"io"

	"github.com/omeyang/logkit/pkg/observability/xlog"
	"github.com/omeyang/logkit/pkg/util/xfile"
)

// DefaultBufferSize BufferedIO 的默认缓冲区大小
const DefaultBufferSize = 8 * 1024

var errNoFile = errors.New("file is required")

// FileAppender 写入文件
//
// 文件在 ActivateOptions 时打开，重复激活会先打开新文件再关闭旧文件。
// BufferedIO 开启后不再逐事件刷新，缓冲在 Close 或写满时落盘。
type FileAppender struct {
	WriterAppender
	file       string
	appendMode bool
	bufferedIO bool
	bufferSize int
}

// NewFileAppender 创建文件 appender，默认追加写入
func NewFileAppender(name, file string, layout xlog.Layout) *FileAppender {
	a := newFileAppender(name, file, layout)
	return &a
}

func newFileAppender(name, file string, layout xlog.Layout) FileAppender {
	return FileAppender{
		WriterAppender: WriterAppender{
			base:           newBase(name, layout),
			immediateFlush: true,
			target:         file,
		},
		file:       file,
		appendMode: true,
		bufferSize: DefaultBufferSize,
	}
}

// SetFile 设置文件路径
func (a *FileAppender) SetFile(file string) {
	a.mu.Lock()
	a.file = file
	a.mu.Unlock()
}

// File 返回配置的文件路径
func (a *FileAppender) File() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file
}

// SetAppend false 时打开文件会清空已有内容
func (a *FileAppender) SetAppend(v bool) {
	a.mu.Lock()
	a.appendMode = v
	a.mu.Unlock()
}

// SetBufferedIO 开启写缓冲
func (a *FileAppender) SetBufferedIO(v bool) {
	a.mu.Lock()
	a.bufferedIO = v
	a.mu.Unlock()
}

// SetBufferSize 设置缓冲区大小（字节）
func (a *FileAppender) SetBufferSize(n int) {
	a.mu.Lock()
	a.bufferSize = n
	a.mu.Unlock()
}

// SetOption 支持 File、Append、BufferedIO、BufferSize 以及 Threshold、ImmediateFlush
func (a *FileAppender) SetOption(key, value string) error {
	return a.setFileOption("FileAppender", key, value)
}

func (a *FileAppender) setFileOption(component, key, value string) error {
	switch xlog.OptionKey(key) {
	case "file":
		a.SetFile(value)
	case "append":
		v, err := xlog.ParseBoolOption(key, value)
		if err != nil {
			return err
		}
		a.SetAppend(v)
	case "bufferedio":
		v, err := xlog.ParseBoolOption(key, value)
		if err != nil {
			return err
		}
		a.SetBufferedIO(v)
	case "buffersize":
		n, err := xlog.ParseIntOption(key, value)
		if err != nil {
			return err
		}
		if n == 0 {
			return xlog.InvalidOption(key, value, nil)
		}
		a.SetBufferSize(n)
	case "threshold", "immediateflush":
		return a.WriterAppender.SetOption(key, value)
	default:
		return xlog.OptionError(component, key)
	}
	return nil
}

// ActivateOptions 打开文件，失败返回 ResourceError
func (a *FileAppender) ActivateOptions() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkLocked(); err != nil {
		return err
	}
	f, path, err := xfile.OpenFile(a.file, a.appendMode)
	if err != nil {
		return xlog.ResourceError("open", a.file, err)
	}
	return a.installLocked(f, path)
}

func (a *FileAppender) checkLocked() error {
	if a.closed {
		return xlog.ErrClosed
	}
	if a.layout == nil {
		return xlog.ErrNoLayout
	}
	if a.file == "" {
		return xlog.InvalidOption("File", "", errNoFile)
	}
	return nil
}

// installLocked 切换到新目标，旧目标刷新后关闭
func (a *FileAppender) installLocked(wc io.WriteCloser, target string) error {
	err := a.releaseLocked()

	var w io.Writer = wc
	if a.bufferedIO {
		w = bufio.NewWriterSize(wc, a.bufferSize)
		a.immediateFlush = false
	}
	a.out = w
	a.closer = wc
	a.target = target
	return err
}
