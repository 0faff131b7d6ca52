package xrotate

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/logkit/pkg/util/xfile"
)

func backups(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if e.Name() != "app.log" {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestNew_WriteAndRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	r, err := New(path, WithMaxBackups(3))
	require.NoError(t, err)
	assert.Equal(t, path, r.Filename())

	_, err = r.Write([]byte("before\n"))
	require.NoError(t, err)
	require.NoError(t, r.Rotate())
	_, err = r.Write([]byte("after\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after\n", string(data))
	assert.Len(t, backups(t, dir), 1)
}

func TestNew_AppendAndTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))

	r, err := New(path)
	require.NoError(t, err)
	_, err = r.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))

	r, err = New(path, WithTruncate(true))
	require.NoError(t, err)
	_, err = r.Write([]byte("fresh\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(data))
}

func TestNew_Validation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"大小为零", []Option{WithMaxSize(0)}, ErrInvalidMaxSize},
		{"大小超限", []Option{WithMaxSize(maxSizeMB + 1)}, ErrInvalidMaxSize},
		{"备份为负", []Option{WithMaxBackups(-1)}, ErrInvalidMaxBackups},
		{"天数超限", []Option{WithMaxAge(maxAgeDays + 1)}, ErrInvalidMaxAge},
		{"无清理策略", []Option{WithMaxBackups(0)}, ErrNoCleanupPolicy},
		{"非法权限", []Option{WithFileMode(os.ModeSetuid | 0o644)}, ErrInvalidFileMode},
		{"非法调度", []Option{WithSchedule("every day")}, ErrInvalidSchedule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(path, tt.opts...)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, r)
		})
	}

	_, err := New("")
	assert.ErrorIs(t, err, xfile.ErrEmptyPath)
	_, err = New("..")
	assert.ErrorIs(t, err, xfile.ErrInvalidPath)

	// 只保留天数策略是合法的
	r, err := New(path, WithMaxBackups(0), WithMaxAge(7), nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

func TestClose(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.ErrorIs(t, r.Close(), ErrClosed)
	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
}

func TestFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	r, err := New(path, WithFileMode(0o640))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("x\n"))
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	require.NoError(t, r.Rotate())
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestFileMode_ErrorReported(t *testing.T) {
	var got []error
	r, err := New(filepath.Join(t.TempDir(), "app.log"),
		WithFileMode(0o604),
		WithOnError(func(err error) {
			got = append(got, err)
			panic("callback panic")
		}))
	require.NoError(t, err)
	defer r.Close()

	lr := r.(*lumberjackRotator)
	boom := errors.New("chmod denied")
	lr.chmodFn = func(string, os.FileMode) error { return boom }

	// 回调 panic 不影响写入结果
	_, err = r.Write([]byte("x\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], boom)
}

func TestSchedule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	var mu sync.Mutex
	var errs []error
	r, err := New(path, WithMaxBackups(100), WithSchedule("@every 1s"),
		WithOnError(func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}))
	require.NoError(t, err)

	_, err = r.Write([]byte("tick\n"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(backups(t, dir)) >= 1
	}, 5*time.Second, 50*time.Millisecond)
	require.NoError(t, r.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, errs)
}

func TestConcurrentWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	r, err := New(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var written atomic.Int64
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				n, err := r.Write([]byte("0123456789\n"))
				if err == nil {
					written.Add(int64(n))
				}
			}
		}()
	}
	wg.Wait()
	require.NoError(t, r.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, written.Load(), info.Size())
	assert.Equal(t, int64(8*100*11), info.Size())
}

func TestValidateSchedule(t *testing.T) {
	for _, spec := range []string{"0 0 * * *", "*/30 * * * * *", "@daily", "@every 1h30m"} {
		assert.NoError(t, ValidateSchedule(spec), spec)
	}
	for _, spec := range []string{"", "* * *", "@fortnightly", "61 * * * *"} {
		assert.ErrorIs(t, ValidateSchedule(spec), ErrInvalidSchedule, spec)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"10MB", 10 * 1024 * 1024},
		{"10mb", 10 * 1024 * 1024},
		{"512KB", 512 * 1024},
		{" 1GB ", 1024 * 1024 * 1024},
		{"2 MiB", 2 * 1024 * 1024},
		{"4096", 4096},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "ten", "0", "-1MB"} {
		_, err := ParseSize(bad)
		assert.ErrorIs(t, err, ErrInvalidSize, bad)
	}
}

func TestSizeToMB(t *testing.T) {
	assert.Equal(t, 1, SizeToMB(1))
	assert.Equal(t, 1, SizeToMB(bytesPerMB))
	assert.Equal(t, 2, SizeToMB(bytesPerMB+1))
	assert.Equal(t, 10, SizeToMB(10*bytesPerMB))
	assert.Equal(t, maxSizeMB+1, SizeToMB(1<<50))
	assert.Equal(t, "10 MiB", FormatSize(10*bytesPerMB))
}
