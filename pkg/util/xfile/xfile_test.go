package xfile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"相对路径", "logs/app.log", "logs/app.log", nil},
		{"冗余分隔符", "logs//./app.log", "logs/app.log", nil},
		{"绝对路径", "/var/log/../tmp/app.log", "/var/tmp/app.log", nil},
		{"文件名含双点", "app..2024.log", "app..2024.log", nil},
		{"空路径", "", "", ErrEmptyPath},
		{"空字节", "a\x00b.log", "", ErrNullByte},
		{"目录路径", "logs/", "", ErrInvalidPath},
		{"反斜杠结尾", "logs\\", "", ErrInvalidPath},
		{"上级目录", "..", "", ErrInvalidPath},
		{"仅当前目录", ".", "", ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if runtime.GOOS == "windows" && tt.wantErr == nil {
				t.Skip("路径分隔符不同")
			}
			got, err := SanitizePath(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a", "b", "c.log")
	require.NoError(t, EnsureDir(file))
	info, err := os.Stat(filepath.Dir(file))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// 已存在时不报错
	require.NoError(t, EnsureDir(file))
	require.NoError(t, EnsureDir("plain.log"))

	assert.ErrorIs(t, EnsureDir(""), ErrEmptyPath)
	assert.ErrorIs(t, EnsureDir("x\x00/y"), ErrNullByte)
	assert.ErrorIs(t, EnsureDirWithPerm(file, 0o600), ErrInvalidPerm)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "app.log")

	f, clean, err := OpenFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(path), clean)
	_, err = f.WriteString("first\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// 追加模式保留已有内容
	f, _, err = OpenFile(path, true)
	require.NoError(t, err)
	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))

	// 截断模式清空
	f, _, err = OpenFile(path, false)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

}

func TestSanitizePath_ParentRelative(t *testing.T) {
	base := t.TempDir()
	work := filepath.Join(base, "work")
	require.NoError(t, os.Mkdir(work, 0o750))
	t.Chdir(work)

	got, err := SanitizePath("../logs/app.log")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "app.log", filepath.Base(got))
	assert.Equal(t, "logs", filepath.Base(filepath.Dir(got)))

	// 中间的 ".." 由 Clean 消去，结果仍是相对路径
	got, err = SanitizePath("logs/../app.log")
	require.NoError(t, err)
	assert.Equal(t, "app.log", got)

	f, path, err := OpenFile("../logs/app.log", true)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = os.Stat(filepath.Join(base, "logs", "app.log"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
}
