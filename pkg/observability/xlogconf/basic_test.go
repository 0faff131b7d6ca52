package xlogconf

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

func TestWriteToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	t.Run("truncate", func(t *testing.T) {
		writeConf(t, path, "old\n")
		repo := xlog.NewRepository()
		a, err := WriteToFile(path, false, repo.Logger("svc"))
		require.NoError(t, err)
		assert.Equal(t, FileAppenderName, a.Name())

		repo.Logger("svc").Warn("hello")
		require.NoError(t, repo.Shutdown())
		assert.Regexp(t, `^WARN  \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3}  svc hello\n$`, readFile(t, path))
	})

	t.Run("append", func(t *testing.T) {
		writeConf(t, path, "old\n")
		repo := xlog.NewRepository()
		_, err := AppendToFile(path, repo.Logger("svc"))
		require.NoError(t, err)

		repo.Logger("svc").Error("again")
		require.NoError(t, repo.Shutdown())
		got := readFile(t, path)
		assert.True(t, strings.HasPrefix(got, "old\nERROR "), got)
		assert.True(t, strings.HasSuffix(got, "  svc again\n"), got)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := WriteToFile(path, true, nil)
		assert.ErrorIs(t, err, xlog.ErrUsage)

		_, err = WriteToFile(filepath.Join(path, "sub", "x.log"), true, xlog.NewRepository().Root())
		assert.ErrorIs(t, err, xlog.ErrResource)

		_, err = WriteToConsole(nil)
		assert.ErrorIs(t, err, xlog.ErrUsage)

		repo := xlog.NewRepository()
		require.NoError(t, repo.Shutdown())
		_, err = WriteToConsole(repo.Root())
		assert.ErrorIs(t, err, xlog.ErrShutdown)
	})
}

func TestLogToFileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	writeConf(t, path, "old\n")

	repo := xlog.NewRepository()
	_, err := LogToFile(repo, path, xlog.LevelDebug)
	require.NoError(t, err)
	assert.Equal(t, xlog.LevelDebug, repo.Root().EffectiveLevel())

	con, err := LogToConsole(repo, xlog.LevelError)
	require.NoError(t, err)
	assert.Equal(t, ConsoleAppenderName, con.Name())
	assert.Equal(t, xlog.LevelError, repo.Root().EffectiveLevel())
	assert.Equal(t, 2, repo.Root().NumberOfAppenders())

	require.NoError(t, repo.Shutdown())
	assert.Empty(t, readFile(t, path))
}

func TestDefaultOptions_Pattern(t *testing.T) {
	tests := []struct {
		name  string
		opts  DefaultOptions
		color bool
		want  string
	}{
		{"plain", DefaultOptions{}, false, "%-5p %d{ABSOLUTE}  %c %m%n"},
		{"color", DefaultOptions{}, true, "%Y%-5p%y %d{ABSOLUTE}  %c %m%n"},
		{"location", DefaultOptions{PrintLocation: true, DatePattern: "ISO8601"}, false, "%-5p %d{ISO8601}  %c %m%n  ->  %F:%L%n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.withDefaults().pattern(tt.color))
		})
	}

	o := DefaultOptions{}.withDefaults()
	assert.Equal(t, xlog.DefaultRootLevel, o.Level)
	assert.Equal(t, DefaultConfigFile, o.ConfigFile)
}

func TestDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	noConf := filepath.Join(dir, "none.conf")

	t.Run("file only is never colored", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		repo := xlog.NewRepository()
		require.NoError(t, DefaultConfig(repo, DefaultOptions{
			Level: xlog.LevelInfo, File: path, Color: true, PrintLocation: true,
			DatePattern: "NULL", ConfigFile: noConf,
		}))
		require.Equal(t, 1, repo.Root().NumberOfAppenders())
		assert.NotNil(t, repo.Root().Appender(FileAppenderName))

		repo.Root().LogAt(xlog.LevelInfo, xlog.Location{File: "main.go", Line: 7}, "hello")
		repo.Root().Debug("dropped")
		require.NoError(t, repo.Shutdown())
		assert.Equal(t, "INFO    root hello\n  ->  main.go:7\n", readFile(t, path))
	})

	t.Run("console only", func(t *testing.T) {
		repo := xlog.NewRepository()
		require.NoError(t, DefaultConfig(repo, DefaultOptions{ConfigFile: noConf}))
		assert.NotNil(t, repo.Root().Appender(ConsoleAppenderName))
		assert.Equal(t, xlog.DefaultRootLevel, repo.Root().EffectiveLevel())
		require.NoError(t, repo.Shutdown())
	})

	t.Run("dual", func(t *testing.T) {
		repo := xlog.NewRepository()
		require.NoError(t, DefaultConfig(repo, DefaultOptions{
			File: filepath.Join(t.TempDir(), "app.log"), Dual: true, ConfigFile: noConf,
		}))
		names := make([]string, 0, 2)
		for _, a := range repo.Root().Appenders() {
			names = append(names, a.Name())
		}
		assert.Equal(t, []string{ConsoleAppenderName, FileAppenderName}, names)
		require.NoError(t, repo.Shutdown())
	})

	t.Run("dual requires file", func(t *testing.T) {
		repo := xlog.NewRepository()
		err := DefaultConfig(repo, DefaultOptions{Dual: true, ConfigFile: noConf})
		assert.ErrorIs(t, err, xlog.ErrUsage)
		assert.Zero(t, repo.Root().NumberOfAppenders())
	})

	t.Run("file failure closes console", func(t *testing.T) {
		blocker := writeConf(t, filepath.Join(t.TempDir(), "blocker"), "x")
		repo := xlog.NewRepository()
		err := DefaultConfig(repo, DefaultOptions{
			File: filepath.Join(blocker, "app.log"), Dual: true, ConfigFile: noConf,
		})
		assert.ErrorIs(t, err, xlog.ErrResource)
		assert.Zero(t, repo.Root().NumberOfAppenders())
	})

	t.Run("override config file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "override.log")
		conf := writeConf(t, filepath.Join(t.TempDir(), "logkit.conf"),
			"rootLogger=ERROR, F\n"+fileAppender("F", out))

		repo := xlog.NewRepository()
		require.NoError(t, DefaultConfig(repo, DefaultOptions{Level: xlog.LevelTrace, ConfigFile: conf}))
		assert.Equal(t, xlog.LevelError, repo.Root().EffectiveLevel())
		assert.NotNil(t, repo.Root().Appender("F"))
		require.NoError(t, repo.Shutdown())
	})
}

func TestDefaultLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.log")
	repo := xlog.NewRepository()
	rec := &recordingAppender{name: "root"}
	require.NoError(t, repo.Root().AddAppender(rec))

	l, err := DefaultLogger(repo, DefaultOptions{File: path, DatePattern: "NULL"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLoggerName, l.Name())
	assert.False(t, l.Additive())
	lvl, ok := l.Level()
	require.True(t, ok)
	assert.Equal(t, xlog.LevelWarn, lvl)

	// 已有 appender 时不再配置
	again, err := DefaultLogger(repo, DefaultOptions{Level: xlog.LevelTrace, Dual: true, File: path})
	require.NoError(t, err)
	assert.Same(t, l, again)
	assert.Equal(t, 1, l.NumberOfAppenders())

	l.Warn("isolated")
	require.NoError(t, repo.Shutdown())
	assert.Equal(t, "WARN    Default isolated\n", readFile(t, path))
	assert.Empty(t, rec.msgs)

	_, err = DefaultLogger(xlog.NewRepository(), DefaultOptions{Dual: true})
	assert.ErrorIs(t, err, xlog.ErrUsage)
}
