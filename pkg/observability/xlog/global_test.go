package xlog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

func TestDefault_Lifecycle(t *testing.T) {
	xlog.ResetDefault()
	t.Cleanup(xlog.ResetDefault)

	d := xlog.Default()
	assert.Same(t, d, xlog.Default())
	assert.Same(t, d.Root(), xlog.Root())
	assert.Same(t, d.Logger("a"), xlog.GetLogger("a"))

	rec := newRecorder("r")
	require.NoError(t, xlog.Root().AddAppender(rec))
	require.NoError(t, xlog.Reset())
	assert.Equal(t, 1, rec.closeCount())

	require.NoError(t, xlog.Shutdown())
	assert.True(t, d.IsShutdown())
	assert.NotSame(t, d, xlog.Default(), "Shutdown 后重新创建")
	assert.NoError(t, xlog.Shutdown())
	assert.NoError(t, xlog.Shutdown(), "重复 Shutdown 为空操作")
}

func TestSetDefault(t *testing.T) {
	t.Cleanup(xlog.ResetDefault)

	repo := xlog.NewRepository(xlog.WithRootLevel(xlog.LevelDebug))
	xlog.SetDefault(repo)
	xlog.SetDefault(nil)
	assert.Same(t, repo, xlog.Default())

	rec := newRecorder("r")
	require.NoError(t, repo.Root().AddAppender(rec))
	ctx := context.Background()
	xlog.Debug(ctx, "d")
	xlog.Info(ctx, "i")
	xlog.Warn(ctx, "w")
	xlog.Error(ctx, "e")
	xlog.Log(ctx, xlog.LevelFatal, "f")

	assert.Equal(t, []string{
		"DEBUG root d", "INFO root i", "WARN root w", "ERROR root e", "FATAL root f",
	}, rec.lines())

	loc := rec.last().Location
	assert.True(t, strings.HasSuffix(loc.File, "global_test.go"), loc.File)
	assert.Contains(t, loc.Function, "TestSetDefault")
}
