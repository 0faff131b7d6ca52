package xlog_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

// =============================================================================
// 层级
// =============================================================================

func TestRepository_RootAliases(t *testing.T) {
	repo := xlog.NewRepository()
	root := repo.Root()

	assert.Same(t, root, repo.Logger(""))
	assert.Same(t, root, repo.Logger("root"))
	assert.Same(t, root, repo.Logger("  root "))
	assert.Equal(t, "root", root.Name())
	assert.True(t, root.IsRoot())
	assert.Nil(t, root.Parent())

	lvl, ok := root.Level()
	assert.True(t, ok, "根 logger 总有显式级别")
	assert.Equal(t, xlog.LevelWarn, lvl)
}

func TestRepository_LoggerIdentity(t *testing.T) {
	repo := xlog.NewRepository()
	a := repo.Logger("a.b")
	assert.Same(t, a, repo.Logger("a.b"))
	assert.Equal(t, "a.b", a.Name())
	assert.False(t, a.IsRoot())
}

func TestRepository_LongestPrefixParent(t *testing.T) {
	repo := xlog.NewRepository()

	// 先创建深层节点，父级为 root
	abc := repo.Logger("a.b.c")
	assert.Same(t, repo.Root(), abc.Parent())

	// 创建中间节点后，后代改挂到它下面
	a := repo.Logger("a")
	assert.Same(t, a, abc.Parent())
	assert.Same(t, repo.Root(), a.Parent())

	ab := repo.Logger("a.b")
	assert.Same(t, ab, abc.Parent())
	assert.Same(t, a, ab.Parent())

	// 名字前缀相同但不是祖先的节点不受影响
	abcd := repo.Logger("a.bc")
	assert.Same(t, a, abcd.Parent())
}

func TestRepository_ReparentKeepsCloserAncestor(t *testing.T) {
	repo := xlog.NewRepository()
	x := repo.Logger("x.y.z")
	xy := repo.Logger("x.y")
	require.Same(t, xy, x.Parent())

	// 更远的祖先后创建，不应覆盖已有的更近父级
	xRoot := repo.Logger("x")
	assert.Same(t, xy, x.Parent())
	assert.Same(t, xRoot, xy.Parent())
}

func TestRepository_ExistsAndLoggers(t *testing.T) {
	repo := xlog.NewRepository()
	assert.Nil(t, repo.Exists("nope"))
	assert.Same(t, repo.Root(), repo.Exists(""))

	repo.Logger("b")
	repo.Logger("a.x")
	names := make([]string, 0)
	for _, l := range repo.Loggers() {
		names = append(names, l.Name())
	}
	assert.Equal(t, []string{"a.x", "b"}, names)
	assert.NotNil(t, repo.Exists("b"))
}

func TestRepository_ConcurrentLogger(t *testing.T) {
	repo := xlog.NewRepository()
	var wg sync.WaitGroup
	got := make([]*xlog.Logger, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = repo.Logger("svc.db.pool")
		}()
	}
	wg.Wait()
	for _, l := range got {
		assert.Same(t, got[0], l)
	}
}

// =============================================================================
// 级别
// =============================================================================

func TestLogger_EffectiveLevel(t *testing.T) {
	repo := xlog.NewRepository()
	abc := repo.Logger("a.b.c")
	assert.Equal(t, xlog.LevelWarn, abc.EffectiveLevel())

	repo.Logger("a").SetLevel(xlog.LevelDebug)
	assert.Equal(t, xlog.LevelDebug, abc.EffectiveLevel())

	abc.SetLevel(xlog.LevelError)
	assert.Equal(t, xlog.LevelError, abc.EffectiveLevel())

	require.NoError(t, abc.ClearLevel())
	_, ok := abc.Level()
	assert.False(t, ok)
	assert.Equal(t, xlog.LevelDebug, abc.EffectiveLevel())
}

func TestLogger_ClearRootLevel(t *testing.T) {
	repo := xlog.NewRepository()
	err := repo.Root().ClearLevel()
	assert.ErrorIs(t, err, xlog.ErrRootLevel)
	assert.ErrorIs(t, err, xlog.ErrUsage)
}

func TestLogger_IsEnabled(t *testing.T) {
	repo := xlog.NewRepository(xlog.WithRootLevel(xlog.LevelInfo))
	l := repo.Logger("app")

	assert.False(t, l.IsEnabled(xlog.LevelDebug))
	assert.True(t, l.IsEnabled(xlog.LevelInfo))
	assert.True(t, l.IsEnabled(xlog.LevelFatal))
	assert.False(t, l.IsEnabled(xlog.LevelOff), "OFF 永远不启用")

	repo.SetThreshold(xlog.LevelError)
	assert.False(t, l.IsEnabled(xlog.LevelWarn))
	assert.True(t, l.IsEnabled(xlog.LevelError))
	assert.Equal(t, xlog.LevelError, repo.Threshold())

	l.SetLevel(xlog.LevelAll)
	repo.SetThreshold(xlog.LevelAll)
	assert.True(t, l.IsEnabled(xlog.LevelTrace))
}

// =============================================================================
// 分发
// =============================================================================

func TestDispatch_Additivity(t *testing.T) {
	repo := xlog.NewRepository(xlog.WithRootLevel(xlog.LevelAll))
	var seq []string
	rootA := &orderRecorder{name: "root", seq: &seq}
	aA := &orderRecorder{name: "a", seq: &seq}
	abA := &orderRecorder{name: "ab", seq: &seq}
	require.NoError(t, repo.Root().AddAppender(rootA))
	require.NoError(t, repo.Logger("a").AddAppender(aA))
	require.NoError(t, repo.Logger("a.b").AddAppender(abA))

	repo.Logger("a.b").Info("m1")
	assert.Equal(t, []string{"ab:m1", "a:m1", "root:m1"}, seq, "自身在前，祖先在后")

	seq = seq[:0]
	repo.Logger("a").SetAdditive(false)
	repo.Logger("a.b").Info("m2")
	assert.Equal(t, []string{"ab:m2", "a:m2"}, seq, "第一个不可加节点之后停止")

	seq = seq[:0]
	repo.Logger("a.b").SetAdditive(false)
	repo.Logger("a.b").Info("m3")
	assert.Equal(t, []string{"ab:m3"}, seq)
}

func TestDispatch_DuplicateAcrossChain(t *testing.T) {
	repo := xlog.NewRepository(xlog.WithRootLevel(xlog.LevelAll))
	rec := newRecorder("shared")
	require.NoError(t, repo.Root().AddAppender(rec))
	require.NoError(t, repo.Logger("x").AddAppender(rec))

	repo.Logger("x").Warn("twice")
	assert.Len(t, rec.lines(), 2, "同一 appender 挂在链上多个节点时各收一次")
}

func TestLogger_AddAppenderDedup(t *testing.T) {
	repo := xlog.NewRepository()
	l := repo.Logger("x")
	rec := newRecorder("r")
	require.NoError(t, l.AddAppender(rec))
	require.NoError(t, l.AddAppender(rec))
	assert.Equal(t, 1, l.NumberOfAppenders())
	assert.Same(t, rec, l.Appender("r"))
	assert.Nil(t, l.Appender("missing"))

	assert.ErrorIs(t, l.AddAppender(nil), xlog.ErrNilAppender)

	l.RemoveAppender(rec)
	assert.Equal(t, 0, l.NumberOfAppenders())
	assert.Zero(t, rec.closeCount(), "卸载不关闭")
}

func TestLogger_LevelGating(t *testing.T) {
	repo := xlog.NewRepository()
	rec := newRecorder("r")
	require.NoError(t, repo.Root().AddAppender(rec))
	l := repo.Logger("test")

	for _, lvl := range xlog.Levels() {
		l.Log(lvl, "test "+lvl.String())
	}
	l.SetLevel(xlog.LevelTrace)
	l.Trace("t")
	l.Debugf("d %d", 1)

	assert.Equal(t, []string{
		"FATAL test test FATAL",
		"ERROR test test ERROR",
		"WARN test test WARN",
		"TRACE test t",
		"DEBUG test d 1",
	}, rec.lines())
}

func TestLogger_CaptureLocation(t *testing.T) {
	repo := xlog.NewRepository()
	rec := newRecorder("r")
	require.NoError(t, repo.Root().AddAppender(rec))

	repo.Root().Error("here")
	loc := rec.last().Location
	assert.True(t, strings.HasSuffix(loc.File, "repository_test.go"), loc.File)
	assert.Contains(t, loc.Function, "TestLogger_CaptureLocation")
	assert.Positive(t, loc.Line)

	repo.Root().Errorf("f %s", "x")
	assert.Contains(t, rec.last().Location.Function, "TestLogger_CaptureLocation")

	repo.SetCaptureLocation(false)
	repo.Root().Error("no location")
	assert.True(t, rec.last().Location.IsZero())
}

func TestLogger_Stack(t *testing.T) {
	repo := xlog.NewRepository()
	rec := newRecorder("r")
	require.NoError(t, repo.Root().AddAppender(rec))

	repo.Root().Stack(xlog.LevelError, "boom")
	e := rec.last()
	assert.True(t, strings.HasPrefix(e.Message, "boom\ngoroutine "), e.Message)
	assert.Contains(t, e.Location.Function, "TestLogger_Stack")
}

func TestLogger_LogAt(t *testing.T) {
	repo := xlog.NewRepository()
	rec := newRecorder("r")
	require.NoError(t, repo.Root().AddAppender(rec))

	loc := xlog.Location{File: "main.c", Line: 7}
	repo.Root().LogAt(xlog.LevelError, loc, "bound")
	assert.Equal(t, loc, rec.last().Location)

	repo.Root().LogAt(xlog.LevelDebug, loc, "filtered")
	assert.Len(t, rec.lines(), 1)
}

// =============================================================================
// 失败隔离
// =============================================================================

func TestDispatch_FailureIsolation(t *testing.T) {
	ctrl := gomock.NewController(t)

	failing := NewMockAppender(ctrl)
	failing.EXPECT().Name().Return("bad").AnyTimes()
	failing.EXPECT().Append(gomock.Any()).Return(xlog.ErrResource).Times(3)

	var reported []error
	repo := xlog.NewRepository(xlog.WithOnError(func(err error) { reported = append(reported, err) }))
	good := newRecorder("good")
	require.NoError(t, repo.Root().AddAppender(failing))
	require.NoError(t, repo.Root().AddAppender(good))

	for range 3 {
		repo.Root().Error("x")
	}

	assert.Len(t, good.lines(), 3, "失败的 appender 不影响其他 appender")
	require.Len(t, reported, 1, "同一 appender 只回调一次")
	assert.ErrorIs(t, reported[0], xlog.ErrResource)
	assert.Contains(t, reported[0].Error(), `"bad"`)
	assert.Equal(t, uint64(3), repo.ErrorCount())
}

func TestDispatch_PanicIsolation(t *testing.T) {
	ctrl := gomock.NewController(t)

	panicking := NewMockAppender(ctrl)
	panicking.EXPECT().Name().Return("panic").AnyTimes()
	panicking.EXPECT().Append(gomock.Any()).DoAndReturn(func(*xlog.Event) error {
		panic("sink exploded")
	})

	repo := xlog.NewRepository()
	good := newRecorder("good")
	require.NoError(t, repo.Root().AddAppender(panicking))
	require.NoError(t, repo.Root().AddAppender(good))

	e := xlog.NewEvent("root", xlog.LevelError, "x")
	err := repo.Root().Dispatch(e)
	require.Error(t, err)
	assert.ErrorIs(t, err, xlog.ErrResource)
	assert.Len(t, good.lines(), 1)
}

func TestDispatch_ClosedAppenderDropped(t *testing.T) {
	var reported int
	repo := xlog.NewRepository(xlog.WithOnError(func(error) { reported++ }))
	rec := newRecorder("r")
	require.NoError(t, repo.Root().AddAppender(rec))
	require.NoError(t, rec.Close())

	err := repo.Root().Dispatch(xlog.NewEvent("root", xlog.LevelError, "late"))
	assert.NoError(t, err)
	assert.Zero(t, reported)
	assert.Zero(t, repo.ErrorCount())
}

func TestOnError_NoRecursion(t *testing.T) {
	var repo *xlog.Repository
	calls := 0
	repo = xlog.NewRepository(xlog.WithOnError(func(error) {
		calls++
		// 回调内部再次触发失败，不应递归进入回调
		repo.Root().Error("from handler")
	}))
	bad1 := newRecorder("bad1")
	bad1.err = errors.New("disk full")
	require.NoError(t, repo.Root().AddAppender(bad1))

	repo.Root().Error("x")
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(2), repo.ErrorCount())
}

func TestOnError_ConcurrentFailureQueued(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var reported []string
	repo := xlog.NewRepository(xlog.WithOnError(func(err error) {
		reported = append(reported, err.Error())
		if len(reported) == 1 {
			close(entered)
			<-release
		}
	}))
	badA := newRecorder("A")
	badA.err = errors.New("disk full A")
	require.NoError(t, repo.Root().AddAppender(badA))
	b := repo.Logger("b")
	b.SetAdditive(false)
	badB := newRecorder("B")
	badB.err = errors.New("disk full B")
	require.NoError(t, b.AddAppender(badB))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		repo.Root().Error("a")
	}()
	<-entered

	// A 的回调尚未返回，B 的失败排队而不是丢弃
	b.Error("b1")
	close(release)
	wg.Wait()
	b.Error("b2")

	require.Len(t, reported, 2)
	assert.Contains(t, reported[0], `"A"`)
	assert.Contains(t, reported[1], `"B"`)
	assert.Equal(t, uint64(3), repo.ErrorCount())
}

func TestOnError_PanicInHandler(t *testing.T) {
	repo := xlog.NewRepository(xlog.WithOnError(func(error) { panic("handler bug") }))
	bad := newRecorder("bad")
	bad.err = errors.New("io")
	require.NoError(t, repo.Root().AddAppender(bad))

	assert.NotPanics(t, func() { repo.Root().Error("x") })
	assert.Equal(t, uint64(2), repo.ErrorCount(), "回调 panic 也计数")
}

// =============================================================================
// 生命周期
// =============================================================================

func TestRepository_Reset(t *testing.T) {
	repo := xlog.NewRepository()
	rec1 := newRecorder("r1")
	rec2 := newRecorder("r2")
	require.NoError(t, repo.Root().AddAppender(rec1))
	a := repo.Logger("a")
	require.NoError(t, a.AddAppender(rec1))
	require.NoError(t, a.AddAppender(rec2))
	a.SetLevel(xlog.LevelDebug)
	a.SetAdditive(false)
	repo.Root().SetLevel(xlog.LevelTrace)
	repo.SetThreshold(xlog.LevelError)

	require.NoError(t, repo.Reset())

	assert.Equal(t, 0, repo.Root().NumberOfAppenders())
	assert.Equal(t, 0, a.NumberOfAppenders())
	assert.Equal(t, 1, rec1.closeCount(), "多处挂载的 appender 只关闭一次")
	assert.Equal(t, 1, rec2.closeCount())
	_, ok := a.Level()
	assert.False(t, ok)
	assert.True(t, a.Additive())
	assert.Equal(t, xlog.LevelWarn, repo.Root().EffectiveLevel())
	assert.Equal(t, xlog.LevelAll, repo.Threshold())
	assert.Same(t, a, repo.Logger("a"), "节点保留")
}

func TestRepository_Shutdown(t *testing.T) {
	repo := xlog.NewRepository()
	rec := newRecorder("r")
	l := repo.Logger("svc")
	require.NoError(t, l.AddAppender(rec))

	require.NoError(t, repo.Shutdown())
	assert.True(t, repo.IsShutdown())
	assert.Equal(t, 1, rec.closeCount())

	l.Fatal("ignored")
	assert.False(t, l.IsEnabled(xlog.LevelFatal))
	assert.Empty(t, rec.lines())
	assert.ErrorIs(t, l.AddAppender(newRecorder("late")), xlog.ErrShutdown)
}

func TestRepository_ConcurrentLogAndReset(t *testing.T) {
	repo := xlog.NewRepository(xlog.WithRootLevel(xlog.LevelAll))
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := repo.Logger("c" + string(rune('a'+i)))
			for range 200 {
				l.Info("x")
			}
		}()
	}
	for range 20 {
		require.NoError(t, repo.Root().AddAppender(newRecorder("r")))
		require.NoError(t, repo.Reset())
	}
	wg.Wait()
}
