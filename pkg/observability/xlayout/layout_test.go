package xlayout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/logkit/pkg/observability/xlog"
)

var fixedTime = time.Date(2024, time.March, 5, 7, 8, 9, 45*int(time.Millisecond), time.UTC)

func testEvent(level xlog.Level) *xlog.Event {
	return &xlog.Event{
		Logger:   "test",
		Level:    level,
		Message:  "test " + level.String(),
		Time:     fixedTime,
		Location: xlog.Location{File: "FILE", Line: 42, Function: "main.run"},
	}
}

func format(t *testing.T, l xlog.Layout, e *xlog.Event) string {
	t.Helper()
	b, err := l.Format(nil, e)
	require.NoError(t, err)
	return string(b)
}

// =============================================================================
// ColorLayout
// =============================================================================

func TestColorLayout_Plain(t *testing.T) {
	l := NewColorLayout()
	require.NoError(t, l.ActivateOptions())

	assert.Equal(t, "FATAL test test FATAL\n", format(t, l, testEvent(xlog.LevelFatal)))
	assert.Equal(t, "WARN  test test WARN\n", format(t, l, testEvent(xlog.LevelWarn)))
	assert.Equal(t, "INFO  test test INFO\n", format(t, l, testEvent(xlog.LevelInfo)))
	assert.False(t, l.RequiresLocation())
}

func TestColorLayout_ColorAndLocation(t *testing.T) {
	l := NewColorLayout()
	require.NoError(t, l.SetOption("Color", "true"))
	require.NoError(t, l.SetOption("PrintLocation", "TRUE"))
	require.NoError(t, l.ActivateOptions())
	assert.True(t, l.RequiresLocation())

	tests := []struct {
		level xlog.Level
		color string
	}{
		{xlog.LevelFatal, "\x1b[31m"},
		{xlog.LevelError, "\x1b[31m"},
		{xlog.LevelWarn, "\x1b[33m"},
		{xlog.LevelInfo, "\x1b[32m"},
		{xlog.LevelTrace, "\x1b[32m"},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			name := tt.level.String()
			pad := "      "[:6-len(name)]
			want := tt.color + name + pad + "\x1b[0mtest test " + name +
				"\n  -> \x1b[33mFILE\x1b[0m:\x1b[31m42\x1b[0m\n"
			assert.Equal(t, want, format(t, l, testEvent(tt.level)))
		})
	}
}

func TestColorLayout_UnknownLocation(t *testing.T) {
	l := NewColorLayout()
	l.SetPrintLocation(true)
	require.NoError(t, l.ActivateOptions())

	e := testEvent(xlog.LevelError)
	e.Location = xlog.Location{}
	assert.Equal(t, "ERROR test test ERROR\n  -> ?:?\n", format(t, l, e))
}

func TestColorLayout_DatePattern(t *testing.T) {
	tests := []struct {
		pattern string
		prefix  string
	}{
		{"NULL", ""},
		{"ISO8601", "2024-03-05 07:08:09,045 "},
		{"ABSOLUTE", "07:08:09,045 "},
		{"DATE", "05 Mar 2024 07:08:09,045 "},
		{"yyyyMMdd'T'HHmmss", "20240305T070809 "},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			l := NewColorLayout()
			require.NoError(t, l.SetOption("DatePattern", tt.pattern))
			require.NoError(t, l.ActivateOptions())
			assert.Equal(t, tt.prefix+"WARN  test test WARN\n", format(t, l, testEvent(xlog.LevelWarn)))
		})
	}
}

func TestColorLayout_PrintTime(t *testing.T) {
	l := NewColorLayout()
	require.NoError(t, l.SetOption("PrintTime", "true"))
	require.NoError(t, l.ActivateOptions())

	e := testEvent(xlog.LevelWarn)
	e.Time = xlog.StartTime().Add(1500 * time.Millisecond)
	assert.Equal(t, "1500 WARN  test test WARN\n", format(t, l, e))
}

func TestColorLayout_Activation(t *testing.T) {
	l := NewColorLayout()
	_, err := l.Format(nil, testEvent(xlog.LevelWarn))
	assert.ErrorIs(t, err, xlog.ErrNotActivated)
	assert.ErrorIs(t, err, xlog.ErrUsage)

	require.NoError(t, l.ActivateOptions())
	// 激活后修改选项不影响已生效的快照
	l.SetColor(true)
	assert.Equal(t, "WARN  test test WARN\n", format(t, l, testEvent(xlog.LevelWarn)))
	require.NoError(t, l.ActivateOptions())
	assert.Contains(t, format(t, l, testEvent(xlog.LevelWarn)), "\x1b[33m")

	l.SetDatePattern("yyyy-QQ")
	assert.ErrorIs(t, l.ActivateOptions(), xlog.ErrConfiguration)
	assert.Contains(t, format(t, l, testEvent(xlog.LevelWarn)), "\x1b[33m", "激活失败保留旧快照")
}

func TestColorLayout_BadOptions(t *testing.T) {
	l := NewColorLayout()
	assert.ErrorIs(t, l.SetOption("Color", "maybe"), xlog.ErrInvalidOption)
	assert.ErrorIs(t, l.SetOption("Font", "mono"), xlog.ErrUnknownOption)
}

// =============================================================================
// PatternLayout
// =============================================================================

func TestPatternLayout(t *testing.T) {
	e := testEvent(xlog.LevelInfo)
	e.Logger = "svc.db.pool"
	e.TraceID = "abc"

	tests := []struct {
		pattern string
		want    string
	}{
		{"%m%n", "test INFO\n"},
		{"%-5p %c %m%n", "INFO  svc.db.pool test INFO\n"},
		{"%5p|", " INFO|"},
		{"%c{1} %c{2} %c{0}", "pool db.pool svc.db.pool"},
		{"%.4c", "pool"},
		{"%-8.4c|", "pool    |"},
		{"%d{ISO8601} %m", "2024-03-05 07:08:09,045 test INFO"},
		{"%d %p", "2024-03-05 07:08:09,045 INFO"},
		{"%d{HH:mm:ss,SSS}", "07:08:09,045"},
		{"%d{NULL}%p", "INFO"},
		{"%F:%L %M", "FILE:42 main.run"},
		{"%l", "main.run(FILE:42)"},
		{"[%X{trace_id}][%X{span_id}]", "[abc][]"},
		{"%Y%-5p%y %m", "\x1b[32mINFO \x1b[0m test INFO"},
		{"100%% %p", "100% INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			l := NewPatternLayout(tt.pattern)
			require.NoError(t, l.ActivateOptions())
			assert.Equal(t, tt.want, format(t, l, e))
		})
	}
}

func TestPatternLayout_Invalid(t *testing.T) {
	for _, p := range []string{"%", "%q", "%c{x}", "%X{tenant}", "%d{", "%d{yyyy-QQ}", "%-5"} {
		t.Run(p, func(t *testing.T) {
			l := NewPatternLayout(p)
			assert.ErrorIs(t, l.ActivateOptions(), xlog.ErrConfiguration)
			assert.False(t, l.RequiresLocation())
		})
	}
}

func TestPatternLayout_WidthLimit(t *testing.T) {
	tests := []struct {
		pattern string
		wantErr bool
	}{
		{"%4096p", false},
		{"%.4096m", false},
		{"%4097p", true},
		{"%1000000000p", true},
		{"%.1000000000m", true},
		// 20 位数字在 int 上会溢出回绕
		{"%-99999999999999999999p", true},
		{"%5.18446744073709551617m", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			err := NewPatternLayout(tt.pattern).ActivateOptions()
			if tt.wantErr {
				assert.ErrorIs(t, err, xlog.ErrInvalidOption)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPatternLayout_Options(t *testing.T) {
	l := NewPatternLayout("")
	assert.Equal(t, DefaultConversionPattern, l.ConversionPattern())
	_, err := l.Format(nil, testEvent(xlog.LevelWarn))
	assert.ErrorIs(t, err, xlog.ErrNotActivated)

	require.NoError(t, l.SetOption("ConversionPattern", "%p %L%n"))
	assert.True(t, l.RequiresLocation())
	require.NoError(t, l.ActivateOptions())
	assert.True(t, l.RequiresLocation())
	assert.Equal(t, "WARN 42\n", format(t, l, testEvent(xlog.LevelWarn)))

	assert.ErrorIs(t, l.SetOption("Pattern", "x"), xlog.ErrUnknownOption)
}

func TestPatternLayout_AppendsToDst(t *testing.T) {
	l := NewPatternLayout("%5p")
	require.NoError(t, l.ActivateOptions())
	b, err := l.Format([]byte("prefix:"), testEvent(xlog.LevelWarn))
	require.NoError(t, err)
	assert.Equal(t, "prefix: WARN", string(b))
}

func TestSimpleLayout(t *testing.T) {
	var l SimpleLayout
	require.NoError(t, l.ActivateOptions())
	assert.Equal(t, "ERROR - test ERROR\n", format(t, l, testEvent(xlog.LevelError)))
	assert.ErrorIs(t, l.SetOption("x", "y"), xlog.ErrUnknownOption)
}

// =============================================================================
// DateFormat
// =============================================================================

func TestDateFormat(t *testing.T) {
	tm := time.Date(2024, time.December, 31, 15, 4, 5, 7*int(time.Millisecond), time.UTC)
	tests := []struct {
		pattern string
		want    string
	}{
		{"yyyy-MM-dd", "2024-12-31"},
		{"yy/M/d", "24/12/31"},
		{"MMMM MMM", "December Dec"},
		{"EEEE EEE", "Tuesday Tue"},
		{"hh:mm a", "03:04 PM"},
		{"H:m:s.SSS", "15:4:5.007"},
		{"'at' HH 'o''clock'", "at 15 o'clock"},
		{"''", "'"},
		{"Z", "+0000"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			df, err := NewDateFormat(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, df.Format(tm))
		})
	}
}

func TestDateFormat_Named(t *testing.T) {
	df, err := NewDateFormat("iso8601")
	require.NoError(t, err)
	assert.Equal(t, "yyyy-MM-dd HH:mm:ss,SSS", df.Pattern())

	df, err = NewDateFormat("")
	require.NoError(t, err)
	assert.True(t, df.IsNull())
	assert.Empty(t, df.Format(time.Now()))

	_, err = NewDateFormat("'open")
	assert.ErrorIs(t, err, xlog.ErrInvalidOption)
}
