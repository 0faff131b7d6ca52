package xlog

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"ALL", LevelAll, false},
		{"TRACE", LevelTrace, false},
		{"DEBUG", LevelDebug, false},
		{" INFO ", LevelInfo, false},
		{"WARN", LevelWarn, false},
		{"ERROR", LevelError, false},
		{"FATAL", LevelFatal, false},
		{"OFF", LevelOff, false},
		// 大小写敏感
		{"info", 0, true},
		{"Warn", 0, true},
		{"WARNING", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownLevel))
				assert.True(t, errors.Is(err, ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_Order(t *testing.T) {
	levels := []Level{LevelAll, LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal, LevelOff}
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i-1], levels[i], "%s < %s", levels[i-1], levels[i])
	}
	assert.Equal(t, LevelWarn, DefaultRootLevel)
}

func TestLevel_StringRoundTrip(t *testing.T) {
	for _, l := range append(Levels(), LevelAll, LevelOff) {
		b, err := l.MarshalText()
		require.NoError(t, err)
		var got Level
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, l, got)
	}
	assert.Equal(t, "LEVEL(42)", Level(42).String())
}

func TestLevel_UnmarshalTextError(t *testing.T) {
	l := LevelInfo
	require.Error(t, l.UnmarshalText([]byte("verbose")))
	assert.Equal(t, LevelInfo, l, "失败时不修改原值")
}

func TestLevels(t *testing.T) {
	assert.Equal(t, []Level{LevelFatal, LevelError, LevelWarn, LevelInfo, LevelDebug, LevelTrace}, Levels())
}

func TestLevel_Slog(t *testing.T) {
	tests := []struct {
		level Level
		slog  slog.Level
	}{
		{LevelTrace, slog.LevelDebug - 4},
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LevelFatal, slog.LevelError + 4},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.slog, tt.level.Slog())
			assert.Equal(t, tt.level, LevelFromSlog(tt.slog))
		})
	}
	assert.Less(t, LevelAll.Slog(), LevelTrace.Slog())
	assert.Greater(t, LevelOff.Slog(), LevelFatal.Slog())
}
