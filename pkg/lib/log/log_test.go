package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseLevel 测试级别解析
func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, lvl)

	lvl, err = ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

// TestLazyLogger_FollowsDefault 测试组件 logger 跟随默认 logger
func TestLazyLogger_FollowsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	l := Logger("agent/test")
	assert.Equal(t, "agent/test", l.Component())

	var buf bytes.Buffer
	Setup(&buf, LevelDebug, FormatJSON)

	l.Debug("决策完成", "nextHop", 3)
	out := buf.String()
	assert.Contains(t, out, `"component":"agent/test"`)
	assert.Contains(t, out, `"nextHop":3`)
	assert.True(t, l.Enabled(LevelDebug))

	buf.Reset()
	Setup(&buf, LevelWarn, FormatText)
	l.Info("不应输出")
	assert.Empty(t, buf.String())
	assert.False(t, l.Enabled(LevelDebug))
}

// TestShortID 测试 ID 截取
func TestShortID(t *testing.T) {
	assert.Equal(t, "abcd", ShortID("abcdef", 4))
	assert.Equal(t, "ab", ShortID("ab", 4))
	assert.Equal(t, "abc", ShortID("abc", -1))
}
