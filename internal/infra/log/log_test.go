package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shoenig/test"
)

func TestNewLevel(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		debug     bool
		wantDebug bool
	}{
		"info":  {debug: false, wantDebug: false},
		"debug": {debug: true, wantDebug: true},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			logger := New(&out, tc.debug)
			logger.Debug().Str("path", "/a").Msg("raw event")
			logger.Info().Str("path", "/b").Msg("path settled")

			got := out.String()
			test.True(t, strings.Contains(got, "path settled"))
			test.EqOp(t, tc.wantDebug, strings.Contains(got, "raw event"))
			test.False(t, strings.Contains(got, "\x1b["))
		})
	}
}

func TestFormatLevel(t *testing.T) {
	t.Parallel()

	got := formatLevel(zerolog.LevelWarnValue)
	test.StrContains(t, got, " WARN ")
	test.StrContains(t, formatTimestamp("not a time"), "not a time")
}
