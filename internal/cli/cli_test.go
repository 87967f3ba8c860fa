package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shoenig/test"
	"github.com/shoenig/test/must"

	"github.com/rprtr258/syncwatch/internal/core"
)

func execute(tb testing.TB, args ...string) (string, error) {
	tb.Helper()

	var out bytes.Buffer
	app := newApp()
	app.SetOut(&out)
	app.SetArgs(args)
	err := app.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	test.NoError(t, err)
	test.EqOp(t, core.Version+"\n", out)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	settingsFile := filepath.Join(t.TempDir(), "settings.json")
	must.NoError(t, os.WriteFile(settingsFile, []byte(`{"autoExport": true, "settingsPath": "/sync"}`), 0o644))

	out, err := execute(t, "status", "--settings", settingsFile)
	test.NoError(t, err)
	test.EqOp(t, "settings: "+settingsFile+"\nsynchronization enabled: true\nsettings root: /sync\n", out)

	_, err = execute(t, "status", "--settings", filepath.Join(t.TempDir(), "missing.json"))
	test.Error(t, err)
}

// not parallel: watch command replaces global logger
func TestWatchMissingPath(t *testing.T) {
	_, err := execute(t, "watch", "--settings", filepath.Join(t.TempDir(), "settings.json"), filepath.Join(t.TempDir(), "nope"))
	must.Error(t, err)
	test.StrContains(t, err.Error(), "no such file or directory")
}

func TestNewWatchSet(t *testing.T) {
	t.Parallel()

	for _, backend := range []core.Backend{core.BackendFSNotify, core.BackendPoll} {
		config := core.DefaultConfig
		config.Backend = backend
		set, err := newWatchSet(config)
		must.NoError(t, err)
		test.NoError(t, set.UnregisterAll())
	}

	config := core.DefaultConfig
	config.Backend = "inotify"
	_, err := newWatchSet(config)
	test.Error(t, err)
}

func TestExporter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	must.NoError(t, os.WriteFile(envFile, []byte("REMOTE=gist\n"), 0o644))
	outFile := filepath.Join(dir, "out")

	exp, err := newExporter(`printf '%s %s' "$SYNCWATCH_PATH" "$REMOTE" > `+outFile, envFile)
	must.NoError(t, err)

	exp.callback(context.Background(), "/sync/settings.json")()

	got, err := os.ReadFile(outFile)
	must.NoError(t, err)
	test.EqOp(t, "/sync/settings.json gist", string(got))

	_, err = newExporter("true", filepath.Join(dir, "missing.env"))
	test.Error(t, err)

	_, err = newExporter("if then", "")
	test.Error(t, err)

	exp, err = newExporter("", "")
	must.NoError(t, err)
	exp.callback(context.Background(), "/sync/settings.json")()
}

func TestExporterInterruptedOnCancel(t *testing.T) {
	t.Parallel()

	exp, err := newExporter("sleep 10", "")
	must.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	exp.callback(ctx, "/sync/settings.json")()
	test.Less(t, 5*time.Second, time.Since(start))
}
