package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/meza/entwine/internal/lifecycle"
	"github.com/meza/entwine/internal/perf"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithDeps_RecordsLifecycleRegions(t *testing.T) {
	perf.Reset()
	t.Cleanup(perf.Reset)
	t.Setenv("ENTWINE_GAME_DIR", "")

	fs := afero.NewMemMapFs()
	var calls []string
	deps := runDeps{
		execute: func(context.Context) error {
			calls = append(calls, "execute")
			return nil
		},
		telemetryInit: func() {
			calls = append(calls, "telemetryInit")
		},
		telemetryShutdown: func(context.Context) {
			calls = append(calls, "telemetryShutdown")
		},
		register: func(handler lifecycle.Handler) lifecycle.HandlerID {
			assert.NotNil(t, handler)
			calls = append(calls, "register")
			return 42
		},
		unregister: func(id lifecycle.HandlerID) {
			calls = append(calls, "unregister")
			assert.Equal(t, lifecycle.HandlerID(42), id)
		},
		args: []string{"--perf"},
		cwd:  filepath.FromSlash("/workdir"),
		fs:   fs,
	}

	exitCode := runWithDeps(deps)
	assert.Equal(t, 0, exitCode)
	assert.Equal(t, []string{"telemetryInit", "register", "execute", "telemetryShutdown", "unregister"}, calls)

	spans, err := perf.GetSpans()
	assert.NoError(t, err)
	assertSpanExists(t, spans, perfLifecycleStartup)
	assertSpanExists(t, spans, perfLifecycleExecute)
	assertSpanExists(t, spans, perfLifecycleShutdown)

	expectedDir, err := filepath.Abs(filepath.FromSlash("/workdir"))
	require.NoError(t, err)
	exported, err := afero.Exists(fs, filepath.Join(expectedDir, "entwine-perf.json"))
	require.NoError(t, err)
	assert.True(t, exported)
}

func TestRunWithDeps_SignalShutdownIsRecordedOnce(t *testing.T) {
	perf.Reset()
	t.Cleanup(perf.Reset)

	var calls []string
	var registeredHandler lifecycle.Handler

	deps := runDeps{
		execute: func(context.Context) error {
			calls = append(calls, "execute-start")
			assert.NotNil(t, registeredHandler)
			registeredHandler(os.Interrupt)
			calls = append(calls, "execute-end")
			return nil
		},
		telemetryInit: func() {
			calls = append(calls, "telemetryInit")
		},
		telemetryShutdown: func(context.Context) {
			calls = append(calls, "telemetryShutdown")
		},
		register: func(handler lifecycle.Handler) lifecycle.HandlerID {
			calls = append(calls, "register")
			registeredHandler = handler
			return 7
		},
		unregister: func(id lifecycle.HandlerID) {
			calls = append(calls, "unregister")
			assert.Equal(t, lifecycle.HandlerID(7), id)
		},
		args: []string{"--perf"},
		fs:   afero.NewMemMapFs(),
	}

	exitCode := runWithDeps(deps)
	assert.Equal(t, 0, exitCode)

	var shutdownCalls int
	for _, call := range calls {
		if call == "telemetryShutdown" {
			shutdownCalls++
		}
	}
	assert.Equal(t, 1, shutdownCalls)

	spans, err := perf.GetSpans()
	assert.NoError(t, err)
	assertSpanExists(t, spans, perfLifecycleStartup)
	assertSpanExists(t, spans, perfLifecycleExecute)
	assertSpanExists(t, spans, perfLifecycleShutdown)

	shutdownSpan, ok := perf.FindSpanByName(spans, perfLifecycleShutdown)
	assert.True(t, ok)
	assert.Equal(t, string(shutdownTriggerSignal), shutdownSpan.Attributes["trigger"])
	assert.Equal(t, os.Interrupt.String(), shutdownSpan.Attributes["signal"])
}

func TestRunWithDeps_FailedCommandExitsWithOne(t *testing.T) {
	perf.Reset()
	t.Cleanup(perf.Reset)

	var stderr bytes.Buffer
	exitCode := runWithDeps(runDeps{
		execute:           func(context.Context) error { return errors.New("boom") },
		telemetryInit:     func() {},
		telemetryShutdown: func(context.Context) {},
		register:          func(lifecycle.Handler) lifecycle.HandlerID { return 1 },
		unregister:        func(lifecycle.HandlerID) {},
		stderr:            &stderr,
	})
	assert.Equal(t, 1, exitCode)
	assert.False(t, perf.Enabled())
	assert.Empty(t, stderr.String())
}

func TestPerfExportConfigFromArgs_DefaultsToWorkingDirectory(t *testing.T) {
	t.Setenv("ENTWINE_GAME_DIR", "")
	cwd := filepath.FromSlash("/workdir")
	cfg := perfExportConfigFromArgs([]string{"status", "--perf"}, cwd)
	assert.True(t, cfg.enabled)

	expected, err := filepath.Abs(cwd)
	assert.NoError(t, err)
	assert.Equal(t, expected, cfg.baseDir)
	assert.Equal(t, expected, cfg.outDir)
}

func TestPerfExportConfigFromArgs_UsesGameDir(t *testing.T) {
	t.Setenv("ENTWINE_GAME_DIR", "")
	cwd := filepath.FromSlash("/workdir")
	cfg := perfExportConfigFromArgs([]string{"--perf", "--game-dir", "games/SpiderHeck", "--perf-out-dir=perf"}, cwd)

	expectedDir, err := filepath.Abs(filepath.Join(cwd, filepath.FromSlash("games/SpiderHeck")))
	assert.NoError(t, err)
	assert.Equal(t, expectedDir, cfg.baseDir)
	assert.Equal(t, filepath.Join(expectedDir, "perf"), cfg.outDir)
}

func TestPerfExportConfigFromArgs_ReadsGameDirFromEnvironment(t *testing.T) {
	gameDir := filepath.FromSlash("/games/SpiderHeck")
	t.Setenv("ENTWINE_GAME_DIR", gameDir)

	cfg := perfExportConfigFromArgs([]string{"--perf"}, filepath.FromSlash("/workdir"))
	expected, err := filepath.Abs(gameDir)
	assert.NoError(t, err)
	assert.Equal(t, expected, cfg.baseDir)

	cfg = perfExportConfigFromArgs([]string{"-g", filepath.FromSlash("/other")}, filepath.FromSlash("/workdir"))
	assert.False(t, cfg.enabled)
	expected, err = filepath.Abs(filepath.FromSlash("/other"))
	assert.NoError(t, err)
	assert.Equal(t, expected, cfg.baseDir)
}

func TestPerfExportConfigFromArgs_CapturesDebugFlag(t *testing.T) {
	cfg := perfExportConfigFromArgs([]string{"--perf", "--debug"}, "/workdir")
	assert.True(t, cfg.debug)

	cfg = perfExportConfigFromArgs([]string{"--", "--perf"}, "/workdir")
	assert.False(t, cfg.enabled)
}

func assertSpanExists(t *testing.T, spans []perf.SpanSnapshot, name string) {
	t.Helper()
	_, ok := perf.FindSpanByName(spans, name)
	assert.True(t, ok, "expected span %q to exist", name)
}
