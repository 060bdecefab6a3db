package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/frontdesk/internal/config"
	"github.com/five82/frontdesk/internal/logtail"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpenWiresRuntime(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cacheDir := t.TempDir()
	cfgPath := writeConfig(t, "server = \"desk.example.com\"\ncache_backend = \"file\"\ncache_dir = \""+cacheDir+"\"\n")

	var logs bytes.Buffer
	rt, err := Open(Options{ConfigPath: cfgPath, LogWriter: &logs})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer rt.Close()

	if rt.Engine == nil || rt.Client == nil || rt.Cache == nil {
		t.Fatalf("runtime not wired: %#v", rt)
	}
	if rt.TabID == "" {
		t.Fatalf("expected a tab id")
	}
	if got := rt.Client.BaseURL(); got != "http://desk.example.com:8000" {
		t.Fatalf("BaseURL = %q", got)
	}
	if !strings.Contains(logs.String(), "frontdesk ready") {
		t.Fatalf("missing startup log: %s", logs.String())
	}
}

func TestOpenKeepsTabIDAcrossRuns(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cacheDir := t.TempDir()
	cfgPath := writeConfig(t, "cache_dir = \""+cacheDir+"\"\n")

	first, err := Open(Options{ConfigPath: cfgPath, LogWriter: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	id := first.TabID
	if err := first.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	second, err := Open(Options{ConfigPath: cfgPath, LogWriter: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer second.Close()
	if second.TabID != id {
		t.Fatalf("TabID = %q, want %q", second.TabID, id)
	}
}

func TestOpenOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfgPath := writeConfig(t, "server = \"ignored.example.com\"\n")

	rt, err := Open(Options{
		ConfigPath: cfgPath,
		Server:     "https://override.example.com",
		LogLevel:   "debug",
		LogWriter:  &bytes.Buffer{},
		NoCache:    true,
	})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer rt.Close()

	if rt.Config.Server != "https://override.example.com" {
		t.Fatalf("Server = %q", rt.Config.Server)
	}
	if rt.Cache != nil {
		t.Fatalf("expected no cache with NoCache")
	}
	if rt.Logger.GetLevel().String() != "debug" {
		t.Fatalf("level = %s, want debug", rt.Logger.GetLevel())
	}
}

func TestOpenRejectsBadLevel(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Open(Options{ConfigPath: writeConfig(t, ""), LogLevel: "loud", LogWriter: &bytes.Buffer{}})
	if err == nil {
		t.Fatalf("expected error for unknown log level")
	}
}

func TestOpenReportsConfigErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Open(Options{ConfigPath: writeConfig(t, "queue_timeout = \"soon\"\n"), LogWriter: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("err = %v, want load config error", err)
	}
}

func TestNewLoggerWritesParseableFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogPath = filepath.Join(t.TempDir(), "nested", "frontdesk.log")
	cfg.LogLevel = "warn"

	logger, closer, err := NewLogger(cfg, nil)
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	logger.Info().Str("component", "realtime").Msg("hidden")
	logger.Warn().Str("component", "realtime").Err(errors.New("boom")).Msg("socket dropped")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	entries, err := logtail.ReadEntries(cfg.LogPath, 0)
	if err != nil {
		t.Fatalf("ReadEntries returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Component != "realtime" || e.Message != "socket dropped" || e.Error != "boom" {
		t.Fatalf("entry = %#v", e)
	}
	if e.Time.IsZero() {
		t.Fatalf("expected a timestamp")
	}
}

type fakeEngine struct {
	err   error
	panic bool
}

func (f fakeEngine) Run(ctx context.Context) error {
	if f.panic {
		panic("scheduler blew up")
	}
	<-ctx.Done()
	return f.err
}

func TestStartEngineWaitsForShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := StartEngine(ctx, fakeEngine{}, zerolog.Nop())

	select {
	case <-r.Done():
		t.Fatalf("engine returned before cancel")
	case <-time.After(20 * time.Millisecond):
	}
	cancel()
	if err := r.Wait(); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
}

func TestStartEngineReportsErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	want := errors.New("socket gone")
	r := StartEngine(ctx, fakeEngine{err: want}, zerolog.Nop())
	cancel()
	if err := r.Wait(); !errors.Is(err, want) {
		t.Fatalf("Wait = %v, want %v", err, want)
	}
}

func TestStartEngineRecoversPanic(t *testing.T) {
	r := StartEngine(context.Background(), fakeEngine{panic: true}, zerolog.Nop())
	err := r.Wait()
	if err == nil || !strings.Contains(err.Error(), "scheduler blew up") {
		t.Fatalf("Wait = %v, want panic error", err)
	}
}
