package app

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestEnsureDaemonAvailable(t *testing.T) {
	if err := ensureDaemonAvailable(context.Background(), fakePinger{}, "127.0.0.1:9067"); err != nil {
		t.Fatalf("ensureDaemonAvailable returned error: %v", err)
	}

	cause := errors.New("connection refused")
	err := ensureDaemonAvailable(context.Background(), fakePinger{err: cause}, "127.0.0.1:9067")
	if !errors.Is(err, cause) {
		t.Fatalf("error = %v, want wrapped cause", err)
	}
	if !strings.Contains(err.Error(), "127.0.0.1:9067") {
		t.Fatalf("error = %q, want the API address", err.Error())
	}
}

func TestSetupLogging_HeadlessWritesToErrOut(t *testing.T) {
	prevOut, prevPrefix := log.Writer(), log.Prefix()
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetPrefix(prevPrefix)
	})

	var buf bytes.Buffer
	closeLog, err := setupLogging("unused", true, &buf)
	if err != nil {
		t.Fatalf("setupLogging returned error: %v", err)
	}
	defer closeLog()

	log.Printf("hello")
	if !strings.Contains(buf.String(), "walletlink hello") {
		t.Fatalf("log output = %q, want prefixed line", buf.String())
	}
}

func TestSetupLogging_TUIWritesToFile(t *testing.T) {
	prevOut, prevPrefix := log.Writer(), log.Prefix()
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetPrefix(prevPrefix)
	})

	path := filepath.Join(t.TempDir(), "nested", "walletlink.log")
	closeLog, err := setupLogging(path, false, nil)
	if err != nil {
		t.Fatalf("setupLogging returned error: %v", err)
	}
	log.Printf("to file")
	closeLog()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), "to file") {
		t.Fatalf("log file = %q, want logged line", raw)
	}
}

func TestRun_FailsWhenDaemonUnreachable(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configPath := filepath.Join(home, "config.toml")
	if err := os.WriteFile(configPath, []byte("api_bind = \"127.0.0.1:1\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var errOut bytes.Buffer
	prevOut, prevPrefix := log.Writer(), log.Prefix()
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetPrefix(prevPrefix)
	})

	err := Run(context.Background(), Options{
		ConfigPath:   configPath,
		SettingsPath: filepath.Join(home, "settings.toml"),
		Headless:     true,
		ErrOut:       &errOut,
	})
	if err == nil || !strings.Contains(err.Error(), "not reachable") {
		t.Fatalf("Run error = %v, want daemon not reachable", err)
	}
}

func TestRun_InvalidConfigFails(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("status_every = \"never\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	err := Run(context.Background(), Options{ConfigPath: configPath, Headless: true})
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("Run error = %v, want load config error", err)
	}
}
