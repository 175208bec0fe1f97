package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/scout-bot/config"
	"github.com/aluiziolira/scout-bot/notify"
	"github.com/aluiziolira/scout-bot/runcounter"
	"github.com/aluiziolira/scout-bot/vhsberlin"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRootCommandRejectsBadInvocations(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown subcommand", args: []string{"nowhere"}, wantErr: "unknown command"},
		{name: "no subcommand", args: nil, wantErr: "subcommand is required"},
		{name: "extra argument", args: []string{vhsberlin.Name, "extra"}, wantErr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCommand()
			cmd.SetArgs(tt.args)
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			err := cmd.ExecuteContext(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRootCommandListsScouts(t *testing.T) {
	cmd := newRootCommand()
	found, _, err := cmd.Find([]string{vhsberlin.Name})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Name() != vhsberlin.Name {
		t.Fatalf("found %q, want %q", found.Name(), vhsberlin.Name)
	}
}

func TestBuildNotifier(t *testing.T) {
	cfg := config.DefaultConfig()
	sink, ok := buildNotifier(cfg, vhsberlin.Name, discardLogger()).(notify.Multi)
	if !ok || len(sink) != 1 {
		t.Fatalf("expected log sink only, got %#v", sink)
	}

	cfg.TelegramToken, cfg.TelegramChatID = "tok", "1"
	cfg.SMTPHost, cfg.SMTPFrom, cfg.SMTPTo = "smtp.example.org", "a@example.org", []string{"b@example.org"}
	sink = buildNotifier(cfg, vhsberlin.Name, discardLogger()).(notify.Multi)
	if len(sink) != 3 {
		t.Fatalf("sinks=%d, want 3", len(sink))
	}
}

func TestBuildRunCounter(t *testing.T) {
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.RunCounterFile = filepath.Join(dir, "run_number.txt")
	store, closeStore, err := buildRunCounter(context.Background(), cfg, vhsberlin.Name, discardLogger())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	closeStore()
	if _, ok := store.(*runcounter.File); !ok {
		t.Fatalf("store=%T, want *runcounter.File", store)
	}

	cfg.RunCounterSQLite = filepath.Join(dir, "scout.db")
	store, closeStore, err = buildRunCounter(context.Background(), cfg, vhsberlin.Name, discardLogger())
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	defer closeStore()
	if _, ok := store.(*runcounter.SQLite); !ok {
		t.Fatalf("store=%T, want *runcounter.SQLite", store)
	}
}
