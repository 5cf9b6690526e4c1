package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/campaign-trail/internal/config"
)

func TestNewRequestID(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewRequestID()
		if len(id) != 8 {
			t.Fatalf("expected 8 chars, got %q", id)
		}
		seen[id] = true
	}
	if len(seen) < 95 {
		t.Errorf("expected mostly unique IDs, got %d distinct", len(seen))
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("expected empty ID, got %q", got)
	}
	ctx = WithRequestID(ctx, "abc12345")
	if got := RequestIDFromContext(ctx); got != "abc12345" {
		t.Errorf("expected abc12345, got %q", got)
	}
}

func TestForGameAddsField(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	l := ForGame("g-1")
	l.Info().Msg("hello")
	if !strings.Contains(buf.String(), `"gameId":"g-1"`) {
		t.Errorf("expected gameId field, got %s", buf.String())
	}
}

func TestLogBodyTruncates(t *testing.T) {
	var buf bytes.Buffer
	prevLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prevLevel) })

	l := zerolog.New(&buf)
	LogBody(l, "request_body", bytes.Repeat([]byte("x"), 2*maxBodyLog))
	out := buf.String()
	if !strings.Contains(out, `"truncated":true`) {
		t.Errorf("expected truncated flag, got %s", out)
	}
	if strings.Count(out, "x") != maxBodyLog {
		t.Errorf("expected %d logged bytes", maxBodyLog)
	}

	buf.Reset()
	LogBody(l, "request_body", nil)
	if buf.Len() != 0 {
		t.Errorf("expected nothing logged for empty body, got %s", buf.String())
	}
}

func TestInitWritesLogFile(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "server.log")
	closer, err := Init(config.LogConfig{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %s", zerolog.GlobalLevel())
	}
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Logger initialized") {
		t.Errorf("expected init message in log file, got %s", data)
	}
}
