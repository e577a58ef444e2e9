package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func restoreGlobalLogger(t *testing.T) {
	t.Helper()
	prev := log.Logger
	prevCtx := zerolog.DefaultContextLogger
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.DefaultContextLogger = prevCtx
	})
}

func TestInitWritesJSON(t *testing.T) {
	restoreGlobalLogger(t)

	var buf bytes.Buffer
	Init(Config{Writer: &buf})

	log.Info().Str("domain", "sales").Msg("routed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, output %q", err, buf.String())
	}
	if line["domain"] != "sales" || line["message"] != "routed" {
		t.Fatalf("unexpected log line: %v", line)
	}
	if _, ok := line["caller"]; ok {
		t.Fatal("caller must be off unless configured")
	}
}

func TestInitLevel(t *testing.T) {
	restoreGlobalLogger(t)

	var buf bytes.Buffer
	Init(Config{Writer: &buf, Level: "warn"})
	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level, got %q", buf.String())
	}

	Init(Config{Writer: &buf, Level: "warn", Debug: true})
	log.Debug().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("debug flag must win over level")
	}
}

func TestInitSetsContextLogger(t *testing.T) {
	restoreGlobalLogger(t)

	var buf bytes.Buffer
	Init(Config{Writer: &buf})

	zerolog.Ctx(context.Background()).Info().Msg("from context")
	if buf.Len() == 0 {
		t.Fatal("zerolog.Ctx on a bare context must use the global logger")
	}
}
