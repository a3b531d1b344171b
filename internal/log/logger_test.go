package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithComponentWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "test"})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("store")
	l.Info().Str("key", "flag").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["component"] != "store" || entry["service"] != "test" || entry["key"] != "flag" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if entry["message"] != "hello" {
		t.Fatalf("expected message hello, got %v", entry["message"])
	}
}

func TestConfigureRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "error", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := Base()
	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info entry to be filtered, got %q", buf.String())
	}
}

func TestSetBaseFeedsWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetBase(zerolog.New(&buf))
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("binding")
	l.Warn().Msg("installed")
	if !bytes.Contains(buf.Bytes(), []byte(`"component":"binding"`)) {
		t.Fatalf("expected entry on installed logger, got %q", buf.String())
	}
}
