package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"DEBUG":    zerolog.DebugLevel,
		" warn ":   zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"fatal":    zerolog.FatalLevel,
		"disabled": zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
		"verbose":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComponentCarriesServiceAndComponent(t *testing.T) {
	Reset()
	t.Cleanup(func() {
		Reset()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	var buf bytes.Buffer
	Init(Options{Level: "info", Output: &buf, Service: "service-desk"})
	log := Component("access")
	log.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["service"] != "service-desk" {
		t.Errorf("service = %v", entry["service"])
	}
	if entry["component"] != "access" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["message"] != "hello" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestGetPanicsBeforeInit(t *testing.T) {
	Reset()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	_ = Get()
}

func TestNewHonoursLevelWithoutInit(t *testing.T) {
	Reset()
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Output: &buf})

	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	if bytes.Contains(buf.Bytes(), []byte("dropped")) {
		t.Errorf("info line written at warn level: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Errorf("warn line missing: %s", buf.String())
	}
}
