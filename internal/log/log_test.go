package log

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))

	Infow("sun state refreshed", "is_day", true)
	Debugf("hidden %d", 1)
	Warnf("retrying in %s", "1s")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "sun state refreshed" {
		t.Errorf("message = %q", entries[0].Message)
	}
	if got := entries[0].ContextMap()["is_day"]; got != true {
		t.Errorf("is_day = %v", got)
	}
	if entries[1].Level != zapcore.WarnLevel || entries[1].Message != "retrying in 1s" {
		t.Errorf("entry = %v %q", entries[1].Level, entries[1].Message)
	}
}

func TestInit(t *testing.T) {
	if err := Init(true); err != nil {
		t.Fatalf("Init(true) error = %v", err)
	}
	if err := Init(false); err != nil {
		t.Fatalf("Init(false) error = %v", err)
	}
	SetLogger(zap.NewNop())
}
