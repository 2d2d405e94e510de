package dataset

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfof_NoDoubleFormattingWithPercent(t *testing.T) {
	// Swap the backing logger to capture output
	core, logs := observer.New(logLevel)
	saved := sugar
	sugar = zap.New(core).Sugar()
	defer func() { sugar = saved }()

	SetLogLevel("info")

	msg := "loaded sweep.csv: 70000 rows, 12345/70000 filtered (17.6%) in 210ms"
	Infof(msg)

	all := logs.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(all))
	}
	out := all[0].Message
	if !strings.Contains(out, "(17.6%)") {
		t.Fatalf("log output missing expected percent segment: %s", out)
	}
	if strings.Contains(out, "%!") {
		t.Fatalf("log output shows fmt artifact: %s", out)
	}
}

func TestSetLogLevelGatesDebug(t *testing.T) {
	core, logs := observer.New(logLevel)
	saved := sugar
	sugar = zap.New(core).Sugar()
	defer func() {
		sugar = saved
		SetLogLevel("info")
	}()

	SetLogLevel("info")
	if DebugEnabled() {
		t.Fatalf("debug enabled at info level")
	}
	Debugf("hidden %d", 1)
	if logs.Len() != 0 {
		t.Fatalf("debug entry leaked at info level")
	}

	SetLogLevel("debug")
	if !DebugEnabled() {
		t.Fatalf("debug not enabled after SetLogLevel(debug)")
	}
	Debugf("visible %d", 2)
	if logs.Len() != 1 {
		t.Fatalf("expected 1 debug entry, got %d", logs.Len())
	}

	// Unknown names leave the level untouched
	SetLogLevel("chatty")
	if !DebugEnabled() {
		t.Fatalf("unknown level name changed the level")
	}
}
