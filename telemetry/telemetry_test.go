package telemetry

import (
	"bytes"
	"log"
	"testing"
)

func TestLoggerFuncForwardsAndToleratesNil(t *testing.T) {
	var buf bytes.Buffer
	base := log.New(&buf, "", 0)
	logger := LoggerFunc(base.Printf)
	logger.Printf("hello %s", "world")
	if got := buf.String(); got != "hello world\n" {
		t.Fatalf("unexpected log output: %q", got)
	}

	var nilLogger LoggerFunc
	nilLogger.Printf("ignored %d", 42)
}

func TestNopLoggerDiscards(t *testing.T) {
	var logger Logger = NopLogger{}
	logger.Printf("ignored %d", 1)
}

func TestMapMetricsAddAndStore(t *testing.T) {
	m := NewMapMetrics()
	m.Add("counter", 2)
	m.Add("counter", 3)
	m.Store("gauge", 7)
	m.Store("gauge", 9)

	if got := m.Counter("counter"); got != 5 {
		t.Fatalf("counter = %d, want 5", got)
	}
	if got := m.Gauge("gauge"); got != 9 {
		t.Fatalf("gauge = %d, want 9 (Store overwrites)", got)
	}
}

func TestMapMetricsToleratesNilReceiver(t *testing.T) {
	var m *MapMetrics
	m.Add("ignored", 1)
	m.Store("ignored", 1)
	if got := m.Counter("ignored"); got != 0 {
		t.Fatalf("Counter on nil receiver = %d, want 0", got)
	}
	if got := m.Gauge("ignored"); got != 0 {
		t.Fatalf("Gauge on nil receiver = %d, want 0", got)
	}
}
