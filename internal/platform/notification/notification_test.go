package notification

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLogPusher_LogsAndSucceeds(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPusher(zerolog.New(&buf))

	err := p.Push(context.Background(), "device-key-1", "Missed dose", "Aspirin 08:00 was missed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "device-key-1") || !strings.Contains(out, "Missed dose") {
		t.Errorf("log output missing fields: %s", out)
	}
}

func TestNewPushoverPusher(t *testing.T) {
	if NewPushoverPusher("app-token") == nil {
		t.Fatal("expected pusher")
	}
}
