package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologAdapterWithLevel_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewZerologAdapterWithLevel(&buf, "warn")
	if err != nil {
		t.Fatalf("NewZerologAdapterWithLevel() error = %v", err)
	}

	l.Info("hidden message")
	l.Warn("instance unreachable", Instance("tr-1"), Err(errors.New("dial tcp: refused")))

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	for _, want := range []string{"instance unreachable", "tr-1", "dial tcp: refused"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestZerologAdapterWithLevel_InvalidLevel(t *testing.T) {
	if _, err := NewZerologAdapterWithLevel(&bytes.Buffer{}, "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestZerologAdapter_FleetFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapterWithLogger(zerolog.New(&buf))

	l.Error("search index references unknown records",
		Instance("tr-1"), Op("session-stats"), ContentIDs([]int64{7, 9}))

	out := buf.String()
	for _, want := range []string{`"instance":"tr-1"`, `"op":"session-stats"`, `"content_ids":[7,9]`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}
