package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestHelpersWriteLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "debug")
	defer SetOutput(&bytes.Buffer{}, "info")

	Info().Msg("connecting")
	Warn().Msg("interrupted")
	Error().Msg("failed")
	Benchmark("churn session")()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := [][2]string{
		{`"level":"info"`, `"message":"connecting"`},
		{`"level":"warn"`, `"message":"interrupted"`},
		{`"level":"error"`, `"message":"failed"`},
		{`"level":"debug"`, `"operation":"churn session"`},
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i, w := range want {
		if !strings.Contains(lines[i], w[0]) || !strings.Contains(lines[i], w[1]) {
			t.Errorf("line %d = %s, want %s and %s", i, lines[i], w[0], w[1])
		}
	}
}

func TestBenchmarkHiddenAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "info")
	defer SetOutput(&bytes.Buffer{}, "info")

	Benchmark("quiet")()
	if buf.Len() != 0 {
		t.Errorf("benchmark logged at info level: %s", buf.String())
	}
}

func TestWithSession(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "info")
	defer SetOutput(&bytes.Buffer{}, "info")

	WithSession("abcd1234")
	Churn.Info().Msg("round")

	out := buf.String()
	if !strings.Contains(out, `"session":"abcd1234"`) || !strings.Contains(out, `"component":"churn"`) {
		t.Errorf("output = %s", out)
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{"debug", "info", "warn", "error"} {
		if !ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = false", l)
		}
	}
	if ValidLevel("trace") {
		t.Error("ValidLevel(trace) = true")
	}
}
