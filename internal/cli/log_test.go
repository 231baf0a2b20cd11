package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("cascade", "node", "r") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("step") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("step") }, true},
		{"warn at info level", log.InfoLevel, func(l *log.Logger) { l.Warn("dangling") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestLoggerKeyValues(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("box", "node", "r", "width", 880)
	if out := buf.String(); !strings.Contains(out, "node=r") || !strings.Contains(out, "width=880") {
		t.Errorf("output = %q", out)
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Laid out 3 cards")

	out := buf.String()
	if !strings.Contains(out, "Laid out 3 cards (") {
		t.Errorf("progress output = %q", out)
	}
}
