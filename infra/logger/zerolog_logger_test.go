package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZerologLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLoggerTo(&buf, "routing-engine")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"zip": "90210"})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")

	out := buf.String()
	assert.Contains(t, out, `"component":"routing-engine"`)
	assert.Contains(t, out, "warn")
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Infof("ignored %d", 1)
	l.Debugw("ignored", nil)
}
