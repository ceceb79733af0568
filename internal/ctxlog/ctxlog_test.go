package ctxlog

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, log.Default(), FromContext(context.Background()))
}

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, log.DebugLevel)
	ctx := WithLogger(context.Background(), l)

	FromContext(ctx).Debug("expanded", "nodes", 3)
	assert.Same(t, l, FromContext(ctx))
	assert.Contains(t, buf.String(), "nodes=3")
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, log.InfoLevel)
	l.Debug("hidden")
	assert.Empty(t, buf.String())
}
