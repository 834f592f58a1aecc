package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("DEBUG"))
	assert.Equal(t, Warn, ParseLevel(" warning "))
	assert.Equal(t, Info, ParseLevel(""))
	assert.Equal(t, Info, ParseLevel("verbose"))
	assert.Equal(t, "error", Error.String())
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("logfmt"))
}

func TestZapLogger_FieldsAndWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	child := l.With(map[string]any{"regimen_id": "r-1", "": "ignored"})
	child.Info("batch generated", map[string]any{
		"count": 2,
		"err":   errors.New("boom"),
	})

	entries := logs.All()
	require.Len(t, entries, 1)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "batch generated", entries[0].Message)
	assert.Equal(t, "r-1", ctx["regimen_id"])
	assert.EqualValues(t, 2, ctx["count"])
	assert.Equal(t, "boom", ctx["err"])
	_, hasEmpty := ctx[""]
	assert.False(t, hasEmpty)
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop()
	l.With(map[string]any{"a": 1}).Error("x", nil)
}
