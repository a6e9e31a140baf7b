package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestWarnCarriesTraceIDAndError(t *testing.T) {
	buf := captureLog(t)
	ctx := WithTraceID(context.Background(), "trace-123")

	Warn(ctx, "notification dispatch failed", errors.New("broker down"))

	var entry Entry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "trace-123", entry.TraceID)
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "broker down", entry.Error)
	assert.NotEmpty(t, entry.Timestamp)
}

func TestTraceIDMissing(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}
