package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	return &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]any
		require.NoError(t, dec.Decode(&entry))
		out = append(out, entry)
	}
	return out
}

func TestComponent_CarriesViewerContext(t *testing.T) {
	buf := captureGlobal(t)

	ctx := WithViewerID(context.Background(), "viewer-7")
	ctx = WithTranscript(ctx, "/chats/sera.jsonl")
	ctx = WithMessageID(ctx, 3)

	logger := Component("swipe")
	logger.Info().Ctx(ctx).Msg("opened")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "swipe", entry["cmp"])
	assert.Equal(t, "opened", entry["message"])
	assert.Equal(t, "viewer-7", entry["viewer_id"])
	assert.Equal(t, "/chats/sera.jsonl", entry["transcript"])
	assert.InDelta(t, 3, entry["message_id"], 0)
}

func TestComponent_WithoutContextFields(t *testing.T) {
	buf := captureGlobal(t)

	logger := Component("watcher")
	logger.Warn().Msg("no ctx")
	logger.Debug().Ctx(WithViewerID(context.Background(), "")).Msg("empty viewer")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)

	for _, entry := range entries {
		assert.Equal(t, "watcher", entry["cmp"])
		assert.NotContains(t, entry, "viewer_id")
		assert.NotContains(t, entry, "transcript")
		assert.NotContains(t, entry, "message_id")
	}
}

func TestComponent_SeparateComponentsShareGlobalSink(t *testing.T) {
	buf := captureGlobal(t)

	ctx := WithViewerID(context.Background(), "v2")
	controller := Component("controller")
	controller.Info().Ctx(ctx).Msg("a")
	reconciler := Component("reconciler")
	reconciler.Info().Ctx(ctx).Msg("b")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "controller", entries[0]["cmp"])
	assert.Equal(t, "reconciler", entries[1]["cmp"])
	assert.Equal(t, "v2", entries[0]["viewer_id"])
	assert.Equal(t, "v2", entries[1]["viewer_id"])
}
