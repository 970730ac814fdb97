package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestWSLogger_WritesStructuredEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewWSLogger("notifications", slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := context.Background()

	l.LogConnect(ctx, 7, 2)
	l.LogDisconnect(ctx, 7, 1, "closed")
	l.LogRejected(ctx, 7, errors.New("user connection limit reached"))
	l.LogLifecycle(ctx, "shutdown", map[string]interface{}{"connections": 3})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 4)

	assert.Equal(t, "websocket connected", lines[0]["msg"])
	assert.Equal(t, "notifications", lines[0]["hub"])
	assert.EqualValues(t, 7, lines[0]["user_id"])
	assert.EqualValues(t, 2, lines[0]["user_connections"])

	assert.Equal(t, "closed", lines[1]["reason"])
	assert.Equal(t, "WARN", lines[2]["level"])
	assert.Equal(t, "user connection limit reached", lines[2]["error"])
	assert.Equal(t, "shutdown", lines[3]["event"])
	assert.EqualValues(t, 3, lines[3]["connections"])
}

func TestNewWSLogger_NilFallsBackToDefault(t *testing.T) {
	l := NewWSLogger("notifications", nil)
	assert.NotNil(t, l.logger)
}
