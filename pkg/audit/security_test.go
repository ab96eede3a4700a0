package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedAuditor(t *testing.T) (*SecurityAuditor, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	return NewSecurityAuditor(zap.New(core)), logs
}

func eventFromEntry(t *testing.T, entry observer.LoggedEntry) SecurityEvent {
	t.Helper()
	var raw string
	for _, f := range entry.Context {
		if f.Key == "event_json" {
			raw = f.String
		}
	}
	require.NotEmpty(t, raw, "log entry carries no event_json field")

	var event SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	return event
}

func TestLogLoginFailure(t *testing.T) {
	auditor, logs := newObservedAuditor(t)

	auditor.LogLoginFailure("ada@example.com", "203.0.113.7:41234")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "Login failed", entries[0].Message)

	event := eventFromEntry(t, entries[0])
	assert.Equal(t, EventLoginFailure, event.EventType)
	assert.Equal(t, "ada@example.com", event.Email)
	assert.Equal(t, "203.0.113.7:41234", event.ClientIP)
	assert.Equal(t, "warning", event.Severity)
	assert.False(t, event.Timestamp.IsZero())
}

func TestLogRoleChange(t *testing.T) {
	auditor, logs := newObservedAuditor(t)

	auditor.LogRoleChange(1, 42, "teacher", "198.51.100.2:55000")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)

	event := eventFromEntry(t, entries[0])
	assert.Equal(t, EventRoleChange, event.EventType)
	assert.Equal(t, int64(1), event.ActorID)
	assert.Equal(t, int64(42), event.TargetID)
	assert.Equal(t, "info", event.Severity)

	details, ok := event.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "teacher", details["new_role"])
}

func TestLogAccessDenied(t *testing.T) {
	auditor, logs := newObservedAuditor(t)

	auditor.LogAccessDenied(7, "admin.set_role", "192.0.2.1:9999")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)

	event := eventFromEntry(t, entries[0])
	assert.Equal(t, EventAccessDenied, event.EventType)
	assert.Equal(t, int64(7), event.ActorID)

	details, ok := event.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "admin.set_role", details["action"])
}

func TestAuditorUsesSecurityNamespace(t *testing.T) {
	auditor, logs := newObservedAuditor(t)

	auditor.LogLoginFailure("x@example.com", "")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "security_audit", entries[0].LoggerName)
}
