package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siddhasavor/backend/internal/models"
	"github.com/siddhasavor/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiHandlerFansOutByLevel(t *testing.T) {
	var info, errs bytes.Buffer
	logger := slog.New(NewMultiHandler(
		NewJSONHandler(&info, "info"),
		NewJSONHandler(&errs, "error"),
	))

	logger.Info("patient approved", "patient_id", "p-1")
	logger.Error("dispatch failed", "meal", "dinner")

	assert.Contains(t, info.String(), "patient approved")
	assert.Contains(t, info.String(), "dispatch failed")
	assert.NotContains(t, errs.String(), "patient approved")
	assert.Contains(t, errs.String(), "dispatch failed")
}

func TestMultiHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMultiHandler(NewJSONHandler(&buf, "debug"))).With("request_id", "r-9")

	logger.Debug("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "r-9", line["request_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestPGHandlerPersistsErrors(t *testing.T) {
	db := testutil.NewDB(t)
	h := NewPGHandler(db, time.Hour)
	defer h.Stop()

	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))

	logger := slog.New(h).With("request_id", "req-1")
	logger.Error("reminder send failed",
		"action", "reminders.dispatch",
		"error", "smtp timeout",
		"latency_ms", 42,
		"patient_email", "a@example.com",
	)
	h.Flush()

	var rows []models.SystemLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "ERROR", row.Level)
	assert.Equal(t, "req-1", row.RequestID)
	assert.Equal(t, "reminders.dispatch", row.Action)
	assert.Equal(t, "smtp timeout", row.Error)
	assert.Equal(t, 42, row.LatencyMs)
	assert.Contains(t, string(row.Extra), "a@example.com")
}

func TestPurgeOlderThan(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	old := models.SystemLog{ID: uuid.New(), Timestamp: now.Add(-31 * 24 * time.Hour), Level: "ERROR"}
	recent := models.SystemLog{ID: uuid.New(), Timestamp: now.Add(-time.Hour), Level: "ERROR"}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	deleted, err := PurgeOlderThan(db, 30*24*time.Hour, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var count int64
	db.Model(&models.SystemLog{}).Count(&count)
	assert.EqualValues(t, 1, count)
}
