package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

func TestPrintHistory(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	printHistory(&buf, []domain.BackupRun{
		{
			ID:          "run-2",
			StartedAt:   started,
			FinishedAt:  started.Add(1500 * time.Millisecond),
			Device:      "USB",
			FilesCopied: 3,
			BytesCopied: 2048,
			Status:      domain.BackupPartial,
			Error:       "/a/b: permission denied",
		},
		{ID: "run-1", StartedAt: started, Status: domain.BackupFailed, Error: "configuration corrupted"},
	})

	out := buf.String()
	assert.Contains(t, out, "run-2  2026-03-01 12:00:00 PARTIAL to USB, 3 files, 2.0 kB in 1.5s")
	assert.Contains(t, out, "errors: /a/b: permission denied")
	assert.Contains(t, out, "run-1  2026-03-01 12:00:00 FAILED, 0 files, 0 B")
}

func TestPrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, nil)
	assert.Equal(t, "No backup runs recorded.\n", buf.String())
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { jsonOutput = false })

	jsonOutput = true
	runVersion(versionCmd, nil)
	assert.JSONEq(t, `{"version":"`+Version+`","commit":"`+Commit+`","build_time":"`+BuildTime+`"}`, buf.String())
}
