package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fadilmartias/mentor-progress/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNextCall(t *testing.T) {
	statusPath := writeFile(t, "status.json", `{
		"orientation": true,
		"resumeRebuilding": true,
		"mentorCall1Eligible": true,
		"mentorCall1CompletedAt": "2026-09-01T10:00:00Z"
	}`)

	out, err := execute(t, "next-call", "--status", statusPath)
	require.NoError(t, err)

	var view struct {
		Stage       int  `json:"stage"`
		ReadyToBook bool `json:"ready_to_book"`
		Checklist   []struct {
			Key       string `json:"key"`
			Completed bool   `json:"completed"`
		} `json:"checklist"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, 2, view.Stage)
	assert.False(t, view.ReadyToBook)
	require.Len(t, view.Checklist, 2)
	assert.Equal(t, "resumeConfirmed", view.Checklist[0].Key)
}

func TestNextCall_ScheduledAndFull(t *testing.T) {
	statusPath := writeFile(t, "status.json", `{"data":{"orientation":true,"resumeRebuilding":true,"mentorCall1Eligible":true}}`)
	scheduledPath := writeFile(t, "scheduled.json", `[{"callNumber":1,"scheduledAt":"2026-11-01T10:00:00Z"}]`)

	out, err := execute(t, "next-call", "--status", statusPath, "--scheduled", scheduledPath, "--full")
	require.NoError(t, err)

	var report struct {
		NextCall struct {
			Stage int `json:"stage"`
		} `json:"next_call"`
		ProgressPercent float64 `json:"progress_percent"`
		Timeline        []struct {
			Stage int    `json:"stage"`
			State string `json:"state"`
		} `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.NextCall.Stage)
	assert.InDelta(t, 200.0/7, report.ProgressPercent, 0.001)
	require.Len(t, report.Timeline, 5)
	assert.Equal(t, "scheduled", report.Timeline[0].State)
}

func TestNextCall_Errors(t *testing.T) {
	_, err := execute(t, "next-call")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")

	_, err = execute(t, "next-call", "--status", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read status file")

	bad := writeFile(t, "bad.json", `not json`)
	_, err = execute(t, "next-call", "--status", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse status file")
}

func TestToken(t *testing.T) {
	userID := uuid.New()
	out, err := execute(t, "token", "--secret", "cli-secret", "--user", userID.String(), "--role", "mentor")
	require.NoError(t, err)

	authority, err := session.NewAuthority("cli-secret", time.Hour, "mentor-platform")
	require.NoError(t, err)
	sess, err := authority.Open(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, userID, sess.UserID)
	assert.Equal(t, session.RoleMentor, sess.Role)
}

func TestToken_Errors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret is required")

	_, err = execute(t, "token", "--secret", "s", "--role", "owner")
	require.Error(t, err)

	_, err = execute(t, "token", "--secret", "s", "--user", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --user")
}
