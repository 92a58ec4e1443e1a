package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDetectLaunchMode(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want LaunchMode
	}{
		{"no flags", nil, ModeConfigure},
		{"inside job", map[string]string{EnvInsideJob: "TRUE"}, ModeDaemon},
		{"launch job", map[string]string{EnvLaunchJob: "TRUE"}, ModeRelaunch},
		{"inside job wins", map[string]string{EnvInsideJob: "TRUE", EnvLaunchJob: "TRUE"}, ModeDaemon},
		{"lowercase is not set", map[string]string{EnvInsideJob: "true"}, ModeConfigure},
		{"other value", map[string]string{EnvLaunchJob: "1"}, ModeConfigure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLaunchMode(envMap(tt.env)))
		})
	}
}

func TestLaunchMode_Env(t *testing.T) {
	k, v := ModeDaemon.Env()
	assert.Equal(t, EnvInsideJob, k)
	assert.Equal(t, EnvTrue, v)

	k, v = ModeRelaunch.Env()
	assert.Equal(t, EnvLaunchJob, k)
	assert.Equal(t, EnvTrue, v)

	k, _ = ModeConfigure.Env()
	assert.Empty(t, k)
}

func TestAgentConfiguration_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AgentConfiguration
		wantErr bool
	}{
		{"valid", AgentConfiguration{DeviceName: "USB", FolderPaths: []string{"/a"}}, false},
		{"five folders", AgentConfiguration{DeviceName: "USB", FolderPaths: []string{"/a", "/b", "/c", "/d", "/e"}}, false},
		{"six folders", AgentConfiguration{DeviceName: "USB", FolderPaths: []string{"/a", "/b", "/c", "/d", "/e", "/f"}}, true},
		{"no device", AgentConfiguration{FolderPaths: []string{"/a"}}, true},
		{"blank device", AgentConfiguration{DeviceName: "  ", FolderPaths: []string{"/a"}}, true},
		{"no folders", AgentConfiguration{DeviceName: "USB"}, true},
		{"blank folder", AgentConfiguration{DeviceName: "USB", FolderPaths: []string{"/a", ""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAgentConfiguration_Clone(t *testing.T) {
	orig := &AgentConfiguration{DeviceName: "USB", FolderPaths: []string{"/a", "/b"}}
	c := orig.Clone()
	c.FolderPaths[0] = "/changed"

	assert.Equal(t, "/a", orig.FolderPaths[0])
	assert.Nil(t, (*AgentConfiguration)(nil).Clone())
}

func TestBackupReport_Status(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name   string
		report BackupReport
		want   BackupStatus
	}{
		{"device missing", BackupReport{}, BackupSkipped},
		{"clean", BackupReport{Destination: "/v/x", FilesCopied: 3}, BackupCompleted},
		{"empty folders", BackupReport{Destination: "/v/x"}, BackupCompleted},
		{"some errors", BackupReport{Destination: "/v/x", FilesCopied: 1, Errors: []error{boom}}, BackupPartial},
		{"nothing copied", BackupReport{Destination: "/v/x", Errors: []error{boom}}, BackupFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.Status())
		})
	}
}

func TestBackupReport_Record(t *testing.T) {
	r := BackupReport{
		ID:          "id-1",
		Device:      "USB",
		Destination: "/v/USB/x",
		Folders:     []string{"/a"},
		FilesCopied: 2,
		BytesCopied: 10,
		Errors:      []error{errors.New("one"), errors.New("two")},
	}

	run := r.Record()
	assert.Equal(t, "id-1", run.ID)
	assert.Equal(t, BackupPartial, run.Status)
	assert.Equal(t, "one; two", run.Error)
	assert.Equal(t, int64(10), run.BytesCopied)
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "completed", UICompleted.String())
	assert.Equal(t, "cancelled", UICancelled.String())
	assert.Equal(t, "completed", CountdownCompleted.String())
	assert.Equal(t, "cancelled", CountdownCancelled.String())
}
