package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    map[string]string
		want    Command
		wantErr bool
	}{
		{
			name:    "train",
			command: "train",
			args:    map[string]string{"config": "model: cnn\ndataset: mnist"},
			want:    TrainCommand{Config: "model: cnn\ndataset: mnist"},
		},
		{
			name:    "train missing config",
			command: "train",
			args:    map[string]string{},
			wantErr: true,
		},
		{
			name:    "load_model",
			command: "load_model",
			args:    map[string]string{"model": "cnn", "version": "3"},
			want:    LoadModelCommand{Model: "cnn", Version: 3},
		},
		{
			name:    "load_model non-numeric version",
			command: "load_model",
			args:    map[string]string{"model": "cnn", "version": "latest"},
			wantErr: true,
		},
		{
			name:    "load_model zero version",
			command: "load_model",
			args:    map[string]string{"model": "cnn", "version": "0"},
			wantErr: true,
		},
		{
			name:    "classify",
			command: "classify",
			args:    map[string]string{"input": "sample-100"},
			want:    ClassifyCommand{Input: "sample-100"},
		},
		{
			name:    "registry_summary takes no args",
			command: "registry_summary",
			args:    nil,
			want:    RegistrySummaryCommand{},
		},
		{
			name:    "logs",
			command: "logs",
			args:    nil,
			want:    LogsCommand{},
		},
		{
			name:    "chat",
			command: "chat",
			args:    map[string]string{"text": "hello"},
			want:    ChatCommand{Text: "hello"},
		},
		{
			name:    "chat missing text",
			command: "chat",
			args:    nil,
			wantErr: true,
		},
		{
			name:    "debug text optional",
			command: "debug",
			args:    nil,
			want:    DebugCommand{},
		},
		{
			name:    "unknown command",
			command: "self_destruct",
			args:    map[string]string{"when": "now"},
			wantErr: true,
		},
		{
			name:    "blank argument value",
			command: "classify",
			args:    map[string]string{"input": "   "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand(tt.command, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusSubmitted.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}
