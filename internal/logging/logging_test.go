package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		file    string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "osilogs",
			file:    "osi_trafficcmd",
			want:    filepath.Join("osilogs", "osi_trafficcmd.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./osilogs",
			file:    "osi_trafficcmd",
			want:    filepath.Join(".", "osilogs", "osi_trafficcmd.20260212_213836.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "osi"),
			file:    "osi_trafficcmd",
			want:    filepath.Join("/var", "log", "osi", "osi_trafficcmd.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogFilePath(tt.logsDir, tt.file, sessionStart)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewGraylogWriter(t *testing.T) {
	w, err := NewGraylogWriter("127.0.0.1:12201")
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	n, err := w.Write([]byte("rejected command from participant 7"))
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestNewGraylogWriter_BadAddress(t *testing.T) {
	_, err := NewGraylogWriter("not an address")
	assert.Error(t, err)
}
