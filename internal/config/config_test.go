package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		env     map[string]string
		want    Config
		wantErr string
	}{
		{
			name: "defaults",
			want: Default(),
		},
		{
			name:    "yaml file",
			file:    "bonsai.yaml",
			content: "database: /tmp/h.db\nlisten: :9000\nrequest_timeout: 3s\nverbosity: 2\n",
			want: Config{
				DatabasePath:   "/tmp/h.db",
				ListenAddr:     ":9000",
				QueueSize:      DefaultQueueSize,
				RequestTimeout: 3 * time.Second,
				Verbosity:      2,
			},
		},
		{
			name:    "toml file",
			file:    "bonsai.toml",
			content: "database = \"/tmp/t.db\"\nqueue_size = 8\nlog_file = \"/tmp/bonsai.log\"\n",
			want: Config{
				DatabasePath:   "/tmp/t.db",
				ListenAddr:     DefaultListenAddr,
				QueueSize:      8,
				RequestTimeout: DefaultRequestTimeout,
				LogFile:        "/tmp/bonsai.log",
			},
		},
		{
			name:    "env overrides file",
			file:    "bonsai.yml",
			content: "database: /tmp/h.db\n",
			env:     map[string]string{"BONSAI_DB": "/tmp/env.db", "BONSAI_REQUEST_TIMEOUT": "250ms"},
			want: Config{
				DatabasePath:   "/tmp/env.db",
				ListenAddr:     DefaultListenAddr,
				QueueSize:      DefaultQueueSize,
				RequestTimeout: 250 * time.Millisecond,
			},
		},
		{
			name:    "bad duration",
			file:    "bonsai.yaml",
			content: "request_timeout: soon\n",
			wantErr: "request_timeout",
		},
		{
			name:    "bad verbosity env",
			env:     map[string]string{"BONSAI_VERBOSITY": "loud"},
			wantErr: "BONSAI_VERBOSITY",
		},
		{
			name:    "unknown extension",
			file:    "bonsai.ini",
			content: "x",
			wantErr: "unsupported config format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"BONSAI_DB", "BONSAI_LISTEN", "BONSAI_LOG", "BONSAI_VERBOSITY", "BONSAI_REQUEST_TIMEOUT"} {
				t.Setenv(key, tt.env[key])
			}

			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file, tt.content)
			}

			got, err := Load(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Load() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/x.db", filepath.Join(home, "x.db")},
		{"/abs/x.db", "/abs/x.db"},
		{"rel/x.db", "rel/x.db"},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
