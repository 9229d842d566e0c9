package browser

import (
	"slices"
	"testing"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		url      string
		wantArgs []string
		wantErr  bool
	}{
		{
			name:     "linux https",
			goos:     "linux",
			url:      "https://go.dev/doc/",
			wantArgs: []string{"xdg-open", "https://go.dev/doc/"},
		},
		{
			name:     "darwin keeps fragment",
			goos:     "darwin",
			url:      "https://go.dev/doc/effective_go#names",
			wantArgs: []string{"open", "https://go.dev/doc/effective_go#names"},
		},
		{
			name:     "windows file url",
			goos:     "windows",
			url:      "file:///C:/notes/index.html",
			wantArgs: []string{"rundll32", "url.dll,FileProtocolHandler", "file:///C:/notes/index.html"},
		},
		{
			name:    "javascript scheme rejected",
			goos:    "linux",
			url:     "javascript:alert(1)",
			wantErr: true,
		},
		{
			name:    "relative url rejected",
			goos:    "linux",
			url:     "/just/a/path",
			wantErr: true,
		},
		{
			name:    "unknown platform",
			goos:    "plan9",
			url:     "https://example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Opener{goos: tt.goos}
			cmd, err := o.Command(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Command() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !slices.Equal(cmd.Args, tt.wantArgs) {
				t.Errorf("Command() args = %q, want %q", cmd.Args, tt.wantArgs)
			}
		})
	}
}
