package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Opener implements ports.URLOpener with the platform's URL handler
type Opener struct {
	goos string
}

// NewOpener creates an opener for the running platform
func NewOpener() *Opener {
	return &Opener{goos: runtime.GOOS}
}

// Open launches the default handler for rawURL and waits for it to hand off
func (o *Opener) Open(rawURL string) error {
	cmd, err := o.Command(rawURL)
	if err != nil {
		return err
	}
	return cmd.Run()
}

// Command returns the exec.Cmd that opens rawURL. Only web and file URLs
// are accepted so history entries can never run arbitrary handlers.
func (o *Opener) Command(rawURL string) (*exec.Cmd, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "http", "https", "file":
	default:
		return nil, fmt.Errorf("refusing to open %q: unsupported scheme %q", rawURL, u.Scheme)
	}

	switch o.goos {
	case "darwin":
		return exec.Command("open", rawURL), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", rawURL), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL), nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", o.goos)
	}
}
