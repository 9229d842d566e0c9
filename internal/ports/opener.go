package ports

// URLOpener opens a page outside the tracked browser
type URLOpener interface {
	// Open hands the URL to the system's default handler
	Open(rawURL string) error
}
