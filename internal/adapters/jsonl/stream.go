// Package jsonl carries events and commands as newline-delimited JSON, for
// authorities that talk over stdio or recorded session files.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/tliron/commonlog"

	"bonsai/internal/domain"
	"bonsai/internal/ports"
)

var log = commonlog.GetLogger("bonsai.jsonl")

// ReadEvents decodes one event per line. Blank lines are skipped; malformed
// lines are an error carrying the line number.
func ReadEvents(r io.Reader) ([]domain.Event, error) {
	var events []domain.Event
	err := scan(r, func(ev domain.Event) bool {
		events = append(events, ev)
		return true
	})
	return events, err
}

// Pump decodes events from r into out until r is exhausted or ctx is done.
// Malformed lines are logged and skipped so a single bad line cannot stall
// the engine. out is closed when Pump returns.
func Pump(ctx context.Context, r io.Reader, out chan<- domain.Event) error {
	defer close(out)

	scanner := newScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev domain.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Warningf("line %d: %s", lineNo, err)
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	return nil
}

func scan(r io.Reader, yield func(domain.Event) bool) error {
	scanner := newScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev domain.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("parse line %d: %w", lineNo, err)
		}
		if !yield(ev) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	return nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)
	return scanner
}

// Authority writes commands for the real authority as JSON lines
type Authority struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// Ensure Authority implements ports.Authority
var _ ports.Authority = (*Authority)(nil)

// NewAuthority creates an authority that writes to w
func NewAuthority(w io.Writer) *Authority {
	return &Authority{enc: json.NewEncoder(w)}
}

func (a *Authority) PerformBack(_ context.Context, viewport domain.ViewportID, backTo domain.Node) error {
	return a.write(domain.Command{Kind: domain.CommandPerformBack, Viewport: viewport, URL: backTo.Data.URL, Node: &backTo})
}

func (a *Authority) PerformForward(_ context.Context, viewport domain.ViewportID, forwardTo domain.Node) error {
	return a.write(domain.Command{Kind: domain.CommandPerformForward, Viewport: viewport, URL: forwardTo.Data.URL, Node: &forwardTo})
}

func (a *Authority) ActivateViewport(_ context.Context, viewport domain.ViewportID) error {
	return a.write(domain.Command{Kind: domain.CommandActivateViewport, Viewport: viewport})
}

func (a *Authority) write(cmd domain.Command) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.enc.Encode(cmd); err != nil {
		return fmt.Errorf("write %s: %w", cmd.Kind, err)
	}
	return nil
}

// WriteEvents encodes events one per line
func WriteEvents(w io.Writer, events []domain.Event) error {
	enc := json.NewEncoder(w)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}
