package jsonl

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"bonsai/internal/domain"
)

func TestReadEvents(t *testing.T) {
	input := `{"kind":"did-navigate","viewport":"1","url":"https://a"}

{"kind":"spawned","sender":"1","viewport":"2","url":"https://b"}
{"kind":"will-navigate-same-document","viewport":"1","url":"https://a#x","scroll":0.25}
`
	events, err := ReadEvents(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadEvents() error = %v", err)
	}

	want := []domain.Event{
		domain.DidNavigate("1", "https://a"),
		domain.Spawned("1", "2", "https://b"),
		domain.WillNavigateSameDocument("1", "https://a#x", 0.25),
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestReadEvents_Malformed(t *testing.T) {
	_, err := ReadEvents(strings.NewReader("{\"kind\":\"did-navigate\"}\nnot json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line 2 parse error, got %v", err)
	}
}

func TestPump_SkipsMalformed(t *testing.T) {
	input := "garbage\n{\"kind\":\"active-changed\",\"viewport\":\"3\"}\n"
	out := make(chan domain.Event, 4)

	if err := Pump(context.Background(), strings.NewReader(input), out); err != nil {
		t.Fatalf("Pump() error = %v", err)
	}

	var got []domain.Event
	for ev := range out {
		got = append(got, ev)
	}
	if len(got) != 1 || got[0] != domain.ActiveChanged("3") {
		t.Errorf("Pump() delivered %+v", got)
	}
}

func TestPump_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := make(chan domain.Event)

	err := Pump(ctx, strings.NewReader("{\"kind\":\"viewport-closed\",\"viewport\":\"1\"}\n"), out)
	if err != context.Canceled {
		t.Errorf("Pump() error = %v, want context.Canceled", err)
	}
}

func TestAuthority_WritesCommands(t *testing.T) {
	var buf bytes.Buffer
	auth := NewAuthority(&buf)
	ctx := context.Background()
	node := domain.Node{ID: "n1", Data: domain.HistoryData{URL: "https://a"}}

	if err := auth.PerformBack(ctx, "1", node); err != nil {
		t.Fatal(err)
	}
	if err := auth.PerformForward(ctx, "1", node); err != nil {
		t.Fatal(err)
	}
	if err := auth.ActivateViewport(ctx, "2"); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("wrote %d lines, want 3", len(lines))
	}

	wantKinds := []domain.CommandKind{domain.CommandPerformBack, domain.CommandPerformForward, domain.CommandActivateViewport}
	for i, line := range lines {
		var cmd domain.Command
		if err := json.Unmarshal([]byte(line), &cmd); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if cmd.Kind != wantKinds[i] {
			t.Errorf("line %d kind = %s, want %s", i, cmd.Kind, wantKinds[i])
		}
		if i < 2 && (cmd.URL != "https://a" || cmd.Node == nil || cmd.Node.ID != "n1") {
			t.Errorf("line %d = %+v", i, cmd)
		}
	}
}

func TestWriteEvents_RoundTrip(t *testing.T) {
	events := []domain.Event{domain.DidNavigate("1", "https://a"), domain.ForgetNode("n")}
	var buf bytes.Buffer
	if err := WriteEvents(&buf, events); err != nil {
		t.Fatal(err)
	}
	got, err := ReadEvents(&buf)
	if err != nil || len(got) != 2 || got[1] != events[1] {
		t.Errorf("ReadEvents() = %+v, %v", got, err)
	}
}
