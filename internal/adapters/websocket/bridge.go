// Package websocket connects a browsing authority to the engine over a
// WebSocket. Authorities send events as JSON text frames and receive commands
// the same way.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tliron/commonlog"

	"bonsai/internal/domain"
	"bonsai/internal/ports"
)

// ErrNotConnected is returned when a command is sent while no authority is attached
var ErrNotConnected = errors.New("no authority connected")

var log = commonlog.GetLogger("bonsai.websocket")

// DefaultWriteTimeout bounds a single command write to one authority
const DefaultWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// client serializes writes to one connection
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(cmd domain.Command, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(cmd)
}

// Bridge fans events from every connected authority into one channel and
// broadcasts commands back to all of them.
type Bridge struct {
	events chan domain.Event
	// a peer that stops reading is dropped after this long instead of
	// stalling the engine loop
	writeTimeout time.Duration

	clientsMu sync.Mutex
	clients   map[*client]struct{}
	closed    bool
}

// Ensure Bridge implements ports.Authority
var _ ports.Authority = (*Bridge)(nil)

// NewBridge creates a bridge whose event channel holds up to queueSize events
func NewBridge(queueSize int) *Bridge {
	return &Bridge{
		events:       make(chan domain.Event, queueSize),
		writeTimeout: DefaultWriteTimeout,
		clients:      make(map[*client]struct{}),
	}
}

// Events is the stream the engine should Run on
func (b *Bridge) Events() <-chan domain.Event {
	return b.events
}

// Connected returns the number of attached authorities
func (b *Bridge) Connected() int {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	return len(b.clients)
}

// ServeHTTP upgrades the connection and reads events until it closes
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("upgrade: %s", err)
		return
	}

	c := &client{conn: conn}
	b.clientsMu.Lock()
	if b.closed {
		b.clientsMu.Unlock()
		conn.Close()
		return
	}
	b.clients[c] = struct{}{}
	b.clientsMu.Unlock()
	log.Infof("authority connected from %s", r.RemoteAddr)

	defer func() {
		b.clientsMu.Lock()
		delete(b.clients, c)
		b.clientsMu.Unlock()
		conn.Close()
		log.Infof("authority %s disconnected", r.RemoteAddr)
	}()

	ctx := r.Context()
	for {
		var ev domain.Event
		if err := conn.ReadJSON(&ev); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				log.Warningf("bad event from %s: %s", r.RemoteAddr, err)
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warningf("read: %s", err)
			}
			return
		}
		select {
		case b.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bridge) PerformBack(ctx context.Context, viewport domain.ViewportID, backTo domain.Node) error {
	return b.broadcast(domain.Command{Kind: domain.CommandPerformBack, Viewport: viewport, URL: backTo.Data.URL, Node: &backTo})
}

func (b *Bridge) PerformForward(ctx context.Context, viewport domain.ViewportID, forwardTo domain.Node) error {
	return b.broadcast(domain.Command{Kind: domain.CommandPerformForward, Viewport: viewport, URL: forwardTo.Data.URL, Node: &forwardTo})
}

func (b *Bridge) ActivateViewport(ctx context.Context, viewport domain.ViewportID) error {
	return b.broadcast(domain.Command{Kind: domain.CommandActivateViewport, Viewport: viewport})
}

// broadcast sends cmd to every client. Failing clients are dropped; the
// command fails only when nobody received it.
func (b *Bridge) broadcast(cmd domain.Command) error {
	b.clientsMu.Lock()
	targets := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		targets = append(targets, c)
	}
	b.clientsMu.Unlock()

	delivered := 0
	for _, c := range targets {
		if err := c.send(cmd, b.writeTimeout); err != nil {
			log.Errorf("send %s: %s", cmd.Kind, err)
			c.conn.Close()
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return ErrNotConnected
	}
	return nil
}

// Close disconnects every authority. The event channel stays open so that a
// running engine is stopped through its context.
func (b *Bridge) Close() error {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	b.closed = true
	for c := range b.clients {
		c.mu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
		c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"))
		c.mu.Unlock()
		c.conn.Close()
	}
	return nil
}
