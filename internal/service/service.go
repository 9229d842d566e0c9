// Package service wires the engine to its storage and its authority transport.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tliron/commonlog"

	"bonsai/internal/adapters/jsonl"
	"bonsai/internal/adapters/sqlite"
	"bonsai/internal/adapters/websocket"
	"bonsai/internal/application"
	"bonsai/internal/application/commands"
	"bonsai/internal/config"
	"bonsai/internal/domain"
	"bonsai/internal/ports"
)

var log = commonlog.GetLogger("bonsai.service")

// Service owns a running engine together with its journal, workspace
// directory, and authority connection.
type Service struct {
	cfg    config.Config
	store  *sqlite.Store
	engine *application.Engine

	// exactly one transport is set
	bridge *websocket.Bridge
	stdin  io.Reader

	listener net.Listener
}

// Option configures a Service
type Option func(*options)

type options struct {
	stdin  io.Reader
	stdout io.Writer
	store  *sqlite.Store
}

// WithStdio talks to the authority over newline-delimited JSON instead of a
// WebSocket. The HTTP endpoints are still served.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(o *options) {
		o.stdin = in
		o.stdout = out
	}
}

// WithStore uses an already open store instead of opening cfg.DatabasePath
func WithStore(store *sqlite.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// New opens storage and builds the engine. Call Run to start processing.
func New(cfg config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = sqlite.Open(cfg.DatabaseFile())
		if err != nil {
			return nil, err
		}
	}

	s := &Service{cfg: cfg, store: store}

	var authority ports.Authority
	if o.stdin != nil {
		s.stdin = o.stdin
		authority = jsonl.NewAuthority(o.stdout)
	} else {
		s.bridge = websocket.NewBridge(cfg.QueueSize)
		authority = s.bridge
	}

	s.engine = application.New(authority,
		application.WithJournal(store),
		application.WithRequestTimeout(cfg.RequestTimeout),
	)
	return s, nil
}

// Navigator exposes the engine to user-facing adapters
func (s *Service) Navigator() commands.Navigator {
	return s.engine
}

// Directory exposes the workspace directory
func (s *Service) Directory() ports.WorkspaceDirectory {
	return s.store
}

// Store returns the underlying store
func (s *Service) Store() *sqlite.Store {
	return s.store
}

// Addr returns the bound HTTP address once Run has started listening
func (s *Service) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Listen binds the HTTP listener. Run calls it when it has not been called.
func (s *Service) Listen() error {
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.listener = l
	return nil
}

// Run serves HTTP and processes events until ctx is cancelled or the
// authority stream ends.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", s.listener.Addr())
		if err := server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var events <-chan domain.Event
	if s.stdin != nil {
		ch := make(chan domain.Event, s.cfg.QueueSize)
		go func() {
			if err := jsonl.Pump(ctx, s.stdin, ch); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("stdin: %s", err)
			}
		}()
		events = ch
	} else {
		events = s.bridge.Events()
	}

	engineErr := make(chan error, 1)
	go func() {
		engineErr <- s.engine.Run(ctx, events)
	}()

	var err error
	select {
	case err = <-engineErr:
	case err = <-serveErr:
		cancel()
		<-engineErr
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if s.bridge != nil {
		s.bridge.Close()
	}
	server.Shutdown(shutdownCtx)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Handler serves the authority socket, metrics, and a read-only state dump
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.bridge != nil {
		mux.Handle("/ws", s.bridge)
	}
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/state", s.handleState)
	return mux
}

type stateResponse struct {
	Active  domain.ViewportID            `json:"active,omitempty"`
	Heads   []domain.HeadEntry           `json:"heads"`
	Pending []application.PendingRequest `json:"pending"`
	Nodes   []stateNode                  `json:"nodes"`
}

type stateNode struct {
	domain.Node
	Depth int `json:"depth"`
}

func (s *Service) handleState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	snap, err := s.engine.Snapshot(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	resp := stateResponse{
		Active:  snap.ActiveViewport(),
		Heads:   snap.Heads.Entries(),
		Pending: snap.Pending,
	}
	for _, e := range snap.Outline() {
		resp.Nodes = append(resp.Nodes, stateNode{Node: e.Node, Depth: e.Depth})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Close releases the store
func (s *Service) Close() error {
	return s.store.Close()
}
