// Package feed runs the websocket ingest server: detectors push frames
// in, subscribers get table-state snapshots back out.
package feed

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/feltvision/tabletracker/internal/tracker"
)

// Server accepts websocket connections and routes frames into a
// Tracker. Every accepted frame's resulting snapshot is broadcast to
// all connected peers.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*connection]bool
	register    chan *connection
	unregister  chan *connection
	tracker     *tracker.Tracker
	trackWindow func(string) bool
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
}

// NewServer creates a feed server. trackWindow filters incoming frames
// by window name; nil tracks everything.
func NewServer(addr string, tr *tracker.Tracker, trackWindow func(string) bool, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	if trackWindow == nil {
		trackWindow = func(string) bool { return true }
	}

	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Detectors and viewers run on the same machine.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*connection]bool),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		tracker:     tr,
		trackWindow: trackWindow,
		logger:      logger.WithPrefix("feed"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	s.logger.Info("starting feed server", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Serve is like Start but accepts on an existing listener. Useful when
// the caller wants an OS-assigned port.
func (s *Server) Serve(ln net.Listener) error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{Handler: mux}

	s.logger.Info("starting feed server", "addr", ln.Addr().String())
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down and closes every connection.
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.close()
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// run owns the connection set.
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("peer connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.close()
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("peer disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	peer := newConnection(conn, s, s.logger)
	select {
	case s.register <- peer:
		peer.start()
	case <-s.ctx.Done():
		_ = conn.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleMessage routes one inbound message. Rejected frames produce an
// error message back to the sender but never tear down the connection.
func (s *Server) handleMessage(conn *connection, msg *Message) {
	switch msg.Type {
	case TypeFrame:
		if msg.Frame == nil {
			_ = conn.enqueue(&Message{Type: TypeError, Error: "frame message without a frame"})
			return
		}
		if !s.trackWindow(msg.Frame.Window) {
			s.logger.Debug("ignoring untracked window", "window", msg.Frame.Window)
			return
		}
		state, err := s.tracker.Observe(*msg.Frame)
		if err != nil {
			s.logger.Warn("dropping frame", "window", msg.Frame.Window, "error", err)
			_ = conn.enqueue(&Message{Type: TypeError, Error: err.Error()})
			return
		}
		s.broadcast(&Message{Type: TypeState, State: NewTableState(state)})

	default:
		s.logger.Debug("unknown message type", "type", msg.Type)
	}
}

// broadcast fans a message out to every connected peer.
func (s *Server) broadcast(msg *Message) {
	s.mu.RLock()
	peers := make([]*connection, 0, len(s.connections))
	for conn := range s.connections {
		peers = append(peers, conn)
	}
	s.mu.RUnlock()

	for _, conn := range peers {
		_ = conn.enqueue(msg)
	}
}
