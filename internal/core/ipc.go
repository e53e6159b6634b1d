package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/halfmetre/strut/internal/loop"
)

// ControlServer accepts control connections on a unix socket. Each
// connection carries one message; messages queue up and are dispatched from
// the server's loop event, so handling always runs on the dispatch
// goroutine.
type ControlServer struct {
	listener net.Listener
	dispatch func(message string) loop.Action
	ready    chan struct{}
	ev       *loop.Event

	mu      sync.Mutex
	pending []string
	closed  bool
}

// NewControlServer listens on socketPath, replacing any stale socket file.
func NewControlServer(socketPath string, dispatch func(string) loop.Action) (*ControlServer, error) {
	if _, err := os.Stat(socketPath); err == nil {
		os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket listener: %w", err)
	}

	s := &ControlServer{
		listener: listener,
		dispatch: dispatch,
		ready:    make(chan struct{}, 1),
	}
	s.ev = &loop.Event{
		Name:    "control",
		Ready:   s.ready,
		OnInput: s.onReady,
	}

	log.Printf("control channel listening on %s", socketPath)

	go s.accept()

	return s, nil
}

// Event returns the server's loop event.
func (s *ControlServer) Event() *loop.Event {
	return s.ev
}

func (s *ControlServer) accept() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			log.Printf("control: accept: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *ControlServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		log.Printf("control: read: %v", err)
		return
	}

	message := strings.TrimSpace(string(buf[:n]))
	log.Printf("control: received %q", message)

	s.mu.Lock()
	s.pending = append(s.pending, message)
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// onReady drains queued messages. Terminate from the dispatcher stops the
// drain; remaining messages die with the process.
func (s *ControlServer) onReady() (loop.Action, error) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, message := range pending {
		if s.dispatch(message) == loop.Terminate {
			return loop.Terminate, nil
		}
	}
	return loop.Continue, nil
}

// Close stops accepting and removes the socket.
func (s *ControlServer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.listener.Close()
}
