package core

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/halfmetre/strut/internal/loop"
)

func TestControlServerQueuesMessages(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "strut.sock")

	var got []string
	server, err := NewControlServer(socketPath, func(message string) loop.Action {
		got = append(got, message)
		if message == "quit" {
			return loop.Terminate
		}
		return loop.Continue
	})
	if err != nil {
		t.Fatalf("NewControlServer failed: %v", err)
	}
	defer server.Close()

	send := func(message string) {
		conn, err := net.Dial("unix", socketPath)
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
		defer conn.Close()
		if _, err := conn.Write([]byte(message)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	send("repaint")
	waitReady(t, server.Event().Ready)

	if act, err := server.Event().OnInput(); act != loop.Continue || err != nil {
		t.Fatalf("OnInput returned (%v, %v)", act, err)
	}
	if len(got) != 1 || got[0] != "repaint" {
		t.Fatalf("expected [repaint], got %v", got)
	}

	send("quit")
	waitReady(t, server.Event().Ready)

	if act, _ := server.Event().OnInput(); act != loop.Terminate {
		t.Errorf("expected Terminate from quit, got %v", act)
	}
}

func TestControlServerReplacesStaleSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "strut.sock")

	first, err := NewControlServer(socketPath, func(string) loop.Action { return loop.Continue })
	if err != nil {
		t.Fatalf("first server failed: %v", err)
	}
	first.Close()

	second, err := NewControlServer(socketPath, func(string) loop.Action { return loop.Continue })
	if err != nil {
		t.Fatalf("expected stale socket to be replaced: %v", err)
	}
	second.Close()
}

func waitReady(t *testing.T, ready <-chan struct{}) {
	t.Helper()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("no readiness notification")
	}
}
