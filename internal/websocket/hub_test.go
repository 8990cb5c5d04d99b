package websocket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewHub(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	if hub == nil {
		t.Fatal("expected hub to be created")
	}

	if hub.clients == nil {
		t.Error("expected clients map to be initialized")
	}

	if hub.broadcast == nil {
		t.Error("expected broadcast channel to be initialized")
	}

	if hub.register == nil {
		t.Error("expected register channel to be initialized")
	}

	if hub.unregister == nil {
		t.Error("expected unregister channel to be initialized")
	}
}

func TestHubClientCount(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}

	hub.mu.Lock()
	hub.clients[&Client{id: "test1"}] = true
	hub.clients[&Client{id: "test2"}] = true
	hub.mu.Unlock()

	if hub.ClientCount() != 2 {
		t.Errorf("expected 2 clients, got %d", hub.ClientCount())
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	go hub.Run()

	client := &Client{
		id:   "test-client",
		hub:  hub,
		send: make(chan []byte, 1),
	}

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client after register, got %d", hub.ClientCount())
	}

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients after unregister, got %d", hub.ClientCount())
	}
}

func TestHubBroadcastToMultipleClients(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	go hub.Run()

	client1 := &Client{
		id:   "client1",
		hub:  hub,
		send: make(chan []byte, 10),
	}

	client2 := &Client{
		id:   "client2",
		hub:  hub,
		send: make(chan []byte, 10),
	}

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	message := []byte("test broadcast")
	hub.Broadcast(message)

	time.Sleep(10 * time.Millisecond)

	select {
	case msg := <-client1.send:
		if string(msg) != string(message) {
			t.Errorf("client1 expected %s, got %s", message, msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client1 did not receive message")
	}

	select {
	case msg := <-client2.send:
		if string(msg) != string(message) {
			t.Errorf("client2 expected %s, got %s", message, msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client2 did not receive message")
	}
}

func TestHubNavigateToCall(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	go hub.Run()

	client := &Client{
		id:   "client1",
		hub:  hub,
		send: make(chan []byte, 10),
	}

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.NavigateToCall("conv-9")

	select {
	case msg := <-client.send:
		var event map[string]string
		if err := json.Unmarshal(msg, &event); err != nil {
			t.Fatalf("failed to unmarshal navigation event: %v", err)
		}
		if event["type"] != "navigate" || event["conversationId"] != "conv-9" {
			t.Errorf("unexpected navigation event %v", event)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client did not receive navigation event")
	}
}

func TestHubConcurrentBroadcastAndCount(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	go hub.Run()

	// Clients with single-slot buffers overflow on the second broadcast
	// and get evicted mid-iteration, while counts are read concurrently.
	for i := 0; i < 4; i++ {
		hub.register <- &Client{
			id:   fmt.Sprintf("client%d", i),
			hub:  hub,
			send: make(chan []byte, 1),
		}
	}
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.ClientCount()
		}
		close(done)
	}()

	for i := 0; i < 100; i++ {
		hub.Broadcast([]byte("snapshot"))
	}
	<-done

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected all clients evicted, %d remain", hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
