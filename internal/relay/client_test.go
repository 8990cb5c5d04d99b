package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zerolog.Nop())
}

func respond(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func TestCreateCall(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/calls" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["phoneNumber"] != "+491234567" {
			t.Errorf("unexpected phone number: %v", body["phoneNumber"])
		}
		respond(w, map[string]string{"callId": "call-42"})
	})

	callID, err := client.CreateCall(context.Background(), "+491234567", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if callID != "call-42" {
		t.Errorf("expected call-42, got %s", callID)
	}
}

func TestGetOffer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calls/call-1/offer" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		respond(w, map[string]any{"offer": types.SessionDescription{Type: "offer", SDP: "v=0"}})
	})

	offer, err := client.GetOffer(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offer.Type != "offer" || offer.SDP != "v=0" {
		t.Errorf("unexpected offer: %+v", offer)
	}
}

func TestEnvelopeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "call not found"})
	})

	err := client.EndCall(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for unsuccessful envelope")
	}
	var relayErr *Error
	if !errors.As(err, &relayErr) {
		t.Fatalf("expected *relay.Error, got %T", err)
	}
	if relayErr.Message != "call not found" {
		t.Errorf("unexpected message: %s", relayErr.Message)
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := client.Hold(context.Background(), "call-1")
	var relayErr *Error
	if !errors.As(err, &relayErr) {
		t.Fatalf("expected *relay.Error, got %T", err)
	}
	if relayErr.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", relayErr.Status)
	}
}

func TestQueueConversation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations/conv-7/queue" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["status"] != "waiting" {
			t.Errorf("expected status waiting, got %v", body["status"])
		}
		respond(w, map[string]int{"queuePosition": 3})
	})

	pos, err := client.QueueConversation(context.Background(), "conv-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos != 3 {
		t.Errorf("expected position 3, got %d", pos)
	}
}

func TestCallHistoryQueryParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "inbound" || q.Get("status") != "completed" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		respond(w, map[string]any{"calls": []types.CallSummary{{CallID: "c1"}}})
	})

	calls, err := client.CallHistory(context.Background(), HistoryFilter{Type: "inbound", Status: "completed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 || calls[0].CallID != "c1" {
		t.Errorf("unexpected calls: %+v", calls)
	}
}

func TestTransferPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["targetAgentId"] != "agent-9" || body["transferType"] != "blind" {
			t.Errorf("unexpected payload: %v", body)
		}
		if _, ok := body["notes"]; ok {
			t.Error("empty notes should be omitted")
		}
		respond(w, nil)
	})

	if err := client.Transfer(context.Background(), "call-1", "agent-9", types.TransferBlind, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAvailableAgents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]any{"agents": []types.Agent{
			{ID: "a1", Status: types.AgentOnline, ActiveConversations: 2, MaxConversations: 5},
		}})
	})

	agents, err := client.AvailableAgents(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agents) != 1 || agents[0].ID != "a1" {
		t.Errorf("unexpected agents: %+v", agents)
	}
	if !agents[0].Eligible() {
		t.Error("expected agent to be eligible")
	}
}
