package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/rs/zerolog"
)

// Error is a failed relay request. Lifecycle callers receive it as-is;
// assignment paths convert it into structured results.
type Error struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("relay %s: status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("relay %s: %s", e.Endpoint, e.Message)
}

// envelope is the relay's response wrapper: {success, data}
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// Client talks to the signaling/control relay over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a relay client
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "relay").Logger(),
	}
}

// do issues a request and decodes the envelope's data into out (if non-nil)
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Endpoint: path, Message: err.Error()}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Endpoint: path, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Endpoint: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &Error{Endpoint: path, Status: resp.StatusCode, Message: string(raw)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &Error{Endpoint: path, Status: resp.StatusCode, Message: err.Error()}
	}
	if !env.Success {
		return &Error{Endpoint: path, Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Endpoint: path, Message: err.Error()}
		}
	}
	return nil
}

// CreateCall asks the relay to allocate a call record for an outbound call
func (c *Client) CreateCall(ctx context.Context, phoneNumber string, metadata map[string]string) (string, error) {
	payload := map[string]any{"phoneNumber": phoneNumber}
	if len(metadata) > 0 {
		payload["metadata"] = metadata
	}
	var data struct {
		CallID string `json:"callId"`
	}
	if err := c.do(ctx, http.MethodPost, "/calls", payload, &data); err != nil {
		return "", err
	}
	return data.CallID, nil
}

// GetOffer fetches the pending SDP offer for an inbound call
func (c *Client) GetOffer(ctx context.Context, callID string) (types.SessionDescription, error) {
	var data struct {
		Offer types.SessionDescription `json:"offer"`
	}
	err := c.do(ctx, http.MethodGet, "/calls/"+callID+"/offer", nil, &data)
	return data.Offer, err
}

// PostOffer publishes a local SDP offer for an outbound call
func (c *Client) PostOffer(ctx context.Context, callID string, offer types.SessionDescription) error {
	return c.do(ctx, http.MethodPost, "/calls/"+callID+"/offer", map[string]any{"offer": offer}, nil)
}

// PostAnswer publishes a local SDP answer for an inbound call
func (c *Client) PostAnswer(ctx context.Context, callID string, answer types.SessionDescription) error {
	return c.do(ctx, http.MethodPost, "/calls/"+callID+"/answer", map[string]any{"answer": answer}, nil)
}

// PostICECandidate forwards a locally discovered ICE candidate
func (c *Client) PostICECandidate(ctx context.Context, callID string, candidate types.ICECandidate) error {
	return c.do(ctx, http.MethodPost, "/calls/"+callID+"/ice-candidate", map[string]any{"candidate": candidate}, nil)
}

// EndCall notifies the relay that the call is over
func (c *Client) EndCall(ctx context.Context, callID string) error {
	return c.do(ctx, http.MethodPost, "/calls/"+callID+"/end", map[string]any{}, nil)
}

// Hold notifies the relay that the call is on hold
func (c *Client) Hold(ctx context.Context, callID string) error {
	return c.do(ctx, http.MethodPost, "/calls/"+callID+"/hold", map[string]any{}, nil)
}

// Resume notifies the relay that the call resumed from hold
func (c *Client) Resume(ctx context.Context, callID string) error {
	return c.do(ctx, http.MethodPost, "/calls/"+callID+"/resume", map[string]any{}, nil)
}

// Transfer hands the call off to another agent
func (c *Client) Transfer(ctx context.Context, callID, targetAgentID string, transferType types.TransferType, notes string) error {
	payload := map[string]any{
		"targetAgentId": targetAgentID,
		"transferType":  transferType,
	}
	if notes != "" {
		payload["notes"] = notes
	}
	return c.do(ctx, http.MethodPost, "/calls/"+callID+"/transfer", payload, nil)
}

// StartRecording asks the relay to start recording the call
func (c *Client) StartRecording(ctx context.Context, callID string) error {
	return c.do(ctx, http.MethodPost, "/calls/"+callID+"/recording/start", map[string]any{}, nil)
}

// StopRecording asks the relay to stop recording the call
func (c *Client) StopRecording(ctx context.Context, callID string) error {
	return c.do(ctx, http.MethodPost, "/calls/"+callID+"/recording/stop", map[string]any{}, nil)
}

// HistoryFilter narrows a call history query
type HistoryFilter struct {
	Type      string
	Status    string
	StartDate string
	EndDate   string
}

// CallHistory fetches past calls matching the filter
func (c *Client) CallHistory(ctx context.Context, filter HistoryFilter) ([]types.CallSummary, error) {
	q := url.Values{}
	if filter.Type != "" {
		q.Set("type", filter.Type)
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.StartDate != "" {
		q.Set("startDate", filter.StartDate)
	}
	if filter.EndDate != "" {
		q.Set("endDate", filter.EndDate)
	}
	path := "/calls/history"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var data struct {
		Calls []types.CallSummary `json:"calls"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &data)
	return data.Calls, err
}

// ActiveCalls lists calls the relay currently considers live
func (c *Client) ActiveCalls(ctx context.Context) ([]types.CallSummary, error) {
	var data struct {
		Calls []types.CallSummary `json:"calls"`
	}
	err := c.do(ctx, http.MethodGet, "/calls/active", nil, &data)
	return data.Calls, err
}

// AvailableAgents fetches the current agent directory snapshot
func (c *Client) AvailableAgents(ctx context.Context) ([]types.Agent, error) {
	var data struct {
		Agents []types.Agent `json:"agents"`
	}
	err := c.do(ctx, http.MethodGet, "/agents/available", nil, &data)
	return data.Agents, err
}

// QueueConversation parks a conversation in the relay's wait queue and
// returns its FIFO position
func (c *Client) QueueConversation(ctx context.Context, conversationID string) (int, error) {
	var data struct {
		QueuePosition int `json:"queuePosition"`
	}
	err := c.do(ctx, http.MethodPost, "/conversations/"+conversationID+"/queue",
		map[string]any{"status": "waiting"}, &data)
	return data.QueuePosition, err
}

// QueuedConversations lists conversations waiting in the relay's queue
func (c *Client) QueuedConversations(ctx context.Context) ([]types.QueuedConversation, error) {
	var data struct {
		Conversations []types.QueuedConversation `json:"conversations"`
	}
	err := c.do(ctx, http.MethodGet, "/conversations/queued", nil, &data)
	return data.Conversations, err
}

// AssignConversation records an assignment with the relay
func (c *Client) AssignConversation(ctx context.Context, conversationID, agentID, assignedBy, reason string) error {
	payload := map[string]any{
		"agentId":    agentID,
		"assignedBy": assignedBy,
	}
	if reason != "" {
		payload["reason"] = reason
	}
	return c.do(ctx, http.MethodPost, "/conversations/"+conversationID+"/assign", payload, nil)
}

// Unassign clears a conversation's assignment
func (c *Client) Unassign(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodPost, "/conversations/"+conversationID+"/unassign", map[string]any{}, nil)
}

// AgentStats fetches workload statistics for a single agent
func (c *Client) AgentStats(ctx context.Context, agentID string) (*types.AgentStats, error) {
	var data types.AgentStats
	if err := c.do(ctx, http.MethodGet, "/agents/"+agentID+"/stats", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListRules fetches all assignment rules
func (c *Client) ListRules(ctx context.Context) ([]types.AssignmentRule, error) {
	var data struct {
		Rules []types.AssignmentRule `json:"rules"`
	}
	err := c.do(ctx, http.MethodGet, "/assignments/rules", nil, &data)
	return data.Rules, err
}

// CreateRule stores a new assignment rule
func (c *Client) CreateRule(ctx context.Context, rule types.AssignmentRule) (types.AssignmentRule, error) {
	var created types.AssignmentRule
	err := c.do(ctx, http.MethodPost, "/assignments/rules", rule, &created)
	return created, err
}

// UpdateRule patches an existing assignment rule
func (c *Client) UpdateRule(ctx context.Context, ruleID string, patch map[string]any) (types.AssignmentRule, error) {
	var updated types.AssignmentRule
	err := c.do(ctx, http.MethodPatch, "/assignments/rules/"+ruleID, patch, &updated)
	return updated, err
}

// DeleteRule removes an assignment rule
func (c *Client) DeleteRule(ctx context.Context, ruleID string) error {
	return c.do(ctx, http.MethodDelete, "/assignments/rules/"+ruleID, nil, nil)
}
