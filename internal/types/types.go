package types

import "time"

// AgentStatus represents the directory-reported status of an agent
type AgentStatus string

const (
	AgentOnline  AgentStatus = "online"
	AgentBusy    AgentStatus = "busy"
	AgentOffline AgentStatus = "offline"
)

// Agent is a read-only snapshot of an agent from the directory service.
// The directory owns all mutation; this core only filters and selects.
type Agent struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Status              AgentStatus `json:"status"`
	ActiveConversations int         `json:"activeConversations"`
	MaxConversations    int         `json:"maxConversations"`
	Skills              []string    `json:"skills,omitempty"`
	Availability        bool        `json:"availability"`
	LastSeen            time.Time   `json:"lastSeen,omitempty"`
}

// Eligible reports whether the agent can receive an auto-assigned
// conversation: online and below capacity.
func (a Agent) Eligible() bool {
	return a.Status == AgentOnline && a.ActiveConversations < a.MaxConversations
}

// AgentStats holds per-agent workload statistics from the directory
type AgentStats struct {
	AgentID             string  `json:"agentId"`
	AssignedToday       int     `json:"assignedToday"`
	ResolvedToday       int     `json:"resolvedToday"`
	AvgHandleTimeSecs   float64 `json:"avgHandleTimeSecs"`
	ActiveConversations int     `json:"activeConversations"`
}

// QueuedConversation is a conversation waiting in the relay's queue
type QueuedConversation struct {
	ConversationID string    `json:"conversationId"`
	QueuePosition  int       `json:"queuePosition"`
	EnqueuedAt     time.Time `json:"enqueuedAt"`
}
