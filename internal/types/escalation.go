package types

import "time"

// EmergencyMessage is a customer message attached to an emergency call
type EmergencyMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TakenBy records which agent accepted an emergency call and when
type TakenBy struct {
	AgentName string    `json:"agentName"`
	Timestamp time.Time `json:"timestamp"`
}

// EmergencyCall is an urgent escalation. At most one is active at any
// time; the rest wait in a FIFO backlog.
type EmergencyCall struct {
	ID             string             `json:"id"`
	CustomerID     string             `json:"customerId"`
	ConversationID string             `json:"conversationId"`
	Priority       string             `json:"priority"`
	Timestamp      time.Time          `json:"timestamp"`
	Messages       []EmergencyMessage `json:"messages,omitempty"`
	TakenBy        *TakenBy           `json:"takenBy,omitempty"`
}

// EscalationState is a snapshot of the urgent-call slot and backlog
type EscalationState struct {
	Active           *EmergencyCall  `json:"activeCall,omitempty"`
	Queue            []EmergencyCall `json:"queue"`
	IsRinging        bool            `json:"isRinging"`
	IsMuted          bool            `json:"isMuted"`
	CurrentAgentName string          `json:"currentAgentName,omitempty"`
}
