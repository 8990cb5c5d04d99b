package types

import "time"

// CallDirection indicates who originated a call
type CallDirection string

const (
	DirectionInbound  CallDirection = "inbound"
	DirectionOutbound CallDirection = "outbound"
	DirectionInternal CallDirection = "internal"
)

// CallStatus is the lifecycle state of a signaling session.
// Transitions are monotonic except for the reversible active/held pair.
type CallStatus string

const (
	CallUninitialized CallStatus = "uninitialized"
	CallInitializing  CallStatus = "initializing"
	CallActive        CallStatus = "active"
	CallHeld          CallStatus = "held"
	CallEnded         CallStatus = "ended"
)

// QualityTier is the coarse connection quality classification
type QualityTier string

const (
	QualityExcellent QualityTier = "excellent"
	QualityGood      QualityTier = "good"
	QualityFair      QualityTier = "fair"
	QualityPoor      QualityTier = "poor"
	QualityUnknown   QualityTier = "unknown"
)

// ConnectionQuality is the latest sampled transport quality of a session
type ConnectionQuality struct {
	LatencyMs     float64     `json:"latencyMs"`
	PacketLossPct float64     `json:"packetLossPct"`
	Tier          QualityTier `json:"tier"`
}

// MediaState tracks local media controls for a session
type MediaState struct {
	Muted  bool    `json:"muted"`
	Volume float64 `json:"volume"` // 0..1, remote playback gain
}

// RecordingState mirrors the relay's recording status client-side.
// The relay is the authority; this is a reflection only.
type RecordingState struct {
	IsRecording bool       `json:"isRecording"`
	StartTime   *time.Time `json:"startTime,omitempty"`
}

// TransferType distinguishes blind from attended transfers
type TransferType string

const (
	TransferBlind    TransferType = "blind"
	TransferAttended TransferType = "attended"
)

// CallSession is a point-in-time snapshot of a signaling session,
// published to dashboards and persisted on end. The live session object
// owns the media handles; they are opaque here.
type CallSession struct {
	ID        string            `json:"id"`
	Direction CallDirection     `json:"direction"`
	Status    CallStatus        `json:"status"`
	Media     MediaState        `json:"mediaState"`
	Recording RecordingState    `json:"recording"`
	Quality   ConnectionQuality `json:"connectionQuality"`
	StartTime time.Time         `json:"startTime"`
}

// SessionDescription is an SDP document exchanged via the relay
type SessionDescription struct {
	Type string `json:"type"` // "offer" or "answer"
	SDP  string `json:"sdp"`
}

// ICECandidate is a network path proposal forwarded through the relay
type ICECandidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// CallSummary is a relay-side call record returned by history queries
type CallSummary struct {
	CallID    string        `json:"callId"`
	Direction CallDirection `json:"type"`
	Status    string        `json:"status"`
	StartDate time.Time     `json:"startDate"`
	EndDate   *time.Time    `json:"endDate,omitempty"`
	AgentID   string        `json:"agentId,omitempty"`
}
