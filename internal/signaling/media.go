package signaling

import (
	"context"

	"github.com/emiryucelweb/asistanapp-sub008/internal/quality"
	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
)

// MediaDevices acquires local media for a session
type MediaDevices interface {
	GetAudioStream(ctx context.Context) (MediaStream, error)
}

// MediaStream is an acquired set of local audio tracks
type MediaStream interface {
	AudioTracks() []AudioTrack
	Stop()
}

// AudioTrack is one local audio track. Disabling it mutes the track
// without releasing it.
type AudioTrack interface {
	Enabled() bool
	SetEnabled(enabled bool)
}

// RemoteTrack is a media track received from the peer
type RemoteTrack interface {
	ID() string
	Kind() string
}

// PeerConnection is the negotiated media transport behind a session
type PeerConnection interface {
	OnICECandidate(fn func(candidate types.ICECandidate))
	OnRemoteTrack(fn func(track RemoteTrack))
	CreateOffer(ctx context.Context) (types.SessionDescription, error)
	CreateAnswer(ctx context.Context) (types.SessionDescription, error)
	SetLocalDescription(desc types.SessionDescription) error
	SetRemoteDescription(desc types.SessionDescription) error
	AddICECandidate(candidate types.ICECandidate) error
	StatsSource() quality.StatsSource
	Close() error
}

// Transport creates peer connections with the local stream attached
type Transport interface {
	NewPeerConnection(stream MediaStream) (PeerConnection, error)
}

// Relay is the subset of the signaling relay a session needs
type Relay interface {
	CreateCall(ctx context.Context, phoneNumber string, metadata map[string]string) (string, error)
	GetOffer(ctx context.Context, callID string) (types.SessionDescription, error)
	PostOffer(ctx context.Context, callID string, offer types.SessionDescription) error
	PostAnswer(ctx context.Context, callID string, answer types.SessionDescription) error
	PostICECandidate(ctx context.Context, callID string, candidate types.ICECandidate) error
	EndCall(ctx context.Context, callID string) error
	Hold(ctx context.Context, callID string) error
	Resume(ctx context.Context, callID string) error
	Transfer(ctx context.Context, callID, targetAgentID string, transferType types.TransferType, notes string) error
	StartRecording(ctx context.Context, callID string) error
	StopRecording(ctx context.Context, callID string) error
}
