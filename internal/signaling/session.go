package signaling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/quality"
	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/rs/zerolog"
)

// ErrMediaAcquisition marks a failure to acquire local media. It is
// fatal to session initialization and leaves the session uninitialized.
var ErrMediaAcquisition = errors.New("media acquisition failed")

// Session owns one call's media session lifecycle:
// uninitialized -> initializing -> active <-> held -> ended.
// Lifecycle operations are expected to be invoked sequentially by the
// caller; the mutex serializes them against signaling callbacks and
// quality-monitor writes.
type Session struct {
	mu sync.Mutex

	callID    string
	direction types.CallDirection
	status    types.CallStatus
	startTime time.Time

	stream MediaStream
	pc     PeerConnection
	remote RemoteTrack

	muted     bool
	volume    float64
	recording types.RecordingState
	qual      types.ConnectionQuality

	relay     Relay
	media     MediaDevices
	transport Transport
	logger    zerolog.Logger
}

// NewSession creates an uninitialized session for the given call id
func NewSession(callID string, direction types.CallDirection, relay Relay, media MediaDevices, transport Transport, logger zerolog.Logger) *Session {
	return &Session{
		callID:    callID,
		direction: direction,
		status:    types.CallUninitialized,
		volume:    1.0,
		qual:      types.ConnectionQuality{Tier: types.QualityUnknown},
		relay:     relay,
		media:     media,
		transport: transport,
		logger:    logger.With().Str("component", "signaling").Str("call_id", callID).Logger(),
	}
}

// CallID returns the relay-issued call id
func (s *Session) CallID() string {
	return s.callID
}

// initialize acquires local audio, opens the peer connection, and
// registers the candidate-forwarding and remote-track handlers.
// On media failure the session stays uninitialized.
func (s *Session) initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = types.CallInitializing

	stream, err := s.media.GetAudioStream(ctx)
	if err != nil {
		s.status = types.CallUninitialized
		s.logger.Error().Err(err).Msg("failed to acquire local audio")
		return fmt.Errorf("%w: %v", ErrMediaAcquisition, err)
	}

	pc, err := s.transport.NewPeerConnection(stream)
	if err != nil {
		stream.Stop()
		s.status = types.CallUninitialized
		s.logger.Error().Err(err).Msg("failed to open peer connection")
		return fmt.Errorf("opening peer connection: %w", err)
	}

	callID := s.callID
	pc.OnICECandidate(func(candidate types.ICECandidate) {
		// Candidate forwarding is best-effort: the callback has no
		// caller to propagate to, so failures are only logged.
		if err := s.relay.PostICECandidate(context.Background(), callID, candidate); err != nil {
			s.logger.Warn().Err(err).Msg("failed to forward ICE candidate")
		}
	})
	pc.OnRemoteTrack(func(track RemoteTrack) {
		s.mu.Lock()
		s.remote = track
		s.mu.Unlock()
		s.logger.Debug().Str("track_id", track.ID()).Str("kind", track.Kind()).Msg("remote track received")
	})

	s.stream = stream
	s.pc = pc
	s.startTime = time.Now()
	return nil
}

// Answer initializes the session, applies the relay's pending offer,
// and posts back a local answer
func (s *Session) Answer(ctx context.Context) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}

	if err := s.negotiateAnswer(ctx); err != nil {
		s.abort()
		return err
	}

	s.mu.Lock()
	s.status = types.CallActive
	s.mu.Unlock()

	s.logger.Info().Msg("call answered")
	return nil
}

func (s *Session) negotiateAnswer(ctx context.Context) error {
	offer, err := s.relay.GetOffer(ctx, s.callID)
	if err != nil {
		return err
	}
	if err := s.pc.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("applying remote offer: %w", err)
	}

	answer, err := s.pc.CreateAnswer(ctx)
	if err != nil {
		return fmt.Errorf("creating answer: %w", err)
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("applying local answer: %w", err)
	}
	return s.relay.PostAnswer(ctx, s.callID, answer)
}

// Dial initializes the session and publishes a local offer. The call
// record was already allocated by the relay; the session stays
// initializing until the remote answer arrives via AcceptAnswer.
func (s *Session) Dial(ctx context.Context) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}

	if err := s.publishOffer(ctx); err != nil {
		s.abort()
		return err
	}

	s.logger.Info().Msg("outbound offer published")
	return nil
}

func (s *Session) publishOffer(ctx context.Context) error {
	offer, err := s.pc.CreateOffer(ctx)
	if err != nil {
		return fmt.Errorf("creating offer: %w", err)
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("applying local offer: %w", err)
	}
	return s.relay.PostOffer(ctx, s.callID, offer)
}

// abort releases resources after a failed negotiation. The session
// returns to uninitialized so nothing can leak through a dropped handle.
func (s *Session) abort() {
	s.mu.Lock()
	s.releaseLocked()
	s.status = types.CallUninitialized
	s.mu.Unlock()
}

// AcceptAnswer applies a remote answer pushed back through the relay
// for an outbound call. Negotiation is complete at that point, so an
// initializing session becomes active.
func (s *Session) AcceptAnswer(answer types.SessionDescription) error {
	s.mu.Lock()
	pc := s.pc
	s.mu.Unlock()
	if pc == nil {
		return errors.New("session not initialized")
	}
	if err := pc.SetRemoteDescription(answer); err != nil {
		return err
	}

	s.mu.Lock()
	if s.status == types.CallInitializing {
		s.status = types.CallActive
	}
	s.mu.Unlock()

	s.logger.Info().Msg("remote answer applied")
	return nil
}

// AddICECandidate applies a remote candidate pushed through the relay
func (s *Session) AddICECandidate(candidate types.ICECandidate) error {
	s.mu.Lock()
	pc := s.pc
	s.mu.Unlock()
	if pc == nil {
		return errors.New("session not initialized")
	}
	return pc.AddICECandidate(candidate)
}

// End notifies the relay and releases all local resources. Idempotent:
// a session that was never initialized still notifies the relay.
func (s *Session) End(ctx context.Context) error {
	err := s.relay.EndCall(ctx, s.callID)

	s.mu.Lock()
	s.releaseLocked()
	s.status = types.CallEnded
	s.mu.Unlock()

	s.logger.Info().Msg("call ended")
	return err
}

// releaseLocked stops local tracks and closes the peer connection.
// Caller must hold s.mu.
func (s *Session) releaseLocked() {
	if s.stream != nil {
		s.stream.Stop()
		s.stream = nil
	}
	if s.pc != nil {
		if err := s.pc.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close peer connection")
		}
		s.pc = nil
	}
	s.remote = nil
}

// ToggleMute flips the enabled flag on the first local audio track and
// returns the new muted state. Without a local stream it is a no-op
// returning false.
func (s *Session) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return false
	}
	tracks := s.stream.AudioTracks()
	if len(tracks) == 0 {
		return false
	}

	track := tracks[0]
	track.SetEnabled(!track.Enabled())
	s.muted = !track.Enabled()

	s.logger.Debug().Bool("muted", s.muted).Msg("mute toggled")
	return s.muted
}

// SetVolume clamps v into [0,1], stores it for remote playback, and
// returns the clamped value. No relay interaction.
func (s *Session) SetVolume(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
	return v
}

// Hold disables all local audio tracks and notifies the relay
func (s *Session) Hold(ctx context.Context) error {
	s.mu.Lock()
	if s.stream != nil {
		for _, track := range s.stream.AudioTracks() {
			track.SetEnabled(false)
		}
	}
	s.mu.Unlock()

	if err := s.relay.Hold(ctx, s.callID); err != nil {
		return err
	}

	s.mu.Lock()
	s.status = types.CallHeld
	s.mu.Unlock()

	s.logger.Info().Msg("call held")
	return nil
}

// Resume re-enables all local audio tracks and notifies the relay
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	if s.stream != nil {
		for _, track := range s.stream.AudioTracks() {
			track.SetEnabled(true)
		}
		s.muted = false
	}
	s.mu.Unlock()

	if err := s.relay.Resume(ctx, s.callID); err != nil {
		return err
	}

	s.mu.Lock()
	s.status = types.CallActive
	s.mu.Unlock()

	s.logger.Info().Msg("call resumed")
	return nil
}

// Transfer notifies the relay of the handoff. A blind transfer releases
// local resources immediately (without re-notifying end); an attended
// transfer keeps them until a subsequent End.
func (s *Session) Transfer(ctx context.Context, targetAgentID string, transferType types.TransferType, notes string) error {
	if err := s.relay.Transfer(ctx, s.callID, targetAgentID, transferType, notes); err != nil {
		return err
	}

	if transferType == types.TransferBlind {
		s.mu.Lock()
		s.releaseLocked()
		s.status = types.CallEnded
		s.mu.Unlock()
	}

	s.logger.Info().
		Str("target_agent_id", targetAgentID).
		Str("transfer_type", string(transferType)).
		Msg("call transferred")
	return nil
}

// StartRecording asks the relay to record and mirrors the state locally.
// The relay is the authority.
func (s *Session) StartRecording(ctx context.Context) error {
	if err := s.relay.StartRecording(ctx, s.callID); err != nil {
		return err
	}

	now := time.Now()
	s.mu.Lock()
	s.recording = types.RecordingState{IsRecording: true, StartTime: &now}
	s.mu.Unlock()

	s.logger.Info().Msg("recording started")
	return nil
}

// StopRecording asks the relay to stop and clears the local reflection
func (s *Session) StopRecording(ctx context.Context) error {
	if err := s.relay.StopRecording(ctx, s.callID); err != nil {
		return err
	}

	s.mu.Lock()
	s.recording = types.RecordingState{}
	s.mu.Unlock()

	s.logger.Info().Msg("recording stopped")
	return nil
}

// SetQuality stores the latest classified connection quality.
// Implements quality.Sink.
func (s *Session) SetQuality(q types.ConnectionQuality) {
	s.mu.Lock()
	s.qual = q
	s.mu.Unlock()
}

// StatsSource exposes the peer connection's statistics for the quality
// monitor, or nil if the session has no connection
func (s *Session) StatsSource() quality.StatsSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pc == nil {
		return nil
	}
	return s.pc.StatsSource()
}

// Status returns the current lifecycle state
func (s *Session) Status() types.CallStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns a point-in-time view of the session
func (s *Session) Snapshot() types.CallSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	return types.CallSession{
		ID:        s.callID,
		Direction: s.direction,
		Status:    s.status,
		Media:     types.MediaState{Muted: s.muted, Volume: s.volume},
		Recording: s.recording,
		Quality:   s.qual,
		StartTime: s.startTime,
	}
}
