package signaling

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/quality"
	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog"
)

// Compile-time interface checks.
var (
	_ Transport      = (*WebRTCTransport)(nil)
	_ MediaDevices   = (*WebRTCMediaDevices)(nil)
	_ PeerConnection = (*pionConnection)(nil)
)

// WebRTCMediaDevices produces local audio streams backed by pion sample
// tracks. The operator's audio feed is written into the track by the
// media bridge; muting gates the writes.
type WebRTCMediaDevices struct {
	logger zerolog.Logger
}

// NewWebRTCMediaDevices creates the pion-backed media source
func NewWebRTCMediaDevices(logger zerolog.Logger) *WebRTCMediaDevices {
	return &WebRTCMediaDevices{logger: logger}
}

// GetAudioStream allocates one local Opus audio track
func (d *WebRTCMediaDevices) GetAudioStream(ctx context.Context) (MediaStream, error) {
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio", "asistanapp-operator",
	)
	if err != nil {
		return nil, fmt.Errorf("creating local audio track: %w", err)
	}

	lt := &localTrack{track: track}
	lt.enabled.Store(true)
	return &localStream{tracks: []*localTrack{lt}}, nil
}

// localTrack wraps a pion sample track with an enabled flag. A disabled
// track drops samples instead of writing them, which is how mute and
// hold are realized on the wire.
type localTrack struct {
	track   *webrtc.TrackLocalStaticSample
	enabled atomic.Bool
	stopped atomic.Bool
}

func (t *localTrack) Enabled() bool {
	return t.enabled.Load()
}

func (t *localTrack) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// WriteSample forwards an audio sample to the peer unless the track is
// muted or stopped
func (t *localTrack) WriteSample(sample media.Sample) error {
	if t.stopped.Load() || !t.enabled.Load() {
		return nil
	}
	return t.track.WriteSample(sample)
}

type localStream struct {
	tracks []*localTrack
}

func (s *localStream) AudioTracks() []AudioTrack {
	tracks := make([]AudioTrack, 0, len(s.tracks))
	for _, t := range s.tracks {
		tracks = append(tracks, t)
	}
	return tracks
}

func (s *localStream) Stop() {
	for _, t := range s.tracks {
		t.stopped.Store(true)
	}
}

// WebRTCTransport creates pion peer connections with the configured ICE
// servers and the session's local tracks attached
type WebRTCTransport struct {
	config webrtc.Configuration
	logger zerolog.Logger
}

// NewWebRTCTransport creates a transport using the given STUN servers
func NewWebRTCTransport(stunServers []string, logger zerolog.Logger) *WebRTCTransport {
	return &WebRTCTransport{
		config: webrtc.Configuration{
			ICEServers: []webrtc.ICEServer{{URLs: stunServers}},
		},
		logger: logger.With().Str("component", "webrtc").Logger(),
	}
}

// NewPeerConnection opens a pion PeerConnection and publishes the
// stream's local tracks on it
func (t *WebRTCTransport) NewPeerConnection(stream MediaStream) (PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(t.config)
	if err != nil {
		return nil, fmt.Errorf("creating PeerConnection: %w", err)
	}

	if ls, ok := stream.(*localStream); ok {
		for _, lt := range ls.tracks {
			if _, err := pc.AddTrack(lt.track); err != nil {
				pc.Close()
				return nil, fmt.Errorf("adding local track: %w", err)
			}
		}
	}

	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		t.logger.Debug().Str("state", state.String()).Msg("ICE state change")
	})

	return &pionConnection{pc: pc, logger: t.logger}, nil
}

// pionConnection adapts a pion PeerConnection to the session's interface
type pionConnection struct {
	pc     *webrtc.PeerConnection
	logger zerolog.Logger
}

func (c *pionConnection) OnICECandidate(fn func(candidate types.ICECandidate)) {
	c.pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			// Gathering complete marker, nothing to forward.
			return
		}
		init := candidate.ToJSON()
		fn(types.ICECandidate{
			Candidate:     init.Candidate,
			SDPMid:        init.SDPMid,
			SDPMLineIndex: init.SDPMLineIndex,
		})
	})
}

func (c *pionConnection) OnRemoteTrack(fn func(track RemoteTrack)) {
	c.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		fn(&remoteTrack{track: track})
	})
}

func (c *pionConnection) CreateOffer(ctx context.Context) (types.SessionDescription, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return types.SessionDescription{}, err
	}
	return fromPionDescription(offer), nil
}

func (c *pionConnection) CreateAnswer(ctx context.Context) (types.SessionDescription, error) {
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return types.SessionDescription{}, err
	}
	return fromPionDescription(answer), nil
}

func (c *pionConnection) SetLocalDescription(desc types.SessionDescription) error {
	return c.pc.SetLocalDescription(toPionDescription(desc))
}

func (c *pionConnection) SetRemoteDescription(desc types.SessionDescription) error {
	return c.pc.SetRemoteDescription(toPionDescription(desc))
}

func (c *pionConnection) AddICECandidate(candidate types.ICECandidate) error {
	return c.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     candidate.Candidate,
		SDPMid:        candidate.SDPMid,
		SDPMLineIndex: candidate.SDPMLineIndex,
	})
}

func (c *pionConnection) StatsSource() quality.StatsSource {
	return &pionStats{pc: c.pc}
}

func (c *pionConnection) Close() error {
	return c.pc.Close()
}

// remoteTrack adapts a pion remote track
type remoteTrack struct {
	track *webrtc.TrackRemote
}

func (t *remoteTrack) ID() string {
	return t.track.ID()
}

func (t *remoteTrack) Kind() string {
	return t.track.Kind().String()
}

// pionStats extracts inbound-audio counters and the succeeded candidate
// pair's round-trip time from a pion stats report
type pionStats struct {
	pc *webrtc.PeerConnection
}

// Sample implements quality.StatsSource. ok=false once the connection
// is closed or failed, which terminates the monitor.
func (s *pionStats) Sample(ctx context.Context) (quality.Sample, bool) {
	switch s.pc.ConnectionState() {
	case webrtc.PeerConnectionStateClosed, webrtc.PeerConnectionStateFailed:
		return quality.Sample{}, false
	}

	report := s.pc.GetStats()

	var sample quality.Sample
	for _, stat := range report {
		switch st := stat.(type) {
		case webrtc.InboundRTPStreamStats:
			if st.Kind == "audio" {
				sample.InboundAudio = append(sample.InboundAudio, quality.InboundAudioStats{
					PacketsLost:     int64(st.PacketsLost),
					PacketsReceived: uint64(st.PacketsReceived),
				})
			}
		case webrtc.ICECandidatePairStats:
			if st.State == webrtc.StatsICECandidatePairStateSucceeded {
				sample.RoundTrip = time.Duration(st.CurrentRoundTripTime * float64(time.Second))
			}
		}
	}

	return sample, true
}

func toPionDescription(desc types.SessionDescription) webrtc.SessionDescription {
	return webrtc.SessionDescription{
		Type: webrtc.NewSDPType(desc.Type),
		SDP:  desc.SDP,
	}
}

func fromPionDescription(desc webrtc.SessionDescription) types.SessionDescription {
	return types.SessionDescription{
		Type: desc.Type.String(),
		SDP:  desc.SDP,
	}
}
