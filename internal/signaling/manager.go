package signaling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/quality"
	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/rs/zerolog"
)

// CallStore is the subset of storage.Store needed by the Manager
type CallStore interface {
	SaveCallRecord(record types.CallRecord) error
}

// Manager owns all live sessions, keyed by call id. Each session gets
// its own quality monitor goroutine that follows the peer connection's
// lifetime.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	relay     Relay
	media     MediaDevices
	transport Transport
	store     CallStore
	interval  time.Duration
	logger    zerolog.Logger
}

// NewManager creates a session manager
func NewManager(relay Relay, media MediaDevices, transport Transport, interval time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		relay:     relay,
		media:     media,
		transport: transport,
		interval:  interval,
		logger:    logger.With().Str("component", "sessions").Logger(),
	}
}

// SetStore sets the persistence store for ended-call records
func (m *Manager) SetStore(store CallStore) {
	m.store = store
}

// Answer creates a session for an inbound call and answers it
func (m *Manager) Answer(ctx context.Context, callID string) (*Session, error) {
	m.mu.Lock()
	if _, exists := m.sessions[callID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("session for call %s already exists", callID)
	}
	session := NewSession(callID, types.DirectionInbound, m.relay, m.media, m.transport, m.logger)
	m.sessions[callID] = session
	m.mu.Unlock()

	if err := session.Answer(ctx); err != nil {
		m.remove(callID)
		return nil, err
	}

	m.attachMonitor(session)
	m.logger.Info().Str("call_id", callID).Msg("inbound session established")
	return session, nil
}

// Dial asks the relay to allocate a call record, creates a session for
// it, and publishes the offer. Returns the relay-issued call id.
func (m *Manager) Dial(ctx context.Context, destination string, metadata map[string]string) (string, error) {
	callID, err := m.relay.CreateCall(ctx, destination, metadata)
	if err != nil {
		return "", err
	}

	session := NewSession(callID, types.DirectionOutbound, m.relay, m.media, m.transport, m.logger)
	m.mu.Lock()
	m.sessions[callID] = session
	m.mu.Unlock()

	if err := session.Dial(ctx); err != nil {
		m.remove(callID)
		return "", err
	}

	m.attachMonitor(session)
	m.logger.Info().Str("call_id", callID).Str("destination", destination).Msg("outbound session established")
	return callID, nil
}

// End terminates a session, persists its record, and removes it. When
// no session exists for the id, the relay is still notified (idempotent
// end for never-initialized calls).
func (m *Manager) End(ctx context.Context, callID string) error {
	m.mu.Lock()
	session, ok := m.sessions[callID]
	delete(m.sessions, callID)
	m.mu.Unlock()

	if !ok {
		m.logger.Debug().Str("call_id", callID).Msg("ending unknown call, notifying relay only")
		return m.relay.EndCall(ctx, callID)
	}

	snapshot := session.Snapshot()
	err := session.End(ctx)
	m.persist(snapshot, "")
	return err
}

// Transfer hands a session's call to another agent. A blind transfer
// destroys the session; attended keeps it until a later End.
func (m *Manager) Transfer(ctx context.Context, callID, targetAgentID string, transferType types.TransferType, notes string) error {
	session := m.Get(callID)
	if session == nil {
		return fmt.Errorf("no session for call %s", callID)
	}

	if err := session.Transfer(ctx, targetAgentID, transferType, notes); err != nil {
		return err
	}

	if transferType == types.TransferBlind {
		snapshot := session.Snapshot()
		m.remove(callID)
		m.persist(snapshot, targetAgentID)
	}
	return nil
}

// Get returns the live session for a call id, or nil
func (m *Manager) Get(callID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[callID]
}

// Sessions returns snapshots of all live sessions
func (m *Manager) Sessions() []types.CallSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshots := make([]types.CallSession, 0, len(m.sessions))
	for _, session := range m.sessions {
		snapshots = append(snapshots, session.Snapshot())
	}
	return snapshots
}

// Close releases every live session's resources without relay
// notification, for shutdown
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for callID, session := range m.sessions {
		session.mu.Lock()
		session.releaseLocked()
		session.status = types.CallEnded
		session.mu.Unlock()
		delete(m.sessions, callID)
	}
}

func (m *Manager) remove(callID string) {
	m.mu.Lock()
	delete(m.sessions, callID)
	m.mu.Unlock()
}

// attachMonitor starts the session's quality monitor. The monitor
// self-terminates when the peer connection closes.
func (m *Manager) attachMonitor(session *Session) {
	source := session.StatsSource()
	if source == nil {
		return
	}
	monitor := quality.NewMonitor(source, session, m.interval,
		m.logger.With().Str("call_id", session.CallID()).Logger())
	go monitor.Run(context.Background())
}

// persist saves an ended call's record asynchronously
func (m *Manager) persist(snapshot types.CallSession, transferredTo string) {
	if m.store == nil {
		return
	}

	now := time.Now()
	record := types.CallRecord{
		DateKey:       snapshot.StartTime.Format("2006-01-02"),
		CallID:        snapshot.ID,
		Direction:     string(snapshot.Direction),
		StartTime:     snapshot.StartTime.Format(time.RFC3339),
		EndTime:       now.Format(time.RFC3339),
		DurationSecs:  now.Sub(snapshot.StartTime).Seconds(),
		EndedMuted:    snapshot.Media.Muted,
		WasRecorded:   snapshot.Recording.IsRecording,
		FinalTier:     string(snapshot.Quality.Tier),
		LatencyMs:     snapshot.Quality.LatencyMs,
		PacketLossPct: snapshot.Quality.PacketLossPct,
		TransferredTo: transferredTo,
	}
	if snapshot.StartTime.IsZero() {
		record.DateKey = now.Format("2006-01-02")
		record.StartTime = ""
		record.DurationSecs = 0
	}

	go func() {
		if err := m.store.SaveCallRecord(record); err != nil {
			m.logger.Error().Err(err).Str("call_id", record.CallID).Msg("failed to save call record")
		}
	}()
}
