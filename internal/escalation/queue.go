package escalation

import (
	"context"
	"sync"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/rs/zerolog"
)

// Notifier delivers best-effort emergency alerts. Failures are logged
// and swallowed, never surfaced to the trigger path.
type Notifier interface {
	NotifyEmergency(ctx context.Context, call types.EmergencyCall) error
}

// Navigator pushes the operator's client to a live-call view after an
// accept
type Navigator interface {
	NavigateToCall(conversationID string)
}

// Delays configures the queue's timers
type Delays struct {
	// AcceptSettle is how long an accepted call settles before the
	// next queued call is promoted.
	AcceptSettle time.Duration
	// RejectDelay is the pause after a rejection before promotion.
	RejectDelay time.Duration
	// RingTimeout auto-rejects an active call nobody answered.
	// Zero disables the timeout.
	RingTimeout time.Duration
}

// Queue manages the single urgent-call slot plus a FIFO backlog.
// At most one call is active at a time; promotions are scheduled as
// cancellable timers that re-validate state when they fire.
type Queue struct {
	mu sync.Mutex

	active           *types.EmergencyCall
	queue            []types.EmergencyCall
	isRinging        bool
	isMuted          bool
	currentAgentName string

	promoteTimer *time.Timer
	ringTimer    *time.Timer

	delays    Delays
	notifier  Notifier
	navigator Navigator
	logger    zerolog.Logger
}

// NewQueue creates an empty escalation queue
func NewQueue(delays Delays, notifier Notifier, navigator Navigator, logger zerolog.Logger) *Queue {
	return &Queue{
		delays:    delays,
		notifier:  notifier,
		navigator: navigator,
		logger:    logger.With().Str("component", "escalation").Logger(),
	}
}

// Trigger installs the call as active if the slot is free, otherwise
// appends it to the backlog in arrival order
func (q *Queue) Trigger(call types.EmergencyCall) {
	q.mu.Lock()
	if q.active != nil {
		q.queue = append(q.queue, call)
		depth := len(q.queue)
		q.mu.Unlock()

		q.logger.Info().
			Str("call_id", call.ID).
			Str("customer_id", call.CustomerID).
			Int("queue_depth", depth).
			Msg("emergency call queued behind active call")
		return
	}

	q.installLocked(call)
	q.mu.Unlock()

	q.logger.Info().
		Str("call_id", call.ID).
		Str("customer_id", call.CustomerID).
		Str("priority", call.Priority).
		Msg("emergency call ringing")
	q.notify(call)
}

// installLocked makes the call active and starts it ringing. Caller
// must hold q.mu.
func (q *Queue) installLocked(call types.EmergencyCall) {
	c := call
	q.active = &c
	q.isRinging = true
	q.currentAgentName = ""

	q.stopRingTimerLocked()
	if q.delays.RingTimeout > 0 {
		callID := call.ID
		q.ringTimer = time.AfterFunc(q.delays.RingTimeout, func() {
			q.ringTimedOut(callID)
		})
	}
}

// notify fires the best-effort alert outside the lock
func (q *Queue) notify(call types.EmergencyCall) {
	if q.notifier == nil {
		return
	}
	if err := q.notifier.NotifyEmergency(context.Background(), call); err != nil {
		q.logger.Warn().Err(err).Str("call_id", call.ID).Msg("emergency notification failed")
	}
}

// Accept stamps the active call as taken, stops the ring, and signals
// navigation to its conversation. A queued call is promoted after the
// settle delay. No-op when nothing is active.
func (q *Queue) Accept(agentName string) {
	q.mu.Lock()
	if q.active == nil {
		q.mu.Unlock()
		q.logger.Debug().Str("agent_name", agentName).Msg("accept with no active call ignored")
		return
	}

	now := time.Now()
	q.active.TakenBy = &types.TakenBy{AgentName: agentName, Timestamp: now}
	q.isRinging = false
	q.currentAgentName = agentName
	q.stopRingTimerLocked()

	callID := q.active.ID
	conversationID := q.active.ConversationID
	q.schedulePromotionLocked(q.delays.AcceptSettle)
	q.mu.Unlock()

	q.logger.Info().
		Str("call_id", callID).
		Str("agent_name", agentName).
		Msg("emergency call accepted")

	if q.navigator != nil && conversationID != "" {
		q.navigator.NavigateToCall(conversationID)
	}
}

// Reject clears the active call; the next queued call is promoted
// after the reject delay. No-op when nothing is active.
func (q *Queue) Reject(reason string) {
	q.mu.Lock()
	if q.active == nil {
		q.mu.Unlock()
		return
	}

	callID := q.active.ID
	q.active = nil
	q.isRinging = false
	q.stopRingTimerLocked()
	q.schedulePromotionLocked(q.delays.RejectDelay)
	q.mu.Unlock()

	q.logger.Info().
		Str("call_id", callID).
		Str("reason", reason).
		Msg("emergency call rejected")
}

// Dismiss unconditionally clears the active slot without promoting the
// backlog. Any pending promotion is cancelled.
func (q *Queue) Dismiss() {
	q.mu.Lock()
	callID := ""
	if q.active != nil {
		callID = q.active.ID
	}
	q.active = nil
	q.isRinging = false
	q.currentAgentName = ""
	q.stopRingTimerLocked()
	if q.promoteTimer != nil {
		q.promoteTimer.Stop()
		q.promoteTimer = nil
	}
	q.mu.Unlock()

	if callID != "" {
		q.logger.Info().Str("call_id", callID).Msg("emergency call dismissed")
	}
}

// ToggleMute flips the alert mute flag and returns the new state.
// Independent of call identity.
func (q *Queue) ToggleMute() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.isMuted = !q.isMuted
	return q.isMuted
}

// ClearQueue empties the backlog without touching the active call.
// Returns the number of cleared calls.
func (q *Queue) ClearQueue() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cleared := len(q.queue)
	q.queue = nil
	return cleared
}

// State returns a snapshot of the queue
func (q *Queue) State() types.EscalationState {
	q.mu.Lock()
	defer q.mu.Unlock()

	state := types.EscalationState{
		IsRinging:        q.isRinging,
		IsMuted:          q.isMuted,
		CurrentAgentName: q.currentAgentName,
		Queue:            make([]types.EmergencyCall, len(q.queue)),
	}
	copy(state.Queue, q.queue)
	if q.active != nil {
		a := *q.active
		state.Active = &a
	}
	return state
}

// schedulePromotionLocked arms the promotion timer, replacing any
// pending one. Caller must hold q.mu.
func (q *Queue) schedulePromotionLocked(delay time.Duration) {
	if q.promoteTimer != nil {
		q.promoteTimer.Stop()
	}
	q.promoteTimer = time.AfterFunc(delay, q.promoteNext)
}

// promoteNext re-validates state at fire time: the backlog may have
// been cleared or another call triggered since the timer was armed
func (q *Queue) promoteNext() {
	q.mu.Lock()
	q.promoteTimer = nil
	if q.active != nil && q.active.TakenBy == nil {
		// A fresh call started ringing in the meantime.
		q.mu.Unlock()
		return
	}
	if len(q.queue) == 0 {
		q.mu.Unlock()
		return
	}

	next := q.queue[0]
	q.queue = q.queue[1:]
	q.installLocked(next)
	q.mu.Unlock()

	q.logger.Info().
		Str("call_id", next.ID).
		Str("customer_id", next.CustomerID).
		Msg("queued emergency call promoted")
	q.notify(next)
}

// ringTimedOut auto-rejects an active call that was never answered
func (q *Queue) ringTimedOut(callID string) {
	q.mu.Lock()
	if q.active == nil || q.active.ID != callID || !q.isRinging {
		q.mu.Unlock()
		return
	}
	q.active = nil
	q.isRinging = false
	q.ringTimer = nil
	q.schedulePromotionLocked(q.delays.RejectDelay)
	q.mu.Unlock()

	q.logger.Warn().Str("call_id", callID).Msg("emergency call ring timed out")
}

// stopRingTimerLocked cancels the ring timeout. Caller must hold q.mu.
func (q *Queue) stopRingTimerLocked() {
	if q.ringTimer != nil {
		q.ringTimer.Stop()
		q.ringTimer = nil
	}
}
