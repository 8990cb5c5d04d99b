package assignment

import (
	"context"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/rs/zerolog"
)

// Relay is the directory and assignment surface the engine talks to
type Relay interface {
	AvailableAgents(ctx context.Context) ([]types.Agent, error)
	QueueConversation(ctx context.Context, conversationID string) (int, error)
	QueuedConversations(ctx context.Context) ([]types.QueuedConversation, error)
	AssignConversation(ctx context.Context, conversationID, agentID, assignedBy, reason string) error
	Unassign(ctx context.Context, conversationID string) error
	AgentStats(ctx context.Context, agentID string) (*types.AgentStats, error)
}

// Engine routes conversations to agents. Auto-assignment always
// produces a placement: any failure along the way degrades to the
// wait queue instead of propagating.
type Engine struct {
	relay    Relay
	strategy Strategy
	logger   zerolog.Logger
}

// NewEngine creates an assignment engine using least-active selection
func NewEngine(relay Relay, logger zerolog.Logger) *Engine {
	return &Engine{
		relay:    relay,
		strategy: &LeastActive{},
		logger:   logger.With().Str("component", "assignment").Logger(),
	}
}

// AutoAssign selects an eligible agent for the conversation, or falls
// back to the relay's wait queue when none is available or any step
// fails
func (e *Engine) AutoAssign(ctx context.Context, conversationID string) types.AssignmentResult {
	agents, err := e.relay.AvailableAgents(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("directory fetch failed, enqueueing")
		return e.enqueue(ctx, conversationID)
	}

	eligible := make([]types.Agent, 0, len(agents))
	for _, agent := range agents {
		if agent.Eligible() {
			eligible = append(eligible, agent)
		}
	}

	selected := e.strategy.SelectAgent(eligible)
	if selected == nil {
		e.logger.Debug().Str("conversation_id", conversationID).Msg("no eligible agents, enqueueing")
		return e.enqueue(ctx, conversationID)
	}

	if err := e.relay.AssignConversation(ctx, conversationID, selected.ID, "auto", ""); err != nil {
		e.logger.Warn().Err(err).
			Str("conversation_id", conversationID).
			Str("agent_id", selected.ID).
			Msg("auto assignment rejected by relay, enqueueing")
		return e.enqueue(ctx, conversationID)
	}

	e.logger.Info().
		Str("conversation_id", conversationID).
		Str("agent_id", selected.ID).
		Int("active_conversations", selected.ActiveConversations).
		Msg("conversation auto-assigned")

	return types.AssignmentResult{
		ConversationID: conversationID,
		AssignedTo:     selected.ID,
		Type:           types.AssignmentAuto,
		Success:        true,
		Message:        "assigned to least active agent",
	}
}

// enqueue places the conversation in the relay's wait queue
func (e *Engine) enqueue(ctx context.Context, conversationID string) types.AssignmentResult {
	position, err := e.relay.QueueConversation(ctx, conversationID)
	if err != nil {
		e.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("enqueue failed")
		return types.AssignmentResult{
			ConversationID: conversationID,
			Type:           types.AssignmentAuto,
			Success:        false,
			Message:        "no agents available and enqueue failed: " + err.Error(),
		}
	}

	return types.AssignmentResult{
		ConversationID: conversationID,
		Type:           types.AssignmentAuto,
		QueuePosition:  &position,
		Success:        true,
		Message:        "queued, waiting for an agent",
	}
}

// ManualAssign assigns the conversation to a specific agent. Relay
// failures come back as a failure result, not an error.
func (e *Engine) ManualAssign(ctx context.Context, conversationID, agentID, assignedBy string) types.AssignmentResult {
	return e.assign(ctx, conversationID, agentID, assignedBy, "", types.AssignmentManual, "manually assigned")
}

// TakeAsOwner assigns the conversation to the requesting operator
func (e *Engine) TakeAsOwner(ctx context.Context, conversationID, ownerID string) types.AssignmentResult {
	return e.assign(ctx, conversationID, ownerID, ownerID, "", types.AssignmentOwner, "taken as owner")
}

// Reassign moves the conversation to a new agent with an optional reason
func (e *Engine) Reassign(ctx context.Context, conversationID, newAgentID, assignedBy, reason string) types.AssignmentResult {
	return e.assign(ctx, conversationID, newAgentID, assignedBy, reason, types.AssignmentManual, "reassigned")
}

func (e *Engine) assign(ctx context.Context, conversationID, agentID, assignedBy, reason string, assignmentType types.AssignmentType, message string) types.AssignmentResult {
	if err := e.relay.AssignConversation(ctx, conversationID, agentID, assignedBy, reason); err != nil {
		e.logger.Error().Err(err).
			Str("conversation_id", conversationID).
			Str("agent_id", agentID).
			Msg("assignment failed")
		return types.AssignmentResult{
			ConversationID: conversationID,
			Type:           assignmentType,
			Success:        false,
			Message:        err.Error(),
		}
	}

	return types.AssignmentResult{
		ConversationID: conversationID,
		AssignedTo:     agentID,
		Type:           assignmentType,
		Success:        true,
		Message:        message,
	}
}

// Unassign clears the conversation's assignment, mirroring the relay
// response
func (e *Engine) Unassign(ctx context.Context, conversationID string) types.AssignmentResult {
	if err := e.relay.Unassign(ctx, conversationID); err != nil {
		e.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("unassign failed")
		return types.AssignmentResult{
			ConversationID: conversationID,
			Type:           types.AssignmentManual,
			Success:        false,
			Message:        err.Error(),
		}
	}
	return types.AssignmentResult{
		ConversationID: conversationID,
		Type:           types.AssignmentManual,
		Success:        true,
		Message:        "unassigned",
	}
}

// BulkAssign assigns each conversation to the agent sequentially. Items
// are independent, there is no rollback on failure.
func (e *Engine) BulkAssign(ctx context.Context, conversationIDs []string, agentID, assignedBy string) types.BulkAssignmentResult {
	result := types.BulkAssignmentResult{
		Results: make([]types.AssignmentResult, 0, len(conversationIDs)),
	}

	for _, conversationID := range conversationIDs {
		item := e.ManualAssign(ctx, conversationID, agentID, assignedBy)
		if item.Success {
			result.Success++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, item)
	}

	e.logger.Info().
		Str("agent_id", agentID).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Msg("bulk assignment completed")
	return result
}

// GetAvailableAgents returns the directory snapshot, or an empty slice
// on error
func (e *Engine) GetAvailableAgents(ctx context.Context) []types.Agent {
	agents, err := e.relay.AvailableAgents(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to fetch available agents")
		return []types.Agent{}
	}
	return agents
}

// GetQueuedConversations returns the current wait queue, or an empty
// slice on error
func (e *Engine) GetQueuedConversations(ctx context.Context) []types.QueuedConversation {
	queued, err := e.relay.QueuedConversations(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to fetch queued conversations")
		return []types.QueuedConversation{}
	}
	return queued
}

// GetAgentStats returns one agent's workload stats, or nil on error
func (e *Engine) GetAgentStats(ctx context.Context, agentID string) *types.AgentStats {
	stats, err := e.relay.AgentStats(ctx, agentID)
	if err != nil {
		e.logger.Warn().Err(err).Str("agent_id", agentID).Msg("failed to fetch agent stats")
		return nil
	}
	return stats
}
