package types

// AssignmentType classifies how a conversation was assigned
type AssignmentType string

const (
	AssignmentAuto   AssignmentType = "auto"
	AssignmentManual AssignmentType = "manual"
	AssignmentOwner  AssignmentType = "owner"
)

// AssignmentResult is the immutable outcome of one assignment attempt.
// Either AssignedTo is set (placed with an agent) or QueuePosition is
// set (parked in the wait queue); a failed manual action sets neither.
type AssignmentResult struct {
	ConversationID string         `json:"conversationId"`
	AssignedTo     string         `json:"assignedTo,omitempty"`
	Type           AssignmentType `json:"assignmentType"`
	QueuePosition  *int           `json:"queuePosition,omitempty"`
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
}

// BulkAssignmentResult accumulates the per-conversation outcomes of a
// bulk assignment. Items are independent; there is no rollback.
type BulkAssignmentResult struct {
	Success int                `json:"success"`
	Failed  int                `json:"failed"`
	Results []AssignmentResult `json:"results"`
}

// RuleAssignmentType is the selection policy named by an assignment rule
type RuleAssignmentType string

const (
	RuleRoundRobin    RuleAssignmentType = "round_robin"
	RuleLeastActive   RuleAssignmentType = "least_active"
	RuleSkillBased    RuleAssignmentType = "skill_based"
	RuleSpecificAgent RuleAssignmentType = "specific_agent"
)

// RuleConditions is the matching predicate of an assignment rule.
// Evaluation happens relay-side; this core only carries the shape.
type RuleConditions struct {
	Channels   []string `json:"channel,omitempty"`
	Priorities []string `json:"priority,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	TimeOfDay  string   `json:"timeOfDay,omitempty"`
}

// RuleAssignment is the action half of an assignment rule
type RuleAssignment struct {
	Type     RuleAssignmentType `json:"type"`
	AgentIDs []string           `json:"agentIds,omitempty"`
	Skills   []string           `json:"skills,omitempty"`
}

// AssignmentRule is the declarative routing rule data contract (CRUD
// lifecycle only, no evaluation engine in this core)
type AssignmentRule struct {
	ID         string         `json:"id"`
	Priority   int            `json:"priority"`
	Conditions RuleConditions `json:"conditions"`
	Assignment RuleAssignment `json:"assignment"`
	Enabled    bool           `json:"enabled"`
}
