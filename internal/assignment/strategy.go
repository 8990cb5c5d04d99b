package assignment

import (
	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
)

// Strategy selects the best agent from an eligible set
type Strategy interface {
	SelectAgent(eligible []types.Agent) *types.Agent
}

// LeastActive selects the agent carrying the fewest active conversations.
// Ties go to the first agent seen in iteration order.
type LeastActive struct{}

// SelectAgent picks the eligible agent with the minimum active count
func (l *LeastActive) SelectAgent(eligible []types.Agent) *types.Agent {
	if len(eligible) == 0 {
		return nil
	}

	best := &eligible[0]
	for i := 1; i < len(eligible); i++ {
		if eligible[i].ActiveConversations < best.ActiveConversations {
			best = &eligible[i]
		}
	}
	return best
}
