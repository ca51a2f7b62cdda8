package dialogue

import (
	"carsage/internal/contract"
	"carsage/internal/gateway"
	"carsage/internal/prefs"
)

// #region memento

// Memento is the full serializable dialogue state. The session layer
// persists it between turns so a machine evicted from memory can be
// rebuilt without losing the interview.
type Memento struct {
	Flow            Flow              `json:"flow"`
	Stage           Stage             `json:"stage"`
	PendingQuestion string            `json:"pending_question,omitempty"`
	TipsStep        int               `json:"tips_step,omitempty"`
	CompareModels   []string          `json:"compare_models,omitempty"`
	Preferences     prefs.Preferences `json:"preferences"`
	Turns           []Turn            `json:"turns"`

	LastRecommendation *contract.RecommendationResult `json:"last_recommendation,omitempty"`
	LastComparison     *contract.ComparisonResult     `json:"last_comparison,omitempty"`
	LastTips           string                         `json:"last_tips,omitempty"`
}

// Memento captures the machine's current state.
func (m *Machine) Memento() Memento {
	return Memento{
		Flow:               m.flow,
		Stage:              m.stage,
		PendingQuestion:    m.pendingQuestion,
		TipsStep:           m.tipsStep,
		CompareModels:      append([]string(nil), m.compareModels...),
		Preferences:        m.store.Snapshot(),
		Turns:              m.Transcript(),
		LastRecommendation: m.lastReco,
		LastComparison:     m.lastComp,
		LastTips:           m.lastTips,
	}
}

// RestoreMachine rebuilds a machine from a persisted memento. The
// returned machine continues the conversation exactly where it stood,
// down to the pending interview question.
func RestoreMachine(client gateway.Client, opts gateway.Options, mem Memento) *Machine {
	m := NewMachine(client, opts)
	if mem.Flow != "" {
		m.flow = mem.Flow
	}
	if mem.Stage != "" {
		m.stage = mem.Stage
	}
	m.pendingQuestion = mem.PendingQuestion
	m.tipsStep = mem.TipsStep
	m.compareModels = append([]string(nil), mem.CompareModels...)
	m.store.Restore(mem.Preferences)
	m.turns = append([]Turn(nil), mem.Turns...)
	m.lastReco = mem.LastRecommendation
	m.lastComp = mem.LastComparison
	m.lastTips = mem.LastTips
	return m
}

// #endregion
