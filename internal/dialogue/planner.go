package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"carsage/internal/contract"
	"carsage/internal/gateway"
	"carsage/internal/prefs"
)

// #region plan-result

// PlanResult is the planner's strict JSON reply. updated_preferences is
// sparse: only new or refined fields appear.
type PlanResult struct {
	UpdatedPreferences prefs.Update `json:"updated_preferences"`
	NeedMoreInfo       bool         `json:"need_more_info"`
	NextQuestion       string       `json:"next_question"`
	Clarification      string       `json:"clarification_message"`
}

// #endregion

// #region planner

// Planner turns one fuzzy interview answer into normalized preference
// updates via the model.
type Planner struct {
	client gateway.Client
	opts   gateway.Options
}

// NewPlanner creates a planner backed by the given model client.
func NewPlanner(client gateway.Client, opts gateway.Options) *Planner {
	return &Planner{client: client, opts: opts}
}

// Plan interprets the user's answer to the current question. A failed
// call or unparseable reply degrades to a no-update result that asks
// again; the machine never guesses a default value.
func (p *Planner) Plan(ctx context.Context, snapshot prefs.Preferences, question, answer string) PlanResult {
	snapJSON, _ := json.Marshal(snapshot)

	raw, err := p.client.Complete(ctx, []gateway.ChatMessage{
		gateway.System(plannerPrompt),
		gateway.User(fmt.Sprintf("Preferences so far: %s", snapJSON)),
		gateway.User(fmt.Sprintf("Question asked: %s", question)),
		gateway.User(fmt.Sprintf("User reply: %s", answer)),
	}, p.opts)
	if err != nil {
		log.Printf("[PLANNER] call failed, re-asking: %v", err)
		return PlanResult{NeedMoreInfo: true}
	}

	var result PlanResult
	if !contract.UnmarshalLoose(raw, &result) {
		log.Printf("[PLANNER] unparseable reply, re-asking: %q", raw)
		return PlanResult{NeedMoreInfo: true}
	}
	return result
}

// #endregion
