package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"carsage/internal/contract"
	"carsage/internal/gateway"
	"carsage/internal/intent"
	"carsage/internal/prefs"
)

// #region collaborators

// intentRouter and answerPlanner are the two advisory model-backed
// collaborators. Interfaces so tests can stub them out.
type intentRouter interface {
	Route(ctx context.Context, utterance string) intent.Result
}

type answerPlanner interface {
	Plan(ctx context.Context, snapshot prefs.Preferences, question, answer string) PlanResult
}

// #endregion

// #region machine

// Machine is the per-session dialogue orchestrator. It owns the
// transcript, the preference store, and the current flow/stage, and
// processes one user turn to completion before the next. Not safe for
// concurrent use; the session layer serializes access.
type Machine struct {
	client  gateway.Client
	router  intentRouter
	planner answerPlanner
	opts    gateway.Options

	store *prefs.Store
	turns []Turn

	flow  Flow
	stage Stage

	pendingQuestion string
	tipsStep        int
	compareModels   []string

	lastReco *contract.RecommendationResult
	lastComp *contract.ComparisonResult
	lastTips string
}

// NewMachine creates a fresh machine in mode selection. All model
// traffic goes through client.
func NewMachine(client gateway.Client, opts gateway.Options) *Machine {
	return &Machine{
		client:  client,
		router:  intent.NewRouter(client, opts),
		planner: NewPlanner(client, opts),
		opts:    opts,
		store:   prefs.NewStore(),
		flow:    FlowNone,
		stage:   StageModeSelect,
	}
}

// Flow returns the active flow.
func (m *Machine) Flow() Flow { return m.flow }

// Stage returns the active stage.
func (m *Machine) Stage() Stage { return m.stage }

// Snapshot returns an immutable copy of the preference record.
func (m *Machine) Snapshot() prefs.Preferences { return m.store.Snapshot() }

// Transcript returns a copy of the turn log.
func (m *Machine) Transcript() []Turn {
	return append([]Turn(nil), m.turns...)
}

// Greeting appends and returns the opening mode-selection message.
func (m *Machine) Greeting() Reply {
	return m.say(modePrompt)
}

// Reset wipes preferences, transcript, and stage back to a freshly
// constructed session.
func (m *Machine) Reset() {
	m.store.Reset()
	m.turns = nil
	m.flow = FlowNone
	m.stage = StageModeSelect
	m.pendingQuestion = ""
	m.tipsStep = 0
	m.compareModels = nil
	m.lastReco = nil
	m.lastComp = nil
	m.lastTips = ""
}

// #endregion

// #region handle-turn

// HandleTurn processes one user utterance end to end: intent routing,
// preference merging, stage transitions, and at most one flow request.
func (m *Machine) HandleTurn(ctx context.Context, text string) Reply {
	text = strings.TrimSpace(text)
	m.turns = append(m.turns, Turn{Speaker: SpeakerUser, Text: text})

	if m.stage == StageModeSelect {
		return m.chooseMode(ctx, text)
	}

	route := m.router.Route(ctx, text)
	log.Printf("[DIALOGUE] flow=%s stage=%s intent=%s", m.flow, m.stage, route.Intent)

	if route.Intent == intent.IntentRestart {
		m.Reset()
		return m.say(modePrompt)
	}

	// Cross-flow jumps are honored from collecting and post_* states;
	// the preference record survives the switch (flow-agnostic facts).
	if m.switchable() {
		switch {
		case route.Intent == intent.IntentCompare && m.flow != FlowCompare:
			return m.enterCompare(ctx, text, route.Models)
		case route.Intent == intent.IntentTips && m.flow != FlowTips:
			return m.enterTips()
		case route.Intent == intent.IntentRecommend && m.flow != FlowGuided:
			return m.enterGuided(ctx)
		}
	}

	switch m.flow {
	case FlowGuided:
		return m.handleGuided(ctx, text)
	case FlowCompare:
		return m.handleCompare(ctx, text, route)
	case FlowTips:
		return m.handleTips(ctx, text)
	}
	return m.say(modePrompt)
}

// switchable reports whether the current stage allows a cross-flow jump.
func (m *Machine) switchable() bool {
	switch m.stage {
	case StageCollecting, StageTipsCollecting, StageAwaitingModels,
		StagePostRecommendation, StagePostComparison, StagePostTips:
		return true
	}
	return false
}

// #endregion

// #region mode-select

func (m *Machine) chooseMode(ctx context.Context, text string) Reply {
	lower := strings.ToLower(text)

	switch {
	case lower == "1" || strings.Contains(lower, "guide") || strings.Contains(lower, "choose"):
		return m.enterGuided(ctx)
	case lower == "2" || strings.Contains(lower, "compare"):
		return m.enterCompare(ctx, text, nil)
	case lower == "3" || strings.Contains(lower, "tip"):
		return m.enterTips()
	}

	route := m.router.Route(ctx, text)
	switch route.Intent {
	case intent.IntentRecommend:
		return m.enterGuided(ctx)
	case intent.IntentCompare:
		return m.enterCompare(ctx, text, route.Models)
	case intent.IntentTips:
		return m.enterTips()
	}
	return m.say(modePrompt)
}

func (m *Machine) enterGuided(ctx context.Context) Reply {
	m.flow = FlowGuided
	snap := m.store.Snapshot()
	if snap.ReadyToRecommend() {
		return m.runRecommendation(ctx)
	}
	m.stage = StageCollecting
	m.pendingQuestion = guidedQuestions[snap.NextUnset()]
	return m.say(m.pendingQuestion)
}

func (m *Machine) enterCompare(ctx context.Context, text string, models []string) Reply {
	m.flow = FlowCompare
	m.stage = StageAwaitingModels
	if len(models) < 2 {
		models = intent.ParseModelList(intent.StripCompareDirective(text))
	}
	if len(models) >= 2 {
		return m.runComparison(ctx, models)
	}
	return m.say(askModelsPrompt)
}

func (m *Machine) enterTips() Reply {
	m.flow = FlowTips
	m.stage = StageTipsCollecting
	m.tipsStep = 0
	return m.say(tipsQuestions[0])
}

// #endregion

// #region guided

func (m *Machine) handleGuided(ctx context.Context, text string) Reply {
	switch m.stage {
	case StageReadyToRecommend:
		// A previous attempt failed in transport; the new utterance is
		// already on the transcript, re-trigger.
		return m.runRecommendation(ctx)
	case StagePostRecommendation:
		return m.recoFollowup(ctx, text)
	}

	question := m.pendingQuestion
	if question == "" {
		question = guidedQuestions[m.store.Snapshot().NextUnset()]
	}

	plan := m.planner.Plan(ctx, m.store.Snapshot(), question, text)
	m.store.Merge(plan.UpdatedPreferences)

	// Ambiguous answer: stay in collecting, ask for clarification
	// instead of guessing a default.
	if plan.Clarification != "" {
		m.pendingQuestion = plan.Clarification
		return m.say(plan.Clarification)
	}

	snap := m.store.Snapshot()
	if snap.ReadyToRecommend() {
		return m.runRecommendation(ctx)
	}

	next := plan.NextQuestion
	if next == "" {
		next = guidedQuestions[snap.NextUnset()]
	}
	m.pendingQuestion = next
	return m.say(next)
}

// recoFollowup answers against the prior structured result instead of
// regenerating it; the preference snapshot is never discarded. The
// cheaper/premium shortcut requests do regenerate, carrying the request
// on the transcript.
func (m *Machine) recoFollowup(ctx context.Context, text string) Reply {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "cheaper alternative") || strings.Contains(lower, "premium") {
		return m.runRecommendation(ctx)
	}

	payload := map[string]interface{}{
		"preferences": m.store.Snapshot(),
		"question":    text,
	}
	if m.lastReco != nil && m.lastReco.Parsed {
		payload["recommendations"] = m.lastReco.Set
	} else if m.lastReco != nil {
		payload["recommendations"] = m.lastReco.Raw
	}
	body, _ := json.Marshal(payload)

	raw, err := m.client.Complete(ctx, []gateway.ChatMessage{
		gateway.System(recoFollowupPrompt),
		gateway.User(string(body)),
	}, m.opts)
	if err != nil {
		return m.sayErr(err)
	}
	return m.say(raw)
}

// #endregion

// #region compare-flow

func (m *Machine) handleCompare(ctx context.Context, text string, route intent.Result) Reply {
	switch m.stage {
	case StageAwaitingModels:
		models := route.Models
		if len(models) < 2 {
			models = intent.ParseModelList(intent.StripCompareDirective(text))
		}
		if len(models) < 2 {
			return m.say("I need at least two models to compare. " + askModelsPrompt)
		}
		return m.runComparison(ctx, models)

	case StageReadyToCompare:
		return m.runComparison(ctx, m.compareModels)

	case StagePostComparison:
		// A follow-up naming two or more models starts a fresh
		// comparison; anything else is answered against the last one.
		if len(route.Models) >= 2 {
			return m.runComparison(ctx, route.Models)
		}
		if intent.HasCompareSeparator(text) {
			if models := intent.ParseModelList(intent.StripCompareDirective(text)); len(models) >= 2 {
				return m.runComparison(ctx, models)
			}
		}
		return m.compareFollowup(ctx, text)
	}
	return m.say(askModelsPrompt)
}

func (m *Machine) compareFollowup(ctx context.Context, text string) Reply {
	payload := map[string]interface{}{
		"question": text,
	}
	if m.lastComp != nil && m.lastComp.Parsed {
		payload["last_comparison"] = m.lastComp.Set
	} else if m.lastComp != nil {
		payload["last_comparison"] = m.lastComp.Raw
	}
	body, _ := json.Marshal(payload)

	raw, err := m.client.Complete(ctx, []gateway.ChatMessage{
		gateway.System(compareFollowupPrompt),
		gateway.User(string(body)),
	}, m.opts)
	if err != nil {
		return m.sayErr(err)
	}
	return m.say(raw)
}

// #endregion

// #region tips-flow

func (m *Machine) handleTips(ctx context.Context, text string) Reply {
	switch m.stage {
	case StageTipsCollecting:
		// Best-effort capture of coercible answers; the transcript is
		// the real input to the tips request.
		switch m.tipsStep {
		case 1:
			_ = m.store.Set(prefs.FieldCity, text)
		case 3:
			_ = m.store.Set(prefs.FieldUsage, text)
		}

		m.tipsStep++
		if m.tipsStep < len(tipsQuestions) {
			return m.say(tipsQuestions[m.tipsStep])
		}
		return m.runTips(ctx)

	case StageReadyForTips:
		return m.runTips(ctx)

	case StagePostTips:
		// Tips are unstructured; a follow-up regenerates over the
		// grown transcript.
		return m.runTips(ctx)
	}
	return m.runTips(ctx)
}

// #endregion

// #region requests

// transcriptMessages converts the turn log into role-tagged context.
func (m *Machine) transcriptMessages() []gateway.ChatMessage {
	msgs := make([]gateway.ChatMessage, 0, len(m.turns))
	for _, t := range m.turns {
		role := gateway.RoleUser
		if t.Speaker == SpeakerAssistant {
			role = gateway.RoleAssistant
		}
		msgs = append(msgs, gateway.ChatMessage{Role: role, Content: t.Text})
	}
	return msgs
}

func (m *Machine) runRecommendation(ctx context.Context) Reply {
	m.stage = StageReadyToRecommend
	snap := m.store.Snapshot()
	snapJSON, _ := json.Marshal(snap)

	msgs := []gateway.ChatMessage{gateway.System(consultantPrompt)}
	msgs = append(msgs, m.transcriptMessages()...)
	msgs = append(msgs, gateway.User("Preferences: "+string(snapJSON)))

	var result contract.RecommendationResult
	attempts, err := completeWithRetry(ctx, m.client, msgs, m.opts, func(raw string) bool {
		result = contract.ExtractRecommendation(raw)
		return result.Parsed
	})
	if err != nil {
		return m.sayErr(err)
	}

	m.lastReco = &result
	m.stage = StagePostRecommendation
	log.Printf("[DIALOGUE] recommendation done after %d attempt(s), parsed=%v", len(attempts), result.Parsed)

	if !result.Parsed {
		return m.sayRaw(result.Raw)
	}

	text := result.Set.FollowupQuestion
	if text == "" {
		text = "Here are the cars I would shortlist for you."
	}
	return m.sayStructured(text, &result.Set, nil)
}

func (m *Machine) runComparison(ctx context.Context, models []string) Reply {
	m.flow = FlowCompare
	m.stage = StageReadyToCompare
	if len(models) > 4 {
		models = models[:4]
	}
	m.compareModels = models

	body, _ := json.Marshal(map[string][]string{"models": models})
	msgs := []gateway.ChatMessage{
		gateway.System(comparePrompt),
		gateway.User(string(body)),
	}

	var result contract.ComparisonResult
	attempts, err := completeWithRetry(ctx, m.client, msgs, m.opts, func(raw string) bool {
		result = contract.ExtractComparison(raw)
		return result.Parsed
	})
	if err != nil {
		return m.sayErr(err)
	}

	m.lastComp = &result
	m.stage = StagePostComparison
	log.Printf("[DIALOGUE] comparison done after %d attempt(s), parsed=%v", len(attempts), result.Parsed)

	if !result.Parsed {
		return m.sayRaw(result.Raw)
	}

	text := fmt.Sprintf("Winner: %s. %s", result.Set.Winner, result.Set.Reason)
	return m.sayStructured(text, nil, &result.Set)
}

func (m *Machine) runTips(ctx context.Context) Reply {
	m.stage = StageReadyForTips

	msgs := []gateway.ChatMessage{gateway.System(tipsPrompt)}
	msgs = append(msgs, m.transcriptMessages()...)

	raw, err := m.client.Complete(ctx, msgs, m.opts)
	if err != nil {
		return m.sayErr(err)
	}

	m.lastTips = raw
	m.stage = StagePostTips
	return m.say(raw)
}

// #endregion

// #region replies

func (m *Machine) say(text string) Reply {
	m.turns = append(m.turns, Turn{Speaker: SpeakerAssistant, Text: text})
	return Reply{Text: text, Flow: m.flow, Stage: m.stage, Profile: m.store.Snapshot().Summary()}
}

// sayRaw surfaces unparseable model output verbatim.
func (m *Machine) sayRaw(raw string) Reply {
	r := m.say(raw)
	r.RawFallback = true
	return r
}

// sayErr reports a transport failure. The stage was not advanced, so
// the user can re-trigger the action or reset.
func (m *Machine) sayErr(err error) Reply {
	log.Printf("[DIALOGUE] model call failed: %v", err)
	r := m.say("Sorry, I could not reach the model just now. Please try again.")
	r.Err = true
	return r
}

// sayStructured attaches a parsed contract payload to the turn.
func (m *Machine) sayStructured(text string, reco *contract.RecommendationSet, comp *contract.ComparisonSet) Reply {
	var payload string
	if reco != nil {
		b, _ := json.Marshal(reco)
		payload = string(b)
	} else if comp != nil {
		b, _ := json.Marshal(comp)
		payload = string(b)
	}
	m.turns = append(m.turns, Turn{Speaker: SpeakerAssistant, Text: text, PayloadJSON: payload})
	return Reply{
		Text:           text,
		Recommendation: reco,
		Comparison:     comp,
		Flow:           m.flow,
		Stage:          m.stage,
		Profile:        m.store.Snapshot().Summary(),
	}
}

// #endregion
