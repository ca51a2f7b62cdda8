package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"carsage/internal/gateway"
	"carsage/internal/intent"
	"carsage/internal/prefs"
)

const comparisonJSON = `{
 "cars":[
   {"name":"Nexon","pros":["5-star safety"],"cons":["firm ride"],"summary":"Safe and punchy"},
   {"name":"Creta","pros":["space","features"],"cons":["costlier"],"summary":"Segment favourite"}
 ],
 "winner":"Creta",
 "reason":"More complete package"
}`

const recommendationJSON = `{
 "cars":[{"name":"Baleno","segment":"hatchback","summary":"s","pros":["mileage"],"cons":["base safety kit"],"price_band":"7-9L","ideal_for":"city commuting"}],
 "cheaper_alternatives":["Wagon R"],
 "premium_alternatives":["i20"],
 "followup_question":"Want automatic variants only?"
}`

// stubRouter always returns a fixed result, keeping scripted mock
// clients deterministic in guided-flow tests.
type stubRouter struct {
	res intent.Result
}

func (s stubRouter) Route(_ context.Context, _ string) intent.Result { return s.res }

// stubPlanner maps the asked question onto preference updates.
type stubPlanner struct {
	plan func(question, answer string) PlanResult
}

func (s stubPlanner) Plan(_ context.Context, _ prefs.Preferences, q, a string) PlanResult {
	return s.plan(q, a)
}

func intPtr(n int) *int { return &n }

func TestMachine_CompareEndToEnd(t *testing.T) {
	mock := gateway.NewMockClient([]string{comparisonJSON}, nil)
	m := NewMachine(mock, gateway.Options{Model: "test/model"})

	reply := m.HandleTurn(context.Background(), "2")
	if m.Flow() != FlowCompare || m.Stage() != StageAwaitingModels {
		t.Fatalf("flow/stage = %s/%s after mode select", m.Flow(), m.Stage())
	}
	if reply.Text != askModelsPrompt {
		t.Errorf("reply = %q", reply.Text)
	}

	reply = m.HandleTurn(context.Background(), "Nexon vs Creta")
	if m.Stage() != StagePostComparison {
		t.Fatalf("stage = %s, want post_comparison", m.Stage())
	}
	if reply.Comparison == nil {
		t.Fatal("expected structured comparison payload")
	}
	if reply.Comparison.Winner != "Creta" {
		t.Errorf("winner = %q, want Creta", reply.Comparison.Winner)
	}
	if !strings.Contains(reply.Text, "Creta") {
		t.Errorf("reply text %q must carry the literal winner", reply.Text)
	}
	if len(reply.Comparison.Cars) != 2 || reply.Comparison.Cars[0].Summary == "" {
		t.Errorf("cars = %+v", reply.Comparison.Cars)
	}

	// The request must have serialized exactly the parsed model list.
	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("model calls = %d, want 1 (keyword route, then one compare request)", len(calls))
	}
	var req struct {
		Models []string `json:"models"`
	}
	if err := json.Unmarshal([]byte(calls[0][1].Content), &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if len(req.Models) != 2 || req.Models[0] != "Nexon" || req.Models[1] != "Creta" {
		t.Errorf("models = %v, want [Nexon Creta]", req.Models)
	}
}

func TestMachine_GuidedCollectsThenRecommends(t *testing.T) {
	mock := gateway.NewMockClient([]string{recommendationJSON}, nil)
	m := NewMachine(mock, gateway.Options{})
	m.router = stubRouter{res: intent.General()}
	m.planner = stubPlanner{plan: func(question, answer string) PlanResult {
		switch {
		case strings.Contains(question, "budget"):
			return PlanResult{UpdatedPreferences: prefs.Update{BudgetMax: intPtr(800000)}}
		default:
			usage := prefs.UsageCity
			tr := prefs.TransmissionManual
			return PlanResult{UpdatedPreferences: prefs.Update{
				Usage:        &usage,
				FuelPref:     []prefs.FuelType{prefs.FuelPetrol},
				Transmission: &tr,
			}}
		}
	}}

	reply := m.HandleTurn(context.Background(), "1")
	if m.Stage() != StageCollecting || !strings.Contains(reply.Text, "budget") {
		t.Fatalf("stage=%s reply=%q, want budget question first", m.Stage(), reply.Text)
	}

	reply = m.HandleTurn(context.Background(), "around 8 lakh")
	if m.Stage() != StageCollecting {
		t.Fatalf("stage = %s, want still collecting", m.Stage())
	}

	reply = m.HandleTurn(context.Background(), "city driving, petrol, manual")
	if m.Stage() != StagePostRecommendation {
		t.Fatalf("stage = %s, want post_recommendation", m.Stage())
	}
	if reply.Recommendation == nil || reply.Recommendation.Cars[0].Name != "Baleno" {
		t.Fatalf("recommendation payload = %+v", reply.Recommendation)
	}

	snap := m.Snapshot()
	if snap.BudgetMax == nil || *snap.BudgetMax != 800000 {
		t.Errorf("budget_max = %v", snap.BudgetMax)
	}
	if snap.City != nil || snap.DailyKM != nil || snap.FamilySize != nil || len(snap.Priorities) != 0 {
		t.Errorf("unanswered fields populated: %+v", snap)
	}
}

func TestMachine_ClarificationStaysCollecting(t *testing.T) {
	mock := gateway.NewMockClient(nil, nil)
	m := NewMachine(mock, gateway.Options{})
	m.router = stubRouter{res: intent.General()}
	m.planner = stubPlanner{plan: func(_, _ string) PlanResult {
		return PlanResult{NeedMoreInfo: true, Clarification: "Is that 8 lakh total or per year?"}
	}}

	m.HandleTurn(context.Background(), "1")
	reply := m.HandleTurn(context.Background(), "8")
	if m.Stage() != StageCollecting {
		t.Errorf("stage = %s, want collecting (re-entrant)", m.Stage())
	}
	if reply.Text != "Is that 8 lakh total or per year?" {
		t.Errorf("reply = %q, want the clarifying question", reply.Text)
	}
	if mock.CallCount() != 0 {
		t.Errorf("no flow request should have fired, got %d calls", mock.CallCount())
	}
}

func TestMachine_TransportFailureDoesNotAdvance(t *testing.T) {
	mock := gateway.NewMockClient(
		[]string{"", comparisonJSON},
		[]error{errors.New("connection refused"), nil},
	)
	m := NewMachine(mock, gateway.Options{})
	m.router = stubRouter{res: intent.General()}

	m.HandleTurn(context.Background(), "2")
	reply := m.HandleTurn(context.Background(), "Nexon vs Creta")
	if !reply.Err {
		t.Fatal("expected error reply on transport failure")
	}
	if m.Stage() != StageReadyToCompare {
		t.Fatalf("stage = %s, must not advance past ready_to_compare", m.Stage())
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, transport failure must not retry", mock.CallCount())
	}

	// The next turn re-triggers the same request and succeeds.
	reply = m.HandleTurn(context.Background(), "try again please")
	if m.Stage() != StagePostComparison {
		t.Fatalf("stage = %s after re-trigger, want post_comparison", m.Stage())
	}
	if reply.Comparison == nil || reply.Comparison.Winner != "Creta" {
		t.Errorf("comparison = %+v", reply.Comparison)
	}
}

func TestMachine_ContractMismatchRetriesThenFallsBack(t *testing.T) {
	mock := gateway.NewMockClient([]string{
		"I think the Creta is better overall!",
		"still not json",
		"third time is also prose",
	}, nil)
	m := NewMachine(mock, gateway.Options{})

	m.HandleTurn(context.Background(), "2")
	reply := m.HandleTurn(context.Background(), "Nexon vs Creta")

	if mock.CallCount() != 3 {
		t.Errorf("calls = %d, want 3 bounded attempts", mock.CallCount())
	}
	if !reply.RawFallback {
		t.Fatal("expected raw-text fallback reply")
	}
	if reply.Text != "third time is also prose" {
		t.Errorf("fallback text = %q, want last raw output verbatim", reply.Text)
	}
	if m.Stage() != StagePostComparison {
		t.Errorf("stage = %s, fallback display still completes the flow", m.Stage())
	}
}

func TestMachine_FlowSwitchPreservesPreferences(t *testing.T) {
	mock := gateway.NewMockClient([]string{comparisonJSON}, nil)
	m := NewMachine(mock, gateway.Options{})
	m.router = stubRouter{res: intent.General()}
	m.planner = stubPlanner{plan: func(_, _ string) PlanResult {
		return PlanResult{UpdatedPreferences: prefs.Update{BudgetMax: intPtr(900000)}}
	}}

	m.HandleTurn(context.Background(), "1")
	m.HandleTurn(context.Background(), "9 lakh")
	if m.Stage() != StageCollecting {
		t.Fatalf("stage = %s", m.Stage())
	}

	m.router = stubRouter{res: intent.Result{Intent: intent.IntentCompare, Models: []string{"Nexon", "Creta"}}}
	reply := m.HandleTurn(context.Background(), "actually, just compare Nexon and Creta for me")
	if m.Flow() != FlowCompare || m.Stage() != StagePostComparison {
		t.Fatalf("flow/stage = %s/%s, want compare/post_comparison", m.Flow(), m.Stage())
	}
	if reply.Comparison == nil {
		t.Fatal("expected comparison payload after mid-interview switch")
	}

	snap := m.Snapshot()
	if snap.BudgetMax == nil || *snap.BudgetMax != 900000 {
		t.Errorf("budget_max = %v, preferences must survive the flow switch", snap.BudgetMax)
	}
}

func TestMachine_RestartWipesState(t *testing.T) {
	mock := gateway.NewMockClient([]string{comparisonJSON}, nil)
	m := NewMachine(mock, gateway.Options{})

	m.HandleTurn(context.Background(), "2")
	m.HandleTurn(context.Background(), "Nexon vs Creta")

	reply := m.HandleTurn(context.Background(), "restart")
	if m.Flow() != FlowNone || m.Stage() != StageModeSelect {
		t.Errorf("flow/stage = %s/%s, want fresh mode select", m.Flow(), m.Stage())
	}
	if reply.Text != modePrompt {
		t.Errorf("reply = %q, want mode prompt", reply.Text)
	}
	if snap := m.Snapshot(); snap.BudgetMax != nil || len(snap.FuelPref) != 0 {
		t.Errorf("preferences not wiped: %+v", snap)
	}
	if got := m.Transcript(); len(got) != 1 || got[0].Speaker != SpeakerAssistant {
		t.Errorf("transcript after restart = %+v, want only the mode prompt", got)
	}
}

func TestMachine_CompareFollowupUsesPriorResult(t *testing.T) {
	mock := gateway.NewMockClient([]string{
		comparisonJSON,
		"The Nexon is safer thanks to its 5-star rating.",
	}, nil)
	m := NewMachine(mock, gateway.Options{})

	m.HandleTurn(context.Background(), "2")
	m.HandleTurn(context.Background(), "Nexon vs Creta")

	reply := m.HandleTurn(context.Background(), "Which one is safer?")
	if m.Stage() != StagePostComparison {
		t.Fatalf("stage = %s, follow-up must not leave post_comparison", m.Stage())
	}
	if reply.Comparison != nil {
		t.Error("lightweight follow-up must not regenerate the contract")
	}
	if !strings.Contains(reply.Text, "Nexon is safer") {
		t.Errorf("reply = %q", reply.Text)
	}

	// The follow-up request must carry the prior comparison as context.
	calls := mock.Calls()
	last := calls[len(calls)-1]
	if !strings.Contains(last[1].Content, `"winner":"Creta"`) {
		t.Errorf("follow-up payload missing prior result: %s", last[1].Content)
	}

	// A follow-up with two fresh names loops back into a comparison.
	m2 := NewMachine(gateway.NewMockClient([]string{comparisonJSON, comparisonJSON}, nil), gateway.Options{})
	m2.HandleTurn(context.Background(), "2")
	m2.HandleTurn(context.Background(), "Nexon vs Creta")
	m2.HandleTurn(context.Background(), "Seltos vs Grand Vitara")
	if m2.Stage() != StagePostComparison || m2.compareModels[0] != "Seltos" {
		t.Errorf("stage=%s models=%v, want fresh comparison", m2.Stage(), m2.compareModels)
	}
}

func TestMachine_TipsFlow(t *testing.T) {
	mock := gateway.NewMockClient([]string{
		"- negotiate on-road price\n- check service network",
		"- always test drive twice",
	}, nil)
	m := NewMachine(mock, gateway.Options{})
	m.router = stubRouter{res: intent.General()}

	reply := m.HandleTurn(context.Background(), "3")
	if m.Flow() != FlowTips || m.Stage() != StageTipsCollecting {
		t.Fatalf("flow/stage = %s/%s", m.Flow(), m.Stage())
	}
	if reply.Text != tipsQuestions[0] {
		t.Errorf("first tips question = %q", reply.Text)
	}

	answers := []string{"6 lakh", "Pune", "first car", "mostly city"}
	for _, a := range answers {
		reply = m.HandleTurn(context.Background(), a)
	}
	if m.Stage() != StagePostTips {
		t.Fatalf("stage = %s after all answers, want post_tips", m.Stage())
	}
	if !strings.Contains(reply.Text, "negotiate") {
		t.Errorf("tips reply = %q", reply.Text)
	}

	// Tips answers flow into the preference record where coercible.
	snap := m.Snapshot()
	if snap.City == nil || *snap.City != "Pune" {
		t.Errorf("city = %v, want Pune", snap.City)
	}

	// Follow-up regenerates over the grown transcript.
	reply = m.HandleTurn(context.Background(), "what about test drives?")
	if m.Stage() != StagePostTips || !strings.Contains(reply.Text, "test drive") {
		t.Errorf("stage=%s reply=%q", m.Stage(), reply.Text)
	}
}

func TestMachine_RecoFollowupKeepsSnapshot(t *testing.T) {
	mock := gateway.NewMockClient([]string{
		recommendationJSON,
		"The Baleno's boot fits two large suitcases.",
	}, nil)
	m := NewMachine(mock, gateway.Options{})
	m.router = stubRouter{res: intent.General()}
	m.planner = stubPlanner{plan: func(_, _ string) PlanResult {
		usage := prefs.UsageMixed
		return PlanResult{UpdatedPreferences: prefs.Update{
			BudgetMax: intPtr(900000),
			Usage:     &usage,
			FuelPref:  []prefs.FuelType{prefs.FuelPetrol},
			Priorities: []prefs.Priority{
				prefs.PriorityMileage,
			},
		}}
	}}

	m.HandleTurn(context.Background(), "1")
	m.HandleTurn(context.Background(), "900000, mixed, petrol, mileage first")
	if m.Stage() != StagePostRecommendation {
		t.Fatalf("stage = %s", m.Stage())
	}

	reply := m.HandleTurn(context.Background(), "How big is the boot?")
	if reply.Recommendation != nil {
		t.Error("lightweight follow-up must not regenerate the recommendation")
	}
	if snap := m.Snapshot(); snap.BudgetMax == nil || *snap.BudgetMax != 900000 {
		t.Errorf("snapshot lost after follow-up: %+v", snap)
	}

	calls := mock.Calls()
	last := calls[len(calls)-1]
	if !strings.Contains(last[1].Content, "Baleno") {
		t.Errorf("follow-up payload missing prior recommendation: %s", last[1].Content)
	}
}
