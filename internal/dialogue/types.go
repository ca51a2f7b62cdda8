package dialogue

import (
	"carsage/internal/contract"
	"carsage/internal/prefs"
)

// #region flow

// Flow is one of the top-level conversational modes.
type Flow string

const (
	FlowNone    Flow = ""
	FlowGuided  Flow = "guided"
	FlowCompare Flow = "compare"
	FlowTips    Flow = "tips"
)

// #endregion

// #region stage

// Stage names where the state machine currently sits. Exactly one flow
// and one stage are active at a time.
type Stage string

const (
	StageModeSelect Stage = "mode_select"

	// guided track
	StageCollecting         Stage = "collecting"
	StageReadyToRecommend   Stage = "ready_to_recommend"
	StagePostRecommendation Stage = "post_recommendation"

	// compare track
	StageAwaitingModels Stage = "awaiting_models"
	StageReadyToCompare Stage = "ready_to_compare"
	StagePostComparison Stage = "post_comparison"

	// tips track
	StageTipsCollecting Stage = "tips_collecting"
	StageReadyForTips   Stage = "ready_for_tips"
	StagePostTips       Stage = "post_tips"
)

// #endregion

// #region turns

// Speaker tags one side of a conversation turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one message in the append-only transcript. Consecutive
// same-speaker turns are legal (a card render followed by a question).
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
	// PayloadJSON carries the serialized structured result when the
	// turn rendered one. Empty otherwise.
	PayloadJSON string `json:"payload_json,omitempty"`
}

// #endregion

// #region reply

// Reply is what one processed user turn hands back to the surface.
type Reply struct {
	Text           string
	Recommendation *contract.RecommendationSet
	Comparison     *contract.ComparisonSet
	RawFallback    bool // Text is verbatim model output that failed its contract
	Err            bool // Text describes a transport failure; stage did not advance
	Flow           Flow
	Stage          Stage
	Profile        string // human-readable preference summary, may be empty
}

// #endregion

// #region questions

// guided interview questions, keyed by preference field, asked in
// prefs.CollectionOrder.
var guidedQuestions = map[prefs.Field]string{
	prefs.FieldBudgetMax:    "What is your budget? (e.g. 6-8 lakh)",
	prefs.FieldCity:         "Which city do you live in?",
	prefs.FieldFamilySize:   "How many people travel with you usually?",
	prefs.FieldDailyKM:      "How many km do you drive per day?",
	prefs.FieldUsage:        "City, highway, or mixed usage?",
	prefs.FieldFuelPref:     "Fuel preference (petrol/diesel/CNG/electric)?",
	prefs.FieldTransmission: "Transmission (manual/automatic)?",
	prefs.FieldPriorities:   "Top priority: mileage, safety, comfort, features, or maintenance?",
}

// tips track asks a short fixed set before generating advice.
var tipsQuestions = []string{
	"What is your rough budget?",
	"Which city will you mostly drive in?",
	"Is this your first car or an upgrade?",
	"Will you drive mostly in city, on highways, or mixed?",
}

const modePrompt = "How can I help you today? You can say:\n" +
	"1. Guide me to choose a car\n" +
	"2. Compare models\n" +
	"3. Car buying tips"

const askModelsPrompt = "Which models do you want to compare? (e.g. Baleno vs i20, up to 4)"

// #endregion
