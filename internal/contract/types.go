package contract

// #region kinds

// Kind identifies which wire shape a model reply must satisfy.
type Kind string

const (
	KindRecommendation Kind = "recommendation"
	KindComparison     Kind = "comparison"
	KindTips           Kind = "tips" // plain text, no JSON shape
)

// #endregion

// #region recommendation

// RecommendedCar is one entry in a recommendation set. Key names are
// the exact strings the model is instructed to emit.
type RecommendedCar struct {
	Name      string   `json:"name"`
	Segment   string   `json:"segment"`
	Summary   string   `json:"summary"`
	Pros      []string `json:"pros"`
	Cons      []string `json:"cons"`
	PriceBand string   `json:"price_band"`
	IdealFor  string   `json:"ideal_for"`
}

// RecommendationSet is the structured reply to a recommendation request.
type RecommendationSet struct {
	Cars                []RecommendedCar `json:"cars"`
	CheaperAlternatives []string         `json:"cheaper_alternatives"`
	PremiumAlternatives []string         `json:"premium_alternatives"`
	FollowupQuestion    string           `json:"followup_question"`
}

// #endregion

// #region comparison

// ComparedCar is one side of a head-to-head comparison.
type ComparedCar struct {
	Name    string   `json:"name"`
	Pros    []string `json:"pros"`
	Cons    []string `json:"cons"`
	Summary string   `json:"summary"`
}

// ComparisonSet is the structured reply to a comparison request.
type ComparisonSet struct {
	Cars   []ComparedCar `json:"cars"`
	Winner string        `json:"winner"`
	Reason string        `json:"reason"`
}

// #endregion

// #region results

// RecommendationResult pairs the parse outcome with the verbatim model
// text. When Parsed is false, Raw is the display fallback.
type RecommendationResult struct {
	Parsed bool
	Set    RecommendationSet
	Raw    string
}

// ComparisonResult is the comparison counterpart of RecommendationResult.
type ComparisonResult struct {
	Parsed bool
	Set    ComparisonSet
	Raw    string
}

// #endregion
