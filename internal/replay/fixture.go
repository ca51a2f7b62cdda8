package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a
// scripted conversation plus the state it must end in.
type Fixture struct {
	Description string          `json:"description"`
	Turns       []FixtureTurn   `json:"turns"`
	Expected    FixtureExpected `json:"expected"`
}

// FixtureTurn is one scripted user utterance. ModelResponses are the
// canned completions this turn consumes, in call order (classifier
// first if the utterance needs one, then planner or flow request,
// then retries). A turn that resolves via keyword routing alone may
// list none.
type FixtureTurn struct {
	UserText       string   `json:"user_text"`
	ModelResponses []string `json:"model_responses,omitempty"`
}

// FixtureExpected captures where the conversation must land.
type FixtureExpected struct {
	Flow      string   `json:"flow"`
	Stage     string   `json:"stage"`
	SetFields []string `json:"set_fields,omitempty"`
	// FinalTextContains, when non-empty, must appear in the last reply.
	FinalTextContains string `json:"final_text_contains,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Turns) == 0 {
		return nil, fmt.Errorf("fixture %s: no turns", path)
	}
	return &f, nil
}

// #endregion fixture-loader
