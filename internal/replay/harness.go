package replay

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"carsage/internal/dialogue"
	"carsage/internal/gateway"
	"carsage/internal/prefs"
)

// #region scripted-client

// scriptedClient serves canned completions loaded per turn. Running
// out of script is surfaced as an empty-completion error, which the
// machine reports as a transport failure, so an under-scripted fixture
// fails loudly instead of looping.
type scriptedClient struct {
	mu    sync.Mutex
	queue []string
}

func (c *scriptedClient) load(responses []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue[:0], responses...)
}

func (c *scriptedClient) Complete(_ context.Context, _ []gateway.ChatMessage, _ gateway.Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return "", fmt.Errorf("fixture script exhausted: %w", gateway.ErrEmptyCompletion)
	}
	head := c.queue[0]
	c.queue = c.queue[1:]
	return head, nil
}

// #endregion scripted-client

// #region results

// TurnResult captures the outcome of replaying one scripted turn.
type TurnResult struct {
	UserText    string
	ReplyText   string
	Flow        dialogue.Flow
	Stage       dialogue.Stage
	RawFallback bool
	Err         bool
}

// Summary aggregates a full replay run. Mismatches lists every way the
// final state diverged from the fixture's expectations; empty means
// the fixture passed.
type Summary struct {
	Results     []TurnResult
	FinalFlow   dialogue.Flow
	FinalStage  dialogue.Stage
	Preferences prefs.Preferences
	Mismatches  []string
}

// Passed reports whether the run met every expectation.
func (s Summary) Passed() bool {
	return len(s.Mismatches) == 0
}

// #endregion results

// #region run

// Run drives a fresh machine through the fixture's scripted turns.
// Operates entirely in-memory; no network, no database.
func Run(ctx context.Context, f *Fixture) Summary {
	client := &scriptedClient{}
	machine := dialogue.NewMachine(client, gateway.Options{})
	machine.Greeting()

	results := make([]TurnResult, 0, len(f.Turns))
	var last dialogue.Reply
	for _, turn := range f.Turns {
		client.load(turn.ModelResponses)
		last = machine.HandleTurn(ctx, turn.UserText)
		results = append(results, TurnResult{
			UserText:    turn.UserText,
			ReplyText:   last.Text,
			Flow:        last.Flow,
			Stage:       last.Stage,
			RawFallback: last.RawFallback,
			Err:         last.Err,
		})
	}

	summary := Summary{
		Results:     results,
		FinalFlow:   machine.Flow(),
		FinalStage:  machine.Stage(),
		Preferences: machine.Snapshot(),
	}
	summary.Mismatches = check(f.Expected, summary, last)
	return summary
}

func check(want FixtureExpected, got Summary, last dialogue.Reply) []string {
	var out []string
	if want.Flow != "" && want.Flow != string(got.FinalFlow) {
		out = append(out, fmt.Sprintf("flow: want %s, got %s", want.Flow, got.FinalFlow))
	}
	if want.Stage != "" && want.Stage != string(got.FinalStage) {
		out = append(out, fmt.Sprintf("stage: want %s, got %s", want.Stage, got.FinalStage))
	}
	for _, field := range want.SetFields {
		if !got.Preferences.IsSet(prefs.Field(field)) {
			out = append(out, fmt.Sprintf("field %s: expected set", field))
		}
	}
	if want.FinalTextContains != "" && !strings.Contains(last.Text, want.FinalTextContains) {
		out = append(out, fmt.Sprintf("final text: %q not found in %q", want.FinalTextContains, last.Text))
	}
	return out
}

// #endregion run
