package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"carsage/internal/dialogue"
	"carsage/internal/prefs"
	"carsage/internal/replay"
	"carsage/internal/session"
	_ "modernc.org/sqlite"
)

// #region main

// fixture-export turns a recorded session into a replay fixture
// skeleton. Structured replies carry their contract JSON as the canned
// model response, so keyword-routed conversations replay as-is;
// turns that went through the model classifier or planner need their
// responses filled in by hand before the fixture passes.
func main() {
	dbPath := flag.String("db", "", "path to carsage.db")
	sessionID := flag.String("session", "", "session id to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *sessionID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/carsage.db --session id --out path/to/fixture.json")
		os.Exit(2)
	}

	if err := run(*dbPath, *sessionID, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, sessionID, outPath string) error {
	store, err := session.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	row, err := store.GetSession(sessionID)
	if err != nil {
		return err
	}
	turns, err := store.ListTurns(sessionID)
	if err != nil {
		return err
	}

	var mem dialogue.Memento
	if err := json.Unmarshal([]byte(row.StateJSON), &mem); err != nil {
		return fmt.Errorf("parse state: %w", err)
	}

	fixture := replay.Fixture{
		Description: fmt.Sprintf("exported from session %s", sessionID),
		Turns:       buildTurns(turns),
		Expected: replay.FixtureExpected{
			Flow:      row.Flow,
			Stage:     row.Stage,
			SetFields: setFields(mem.Preferences),
		},
	}
	if len(fixture.Turns) == 0 {
		return fmt.Errorf("session %s has no user turns", sessionID)
	}

	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	fmt.Printf("exported %d turn(s) to %s\n", len(fixture.Turns), outPath)
	return nil
}

// buildTurns groups the transcript into user turns, attaching each
// structured assistant payload as that turn's canned model response.
func buildTurns(turns []session.TurnRow) []replay.FixtureTurn {
	var out []replay.FixtureTurn
	for _, t := range turns {
		switch dialogue.Speaker(t.Speaker) {
		case dialogue.SpeakerUser:
			out = append(out, replay.FixtureTurn{UserText: t.Text})
		case dialogue.SpeakerAssistant:
			if len(out) == 0 || t.PayloadJSON == "" {
				continue
			}
			last := &out[len(out)-1]
			last.ModelResponses = append(last.ModelResponses, t.PayloadJSON)
		}
	}
	return out
}

func setFields(p prefs.Preferences) []string {
	var out []string
	for _, f := range prefs.CollectionOrder {
		if p.IsSet(f) {
			out = append(out, string(f))
		}
	}
	return out
}

// #endregion export
