package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"carsage/internal/dialogue"
	"carsage/internal/session"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to carsage.db")
	last := flag.Int("last", 20, "show N most recently active sessions")
	sessionID := flag.String("session", "", "show single session transcript and preferences")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/carsage.db [--last N] [--session id] [--json]")
		os.Exit(2)
	}

	store, err := session.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *sessionID != "" {
		err = runDetailMode(store, *sessionID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	SessionID string `json:"session_id"`
	Flow      string `json:"flow"`
	Stage     string `json:"stage"`
	Turns     int    `json:"turns"`
	UpdatedAt string `json:"updated_at"`
}

func runListMode(store *session.Store, last int, jsonOut bool) error {
	sessions, err := store.ListSessions(last)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	rows := make([]listRow, len(sessions))
	for i, s := range sessions {
		turns, err := store.ListTurns(s.SessionID)
		if err != nil {
			return err
		}
		rows[i] = listRow{
			SessionID: s.SessionID,
			Flow:      orDash(s.Flow),
			Stage:     s.Stage,
			Turns:     len(turns),
			UpdatedAt: s.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Printf("%-38s %-8s %-20s %6s  %s\n", "SESSION", "FLOW", "STAGE", "TURNS", "UPDATED")
	for _, r := range rows {
		fmt.Printf("%-38s %-8s %-20s %6d  %s\n", r.SessionID, r.Flow, r.Stage, r.Turns, r.UpdatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOut struct {
	SessionID string            `json:"session_id"`
	Flow      string            `json:"flow"`
	Stage     string            `json:"stage"`
	State     dialogue.Memento  `json:"state"`
	Turns     []session.TurnRow `json:"turns"`
}

func runDetailMode(store *session.Store, sessionID string, jsonOut bool) error {
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
		return fmt.Errorf("parse state for %s: %w", sessionID, err)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(detailOut{
			SessionID: row.SessionID,
			Flow:      row.Flow,
			Stage:     row.Stage,
			State:     mem,
			Turns:     turns,
		})
	}

	fmt.Printf("session  %s\n", row.SessionID)
	fmt.Printf("flow     %s\n", orDash(row.Flow))
	fmt.Printf("stage    %s\n", row.Stage)
	fmt.Printf("updated  %s\n", row.UpdatedAt.Format("2006-01-02 15:04:05"))

	prefsJSON, _ := json.MarshalIndent(mem.Preferences, "", "  ")
	fmt.Printf("\npreferences:\n%s\n", prefsJSON)

	fmt.Println("\ntranscript:")
	for _, t := range turns {
		fmt.Printf("  [%s] %s\n", t.Speaker, firstLine(t.Text))
		if t.PayloadJSON != "" {
			fmt.Printf("         payload: %s\n", truncate(t.PayloadJSON, 120))
		}
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// #endregion helpers
