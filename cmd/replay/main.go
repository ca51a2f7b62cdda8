package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"carsage/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to conversation fixture JSON")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--json]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(2)
	}

	summary := replay.Run(context.Background(), fixture)

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
	} else {
		printSummary(fixture, summary)
	}

	if !summary.Passed() {
		os.Exit(1)
	}
}

// #endregion main

// #region output

func printSummary(fixture *replay.Fixture, summary replay.Summary) {
	if fixture.Description != "" {
		fmt.Printf("fixture: %s\n\n", fixture.Description)
	}

	for i, r := range summary.Results {
		status := "ok"
		if r.Err {
			status = "error"
		} else if r.RawFallback {
			status = "raw-fallback"
		}
		fmt.Printf("turn %d  [%s/%s] %s\n", i+1, r.Flow, r.Stage, status)
		fmt.Printf("  > %s\n", r.UserText)
		fmt.Printf("  < %s\n", firstLine(r.ReplyText))
	}

	prefsJSON, _ := json.Marshal(summary.Preferences)
	fmt.Printf("\nfinal: flow=%s stage=%s\n", summary.FinalFlow, summary.FinalStage)
	fmt.Printf("preferences: %s\n", prefsJSON)

	if summary.Passed() {
		fmt.Println("\nPASS")
		return
	}
	fmt.Println("\nFAIL")
	for _, m := range summary.Mismatches {
		fmt.Printf("  - %s\n", m)
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + " ..."
		}
	}
	return s
}

// #endregion output
