package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"carsage/internal/config"
	"carsage/internal/contract"
	"carsage/internal/dialogue"
	"carsage/internal/gateway"
	"carsage/internal/session"
)

// #region main

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	client, closeClient, err := newClient(cfg)
	if err != nil {
		log.Fatalf("gateway: %v", err)
	}
	defer closeClient()

	store, err := session.NewStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	opts := gateway.Options{Model: cfg.Model, Temperature: cfg.Temperature}
	mgr, err := session.NewManager(client, opts, store, cfg.MaxLiveSessions)
	if err != nil {
		log.Fatalf("session manager: %v", err)
	}

	id, greeting, err := mgr.Create(context.Background())
	if err != nil {
		log.Fatalf("create session: %v", err)
	}

	fmt.Println("Car buying consultant ready.")
	fmt.Printf("  Provider: %s | Model: %s | DB: %s\n", cfg.Provider, cfg.Model, cfg.DatabasePath)
	fmt.Println("Type a message (or 'quit' to exit):")
	fmt.Println()
	fmt.Println(greeting.Text)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		reply, err := mgr.Handle(ctx, id, text)
		cancel()
		if err != nil {
			log.Printf("turn error: %v", err)
			continue
		}

		render(reply)
	}
}

// #endregion main

// #region client

func newClient(cfg *config.Config) (gateway.Client, func(), error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		g, err := gateway.NewGeminiClient(context.Background(), float64(cfg.RequestsPerMinute))
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		c := gateway.NewOpenRouterClient(cfg.APIKey, float64(cfg.RequestsPerMinute), cfg.RequestTimeout, slog.Default())
		return c, c.Close, nil
	}
}

// #endregion client

// #region render

func render(reply dialogue.Reply) {
	fmt.Println()
	if reply.Recommendation != nil {
		renderRecommendation(reply.Recommendation)
	}
	if reply.Comparison != nil {
		renderComparison(reply.Comparison)
	}
	fmt.Println(reply.Text)
	if reply.Profile != "" {
		fmt.Printf("\n[profile] %s\n", reply.Profile)
	}
	fmt.Println()
}

func renderRecommendation(set *contract.RecommendationSet) {
	for i, car := range set.Cars {
		fmt.Printf("%d. %s (%s, %s)\n", i+1, car.Name, car.Segment, car.PriceBand)
		fmt.Printf("   %s\n", car.Summary)
		if len(car.Pros) > 0 {
			fmt.Printf("   + %s\n", strings.Join(car.Pros, "; "))
		}
		if len(car.Cons) > 0 {
			fmt.Printf("   - %s\n", strings.Join(car.Cons, "; "))
		}
		if car.IdealFor != "" {
			fmt.Printf("   ideal for: %s\n", car.IdealFor)
		}
	}
	if len(set.CheaperAlternatives) > 0 {
		fmt.Printf("Cheaper: %s\n", strings.Join(set.CheaperAlternatives, ", "))
	}
	if len(set.PremiumAlternatives) > 0 {
		fmt.Printf("Premium: %s\n", strings.Join(set.PremiumAlternatives, ", "))
	}
	fmt.Println()
}

func renderComparison(set *contract.ComparisonSet) {
	for _, car := range set.Cars {
		fmt.Printf("%s: %s\n", car.Name, car.Summary)
		if len(car.Pros) > 0 {
			fmt.Printf("   + %s\n", strings.Join(car.Pros, "; "))
		}
		if len(car.Cons) > 0 {
			fmt.Printf("   - %s\n", strings.Join(car.Cons, "; "))
		}
	}
	fmt.Println()
}

// #endregion render
