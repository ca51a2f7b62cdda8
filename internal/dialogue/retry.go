package dialogue

import (
	"context"
	"fmt"
	"log"

	"carsage/internal/gateway"
)

// #region constants

// maxAttempts bounds contract-mismatch retries: 1 call + 2 retries.
const maxAttempts = 3

// #endregion

// #region attempt

// Attempt records one completion try for a structured request.
type Attempt struct {
	Raw    string
	Parsed bool
}

// #endregion

// #region request-with-retry

// completeWithRetry calls the gateway until parse accepts the output or
// attempts run out. Retries happen ONLY for contract mismatch; a
// transport error fails fast with the attempts so far.
//
// The returned attempts are never empty on nil error: the last one is
// either parsed or the raw-text fallback the caller must display.
func completeWithRetry(
	ctx context.Context,
	client gateway.Client,
	messages []gateway.ChatMessage,
	opts gateway.Options,
	parse func(raw string) bool,
) ([]Attempt, error) {
	var attempts []Attempt

	for i := 0; i < maxAttempts; i++ {
		raw, err := client.Complete(ctx, messages, opts)
		if err != nil {
			return attempts, fmt.Errorf("attempt %d: %w", i+1, err)
		}

		parsed := parse(raw)
		attempts = append(attempts, Attempt{Raw: raw, Parsed: parsed})
		if parsed {
			return attempts, nil
		}
		log.Printf("[DIALOGUE] contract mismatch on attempt %d/%d, retrying", i+1, maxAttempts)
	}

	log.Printf("[DIALOGUE] retries exhausted, falling back to raw text")
	return attempts, nil
}

// #endregion
