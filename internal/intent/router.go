package intent

import (
	"context"
	"log"
	"strings"

	"carsage/internal/contract"
	"carsage/internal/gateway"
)

// #region prompt

const routerSystemPrompt = `You classify the user's intent for a car-buying assistant.

Return ONLY JSON:
{
 "intent": "recommend" | "compare" | "tips" | "general" | "restart",
 "models": []
}

"models" lists any car model names mentioned. No extra text.`

// #endregion

// #region keywords

// Keyword fast paths for utterances that do not need a model call.
// Matching runs on the normalized utterance.

var restartPhrases = []string{
	"restart", "start over", "start again", "reset", "new search",
	"begin again", "from scratch",
}

var compareMarkers = []string{
	" vs ", " vs. ", " versus ", "compare ", "comparison between",
	"which is better", "which one is better",
}

var tipsMarkers = []string{
	"buying tips", "tips for buying", "car buying tips", "any tips",
	"advice for buying", "test drive tips",
}

// #endregion

// #region router

// Router classifies one utterance into exactly one intent. Stateless by
// design: it never consults preferences or transcript, so it can run on
// every turn without feedback loops.
type Router struct {
	client gateway.Client
	opts   gateway.Options
}

// NewRouter creates a router backed by the given model client.
func NewRouter(client gateway.Client, opts gateway.Options) *Router {
	return &Router{client: client, opts: opts}
}

// #endregion

// #region route

// routerReply mirrors the JSON contract the classifier prompt demands.
type routerReply struct {
	Intent Intent   `json:"intent"`
	Models []string `json:"models"`
}

// Route returns the detected intent and any extracted model names.
// Advisory only, and total: a failed or unparseable classification
// degrades to general rather than aborting the conversation.
func (r *Router) Route(ctx context.Context, utterance string) Result {
	lower := normalize(utterance)

	if res, ok := keywordRoute(lower, utterance); ok {
		return res
	}

	raw, err := r.client.Complete(ctx, []gateway.ChatMessage{
		gateway.System(routerSystemPrompt),
		gateway.User(utterance),
	}, r.opts)
	if err != nil {
		log.Printf("[INTENT] classify failed, defaulting to general: %v", err)
		return General()
	}

	var reply routerReply
	if !contract.UnmarshalLoose(raw, &reply) || !reply.Intent.valid() {
		log.Printf("[INTENT] unparseable classification %q, defaulting to general", raw)
		return General()
	}

	return Result{Intent: reply.Intent, Models: reply.Models}
}

// keywordRoute short-circuits unambiguous utterances. entities come
// from the original (non-normalized) text so casing survives.
func keywordRoute(lower, original string) (Result, bool) {
	for _, p := range restartPhrases {
		if lower == p || strings.HasPrefix(lower, p+" ") {
			return Result{Intent: IntentRestart}, true
		}
	}
	for _, m := range compareMarkers {
		if strings.Contains(" "+lower+" ", m) || strings.HasPrefix(lower, strings.TrimSpace(m)+" ") {
			models := ParseModelList(StripCompareDirective(original))
			return Result{Intent: IntentCompare, Models: models}, true
		}
	}
	for _, m := range tipsMarkers {
		if strings.Contains(lower, m) {
			return Result{Intent: IntentTips}, true
		}
	}
	return Result{}, false
}

// #endregion
