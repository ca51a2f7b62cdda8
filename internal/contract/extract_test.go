package contract

import (
	"reflect"
	"testing"
)

const comparisonJSON = `{
 "cars":[
   {"name":"Nexon","pros":["safety"],"cons":["stiff ride"],"summary":"Solid pick"},
   {"name":"Creta","pros":["space"],"cons":["price"],"summary":"Comfort king"}
 ],
 "winner":"Creta",
 "reason":"Better all-rounder"
}`

func TestExtractComparison_DirectJSON(t *testing.T) {
	res := ExtractComparison(comparisonJSON)
	if !res.Parsed {
		t.Fatal("expected parse success")
	}
	if res.Set.Winner != "Creta" {
		t.Errorf("winner = %q, want Creta", res.Set.Winner)
	}
	if len(res.Set.Cars) != 2 || res.Set.Cars[0].Name != "Nexon" {
		t.Errorf("cars = %+v", res.Set.Cars)
	}
}

func TestExtractComparison_EmbeddedInProse(t *testing.T) {
	wrapped := "Sure! Here is the comparison you asked for:\n" + comparisonJSON + "\nHope that helps."
	direct := ExtractComparison(comparisonJSON)
	embedded := ExtractComparison(wrapped)

	if !embedded.Parsed {
		t.Fatal("expected parse success for embedded JSON")
	}
	if !reflect.DeepEqual(direct.Set, embedded.Set) {
		t.Errorf("embedded parse = %+v, want same as direct %+v", embedded.Set, direct.Set)
	}
}

func TestExtractComparison_NonJSONFallsBackVerbatim(t *testing.T) {
	text := "I could not decide between these cars, sorry."
	res := ExtractComparison(text)
	if res.Parsed {
		t.Fatal("expected parse failure")
	}
	if res.Raw != text {
		t.Errorf("raw = %q, want original text preserved verbatim", res.Raw)
	}
}

func TestExtractComparison_BareTokensFallBackVerbatim(t *testing.T) {
	// null, true, and quoted strings decode as JSON but carry no
	// contract; they must take the raw-text path, not render an empty
	// winner.
	for _, text := range []string{"null", "true", `"no comparison available"`, "  null  "} {
		res := ExtractComparison(text)
		if res.Parsed {
			t.Errorf("ExtractComparison(%q): expected fallback", text)
		}
		if res.Raw != text {
			t.Errorf("ExtractComparison(%q): raw = %q, want verbatim", text, res.Raw)
		}
	}
}

func TestExtractComparison_BracesInsideStrings(t *testing.T) {
	tricky := `noise {"cars":[{"name":"i20","pros":["a {nested} brace"],"cons":[],"summary":"ok"}],"winner":"i20","reason":"only one"} trailing`
	res := ExtractComparison(tricky)
	if !res.Parsed {
		t.Fatal("expected parse success with braces inside string values")
	}
	if res.Set.Cars[0].Pros[0] != "a {nested} brace" {
		t.Errorf("pros = %v", res.Set.Cars[0].Pros)
	}
}

func TestExtractRecommendation_MissingKeysDefaulted(t *testing.T) {
	res := ExtractRecommendation(`{"cars":[{"name":"Baleno"}]}`)
	if !res.Parsed {
		t.Fatal("expected parse success")
	}
	car := res.Set.Cars[0]
	if car.Pros == nil || car.Cons == nil {
		t.Error("pros/cons must default to empty slices")
	}
	if res.Set.CheaperAlternatives == nil || res.Set.PremiumAlternatives == nil {
		t.Error("alternative lists must default to empty slices")
	}
	if res.Set.FollowupQuestion != "" {
		t.Errorf("followup_question = %q, want empty", res.Set.FollowupQuestion)
	}
}

func TestExtractRecommendation_FullShape(t *testing.T) {
	raw := `{
 "cars":[{"name":"Venue","segment":"compact SUV","summary":"s","pros":["p"],"cons":["c"],"price_band":"8-12L","ideal_for":"small families"}],
 "cheaper_alternatives":["Exter"],
 "premium_alternatives":["Creta"],
 "followup_question":"Want automatic variants only?"
}`
	res := ExtractRecommendation(raw)
	if !res.Parsed {
		t.Fatal("expected parse success")
	}
	if res.Set.Cars[0].PriceBand != "8-12L" || res.Set.Cars[0].IdealFor != "small families" {
		t.Errorf("car = %+v", res.Set.Cars[0])
	}
	if res.Set.CheaperAlternatives[0] != "Exter" || res.Set.PremiumAlternatives[0] != "Creta" {
		t.Errorf("alternatives = %v / %v", res.Set.CheaperAlternatives, res.Set.PremiumAlternatives)
	}
}

func TestFirstObject_NoObject(t *testing.T) {
	if _, ok := firstObject("no json here, just } a stray brace"); ok {
		t.Error("expected no object found")
	}
}
