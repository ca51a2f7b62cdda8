package contract

import (
	"encoding/json"
	"strings"
)

// #region extract

// ExtractRecommendation parses raw model text into a RecommendationSet.
// Total: it never fails past its boundary. On any parse failure the
// result carries Parsed=false and the original text verbatim.
func ExtractRecommendation(raw string) RecommendationResult {
	var set RecommendationSet
	if UnmarshalLoose(raw, &set) {
		normalizeRecommendation(&set)
		return RecommendationResult{Parsed: true, Set: set, Raw: raw}
	}
	return RecommendationResult{Parsed: false, Raw: raw}
}

// ExtractComparison parses raw model text into a ComparisonSet with the
// same total-function guarantee as ExtractRecommendation.
func ExtractComparison(raw string) ComparisonResult {
	var set ComparisonSet
	if UnmarshalLoose(raw, &set) {
		normalizeComparison(&set)
		return ComparisonResult{Parsed: true, Set: set, Raw: raw}
	}
	return ComparisonResult{Parsed: false, Raw: raw}
}

// #endregion

// #region loose-unmarshal

// UnmarshalLoose tries the full text first, then the first balanced
// top-level JSON object embedded in surrounding prose. It reports
// whether either attempt produced a decodable object. Only objects
// count: bare tokens like null or true decode without error but carry
// no contract, so they take the fallback path.
func UnmarshalLoose(raw string, v interface{}) bool {
	if trimmed := strings.TrimSpace(raw); strings.HasPrefix(trimmed, "{") &&
		json.Unmarshal([]byte(trimmed), v) == nil {
		return true
	}
	obj, ok := firstObject(raw)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(obj), v) == nil
}

// firstObject scans for the first balanced-brace object substring.
// Braces inside JSON strings are skipped.
func firstObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// #endregion

// #region defaults

// A structured object missing expected keys is partially valid; callers
// see empty slices rather than nils they must branch on.

func normalizeRecommendation(set *RecommendationSet) {
	if set.Cars == nil {
		set.Cars = []RecommendedCar{}
	}
	for i := range set.Cars {
		if set.Cars[i].Pros == nil {
			set.Cars[i].Pros = []string{}
		}
		if set.Cars[i].Cons == nil {
			set.Cars[i].Cons = []string{}
		}
	}
	if set.CheaperAlternatives == nil {
		set.CheaperAlternatives = []string{}
	}
	if set.PremiumAlternatives == nil {
		set.PremiumAlternatives = []string{}
	}
}

func normalizeComparison(set *ComparisonSet) {
	if set.Cars == nil {
		set.Cars = []ComparedCar{}
	}
	for i := range set.Cars {
		if set.Cars[i].Pros == nil {
			set.Cars[i].Pros = []string{}
		}
		if set.Cars[i].Cons == nil {
			set.Cars[i].Cons = []string{}
		}
	}
}

// #endregion
