package intent

import (
	"regexp"
	"strings"
)

// #region model-list

// maxCompareModels caps a comparison request.
const maxCompareModels = 4

var vsSeparator = regexp.MustCompile(`(?i)\bvs\.?\b`)

// ParseModelList splits an utterance like "Baleno vs i20" or
// "Creta, Seltos, Venue" into model names. Order is preserved, empties
// dropped, and the list capped at four entries.
func ParseModelList(text string) []string {
	text = vsSeparator.ReplaceAllString(text, ",")

	var models []string
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		models = append(models, part)
		if len(models) == maxCompareModels {
			break
		}
	}
	return models
}

// HasCompareSeparator reports whether the text contains an explicit
// "vs" separator, distinguishing "Creta vs Seltos" from a chatty
// follow-up that happens to contain a comma.
func HasCompareSeparator(text string) bool {
	return vsSeparator.MatchString(text)
}

// StripCompareDirective removes leading verbiage like "compare" so the
// model-list parser sees only names.
func StripCompareDirective(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, prefix := range []string{"Compare", "compare", "COMPARE"} {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
	}
	return trimmed
}

// #endregion
