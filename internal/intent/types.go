package intent

// #region intent

// Intent is the discrete category a free-text utterance routes to.
type Intent string

const (
	IntentRecommend Intent = "recommend"
	IntentCompare   Intent = "compare"
	IntentTips      Intent = "tips"
	IntentGeneral   Intent = "general"
	IntentRestart   Intent = "restart"
)

// valid reports whether the model returned a known intent string.
func (i Intent) valid() bool {
	switch i {
	case IntentRecommend, IntentCompare, IntentTips, IntentGeneral, IntentRestart:
		return true
	}
	return false
}

// #endregion

// #region result

// Result is the router's advisory output. The dialogue machine decides
// whether to honor a detected flow switch.
type Result struct {
	Intent Intent
	Models []string // model names mentioned, populated for compare
}

// General is the safe default when classification cannot be trusted.
func General() Result {
	return Result{Intent: IntentGeneral}
}

// #endregion
