package prefs

import (
	"fmt"
	"strconv"
	"strings"
)

// #region store

// Store holds and mutates the preference record for one session.
// Not safe for concurrent use; the session layer serializes turns.
type Store struct {
	current Preferences
}

// NewStore creates an empty preference store. No field carries a
// default guess.
func NewStore() *Store {
	return &Store{}
}

// #endregion

// #region set

// Set stores a raw string answer under a known field. Only type
// coercion happens here; semantic normalization of fuzzy phrasing is
// the planner's job. Out-of-range values are accepted as-is.
func (s *Store) Set(field Field, raw string) error {
	raw = strings.TrimSpace(raw)
	switch field {
	case FieldBudgetMin:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("set %s: %w", field, err)
		}
		s.current.BudgetMin = &n
	case FieldBudgetMax:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("set %s: %w", field, err)
		}
		s.current.BudgetMax = &n
	case FieldCity:
		s.current.City = &raw
	case FieldUsage:
		u := UsageType(strings.ToLower(raw))
		s.current.Usage = &u
	case FieldDailyKM:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("set %s: %w", field, err)
		}
		s.current.DailyKM = &n
	case FieldFamilySize:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("set %s: %w", field, err)
		}
		s.current.FamilySize = &n
	case FieldFuelPref:
		var fuels []FuelType
		for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '/' }) {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				fuels = append(fuels, FuelType(part))
			}
		}
		s.current.FuelPref = fuels
	case FieldTransmission:
		t := TransmissionType(strings.ToLower(raw))
		s.current.Transmission = &t
	case FieldPriorities:
		var ps []Priority
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				ps = append(ps, Priority(part))
			}
		}
		s.current.Priorities = ps
	default:
		return fmt.Errorf("set: unknown field %q", field)
	}
	return nil
}

// #endregion

// #region merge

// Merge applies a sparse update. Present fields overwrite the stored
// value (last write wins), absent fields are left untouched.
func (s *Store) Merge(u Update) {
	if u.BudgetMin != nil {
		s.current.BudgetMin = u.BudgetMin
	}
	if u.BudgetMax != nil {
		s.current.BudgetMax = u.BudgetMax
	}
	if u.City != nil {
		s.current.City = u.City
	}
	if u.Usage != nil {
		s.current.Usage = u.Usage
	}
	if u.DailyKM != nil {
		s.current.DailyKM = u.DailyKM
	}
	if u.FamilySize != nil {
		s.current.FamilySize = u.FamilySize
	}
	if len(u.FuelPref) > 0 {
		s.current.FuelPref = append([]FuelType(nil), u.FuelPref...)
	}
	if u.Transmission != nil {
		s.current.Transmission = u.Transmission
	}
	if len(u.Priorities) > 0 {
		s.current.Priorities = append([]Priority(nil), u.Priorities...)
	}
}

// #endregion

// #region snapshot

// Snapshot returns a deep copy for prompt building. Mutating the copy
// never affects the store.
func (s *Store) Snapshot() Preferences {
	out := s.current
	if s.current.BudgetMin != nil {
		v := *s.current.BudgetMin
		out.BudgetMin = &v
	}
	if s.current.BudgetMax != nil {
		v := *s.current.BudgetMax
		out.BudgetMax = &v
	}
	if s.current.City != nil {
		v := *s.current.City
		out.City = &v
	}
	if s.current.Usage != nil {
		v := *s.current.Usage
		out.Usage = &v
	}
	if s.current.DailyKM != nil {
		v := *s.current.DailyKM
		out.DailyKM = &v
	}
	if s.current.FamilySize != nil {
		v := *s.current.FamilySize
		out.FamilySize = &v
	}
	if s.current.FuelPref != nil {
		out.FuelPref = append([]FuelType(nil), s.current.FuelPref...)
	}
	if s.current.Transmission != nil {
		v := *s.current.Transmission
		out.Transmission = &v
	}
	if s.current.Priorities != nil {
		out.Priorities = append([]Priority(nil), s.current.Priorities...)
	}
	return out
}

// Reset wipes every field back to unset.
func (s *Store) Reset() {
	s.current = Preferences{}
}

// Restore replaces the record wholesale, used when rehydrating a
// persisted session. The store keeps its own copy.
func (s *Store) Restore(p Preferences) {
	tmp := Store{current: p}
	s.current = tmp.Snapshot()
}

// #endregion

// #region completeness

// IsSet reports whether a field has been answered.
func (p Preferences) IsSet(field Field) bool {
	switch field {
	case FieldBudgetMin:
		return p.BudgetMin != nil
	case FieldBudgetMax:
		return p.BudgetMax != nil
	case FieldCity:
		return p.City != nil
	case FieldUsage:
		return p.Usage != nil
	case FieldDailyKM:
		return p.DailyKM != nil
	case FieldFamilySize:
		return p.FamilySize != nil
	case FieldFuelPref:
		return len(p.FuelPref) > 0
	case FieldTransmission:
		return p.Transmission != nil
	case FieldPriorities:
		return len(p.Priorities) > 0
	}
	return false
}

// NextUnset returns the first field in CollectionOrder without a value,
// or "" when the interview has covered everything.
func (p Preferences) NextUnset() Field {
	for _, f := range CollectionOrder {
		if !p.IsSet(f) {
			return f
		}
	}
	return ""
}

// ReadyToRecommend is the explicit enough-information rule: budget
// ceiling, usage pattern, fuel shortlist, and at least one of
// transmission or priorities. Optional fields may stay unset.
func (p Preferences) ReadyToRecommend() bool {
	if p.BudgetMax == nil || p.Usage == nil || len(p.FuelPref) == 0 {
		return false
	}
	return p.Transmission != nil || len(p.Priorities) > 0
}

// #endregion

// #region summary

// Summary renders the set fields as short "key: value" lines, the
// profile panel equivalent of the chat UI sidebar.
func (p Preferences) Summary() string {
	var b strings.Builder
	line := func(k, v string) {
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	if p.BudgetMin != nil && p.BudgetMax != nil {
		line("budget", fmt.Sprintf("%d-%d", *p.BudgetMin, *p.BudgetMax))
	} else if p.BudgetMax != nil {
		line("budget", fmt.Sprintf("up to %d", *p.BudgetMax))
	}
	if p.City != nil {
		line("city", *p.City)
	}
	if p.Usage != nil {
		line("usage", string(*p.Usage))
	}
	if p.DailyKM != nil {
		line("daily km", strconv.Itoa(*p.DailyKM))
	}
	if p.FamilySize != nil {
		line("family size", strconv.Itoa(*p.FamilySize))
	}
	if len(p.FuelPref) > 0 {
		parts := make([]string, len(p.FuelPref))
		for i, f := range p.FuelPref {
			parts[i] = string(f)
		}
		line("fuel", strings.Join(parts, ", "))
	}
	if p.Transmission != nil {
		line("transmission", string(*p.Transmission))
	}
	if len(p.Priorities) > 0 {
		parts := make([]string, len(p.Priorities))
		for i, pr := range p.Priorities {
			parts[i] = string(pr)
		}
		line("priorities", strings.Join(parts, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// #endregion
