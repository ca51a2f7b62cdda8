package prefs

import (
	"testing"
)

func intPtr(n int) *int { return &n }

func TestStore_MergeOverwritesOnlyPresentFields(t *testing.T) {
	s := NewStore()
	city := "Pune"
	s.Merge(Update{BudgetMax: intPtr(800000), City: &city})

	usage := UsageCity
	s.Merge(Update{Usage: &usage, BudgetMax: intPtr(1000000)})

	snap := s.Snapshot()
	if snap.BudgetMax == nil || *snap.BudgetMax != 1000000 {
		t.Errorf("budget_max = %v, want 1000000 (last write wins)", snap.BudgetMax)
	}
	if snap.City == nil || *snap.City != "Pune" {
		t.Errorf("city = %v, want Pune (untouched by second merge)", snap.City)
	}
	if snap.Usage == nil || *snap.Usage != UsageCity {
		t.Errorf("usage = %v, want city", snap.Usage)
	}
	if snap.BudgetMin != nil || snap.DailyKM != nil || snap.FamilySize != nil {
		t.Error("unanswered fields must stay unset")
	}
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := NewStore()
	s.Merge(Update{BudgetMax: intPtr(900000), FuelPref: []FuelType{FuelPetrol}})

	snap := s.Snapshot()
	*snap.BudgetMax = 1
	snap.FuelPref[0] = FuelDiesel

	again := s.Snapshot()
	if *again.BudgetMax != 900000 {
		t.Errorf("budget_max = %d after mutating snapshot, want 900000", *again.BudgetMax)
	}
	if again.FuelPref[0] != FuelPetrol {
		t.Errorf("fuel_pref = %v after mutating snapshot, want petrol", again.FuelPref)
	}
}

func TestStore_SetCoercesTypes(t *testing.T) {
	s := NewStore()
	if err := s.Set(FieldBudgetMax, "750000"); err != nil {
		t.Fatalf("set budget_max: %v", err)
	}
	if err := s.Set(FieldFuelPref, "Petrol, CNG"); err != nil {
		t.Fatalf("set fuel_pref: %v", err)
	}
	if err := s.Set(FieldBudgetMax, "six lakh"); err == nil {
		t.Error("non-numeric budget should fail coercion")
	}

	snap := s.Snapshot()
	if *snap.BudgetMax != 750000 {
		t.Errorf("budget_max = %d, want 750000", *snap.BudgetMax)
	}
	if len(snap.FuelPref) != 2 || snap.FuelPref[0] != FuelPetrol || snap.FuelPref[1] != FuelCNG {
		t.Errorf("fuel_pref = %v, want [petrol cng]", snap.FuelPref)
	}
}

func TestStore_ResetClearsEverything(t *testing.T) {
	s := NewStore()
	city := "Delhi"
	tr := TransmissionAutomatic
	s.Merge(Update{
		BudgetMax:    intPtr(1200000),
		City:         &city,
		Transmission: &tr,
		Priorities:   []Priority{PrioritySafety},
	})
	s.Reset()

	snap := s.Snapshot()
	fresh := NewStore().Snapshot()
	if snap.Summary() != fresh.Summary() || snap.BudgetMax != nil || snap.City != nil {
		t.Errorf("reset store = %+v, want fresh", snap)
	}
}

func TestPreferences_ReadyToRecommend(t *testing.T) {
	usage := UsageMixed
	tr := TransmissionManual

	tests := []struct {
		name string
		p    Preferences
		want bool
	}{
		{"empty", Preferences{}, false},
		{
			"missing fuel",
			Preferences{BudgetMax: intPtr(900000), Usage: &usage, Transmission: &tr},
			false,
		},
		{
			"budget usage fuel transmission",
			Preferences{BudgetMax: intPtr(900000), Usage: &usage, FuelPref: []FuelType{FuelPetrol}, Transmission: &tr},
			true,
		},
		{
			"priorities instead of transmission",
			Preferences{BudgetMax: intPtr(900000), Usage: &usage, FuelPref: []FuelType{FuelPetrol}, Priorities: []Priority{PriorityMileage}},
			true,
		},
		{
			"budget usage fuel only",
			Preferences{BudgetMax: intPtr(900000), Usage: &usage, FuelPref: []FuelType{FuelPetrol}},
			false,
		},
	}

	for _, tt := range tests {
		if got := tt.p.ReadyToRecommend(); got != tt.want {
			t.Errorf("%s: ReadyToRecommend() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPreferences_NextUnsetFollowsCollectionOrder(t *testing.T) {
	p := Preferences{}
	if got := p.NextUnset(); got != FieldBudgetMax {
		t.Errorf("NextUnset() = %s, want budget_max first", got)
	}

	p.BudgetMax = intPtr(500000)
	if got := p.NextUnset(); got != FieldCity {
		t.Errorf("NextUnset() = %s, want city after budget", got)
	}
}
