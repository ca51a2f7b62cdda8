package prefs

// #region field

// Field names a preference slot. Values match the JSON keys the
// question planner emits in updated_preferences.
type Field string

const (
	FieldBudgetMin    Field = "budget_min"
	FieldBudgetMax    Field = "budget_max"
	FieldCity         Field = "city"
	FieldUsage        Field = "usage"
	FieldDailyKM      Field = "daily_km"
	FieldFamilySize   Field = "family_size"
	FieldFuelPref     Field = "fuel_pref"
	FieldTransmission Field = "transmission"
	FieldPriorities   Field = "priorities"
)

// CollectionOrder is the fixed interview order for the guided track.
var CollectionOrder = []Field{
	FieldBudgetMax,
	FieldCity,
	FieldFamilySize,
	FieldDailyKM,
	FieldUsage,
	FieldFuelPref,
	FieldTransmission,
	FieldPriorities,
}

// #endregion

// #region enums

// UsageType describes the dominant driving pattern.
type UsageType string

const (
	UsageCity    UsageType = "city"
	UsageHighway UsageType = "highway"
	UsageMixed   UsageType = "mixed"
)

// FuelType is one acceptable fuel option.
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelCNG      FuelType = "cng"
	FuelElectric FuelType = "electric"
)

// TransmissionType is the gearbox preference.
type TransmissionType string

const (
	TransmissionManual    TransmissionType = "manual"
	TransmissionAutomatic TransmissionType = "automatic"
)

// Priority is one thing the buyer optimizes for.
type Priority string

const (
	PriorityMileage     Priority = "mileage"
	PrioritySafety      Priority = "safety"
	PriorityComfort     Priority = "comfort"
	PriorityFeatures    Priority = "features"
	PriorityMaintenance Priority = "maintenance"
	PriorityPerformance Priority = "performance"
)

// #endregion

// #region preferences

// Preferences is the accumulated understanding of the buyer's needs.
// Every field starts unset; nil means "never answered".
type Preferences struct {
	BudgetMin    *int              `json:"budget_min,omitempty"`
	BudgetMax    *int              `json:"budget_max,omitempty"`
	City         *string           `json:"city,omitempty"`
	Usage        *UsageType        `json:"usage,omitempty"`
	DailyKM      *int              `json:"daily_km,omitempty"`
	FamilySize   *int              `json:"family_size,omitempty"`
	FuelPref     []FuelType        `json:"fuel_pref,omitempty"`
	Transmission *TransmissionType `json:"transmission,omitempty"`
	Priorities   []Priority        `json:"priorities,omitempty"`
}

// Update is a sparse set of field changes. Present fields overwrite,
// absent fields leave the stored value untouched. It unmarshals
// directly from the planner's updated_preferences object.
type Update struct {
	BudgetMin    *int              `json:"budget_min,omitempty"`
	BudgetMax    *int              `json:"budget_max,omitempty"`
	City         *string           `json:"city,omitempty"`
	Usage        *UsageType        `json:"usage,omitempty"`
	DailyKM      *int              `json:"daily_km,omitempty"`
	FamilySize   *int              `json:"family_size,omitempty"`
	FuelPref     []FuelType        `json:"fuel_pref,omitempty"`
	Transmission *TransmissionType `json:"transmission,omitempty"`
	Priorities   []Priority        `json:"priorities,omitempty"`
}

// #endregion
