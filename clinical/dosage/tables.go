package dosage

// StandardDosage is the reference dosing range for a medication.
type StandardDosage struct {
	MinDose     float64
	MaxDose     float64
	TypicalDose float64
	Unit        string
}

// OrganAdjustment holds the dose multipliers for the three impairment tiers
// of an organ function (renal or hepatic).
type OrganAdjustment struct {
	Severe   float64
	Moderate float64
	Mild     float64
}

// AgeAdjustment holds the per-medication elderly and pediatric multipliers.
type AgeAdjustment struct {
	ElderlyFactor   float64
	PediatricFactor float64
}

// WeightRule is a dose-per-kilogram rule. When present it replaces the
// running dose rather than multiplying it, clamped to MaxDose.
type WeightRule struct {
	DosePerKg float64
	MaxDose   float64
	Unit      string
}

// ReferenceTables holds all dosing reference data consulted by the analyzer.
// Loaded once per analyzer instance, never mutated.
type ReferenceTables struct {
	Standard map[string]StandardDosage
	Renal    map[string]OrganAdjustment
	Hepatic  map[string]OrganAdjustment
	Age      map[string]AgeAdjustment
	Weight   map[string]WeightRule
}

// DefaultTables returns the built-in dosing reference tables, keyed by
// normalized medication name.
func DefaultTables() ReferenceTables {
	return ReferenceTables{
		Standard: map[string]StandardDosage{
			"lisinopril":   {MinDose: 2.5, MaxDose: 40, TypicalDose: 10, Unit: "mg"},
			"metformin":    {MinDose: 500, MaxDose: 2550, TypicalDose: 1000, Unit: "mg"},
			"atorvastatin": {MinDose: 10, MaxDose: 80, TypicalDose: 20, Unit: "mg"},
			"amlodipine":   {MinDose: 2.5, MaxDose: 10, TypicalDose: 5, Unit: "mg"},
			"omeprazole":   {MinDose: 10, MaxDose: 40, TypicalDose: 20, Unit: "mg"},
			"enoxaparin":   {MinDose: 20, MaxDose: 100, TypicalDose: 40, Unit: "mg"},
			"heparin":      {MinDose: 1000, MaxDose: 10000, TypicalDose: 5000, Unit: "units"},
		},
		Renal: map[string]OrganAdjustment{
			// Severe 0.0 means contraindicated below 30 mL/min.
			"metformin":    {Severe: 0.0, Moderate: 0.5, Mild: 0.75},
			"lisinopril":   {Severe: 0.5, Moderate: 0.75, Mild: 0.9},
			"atorvastatin": {Severe: 0.5, Moderate: 0.75, Mild: 1.0},
		},
		Hepatic: map[string]OrganAdjustment{
			"atorvastatin": {Severe: 0.25, Moderate: 0.5, Mild: 0.75},
			"omeprazole":   {Severe: 0.5, Moderate: 0.75, Mild: 1.0},
		},
		Age: map[string]AgeAdjustment{
			"lisinopril": {ElderlyFactor: 0.75, PediatricFactor: 0.5},
			"metformin":  {ElderlyFactor: 0.8, PediatricFactor: 1.0},
		},
		Weight: map[string]WeightRule{
			"enoxaparin": {DosePerKg: 1.0, MaxDose: 100, Unit: "mg"},
			"heparin":    {DosePerKg: 80, MaxDose: 10000, Unit: "units"},
		},
	}
}
