package model

import "fmt"

// Canonical feature names, in model input order.
const (
	FeatureEnergyUsage = "energy_usage_kwh"
	FeatureFuel        = "fuel_consumption_liters"
	FeatureDistance    = "distance_traveled_km"
	FeatureWaste       = "waste_generated_kg"
	FeatureCompanySize = "company_size"
)

// DefaultCompanySize is used when the uploaded data carries no company size.
const DefaultCompanySize = 10

// FeatureNames is the fixed canonical column order every agent agrees on.
var FeatureNames = []string{
	FeatureEnergyUsage,
	FeatureFuel,
	FeatureDistance,
	FeatureWaste,
	FeatureCompanySize,
}

// FeatureVector is one canonical record of operational metrics.
type FeatureVector struct {
	EnergyUsageKWh        float64 `json:"energy_usage_kwh"`
	FuelConsumptionLiters float64 `json:"fuel_consumption_liters"`
	DistanceTraveledKM    float64 `json:"distance_traveled_km"`
	WasteGeneratedKG      float64 `json:"waste_generated_kg"`
	CompanySize           int     `json:"company_size"`
}

// DefaultFeatureVector returns the vector used when no column is present.
func DefaultFeatureVector() FeatureVector {
	return FeatureVector{CompanySize: DefaultCompanySize}
}

// Values returns the features in FeatureNames order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.EnergyUsageKWh,
		f.FuelConsumptionLiters,
		f.DistanceTraveledKM,
		f.WasteGeneratedKG,
		float64(f.CompanySize),
	}
}

// Map returns the features keyed by canonical name.
func (f FeatureVector) Map() map[string]float64 {
	vals := f.Values()
	m := make(map[string]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		m[name] = vals[i]
	}
	return m
}

// String renders the vector in canonical order, e.g. for prompts.
func (f FeatureVector) String() string {
	return fmt.Sprintf("%s=%.2f, %s=%.2f, %s=%.2f, %s=%.2f, %s=%d",
		FeatureEnergyUsage, f.EnergyUsageKWh,
		FeatureFuel, f.FuelConsumptionLiters,
		FeatureDistance, f.DistanceTraveledKM,
		FeatureWaste, f.WasteGeneratedKG,
		FeatureCompanySize, f.CompanySize,
	)
}

// PredictionResult is the emission estimate together with its explanation.
type PredictionResult struct {
	EmissionKG  float64 `json:"emission_kg"`
	Explanation string  `json:"explanation"`
}

// OptimizationSuggestion is one reduction strategy.
type OptimizationSuggestion struct {
	Category          string  `json:"category"`
	Suggestion        string  `json:"suggestion"`
	PotentialSavingKG float64 `json:"potential_saving_kg"`
}

// OptimizationBundle is the ordered suggestion list with its total saving.
type OptimizationBundle struct {
	Suggestions           []OptimizationSuggestion `json:"suggestions"`
	TotalPotentialSavings float64                  `json:"total_potential_savings"`
}

// NewOptimizationBundle sums the savings of the given suggestions.
func NewOptimizationBundle(suggestions []OptimizationSuggestion) OptimizationBundle {
	var total float64
	for _, s := range suggestions {
		total += s.PotentialSavingKG
	}
	return OptimizationBundle{Suggestions: suggestions, TotalPotentialSavings: total}
}
