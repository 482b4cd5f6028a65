package calc

// WaterMethod selects how the calculation service derives water.
type WaterMethod string

const (
	WaterPercent       WaterMethod = "percent"
	WaterConcentration WaterMethod = "concentration"
	WaterRatio         WaterMethod = "ratio"
)

// ParseWaterMethod resolves a label, defaulting to percent of oils.
func ParseWaterMethod(label string) WaterMethod {
	switch WaterMethod(label) {
	case WaterConcentration, WaterRatio:
		return WaterMethod(label)
	default:
		return WaterPercent
	}
}

// Oil is one oil line sent for calculation. Optional chemistry fields come
// from the ingredient catalog when the row is linked to an ingredient.
type Oil struct {
	Name             string             `json:"name,omitempty"`
	WeightBase       float64            `json:"weight_base"`
	SAPValue         *float64           `json:"sap_value,omitempty"`
	IodineValue      *float64           `json:"iodine_value,omitempty"`
	FattyAcidProfile map[string]float64 `json:"fatty_acid_profile,omitempty"`
}

// Fragrance is one fragrance line sent for calculation.
type Fragrance struct {
	Name       string  `json:"name,omitempty"`
	WeightBase float64 `json:"weight_base"`
	Percent    float64 `json:"percent"`
}

// LyeSelection configures the lye.
type LyeSelection struct {
	Type     string  `json:"type"`
	Superfat float64 `json:"superfat"`
	Purity   float64 `json:"purity"`
}

// Request is the calculation service payload.
type Request struct {
	Oils                []Oil              `json:"oils"`
	Fragrances          []Fragrance        `json:"fragrances"`
	AdditivePercentages map[string]float64 `json:"additive_percentages"`
	LyeSelection        LyeSelection       `json:"lye_selection"`
	WaterMethod         WaterMethod        `json:"water_method"`
	WaterParams         map[string]float64 `json:"water_params"`
}

// Response is the calculation service result. The payload fields the
// workbench does not interpret are kept as raw JSON values.
type Response struct {
	TotalOilsBase       float64            `json:"total_oils_base"`
	LyeAdjustedBase     float64            `json:"lye_adjusted_base"`
	WaterBase           float64            `json:"water_base"`
	LyeConcentrationPct float64            `json:"lye_concentration_pct"`
	WaterToLyeRatio     float64            `json:"water_to_lye_ratio"`
	AdditiveOutputs     map[string]float64 `json:"additive_outputs"`
	QualityReport       map[string]any     `json:"quality_report"`
	ExportPayload       map[string]any     `json:"export_payload"`
}
