package types

// CostLine is a single line of the fleet cost estimate
type CostLine struct {
	Name       string  `json:"name"`
	Size       string  `json:"size"`
	HourlyUSD  float64 `json:"hourly_usd"`
	MonthlyUSD float64 `json:"monthly_usd"`
	Known      bool    `json:"known"` // false when the size has no price table entry
}

// CostEstimate aggregates per-VM cost lines
type CostEstimate struct {
	Lines      []CostLine `json:"lines"`
	MonthlyUSD float64    `json:"monthly_usd"`
	Unknown    int        `json:"unknown"` // number of sizes missing from the price table
}
