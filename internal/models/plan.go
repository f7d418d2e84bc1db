package models

// Plan identifiers for the purchasable challenge tiers.
const (
	PlanStarter = "starter"
	PlanPro     = "pro"
	PlanElite   = "elite"
)

// Plan is a purchasable challenge tier. The catalog is fixed server-side;
// the copy here mirrors it so pricing renders without a round trip.
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Balance  float64  `json:"balance"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Popular  bool     `json:"popular,omitempty"`
	Features []string `json:"features,omitempty"`
}

// ValidPlan reports whether id names a known plan tier.
func ValidPlan(id string) bool {
	switch id {
	case PlanStarter, PlanPro, PlanElite:
		return true
	}
	return false
}
