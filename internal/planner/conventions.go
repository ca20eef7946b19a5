package planner

// Conventions names the canonical columns the pattern rules lean on: the
// effective-day date column used for year filters and time buckets, the
// two-letter region-code column, the signed receipt/delivery direction
// column, and the numeric measure column deterministic aggregations sum.
// Each rule checks that its column actually resolves against the schema
// before firing, so unconventional datasets simply skip those rules.
type Conventions struct {
	EffectiveDay  string
	RegionCode    string
	DirectionSign string
	Measure       string
}

// DefaultConventions matches the gas-pipeline scheduled-quantity dataset.
func DefaultConventions() Conventions {
	return Conventions{
		EffectiveDay:  "eff_gas_day",
		RegionCode:    "state_abb",
		DirectionSign: "rec_del_sign",
		Measure:       "scheduled_quantity",
	}
}
