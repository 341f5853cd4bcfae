package entities

// Read-only views assembled by the services package. They are never written back.

// HiveOverview is a hive with its apiary name and latest inspection.
type HiveOverview struct {
	Hive
	ApiaryName          string  `json:"apiary_name"`
	LastInspectionDate  *string `json:"last_inspection_date"`
	LastInspectionState *string `json:"last_inspection_state"`
	Active              bool    `json:"active"`
}

// InspectionDetail is an inspection with the code of the inspected hive.
type InspectionDetail struct {
	Inspection
	HiveCode   string `json:"hive_code"`
	ApiaryID   uint   `json:"apiary_id"`
	ApiaryName string `json:"apiary_name"`
}

// HarvestDetail is a harvest with the names the list screen shows.
type HarvestDetail struct {
	Harvest
	HiveCode    string `json:"hive_code"`
	ApiaryName  string `json:"apiary_name"`
	ProductName string `json:"product_name"`
}

// ApiarySummary is an apiary with its hive tallies.
type ApiarySummary struct {
	Apiary
	TotalHives    int64 `json:"total_hives"`
	ActiveHives   int64 `json:"active_hives"`
	ActivePercent int   `json:"active_percent"`
}
