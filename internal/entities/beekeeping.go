package entities

import "github.com/beesmart/beesmart/internal/patch"

// Hive state labels offered by the data entry screens. Stored labels are free
// text; these are the defaults.
const (
	HiveStateActive    = "Activo"
	HiveStateWeak      = "Débil"
	HiveStateStrong    = "Fuerte"
	HiveStateFlight    = "Vuelo"
	HiveStateSwarm     = "Enjambre"
	HiveStateCollapsed = "Colapsada"
)

// DefaultHiveStates lists the state labels in the order they are offered.
var DefaultHiveStates = []string{
	HiveStateActive,
	HiveStateWeak,
	HiveStateStrong,
	HiveStateFlight,
	HiveStateSwarm,
	HiveStateCollapsed,
}

// ActiveHiveStates are the state labels that count a hive as active.
var ActiveHiveStates = []string{HiveStateActive, HiveStateStrong}

// IsActiveHiveState reports whether label counts a hive as active.
func IsActiveHiveState(label *string) bool {
	if label == nil {
		return false
	}
	for _, s := range ActiveHiveStates {
		if *label == s {
			return true
		}
	}
	return false
}

// DefaultProducts is the catalog inserted by seed-products.
var DefaultProducts = []string{"Miel", "Cera", "Polen", "Propóleo", "Jalea real"}

// Dates are ISO-8601 strings (YYYY-MM-DD or a full datetime) and sort
// lexicographically.

type Apiary struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Name         string   `gorm:"not null" json:"name"`
	Description  *string  `json:"description"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Municipality *string  `json:"municipality"`
	CreationDate string   `gorm:"not null" json:"creation_date"`
	UserRef      *uint    `json:"user_ref"`
	PhotoRef     *string  `json:"photo_ref"`
}

func (Apiary) TableName() string {
	return "apiaries"
}

type Hive struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	Code             string  `gorm:"not null" json:"code"`
	StateLabel       *string `json:"state_label"`
	InstallationDate string  `gorm:"not null" json:"installation_date"`
	Observations     *string `json:"observations"`
	ApiaryID         uint    `gorm:"not null" json:"apiary_id"`
	PhotoRef         *string `json:"photo_ref"`

	Apiary *Apiary `gorm:"foreignKey:ApiaryID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Hive) TableName() string {
	return "hives"
}

type Inspection struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	InspectionDate string  `gorm:"not null" json:"inspection_date"`
	StateLabel     *string `json:"state_label"`
	Observations   *string `json:"observations"`
	HiveID         uint    `gorm:"not null" json:"hive_id"`

	Hive *Hive `gorm:"foreignKey:HiveID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Inspection) TableName() string {
	return "inspections"
}

type Product struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

func (Product) TableName() string {
	return "products"
}

// Harvest carries the apiary id of its hive so apiary level totals need no join.
type Harvest struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	HarvestDate  string  `gorm:"not null" json:"harvest_date"`
	Quantity     float64 `gorm:"not null" json:"quantity"`
	Observations *string `json:"observations"`
	HiveID       uint    `gorm:"not null" json:"hive_id"`
	ApiaryID     uint    `gorm:"not null" json:"apiary_id"`
	ProductID    uint    `gorm:"not null" json:"product_id"`

	Hive    *Hive    `gorm:"foreignKey:HiveID;constraint:OnDelete:CASCADE" json:"-"`
	Apiary  *Apiary  `gorm:"foreignKey:ApiaryID;constraint:OnDelete:CASCADE" json:"-"`
	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Harvest) TableName() string {
	return "harvests"
}

// Patches. Only set fields are written; Null clears a nullable column.

type ApiaryPatch struct {
	Name         patch.Field[string]  `patch:"name" json:"name"`
	Description  patch.Field[string]  `patch:"description" json:"description"`
	Latitude     patch.Field[float64] `patch:"latitude" json:"latitude"`
	Longitude    patch.Field[float64] `patch:"longitude" json:"longitude"`
	Municipality patch.Field[string]  `patch:"municipality" json:"municipality"`
	CreationDate patch.Field[string]  `patch:"creation_date" json:"creation_date"`
	UserRef      patch.Field[uint]    `patch:"user_ref" json:"user_ref"`
	PhotoRef     patch.Field[string]  `patch:"photo_ref" json:"photo_ref"`
}

type HivePatch struct {
	Code             patch.Field[string] `patch:"code" json:"code"`
	StateLabel       patch.Field[string] `patch:"state_label" json:"state_label"`
	InstallationDate patch.Field[string] `patch:"installation_date" json:"installation_date"`
	Observations     patch.Field[string] `patch:"observations" json:"observations"`
	ApiaryID         patch.Field[uint]   `patch:"apiary_id" json:"apiary_id"`
	PhotoRef         patch.Field[string] `patch:"photo_ref" json:"photo_ref"`
}

type InspectionPatch struct {
	InspectionDate patch.Field[string] `patch:"inspection_date" json:"inspection_date"`
	StateLabel     patch.Field[string] `patch:"state_label" json:"state_label"`
	Observations   patch.Field[string] `patch:"observations" json:"observations"`
	HiveID         patch.Field[uint]   `patch:"hive_id" json:"hive_id"`
}

type ProductPatch struct {
	Name patch.Field[string] `patch:"name" json:"name"`
}

type HarvestPatch struct {
	HarvestDate  patch.Field[string]  `patch:"harvest_date" json:"harvest_date"`
	Quantity     patch.Field[float64] `patch:"quantity" json:"quantity"`
	Observations patch.Field[string]  `patch:"observations" json:"observations"`
	HiveID       patch.Field[uint]    `patch:"hive_id" json:"hive_id"`
	ApiaryID     patch.Field[uint]    `patch:"apiary_id" json:"apiary_id"`
	ProductID    patch.Field[uint]    `patch:"product_id" json:"product_id"`
}

// HiveCounts is the per-apiary hive tally shown on apiary cards.
type HiveCounts struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}
