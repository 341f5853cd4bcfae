package http

import (
	"context"

	"github.com/beesmart/beesmart/internal/entities"
)

// Each controller depends on the narrow slice of a repository it uses.
// The database repositories under internal/database satisfy these.

// ApiaryStore is the apiary repository surface used by ApiariesController.
type ApiaryStore interface {
	Create(ctx context.Context, apiary entities.Apiary) (uint, error)
	GetByID(ctx context.Context, id uint) (*entities.Apiary, error)
	Update(ctx context.Context, id uint, p entities.ApiaryPatch) error
	Delete(ctx context.Context, id uint) error
	UniqueMunicipalities(ctx context.Context) ([]string, error)
	SetPhotoRef(ctx context.Context, id uint, ref *string) error
}

// HiveStore is the hive repository surface used by HivesController.
type HiveStore interface {
	Create(ctx context.Context, hive entities.Hive) (uint, error)
	GetByID(ctx context.Context, id uint) (*entities.Hive, error)
	Update(ctx context.Context, id uint, p entities.HivePatch) error
	Delete(ctx context.Context, id uint) error
	CountForApiary(ctx context.Context, apiaryID uint) (entities.HiveCounts, error)
	SetPhotoRef(ctx context.Context, id uint, ref *string) error
}

// InspectionStore is the inspection repository surface used by
// InspectionsController.
type InspectionStore interface {
	Record(ctx context.Context, inspection entities.Inspection) (uint, error)
	Revise(ctx context.Context, id uint, p entities.InspectionPatch) error
	GetByID(ctx context.Context, id uint) (*entities.Inspection, error)
	Delete(ctx context.Context, id uint) error
}

// ProductStore is the product catalog surface used by ProductsController.
type ProductStore interface {
	Create(ctx context.Context, product entities.Product) (uint, error)
	GetByID(ctx context.Context, id uint) (*entities.Product, error)
	List(ctx context.Context) ([]entities.Product, error)
	FindByName(ctx context.Context, name string) (*entities.Product, error)
	Update(ctx context.Context, id uint, p entities.ProductPatch) error
	Delete(ctx context.Context, id uint) error
}

// HarvestStore is the harvest repository surface used by HarvestsController.
type HarvestStore interface {
	Create(ctx context.Context, harvest entities.Harvest) (uint, error)
	CreateWithProduct(ctx context.Context, harvest entities.Harvest, productName string) (id, productID uint, err error)
	GetByID(ctx context.Context, id uint) (*entities.Harvest, error)
	Update(ctx context.Context, id uint, p entities.HarvestPatch) error
	Delete(ctx context.Context, id uint) error
}

// Overviews serves the joined list screens. services.OverviewService
// satisfies it.
type Overviews interface {
	ApiarySummaries(ctx context.Context) ([]entities.ApiarySummary, error)
	ApiarySummary(ctx context.Context, id uint) (*entities.ApiarySummary, error)
	HiveOverviews(ctx context.Context) ([]entities.HiveOverview, error)
	HiveOverviewsForApiary(ctx context.Context, apiaryID uint) ([]entities.HiveOverview, error)
	InspectionDetails(ctx context.Context) ([]entities.InspectionDetail, error)
	InspectionDetailsForHive(ctx context.Context, hiveID uint) ([]entities.InspectionDetail, error)
	HarvestDetails(ctx context.Context) ([]entities.HarvestDetail, error)
	HarvestDetailsForHive(ctx context.Context, hiveID uint) ([]entities.HarvestDetail, error)
}

// Auditor records entity changes. audit.Service satisfies it. Controllers
// accept nil.
type Auditor interface {
	LogCreate(userID uint, entityType string, entityID uint, entityName string)
	LogDelete(userID uint, entityType string, entityID uint, entityName string, cascaded map[string]int64)
	LogPhoto(userID uint, action, entityType string, entityID uint, key string, err error)
	LogExport(userID uint, filename string, err error)
}
