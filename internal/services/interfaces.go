package services

import (
	"context"

	"github.com/beesmart/beesmart/internal/entities"
)

// ApiaryReader provides read-only access to apiaries.
type ApiaryReader interface {
	GetByID(ctx context.Context, id uint) (*entities.Apiary, error)
	List(ctx context.Context) ([]entities.Apiary, error)
}

// HiveReader provides read-only access to hives and their tallies.
type HiveReader interface {
	GetByID(ctx context.Context, id uint) (*entities.Hive, error)
	List(ctx context.Context) ([]entities.Hive, error)
	ListByParent(ctx context.Context, apiaryID uint) ([]entities.Hive, error)
	CountForApiary(ctx context.Context, apiaryID uint) (entities.HiveCounts, error)
	CountsByApiary(ctx context.Context) (map[uint]entities.HiveCounts, error)
}

// InspectionReader provides read-only access to inspections.
type InspectionReader interface {
	ListAll(ctx context.Context) ([]entities.Inspection, error)
	ListByParent(ctx context.Context, hiveID uint) ([]entities.Inspection, error)
	LastByHive(ctx context.Context) (map[uint]entities.Inspection, error)
}

// HarvestReader provides read-only access to harvests.
type HarvestReader interface {
	ListAll(ctx context.Context) ([]entities.Harvest, error)
	ListByParent(ctx context.Context, hiveID uint) ([]entities.Harvest, error)
}

// ProductReader provides read-only access to the product catalog.
type ProductReader interface {
	List(ctx context.Context) ([]entities.Product, error)
}

// Readers bundles the repositories the overview service reads from.
type Readers struct {
	Apiaries    ApiaryReader
	Hives       HiveReader
	Inspections InspectionReader
	Harvests    HarvestReader
	Products    ProductReader
}
