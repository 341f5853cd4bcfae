package hives

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/beesmart/beesmart/internal/config"
	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/entities"
	"github.com/beesmart/beesmart/internal/logging"
	"github.com/beesmart/beesmart/internal/patch"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     ":memory:",
		LogLevel: "silent",
	}, logging.Discard())
	require.NoError(t, err)

	repo := NewRepository(db.DB, logging.Discard())
	return repo, db.DB, func() { db.Close() }
}

func createApiary(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	apiary := entities.Apiary{Name: name, CreationDate: "2024-01-01"}
	require.NoError(t, db.Create(&apiary).Error)
	return apiary.ID
}

func ptr[T any](v T) *T { return &v }

func TestRepository_CreateAndGet(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	apiaryID := createApiary(t, db, "Apiario A")

	id, err := repo.Create(ctx, entities.Hive{
		Code:             "C-001",
		StateLabel:       ptr(entities.HiveStateStrong),
		InstallationDate: "2024-01-02",
		ApiaryID:         apiaryID,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "C-001", got.Code)
	assert.Equal(t, entities.HiveStateStrong, *got.StateLabel)
	assert.Equal(t, "2024-01-02", got.InstallationDate)
	assert.Equal(t, apiaryID, got.ApiaryID)
	assert.Nil(t, got.Observations)
	assert.Nil(t, got.PhotoRef)
}

func TestRepository_Create_CodeNotUnique(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	apiaryID := createApiary(t, db, "A")

	_, err := repo.Create(ctx, entities.Hive{Code: "C-001", InstallationDate: "2024-01-01", ApiaryID: apiaryID})
	require.NoError(t, err)
	_, err = repo.Create(ctx, entities.Hive{Code: "C-001", InstallationDate: "2024-01-01", ApiaryID: apiaryID})
	assert.NoError(t, err)
}

func TestRepository_Create_UnknownApiary(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create(context.Background(), entities.Hive{Code: "C-404", InstallationDate: "2024-01-01", ApiaryID: 404})
	require.Error(t, err)

	var cv *database.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, database.ConstraintForeignKey, cv.Kind)
	assert.Equal(t, "create", cv.Op)
	assert.Equal(t, entities.EntityHive, cv.Entity)
	assert.ErrorIs(t, err, database.ErrConstraint)
}

func TestRepository_ListByParent_SortedByInstallationDateDesc(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	apiaryID := createApiary(t, db, "A")
	otherID := createApiary(t, db, "B")

	for _, date := range []string{"2024-01-01", "2024-06-15", "2024-03-10"} {
		_, err := repo.Create(ctx, entities.Hive{Code: "C-" + date, InstallationDate: date, ApiaryID: apiaryID})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, entities.Hive{Code: "other", InstallationDate: "2025-01-01", ApiaryID: otherID})
	require.NoError(t, err)

	list, err := repo.ListByParent(ctx, apiaryID)
	require.NoError(t, err)
	dates := make([]string, len(list))
	for i, h := range list {
		dates[i] = h.InstallationDate
	}
	assert.Equal(t, []string{"2024-06-15", "2024-03-10", "2024-01-01"}, dates)
}

func TestRepository_ListByParent_TiesBrokenByNewestID(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	apiaryID := createApiary(t, db, "A")

	first, err := repo.Create(ctx, entities.Hive{Code: "C-1", InstallationDate: "2024-05-05", ApiaryID: apiaryID})
	require.NoError(t, err)
	second, err := repo.Create(ctx, entities.Hive{Code: "C-2", InstallationDate: "2024-05-05", ApiaryID: apiaryID})
	require.NoError(t, err)

	list, err := repo.ListByParent(ctx, apiaryID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)
}

func TestRepository_Update(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	apiaryID := createApiary(t, db, "A")
	movedTo := createApiary(t, db, "B")

	id, err := repo.Create(ctx, entities.Hive{
		Code: "C-001", StateLabel: ptr("Activo"), InstallationDate: "2024-01-02",
		Observations: ptr("reina marcada"), ApiaryID: apiaryID,
	})
	require.NoError(t, err)

	t.Run("empty patch", func(t *testing.T) {
		before, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, id, entities.HivePatch{}))
		after, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("single field", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, id, entities.HivePatch{StateLabel: patch.Set("Débil")}))
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Débil", *got.StateLabel)
		assert.Equal(t, "C-001", got.Code)
		assert.Equal(t, "reina marcada", *got.Observations)
		assert.Equal(t, apiaryID, got.ApiaryID)
	})

	t.Run("null clears", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, id, entities.HivePatch{Observations: patch.Null[string]()}))
		require.NoError(t, repo.Update(ctx, id, entities.HivePatch{}))
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got.Observations)
		assert.Equal(t, "Débil", *got.StateLabel)
	})

	t.Run("move to another apiary", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, id, entities.HivePatch{ApiaryID: patch.Set(movedTo)}))
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, movedTo, got.ApiaryID)
	})

	t.Run("move to missing apiary", func(t *testing.T) {
		err := repo.Update(ctx, id, entities.HivePatch{ApiaryID: patch.Set(uint(999))})
		assert.ErrorIs(t, err, database.ErrConstraint)
	})
}

func TestRepository_Delete_CascadesToDependents(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	apiaryID := createApiary(t, db, "A")

	id, err := repo.Create(ctx, entities.Hive{Code: "C-001", InstallationDate: "2024-01-02", ApiaryID: apiaryID})
	require.NoError(t, err)
	product := entities.Product{Name: "Miel"}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, db.Create(&entities.Inspection{InspectionDate: "2024-02-01", HiveID: id}).Error)
	require.NoError(t, db.Create(&entities.Harvest{
		HarvestDate: "2024-03-01", Quantity: 4, HiveID: id, ApiaryID: apiaryID, ProductID: product.ID,
	}).Error)

	require.NoError(t, repo.Delete(ctx, id))

	var inspections, harvests int64
	require.NoError(t, db.Model(&entities.Inspection{}).Count(&inspections).Error)
	require.NoError(t, db.Model(&entities.Harvest{}).Count(&harvests).Error)
	assert.Zero(t, inspections)
	assert.Zero(t, harvests)
}

func TestRepository_CountForApiary(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	apiaryID := createApiary(t, db, "A")
	emptyID := createApiary(t, db, "B")

	for _, state := range []*string{ptr("Activo"), ptr("Fuerte"), ptr("Débil"), nil, ptr("activo")} {
		_, err := repo.Create(ctx, entities.Hive{Code: "C", StateLabel: state, InstallationDate: "2024-01-01", ApiaryID: apiaryID})
		require.NoError(t, err)
	}

	counts, err := repo.CountForApiary(ctx, apiaryID)
	require.NoError(t, err)
	assert.Equal(t, entities.HiveCounts{Total: 5, Active: 2}, counts)

	empty, err := repo.CountForApiary(ctx, emptyID)
	require.NoError(t, err)
	assert.Equal(t, entities.HiveCounts{}, empty)

	all, err := repo.CountsByApiary(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uint]entities.HiveCounts{apiaryID: {Total: 5, Active: 2}}, all)
}

// Apiario A with C-001 and C-002; deleting the apiary leaves no trace of either hive.
func TestApiaryDeletionScenario(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	apiaryID := createApiary(t, db, "Apiario A")
	first, err := repo.Create(ctx, entities.Hive{Code: "C-001", InstallationDate: "2024-01-01", ApiaryID: apiaryID})
	require.NoError(t, err)
	second, err := repo.Create(ctx, entities.Hive{Code: "C-002", InstallationDate: "2024-01-02", ApiaryID: apiaryID})
	require.NoError(t, err)

	require.NoError(t, db.Delete(&entities.Apiary{}, apiaryID).Error)

	list, err := repo.ListByParent(ctx, apiaryID)
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, id := range []uint{first, second} {
		hive, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, hive)
	}
}
