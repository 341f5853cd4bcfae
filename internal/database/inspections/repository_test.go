package inspections

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

func createHive(t *testing.T, db *gorm.DB, state *string) uint {
	t.Helper()
	apiary := entities.Apiary{Name: "Apiario A", CreationDate: "2024-01-01"}
	require.NoError(t, db.Create(&apiary).Error)
	hive := entities.Hive{Code: "C-001", StateLabel: state, InstallationDate: "2024-01-02", ApiaryID: apiary.ID}
	require.NoError(t, db.Create(&hive).Error)
	return hive.ID
}

func hiveState(t *testing.T, db *gorm.DB, id uint) *string {
	t.Helper()
	var hive entities.Hive
	require.NoError(t, db.First(&hive, id).Error)
	return hive.StateLabel
}

func ptr[T any](v T) *T { return &v }

func TestRepository_CreateAndGet(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	hiveID := createHive(t, db, ptr("Activo"))

	id, err := repo.Create(ctx, entities.Inspection{InspectionDate: "2024-05-01", StateLabel: ptr("Débil"), HiveID: hiveID})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2024-05-01", got.InspectionDate)
	assert.Equal(t, "Débil", *got.StateLabel)
	assert.Nil(t, got.Observations)
	assert.Equal(t, hiveID, got.HiveID)

	assert.Equal(t, "Activo", *hiveState(t, db, hiveID), "plain create leaves the hive alone")

	missing, err := repo.GetByID(ctx, id+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_Record_CopiesStateToHive(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	hiveID := createHive(t, db, ptr("Activo"))

	_, err := repo.Record(ctx, entities.Inspection{InspectionDate: "2024-05-01", StateLabel: ptr("Enjambre"), HiveID: hiveID})
	require.NoError(t, err)
	assert.Equal(t, "Enjambre", *hiveState(t, db, hiveID))

	_, err = repo.Record(ctx, entities.Inspection{InspectionDate: "2024-05-08", HiveID: hiveID})
	require.NoError(t, err)
	assert.Equal(t, "Enjambre", *hiveState(t, db, hiveID), "inspection without state keeps the hive state")
}

func TestRepository_Record_RollsBackOnFailure(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	hiveID := createHive(t, db, ptr("Activo"))

	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_hive_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "hives" {
			tx.AddError(assert.AnError)
		}
	}))

	_, err := repo.Record(ctx, entities.Inspection{InspectionDate: "2024-05-01", StateLabel: ptr("Colapsada"), HiveID: hiveID})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	var count int64
	require.NoError(t, db.Model(&entities.Inspection{}).Count(&count).Error)
	assert.Zero(t, count, "inspection insert is rolled back")
	assert.Equal(t, "Activo", *hiveState(t, db, hiveID))
}

func TestRepository_Record_UnknownHive(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Record(context.Background(), entities.Inspection{InspectionDate: "2024-05-01", HiveID: 31337})
	assert.ErrorIs(t, err, database.ErrConstraint)
}

func TestRepository_Revise(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	hiveID := createHive(t, db, ptr("Activo"))

	id, err := repo.Record(ctx, entities.Inspection{InspectionDate: "2024-05-01", Observations: ptr("cría abundante"), HiveID: hiveID})
	require.NoError(t, err)

	require.NoError(t, repo.Revise(ctx, id, entities.InspectionPatch{StateLabel: patch.Set("Fuerte")}))
	assert.Equal(t, "Fuerte", *hiveState(t, db, hiveID))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cría abundante", *got.Observations)

	require.NoError(t, repo.Revise(ctx, id, entities.InspectionPatch{StateLabel: patch.Null[string]()}))
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.StateLabel)
	assert.Equal(t, "Fuerte", *hiveState(t, db, hiveID), "clearing the inspection state leaves the hive")

	require.NoError(t, repo.Revise(ctx, id, entities.InspectionPatch{}))
}

func TestRepository_Update_PropertiesHold(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	hiveID := createHive(t, db, nil)

	id, err := repo.Create(ctx, entities.Inspection{
		InspectionDate: "2024-05-01", StateLabel: ptr("Vuelo"), Observations: ptr("mucho polen"), HiveID: hiveID,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, id, entities.InspectionPatch{InspectionDate: patch.Set("2024-05-02")}))
	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02", got.InspectionDate)
	assert.Equal(t, "Vuelo", *got.StateLabel)
	assert.Equal(t, "mucho polen", *got.Observations)
	assert.Nil(t, hiveState(t, db, hiveID), "update does not propagate state")
}

func TestRepository_LastForHive(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	hiveID := createHive(t, db, nil)

	none, err := repo.LastForHive(ctx, hiveID)
	require.NoError(t, err)
	assert.Nil(t, none)

	for _, date := range []string{"2024-03-01", "2024-07-20", "2024-05-11"} {
		_, err := repo.Create(ctx, entities.Inspection{InspectionDate: date, HiveID: hiveID})
		require.NoError(t, err)
	}

	last, err := repo.LastForHive(ctx, hiveID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "2024-07-20", last.InspectionDate)
}

func TestRepository_ListByParentAndAll(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	first := createHive(t, db, nil)
	second := createHive(t, db, nil)

	for _, in := range []entities.Inspection{
		{InspectionDate: "2024-01-01", HiveID: first},
		{InspectionDate: "2024-06-15", HiveID: first},
		{InspectionDate: "2024-03-10", HiveID: first},
		{InspectionDate: "2024-04-04T10:30:00", HiveID: second},
	} {
		_, err := repo.Create(ctx, in)
		require.NoError(t, err)
	}

	list, err := repo.ListByParent(ctx, first)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-06-15", list[0].InspectionDate)
	assert.Equal(t, "2024-03-10", list[1].InspectionDate)
	assert.Equal(t, "2024-01-01", list[2].InspectionDate)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "2024-06-15", all[0].InspectionDate)
	assert.Equal(t, "2024-04-04T10:30:00", all[1].InspectionDate)

	last, err := repo.LastByHive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15", last[first].InspectionDate)
	assert.Equal(t, "2024-04-04T10:30:00", last[second].InspectionDate)
}

func TestRepository_Delete(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	hiveID := createHive(t, db, nil)

	id, err := repo.Create(ctx, entities.Inspection{InspectionDate: "2024-01-01", HiveID: hiveID})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, id))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
