package products

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

func names(list []entities.Product) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Name
	}
	return out
}

func TestRepository_CreateGetUpdate(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.Create(ctx, entities.Product{Name: "Miel"})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Miel", got.Name)

	require.NoError(t, repo.Update(ctx, id, entities.ProductPatch{}))
	require.NoError(t, repo.Update(ctx, id, entities.ProductPatch{Name: patch.Set("Miel de brezo")}))
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Miel de brezo", got.Name)

	missing, err := repo.GetByID(ctx, id+1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_List_OrderedByName(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for _, n := range []string{"Polen", "Cera", "Miel"} {
		_, err := repo.Create(ctx, entities.Product{Name: n})
		require.NoError(t, err)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cera", "Miel", "Polen"}, names(list))
}

func TestRepository_GetOrCreate_CaseInsensitive(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id, created, err := repo.GetOrCreate(ctx, "  Miel ")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.GetOrCreate(ctx, "MIEL")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	found, err := repo.FindByName(ctx, "miel")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Miel", found.Name)

	none, err := repo.FindByName(ctx, "Cera")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRepository_GetOrCreate_FoldsAccentedLetters(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id, created, err := repo.GetOrCreate(ctx, "Propóleo")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.GetOrCreate(ctx, "PROPÓLEO")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	found, err := repo.FindByName(ctx, "propÓleo")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Propóleo", found.Name)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRepository_SeedDefaults(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.Create(ctx, entities.Product{Name: "miel"})
	require.NoError(t, err)

	added, err := repo.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(entities.DefaultProducts)-1, added)

	added, err = repo.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(entities.DefaultProducts))
}

func TestRepository_Delete_RestrictedWhileReferenced(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	apiary := entities.Apiary{Name: "A", CreationDate: "2024-01-01"}
	require.NoError(t, db.Create(&apiary).Error)
	hive := entities.Hive{Code: "C-001", InstallationDate: "2024-01-01", ApiaryID: apiary.ID}
	require.NoError(t, db.Create(&hive).Error)

	used, err := repo.Create(ctx, entities.Product{Name: "Miel"})
	require.NoError(t, err)
	unused, err := repo.Create(ctx, entities.Product{Name: "Cera"})
	require.NoError(t, err)
	require.NoError(t, db.Create(&entities.Harvest{
		HarvestDate: "2024-08-01", Quantity: 20, HiveID: hive.ID, ApiaryID: apiary.ID, ProductID: used,
	}).Error)

	err = repo.Delete(ctx, used)
	require.Error(t, err)
	var cv *database.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, database.ConstraintForeignKey, cv.Kind)
	assert.Equal(t, used, cv.ID)

	require.NoError(t, repo.Delete(ctx, unused))
	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Miel"}, names(list))
}
