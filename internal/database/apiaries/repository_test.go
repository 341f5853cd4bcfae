package apiaries

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

func ptr[T any](v T) *T { return &v }

func TestRepository_CreateAndGet_WithNulls(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.Create(ctx, entities.Apiary{Name: "Apiario A", CreationDate: "2024-04-01"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Apiario A", got.Name)
	assert.Equal(t, "2024-04-01", got.CreationDate)
	assert.Nil(t, got.Description)
	assert.Nil(t, got.Latitude)
	assert.Nil(t, got.Longitude)
	assert.Nil(t, got.Municipality)
	assert.Nil(t, got.UserRef)
	assert.Nil(t, got.PhotoRef)
}

func TestRepository_Create_IgnoresCallerID(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repo.Create(ctx, entities.Apiary{ID: 77, Name: "A", CreationDate: "2024-01-01"})
	require.NoError(t, err)
	second, err := repo.Create(ctx, entities.Apiary{ID: 77, Name: "B", CreationDate: "2024-01-01"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := repo.GetByID(context.Background(), 12345)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_Update_EmptyPatchIsNoop(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.Create(ctx, entities.Apiary{
		Name: "Apiario A", CreationDate: "2024-04-01", Municipality: ptr("Madrid"),
	})
	require.NoError(t, err)
	before, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, id, entities.ApiaryPatch{}))

	after, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRepository_Update_OnlyTouchesSetFields(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.Create(ctx, entities.Apiary{
		Name:         "Apiario A",
		Description:  ptr("junto al río"),
		Latitude:     ptr(40.41),
		Longitude:    ptr(-3.70),
		Municipality: ptr("Madrid"),
		CreationDate: "2024-04-01",
	})
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, id, entities.ApiaryPatch{Name: patch.Set("Apiario Norte")}))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Apiario Norte", got.Name)
	assert.Equal(t, "junto al río", *got.Description)
	assert.InDelta(t, 40.41, *got.Latitude, 1e-9)
	assert.InDelta(t, -3.70, *got.Longitude, 1e-9)
	assert.Equal(t, "Madrid", *got.Municipality)
	assert.Equal(t, "2024-04-01", got.CreationDate)
}

func TestRepository_Update_NullClearsAndStaysCleared(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.Create(ctx, entities.Apiary{
		Name: "Apiario A", CreationDate: "2024-04-01", Description: ptr("temporal"),
	})
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, id, entities.ApiaryPatch{Description: patch.Null[string]()}))
	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.Description)

	require.NoError(t, repo.Update(ctx, id, entities.ApiaryPatch{}))
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.Description)
	assert.Equal(t, "Apiario A", got.Name)
}

func TestRepository_List_NewestFirst(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for _, a := range []entities.Apiary{
		{Name: "viejo", CreationDate: "2022-01-01"},
		{Name: "nuevo", CreationDate: "2024-06-01"},
		{Name: "medio", CreationDate: "2023-03-15"},
		{Name: "medio bis", CreationDate: "2023-03-15"},
	} {
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"nuevo", "medio bis", "medio", "viejo"}, names)
}

func TestRepository_ListByParent(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.Create(ctx, entities.Apiary{Name: "mío", CreationDate: "2024-01-01", UserRef: ptr(uint(1))})
	require.NoError(t, err)
	_, err = repo.Create(ctx, entities.Apiary{Name: "ajeno", CreationDate: "2024-01-01", UserRef: ptr(uint(2))})
	require.NoError(t, err)

	list, err := repo.ListByParent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "mío", list[0].Name)

	empty, err := repo.ListByParent(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepository_Delete(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.Create(ctx, entities.Apiary{Name: "A", CreationDate: "2024-01-01"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))
	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, repo.Delete(ctx, id), "deleting a missing row is not an error")
}

func TestRepository_Delete_CascadesToHives(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.Create(ctx, entities.Apiary{Name: "A", CreationDate: "2024-01-01"})
	require.NoError(t, err)
	require.NoError(t, db.Create(&entities.Hive{Code: "C-001", InstallationDate: "2024-01-02", ApiaryID: id}).Error)
	require.NoError(t, db.Create(&entities.Hive{Code: "C-002", InstallationDate: "2024-01-03", ApiaryID: id}).Error)

	require.NoError(t, repo.Delete(ctx, id))

	var count int64
	require.NoError(t, db.Model(&entities.Hive{}).Where("apiary_id = ?", id).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRepository_UniqueMunicipalities(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for _, m := range []*string{ptr("Madrid"), ptr("Madrid"), ptr(""), ptr("Bilbao"), nil, ptr("  ")} {
		_, err := repo.Create(ctx, entities.Apiary{Name: "x", CreationDate: "2024-01-01", Municipality: m})
		require.NoError(t, err)
	}

	got, err := repo.UniqueMunicipalities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bilbao", "Madrid"}, got)
}

func TestRepository_UniqueMunicipalities_Empty(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := repo.UniqueMunicipalities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRepository_PhotoRef(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.Create(ctx, entities.Apiary{Name: "A", CreationDate: "2024-01-01"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, entities.Apiary{Name: "B", CreationDate: "2024-01-01"})
	require.NoError(t, err)

	require.NoError(t, repo.SetPhotoRef(ctx, id, ptr("apiaries/1/front.jpg")))
	refs, err := repo.PhotoRefs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apiaries/1/front.jpg"}, refs)

	require.NoError(t, repo.SetPhotoRef(ctx, id, nil))
	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.PhotoRef)
}

func TestRepository_CancelledContext(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.List(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var pe *database.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "list", pe.Op)
}
