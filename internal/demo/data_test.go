package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesmart/beesmart/internal/config"
	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/database/apiaries"
	"github.com/beesmart/beesmart/internal/database/harvests"
	"github.com/beesmart/beesmart/internal/database/hives"
	"github.com/beesmart/beesmart/internal/database/inspections"
	"github.com/beesmart/beesmart/internal/database/products"
	"github.com/beesmart/beesmart/internal/entities"
	"github.com/beesmart/beesmart/internal/logging"
)

func TestGenerate(t *testing.T) {
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     ":memory:",
		LogLevel: "silent",
	}, logging.Discard())
	require.NoError(t, err)
	defer db.Close()

	log := logging.Discard()
	apiaryRepo := apiaries.NewRepository(db.DB, log)
	hiveRepo := hives.NewRepository(db.DB, log)
	productRepo := products.NewRepository(db.DB, log)
	repos := Repositories{
		Apiaries:    apiaryRepo,
		Hives:       hiveRepo,
		Inspections: inspections.NewRepository(db.DB, log),
		Harvests:    harvests.NewRepository(db.DB, log),
		Products:    productRepo,
	}

	ctx := context.Background()
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	sum, err := Generate(ctx, repos, now, log)
	require.NoError(t, err)

	assert.Equal(t, Summary{Apiaries: 3, Hives: 5, Inspections: 7, Harvests: 5, Products: len(entities.DefaultProducts)}, sum)

	list, err := apiaryRepo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	// Products used by harvests come from the seeded catalog.
	catalog, err := productRepo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, len(entities.DefaultProducts))

	// The latest inspection sets the hive state.
	all, err := hiveRepo.List(ctx)
	require.NoError(t, err)
	states := map[string]string{}
	for _, h := range all {
		require.NotNil(t, h.StateLabel, h.Code)
		states[h.Code] = *h.StateLabel
	}
	assert.Equal(t, entities.HiveStateStrong, states["RB-01"])
	assert.Equal(t, entities.HiveStateActive, states["RB-02"])
	assert.Equal(t, entities.HiveStateCollapsed, states["DH-02"])

	for _, a := range list {
		if a.Name == "Colmenar del Robledal" {
			assert.Equal(t, "2022-09-12", a.CreationDate)
			require.NotNil(t, a.Latitude)
		}
	}
}
