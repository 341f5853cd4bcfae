package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/entities"
)

const dateLayout = "2006-01-02"

type ApiaryCreator interface {
	Create(ctx context.Context, apiary entities.Apiary) (uint, error)
}

type HiveCreator interface {
	Create(ctx context.Context, hive entities.Hive) (uint, error)
}

type InspectionRecorder interface {
	Record(ctx context.Context, inspection entities.Inspection) (uint, error)
}

type HarvestCreator interface {
	CreateWithProduct(ctx context.Context, harvest entities.Harvest, productName string) (id, productID uint, err error)
}

type ProductSeeder interface {
	SeedDefaults(ctx context.Context) (int, error)
}

// Repositories are the stores Generate writes to.
type Repositories struct {
	Apiaries    ApiaryCreator
	Hives       HiveCreator
	Inspections InspectionRecorder
	Harvests    HarvestCreator
	Products    ProductSeeder
}

// Summary counts the rows Generate inserted.
type Summary struct {
	Apiaries    int `json:"apiaries"`
	Hives       int `json:"hives"`
	Inspections int `json:"inspections"`
	Harvests    int `json:"harvests"`
	Products    int `json:"products"`
}

type sampleInspection struct {
	daysAgo      int
	state        string
	observations string
}

type sampleHarvest struct {
	daysAgo  int
	product  string
	quantity float64
}

type sampleHive struct {
	code        string
	daysAgo     int
	inspections []sampleInspection
	harvests    []sampleHarvest
}

type sampleApiary struct {
	name         string
	description  string
	municipality string
	lat, lon     float64
	daysAgo      int
	hives        []sampleHive
}

func samples() []sampleApiary {
	return []sampleApiary{
		{
			name:         "Colmenar del Robledal",
			description:  "Ladera orientada al sur, junto al arroyo",
			municipality: "Valsaín",
			lat:          40.8706, lon: -4.0157,
			daysAgo: 720,
			hives: []sampleHive{
				{
					code: "RB-01", daysAgo: 700,
					inspections: []sampleInspection{
						{60, entities.HiveStateActive, "Cría operculada en 6 cuadros"},
						{30, entities.HiveStateStrong, "Alzas llenas al 70%"},
					},
					harvests: []sampleHarvest{{25, "Miel", 18.5}, {25, "Cera", 1.2}},
				},
				{
					code: "RB-02", daysAgo: 700,
					inspections: []sampleInspection{
						{58, entities.HiveStateWeak, "Poca población, reina vista"},
						{28, entities.HiveStateActive, "Recuperada tras alimentar"},
					},
					harvests: []sampleHarvest{{20, "Miel", 7.25}},
				},
				{
					code: "RB-03", daysAgo: 365,
					inspections: []sampleInspection{
						{45, entities.HiveStateSwarm, "Celdas reales en el borde de los cuadros"},
					},
				},
			},
		},
		{
			name:         "Apiario La Dehesa",
			description:  "Encinar con floración de cantueso en primavera",
			municipality: "Trujillo",
			lat:          39.4578, lon: -5.8796,
			daysAgo: 400,
			hives: []sampleHive{
				{
					code: "DH-01", daysAgo: 390,
					inspections: []sampleInspection{
						{40, entities.HiveStateStrong, "Mucha entrada de polen"},
					},
					harvests: []sampleHarvest{{15, "Polen", 2.4}, {15, "Propóleo", 0.3}},
				},
				{
					code: "DH-02", daysAgo: 390,
					inspections: []sampleInspection{
						{40, entities.HiveStateCollapsed, "Sin reina, varroa alta"},
					},
				},
			},
		},
		{
			name:         "Huerto de Casa",
			municipality: "Valsaín",
			daysAgo:      30,
		},
	}
}

// Generate fills an empty store with sample apiaries, hives, inspections
// and harvests dated relative to now.
func Generate(ctx context.Context, repos Repositories, now time.Time, log logrus.FieldLogger) (Summary, error) {
	var sum Summary
	date := func(daysAgo int) string {
		return now.AddDate(0, 0, -daysAgo).Format(dateLayout)
	}

	added, err := repos.Products.SeedDefaults(ctx)
	if err != nil {
		return sum, fmt.Errorf("seed products: %w", err)
	}
	sum.Products = added

	for _, a := range samples() {
		apiary := entities.Apiary{
			Name:         a.name,
			Municipality: &a.municipality,
			CreationDate: date(a.daysAgo),
		}
		if a.description != "" {
			apiary.Description = &a.description
		}
		if a.lat != 0 || a.lon != 0 {
			apiary.Latitude, apiary.Longitude = &a.lat, &a.lon
		}
		apiaryID, err := repos.Apiaries.Create(ctx, apiary)
		if err != nil {
			return sum, fmt.Errorf("create apiary %q: %w", a.name, err)
		}
		sum.Apiaries++

		for _, h := range a.hives {
			hiveID, err := repos.Hives.Create(ctx, entities.Hive{
				Code:             h.code,
				InstallationDate: date(h.daysAgo),
				ApiaryID:         apiaryID,
			})
			if err != nil {
				return sum, fmt.Errorf("create hive %q: %w", h.code, err)
			}
			sum.Hives++

			for _, in := range h.inspections {
				state, obs := in.state, in.observations
				if _, err := repos.Inspections.Record(ctx, entities.Inspection{
					InspectionDate: date(in.daysAgo),
					StateLabel:     &state,
					Observations:   &obs,
					HiveID:         hiveID,
				}); err != nil {
					return sum, fmt.Errorf("record inspection for %q: %w", h.code, err)
				}
				sum.Inspections++
			}

			for _, hv := range h.harvests {
				if _, _, err := repos.Harvests.CreateWithProduct(ctx, entities.Harvest{
					HarvestDate: date(hv.daysAgo),
					Quantity:    hv.quantity,
					HiveID:      hiveID,
				}, hv.product); err != nil {
					return sum, fmt.Errorf("create harvest for %q: %w", h.code, err)
				}
				sum.Harvests++
			}
		}
	}

	log.WithFields(logrus.Fields{
		"apiaries":    sum.Apiaries,
		"hives":       sum.Hives,
		"inspections": sum.Inspections,
		"harvests":    sum.Harvests,
	}).Info("Demo data generated")
	return sum, nil
}
