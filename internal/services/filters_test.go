package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beesmart/beesmart/internal/entities"
)

func hiveOverview(code, apiary string, state *string, obs *string) entities.HiveOverview {
	return entities.HiveOverview{
		Hive:       entities.Hive{Code: code, StateLabel: state, Observations: obs},
		ApiaryName: apiary,
	}
}

func TestFilterHives(t *testing.T) {
	list := []entities.HiveOverview{
		hiveOverview("C-001", "Apiario Norte", ptr("Activo"), nil),
		hiveOverview("C-002", "Apiario Sur", ptr("Débil"), ptr("Reina nueva")),
		hiveOverview("X-100", "Apiario Sur", nil, nil),
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "empty filter", filter: Filter{}, want: []string{"C-001", "C-002", "X-100"}},
		{name: "code search ignores case", filter: Filter{Search: "c-00"}, want: []string{"C-001", "C-002"}},
		{name: "apiary name", filter: Filter{Search: "SUR"}, want: []string{"C-002", "X-100"}},
		{name: "observations", filter: Filter{Search: "reina"}, want: []string{"C-002"}},
		{name: "facet", filter: Filter{Facet: "Activo"}, want: []string{"C-001"}},
		{name: "facet and search", filter: Filter{Search: "sur", Facet: "Débil"}, want: []string{"C-002"}},
		{name: "facet is exact", filter: Filter{Facet: "activo"}, want: []string{}},
		{name: "whitespace search", filter: Filter{Search: "   "}, want: []string{"C-001", "C-002", "X-100"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterHives(list, tt.filter)
			codes := make([]string, 0, len(got))
			for _, h := range got {
				codes = append(codes, h.Code)
			}
			assert.Equal(t, tt.want, codes)
		})
	}
}

func TestFilterApiaries(t *testing.T) {
	list := []entities.ApiarySummary{
		{Apiary: entities.Apiary{Name: "Los Pinos", Municipality: ptr("Tlalpan")}},
		{Apiary: entities.Apiary{Name: "El Roble", Description: ptr("junto al río"), Municipality: ptr("Xochimilco")}},
		{Apiary: entities.Apiary{Name: "Sin municipio"}},
	}

	assert.Len(t, FilterApiaries(list, Filter{Search: "RÍO"}), 1)
	assert.Len(t, FilterApiaries(list, Filter{Search: "tlal"}), 1)
	assert.Len(t, FilterApiaries(list, Filter{Facet: "Xochimilco"}), 1)
	assert.Empty(t, FilterApiaries(list, Filter{Facet: "Coyoacán"}))
	assert.Equal(t, []string{"Tlalpan", "Xochimilco"}, Municipalities(list))
}

func TestFilterInspections(t *testing.T) {
	list := []entities.InspectionDetail{
		{Inspection: entities.Inspection{StateLabel: ptr("Fuerte"), Observations: ptr("mucha cría")}, HiveCode: "C-001", ApiaryName: "Norte"},
		{Inspection: entities.Inspection{StateLabel: ptr("Débil")}, HiveCode: "C-002", ApiaryName: "Sur"},
		{Inspection: entities.Inspection{}, HiveCode: "C-003", ApiaryName: "Sur"},
	}

	assert.Len(t, FilterInspections(list, Filter{Search: "CRÍA"}), 1)
	assert.Len(t, FilterInspections(list, Filter{Search: "sur"}), 2)
	assert.Len(t, FilterInspections(list, Filter{Facet: "Débil"}), 1)
	assert.Equal(t, []string{"Débil", "Fuerte"}, InspectionStates(list))
}

func TestFilterHarvests(t *testing.T) {
	list := []entities.HarvestDetail{
		{HiveCode: "C-001", ApiaryName: "Norte", ProductName: "Miel"},
		{HiveCode: "C-002", ApiaryName: "Sur", ProductName: "Polen"},
		{HiveCode: "C-003", ApiaryName: "Sur", ProductName: "Miel"},
	}

	assert.Len(t, FilterHarvests(list, Filter{Search: "miel"}), 2)
	assert.Len(t, FilterHarvests(list, Filter{Search: "norte"}), 1)
	assert.Len(t, FilterHarvests(list, Filter{Facet: "Polen"}), 1)
	assert.Equal(t, []string{"Miel", "Polen"}, HarvestProducts(list))
}

func TestHiveStates(t *testing.T) {
	list := []entities.HiveOverview{
		hiveOverview("a", "", ptr("Fuerte"), nil),
		hiveOverview("b", "", ptr("Activo"), nil),
		hiveOverview("c", "", ptr("Fuerte"), nil),
		hiveOverview("d", "", nil, nil),
		hiveOverview("e", "", ptr(""), nil),
	}
	assert.Equal(t, []string{"Activo", "Fuerte"}, HiveStates(list))
	assert.Equal(t, []string{}, HiveStates(nil))
}
