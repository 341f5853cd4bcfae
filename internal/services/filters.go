package services

import (
	"sort"
	"strings"

	"github.com/beesmart/beesmart/internal/entities"
)

// Filter narrows a list screen. Search matches any of the screen's text
// fields case-insensitively; Facet must equal the screen's facet field
// exactly. Empty values match everything.
type Filter struct {
	Search string `form:"q"`
	Facet  string `form:"facet"`
}

// IsZero reports whether the filter lets everything through.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.Facet == ""
}

func apply[T any](items []T, f Filter, text func(T) []*string, facet func(T) *string) []T {
	if f.IsZero() {
		return items
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]T, 0, len(items))
	for _, it := range items {
		if f.Facet != "" {
			v := facet(it)
			if v == nil || *v != f.Facet {
				continue
			}
		}
		if q != "" && !containsAny(text(it), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func containsAny(fields []*string, q string) bool {
	for _, f := range fields {
		if f != nil && strings.Contains(strings.ToLower(*f), q) {
			return true
		}
	}
	return false
}

// FilterApiaries searches name, description and municipality; the facet is
// the municipality.
func FilterApiaries(list []entities.ApiarySummary, f Filter) []entities.ApiarySummary {
	return apply(list, f,
		func(a entities.ApiarySummary) []*string {
			return []*string{&a.Name, a.Description, a.Municipality}
		},
		func(a entities.ApiarySummary) *string { return a.Municipality },
	)
}

// FilterHives searches code, apiary name and observations; the facet is
// the hive state.
func FilterHives(list []entities.HiveOverview, f Filter) []entities.HiveOverview {
	return apply(list, f,
		func(h entities.HiveOverview) []*string {
			return []*string{&h.Code, &h.ApiaryName, h.Observations}
		},
		func(h entities.HiveOverview) *string { return h.StateLabel },
	)
}

// FilterInspections searches hive code, observations and apiary name; the
// facet is the recorded state.
func FilterInspections(list []entities.InspectionDetail, f Filter) []entities.InspectionDetail {
	return apply(list, f,
		func(i entities.InspectionDetail) []*string {
			return []*string{&i.HiveCode, i.Observations, &i.ApiaryName}
		},
		func(i entities.InspectionDetail) *string { return i.StateLabel },
	)
}

// FilterHarvests searches hive code, product and apiary name; the facet is
// the product name.
func FilterHarvests(list []entities.HarvestDetail, f Filter) []entities.HarvestDetail {
	return apply(list, f,
		func(h entities.HarvestDetail) []*string {
			return []*string{&h.HiveCode, &h.ProductName, &h.ApiaryName}
		},
		func(h entities.HarvestDetail) *string { return &h.ProductName },
	)
}

// HiveStates returns the distinct non-empty hive states in sorted order.
func HiveStates(list []entities.HiveOverview) []string {
	return distinct(list, func(h entities.HiveOverview) *string { return h.StateLabel })
}

// InspectionStates returns the distinct non-empty inspection states in
// sorted order.
func InspectionStates(list []entities.InspectionDetail) []string {
	return distinct(list, func(i entities.InspectionDetail) *string { return i.StateLabel })
}

// HarvestProducts returns the distinct product names of the harvests in
// sorted order.
func HarvestProducts(list []entities.HarvestDetail) []string {
	return distinct(list, func(h entities.HarvestDetail) *string { return &h.ProductName })
}

// Municipalities returns the distinct non-empty municipalities of the
// apiaries in sorted order.
func Municipalities(list []entities.ApiarySummary) []string {
	return distinct(list, func(a entities.ApiarySummary) *string { return a.Municipality })
}

func distinct[T any](items []T, field func(T) *string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, it := range items {
		v := field(it)
		if v == nil || *v == "" {
			continue
		}
		if _, ok := seen[*v]; ok {
			continue
		}
		seen[*v] = struct{}{}
		out = append(out, *v)
	}
	sort.Strings(out)
	return out
}
