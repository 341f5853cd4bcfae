package services

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/entities"
)

// OverviewService assembles the read-only views the list and detail
// screens show. It joins rows in memory from the repositories and never
// writes.
type OverviewService struct {
	r   Readers
	log logrus.FieldLogger
}

// NewOverviewService creates a new OverviewService.
func NewOverviewService(r Readers, log logrus.FieldLogger) *OverviewService {
	return &OverviewService{r: r, log: log.WithField("component", "overview")}
}

// ApiarySummaries returns every apiary with its hive tallies, newest first.
func (s *OverviewService) ApiarySummaries(ctx context.Context) ([]entities.ApiarySummary, error) {
	apiaries, err := s.r.Apiaries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list apiaries: %w", err)
	}
	counts, err := s.r.Hives.CountsByApiary(ctx)
	if err != nil {
		return nil, fmt.Errorf("count hives: %w", err)
	}

	out := make([]entities.ApiarySummary, 0, len(apiaries))
	for _, a := range apiaries {
		out = append(out, summarize(a, counts[a.ID]))
	}
	return out, nil
}

// ApiarySummary returns one apiary with its tallies, or nil when the apiary
// does not exist.
func (s *OverviewService) ApiarySummary(ctx context.Context, id uint) (*entities.ApiarySummary, error) {
	apiary, err := s.r.Apiaries.GetByID(ctx, id)
	if err != nil || apiary == nil {
		return nil, err
	}
	counts, err := s.r.Hives.CountForApiary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count hives: %w", err)
	}
	summary := summarize(*apiary, counts)
	return &summary, nil
}

func summarize(a entities.Apiary, c entities.HiveCounts) entities.ApiarySummary {
	return entities.ApiarySummary{
		Apiary:        a,
		TotalHives:    c.Total,
		ActiveHives:   c.Active,
		ActivePercent: activePercent(c),
	}
}

func activePercent(c entities.HiveCounts) int {
	if c.Total == 0 {
		return 0
	}
	return int(math.Round(float64(c.Active) / float64(c.Total) * 100))
}

// HiveOverviews returns every hive with its apiary name and latest
// inspection.
func (s *OverviewService) HiveOverviews(ctx context.Context) ([]entities.HiveOverview, error) {
	hives, err := s.r.Hives.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hives: %w", err)
	}
	return s.overviews(ctx, hives)
}

// HiveOverviewsForApiary is HiveOverviews restricted to one apiary.
func (s *OverviewService) HiveOverviewsForApiary(ctx context.Context, apiaryID uint) ([]entities.HiveOverview, error) {
	hives, err := s.r.Hives.ListByParent(ctx, apiaryID)
	if err != nil {
		return nil, fmt.Errorf("list hives: %w", err)
	}
	return s.overviews(ctx, hives)
}

func (s *OverviewService) overviews(ctx context.Context, hives []entities.Hive) ([]entities.HiveOverview, error) {
	names, err := s.apiaryNames(ctx)
	if err != nil {
		return nil, err
	}
	last, err := s.r.Inspections.LastByHive(ctx)
	if err != nil {
		return nil, fmt.Errorf("last inspections: %w", err)
	}

	out := make([]entities.HiveOverview, 0, len(hives))
	for _, h := range hives {
		ov := entities.HiveOverview{
			Hive:       h,
			ApiaryName: names[h.ApiaryID],
			Active:     entities.IsActiveHiveState(h.StateLabel),
		}
		if in, ok := last[h.ID]; ok {
			date := in.InspectionDate
			ov.LastInspectionDate = &date
			ov.LastInspectionState = in.StateLabel
		}
		out = append(out, ov)
	}
	return out, nil
}

// InspectionDetails returns every inspection with its hive and apiary
// names, newest first.
func (s *OverviewService) InspectionDetails(ctx context.Context) ([]entities.InspectionDetail, error) {
	list, err := s.r.Inspections.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	return s.inspectionDetails(ctx, list)
}

// InspectionDetailsForHive is InspectionDetails restricted to one hive.
func (s *OverviewService) InspectionDetailsForHive(ctx context.Context, hiveID uint) ([]entities.InspectionDetail, error) {
	list, err := s.r.Inspections.ListByParent(ctx, hiveID)
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	return s.inspectionDetails(ctx, list)
}

func (s *OverviewService) inspectionDetails(ctx context.Context, list []entities.Inspection) ([]entities.InspectionDetail, error) {
	hives, err := s.hivesByID(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.apiaryNames(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]entities.InspectionDetail, 0, len(list))
	for _, in := range list {
		d := entities.InspectionDetail{Inspection: in}
		if h, ok := hives[in.HiveID]; ok {
			d.HiveCode = h.Code
			d.ApiaryID = h.ApiaryID
			d.ApiaryName = names[h.ApiaryID]
		}
		out = append(out, d)
	}
	return out, nil
}

// HarvestDetails returns every harvest with its hive code, apiary name and
// product name, newest first.
func (s *OverviewService) HarvestDetails(ctx context.Context) ([]entities.HarvestDetail, error) {
	list, err := s.r.Harvests.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list harvests: %w", err)
	}
	return s.harvestDetails(ctx, list)
}

// HarvestDetailsForHive is HarvestDetails restricted to one hive.
func (s *OverviewService) HarvestDetailsForHive(ctx context.Context, hiveID uint) ([]entities.HarvestDetail, error) {
	list, err := s.r.Harvests.ListByParent(ctx, hiveID)
	if err != nil {
		return nil, fmt.Errorf("list harvests: %w", err)
	}
	return s.harvestDetails(ctx, list)
}

func (s *OverviewService) harvestDetails(ctx context.Context, list []entities.Harvest) ([]entities.HarvestDetail, error) {
	hives, err := s.hivesByID(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.apiaryNames(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.r.Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	productNames := make(map[uint]string, len(products))
	for _, p := range products {
		productNames[p.ID] = p.Name
	}

	out := make([]entities.HarvestDetail, 0, len(list))
	for _, h := range list {
		out = append(out, entities.HarvestDetail{
			Harvest:     h,
			HiveCode:    hives[h.HiveID].Code,
			ApiaryName:  names[h.ApiaryID],
			ProductName: productNames[h.ProductID],
		})
	}
	return out, nil
}

func (s *OverviewService) apiaryNames(ctx context.Context) (map[uint]string, error) {
	apiaries, err := s.r.Apiaries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list apiaries: %w", err)
	}
	names := make(map[uint]string, len(apiaries))
	for _, a := range apiaries {
		names[a.ID] = a.Name
	}
	return names, nil
}

func (s *OverviewService) hivesByID(ctx context.Context) (map[uint]entities.Hive, error) {
	hives, err := s.r.Hives.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hives: %w", err)
	}
	byID := make(map[uint]entities.Hive, len(hives))
	for _, h := range hives {
		byID[h.ID] = h
	}
	return byID, nil
}
