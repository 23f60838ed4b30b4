package hydrotel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/hydrotel/internal/database"
	"github.com/tejusbharadwaj/hydrotel/internal/models"
)

// Resolve implements API.
//
// An object's own ExtSysID, when not blank, wins over the reconciled site
// code. Objects with no code on either side cannot be addressed and are
// dropped. The same (ExtSiteID, MType) pair may appear more than once when a
// site carries duplicate object names; such rows are returned as they are.
func (s *Service) Resolve(ctx context.Context, mtypes, sites Selector) ([]models.ResolvedPoint, error) {
	if !mtypes.IsAll() && len(mtypes.Values()) == 0 {
		return []models.ResolvedPoint{}, nil
	}
	if !sites.IsAll() && len(sites.Values()) == 0 {
		return []models.ResolvedPoint{}, nil
	}

	codes, err := s.siteCodes(ctx)
	if err != nil {
		return nil, err
	}

	objects, err := s.readObjects(ctx, mtypes)
	if err != nil {
		return nil, err
	}

	wanted := sites.set()
	byObject := make(map[int64]models.ResolvedPoint, len(objects))
	objectKeys := make([]int64, 0, len(objects))
	for _, obj := range objects {
		code := obj.ExtSysID
		if code == "" {
			code = codes[obj.Site]
		}
		if code == "" {
			continue
		}
		if !sites.IsAll() && !wanted[code] {
			continue
		}
		byObject[obj.Object] = models.ResolvedPoint{
			ExtSiteID: code,
			MType:     strings.ToLower(strings.TrimSpace(obj.Name)),
			Site:      obj.Site,
			Object:    obj.Object,
		}
		objectKeys = append(objectKeys, obj.Object)
	}

	resolved := make([]models.ResolvedPoint, 0, len(objectKeys))
	if len(objectKeys) == 0 {
		return resolved, nil
	}

	points, err := s.readPoints(ctx, objectKeys)
	if err != nil {
		return nil, err
	}

	pointKeys := make([]int64, 0, len(points))
	for _, p := range points {
		row, ok := byObject[p.Object]
		if !ok {
			continue
		}
		row.Point = p.Point
		resolved = append(resolved, row)
		pointKeys = append(pointKeys, p.Point)
	}

	coverage, err := s.readCoverage(ctx, pointKeys)
	if err != nil {
		return nil, err
	}
	for i := range resolved {
		if c, ok := coverage[resolved[i].Point]; ok {
			resolved[i].FromDate = c.from
			resolved[i].ToDate = c.to
		}
	}

	sort.Slice(resolved, func(i, j int) bool {
		a, b := resolved[i], resolved[j]
		if a.Key() != b.Key() {
			return a.Key().Less(b.Key())
		}
		return a.Point < b.Point
	})

	s.logger.WithFields(logrus.Fields{
		"mtypes": mtypes.String(),
		"sites":  sites.String(),
		"points": len(resolved),
	}).Debug("resolved sites and measurement types")

	return resolved, nil
}

func (s *Service) siteCodes(ctx context.Context) (SiteCodes, error) {
	rows, err := s.store.ReadRows(ctx, tableSites, []string{colSite, colName, colSiteExtID}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites: %w", err)
	}

	sites := make([]models.Site, 0, len(rows))
	for _, row := range rows {
		key, err := row.Int64(colSite)
		if err != nil {
			return nil, fmt.Errorf("failed to read sites: %w", err)
		}
		sites = append(sites, models.Site{
			Site:     key,
			Name:     row.String(colName),
			ExtSysID: row.String(colSiteExtID),
		})
	}
	return Reconcile(sites), nil
}

func (s *Service) readObjects(ctx context.Context, mtypes Selector) ([]models.Object, error) {
	var filter database.Filter
	if !mtypes.IsAll() {
		filter = database.Filter{database.InFold(colName, mtypes.lowered()...)}
	}

	rows, err := s.store.ReadRows(ctx, tableObjects, []string{colObject, colSite, colName, colObjectExtID}, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read objects: %w", err)
	}

	objects := make([]models.Object, 0, len(rows))
	for _, row := range rows {
		key, err := row.Int64(colObject)
		if err != nil {
			return nil, fmt.Errorf("failed to read objects: %w", err)
		}
		site, err := row.Int64(colSite)
		if err != nil {
			return nil, fmt.Errorf("failed to read object %d: %w", key, err)
		}
		objects = append(objects, models.Object{
			Object:   key,
			Site:     site,
			Name:     row.String(colName),
			ExtSysID: strings.TrimSpace(row.String(colObjectExtID)),
		})
	}
	return objects, nil
}

func (s *Service) readPoints(ctx context.Context, objects []int64) ([]models.Point, error) {
	var points []models.Point
	for _, batch := range chunks(objects, maxBatch) {
		rows, err := s.store.ReadRows(ctx, tablePoints, []string{colPoint, colObject},
			database.Filter{database.In(colObject, database.Keys(batch)...)})
		if err != nil {
			return nil, fmt.Errorf("failed to read points: %w", err)
		}
		for _, row := range rows {
			key, err := row.Int64(colPoint)
			if err != nil {
				return nil, fmt.Errorf("failed to read points: %w", err)
			}
			object, err := row.Int64(colObject)
			if err != nil {
				return nil, fmt.Errorf("failed to read point %d: %w", key, err)
			}
			points = append(points, models.Point{Point: key, Object: object})
		}
	}
	return points, nil
}

type span struct {
	from *time.Time
	to   *time.Time
}

func (s *Service) readCoverage(ctx context.Context, points []int64) (map[int64]span, error) {
	coverage := make(map[int64]span, len(points))
	for _, batch := range chunks(points, maxBatch) {
		rows, err := s.store.ReadRaw(ctx, coverageStatement(batch))
		if err != nil {
			return nil, fmt.Errorf("failed to read sample coverage: %w", err)
		}
		for _, row := range rows {
			key, err := row.Int64(colPoint)
			if err != nil {
				return nil, fmt.Errorf("failed to read sample coverage: %w", err)
			}
			from, err := row.Time(colFromDate)
			if err != nil {
				return nil, fmt.Errorf("failed to read coverage of point %d: %w", key, err)
			}
			to, err := row.Time(colToDate)
			if err != nil {
				return nil, fmt.Errorf("failed to read coverage of point %d: %w", key, err)
			}
			coverage[key] = span{from: from, to: to}
		}
	}
	return coverage, nil
}
