package hydrotel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/hydrotel/internal/database"
	"github.com/tejusbharadwaj/hydrotel/internal/models"
)

// CreateMeasurementType implements API.
//
// The reference object and point are copied column by column; only the
// name, the tree position and the keys change. The store does not return
// generated keys, so the new object is found again by site and exact name.
// A concurrent insert of the same name on the same site between the two
// steps makes that lookup ambiguous; the highest matching key is used.
func (s *Service) CreateMeasurementType(ctx context.Context, site string, referencePoint int64, name string) ([]models.ResolvedPoint, error) {
	site = strings.TrimSpace(site)
	name = strings.TrimSpace(name)
	if site == "" {
		return nil, fmt.Errorf("%w: site must not be empty", ErrInvalidArgument)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: measurement type name must not be empty", ErrInvalidArgument)
	}
	mtype := strings.ToLower(name)

	existing, err := s.Resolve(ctx, All(), One(site))
	if err != nil {
		return nil, err
	}

	var ref *models.ResolvedPoint
	for i := range existing {
		if existing[i].Point == referencePoint {
			ref = &existing[i]
			break
		}
	}
	if ref == nil {
		return nil, fmt.Errorf("%w: point %d is not a point of site %s", ErrInvalidArgument, referencePoint, site)
	}
	for _, r := range existing {
		if r.MType == mtype {
			return nil, fmt.Errorf("%w: measurement type %q already exists on site %s", ErrInvalidArgument, mtype, site)
		}
	}
	taken, err := s.nameTaken(ctx, ref.Site, mtype)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: measurement type %q already exists on site %s", ErrInvalidArgument, mtype, site)
	}

	refPoint, err := s.readOne(ctx, tablePoints, colPoint, ref.Point)
	if err != nil {
		return nil, err
	}
	refObject, err := s.readOne(ctx, tableObjects, colObject, ref.Object)
	if err != nil {
		return nil, err
	}

	position, err := s.nextTreePosition(ctx, ref.Site)
	if err != nil {
		return nil, err
	}

	object := refObject.Clone(colObject)
	object.Set(colName, name)
	object.Set(colTreePosition, position)
	if err := s.store.WriteRows(ctx, tableObjects, []database.Row{object}); err != nil {
		return nil, fmt.Errorf("failed to insert object %q: %w", name, err)
	}

	objectKey, err := s.findObject(ctx, ref.Site, name)
	if err != nil {
		return nil, err
	}

	point := refPoint.Clone(colPoint)
	point.Set(colObject, objectKey)
	if _, ok := point.Get(colName); ok {
		point.Set(colName, name)
	}
	if err := s.store.WriteRows(ctx, tablePoints, []database.Row{point}); err != nil {
		return nil, fmt.Errorf("failed to insert point for object %d: %w", objectKey, err)
	}

	s.logger.WithFields(logrus.Fields{
		"site":            site,
		"mtype":           mtype,
		"reference_point": referencePoint,
		"object":          objectKey,
		"tree_position":   position,
	}).Info("created measurement type")

	return s.Resolve(ctx, One(mtype), One(site))
}

// nameTaken reports whether an object of the site already carries mtype,
// including objects without points or with their own external id.
func (s *Service) nameTaken(ctx context.Context, site int64, mtype string) (bool, error) {
	rows, err := s.store.ReadRows(ctx, tableObjects, []string{colObject},
		database.Filter{database.In(colSite, site), database.InFold(colName, mtype)})
	if err != nil {
		return false, fmt.Errorf("failed to read objects of site %d: %w", site, err)
	}
	return len(rows) > 0, nil
}

func (s *Service) readOne(ctx context.Context, table, keyColumn string, key int64) (database.Row, error) {
	rows, err := s.store.ReadRows(ctx, table, nil, database.Filter{database.In(keyColumn, key)})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %d: %w", strings.ToLower(keyColumn), key, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s %d does not exist", ErrInvalidArgument, strings.ToLower(keyColumn), key)
	}
	return rows[0], nil
}

// nextTreePosition returns one past the highest tree position on the site.
// A site without positioned objects starts at 1.
func (s *Service) nextTreePosition(ctx context.Context, site int64) (int64, error) {
	rows, err := s.store.ReadRaw(ctx, maxTreePositionStatement(site))
	if err != nil {
		return 0, fmt.Errorf("failed to read tree positions of site %d: %w", site, err)
	}
	if len(rows) == 0 {
		return 1, nil
	}
	highest, err := rows[0].Int64(colTreePosition)
	if err != nil {
		if errors.Is(err, database.ErrNullValue) || errors.Is(err, database.ErrMissingColumn) {
			return 1, nil
		}
		return 0, fmt.Errorf("failed to read tree positions of site %d: %w", site, err)
	}
	return highest + 1, nil
}

func (s *Service) findObject(ctx context.Context, site int64, name string) (int64, error) {
	rows, err := s.store.ReadRows(ctx, tableObjects, []string{colObject},
		database.Filter{database.In(colSite, site), database.In(colName, name)})
	if err != nil {
		return 0, fmt.Errorf("failed to read back object %q: %w", name, err)
	}

	var found int64
	for _, row := range rows {
		key, err := row.Int64(colObject)
		if err != nil {
			return 0, fmt.Errorf("failed to read back object %q: %w", name, err)
		}
		if key > found {
			found = key
		}
	}
	if found == 0 {
		return 0, fmt.Errorf("%w: %q on site %d", ErrObjectNotFound, name, site)
	}
	return found, nil
}
