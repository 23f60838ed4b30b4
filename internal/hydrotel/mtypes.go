package hydrotel

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tejusbharadwaj/hydrotel/internal/models"
)

// ListMeasurementTypes implements API. Ties are ordered by name.
func (s *Service) ListMeasurementTypes(ctx context.Context) ([]models.MTypeCount, error) {
	rows, err := s.store.ReadRows(ctx, tableObjects, []string{colName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read objects: %w", err)
	}

	counts := make(map[string]int)
	for _, row := range rows {
		mtype := strings.ToLower(strings.TrimSpace(row.String(colName)))
		if mtype == "" {
			continue
		}
		counts[mtype]++
	}

	out := make([]models.MTypeCount, 0, len(counts))
	for mtype, n := range counts {
		out = append(out, models.MTypeCount{MType: mtype, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].MType < out[j].MType
	})
	return out, nil
}
