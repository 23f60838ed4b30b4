package hydrotel

import (
	"sort"
	"time"

	"github.com/tejusbharadwaj/hydrotel/internal/models"
)

// Pivot reshapes observations to one row per timestamp and one column per
// series. Cells without an observation are nil, never zero.
func Pivot(obs []models.Observation) *models.PivotTable {
	columnIndex := make(map[models.SeriesKey]int)
	var columns []models.SeriesKey
	times := make(map[int64]time.Time)
	for _, o := range obs {
		if _, ok := columnIndex[o.Key()]; !ok {
			columnIndex[o.Key()] = 0
			columns = append(columns, o.Key())
		}
		times[o.Time.UnixNano()] = o.Time
	}

	sort.Slice(columns, func(i, j int) bool { return columns[i].Less(columns[j]) })
	for i, c := range columns {
		columnIndex[c] = i
	}

	stamps := make([]int64, 0, len(times))
	for ns := range times {
		stamps = append(stamps, ns)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	rowIndex := make(map[int64]int, len(stamps))
	rows := make([]models.PivotRow, len(stamps))
	for i, ns := range stamps {
		rowIndex[ns] = i
		rows[i] = models.PivotRow{Time: times[ns], Values: make([]*float64, len(columns))}
	}

	for _, o := range obs {
		v := o.Value
		rows[rowIndex[o.Time.UnixNano()]].Values[columnIndex[o.Key()]] = &v
	}

	if columns == nil {
		columns = []models.SeriesKey{}
	}
	return &models.PivotTable{Columns: columns, Rows: rows}
}

// Unpivot turns a pivot table back into observations ordered by
// (ExtSiteID, MType, Time).
func Unpivot(table *models.PivotTable) []models.Observation {
	out := make([]models.Observation, 0)
	if table == nil {
		return out
	}
	for _, row := range table.Rows {
		for i, v := range row.Values {
			if v == nil || i >= len(table.Columns) {
				continue
			}
			out = append(out, models.Observation{
				ExtSiteID: table.Columns[i].ExtSiteID,
				MType:     table.Columns[i].MType,
				Time:      row.Time,
				Value:     *v,
			})
		}
	}
	sortObservations(out)
	return out
}
