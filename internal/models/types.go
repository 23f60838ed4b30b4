package models

import "time"

// Site is a physical monitoring location as stored in the Sites table.
type Site struct {
	Site     int64  `json:"site"`
	Name     string `json:"name"`
	ExtSysID string `json:"ext_sys_id"`
}

// Object is a named attribute stream attached to a site.
type Object struct {
	Object       int64  `json:"object"`
	Site         int64  `json:"site"`
	Name         string `json:"name"`
	ExtSysID     string `json:"ext_sys_id,omitempty"`
	TreePosition int64  `json:"tree_position"`
}

// Point is a time series channel feeding an Object.
type Point struct {
	Point  int64 `json:"point"`
	Object int64 `json:"object"`
}

// ResolvedPoint ties an external (site, measurement type) pair to the
// point that holds its samples.
type ResolvedPoint struct {
	ExtSiteID string     `json:"ext_site_id"`
	MType     string     `json:"mtype"`
	Site      int64      `json:"site"`
	Object    int64      `json:"object"`
	Point     int64      `json:"point"`
	FromDate  *time.Time `json:"from_date,omitempty"`
	ToDate    *time.Time `json:"to_date,omitempty"`
}

// Key returns the external series key of the row.
func (r ResolvedPoint) Key() SeriesKey {
	return SeriesKey{ExtSiteID: r.ExtSiteID, MType: r.MType}
}

// MTypeCount is one entry of the measurement type catalogue.
type MTypeCount struct {
	MType string `json:"mtype"`
	Count int    `json:"count"`
}

// SeriesKey identifies one external series.
type SeriesKey struct {
	ExtSiteID string `json:"ext_site_id"`
	MType     string `json:"mtype"`
}

// Less orders keys by site, then measurement type.
func (k SeriesKey) Less(other SeriesKey) bool {
	if k.ExtSiteID != other.ExtSiteID {
		return k.ExtSiteID < other.ExtSiteID
	}
	return k.MType < other.MType
}

// Observation is one aggregated value of an external series.
type Observation struct {
	ExtSiteID string    `json:"ext_site_id"`
	MType     string    `json:"mtype"`
	Time      time.Time `json:"time"`
	Value     float64   `json:"value"`
}

// Key returns the series the observation belongs to.
func (o Observation) Key() SeriesKey {
	return SeriesKey{ExtSiteID: o.ExtSiteID, MType: o.MType}
}

// PivotRow holds the values of every column at one timestamp. A nil entry
// means the series has no value at that time.
type PivotRow struct {
	Time   time.Time  `json:"time"`
	Values []*float64 `json:"values"`
}

// PivotTable is the wide form of a series set.
type PivotTable struct {
	Columns []SeriesKey `json:"columns"`
	Rows    []PivotRow  `json:"rows"`
}

// SeriesSet is the combined result of a time series fetch, ordered by
// (ExtSiteID, MType, Time).
type SeriesSet struct {
	Observations []Observation `json:"observations"`
	Pivot        *PivotTable   `json:"pivot,omitempty"`
}

// Len returns the number of observations.
func (s *SeriesSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Observations)
}
