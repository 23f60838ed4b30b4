package hydrotel_test

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/tejusbharadwaj/hydrotel/internal/database"
	"github.com/tejusbharadwaj/hydrotel/internal/resample"
)

// memStore is an in-memory TabularStore holding a small Hydrotel database.
type memStore struct {
	tables  map[string][]database.Row
	samples []memSample
	next    map[string]int64

	queries []database.TimeSeriesQuery
	reads   int
	writes  int
}

type memSample struct {
	point int64
	at    time.Time
	value float64
}

var (
	coverageRe = regexp.MustCompile(`^SELECT Point, MIN\(DT\) AS FromDate, MAX\(DT\) AS ToDate FROM Samples WHERE Point IN \(([0-9, ]+)\) GROUP BY Point$`)
	treeRe     = regexp.MustCompile(`^SELECT MAX\(TreePosition\) AS TreePosition FROM Objects WHERE Site = ([0-9]+)$`)
)

// autoKeys names the generated key column of each table.
var autoKeys = map[string]string{
	"objects": "object",
	"points":  "point",
}

func day(d, hour int) time.Time {
	return time.Date(2024, time.January, d, hour, 0, 0, 0, time.UTC)
}

func site(key int64, name, code string) database.Row {
	return database.NewRow(map[string]any{"Site": key, "Name": name, "ExtSysId": code})
}

func object(key, site int64, name, code string, position int64) database.Row {
	return database.NewRow(map[string]any{
		"Object":       key,
		"Site":         site,
		"Name":         name,
		"ExtSysID":     code,
		"TreePosition": position,
		"Description":  "object " + strconv.FormatInt(key, 10),
	})
}

func point(key, object int64, name string) database.Row {
	return database.NewRow(map[string]any{"Point": key, "Object": object, "Name": name, "Units": "m3/s"})
}

// newMemStore seeds three addressable sites:
//
//	69607     site 1: flow (points 100 and 107), water level (101)
//	70105     site 2: rainfall (102); its flow object carries its own code 70999 (103)
//	L37/0024  site 3: water level (104), rainfall (106)
//
// Site 4 has no code and site 5 repeats 69607, so neither is addressable.
func newMemStore() *memStore {
	return &memStore{
		tables: map[string][]database.Row{
			"sites": {
				site(1, "Waikato at Hamilton", "69607"),
				site(2, "Ruakura", " 70105 "),
				site(3, "L37/0024 shallow", "1234"),
				site(4, "Depot", "  "),
				site(5, "Hamilton copy", "69607"),
			},
			"objects": {
				object(10, 1, "Flow", "", 1),
				object(11, 1, "Water Level", "", 2),
				object(12, 2, "Rainfall", "", 1),
				object(13, 2, "Flow", "70999", 2),
				object(14, 3, "Water Level", " ", 1),
				object(15, 4, "Flow", "", 1),
				object(16, 3, "Rainfall", "", 5),
			},
			"points": {
				point(100, 10, "Flow"),
				point(101, 11, "Water Level"),
				point(102, 12, "Rainfall"),
				point(103, 13, "Flow"),
				point(104, 14, "Water Level"),
				point(105, 15, "Flow"),
				point(106, 16, "Rainfall"),
				point(107, 10, "Flow backup logger"),
			},
		},
		samples: []memSample{
			{100, day(1, 0), 1},
			{100, day(1, 6), 2},
			{100, day(1, 12), 3},
			{100, day(2, 0), 4},
			{107, day(1, 0), 100},
			{107, day(3, 0), 7},
			{101, day(1, 8), 1.23456},
			{102, day(1, 1), 0.5},
			{102, day(1, 2), 1.5},
			{102, day(2, 9), 3},
			{103, day(1, 0), 9},
			{104, day(2, 3), 10},
			{106, day(2, 4), 0.2},
			{105, day(1, 0), 5},
		},
		next: map[string]int64{"objects": 17, "points": 108},
	}
}

func (m *memStore) table(name string) []database.Row {
	return m.tables[strings.ToLower(name)]
}

func matches(row database.Row, cond database.Condition) bool {
	v, _ := row.Get(cond.Column)
	got := cast.ToString(v)
	if cond.FoldCase {
		got = strings.ToLower(got)
	}
	for _, want := range cond.Values {
		if got == cast.ToString(want) {
			return true
		}
	}
	return false
}

func (m *memStore) ReadRows(_ context.Context, table string, columns []string, filter database.Filter) ([]database.Row, error) {
	m.reads++
	rows, ok := m.tables[strings.ToLower(table)]
	if !ok {
		return nil, fmt.Errorf("no such table %s", table)
	}

	out := make([]database.Row, 0)
	for _, row := range rows {
		keep := true
		for _, cond := range filter {
			if !matches(row, cond) {
				keep = false
				break
			}
		}
		if !keep {
			continue
		}
		if len(columns) == 0 {
			out = append(out, row.Clone())
			continue
		}
		projected := database.Row{}
		for _, col := range columns {
			v, _ := row.Get(col)
			projected.Set(col, v)
		}
		out = append(out, projected)
	}
	return out, nil
}

func (m *memStore) ReadRaw(_ context.Context, statement string) ([]database.Row, error) {
	m.reads++
	if g := coverageRe.FindStringSubmatch(statement); g != nil {
		wanted := make(map[int64]bool)
		for _, k := range strings.Split(g[1], ",") {
			wanted[cast.ToInt64(strings.TrimSpace(k))] = true
		}
		type span struct{ from, to time.Time }
		spans := make(map[int64]*span)
		for _, s := range m.samples {
			if !wanted[s.point] {
				continue
			}
			sp, ok := spans[s.point]
			if !ok {
				spans[s.point] = &span{from: s.at, to: s.at}
				continue
			}
			if s.at.Before(sp.from) {
				sp.from = s.at
			}
			if s.at.After(sp.to) {
				sp.to = s.at
			}
		}
		out := make([]database.Row, 0, len(spans))
		for p, sp := range spans {
			out = append(out, database.NewRow(map[string]any{"Point": p, "FromDate": sp.from, "ToDate": sp.to}))
		}
		return out, nil
	}

	if g := treeRe.FindStringSubmatch(statement); g != nil {
		site := cast.ToInt64(g[1])
		var highest any
		for _, row := range m.tables["objects"] {
			if s, _ := row.Int64("Site"); s != site {
				continue
			}
			p, err := row.Int64("TreePosition")
			if err != nil {
				continue
			}
			if highest == nil || p > highest.(int64) {
				highest = p
			}
		}
		return []database.Row{database.NewRow(map[string]any{"TreePosition": highest})}, nil
	}

	return nil, fmt.Errorf("unsupported statement %q", statement)
}

func (m *memStore) ReadTimeSeries(_ context.Context, q database.TimeSeriesQuery) ([]resample.Sample, error) {
	m.reads++
	m.queries = append(m.queries, q)
	if err := q.Options().Validate(); err != nil {
		return nil, err
	}

	wanted := make(map[int64]bool, len(q.Keys))
	for _, k := range q.Keys {
		wanted[k] = true
	}
	var samples []resample.Sample
	for _, s := range m.samples {
		if !wanted[s.point] {
			continue
		}
		if q.From != nil && s.at.Before(*q.From) {
			continue
		}
		if q.To != nil && s.at.After(*q.To) {
			continue
		}
		samples = append(samples, resample.Sample{Key: s.point, Time: s.at, Value: s.value})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].Key != samples[j].Key {
			return samples[i].Key < samples[j].Key
		}
		return samples[i].Time.Before(samples[j].Time)
	})
	return resample.Resample(samples, q.Options())
}

func (m *memStore) WriteRows(_ context.Context, table string, rows []database.Row) error {
	m.writes++
	name := strings.ToLower(table)
	for _, row := range rows {
		row = row.Clone()
		if key, ok := autoKeys[name]; ok {
			if _, set := row.Get(key); !set {
				row.Set(key, m.next[name])
				m.next[name]++
			}
		}
		m.tables[name] = append(m.tables[name], row)
	}
	return nil
}

var _ database.TabularStore = (*memStore)(nil)
