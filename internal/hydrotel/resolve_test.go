package hydrotel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/hydrotel/internal/database"
	"github.com/tejusbharadwaj/hydrotel/internal/database/mocks"
	"github.com/tejusbharadwaj/hydrotel/internal/hydrotel"
	"github.com/tejusbharadwaj/hydrotel/internal/models"
)

type resolvedKey struct {
	site  string
	mtype string
	point int64
}

func keysOf(rows []models.ResolvedPoint) []resolvedKey {
	out := make([]resolvedKey, len(rows))
	for i, r := range rows {
		out[i] = resolvedKey{r.ExtSiteID, r.MType, r.Point}
	}
	return out
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mtypes hydrotel.Selector
		sites  hydrotel.Selector
		want   []resolvedKey
	}{
		{
			name:   "sites and types",
			mtypes: hydrotel.Many("flow", "water level", "rainfall"),
			sites:  hydrotel.Many("69607", "70105", "L37/0024"),
			want: []resolvedKey{
				{"69607", "flow", 100},
				{"69607", "flow", 107},
				{"69607", "water level", 101},
				{"70105", "rainfall", 102},
				{"L37/0024", "rainfall", 106},
				{"L37/0024", "water level", 104},
			},
		},
		{
			name:   "type names match case insensitively",
			mtypes: hydrotel.One(" WATER level "),
			sites:  hydrotel.All(),
			want: []resolvedKey{
				{"69607", "water level", 101},
				{"L37/0024", "water level", 104},
			},
		},
		{
			name:   "object code wins over site code",
			mtypes: hydrotel.One("flow"),
			sites:  hydrotel.One("70999"),
			want:   []resolvedKey{{"70999", "flow", 103}},
		},
		{
			name:   "site code is shadowed by object code",
			mtypes: hydrotel.One("flow"),
			sites:  hydrotel.One("70105"),
			want:   []resolvedKey{},
		},
		{
			name:   "unknown site",
			mtypes: hydrotel.All(),
			sites:  hydrotel.One("99999"),
			want:   []resolvedKey{},
		},
		{
			name:   "unknown type",
			mtypes: hydrotel.One("turbidity"),
			sites:  hydrotel.All(),
			want:   []resolvedKey{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := hydrotel.NewService(newMemStore())

			got, err := svc.Resolve(ctx, tt.mtypes, tt.sites)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keysOf(got))
		})
	}
}

func TestResolveAttachesCoverage(t *testing.T) {
	svc := hydrotel.NewService(newMemStore())

	got, err := svc.Resolve(context.Background(), hydrotel.One("flow"), hydrotel.One("69607"))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].Site)
	assert.Equal(t, int64(10), got[0].Object)
	require.NotNil(t, got[0].FromDate)
	require.NotNil(t, got[0].ToDate)
	assert.True(t, day(1, 0).Equal(*got[0].FromDate))
	assert.True(t, day(2, 0).Equal(*got[0].ToDate))

	assert.True(t, day(3, 0).Equal(*got[1].ToDate))
}

func TestResolveAllIsUnionOfTypes(t *testing.T) {
	ctx := context.Background()
	svc := hydrotel.NewService(newMemStore())

	all, err := svc.Resolve(ctx, hydrotel.All(), hydrotel.All())
	require.NoError(t, err)

	types, err := svc.ListMeasurementTypes(ctx)
	require.NoError(t, err)

	var union []models.ResolvedPoint
	for _, mt := range types {
		rows, err := svc.Resolve(ctx, hydrotel.One(mt.MType), hydrotel.All())
		require.NoError(t, err)
		union = append(union, rows...)
	}

	assert.NotEmpty(t, all)
	assert.ElementsMatch(t, all, union)
}

func TestResolveEmptySelectorSkipsStore(t *testing.T) {
	store := newMemStore()
	svc := hydrotel.NewService(store)

	got, err := svc.Resolve(context.Background(), hydrotel.Many(), hydrotel.All())
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.Resolve(context.Background(), hydrotel.All(), hydrotel.Many())
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Zero(t, store.reads)
}

func TestResolveStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	errDown := errors.New("connection refused")
	store := mocks.NewMockTabularStore(ctrl)
	store.EXPECT().
		ReadRows(gomock.Any(), "Sites", gomock.Any(), gomock.Nil()).
		Return([]database.Row{database.NewRow(map[string]any{"site": int64(1), "name": "Hamilton", "extsysid": "69607"})}, nil)
	store.EXPECT().
		ReadRows(gomock.Any(), "Objects", gomock.Any(), gomock.Any()).
		Return(nil, errDown)

	svc := hydrotel.NewService(store)
	_, err := svc.Resolve(context.Background(), hydrotel.One("flow"), hydrotel.All())
	require.Error(t, err)
	assert.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, hydrotel.ErrInvalidArgument)
}

func TestListMeasurementTypes(t *testing.T) {
	svc := hydrotel.NewService(newMemStore())

	got, err := svc.ListMeasurementTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.MTypeCount{
		{MType: "flow", Count: 3},
		{MType: "rainfall", Count: 2},
		{MType: "water level", Count: 2},
	}, got)
}
