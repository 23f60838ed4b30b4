package hydrotel_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/hydrotel/internal/hydrotel"
)

func TestSelectorFromValue(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    hydrotel.Selector
		wantErr bool
	}{
		{name: "nil selects all", value: nil, want: hydrotel.All()},
		{name: "string selects one", value: "Flow", want: hydrotel.One("Flow")},
		{name: "string list", value: []string{"flow", "rainfall"}, want: hydrotel.Many("flow", "rainfall")},
		{name: "decoded list", value: []any{"69607", "L37/0024"}, want: hydrotel.Many("69607", "L37/0024")},
		{name: "empty list selects nothing", value: []any{}, want: hydrotel.Many()},
		{name: "number", value: 69607.0, wantErr: true},
		{name: "mixed list", value: []any{"flow", 3.0}, wantErr: true},
		{name: "map", value: map[string]any{"a": "b"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := hydrotel.SelectorFromValue("mtypes", tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, hydrotel.ErrInvalidArgument)
				assert.Contains(t, err.Error(), "mtypes")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelector(t *testing.T) {
	var zero hydrotel.Selector
	assert.True(t, zero.IsAll())
	assert.Nil(t, zero.Values())
	assert.Equal(t, "*", zero.String())

	none := hydrotel.Many()
	assert.False(t, none.IsAll())
	assert.Empty(t, none.Values())

	s := hydrotel.Many(" Flow ", "rainfall")
	assert.False(t, s.IsAll())
	assert.Equal(t, []string{"Flow", "rainfall"}, s.Values())
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    *time.Time
		wantErr bool
	}{
		{name: "empty is unbounded", input: "", want: nil},
		{name: "blank is unbounded", input: "  ", want: nil},
		{name: "date", input: "2024-01-02", want: ptr(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))},
		{name: "rfc3339", input: "2024-01-02T03:04:05Z", want: ptr(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))},
		{name: "local timestamp", input: "2024-01-02 03:04:05", want: ptr(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))},
		{name: "period", input: "P30D", want: ptr(now.Add(-30 * 24 * time.Hour))},
		{name: "lower case period", input: "pt6h", want: ptr(now.Add(-6 * time.Hour))},
		{name: "garbage", input: "yesterday", wantErr: true},
		{name: "bad period", input: "P3X", wantErr: true},
		{name: "longest period", input: "P290Y", want: ptr(now.Add(-290 * 365 * 24 * time.Hour))},
		{name: "period past duration range", input: "P300Y", wantErr: true},
		{name: "huge period", input: "P100000000000Y", wantErr: true},
		{name: "huge hour period", input: "PT3000000H", wantErr: true},
		{name: "day first", input: "02/01/2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := hydrotel.ParseDate(tt.input, now)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, hydrotel.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %s, got %s", tt.want, got)
		})
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
