package hydrotel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/hydrotel/internal/hydrotel"
	"github.com/tejusbharadwaj/hydrotel/internal/models"
)

func TestPivotUnpivot(t *testing.T) {
	in := []models.Observation{
		obs("L37/0024", "water level", day(2, 0), 10),
		obs("69607", "flow", day(1, 0), 2),
		obs("69607", "flow", day(3, 0), -1.5),
		obs("70105", "rainfall", day(1, 0), 0),
		obs("69607", "flow", day(2, 0), 4),
	}

	table := hydrotel.Pivot(in)
	require.Len(t, table.Columns, 3)
	require.Len(t, table.Rows, 3)

	// A zero value stays a value; a missing one stays nil.
	require.NotNil(t, table.Rows[0].Values[1])
	assert.Equal(t, 0.0, *table.Rows[0].Values[1])
	assert.Nil(t, table.Rows[0].Values[2])

	out := hydrotel.Unpivot(table)
	assert.ElementsMatch(t, in, out)
	assert.Equal(t, "69607", out[0].ExtSiteID)
	assert.True(t, day(1, 0).Equal(out[0].Time))
}

func TestPivotEmpty(t *testing.T) {
	table := hydrotel.Pivot(nil)
	require.NotNil(t, table)
	assert.Empty(t, table.Columns)
	assert.Empty(t, table.Rows)

	assert.Empty(t, hydrotel.Unpivot(table))
	assert.Empty(t, hydrotel.Unpivot(nil))
}
