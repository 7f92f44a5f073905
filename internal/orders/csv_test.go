package orders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecords(t *testing.T) {
	t.Parallel()

	t.Run("Should normalize a well-formed export", func(t *testing.T) {
		t.Parallel()

		input := strings.Join([]string{
			"Order Number,Title,SKU,Quantity,Location,Width,Weight,Order Value,Channel,Ship From",
			"1001,Greeting Card,ABC-CK003,1,A4,16.2,25,3.50,ebay,SM Warehouse",
			"1001,Gift Box,BOX-01,2,B2,,850,12.00,ebay,SM Warehouse",
		}, "\n")

		records, err := ReadRecords(strings.NewReader(input), DefaultMapping())
		require.NoError(t, err)
		require.Len(t, records, 2)

		first := records[0]
		assert.Equal(t, "1001", first.OrderNumber)
		assert.Equal(t, "Greeting Card", first.Title)
		assert.Equal(t, "ABC-CK003", first.Sku)
		assert.Equal(t, 1, first.Quantity)
		assert.Equal(t, "A4", first.Location)
		require.NotNil(t, first.Width)
		assert.Equal(t, 16.2, *first.Width)
		assert.Equal(t, "ebay", first.Channel)
		assert.Equal(t, "SM Warehouse", first.ShipFromLocation)

		// Empty width cell is absent, not zero.
		assert.Nil(t, records[1].Width)
		assert.Equal(t, 2, records[1].Quantity)
	})

	t.Run("Should match headers case-insensitively with padding", func(t *testing.T) {
		t.Parallel()

		input := "order number , sku ,QUANTITY\n2002,XYZ-1,3\n"

		records, err := ReadRecords(strings.NewReader(input), DefaultMapping())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "XYZ-1", records[0].Sku)
		assert.Equal(t, 3, records[0].Quantity)
	})

	t.Run("Should default a malformed quantity to 1", func(t *testing.T) {
		t.Parallel()

		input := "Order Number,SKU,Quantity\n1,A,many\n2,B,-4\n3,C,\n"

		records, err := ReadRecords(strings.NewReader(input), DefaultMapping())
		require.NoError(t, err)
		require.Len(t, records, 3)
		for _, rec := range records {
			assert.Equal(t, 1, rec.Quantity)
		}
	})

	t.Run("Should treat an unparseable numeric cell as absent", func(t *testing.T) {
		t.Parallel()

		input := "Order Number,SKU,Width\n1,A,wide\n"

		records, err := ReadRecords(strings.NewReader(input), DefaultMapping())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Nil(t, records[0].Width)
	})

	t.Run("Should skip fully blank lines", func(t *testing.T) {
		t.Parallel()

		input := "Order Number,SKU\n1,A\n,\n2,B\n"

		records, err := ReadRecords(strings.NewReader(input), DefaultMapping())
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("Should fail when the mapped SKU column is missing", func(t *testing.T) {
		t.Parallel()

		input := "Order Number,Quantity\n1,2\n"

		_, err := ReadRecords(strings.NewReader(input), DefaultMapping())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SKU column")
	})

	t.Run("Should fail on an empty stream", func(t *testing.T) {
		t.Parallel()

		_, err := ReadRecords(strings.NewReader(""), DefaultMapping())
		assert.Error(t, err)
	})

	t.Run("Should honor a custom column mapping", func(t *testing.T) {
		t.Parallel()

		mapping := Mapping{
			OrderNumber: "Bestellnummer",
			Sku:         "Artikel",
			Quantity:    "Menge",
		}
		input := "Bestellnummer,Artikel,Menge\n77,DE-1,2\n"

		records, err := ReadRecords(strings.NewReader(input), mapping)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "77", records[0].OrderNumber)
		assert.Equal(t, "DE-1", records[0].Sku)
		assert.Equal(t, 2, records[0].Quantity)
	})
}

func TestGroupByOrderNumber(t *testing.T) {
	t.Parallel()

	t.Run("Should group lines by order number in first-seen order", func(t *testing.T) {
		t.Parallel()

		records := []Record{
			{OrderNumber: "B"},
			{OrderNumber: "A"},
			{OrderNumber: "B"},
			{OrderNumber: "C"},
		}

		groups := GroupByOrderNumber(records)

		require.Len(t, groups, 3)
		assert.Equal(t, "B", groups[0].OrderNumber)
		assert.Len(t, groups[0].Records, 2)
		assert.Equal(t, "A", groups[1].OrderNumber)
		assert.Equal(t, "C", groups[2].OrderNumber)
	})

	t.Run("Should keep records without an order number as single-line groups", func(t *testing.T) {
		t.Parallel()

		records := []Record{
			{OrderNumber: ""},
			{OrderNumber: ""},
		}

		groups := GroupByOrderNumber(records)
		assert.Len(t, groups, 2)
	})

	t.Run("Should return no groups for no records", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, GroupByOrderNumber(nil))
	})
}
