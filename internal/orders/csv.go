package orders

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/packline/packline/internal/ruleengine"
)

// Mapping names the CSV column headers that carry each order attribute.
// Warehouses export order lists from several systems with different header
// vocabularies; a mapping adapts one layout without code changes. An empty
// entry means "this source does not carry that attribute".
type Mapping struct {
	OrderNumber      string
	Title            string
	Sku              string
	Quantity         string
	Location         string
	Width            string
	Weight           string
	OrderValue       string
	Channel          string
	ShipFromLocation string
}

// DefaultMapping matches the common export layout.
func DefaultMapping() Mapping {
	return Mapping{
		OrderNumber:      "Order Number",
		Title:            "Title",
		Sku:              "SKU",
		Quantity:         "Quantity",
		Location:         "Location",
		Width:            "Width",
		Weight:           "Weight",
		OrderValue:       "Order Value",
		Channel:          "Channel",
		ShipFromLocation: "Ship From",
	}
}

// ReadRecords parses a CSV stream into normalized order records using the
// given column mapping.
//
// Header matching is case-insensitive on trimmed names. A structurally broken
// stream (no header row, missing mapped required columns, malformed CSV) is an
// error; per-line data problems are not: an unparseable optional numeric cell
// becomes an absent value, never zero, and a missing quantity defaults to 1 so
// a single-line pick is still actionable. That mirrors how the engine treats
// absence: it never matches, it never crashes.
func ReadRecords(r io.Reader, m Mapping) ([]Record, error) {
	reader := csv.NewReader(r)
	// Exports frequently carry ragged optional tail columns.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv stream is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normalizeHeader(name)] = i
	}

	lookup := func(mapped string) (int, bool) {
		if mapped == "" {
			return 0, false
		}
		i, ok := columns[normalizeHeader(mapped)]
		return i, ok
	}

	// SKU is the one column the classification engine cannot do without.
	if _, ok := lookup(m.Sku); !ok {
		return nil, fmt.Errorf("csv is missing the mapped SKU column %q", m.Sku)
	}

	var records []Record
	line := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		cell := func(mapped string) string {
			i, ok := lookup(mapped)
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := Record{
			OrderNumber: cell(m.OrderNumber),
			Title:       cell(m.Title),
			Order: ruleengine.Order{
				Sku:              cell(m.Sku),
				Quantity:         parseQuantity(cell(m.Quantity)),
				Location:         cell(m.Location),
				Width:            parseOptionalNumber(cell(m.Width)),
				Weight:           parseOptionalNumber(cell(m.Weight)),
				OrderValue:       parseOptionalNumber(cell(m.OrderValue)),
				Channel:          cell(m.Channel),
				ShipFromLocation: cell(m.ShipFromLocation),
			},
		}

		// Fully blank lines are layout noise, not data.
		if rec.Sku == "" && rec.OrderNumber == "" {
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}

// normalizeHeader makes header comparison tolerant of case and padding.
func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// parseQuantity parses a quantity cell, defaulting to 1 for anything
// missing or malformed.
func parseQuantity(s string) int {
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// parseOptionalNumber parses an optional numeric cell.
// Anything unparseable is absent (nil), never zero: the engine must be able
// to distinguish "no width recorded" from "width is 0".
func parseOptionalNumber(s string) *float64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &n
}
