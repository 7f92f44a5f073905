// Package orders supplies normalized order records to the classification
// engine. It covers the ingestion side the engine deliberately knows nothing
// about: reading column-mapped CSV exports and grouping lines that belong to
// the same order number.
package orders

import "github.com/packline/packline/internal/ruleengine"

// Record is one order line as ingested from an external source, normalized to
// the shape the rule engine evaluates. The engine itself never sees the order
// number or title; they exist for grouping and picker display.
type Record struct {
	// OrderNumber ties lines from the same customer order together.
	OrderNumber string `json:"order_number"`

	// Title is the human-readable product name shown to the picker.
	Title string `json:"title,omitempty"`

	ruleengine.Order
}

// Group is a set of record lines sharing one order number, in the order they
// appeared in the source.
type Group struct {
	OrderNumber string   `json:"order_number"`
	Records     []Record `json:"records"`
}

// GroupByOrderNumber collapses a flat record list into per-order groups.
//
// Grouping is stable in both dimensions: groups appear in first-seen order and
// lines keep their relative order inside a group. Records with an empty order
// number are kept, each as its own single-line group, so a sparse export never
// silently drops lines.
func GroupByOrderNumber(records []Record) []Group {
	groups := make([]Group, 0, len(records))
	index := make(map[string]int, len(records))

	for _, rec := range records {
		if rec.OrderNumber == "" {
			groups = append(groups, Group{Records: []Record{rec}})
			continue
		}

		if i, seen := index[rec.OrderNumber]; seen {
			groups[i].Records = append(groups[i].Records, rec)
			continue
		}

		index[rec.OrderNumber] = len(groups)
		groups = append(groups, Group{
			OrderNumber: rec.OrderNumber,
			Records:     []Record{rec},
		})
	}

	return groups
}
