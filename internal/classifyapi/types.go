package classifyapi

import (
	"github.com/packline/packline/internal/ruleengine"
)

// ClassifyRequest is the payload for POST /classify: one order's attributes.
// ChannelType is accepted as an alias for channel because older exports from
// the sales platform name the column that way.
type ClassifyRequest struct {
	ruleengine.Order

	ChannelType string `json:"channelType,omitempty"`
}

// normalize folds aliases into the canonical order shape.
func (r *ClassifyRequest) normalize() ruleengine.Order {
	o := r.Order
	if o.Channel == "" {
		o.Channel = r.ChannelType
	}
	return o
}

// CategoryResult is one catalog's verdict for an order.
// Matched false with an empty result means no enabled rule applied; the
// station UI renders that as "unclassified" rather than as an error.
type CategoryResult struct {
	Matched     bool   `json:"matched"`
	ResultValue string `json:"result_value,omitempty"`
	Color       string `json:"color,omitempty"`
}

// ClassifyResponse carries both catalog verdicts for one order.
type ClassifyResponse struct {
	Packaging CategoryResult `json:"packaging"`
	Box       CategoryResult `json:"box"`
}

// PickLine is one classified order line in an import result.
type PickLine struct {
	Title     string          `json:"title,omitempty"`
	Order     ruleengine.Order `json:"order"`
	Packaging CategoryResult  `json:"packaging"`
	Box       CategoryResult  `json:"box"`
}

// PickGroup bundles the classified lines of one order number.
type PickGroup struct {
	OrderNumber string     `json:"order_number"`
	Lines       []PickLine `json:"lines"`
}

// ImportResponse is the classified pick list built from a CSV upload.
type ImportResponse struct {
	Orders int         `json:"orders"`
	Lines  int         `json:"lines"`
	Groups []PickGroup `json:"groups"`
}

// ErrorResponse mirrors the control plane's structured error shape.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
