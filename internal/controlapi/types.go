// Package controlapi implements the REST API for the Packline Control Plane.
// It handles HTTP routing, request decoding, validation, and response formatting.
package controlapi

import (
	"strings"

	"github.com/packline/packline/internal/ruleengine"
)

// CreateRuleRequest defines the payload for creating a new classification rule.
// Used for JSON decoding in the POST /rules endpoint.
type CreateRuleRequest struct {
	// ID is optional. When omitted, the store assigns a UUID.
	ID string `json:"id,omitempty"`

	// Name is required.
	Name string `json:"name"`

	// Description is optional.
	Description string `json:"description,omitempty"`

	// Conditions is the list of predicates, all of which must match.
	// An empty list makes the rule a catch-all.
	Conditions []ruleengine.Condition `json:"conditions"`

	// RuleType selects the catalog: "packaging" or "box".
	RuleType ruleengine.RuleType `json:"rule_type"`

	// ResultValue is the classification the rule assigns when it matches.
	ResultValue string `json:"result_value"`

	// Priority defaults to ruleengine.DefaultPriority if omitted.
	// A pointer distinguishes "omitted" from an explicit 0.
	Priority *int `json:"priority,omitempty"`

	// Enabled defaults to true if omitted: a freshly created rule takes
	// effect immediately unless the caller says otherwise.
	Enabled *bool `json:"enabled,omitempty"`

	// Color is the display color for box rules ("#RGB" or "#RRGGBB").
	Color string `json:"color,omitempty"`
}

// Sanitize cleans up input data by trimming whitespace.
// This prevents "dirty" data from entering the system logic.
func (r *CreateRuleRequest) Sanitize() {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.ResultValue = strings.TrimSpace(r.ResultValue)
	r.Color = strings.TrimSpace(r.Color)
}

// ToRule converts the DTO to the domain model, applying defaults for
// omitted optional fields.
func (r *CreateRuleRequest) ToRule() ruleengine.Rule {
	rule := ruleengine.Rule{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Conditions:  r.Conditions,
		RuleType:    r.RuleType,
		ResultValue: r.ResultValue,
		Priority:    ruleengine.DefaultPriority,
		Enabled:     true,
		Color:       r.Color,
	}
	if r.Priority != nil {
		rule.Priority = *r.Priority
	}
	if r.Enabled != nil {
		rule.Enabled = *r.Enabled
	}
	return rule
}

// UpdateRuleRequest defines the payload for partial updates (PATCH).
// Pointers are used to distinguish between "missing field" (keep current)
// and "zero value" (explicit update).
type UpdateRuleRequest struct {
	Name        *string                 `json:"name,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Conditions  *[]ruleengine.Condition `json:"conditions,omitempty"`
	ResultValue *string                 `json:"result_value,omitempty"`
	Priority    *int                    `json:"priority,omitempty"`
	Enabled     *bool                   `json:"enabled,omitempty"`
	Color       *string                 `json:"color,omitempty"`
}

// Apply overlays the provided fields onto an existing rule.
// RuleType is immutable: a rule never migrates between catalogs.
func (r *UpdateRuleRequest) Apply(rule *ruleengine.Rule) {
	if r.Name != nil {
		rule.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		rule.Description = strings.TrimSpace(*r.Description)
	}
	if r.Conditions != nil {
		rule.Conditions = *r.Conditions
	}
	if r.ResultValue != nil {
		rule.ResultValue = strings.TrimSpace(*r.ResultValue)
	}
	if r.Priority != nil {
		rule.Priority = *r.Priority
	}
	if r.Enabled != nil {
		rule.Enabled = *r.Enabled
	}
	if r.Color != nil {
		rule.Color = strings.TrimSpace(*r.Color)
	}
}

// MoveRuleRequest defines the payload for POST /rules/{id}/move.
type MoveRuleRequest struct {
	// Direction is "up" (evaluate earlier) or "down" (evaluate later).
	Direction string `json:"direction"`
}

// ResetCatalogRequest defines the payload for POST /rules/reset.
type ResetCatalogRequest struct {
	// RuleType names the catalog to restore to its factory defaults.
	RuleType ruleengine.RuleType `json:"rule_type"`
}

// ErrorResponse represents a standard structured API error.
type ErrorResponse struct {
	// Code is a machine-readable error code (e.g., "ERR_VALIDATION").
	Code string `json:"code"`

	// Message is a human-readable description of the error.
	Message string `json:"message"`

	// Problems lists individual validation failures, one human-readable
	// message each, suitable for rendering directly in an admin UI.
	Problems []string `json:"problems,omitempty"`
}
