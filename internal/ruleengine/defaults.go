package ruleengine

// Built-in default catalogs. The host seeds a fresh installation from these
// and reseeds them on an explicit "reset to defaults". IDs are stable slugs so
// repeated resets are idempotent at the persistence layer; timestamps are left
// zero and assigned by the store on insert.

// DefaultPackagingRules returns the seed catalog for packaging classification.
func DefaultPackagingRules() []Rule {
	return []Rule{
		{
			ID:          "default-large-letter",
			Name:        "Large letter singles",
			Description: "Single flat items that fit the large letter slot",
			RuleType:    RuleTypePackaging,
			ResultValue: "Large Letter",
			Priority:    10,
			Enabled:     true,
			Conditions: []Condition{
				{ID: "default-large-letter-sku", Field: FieldSku, Operator: OpContains, Value: StringValue("CK003")},
				{ID: "default-large-letter-qty", Field: FieldQuantity, Operator: OpEquals, Value: NumberValue(1)},
			},
		},
		{
			ID:          "default-small-parcel",
			Name:        "Small parcel by width",
			Description: "Anything narrow enough for the small parcel sleeve",
			RuleType:    RuleTypePackaging,
			ResultValue: "Small Parcel",
			Priority:    30,
			Enabled:     true,
			Conditions: []Condition{
				{ID: "default-small-parcel-width", Field: FieldWidth, Operator: OpLessEqual, Value: NumberValue(35)},
			},
		},
		{
			ID:          "default-box",
			Name:        "Everything else",
			Description: "Catch-all: boxed by default",
			RuleType:    RuleTypePackaging,
			ResultValue: "Box",
			Priority:    DefaultPriority,
			Enabled:     true,
			Conditions:  []Condition{},
		},
	}
}

// DefaultBoxRules returns the seed catalog for shipping box classification.
func DefaultBoxRules() []Rule {
	return []Rule{
		{
			ID:          "default-sm-oba",
			Name:        "SM warehouse OBA",
			Description: "Orders shipping from the SM warehouse use the OBA box",
			RuleType:    RuleTypeBox,
			ResultValue: "SM OBA",
			Priority:    5,
			Enabled:     true,
			Color:       "#3B82F6",
			Conditions: []Condition{
				{ID: "default-sm-oba-ship", Field: FieldShipFromLocation, Operator: OpContains, Value: StringValue("SM")},
			},
		},
		{
			ID:          "default-heavy-double-wall",
			Name:        "Heavy items",
			Description: "Anything over 2kg goes in the double-wall box",
			RuleType:    RuleTypeBox,
			ResultValue: "Double Wall",
			Priority:    20,
			Enabled:     true,
			Color:       "#F59E0B",
			Conditions: []Condition{
				{ID: "default-heavy-weight", Field: FieldWeight, Operator: OpGreaterThan, Value: NumberValue(2000)},
			},
		},
		{
			ID:          "default-standard-box",
			Name:        "Standard box",
			Description: "Catch-all shipping box",
			RuleType:    RuleTypeBox,
			ResultValue: "Standard",
			Priority:    DefaultPriority,
			Enabled:     true,
			Color:       "#6B7280",
			Conditions:  []Condition{},
		},
	}
}

// DefaultCatalog returns the seed catalog for the given rule type,
// or nil for an unknown type.
func DefaultCatalog(t RuleType) []Rule {
	switch t {
	case RuleTypePackaging:
		return DefaultPackagingRules()
	case RuleTypeBox:
		return DefaultBoxRules()
	}
	return nil
}
