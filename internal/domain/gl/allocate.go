// Package gl codes freight invoices to general-ledger segments.
package gl

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/freight-audit/internal/domain/entity"
)

// SuspenseTarget receives the unresolved variance of an invoice still under review
var SuspenseTarget = entity.GLTarget{Code: "2190-000", Segment: "Price Variance Suspense"}

// FallbackRule matches every invoice. It is used when a rule set has no
// rule of its own that matches.
var FallbackRule = entity.GLRule{
	ID:       "gl-default",
	Name:     "General Freight",
	Priority: 1000,
	Match:    entity.GLMatchAlways,
	Target:   entity.GLTarget{Code: "5000-000", Segment: "General Freight"},
}

var hundred = decimal.NewFromInt(100)

// DefaultRules is the rule table used until finance saves its own
func DefaultRules() []entity.GLRule {
	return []entity.GLRule{
		{ID: "gl-ocean", Name: "Ocean Freight", Priority: 10, Match: entity.GLMatchTransportMode, Value: entity.TransportModeOcean,
			Target: entity.GLTarget{Code: "5010-100", Segment: "Ocean Freight"}},
		{ID: "gl-air", Name: "Air Freight", Priority: 20, Match: entity.GLMatchTransportMode, Value: entity.TransportModeAir,
			Target: entity.GLTarget{Code: "5010-200", Segment: "Air Freight"}},
		{ID: "gl-road", Name: "Road Freight", Priority: 30, Match: entity.GLMatchTransportMode, Value: entity.TransportModeRoad,
			Target: entity.GLTarget{Code: "5010-300", Segment: "Road Freight"}},
		{ID: "gl-rail", Name: "Rail Freight", Priority: 40, Match: entity.GLMatchTransportMode, Value: entity.TransportModeRail,
			Target: entity.GLTarget{Code: "5010-400", Segment: "Rail Freight"}},
		FallbackRule,
	}
}

// Allocate codes inv against rules. The first rule by ascending priority
// that matches wins; ties keep table order. A positive variance on an
// invoice not yet approved is split off to SuspenseTarget.
func Allocate(inv *entity.Invoice, rules []entity.GLRule) []entity.GLSegment {
	if inv == nil {
		return nil
	}

	rule := Resolve(inv, rules)
	amount := inv.Amount

	variance := inv.Variance
	if !variance.IsPositive() || inv.Status.IsApproved() || !amount.IsPositive() {
		return []entity.GLSegment{segment(rule.Target, rule.ID, amount, hundred)}
	}
	if variance.GreaterThan(amount) {
		variance = amount
	}

	matched := amount.Sub(variance)
	if matched.IsZero() {
		return []entity.GLSegment{segment(SuspenseTarget, "", variance, hundred)}
	}

	pct := matched.Div(amount).Mul(hundred).Round(2)
	return []entity.GLSegment{
		segment(rule.Target, rule.ID, matched, pct),
		segment(SuspenseTarget, "", variance, hundred.Sub(pct)),
	}
}

// Resolve returns the winning rule for inv, or FallbackRule
func Resolve(inv *entity.Invoice, rules []entity.GLRule) entity.GLRule {
	ordered := make([]entity.GLRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, r := range ordered {
		if Matches(r, inv) {
			return r
		}
	}
	return FallbackRule
}

// Matches evaluates the rule's predicate against inv
func Matches(r entity.GLRule, inv *entity.Invoice) bool {
	switch r.Match {
	case entity.GLMatchAlways:
		return true
	case entity.GLMatchTransportMode:
		return strings.EqualFold(inv.TransportMode, r.Value)
	case entity.GLMatchCarrier:
		return r.Value != "" && strings.Contains(strings.ToLower(inv.CarrierName), strings.ToLower(r.Value))
	case entity.GLMatchOriginCountry:
		return r.Value != "" && strings.EqualFold(countryOf(inv.Origin), r.Value)
	case entity.GLMatchMinAmount:
		floor, err := decimal.NewFromString(r.Value)
		return err == nil && inv.Amount.GreaterThanOrEqual(floor)
	}
	return false
}

// countryOf takes the trailing country code of a "City, CC" location
func countryOf(location string) string {
	if i := strings.LastIndex(location, ","); i >= 0 {
		return strings.TrimSpace(location[i+1:])
	}
	return strings.TrimSpace(location)
}

func segment(t entity.GLTarget, ruleID string, amount, pct decimal.Decimal) entity.GLSegment {
	return entity.GLSegment{
		Code:       t.Code,
		Segment:    t.Segment,
		RuleID:     ruleID,
		Amount:     amount,
		Percentage: pct,
	}
}
