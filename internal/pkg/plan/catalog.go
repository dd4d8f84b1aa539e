package plan

import (
	"fmt"
	"sort"
)

// Catalog is the ordered set of available plans. It is configuration data:
// built once at process start, read-only afterwards.
type Catalog struct {
	ordered []Plan
	byID    map[ID]int
}

// NewCatalog validates and indexes a plan list. It enforces unique ids,
// strictly increasing ranks and tier monotonicity: a higher-rank plan must
// grant every feature and at least every limit of every lower-rank plan.
func NewCatalog(plans []Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("catalog requires at least one plan")
	}

	ordered := make([]Plan, len(plans))
	copy(ordered, plans)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })

	byID := make(map[ID]int, len(ordered))
	for i, p := range ordered {
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate plan id %q", p.ID)
		}
		byID[p.ID] = i
		if i > 0 && ordered[i-1].Rank >= p.Rank {
			return nil, fmt.Errorf("catalog: plans %q and %q do not have strictly increasing ranks", ordered[i-1].ID, p.ID)
		}
	}

	for i := 1; i < len(ordered); i++ {
		lower, higher := ordered[i-1], ordered[i]
		for _, f := range AllFeatures() {
			if lower.Features.Has(f) && !higher.Features.Has(f) {
				return nil, fmt.Errorf("catalog: plan %q drops feature %q granted by lower tier %q", higher.ID, f, lower.ID)
			}
		}
		for _, m := range AllMetrics() {
			if limitLess(higher.Limits.Get(m), lower.Limits.Get(m)) {
				return nil, fmt.Errorf("catalog: plan %q lowers limit %q below tier %q", higher.ID, m, lower.ID)
			}
		}
	}

	return &Catalog{ordered: ordered, byID: byID}, nil
}

func limitLess(a, b Limit) bool {
	if a.IsUnlimited() {
		return false
	}
	if b.IsUnlimited() {
		return true
	}
	ac, _ := a.Ceiling()
	bc, _ := b.Ceiling()
	return ac < bc
}

// FindByID returns the plan for a tier key.
func (c *Catalog) FindByID(id ID) (Plan, error) {
	i, ok := c.byID[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return clonePlan(c.ordered[i]), nil
}

// RankOf returns the ordinal rank for a tier key.
func (c *Catalog) RankOf(id ID) (int, error) {
	i, ok := c.byID[id]
	if !ok {
		return 0, ErrPlanNotFound
	}
	return c.ordered[i].Rank, nil
}

// AllOrderedByRank returns all plans, lowest tier first.
func (c *Catalog) AllOrderedByRank() []Plan {
	out := make([]Plan, len(c.ordered))
	for i, p := range c.ordered {
		out[i] = clonePlan(p)
	}
	return out
}

// Highest returns the top tier.
func (c *Catalog) Highest() Plan {
	return clonePlan(c.ordered[len(c.ordered)-1])
}

func clonePlan(p Plan) Plan {
	p.Features = p.Features.Clone()
	p.Limits = p.Limits.Clone()
	return p
}

// Default returns the built-in AuraFlow tier catalog.
func Default() *Catalog {
	c, err := NewCatalog(builtinPlans())
	if err != nil {
		panic(err)
	}
	return c
}

func builtinPlans() []Plan {
	return []Plan{
		{
			ID:           Free,
			Rank:         0,
			Name:         "Free",
			Price:        0,
			BillingCycle: CycleMonthly,
			Features: FeatureSet{
				FeatureInventory: true,
				FeatureInvoicing: true,
			},
			Limits: LimitSet{
				MetricUsers:        LimitOf(2),
				MetricProducts:     LimitOf(100),
				MetricInvoices:     LimitOf(50),
				MetricLocations:    LimitOf(1),
				MetricAPICalls:     LimitOf(0),
				MetricIntegrations: LimitOf(0),
			},
		},
		{
			ID:           Starter,
			Rank:         1,
			Name:         "Starter",
			Price:        29,
			BillingCycle: CycleMonthly,
			Features: FeatureSet{
				FeatureInventory:  true,
				FeatureInvoicing:  true,
				FeaturePOS:        true,
				FeatureExpenses:   true,
				FeatureReports:    true,
				FeatureDataExport: true,
			},
			Limits: LimitSet{
				MetricUsers:        LimitOf(5),
				MetricProducts:     LimitOf(1000),
				MetricInvoices:     LimitOf(500),
				MetricLocations:    LimitOf(1),
				MetricAPICalls:     LimitOf(1000),
				MetricIntegrations: LimitOf(2),
			},
		},
		{
			ID:           Professional,
			Rank:         2,
			Name:         "Professional",
			Price:        79,
			BillingCycle: CycleMonthly,
			Features: FeatureSet{
				FeatureInventory:       true,
				FeatureInvoicing:       true,
				FeaturePOS:             true,
				FeatureExpenses:        true,
				FeatureReports:         true,
				FeatureDataExport:      true,
				FeatureMultiLocation:   true,
				FeatureAdvancedReports: true,
				FeatureAPIAccess:       true,
				FeatureIntegrations:    true,
			},
			Limits: LimitSet{
				MetricUsers:        LimitOf(25),
				MetricProducts:     LimitOf(10000),
				MetricInvoices:     LimitOf(5000),
				MetricLocations:    LimitOf(5),
				MetricAPICalls:     LimitOf(10000),
				MetricIntegrations: LimitOf(10),
			},
		},
		{
			ID:           Enterprise,
			Rank:         3,
			Name:         "Enterprise",
			Price:        199,
			BillingCycle: CycleMonthly,
			Features: FeatureSet{
				FeatureInventory:       true,
				FeatureInvoicing:       true,
				FeaturePOS:             true,
				FeatureExpenses:        true,
				FeatureReports:         true,
				FeatureDataExport:      true,
				FeatureMultiLocation:   true,
				FeatureAdvancedReports: true,
				FeatureAPIAccess:       true,
				FeatureIntegrations:    true,
				FeatureCustomBranding:  true,
				FeaturePrioritySupport: true,
			},
			Limits: LimitSet{
				MetricUsers:        Unlimited(),
				MetricProducts:     Unlimited(),
				MetricInvoices:     Unlimited(),
				MetricLocations:    Unlimited(),
				MetricAPICalls:     Unlimited(),
				MetricIntegrations: Unlimited(),
			},
		},
	}
}
