package plan

import "strings"

// Metric is a closed enumeration of metered resources with plan ceilings.
type Metric string

const (
	MetricUsers        Metric = "users"
	MetricProducts     Metric = "products"
	MetricInvoices     Metric = "invoices"
	MetricLocations    Metric = "locations"
	MetricAPICalls     Metric = "api_calls"
	MetricIntegrations Metric = "integrations"
)

// AllMetrics returns the full metric enumeration in a stable order.
func AllMetrics() []Metric {
	return []Metric{
		MetricUsers,
		MetricProducts,
		MetricInvoices,
		MetricLocations,
		MetricAPICalls,
		MetricIntegrations,
	}
}

// ParseMetric maps a raw string onto the closed metric set.
func ParseMetric(raw string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case MetricUsers, MetricProducts, MetricInvoices, MetricLocations,
		MetricAPICalls, MetricIntegrations:
		return m, nil
	}
	return "", ErrUnknownMetric
}

// LimitSet maps each metric to its ceiling.
type LimitSet map[Metric]Limit

// Get returns the ceiling for a metric. Metrics without an entry get a zero
// ceiling, which blocks everything rather than silently allowing it.
func (ls LimitSet) Get(m Metric) Limit {
	return ls[m]
}

// Clone returns an independent copy of the set.
func (ls LimitSet) Clone() LimitSet {
	out := make(LimitSet, len(ls))
	for k, v := range ls {
		out[k] = v
	}
	return out
}
