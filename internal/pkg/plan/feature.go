package plan

import "strings"

// Feature is a closed enumeration of gateable capabilities. Feature gating
// never sees arbitrary strings; anything outside this set fails ParseFeature.
type Feature string

const (
	FeatureInventory       Feature = "inventory"
	FeaturePOS             Feature = "pos"
	FeatureInvoicing       Feature = "invoicing"
	FeatureExpenses        Feature = "expenses"
	FeatureReports         Feature = "reports"
	FeatureMultiLocation   Feature = "multi_location"
	FeatureAdvancedReports Feature = "advanced_reports"
	FeatureAPIAccess       Feature = "api_access"
	FeatureCustomBranding  Feature = "custom_branding"
	FeaturePrioritySupport Feature = "priority_support"
	FeatureDataExport      Feature = "data_export"
	FeatureIntegrations    Feature = "integrations"
)

// AllFeatures returns the full feature enumeration in a stable order.
func AllFeatures() []Feature {
	return []Feature{
		FeatureInventory,
		FeaturePOS,
		FeatureInvoicing,
		FeatureExpenses,
		FeatureReports,
		FeatureMultiLocation,
		FeatureAdvancedReports,
		FeatureAPIAccess,
		FeatureCustomBranding,
		FeaturePrioritySupport,
		FeatureDataExport,
		FeatureIntegrations,
	}
}

// ParseFeature maps a raw string onto the closed feature set.
func ParseFeature(raw string) (Feature, error) {
	f := Feature(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case FeatureInventory, FeaturePOS, FeatureInvoicing, FeatureExpenses,
		FeatureReports, FeatureMultiLocation, FeatureAdvancedReports,
		FeatureAPIAccess, FeatureCustomBranding, FeaturePrioritySupport,
		FeatureDataExport, FeatureIntegrations:
		return f, nil
	}
	return "", ErrUnknownFeature
}

// FeatureSet maps each feature to whether a plan grants it.
type FeatureSet map[Feature]bool

// Has reports whether the set grants the feature. Missing entries are
// treated as not granted, never as an error.
func (fs FeatureSet) Has(f Feature) bool {
	return fs[f]
}

// Clone returns an independent copy so materialized sets never alias the
// catalog's own maps.
func (fs FeatureSet) Clone() FeatureSet {
	out := make(FeatureSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}
