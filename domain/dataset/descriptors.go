package dataset

import "psephos/domain/core"

// MetricDescriptor is static configuration describing one selectable metric.
// Signed marks metrics that can be meaningfully negative (e.g. swing); for
// unsigned metrics zero is the no-data sentinel and is excluded from both
// plotting and quantile binning. Signedness is always declared here, never
// inferred from the key.
type MetricDescriptor struct {
	Key    core.MetricKey `json:"key"`
	Label  string         `json:"label"`
	Group  string         `json:"group"`
	Signed bool           `json:"signed"`
	Notes  string         `json:"notes,omitempty"` // markdown methodology notes
}

// PartyDescriptor describes one political variable (voteshare or swing for a
// party). Swing variables are signed.
type PartyDescriptor struct {
	Key    core.MetricKey `json:"key"`
	Label  string         `json:"label"`
	Color  string         `json:"color"` // party brand color for the left map legend
	Signed bool           `json:"signed"`
}

// Catalog bundles the configured descriptors for one deployment.
type Catalog struct {
	Metrics []MetricDescriptor `json:"metrics"`
	Parties []PartyDescriptor  `json:"parties"`
}

// Metric finds a metric descriptor by key.
func (c Catalog) Metric(key core.MetricKey) (MetricDescriptor, bool) {
	for _, m := range c.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return MetricDescriptor{}, false
}

// Party finds a party descriptor by key.
func (c Catalog) Party(key core.MetricKey) (PartyDescriptor, bool) {
	for _, p := range c.Parties {
		if p.Key == key {
			return p, true
		}
	}
	return PartyDescriptor{}, false
}

// Signed reports whether a key is declared signed by either descriptor list.
// Unknown keys are unsigned, which is the conservative default for
// percentage-like data.
func (c Catalog) Signed(key core.MetricKey) bool {
	if m, ok := c.Metric(key); ok {
		return m.Signed
	}
	if p, ok := c.Party(key); ok {
		return p.Signed
	}
	return false
}
