// Package entities defines the shared records and ordered enumerations used
// by the clinical analysis engines: alert severities, evidence levels,
// medications, patient factors and the analysis result types.
package entities

// Severity is the ordered alert severity scale.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityNone is reported when a medication produced no alerts.
const SeverityNone = "none"

// Rank returns the position of the severity in the fixed total order.
// Higher rank means more severe. Unknown values rank below low so that a
// corrupted severity can never displace a real one.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityModerate:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// Valid reports whether the severity is one of the four known levels.
func (s Severity) Valid() bool {
	return s.Rank() >= 0
}

// MaxSeverity returns the more severe of a and b under the fixed order.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// EvidenceLevel grades the quality of support behind a recommendation,
// 1a (systematic review of RCTs) down to 5 (expert opinion).
type EvidenceLevel string

const (
	Evidence1A EvidenceLevel = "1a"
	Evidence1B EvidenceLevel = "1b"
	Evidence2A EvidenceLevel = "2a"
	Evidence2B EvidenceLevel = "2b"
	Evidence3A EvidenceLevel = "3a"
	Evidence3B EvidenceLevel = "3b"
	Evidence4  EvidenceLevel = "4"
	Evidence5  EvidenceLevel = "5"
)

// Rank returns the sort position of the evidence level, 1a strongest.
// Unrecognized levels sort after all known ones.
func (e EvidenceLevel) Rank() int {
	switch e {
	case Evidence1A:
		return 1
	case Evidence1B:
		return 2
	case Evidence2A:
		return 3
	case Evidence2B:
		return 4
	case Evidence3A:
		return 5
	case Evidence3B:
		return 6
	case Evidence4:
		return 7
	case Evidence5:
		return 8
	default:
		return 9
	}
}

// Stronger reports whether e is strictly better evidence than other.
func (e EvidenceLevel) Stronger(other EvidenceLevel) bool {
	return e.Rank() < other.Rank()
}
