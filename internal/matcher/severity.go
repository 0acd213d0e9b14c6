package matcher

import (
	"fmt"

	"invoice-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// FieldClass groups reconcilable fields by their weight in severity
// classification. Financial and identity-bearing fields carry more weight
// than raw delivery volume.
type FieldClass int

const (
	// ClassVolume covers delivery counts: impressions, views, clicks
	ClassVolume FieldClass = iota
	// ClassFinancial covers revenue, discount and rate figures
	ClassFinancial
	// ClassIdentity covers fields that identify what was bought
	ClassIdentity
)

// String returns the string representation of FieldClass
func (fc FieldClass) String() string {
	switch fc {
	case ClassVolume:
		return "volume"
	case ClassFinancial:
		return "financial"
	case ClassIdentity:
		return "identity"
	default:
		return "unknown"
	}
}

// ClassifyField maps a reconcilable field name to its class. Unknown
// fields classify as volume, the least weighted class.
func ClassifyField(field string) FieldClass {
	switch field {
	case FieldGrossRevenue, FieldNetRevenue, FieldDiscountAmount, FieldDiscountPercent, FieldRate:
		return ClassFinancial
	case FieldCampaignName, FieldPlacement, FieldRateType:
		return ClassIdentity
	default:
		return ClassVolume
	}
}

// SeverityBands holds the cut points, on the absolute percentage
// difference, that separate severity levels for numeric discrepancies.
// Values at or above CriticalPercent classify CRITICAL, and so on down;
// anything below MediumPercent but past tolerance is LOW.
type SeverityBands struct {
	CriticalPercent float64 `json:"critical_percent"`
	HighPercent     float64 `json:"high_percent"`
	MediumPercent   float64 `json:"medium_percent"`
}

// Validate checks that the bands are monotonically decreasing
func (b SeverityBands) Validate() error {
	if b.CriticalPercent < b.HighPercent || b.HighPercent < b.MediumPercent {
		return fmt.Errorf("severity bands must be monotonic: critical %.2f >= high %.2f >= medium %.2f",
			b.CriticalPercent, b.HighPercent, b.MediumPercent)
	}
	if b.MediumPercent < 0 {
		return fmt.Errorf("severity bands cannot be negative: %.2f", b.MediumPercent)
	}
	return nil
}

// AbsoluteBands holds cut points on the absolute difference, used when the
// planned value is zero and a percentage is undefined.
type AbsoluteBands struct {
	Critical decimal.Decimal `json:"critical"`
	High     decimal.Decimal `json:"high"`
	Medium   decimal.Decimal `json:"medium"`
}

// Validate checks that the absolute bands are monotonically decreasing
func (b AbsoluteBands) Validate() error {
	if b.Critical.LessThan(b.High) || b.High.LessThan(b.Medium) {
		return fmt.Errorf("absolute bands must be monotonic")
	}
	if b.Medium.IsNegative() {
		return fmt.Errorf("absolute bands cannot be negative")
	}
	return nil
}

// SeverityPolicy is the full classification configuration. Classification
// is deterministic and symmetric over sign: only the magnitude of the
// deviation and the field class matter.
//
// The numeric cut points are a tuning surface, not fixed behavior; the
// factory defaults encode the reviewing team's current thresholds.
type SeverityPolicy struct {
	// VolumeBands applies to impressions, views and clicks
	VolumeBands SeverityBands `json:"volume_bands"`

	// FinancialBands applies to revenue, discount and rate fields. Tighter
	// than VolumeBands: money deviations escalate sooner.
	FinancialBands SeverityBands `json:"financial_bands"`

	// AbsoluteBands classifies deviations against a zero planned value,
	// where no percentage exists
	AbsoluteBands AbsoluteBands `json:"absolute_bands"`

	// IdentityMinimum is the floor severity for a mismatch on an
	// identity-bearing string field
	IdentityMinimum models.Severity `json:"identity_minimum"`
}

// DefaultSeverityPolicy returns the standard classification thresholds
func DefaultSeverityPolicy() *SeverityPolicy {
	return &SeverityPolicy{
		VolumeBands: SeverityBands{
			CriticalPercent: 25.0,
			HighPercent:     10.0,
			MediumPercent:   5.0,
		},
		FinancialBands: SeverityBands{
			CriticalPercent: 20.0,
			HighPercent:     8.0,
			MediumPercent:   3.0,
		},
		AbsoluteBands: AbsoluteBands{
			Critical: decimal.NewFromInt(1000),
			High:     decimal.NewFromInt(100),
			Medium:   decimal.NewFromInt(10),
		},
		IdentityMinimum: models.SeverityHigh,
	}
}

// StrictSeverityPolicy returns thresholds for high-value campaigns where
// every deviation escalates one band sooner
func StrictSeverityPolicy() *SeverityPolicy {
	return &SeverityPolicy{
		VolumeBands: SeverityBands{
			CriticalPercent: 15.0,
			HighPercent:     5.0,
			MediumPercent:   2.0,
		},
		FinancialBands: SeverityBands{
			CriticalPercent: 10.0,
			HighPercent:     4.0,
			MediumPercent:   1.0,
		},
		AbsoluteBands: AbsoluteBands{
			Critical: decimal.NewFromInt(100),
			High:     decimal.NewFromInt(10),
			Medium:   decimal.NewFromInt(1),
		},
		IdentityMinimum: models.SeverityCritical,
	}
}

// Validate checks the policy for monotonic bands and a known floor
func (p *SeverityPolicy) Validate() error {
	if err := p.VolumeBands.Validate(); err != nil {
		return fmt.Errorf("volume bands: %w", err)
	}
	if err := p.FinancialBands.Validate(); err != nil {
		return fmt.Errorf("financial bands: %w", err)
	}
	if err := p.AbsoluteBands.Validate(); err != nil {
		return fmt.Errorf("absolute bands: %w", err)
	}
	if !p.IdentityMinimum.IsValid() {
		return fmt.Errorf("invalid identity minimum severity: %s", p.IdentityMinimum)
	}
	return nil
}

// Clone creates a deep copy of the severity policy
func (p *SeverityPolicy) Clone() *SeverityPolicy {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// bandsFor selects the percentage bands for a field class
func (p *SeverityPolicy) bandsFor(class FieldClass) SeverityBands {
	if class == ClassFinancial || class == ClassIdentity {
		return p.FinancialBands
	}
	return p.VolumeBands
}

// ClassifyPercent assigns a severity to a numeric deviation expressed as a
// percentage of the planned value. The sign of the deviation is ignored.
func (p *SeverityPolicy) ClassifyPercent(field string, differencePercent float64) models.Severity {
	if differencePercent < 0 {
		differencePercent = -differencePercent
	}

	bands := p.bandsFor(ClassifyField(field))
	switch {
	case differencePercent >= bands.CriticalPercent:
		return models.SeverityCritical
	case differencePercent >= bands.HighPercent:
		return models.SeverityHigh
	case differencePercent >= bands.MediumPercent:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// ClassifyAbsolute assigns a severity from the absolute difference alone,
// for deviations against a zero planned value
func (p *SeverityPolicy) ClassifyAbsolute(field string, difference decimal.Decimal) models.Severity {
	diff := difference.Abs()

	var severity models.Severity
	switch {
	case diff.GreaterThanOrEqual(p.AbsoluteBands.Critical):
		severity = models.SeverityCritical
	case diff.GreaterThanOrEqual(p.AbsoluteBands.High):
		severity = models.SeverityHigh
	case diff.GreaterThanOrEqual(p.AbsoluteBands.Medium):
		severity = models.SeverityMedium
	default:
		severity = models.SeverityLow
	}

	if ClassifyField(field) == ClassIdentity && !severity.AtLeast(p.IdentityMinimum) {
		return p.IdentityMinimum
	}
	return severity
}

// ClassifyStringMismatch assigns a severity to a normalized string
// mismatch. Identity-bearing fields never classify below the configured
// floor.
func (p *SeverityPolicy) ClassifyStringMismatch(field string) models.Severity {
	if ClassifyField(field) == ClassIdentity {
		return p.IdentityMinimum
	}
	return models.SeverityLow
}
