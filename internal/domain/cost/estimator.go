package cost

import "errors"

var (
	ErrInvalidDuration = errors.New("duration_months must be greater than zero")
	ErrInvalidLTCGrade = errors.New("ltc_grade must be between 1 and 5")
)

const (
	InsuranceEmployee   = "employee"
	InsuranceLocal      = "local"
	InsuranceMedicalAid = "medical_aid"
)

// Monthly base cost in KRW per facility type.
var baseMonthlyCost = map[string]int64{
	"acute":            6_000_000,
	"rehabilitation":   3_000_000,
	"nursing_hospital": 1_750_000,
	"nursing_home":     1_500_000,
	"home":             500_000,
}

const defaultBaseMonthlyCost int64 = 2_000_000

// Rates are whole percentages.
const (
	insurablePercent   = 65
	nonCoveragePercent = 35
	marginLowPercent   = 85
	marginHighPercent  = 115
)

var insuranceRatePercent = map[string]int64{
	InsuranceEmployee:   20,
	InsuranceLocal:      20,
	InsuranceMedicalAid: 5,
}

const defaultInsuranceRatePercent int64 = 20

// Input describes one estimate request.
type Input struct {
	FacilityType   string `json:"facility_type"`
	DurationMonths int    `json:"duration_months"`
	InsuranceType  string `json:"insurance_type"`
	LTCGrade       *int   `json:"ltc_grade,omitempty"`
}

// Breakdown is the estimate in whole KRW.
type Breakdown struct {
	BaseMonthlyCost   int64 `json:"base_monthly_cost"`
	TotalBaseCost     int64 `json:"total_base_cost"`
	InsurableCost     int64 `json:"insurable_cost"`
	InsuranceCoverage int64 `json:"insurance_coverage"`
	NonCoverage       int64 `json:"non_coverage"`
	LTCCopayment      int64 `json:"ltc_copayment"`
	TotalCost         int64 `json:"total_cost"`
	MonthlyCost       int64 `json:"monthly_cost"`
	MarginLow         int64 `json:"margin_low"`
	MarginHigh        int64 `json:"margin_high"`
}

// BaseMonthlyCost returns the table cost for a facility type, 2,000,000 for
// anything unknown.
func BaseMonthlyCost(facilityType string) int64 {
	if c, ok := baseMonthlyCost[facilityType]; ok {
		return c
	}
	return defaultBaseMonthlyCost
}

// InsuranceRatePercent returns the share of insurable cost the patient pays.
func InsuranceRatePercent(insuranceType string) int64 {
	if r, ok := insuranceRatePercent[insuranceType]; ok {
		return r
	}
	return defaultInsuranceRatePercent
}

// LTCRatePercent returns the long-term-care copayment share for a grade.
func LTCRatePercent(grade int) (int64, error) {
	switch {
	case grade >= 1 && grade <= 3:
		return 15, nil
	case grade == 4 || grade == 5:
		return 20, nil
	default:
		return 0, ErrInvalidLTCGrade
	}
}

func percent(v, p int64) int64 {
	return v * p / 100
}

// Estimate computes the cost breakdown. All arithmetic is integer KRW with
// truncation at each step.
func Estimate(in Input) (Breakdown, error) {
	if in.DurationMonths <= 0 {
		return Breakdown{}, ErrInvalidDuration
	}

	var b Breakdown
	months := int64(in.DurationMonths)

	b.BaseMonthlyCost = BaseMonthlyCost(in.FacilityType)
	b.TotalBaseCost = b.BaseMonthlyCost * months
	b.InsurableCost = percent(b.TotalBaseCost, insurablePercent)
	b.InsuranceCoverage = percent(b.InsurableCost, InsuranceRatePercent(in.InsuranceType))
	b.NonCoverage = percent(b.TotalBaseCost, nonCoveragePercent)

	if in.LTCGrade != nil {
		rate, err := LTCRatePercent(*in.LTCGrade)
		if err != nil {
			return Breakdown{}, err
		}
		if in.FacilityType != "rehabilitation" {
			b.LTCCopayment = percent(b.InsurableCost, rate)
		}
	}

	b.TotalCost = b.InsuranceCoverage + b.NonCoverage + b.LTCCopayment
	b.MonthlyCost = b.TotalCost / months
	b.MarginLow = percent(b.TotalCost, marginLowPercent)
	b.MarginHigh = percent(b.TotalCost, marginHighPercent)
	return b, nil
}
