package pathway

import "fmt"

// ClassifySeverity buckets an ADL score: 70 and above is mild, below 40 is
// severe, anything in between is moderate.
func ClassifySeverity(adlScore int) Severity {
	switch {
	case adlScore >= 70:
		return SeverityMild
	case adlScore < 40:
		return SeveritySevere
	default:
		return SeverityModerate
	}
}

type stageRule struct {
	stageType StageType
	weeks     int
	cost      int64
	ltc       bool
	goal      func(adl int) string
}

var severeRules = []stageRule{
	{StageRehabilitation, 8, 16_000_000, true, func(adl int) string {
		return fmt.Sprintf("Intensive rehabilitation to raise ADL from %d to %d; start long-term-care grade application", adl, adl+15)
	}},
	{StageNursingHospital, 12, 10_500_000, false, func(adl int) string {
		return fmt.Sprintf("Maintain function and prevent complications; target ADL %d", adl+20)
	}},
	{StageNursingHome, 24, 12_000_000, false, func(adl int) string {
		return fmt.Sprintf("Long-term residential care with daily assistance; sustain ADL near %d", adl+20)
	}},
}

var moderateRules = []stageRule{
	{StageRehabilitation, 6, 12_000_000, true, func(adl int) string {
		return fmt.Sprintf("Rehabilitation focused on mobility and self-care; raise ADL from %d to %d; apply for long-term-care grade", adl, adl+20)
	}},
	{StageNursingHospital, 12, 10_500_000, false, func(adl int) string {
		return fmt.Sprintf("Continued therapy and medical management; target ADL %d before discharge planning", adl+25)
	}},
}

var mildRules = []stageRule{
	{StageRehabilitation, 4, 8_000_000, false, func(adl int) string {
		return fmt.Sprintf("Short-term rehabilitation to restore independence; target ADL %d", clampADL(adl+15))
	}},
	{StageHome, 8, 3_000_000, false, func(adl int) string {
		return fmt.Sprintf("Home care with outpatient follow-up; maintain ADL at %d", clampADL(adl+20))
	}},
}

func clampADL(v int) int {
	if v > 100 {
		return 100
	}
	return v
}

func rulesFor(sev Severity) []stageRule {
	switch sev {
	case SeveritySevere:
		return severeRules
	case SeverityModerate:
		return moderateRules
	default:
		return mildRules
	}
}

// Generate returns the ordered stages for a severity bucket. Unknown
// severities fall back to the mild pathway. The returned stages carry no
// ids or patient reference; the repository assigns those on insert.
func Generate(sev Severity, adlScore int) []*Stage {
	rules := rulesFor(sev)
	stages := make([]*Stage, 0, len(rules))
	for i, r := range rules {
		stages = append(stages, &Stage{
			StepOrder:             i + 1,
			StageType:             r.stageType,
			DurationWeeks:         r.weeks,
			TreatmentGoal:         r.goal(adlScore),
			EstimatedCost:         r.cost,
			LTCApplicationAdvised: r.ltc,
		})
	}
	return stages
}

// TotalCost sums the estimated cost of every stage.
func TotalCost(stages []*Stage) int64 {
	var total int64
	for _, s := range stages {
		total += s.EstimatedCost
	}
	return total
}
