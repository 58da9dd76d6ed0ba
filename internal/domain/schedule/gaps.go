package schedule

import (
	"sort"
	"time"
)

// MinGap is the idle period above which two entries are reported as a gap.
const MinGap = time.Hour

// Gap is an uncovered period between caregiver shifts.
type Gap struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration_hours"`
}

// DetectGaps sorts entries by start time and reports every idle period
// strictly longer than minGap. Overlapping or touching entries extend the
// covered window. The input slice is not modified.
func DetectGaps(entries []*Schedule, minGap time.Duration) []Gap {
	gaps := []Gap{}
	if len(entries) < 2 {
		return gaps
	}
	sorted := make([]*Schedule, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	coveredUntil := sorted[0].EndTime
	for _, s := range sorted[1:] {
		if idle := s.StartTime.Sub(coveredUntil); idle > minGap {
			gaps = append(gaps, Gap{
				Start:         coveredUntil,
				End:           s.StartTime,
				DurationHours: idle.Hours(),
			})
		}
		if s.EndTime.After(coveredUntil) {
			coveredUntil = s.EndTime
		}
	}
	return gaps
}
