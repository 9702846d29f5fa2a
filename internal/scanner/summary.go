package scanner

import (
	"math"
	"time"
)

// Summarize reduces results into run-level statistics. The average connection time
// covers only results that recorded a timing.
func Summarize(results []Result, startedAt, endedAt time.Time) RunSummary {
	summary := RunSummary{
		ExceptionHistogram: make(map[string]int),
		StartedAt:          startedAt,
		EndedAt:            endedAt,
		Total:              len(results),
		DurationMS:         roundMillis(endedAt.Sub(startedAt)),
	}

	var totalMS float64
	timed := 0
	for i := range results {
		r := &results[i]
		if r.Passed() {
			summary.PassCount++
		} else {
			summary.FailCount++
		}
		if r.Error != "" {
			summary.ExceptionHistogram[r.Error]++
		}
		if r.ConnectionTimeMS.Valid {
			totalMS += r.ConnectionTimeMS.Millis
			timed++
		}
	}

	if timed > 0 {
		summary.AverageConnectionTimeMS = math.Round(totalMS/float64(timed)*100) / 100
	}
	return summary
}

func roundMillis(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return Millis(d).Millis
}
