package bom

import (
	"time"

	"github.com/wagonworks/wagonerp/internal/domain"
)

// BucketFor maps a day of month to its fixed trend bucket. Days 26-31
// all land in "26-30"; the reporting convention has always folded the
// month tail into the last bucket and downstream sheets depend on it.
func BucketFor(day int) string {
	switch {
	case day <= 5:
		return "1-5"
	case day <= 10:
		return "6-10"
	case day <= 15:
		return "11-15"
	case day <= 20:
		return "16-20"
	case day <= 25:
		return "21-25"
	default:
		return "26-30"
	}
}

// Bucketize groups one month of ledger activity into the fixed 5-day
// buckets and returns dense per-part and per-stage matrices: every
// name in partNames/stageNames is present with all six buckets,
// zero-filled, so dashboard tables never have to handle missing cells.
// Entries outside (month, year) are ignored.
func Bucketize(entries []domain.LedgerEntry, partNames, stageNames []string, month time.Month, year int) domain.TrendMatrices {
	out := domain.TrendMatrices{
		Parts:  denseMatrix(partNames),
		Stages: denseMatrix(stageNames),
	}

	for i := range entries {
		entry := &entries[i]
		if entry.Date.Month() != month || entry.Date.Year() != year {
			continue
		}
		bucket := BucketFor(entry.Date.Day())

		for part, qty := range entry.PartsProduced {
			if _, ok := out.Parts[part]; !ok {
				out.Parts[part] = zeroBuckets()
			}
			out.Parts[part][bucket] += qty
		}
		for stage, count := range entry.StagesCompleted {
			if _, ok := out.Stages[stage]; !ok {
				out.Stages[stage] = zeroBuckets()
			}
			out.Stages[stage][bucket] += count
		}
	}

	return out
}

func denseMatrix(names []string) map[string]map[string]int {
	matrix := make(map[string]map[string]int, len(names))
	for _, name := range names {
		matrix[name] = zeroBuckets()
	}
	return matrix
}

func zeroBuckets() map[string]int {
	buckets := make(map[string]int, len(domain.BucketLabels))
	for _, label := range domain.BucketLabels {
		buckets[label] = 0
	}
	return buckets
}
