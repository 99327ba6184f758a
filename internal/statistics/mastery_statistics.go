// Package statistics summarizes the mastery of decks.
package statistics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/mastery"
)

// MasteredRepetitions is the number of consecutive successes after which a card counts as mastered
const MasteredRepetitions = 3

// Lookup returns the mastery record of a card, if any
type Lookup func(cardID string) (mastery.Record, bool)

// CardStatistics holds the state of one card
type CardStatistics struct {
	Card     deck.Card
	Record   mastery.Record
	Reviewed bool
	Due      bool
	// Progress is the mean of the reading and writing progress, 0 to 100
	Progress int
}

// Summary holds totals over a set of cards. Progress averages count cards
// that were never reviewed as 0.
type Summary struct {
	Total           int
	Reviewed        int
	Due             int
	Mastered        int
	ReadingProgress int
	WritingProgress int
	Cards           []CardStatistics
}

// Calculate summarizes the mastery of the cards at now
func Calculate(cards []deck.Card, lookup Lookup, now time.Time) Summary {
	summary := Summary{
		Total: len(cards),
		Cards: make([]CardStatistics, 0, len(cards)),
	}

	var reading, writing int
	for _, card := range cards {
		record, ok := lookup(card.ID)
		if !ok {
			record = mastery.NewRecord()
		}
		stats := CardStatistics{
			Card:     card,
			Record:   record,
			Reviewed: record.LastReviewedAt != nil,
			Due:      record.IsDue(now),
			Progress: record.Progress(),
		}

		if stats.Reviewed {
			summary.Reviewed++
		}
		if stats.Due {
			summary.Due++
		}
		if record.Repetitions >= MasteredRepetitions {
			summary.Mastered++
		}
		reading += record.ReadingProgress
		writing += record.WritingProgress
		summary.Cards = append(summary.Cards, stats)
	}

	if summary.Total > 0 {
		summary.ReadingProgress = average(reading, summary.Total)
		summary.WritingProgress = average(writing, summary.Total)
	}
	return summary
}

func average(sum int, count int) int {
	return int(math.Round(float64(sum) / float64(count)))
}

// PeriodStatistics counts the cards last reviewed in a month
type PeriodStatistics struct {
	Period   string // "2026-03"
	Reviewed int
	Mastered int
}

// ReviewsByPeriod groups cards by the month of their last review, newest
// first. It accepts optional year and month filters (0 means no filter).
func ReviewsByPeriod(cards []deck.Card, lookup Lookup, year, month int) []PeriodStatistics {
	stats := make(map[string]*PeriodStatistics)
	for _, card := range cards {
		record, ok := lookup(card.ID)
		if !ok || record.LastReviewedAt == nil {
			continue
		}
		reviewedAt := *record.LastReviewedAt
		if !matchesFilter(reviewedAt.Year(), int(reviewedAt.Month()), year, month) {
			continue
		}

		period := fmt.Sprintf("%d-%02d", reviewedAt.Year(), int(reviewedAt.Month()))
		if stats[period] == nil {
			stats[period] = &PeriodStatistics{Period: period}
		}
		stats[period].Reviewed++
		if record.Repetitions >= MasteredRepetitions {
			stats[period].Mastered++
		}
	}

	periods := make([]PeriodStatistics, 0, len(stats))
	for _, s := range stats {
		periods = append(periods, *s)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Period > periods[j].Period
	})
	return periods
}

func matchesFilter(reviewYear, reviewMonth, filterYear, filterMonth int) bool {
	if filterYear == 0 {
		return true
	}
	if reviewYear != filterYear {
		return false
	}
	if filterMonth == 0 {
		return true
	}
	return reviewMonth == filterMonth
}
