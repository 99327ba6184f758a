// Package mastery keeps per-card spaced-repetition state.
package mastery

import (
	"encoding/json"
	"time"
)

// Record is the scheduling state of one card
type Record struct {
	Repetitions  int     `yaml:"repetitions"`
	IntervalDays int     `yaml:"interval_days"`
	Ease         float64 `yaml:"ease"`
	// LastReviewedAt is nil until the card is evaluated for the first time
	LastReviewedAt *time.Time `yaml:"last_reviewed_at,omitempty"`
	// DueAt is zero when the card is due immediately
	DueAt           time.Time `yaml:"due_at,omitempty"`
	ReadingProgress int       `yaml:"reading_progress"`
	WritingProgress int       `yaml:"writing_progress"`
}

// Map holds the records of a deck keyed by card id
type Map map[string]Record

// IsDue reports whether the card should be reviewed at now
func (r Record) IsDue(now time.Time) bool {
	return r.DueAt.IsZero() || !r.DueAt.After(now)
}

// Progress is the mean of the reading and writing progress
func (r Record) Progress() int {
	return (r.ReadingProgress + r.WritingProgress) / 2
}

func (r Record) lastReviewedMillis() int64 {
	if r.LastReviewedAt == nil {
		return 0
	}
	return r.LastReviewedAt.UnixMilli()
}

// recordJSON is the persisted form, with timestamps as epoch milliseconds
type recordJSON struct {
	Repetitions   int     `json:"repetitions"`
	Interval      int     `json:"interval"`
	Ease          float64 `json:"ease"`
	LastReviewed  *int64  `json:"lastReviewed"`
	NextDue       int64   `json:"nextDue"`
	ProgressKana  int     `json:"progressKana"`
	ProgressKanji int     `json:"progressKanji"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	v := recordJSON{
		Repetitions:   r.Repetitions,
		Interval:      r.IntervalDays,
		Ease:          r.Ease,
		ProgressKana:  r.ReadingProgress,
		ProgressKanji: r.WritingProgress,
	}
	if r.LastReviewedAt != nil {
		ms := r.LastReviewedAt.UnixMilli()
		v.LastReviewed = &ms
	}
	if !r.DueAt.IsZero() {
		v.NextDue = r.DueAt.UnixMilli()
	}
	return json.Marshal(v)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var v recordJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*r = Record{
		Repetitions:     v.Repetitions,
		IntervalDays:    v.Interval,
		Ease:            v.Ease,
		ReadingProgress: v.ProgressKana,
		WritingProgress: v.ProgressKanji,
	}
	if r.Ease == 0 {
		r.Ease = DefaultEasinessFactor
	}
	if v.LastReviewed != nil && *v.LastReviewed > 0 {
		t := time.UnixMilli(*v.LastReviewed).UTC()
		r.LastReviewedAt = &t
	}
	if v.NextDue > 0 {
		r.DueAt = time.UnixMilli(v.NextDue).UTC()
	}
	return nil
}
