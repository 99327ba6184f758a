package mastery

import (
	"math"

	"github.com/at-ishikawa/jmemory/internal/evaluate"
)

const (
	DefaultEasinessFactor = 2.5
	MinEasinessFactor     = 1.3
	MaxEasinessFactor     = 3.0
)

// Params are the tunable steps of the scheduling algorithm
type Params struct {
	// RewardStep is added to a progress meter for a passed sub-skill
	RewardStep int
	// PenaltyStep is removed from a progress meter for a failed sub-skill
	PenaltyStep int
	// EaseStep is added to the ease after a success
	EaseStep float64
	// LapseEaseStep is removed from the ease after a failure
	LapseEaseStep float64
	MinEase       float64
	MaxEase       float64
}

var DefaultParams = Params{
	RewardStep:    20,
	PenaltyStep:   25,
	EaseStep:      0.1,
	LapseEaseStep: 0.2,
	MinEase:       MinEasinessFactor,
	MaxEase:       MaxEasinessFactor,
}

// NewRecord returns the record of a card that was never evaluated
func NewRecord() Record {
	return Record{Ease: DefaultEasinessFactor}
}

func (p Params) adjustProgress(progress int, outcome evaluate.Outcome) int {
	switch outcome {
	case evaluate.Pass:
		return min(100, progress+p.RewardStep)
	case evaluate.Fail:
		return max(0, progress-p.PenaltyStep)
	default:
		return progress
	}
}

// schedule applies a binary-quality SM-2 step.
// Successes grow the interval 1, 6, then interval * ease; a failure restarts it.
func (p Params) schedule(r Record, passed bool) Record {
	if r.Ease == 0 {
		r.Ease = DefaultEasinessFactor
	}

	if !passed {
		r.Repetitions = 0
		r.IntervalDays = 1
		r.Ease = math.Max(p.MinEase, r.Ease-p.LapseEaseStep)
		return r
	}

	switch r.Repetitions {
	case 0:
		r.IntervalDays = 1
	case 1:
		r.IntervalDays = 6
	default:
		r.IntervalDays = max(1, int(math.Round(float64(r.IntervalDays)*r.Ease)))
	}
	r.Repetitions++
	r.Ease = math.Min(p.MaxEase, r.Ease+p.EaseStep)
	return r
}
