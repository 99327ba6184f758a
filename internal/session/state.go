package session

import (
	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/evaluate"
)

type Phase int

const (
	// PhaseIdle has no pool
	PhaseIdle Phase = iota
	// PhasePresenting shows a card waiting for an answer
	PhasePresenting
	// PhaseAnswered holds a pending result until the learner moves on
	PhaseAnswered
)

func (p Phase) String() string {
	switch p {
	case PhasePresenting:
		return "presenting"
	case PhaseAnswered:
		return "answered"
	default:
		return "idle"
	}
}

type Feedback struct {
	OK      bool
	Message string
}

const (
	feedbackCorrect         = "Correct."
	feedbackIncorrect       = "Incorrect."
	feedbackShown           = "Answer shown. Press Next to continue; it counts as incorrect."
	feedbackMarkedCorrect   = "Marked correct. Press Next to continue."
	feedbackMarkedIncorrect = "Marked incorrect. Press Next to continue."
	feedbackReset           = "Mastery reset for the selected decks."
)

// State is a snapshot of a session. Transitions return a new State and
// never modify the receiver; Pool is shared between snapshots and must not
// be modified.
type State struct {
	Pool       []deck.Card
	DeckKeys   []string
	Categories []Category

	Index int
	Kind  deck.CardKind
	Mode  evaluate.Mode

	// Pending is the result applied to the mastery store on Next
	Pending  *evaluate.Detail
	Answered bool
	Revealed bool
	Feedback *Feedback
}

func (s State) Phase() Phase {
	switch {
	case len(s.Pool) == 0:
		return PhaseIdle
	case s.Answered:
		return PhaseAnswered
	default:
		return PhasePresenting
	}
}

// Current returns the presented card
func (s State) Current() (deck.Card, bool) {
	if s.Index < 0 || s.Index >= len(s.Pool) {
		return deck.Card{}, false
	}
	return s.Pool[s.Index], true
}

// present enters a card with every per-card field cleared
func (s State) present(index int, kind deck.CardKind, mode evaluate.Mode) State {
	s.Index = index
	s.Kind = kind
	s.Mode = mode
	s.Pending = nil
	s.Answered = false
	s.Revealed = false
	s.Feedback = nil
	return s
}

// answer stores a pending result and reveals the answer
func (s State) answer(detail evaluate.Detail, feedback Feedback) State {
	s.Pending = &detail
	s.Answered = true
	s.Revealed = true
	s.Feedback = &feedback
	return s
}

func (s State) withFeedback(feedback Feedback) State {
	s.Feedback = &feedback
	return s
}

// final returns the result to record for the current card. A card that was
// never answered counts as a failure of every sub-skill of its mode.
func (s State) final() evaluate.Detail {
	if s.Answered && s.Pending != nil {
		return *s.Pending
	}
	return evaluate.Uniform(s.Mode, false)
}
