package server

import (
	"time"

	"github.com/at-ishikawa/jmemory/internal/evaluate"
	"github.com/at-ishikawa/jmemory/internal/glyph"
	"github.com/at-ishikawa/jmemory/internal/mastery"
)

type ListDecksRequest struct{}

type ListDecksResponse struct {
	Decks []DeckSummary `json:"decks"`
}

type DeckSummary struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	Kind            string `json:"kind,omitempty"`
	Cards           int    `json:"cards"`
	Due             int    `json:"due"`
	Mastered        int    `json:"mastered"`
	ReadingProgress int    `json:"readingProgress"`
	WritingProgress int    `json:"writingProgress"`
}

type StartSessionRequest struct {
	DeckKeys []string `json:"deckKeys"`
	// Categories defaults to the configured categories when empty
	Categories []string `json:"categories,omitempty"`
}

type SessionRequest struct {
	SessionID string `json:"sessionId"`
}

type CheckRequest struct {
	SessionID string         `json:"sessionId"`
	Text      string         `json:"text,omitempty"`
	Strokes   []glyph.Stroke `json:"strokes,omitempty"`
	// Image is a base64 encoded PNG of the drawing
	Image string `json:"image,omitempty"`
}

type MarkRequest struct {
	SessionID string `json:"sessionId"`
	Correct   bool   `json:"correct"`
}

type BrowseKanjiRequest struct {
	DeckKeys []string `json:"deckKeys,omitempty"`
	Query    string   `json:"query,omitempty"`
}

type SessionResponse struct {
	SessionID string           `json:"sessionId"`
	Phase     string           `json:"phase"`
	Card      *CardView        `json:"card,omitempty"`
	Answer    *AnswerView      `json:"answer,omitempty"`
	Pending   *evaluate.Detail `json:"pending,omitempty"`
	Feedback  *FeedbackView    `json:"feedback,omitempty"`
	History   []string         `json:"history,omitempty"`
}

// CardView is the prompt side of the current card
type CardView struct {
	ID       string        `json:"id"`
	Deck     string        `json:"deck"`
	Kind     string        `json:"kind"`
	Mode     evaluate.Mode `json:"mode"`
	Script   string        `json:"script,omitempty"`
	Meanings []string      `json:"meanings,omitempty"`
}

// AnswerView is only sent once the card is answered
type AnswerView struct {
	Script      string   `json:"script"`
	Readings    []string `json:"readings,omitempty"`
	RomajiForms []string `json:"romaji,omitempty"`
	Meanings    []string `json:"meanings,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

type FeedbackView struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type CheckResponse struct {
	Detail  evaluate.Detail `json:"detail"`
	Passed  bool            `json:"passed"`
	Session SessionResponse `json:"session"`
}

type NextResponse struct {
	Record  RecordView      `json:"record"`
	Session SessionResponse `json:"session"`
}

type RecordView struct {
	Repetitions     int        `json:"repetitions"`
	IntervalDays    int        `json:"intervalDays"`
	Ease            float64    `json:"ease"`
	LastReviewedAt  *time.Time `json:"lastReviewedAt,omitempty"`
	DueAt           *time.Time `json:"dueAt,omitempty"`
	ReadingProgress int        `json:"readingProgress"`
	WritingProgress int        `json:"writingProgress"`
}

type BrowseKanjiResponse struct {
	Entries []KanjiView `json:"entries"`
}

type KanjiView struct {
	Kanji    string   `json:"kanji"`
	Readings []string `json:"readings,omitempty"`
	Meanings []string `json:"meanings,omitempty"`
	Cards    []string `json:"cards"`
}

type EndSessionResponse struct{}

func newRecordView(record mastery.Record) RecordView {
	view := RecordView{
		Repetitions:     record.Repetitions,
		IntervalDays:    record.IntervalDays,
		Ease:            record.Ease,
		LastReviewedAt:  record.LastReviewedAt,
		ReadingProgress: record.ReadingProgress,
		WritingProgress: record.WritingProgress,
	}
	if !record.DueAt.IsZero() {
		dueAt := record.DueAt
		view.DueAt = &dueAt
	}
	return view
}
