// Package server provides Connect RPC handlers for practice sessions.
package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/at-ishikawa/jmemory/internal/auth"
	"github.com/at-ishikawa/jmemory/internal/datasync"
	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/evaluate"
	"github.com/at-ishikawa/jmemory/internal/glyph"
	"github.com/at-ishikawa/jmemory/internal/mastery"
	"github.com/at-ishikawa/jmemory/internal/session"
	"github.com/at-ishikawa/jmemory/internal/statistics"
)

// Options tunes the sessions created by the handler
type Options struct {
	Categories  []session.Category
	HistorySize int
	SaveDelay   time.Duration
	Resolution  int
	CanvasSize  int
	BrushWidth  float64
	// IdleTimeout ends sessions unused for longer. Zero keeps them until
	// EndSession or Close.
	IdleTimeout time.Duration
}

// practiceSession is one learner's session. Its controller is single
// threaded, so every call holds mu.
type practiceSession struct {
	mu         sync.Mutex
	userID     string
	controller *session.Controller
	strokes    *glyph.StrokeSurface
	images     *glyph.ImageSurface
	debouncer  *datasync.Debouncer

	// lastUsed is guarded by PracticeHandler.mu
	lastUsed time.Time
}

// PracticeHandler serves practice sessions over Connect
type PracticeHandler struct {
	decks     map[string]deck.Deck
	evaluator session.Evaluator
	local     mastery.Repository
	remote    mastery.Repository
	options   Options
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*practiceSession
}

// NewPracticeHandler returns a handler. remote may be nil.
func NewPracticeHandler(
	decks map[string]deck.Deck,
	evaluator session.Evaluator,
	local mastery.Repository,
	remote mastery.Repository,
	options Options,
	logger *slog.Logger,
) *PracticeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if len(options.Categories) == 0 {
		options.Categories = session.Categories
	}
	if options.Resolution <= 0 {
		options.Resolution = glyph.DefaultResolution
	}
	return &PracticeHandler{
		decks:     decks,
		evaluator: evaluator,
		local:     local,
		remote:    remote,
		options:   options,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*practiceSession),
	}
}

func (h *PracticeHandler) newSyncer(store *mastery.Store) *datasync.Syncer {
	return datasync.NewSyncer(store, h.local, h.remote, h.decks, h.logger)
}

// ListDecks returns every deck with the caller's progress
func (h *PracticeHandler) ListDecks(
	ctx context.Context,
	_ *connect.Request[ListDecksRequest],
) (*connect.Response[ListDecksResponse], error) {
	decks := deck.SortedDecks(h.decks)
	store := mastery.NewStore(mastery.WithClock(h.now))
	h.newSyncer(store).Pull(ctx, auth.UserFrom(ctx), lo.Map(decks, func(d deck.Deck, _ int) string {
		return d.Key
	}))

	now := h.now()
	return connect.NewResponse(&ListDecksResponse{
		Decks: lo.Map(decks, func(d deck.Deck, _ int) DeckSummary {
			summary := statistics.Calculate(d.Cards, store.Lookup, now)
			return DeckSummary{
				Key:             d.Key,
				Name:            d.DisplayName(),
				Kind:            string(d.Kind),
				Cards:           summary.Total,
				Due:             summary.Due,
				Mastered:        summary.Mastered,
				ReadingProgress: summary.ReadingProgress,
				WritingProgress: summary.WritingProgress,
			}
		}),
	}), nil
}

// StartSession loads the caller's mastery of the decks and presents the first card
func (h *PracticeHandler) StartSession(
	ctx context.Context,
	req *connect.Request[StartSessionRequest],
) (*connect.Response[SessionResponse], error) {
	categories, violations := parseCategories(req.Msg.Categories)
	if len(req.Msg.DeckKeys) == 0 {
		violations = append(violations, fieldViolation{field: "deck_keys", description: "value must contain at least 1 item(s)"})
	}
	if len(violations) > 0 {
		return nil, invalidArgument(violations...)
	}
	if len(categories) == 0 {
		categories = h.options.Categories
	}

	decks, err := deck.Select(h.decks, req.Msg.DeckKeys)
	if err != nil {
		return nil, sessionError(err)
	}

	userID := auth.UserFrom(ctx)
	store := mastery.NewStore(mastery.WithClock(h.now))
	syncer := h.newSyncer(store)
	syncer.Pull(ctx, userID, req.Msg.DeckKeys)

	h.ExpireIdle()

	s := &practiceSession{
		userID:  userID,
		strokes: glyph.NewStrokeSurface(h.options.CanvasSize, h.options.BrushWidth),
		images:  glyph.NewImageSurface(),
	}
	s.debouncer = datasync.NewDebouncer(h.options.SaveDelay, func(deckKeys []string) {
		syncer.Push(context.Background(), userID, deckKeys)
	})

	opts := []session.Option{
		session.WithClock(h.now),
		session.WithSurface(glyph.MultiSurface{s.strokes, s.images}, h.options.Resolution),
		session.WithRecordHook(s.debouncer.Trigger),
		session.WithLogger(h.logger),
	}
	if h.options.HistorySize > 0 {
		opts = append(opts, session.WithHistorySize(h.options.HistorySize))
	}
	s.controller = session.New(h.evaluator, store, opts...)
	if err := s.controller.Start(decks, categories); err != nil {
		s.debouncer.Stop()
		return nil, sessionError(err)
	}

	id := uuid.NewString()
	h.mu.Lock()
	s.lastUsed = h.now()
	h.sessions[id] = s
	h.mu.Unlock()

	h.logger.InfoContext(ctx, "session started",
		slog.String("session", id),
		slog.Any("decks", req.Msg.DeckKeys),
	)
	return connect.NewResponse(newSessionResponse(id, s.controller)), nil
}

func parseCategories(values []string) ([]session.Category, []fieldViolation) {
	var categories []session.Category
	var violations []fieldViolation
	for i, value := range values {
		category, err := session.ParseCategory(value)
		if err != nil {
			violations = append(violations, fieldViolation{
				field:       fmt.Sprintf("categories[%d]", i),
				description: err.Error(),
			})
			continue
		}
		categories = append(categories, category)
	}
	return categories, violations
}

// lookup returns the caller's session. Sessions of other users are not found.
func (h *PracticeHandler) lookup(ctx context.Context, sessionID string) (*practiceSession, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	h.mu.Lock()
	s, ok := h.sessions[sessionID]
	if ok && h.expired(s) {
		ok = false
	}
	if ok {
		s.lastUsed = h.now()
	}
	h.mu.Unlock()
	if !ok || s.userID != auth.UserFrom(ctx) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", sessionID))
	}
	return s, nil
}

// withSession runs fn on the locked session and returns its view
func (h *PracticeHandler) withSession(
	ctx context.Context,
	sessionID string,
	fn func(s *practiceSession) error,
) (*SessionResponse, error) {
	s, err := h.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s); err != nil {
		return nil, err
	}
	return newSessionResponse(sessionID, s.controller), nil
}

func (h *PracticeHandler) CurrentCard(
	ctx context.Context,
	req *connect.Request[SessionRequest],
) (*connect.Response[SessionResponse], error) {
	resp, err := h.withSession(ctx, req.Msg.SessionID, func(*practiceSession) error {
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

// Check judges a typed answer together with a drawing sent as strokes or as an image
func (h *PracticeHandler) Check(
	ctx context.Context,
	req *connect.Request[CheckRequest],
) (*connect.Response[CheckResponse], error) {
	var detail evaluate.Detail
	var img image.Image
	if req.Msg.Image != "" {
		decoded, err := decodeImage(req.Msg.Image)
		if err != nil {
			return nil, invalidArgument(fieldViolation{field: "image", description: err.Error()})
		}
		img = decoded
	}

	resp, err := h.withSession(ctx, req.Msg.SessionID, func(s *practiceSession) error {
		if s.controller.State().Answered {
			return sessionError(session.ErrAlreadyAnswered)
		}
		if len(req.Msg.Strokes) > 0 {
			s.strokes.SetStrokes(req.Msg.Strokes)
		}
		if img != nil {
			s.images.Put(img)
		}

		var err error
		detail, err = s.controller.Check(req.Msg.Text)
		if err != nil {
			return sessionError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&CheckResponse{
		Detail:  detail,
		Passed:  detail.Passed(),
		Session: *resp,
	}), nil
}

func decodeImage(encoded string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid image: %w", err)
	}
	return img, nil
}

func (h *PracticeHandler) ShowAnswer(
	ctx context.Context,
	req *connect.Request[SessionRequest],
) (*connect.Response[SessionResponse], error) {
	resp, err := h.withSession(ctx, req.Msg.SessionID, func(s *practiceSession) error {
		if err := s.controller.ShowAnswer(); err != nil {
			return sessionError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

func (h *PracticeHandler) Mark(
	ctx context.Context,
	req *connect.Request[MarkRequest],
) (*connect.Response[SessionResponse], error) {
	resp, err := h.withSession(ctx, req.Msg.SessionID, func(s *practiceSession) error {
		if err := s.controller.Mark(req.Msg.Correct); err != nil {
			return sessionError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

// Next records the current card and presents the next one
func (h *PracticeHandler) Next(
	ctx context.Context,
	req *connect.Request[SessionRequest],
) (*connect.Response[NextResponse], error) {
	var record mastery.Record
	resp, err := h.withSession(ctx, req.Msg.SessionID, func(s *practiceSession) error {
		var err error
		record, err = s.controller.Next()
		if err != nil {
			return sessionError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&NextResponse{
		Record:  newRecordView(record),
		Session: *resp,
	}), nil
}

func (h *PracticeHandler) ResetDecks(
	ctx context.Context,
	req *connect.Request[SessionRequest],
) (*connect.Response[SessionResponse], error) {
	resp, err := h.withSession(ctx, req.Msg.SessionID, func(s *practiceSession) error {
		if err := s.controller.ResetDecks(); err != nil {
			return sessionError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

// EndSession abandons the session without recording the current card and
// saves what was recorded so far
func (h *PracticeHandler) EndSession(
	ctx context.Context,
	req *connect.Request[SessionRequest],
) (*connect.Response[EndSessionResponse], error) {
	s, err := h.lookup(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	delete(h.sessions, req.Msg.SessionID)
	h.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.Abandon()
	s.debouncer.Stop()
	return connect.NewResponse(&EndSessionResponse{}), nil
}

// BrowseKanji lists the ideographs of the decks, every deck when none is given
func (h *PracticeHandler) BrowseKanji(
	_ context.Context,
	req *connect.Request[BrowseKanjiRequest],
) (*connect.Response[BrowseKanjiResponse], error) {
	decks, err := deck.Select(h.decks, req.Msg.DeckKeys)
	if err != nil {
		return nil, sessionError(err)
	}

	entries := deck.Browse(deck.Cards(decks), req.Msg.Query)
	return connect.NewResponse(&BrowseKanjiResponse{
		Entries: lo.Map(entries, func(entry deck.KanjiEntry, _ int) KanjiView {
			return KanjiView{
				Kanji:    entry.Kanji,
				Readings: entry.Readings(),
				Meanings: entry.Meanings(),
				Cards: lo.Map(entry.Cards, func(card deck.Card, _ int) string {
					return card.ID
				}),
			}
		}),
	}), nil
}

// expired reports whether s was unused for longer than the idle timeout.
// h.mu must be held.
func (h *PracticeHandler) expired(s *practiceSession) bool {
	return h.options.IdleTimeout > 0 && h.now().Sub(s.lastUsed) > h.options.IdleTimeout
}

// ExpireIdle ends the sessions unused for longer than the idle timeout and
// saves what they recorded. It returns how many sessions ended.
func (h *PracticeHandler) ExpireIdle() int {
	h.mu.Lock()
	var idle []*practiceSession
	for id, s := range h.sessions {
		if h.expired(s) {
			idle = append(idle, s)
			delete(h.sessions, id)
		}
	}
	h.mu.Unlock()

	for _, s := range idle {
		s.mu.Lock()
		s.controller.Abandon()
		s.debouncer.Stop()
		s.mu.Unlock()
	}
	if len(idle) > 0 {
		h.logger.Info("idle sessions ended", slog.Int("sessions", len(idle)))
	}
	return len(idle)
}

// ExpireIdleEvery runs ExpireIdle at every interval until ctx is done
func (h *PracticeHandler) ExpireIdleEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.ExpireIdle()
		}
	}
}

// Close saves every open session
func (h *PracticeHandler) Close() {
	h.mu.Lock()
	sessions := lo.Values(h.sessions)
	h.sessions = make(map[string]*practiceSession)
	h.mu.Unlock()

	for _, s := range sessions {
		s.mu.Lock()
		s.debouncer.Stop()
		s.mu.Unlock()
	}
}

func newSessionResponse(id string, controller *session.Controller) *SessionResponse {
	state := controller.State()
	resp := &SessionResponse{
		SessionID: id,
		Phase:     state.Phase().String(),
		Pending:   state.Pending,
		History:   controller.History(),
	}
	if state.Feedback != nil {
		resp.Feedback = &FeedbackView{OK: state.Feedback.OK, Message: state.Feedback.Message}
	}

	card, ok := state.Current()
	if !ok {
		return resp
	}
	resp.Card = newCardView(card, state.Kind, state.Mode)
	if state.Answered {
		resp.Answer = &AnswerView{
			Script:      card.Script,
			Readings:    card.Readings,
			RomajiForms: card.RomajiForms,
			Meanings:    card.Meanings,
			Examples:    card.Examples,
		}
	}
	return resp
}

// newCardView shows only what the prompt mode asks from
func newCardView(card deck.Card, kind deck.CardKind, mode evaluate.Mode) *CardView {
	view := &CardView{
		ID:   card.ID,
		Deck: card.DeckTag,
		Kind: kind.String(),
		Mode: mode,
	}
	switch mode {
	case evaluate.ModeReadingFromScript, evaluate.ModeMeaningFromWord:
		view.Script = card.Script
	case evaluate.ModeScriptFromMeaning, evaluate.ModeWordFromMeaning:
		view.Meanings = card.Meanings
	}
	return view
}
