package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fatih/color"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/evaluate"
	"github.com/at-ishikawa/jmemory/internal/glyph"
	"github.com/at-ishikawa/jmemory/internal/mastery"
	"github.com/at-ishikawa/jmemory/internal/session"
)

const (
	commandQuit  = ":q"
	commandShow  = ":show"
	commandReset = ":reset"

	commandSignIn  = ":signin"
	commandSignOut = ":signout"

	// drawingPrefix loads a drawing from an image file, as in "@kanji.png"
	drawingPrefix = "@"
)

// PracticeCLI drives a practice session in the terminal
type PracticeCLI struct {
	*InteractiveQuizCLI
	controller *session.Controller
	drawings   *glyph.ImageSurface
	accounts   Accounts
	limit      int
	answered   int
}

// Accounts signs a learner in and out in the middle of a session
type Accounts interface {
	SignIn(token string) (string, error)
	SignOut()
}

type PracticeOption func(*PracticeCLI)

// WithAccounts enables the :signin and :signout commands
func WithAccounts(accounts Accounts) PracticeOption {
	return func(p *PracticeCLI) {
		p.accounts = accounts
	}
}

// NewPracticeCLI returns a CLI for a started controller. drawings is the
// surface the controller reads for writing prompts and may be nil. A
// positive limit ends the session after that many cards.
func NewPracticeCLI(
	controller *session.Controller,
	drawings *glyph.ImageSurface,
	limit int,
	stdin io.Reader,
	stdout io.Writer,
	opts ...PracticeOption,
) *PracticeCLI {
	p := &PracticeCLI{
		InteractiveQuizCLI: newInteractiveQuizCLI(stdin, stdout),
		controller:         controller,
		drawings:           drawings,
		limit:              limit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Answered returns the number of cards moved past
func (p *PracticeCLI) Answered() int {
	return p.answered
}

func (p *PracticeCLI) Session(ctx context.Context) error {
	if p.limit > 0 && p.answered >= p.limit {
		_, _ = fmt.Fprintf(p.stdoutWriter, "Finished %d cards.\n", p.answered)
		return errEnd
	}
	state := p.controller.State()
	card, ok := state.Current()
	if !ok {
		_, _ = fmt.Fprintln(p.stdoutWriter, "No more cards to practice!")
		return errEnd
	}

	p.printPrompt(card, state.Mode)
	input, err := p.readLine()
	if err != nil {
		return err
	}
	if p.accounts != nil {
		if token, ok := strings.CutPrefix(input, commandSignIn+" "); ok {
			p.signIn(strings.TrimSpace(token))
			return nil
		}
	}

	switch input {
	case commandQuit:
		return errEnd
	case commandSignOut:
		if p.accounts != nil {
			p.accounts.SignOut()
			_, _ = fmt.Fprintln(p.stdoutWriter, "Signed out. Progress is saved on this device only.")
			return nil
		}
		_, _ = fmt.Fprintln(p.stdoutWriter, "Signing in is not configured.")
		return nil
	case commandReset:
		if err := p.controller.ResetDecks(); err != nil {
			return fmt.Errorf("controller.ResetDecks() > %w", err)
		}
		p.printFeedback(p.controller.State().Feedback)
		return nil
	case "", commandShow:
		if err := p.controller.ShowAnswer(); err != nil {
			return fmt.Errorf("controller.ShowAnswer() > %w", err)
		}
	default:
		text, err := p.takeDrawing(input, state.Mode)
		if err != nil {
			_, _ = fmt.Fprintf(p.stdoutWriter, "Failed to load the drawing: %v\n", err)
			return nil
		}
		if _, err := p.controller.Check(text); err != nil {
			return fmt.Errorf("controller.Check() > %w", err)
		}
	}
	p.printFeedback(p.controller.State().Feedback)
	p.printAnswer(card)

	_, _ = fmt.Fprint(p.stdoutWriter, "Press Enter for the next card, or y/n to mark it correct/incorrect: ")
	override, err := p.readLine()
	if err != nil {
		return err
	}
	switch strings.ToLower(override) {
	case commandQuit:
		return errEnd
	case "y", "n":
		if err := p.controller.Mark(override == "y"); err != nil {
			return fmt.Errorf("controller.Mark() > %w", err)
		}
		p.printFeedback(p.controller.State().Feedback)
	}

	record, err := p.controller.Next()
	if err != nil {
		return fmt.Errorf("controller.Next() > %w", err)
	}
	p.answered++
	p.printRecord(record)
	return nil
}

func (p *PracticeCLI) signIn(token string) {
	userID, err := p.accounts.SignIn(token)
	if err != nil {
		_, _ = fmt.Fprintf(p.stdoutWriter, "Failed to sign in: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(p.stdoutWriter, "Signed in as %s\n", userID)
}

// takeDrawing puts the image named by an "@path" input on the drawing
// surface and returns the remaining text answer
func (p *PracticeCLI) takeDrawing(input string, mode evaluate.Mode) (string, error) {
	path, ok := strings.CutPrefix(input, drawingPrefix)
	if !ok || mode != evaluate.ModeScriptFromMeaning || p.drawings == nil {
		return input, nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("imaging.Open(%s) > %w", path, err)
	}
	p.drawings.Put(img)
	return "", nil
}

func (p *PracticeCLI) printPrompt(card deck.Card, mode evaluate.Mode) {
	out := p.stdoutWriter
	switch mode {
	case evaluate.ModeReadingFromScript:
		_, _ = fmt.Fprintf(out, "Reading of %s: ", p.bold.Sprint(card.Script))
	case evaluate.ModeScriptFromMeaning:
		_, _ = fmt.Fprintf(out, "Write the kanji for %s (reading or %sdrawing.png): ",
			p.italic.Sprint(strings.Join(card.Meanings, ", ")), drawingPrefix)
	case evaluate.ModeMeaningFromWord:
		_, _ = fmt.Fprintf(out, "Meaning of %s: ", p.bold.Sprint(card.Script))
	case evaluate.ModeWordFromMeaning:
		_, _ = fmt.Fprintf(out, "Word for %s: ", p.italic.Sprint(strings.Join(card.Meanings, ", ")))
	}
}

func (p *PracticeCLI) printFeedback(feedback *session.Feedback) {
	if feedback == nil {
		return
	}
	if feedback.OK {
		_, _ = fmt.Fprint(p.stdoutWriter, "✅ ")
		_, _ = color.New(color.FgGreen).Fprintln(p.stdoutWriter, feedback.Message)
		return
	}
	_, _ = fmt.Fprint(p.stdoutWriter, "❌ ")
	_, _ = color.New(color.FgRed).Fprintln(p.stdoutWriter, feedback.Message)
}

func (p *PracticeCLI) printAnswer(card deck.Card) {
	_, _ = fmt.Fprintf(p.stdoutWriter, "%s [%s] %s\n",
		p.bold.Sprint(card.Script),
		strings.Join(card.Readings, ", "),
		p.italic.Sprint(strings.Join(card.Meanings, ", ")),
	)
	for _, example := range card.Examples {
		_, _ = fmt.Fprintf(p.stdoutWriter, "  - %s\n", example)
	}
}

func (p *PracticeCLI) printRecord(record mastery.Record) {
	next := "now"
	if !record.DueAt.IsZero() {
		next = record.DueAt.Format("2006-01-02")
	}
	_, _ = fmt.Fprintf(p.stdoutWriter, "Reading %d%%, writing %d%%, next review %s\n\n",
		record.ReadingProgress, record.WritingProgress, next)
}
