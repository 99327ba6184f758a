package deck

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// ValidationError is a single problem found in a deck
type ValidationError struct {
	Deck     string
	Location string
	Message  string
}

func (e ValidationError) Error() string {
	location := ""
	if e.Location != "" {
		location = fmt.Sprintf(" (%s)", e.Location)
	}
	return fmt.Sprintf("%s%s: %s", e.Deck, location, e.Message)
}

type ValidationResult struct {
	Errors []ValidationError
}

func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r *ValidationResult) add(err ValidationError) {
	r.Errors = append(r.Errors, err)
}

// Validator checks decks against the card invariants
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator() (*Validator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterStructValidation(validateCardAnswers, Card{})
	if err := validate.RegisterTranslation("answers", trans, func(ut ut.Translator) error {
		return ut.Add("answers", "{0} must have at least one kana reading or meaning", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("answers", fe.Field())
		return t
	}); err != nil {
		return nil, fmt.Errorf("failed to register answers translation: %w", err)
	}

	return &Validator{
		validate:   validate,
		translator: trans,
	}, nil
}

func validateCardAnswers(sl validator.StructLevel) {
	card := sl.Current().Interface().(Card)
	if len(card.Readings) == 0 && len(card.Meanings) == 0 {
		sl.ReportError(card.Readings, "kana", "Readings", "answers", "")
	}
}

// Validate checks every deck and collects all problems instead of stopping at the first one
func (v *Validator) Validate(decks []Deck) (*ValidationResult, error) {
	result := &ValidationResult{}
	for _, d := range decks {
		if err := v.validate.Struct(d); err != nil {
			var validationErrors validator.ValidationErrors
			if !errors.As(err, &validationErrors) {
				return nil, fmt.Errorf("validate.Struct(%s) > %w", d.Key, err)
			}
			for _, e := range validationErrors {
				result.add(ValidationError{
					Deck:     d.Key,
					Location: strings.TrimPrefix(e.Namespace(), "Deck."),
					Message:  e.Translate(v.translator),
				})
			}
		}

		seen := make(map[string]int, len(d.Cards))
		for i, card := range d.Cards {
			if card.ID == "" {
				continue
			}
			if first, ok := seen[card.ID]; ok {
				result.add(ValidationError{
					Deck:     d.Key,
					Location: fmt.Sprintf("cards[%d]", i),
					Message:  fmt.Sprintf("duplicate card id %q, first used by cards[%d]", card.ID, first),
				})
				continue
			}
			seen[card.ID] = i
		}
	}
	return result, nil
}
