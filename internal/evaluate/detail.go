package evaluate

// Mode is the direction of translation a card is tested in
type Mode string

const (
	// ModeReadingFromScript shows the script and asks for a kana reading
	ModeReadingFromScript Mode = "script-to-reading"
	// ModeScriptFromMeaning shows a meaning and asks for the script, typed as a reading and/or drawn
	ModeScriptFromMeaning Mode = "meaning-to-script"
	// ModeMeaningFromWord shows the word and asks for a meaning
	ModeMeaningFromWord Mode = "word-to-meaning"
	// ModeWordFromMeaning shows a meaning and asks for the word in kana, romaji or script
	ModeWordFromMeaning Mode = "meaning-to-word"
)

var Modes = []Mode{
	ModeReadingFromScript,
	ModeScriptFromMeaning,
	ModeMeaningFromWord,
	ModeWordFromMeaning,
}

func (m Mode) Valid() bool {
	switch m {
	case ModeReadingFromScript, ModeScriptFromMeaning, ModeMeaningFromWord, ModeWordFromMeaning:
		return true
	}
	return false
}

// Outcome is the tri-state result of a single sub-skill
type Outcome string

const (
	Unset Outcome = ""
	Pass  Outcome = "pass"
	Fail  Outcome = "fail"
)

func OutcomeOf(ok bool) Outcome {
	if ok {
		return Pass
	}
	return Fail
}

func (o Outcome) Present() bool {
	return o != Unset
}

// Detail is the outcome of one answer attempt. Only the sub-skills tested by
// Mode are set; the others stay Unset.
type Detail struct {
	Mode    Mode    `json:"mode"`
	Reading Outcome `json:"reading,omitempty"`
	Drawing Outcome `json:"drawing,omitempty"`
	Meaning Outcome `json:"meaning,omitempty"`
}

// Overall combines the sub-skills. A meaning outcome decides on its own;
// otherwise every present sub-skill must pass. applicable is false when no
// sub-skill is set.
func (d Detail) Overall() (passed bool, applicable bool) {
	if d.Meaning.Present() {
		return d.Meaning == Pass, true
	}
	if !d.Reading.Present() && !d.Drawing.Present() {
		return false, false
	}
	return d.Reading != Fail && d.Drawing != Fail, true
}

func (d Detail) Passed() bool {
	passed, _ := d.Overall()
	return passed
}

// Uniform sets every sub-skill tested by the mode to the same outcome.
// It is used when the answer is revealed or marked by hand.
func Uniform(mode Mode, ok bool) Detail {
	outcome := OutcomeOf(ok)
	switch mode {
	case ModeReadingFromScript:
		return Detail{Mode: mode, Reading: outcome}
	case ModeScriptFromMeaning:
		return Detail{Mode: mode, Reading: outcome, Drawing: outcome}
	case ModeMeaningFromWord, ModeWordFromMeaning:
		return Detail{Mode: mode, Meaning: outcome}
	default:
		return Detail{Mode: mode, Meaning: Fail}
	}
}
