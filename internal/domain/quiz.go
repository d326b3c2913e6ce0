package domain

// MaxOptionsPerQuestion bounds the option letters to A..Z. Quizzes
// exceeding the bound are a configuration error, never silently
// truncated.
const MaxOptionsPerQuestion = 26

// QuizSource records where a quiz was published.
type QuizSource struct {
	Publication string `yaml:"publication" json:"publication"`
	URL         string `yaml:"url" json:"url"`
}

// QuizOption is a single answer choice. Letters are assigned by
// position at render time, never stored.
type QuizOption struct {
	ID    string   `yaml:"id" json:"id"`
	Text  string   `yaml:"text" json:"text"`
	Tags  []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Score *int     `yaml:"score,omitempty" json:"score,omitempty"`
}

// QuizQuestion is one question with its ordered options.
type QuizQuestion struct {
	ID      string       `yaml:"id" json:"id"`
	Text    string       `yaml:"text" json:"text"`
	Options []QuizOption `yaml:"options" json:"options"`
}

// OutcomeCondition is a declarative condition over a model's aggregate
// choices. Mostly names a choice letter in the magazine "mostly A's"
// style. The fields are mutually exclusive in practice; the first
// populated field determines the rule kind.
type OutcomeCondition struct {
	Mostly     string `yaml:"mostly,omitempty" json:"mostly,omitempty"`
	MostlyTag  string `yaml:"mostlyTag,omitempty" json:"mostlyTag,omitempty"`
	Score      *int   `yaml:"score,omitempty" json:"score,omitempty"`
	ScoreRange []int  `yaml:"scoreRange,omitempty" json:"scoreRange,omitempty"`
}

// OutcomeRule maps a condition to a named result label. Rules are
// evaluated in order; the first match wins.
type OutcomeRule struct {
	ID          string           `yaml:"id" json:"id"`
	Condition   OutcomeCondition `yaml:"condition" json:"condition"`
	Result      string           `yaml:"result" json:"result"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
}

// QuizDefinition is the full quiz document. It is loaded once per run
// and immutable during execution.
type QuizDefinition struct {
	ID        string         `yaml:"id" json:"id"`
	Title     string         `yaml:"title" json:"title"`
	Source    QuizSource     `yaml:"source" json:"source"`
	Notes     string         `yaml:"notes,omitempty" json:"notes,omitempty"`
	Questions []QuizQuestion `yaml:"questions" json:"questions"`
	Outcomes  []OutcomeRule  `yaml:"outcomes,omitempty" json:"outcomes,omitempty"`
}

// OptionLetter returns the letter assigned to the option at position i.
// Callers must validate i against MaxOptionsPerQuestion first.
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

// OptionByLetter resolves a chosen letter back to the option it named,
// or nil when the letter is outside the question's range.
func (q *QuizQuestion) OptionByLetter(letter string) *QuizOption {
	if len(letter) != 1 {
		return nil
	}
	idx := int(letter[0] - 'A')
	if idx < 0 || idx >= len(q.Options) {
		return nil
	}
	return &q.Options[idx]
}

// Validate checks the structural invariants of a quiz definition.
func (q *QuizDefinition) Validate() error {
	if q.ID == "" {
		return NewInvalidInputError("quiz id is required")
	}
	if q.Title == "" {
		return NewInvalidInputError("quiz title is required")
	}
	if len(q.Questions) == 0 {
		return NewInvalidInputError("quiz must contain at least one question")
	}
	questionIDs := make(map[string]struct{}, len(q.Questions))
	for _, question := range q.Questions {
		if question.ID == "" {
			return NewInvalidInputError("question id is required")
		}
		if _, dup := questionIDs[question.ID]; dup {
			return NewInvalidInputError("duplicate question id: " + question.ID)
		}
		questionIDs[question.ID] = struct{}{}
		if question.Text == "" {
			return NewInvalidInputError("question text is required: " + question.ID)
		}
		if len(question.Options) < 2 {
			return NewInvalidInputError("question needs at least two options: " + question.ID)
		}
		if len(question.Options) > MaxOptionsPerQuestion {
			return NewConfigError("question exceeds the A-Z option limit: " + question.ID)
		}
		optionIDs := make(map[string]struct{}, len(question.Options))
		for _, opt := range question.Options {
			if opt.ID == "" {
				return NewInvalidInputError("option id is required in question " + question.ID)
			}
			if _, dup := optionIDs[opt.ID]; dup {
				return NewInvalidInputError("duplicate option id " + opt.ID + " in question " + question.ID)
			}
			optionIDs[opt.ID] = struct{}{}
		}
	}
	return nil
}
