package domain

// Option represents a possible answer for a question.
type Option struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	IsCorrect bool    `json:"isCorrect"`
	Value     float64 `json:"value"`
}

// Question models an MCQ question. A well-formed question has exactly one
// correct option; documents violating that are still accepted (see
// ParseDocument) and simply never score.
type Question struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// CorrectOption returns the first option flagged correct, or nil when the
// question has none (an unanswerable question).
func (q Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// FindOption looks up an option on the question by ID.
func (q Question) FindOption(optionID string) *Option {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i]
		}
	}
	return nil
}

// QuizDocument is the parsed form of a quiz JSON document. Immutable once
// loaded; a new load replaces it wholesale.
type QuizDocument struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Questions   []Question `json:"questions"`
}

// Settings holds the four persisted user preferences.
type Settings struct {
	TimerEnabled     bool `json:"timerEnabled"`
	TimerDuration    int  `json:"timerDuration"` // seconds, within [MinTimerDuration, MaxTimerDuration]
	ShuffleQuestions bool `json:"shuffleQuestions"`
	ShuffleOptions   bool `json:"shuffleOptions"`
}

// Timer duration bounds in seconds.
const (
	MinTimerDuration = 5
	MaxTimerDuration = 120
)

// DefaultSettings returns the values used when nothing has been persisted.
func DefaultSettings() Settings {
	return Settings{
		TimerEnabled:     false,
		TimerDuration:    30,
		ShuffleQuestions: true,
		ShuffleOptions:   true,
	}
}

// AnswerRecord captures one submitted answer. Records are append-only and
// never mutated after creation.
type AnswerRecord struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOption"`
	Correct          bool   `json:"correct"`
}

// AnswerResult summarizes the outcome of a single submission for the client.
// Recorded is false when the submission revisited an already-answered
// question and therefore changed neither score nor history.
type AnswerResult struct {
	QuestionID      string `json:"questionId"`
	SelectedOption  string `json:"selectedOption"`
	CorrectOptionID string `json:"correctOptionId"`
	Correct         bool   `json:"correct"`
	Score           int    `json:"score"`
	Recorded        bool   `json:"recorded"`
}

// QuestionReview pairs a question with the user's selection for the summary.
type QuestionReview struct {
	Question       Question `json:"question"`
	SelectedOption *Option  `json:"selectedOption"`
	CorrectOption  *Option  `json:"correctOption"`
	WasCorrect     bool     `json:"wasCorrect"`
}

// SummaryReport is the post-completion report shown once a run finishes.
type SummaryReport struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Score       int              `json:"score"`
	Total       int              `json:"total"`
	Percentage  int              `json:"percentage"`
	PerQuestion []QuestionReview `json:"perQuestion"`
}

// OptionView is an option as shown to the client while answering; the
// correct flag is withheld until submission.
type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionView is the client-facing form of the current question.
type QuestionView struct {
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Text    string       `json:"text"`
	Options []OptionView `json:"options"`
}

// SessionSnapshot is a client-facing view of one session's run state.
type SessionSnapshot struct {
	Loaded         bool          `json:"loaded"`
	QuizID         string        `json:"quizId,omitempty"`
	Title          string        `json:"title,omitempty"`
	Description    string        `json:"description,omitempty"`
	Tags           []string      `json:"tags,omitempty"`
	Index          int           `json:"index"`
	Total          int           `json:"total"`
	Question       *QuestionView `json:"question,omitempty"`
	SelectedOption string        `json:"selectedOption,omitempty"`
	Submitted      bool          `json:"submitted"`
	Score          int           `json:"score"`
	Answered       int           `json:"answered"`
	TimeRemaining  *int          `json:"timeRemaining,omitempty"`
	SummaryVisible bool          `json:"summaryVisible"`
}

// Theme names accepted by the theme service.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// ValidTheme reports whether name is one of the supported themes.
func ValidTheme(name string) bool {
	return name == ThemeLight || name == ThemeDark || name == ThemeSystem
}
