package domain

import "errors"

var (
	// ErrInvalidDocument is returned when quiz text is not valid JSON.
	ErrInvalidDocument = errors.New("quiz document is not valid JSON")
	// ErrNoDocument is returned when an operation requires a loaded quiz.
	ErrNoDocument = errors.New("no quiz document loaded")
	// ErrNoLastQuiz indicates there is no persisted quiz to restore.
	ErrNoLastQuiz = errors.New("no previously loaded quiz")
	// ErrOptionNotFound indicates a selected option ID is not on the current question.
	ErrOptionNotFound = errors.New("option not found on current question")
	// ErrAlreadySubmitted guards against double submission of one question.
	ErrAlreadySubmitted = errors.New("answer already submitted")
	// ErrNoSelection is returned when submitting without a selected option.
	ErrNoSelection = errors.New("no option selected")
	// ErrCannotAdvance is returned for a navigation move that is not allowed.
	ErrCannotAdvance = errors.New("cannot advance in that direction")
	// ErrQuizNotFinished is returned when the summary is requested early.
	ErrQuizNotFinished = errors.New("quiz is not finished")
	// ErrLoadSuperseded marks an async load whose result arrived after a
	// newer load or reset; the result is discarded.
	ErrLoadSuperseded = errors.New("load superseded by a newer load or reset")
	// ErrSessionNotFound is returned when a client session has not been created.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidTheme indicates an unsupported theme name.
	ErrInvalidTheme = errors.New("invalid theme name")
	// ErrInvalidTimerDuration indicates a duration outside the allowed range.
	ErrInvalidTimerDuration = errors.New("timer duration out of range")
)
