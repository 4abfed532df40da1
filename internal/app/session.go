package app

import (
	"fmt"
	"sync"

	"fastquiz-service/internal/domain"
)

// Direction selects which way Advance moves through the question sequence.
type Direction int

const (
	Next Direction = iota
	Previous
)

func (d Direction) String() string {
	if d == Previous {
		return "previous"
	}
	return "next"
}

// Event is pushed to session subscribers after a state transition.
type Event struct {
	// Kind is "state" for ordinary transitions and "timeout" when the
	// countdown expired and auto-submitted the current question.
	Kind     string
	Snapshot domain.SessionSnapshot
	Result   *domain.AnswerResult
}

// TickOutcome reports what a single countdown tick did.
type TickOutcome struct {
	Active  bool
	Expired bool
	Result  *domain.AnswerResult
}

// Session owns one quiz run: the working question order, the answer pointer,
// score and history. All mutation goes through its methods; callers in other
// goroutines (transport, timer) are serialized by the internal mutex.
//
// Score bookkeeping: answered question IDs are tracked separately from the
// per-question submitted flag, so navigating back and resubmitting reveals
// correctness again but never appends a duplicate history record or credits
// the score twice.
type Session struct {
	id string

	mu             sync.Mutex
	doc            *domain.QuizDocument
	ordered        []domain.Question
	current        int
	selected       string
	submitted      bool
	score          int
	history        []domain.AnswerRecord
	answered       map[string]bool
	timerEnabled   bool
	timerDuration  int
	timeRemaining  int
	summaryVisible bool
	loadGen        uint64
	subscribers    map[chan Event]struct{}
}

// NewSession returns an empty session with no document loaded.
func NewSession(id string) *Session {
	return &Session{
		id:          id,
		answered:    make(map[string]bool),
		subscribers: make(map[chan Event]struct{}),
	}
}

// ID returns the session identifier (one per connected client).
func (s *Session) ID() string { return s.id }

// Generation increments on every Load and Reset. Async loaders capture it
// before reading and compare after, so an in-flight read superseded by a
// newer load or reset is discarded instead of applied.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadGen
}

// Empty reports whether no document is loaded.
func (s *Session) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc == nil
}

// Load replaces any in-progress run with a fresh one over doc, deriving the
// working question order from the shuffler and current settings.
func (s *Session) Load(doc domain.QuizDocument, settings domain.Settings, sh *Shuffler) domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadGen++
	s.resetRunLocked(&doc, settings, sh)
	return s.broadcastLocked("state", nil)
}

// LoadIfCurrent applies Load only when gen still matches the generation
// captured before the caller's read started. It reports false, leaving state
// untouched, when a newer load or reset happened in between.
func (s *Session) LoadIfCurrent(gen uint64, doc domain.QuizDocument, settings domain.Settings, sh *Shuffler) (domain.SessionSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadGen != gen {
		return domain.SessionSnapshot{}, false
	}
	s.loadGen++
	s.resetRunLocked(&doc, settings, sh)
	return s.broadcastLocked("state", nil), true
}

// Reshuffle restarts the run over the same document with a fresh ordering,
// discarding in-progress answers.
func (s *Session) Reshuffle(settings domain.Settings, sh *Shuffler) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return domain.SessionSnapshot{}, domain.ErrNoDocument
	}
	s.resetRunLocked(s.doc, settings, sh)
	return s.broadcastLocked("state", nil), nil
}

// resetRunLocked re-derives the working state for doc. The canonical
// document question order is never touched; the shuffler copies.
func (s *Session) resetRunLocked(doc *domain.QuizDocument, settings domain.Settings, sh *Shuffler) {
	s.doc = doc
	s.ordered = sh.Shuffle(doc.Questions, settings.ShuffleQuestions, settings.ShuffleOptions)
	s.current = 0
	s.selected = ""
	s.submitted = false
	s.score = 0
	s.history = nil
	s.answered = make(map[string]bool)
	s.timerEnabled = settings.TimerEnabled
	s.timerDuration = settings.TimerDuration
	s.timeRemaining = 0
	if settings.TimerEnabled {
		s.timeRemaining = settings.TimerDuration
	}
	s.summaryVisible = false
}

// Reset discards the document and every run field, returning to empty.
func (s *Session) Reset() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadGen++
	s.doc = nil
	s.ordered = nil
	s.current = 0
	s.selected = ""
	s.submitted = false
	s.score = 0
	s.history = nil
	s.answered = make(map[string]bool)
	s.timerEnabled = false
	s.timerDuration = 0
	s.timeRemaining = 0
	s.summaryVisible = false
	return s.broadcastLocked("state", nil)
}

// SelectOption records the user's current choice. Correctness is not
// inspected here; it is revealed only on submit.
func (s *Session) SelectOption(optionID string) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return domain.SessionSnapshot{}, domain.ErrNoDocument
	}
	if s.submitted {
		return domain.SessionSnapshot{}, domain.ErrAlreadySubmitted
	}
	// A document with zero questions has nothing selectable.
	if len(s.ordered) == 0 || s.currentLocked().FindOption(optionID) == nil {
		return domain.SessionSnapshot{}, domain.ErrOptionNotFound
	}
	s.selected = optionID
	return s.broadcastLocked("state", nil), nil
}

// SubmitAnswer scores the current selection. Submitting twice without an
// intervening advance is rejected, so the score can never double-count.
func (s *Session) SubmitAnswer() (domain.AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return domain.AnswerResult{}, domain.ErrNoDocument
	}
	if s.submitted {
		return domain.AnswerResult{}, domain.ErrAlreadySubmitted
	}
	if s.selected == "" {
		return domain.AnswerResult{}, domain.ErrNoSelection
	}
	result := s.submitLocked()
	s.broadcastLocked("state", &result)
	return result, nil
}

// submitLocked marks the current question submitted and, if this question was
// never recorded before, appends the history entry and credits the score.
func (s *Session) submitLocked() domain.AnswerResult {
	question := s.currentLocked()
	correct := false
	if s.selected != "" {
		if opt := question.FindOption(s.selected); opt != nil && opt.IsCorrect {
			correct = true
		}
	}

	recorded := false
	if !s.answered[question.ID] {
		s.answered[question.ID] = true
		s.history = append(s.history, domain.AnswerRecord{
			QuestionID:       question.ID,
			SelectedOptionID: s.selected,
			Correct:          correct,
		})
		if correct {
			s.score++
		}
		recorded = true
	}
	s.submitted = true

	correctID := ""
	if opt := question.CorrectOption(); opt != nil {
		correctID = opt.ID
	}
	return domain.AnswerResult{
		QuestionID:      question.ID,
		SelectedOption:  s.selected,
		CorrectOptionID: correctID,
		Correct:         correct,
		Score:           s.score,
		Recorded:        recorded,
	}
}

// Advance moves the question pointer. Next requires the current question to
// be submitted and is blocked at the last index; Previous only requires a
// non-zero index. Moving clears the selection and submitted flag and, when
// the timer is on, rewinds the countdown. Going back never retracts history
// or score.
func (s *Session) Advance(dir Direction) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return domain.SessionSnapshot{}, domain.ErrNoDocument
	}
	switch dir {
	case Next:
		if !s.submitted || s.current >= len(s.ordered)-1 {
			return domain.SessionSnapshot{}, domain.ErrCannotAdvance
		}
		s.current++
	case Previous:
		if s.current == 0 {
			return domain.SessionSnapshot{}, domain.ErrCannotAdvance
		}
		s.current--
	default:
		panic(fmt.Sprintf("unknown advance direction %d", dir))
	}
	s.selected = ""
	s.submitted = false
	// Leaving the summary by navigation hides it again; the revisited
	// question behaves like any other unsubmitted one.
	s.summaryVisible = false
	if s.timerEnabled {
		s.timeRemaining = s.timerDuration
	}
	return s.broadcastLocked("state", nil), nil
}

// Tick consumes one second of the countdown. When it hits zero while the
// question is still unsubmitted, the answer is auto-submitted exactly once
// (an empty selection scores as incorrect but still records history).
func (s *Session) Tick() TickOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil || len(s.ordered) == 0 || !s.timerEnabled || s.submitted || s.summaryVisible {
		return TickOutcome{}
	}
	if s.timeRemaining > 0 {
		s.timeRemaining--
	}
	if s.timeRemaining > 0 {
		s.broadcastLocked("state", nil)
		return TickOutcome{Active: true}
	}
	result := s.submitLocked()
	s.broadcastLocked("timeout", &result)
	return TickOutcome{Expired: true, Result: &result}
}

// ShowSummary marks the summary visible and builds the report. Only valid
// once the last question has been submitted.
func (s *Session) ShowSummary() (domain.SummaryReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return domain.SummaryReport{}, domain.ErrNoDocument
	}
	if s.current != len(s.ordered)-1 || !s.submitted {
		return domain.SummaryReport{}, domain.ErrQuizNotFinished
	}
	s.summaryVisible = true
	report := BuildSummary(*s.doc, s.ordered, s.history, s.score)
	s.broadcastLocked("state", nil)
	return report, nil
}

// History returns a copy of the answer records in submission order.
func (s *Session) History() []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AnswerRecord, len(s.history))
	copy(out, s.history)
	return out
}

// Snapshot returns the current client-facing view of the session.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving an event per transition, starting
// with the current state. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	// Prime under the lock so no broadcast can slip in ahead of the initial
	// snapshot and get rewound by it. The fresh buffered channel never blocks.
	ch <- Event{Kind: "state", Snapshot: s.snapshotLocked()}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(kind string, result *domain.AnswerResult) domain.SessionSnapshot {
	snap := s.snapshotLocked()
	ev := Event{Kind: kind, Snapshot: snap, Result: result}
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event so slow consumers never block
			// a transition.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
	return snap
}

func (s *Session) currentLocked() domain.Question {
	if s.current < 0 || s.current >= len(s.ordered) {
		panic(fmt.Sprintf("session %s: question index %d out of range [0,%d)", s.id, s.current, len(s.ordered)))
	}
	return s.ordered[s.current]
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{Loaded: s.doc != nil}
	if s.doc == nil {
		return snap
	}
	snap.QuizID = s.doc.ID
	snap.Title = s.doc.Title
	snap.Description = s.doc.Description
	snap.Tags = append([]string(nil), s.doc.Tags...)
	snap.Index = s.current
	snap.Total = len(s.ordered)
	snap.SelectedOption = s.selected
	snap.Submitted = s.submitted
	snap.Score = s.score
	snap.Answered = len(s.history)
	snap.SummaryVisible = s.summaryVisible
	if s.timerEnabled {
		remaining := s.timeRemaining
		snap.TimeRemaining = &remaining
	}
	if len(s.ordered) > 0 {
		q := s.currentLocked()
		view := domain.QuestionView{ID: q.ID, Type: q.Type, Text: q.Text}
		for _, opt := range q.Options {
			view.Options = append(view.Options, domain.OptionView{ID: opt.ID, Text: opt.Text})
		}
		snap.Question = &view
	}
	return snap
}
