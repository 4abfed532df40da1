package app

import (
	"errors"
	"testing"
	"time"

	"fastquiz-service/internal/domain"
)

func docFixture() domain.QuizDocument {
	return domain.QuizDocument{
		ID:    "quiz-1",
		Title: "Sample",
		Tags:  []string{"demo"},
		Questions: []domain.Question{
			{
				ID: "q1", Text: "first",
				Options: []domain.Option{
					{ID: "a", Text: "wrong"},
					{ID: "b", Text: "right", IsCorrect: true},
				},
			},
			{
				ID: "q2", Text: "second",
				Options: []domain.Option{
					{ID: "a", Text: "right", IsCorrect: true},
					{ID: "b", Text: "wrong"},
				},
			},
			{
				ID: "q3", Text: "third",
				Options: []domain.Option{
					{ID: "a", Text: "wrong"},
					{ID: "b", Text: "right", IsCorrect: true},
				},
			},
		},
	}
}

// noShuffle keeps document order so tests can address questions by index.
func noShuffle() domain.Settings {
	s := domain.DefaultSettings()
	s.ShuffleQuestions = false
	s.ShuffleOptions = false
	return s
}

func TestLoadInitializesRun(t *testing.T) {
	sess := NewSession("c1")
	snap := sess.Load(docFixture(), noShuffle(), NewShuffler())

	if !snap.Loaded || snap.Total != 3 || snap.Index != 0 {
		t.Fatalf("unexpected snapshot after load: %+v", snap)
	}
	if snap.Score != 0 || snap.Submitted || snap.SummaryVisible {
		t.Fatalf("expected pristine run state, got %+v", snap)
	}
	if snap.TimeRemaining != nil {
		t.Fatalf("timer disabled by default, got remaining %d", *snap.TimeRemaining)
	}
	if snap.Question == nil || snap.Question.ID != "q1" {
		t.Fatalf("expected first question, got %+v", snap.Question)
	}
}

func TestSelectAndSubmitScoresCorrectAnswer(t *testing.T) {
	sess := NewSession("c1")
	sess.Load(docFixture(), noShuffle(), NewShuffler())

	if _, err := sess.SelectOption("b"); err != nil {
		t.Fatalf("select: %v", err)
	}
	result, err := sess.SubmitAnswer()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Correct || result.Score != 1 || !result.Recorded {
		t.Fatalf("expected correct scored submission, got %+v", result)
	}

	history := sess.History()
	if len(history) != 1 || history[0].SelectedOptionID != "b" || !history[0].Correct {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestSubmitWrongAnswerDoesNotScore(t *testing.T) {
	sess := NewSession("c1")
	sess.Load(docFixture(), noShuffle(), NewShuffler())

	_, _ = sess.SelectOption("a")
	result, err := sess.SubmitAnswer()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Correct || result.Score != 0 {
		t.Fatalf("expected incorrect unscored submission, got %+v", result)
	}
	if result.CorrectOptionID != "b" {
		t.Fatalf("expected correct option revealed as b, got %q", result.CorrectOptionID)
	}
}

func TestDoubleSubmitRejected(t *testing.T) {
	sess := NewSession("c1")
	sess.Load(docFixture(), noShuffle(), NewShuffler())

	_, _ = sess.SelectOption("b")
	if _, err := sess.SubmitAnswer(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := sess.SubmitAnswer(); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if snap := sess.Snapshot(); snap.Score != 1 {
		t.Fatalf("double submit must not double-count, score=%d", snap.Score)
	}
	if len(sess.History()) != 1 {
		t.Fatalf("expected single history record")
	}
}

func TestSubmitGuards(t *testing.T) {
	sess := NewSession("c1")

	if _, err := sess.SubmitAnswer(); !errors.Is(err, domain.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}

	sess.Load(docFixture(), noShuffle(), NewShuffler())
	if _, err := sess.SubmitAnswer(); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if _, err := sess.SelectOption("zzz"); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
}

func TestAdvanceRules(t *testing.T) {
	sess := NewSession("c1")
	sess.Load(docFixture(), noShuffle(), NewShuffler())

	// Next before submitting is blocked.
	if _, err := sess.Advance(Next); !errors.Is(err, domain.ErrCannotAdvance) {
		t.Fatalf("expected blocked next, got %v", err)
	}
	// Previous at index 0 is blocked.
	if _, err := sess.Advance(Previous); !errors.Is(err, domain.ErrCannotAdvance) {
		t.Fatalf("expected blocked previous, got %v", err)
	}

	_, _ = sess.SelectOption("b")
	_, _ = sess.SubmitAnswer()
	snap, err := sess.Advance(Next)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if snap.Index != 1 || snap.Submitted || snap.SelectedOption != "" {
		t.Fatalf("advance must clear per-question state: %+v", snap)
	}
}

func TestAdvanceBlockedAtLastIndex(t *testing.T) {
	sess := NewSession("c1")
	sess.Load(docFixture(), noShuffle(), NewShuffler())

	for i := 0; i < 2; i++ {
		_, _ = sess.SelectOption("b")
		_, _ = sess.SubmitAnswer()
		if _, err := sess.Advance(Next); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	_, _ = sess.SelectOption("b")
	_, _ = sess.SubmitAnswer()
	if _, err := sess.Advance(Next); !errors.Is(err, domain.ErrCannotAdvance) {
		t.Fatalf("expected blocked next at last index, got %v", err)
	}
}

func TestBackwardNavigationDoesNotDuplicateHistory(t *testing.T) {
	sess := NewSession("c1")
	sess.Load(docFixture(), noShuffle(), NewShuffler())

	_, _ = sess.SelectOption("b")
	_, _ = sess.SubmitAnswer() // q1 correct
	_, _ = sess.Advance(Next)
	_, _ = sess.SelectOption("a")
	_, _ = sess.SubmitAnswer() // q2 correct

	scoreBefore := sess.Snapshot().Score

	// Going back never retracts the record for the question being left.
	if _, err := sess.Advance(Previous); err != nil {
		t.Fatalf("previous: %v", err)
	}
	snap := sess.Snapshot()
	if snap.Score != scoreBefore {
		t.Fatalf("previous changed score: %d != %d", snap.Score, scoreBefore)
	}
	if len(sess.History()) != 2 {
		t.Fatalf("previous changed history length: %d", len(sess.History()))
	}

	// Resubmitting the revisited question reveals correctness again but
	// records nothing and credits nothing.
	_, _ = sess.SelectOption("b")
	result, err := sess.SubmitAnswer()
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if result.Recorded {
		t.Fatalf("revisited submission must not be recorded")
	}
	if sess.Snapshot().Score != scoreBefore || len(sess.History()) != 2 {
		t.Fatalf("revisited submission changed score or history")
	}
}

func TestShowSummaryOnlyAfterLastSubmission(t *testing.T) {
	sess := NewSession("c1")
	sess.Load(docFixture(), noShuffle(), NewShuffler())

	if _, err := sess.ShowSummary(); !errors.Is(err, domain.ErrQuizNotFinished) {
		t.Fatalf("expected ErrQuizNotFinished, got %v", err)
	}

	answers := []string{"b", "a", "b"} // all correct in document order
	for i, pick := range answers {
		_, _ = sess.SelectOption(pick)
		if _, err := sess.SubmitAnswer(); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if i < len(answers)-1 {
			if _, err := sess.Advance(Next); err != nil {
				t.Fatalf("advance %d: %v", i, err)
			}
		}
	}

	report, err := sess.ShowSummary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if report.Score != 3 || report.Percentage != 100 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !sess.Snapshot().SummaryVisible {
		t.Fatalf("expected summaryVisible after ShowSummary")
	}
}

func TestNavigatingBackFromSummaryResumesTimer(t *testing.T) {
	sess := NewSession("c1")
	settings := noShuffle()
	settings.TimerEnabled = true
	settings.TimerDuration = 5
	sess.Load(docFixture(), settings, NewShuffler())

	answers := []string{"b", "a", "b"}
	for i, pick := range answers {
		if _, err := sess.SelectOption(pick); err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
		if _, err := sess.SubmitAnswer(); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if i < len(answers)-1 {
			if _, err := sess.Advance(Next); err != nil {
				t.Fatalf("advance %d: %v", i, err)
			}
		}
	}
	if _, err := sess.ShowSummary(); err != nil {
		t.Fatalf("summary: %v", err)
	}

	snap, err := sess.Advance(Previous)
	if err != nil {
		t.Fatalf("advance previous from summary: %v", err)
	}
	if snap.SummaryVisible {
		t.Fatalf("summary must hide when navigating away, got %+v", snap)
	}
	if snap.Index != 1 || snap.Submitted {
		t.Fatalf("expected unsubmitted question 1, got %+v", snap)
	}
	if snap.TimeRemaining == nil || *snap.TimeRemaining != 5 {
		t.Fatalf("expected rewound countdown, got %+v", snap.TimeRemaining)
	}

	// The revisited question counts down like any other.
	if outcome := sess.Tick(); !outcome.Active {
		t.Fatalf("expected an active tick, got %+v", outcome)
	}
	if got := *sess.Snapshot().TimeRemaining; got != 4 {
		t.Fatalf("expected remaining 4 after one tick, got %d", got)
	}

	// And the controller agrees to drive it.
	ctl := NewTimerController(sess, &recordingNotifier{})
	ctl.interval = time.Millisecond
	ctl.Restart()
	defer ctl.Stop()
	deadline := time.Now().Add(2 * time.Second)
	for *sess.Snapshot().TimeRemaining >= 4 {
		if time.Now().After(deadline) {
			t.Fatalf("countdown did not resume after leaving the summary")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReshuffleDiscardsProgress(t *testing.T) {
	sess := NewSession("c1")
	sess.Load(docFixture(), noShuffle(), NewShuffler())

	_, _ = sess.SelectOption("b")
	_, _ = sess.SubmitAnswer()
	_, _ = sess.Advance(Next)

	snap, err := sess.Reshuffle(noShuffle(), NewShuffler())
	if err != nil {
		t.Fatalf("reshuffle: %v", err)
	}
	if snap.Index != 0 || snap.Score != 0 || snap.Submitted {
		t.Fatalf("reshuffle must restart the run: %+v", snap)
	}
	if len(sess.History()) != 0 {
		t.Fatalf("reshuffle must discard history")
	}
}

func TestResetReturnsToEmpty(t *testing.T) {
	sess := NewSession("c1")
	sess.Load(docFixture(), noShuffle(), NewShuffler())
	snap := sess.Reset()

	if snap.Loaded || !sess.Empty() {
		t.Fatalf("expected empty session after reset")
	}
	if _, err := sess.SelectOption("b"); !errors.Is(err, domain.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument after reset, got %v", err)
	}
	if _, err := sess.Reshuffle(noShuffle(), NewShuffler()); !errors.Is(err, domain.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument on reshuffle after reset, got %v", err)
	}
}

func TestTimerTicksAutoSubmitOnce(t *testing.T) {
	sess := NewSession("c1")
	settings := noShuffle()
	settings.TimerEnabled = true
	settings.TimerDuration = 5
	sess.Load(docFixture(), settings, NewShuffler())

	for i := 0; i < 4; i++ {
		outcome := sess.Tick()
		if !outcome.Active || outcome.Expired {
			t.Fatalf("tick %d: unexpected outcome %+v", i, outcome)
		}
	}
	outcome := sess.Tick()
	if !outcome.Expired || outcome.Result == nil {
		t.Fatalf("expected expiry on fifth tick, got %+v", outcome)
	}
	if outcome.Result.Correct || outcome.Result.SelectedOption != "" {
		t.Fatalf("auto-submit with no selection must score incorrect: %+v", outcome.Result)
	}

	snap := sess.Snapshot()
	if !snap.Submitted {
		t.Fatalf("expected submitted after expiry")
	}
	if len(sess.History()) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(sess.History()))
	}

	// Further ticks are inert until the next question starts.
	if outcome := sess.Tick(); outcome.Active || outcome.Expired {
		t.Fatalf("tick after expiry must be inert, got %+v", outcome)
	}
}

func TestTimerSuspendsOnSubmitAndResetsOnAdvance(t *testing.T) {
	sess := NewSession("c1")
	settings := noShuffle()
	settings.TimerEnabled = true
	settings.TimerDuration = 10
	sess.Load(docFixture(), settings, NewShuffler())

	sess.Tick()
	sess.Tick()
	_, _ = sess.SelectOption("b")
	_, _ = sess.SubmitAnswer()

	if outcome := sess.Tick(); outcome.Active {
		t.Fatalf("countdown must suspend once submitted")
	}
	remaining := *sess.Snapshot().TimeRemaining
	if remaining != 8 {
		t.Fatalf("expected remaining 8 after two ticks, got %d", remaining)
	}

	snap, _ := sess.Advance(Next)
	if snap.TimeRemaining == nil || *snap.TimeRemaining != 10 {
		t.Fatalf("advance must rewind the countdown, got %+v", snap.TimeRemaining)
	}
}

func TestZeroOptionQuestionNeverScores(t *testing.T) {
	doc := domain.QuizDocument{
		ID:    "degenerate",
		Title: "degenerate",
		Questions: []domain.Question{
			{ID: "q1", Text: "no options"},
		},
	}
	sess := NewSession("c1")
	settings := noShuffle()
	settings.TimerEnabled = true
	settings.TimerDuration = 5
	sess.Load(doc, settings, NewShuffler())

	// No selection is possible; submitting manually fails.
	if _, err := sess.SelectOption("a"); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
	if _, err := sess.SubmitAnswer(); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}

	// The timer path records the question as wrong, never credits it.
	for i := 0; i < 5; i++ {
		sess.Tick()
	}
	snap := sess.Snapshot()
	if snap.Score != 0 || !snap.Submitted {
		t.Fatalf("zero-option question must never score: %+v", snap)
	}
	if history := sess.History(); len(history) != 1 || history[0].Correct {
		t.Fatalf("expected one incorrect record, got %+v", history)
	}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	sess := NewSession("c1")
	ch, cancel := sess.Subscribe()
	defer cancel()

	first := <-ch
	if first.Snapshot.Loaded {
		t.Fatalf("expected initial empty snapshot")
	}

	sess.Load(docFixture(), noShuffle(), NewShuffler())
	loaded := <-ch
	if !loaded.Snapshot.Loaded || loaded.Kind != "state" {
		t.Fatalf("expected load event, got %+v", loaded)
	}
}

func TestSubscribePrimedSnapshotComesFirst(t *testing.T) {
	for i := 0; i < 200; i++ {
		sess := NewSession("c1")
		done := make(chan struct{})
		go func() {
			defer close(done)
			sess.Load(docFixture(), noShuffle(), NewShuffler())
		}()
		events, cancel := sess.Subscribe()

		seen := []Event{<-events}
		<-done
	drain:
		for {
			select {
			case ev := <-events:
				seen = append(seen, ev)
			default:
				break drain
			}
		}
		cancel()

		// A loaded snapshot followed by the empty one would rewind the
		// client's view; the primed snapshot must always come first.
		for j := 1; j < len(seen); j++ {
			if seen[j-1].Snapshot.Loaded && !seen[j].Snapshot.Loaded {
				t.Fatalf("stale empty snapshot delivered after the loaded one")
			}
		}
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	sess := NewSession("c1")
	gen := sess.Generation()

	// A newer load lands while the first read is still in flight.
	sess.Load(docFixture(), noShuffle(), NewShuffler())

	stale := domain.QuizDocument{ID: "stale", Title: "stale", Questions: docFixture().Questions}
	if _, applied := sess.LoadIfCurrent(gen, stale, noShuffle(), NewShuffler()); applied {
		t.Fatalf("superseded load must not apply")
	}
	if snap := sess.Snapshot(); snap.QuizID != "quiz-1" {
		t.Fatalf("stale load overwrote session: %+v", snap)
	}
}
