package app

import (
	"math/rand"
	"time"

	"fastquiz-service/internal/domain"
)

// Shuffler produces randomized working copies of a document's questions.
// The zero value is not usable; construct with NewShuffler.
type Shuffler struct {
	rnd *rand.Rand
}

// NewShuffler returns a time-seeded shuffler. Each call site gets fresh
// orderings across invocations; reshuffling is deliberately not reproducible.
func NewShuffler() *Shuffler {
	return NewShufflerWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewShufflerWithSource allows deterministic orderings in tests.
func NewShufflerWithSource(src rand.Source) *Shuffler {
	return &Shuffler{rnd: rand.New(src)}
}

// Shuffle returns a new question slice honoring the two flags. The input is
// never mutated: question order and each question's option order are copied
// before permuting, so the canonical document ordering stays intact for later
// reshuffles.
func (s *Shuffler) Shuffle(questions []domain.Question, shuffleQuestions, shuffleOptions bool) []domain.Question {
	out := make([]domain.Question, len(questions))
	copy(out, questions)

	if shuffleQuestions {
		s.rnd.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
	}

	if shuffleOptions {
		for i := range out {
			options := make([]domain.Option, len(out[i].Options))
			copy(options, out[i].Options)
			s.rnd.Shuffle(len(options), func(a, b int) {
				options[a], options[b] = options[b], options[a]
			})
			out[i].Options = options
		}
	}
	return out
}
