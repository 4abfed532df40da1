package app

import (
	"math"

	"fastquiz-service/internal/domain"
)

// BuildSummary derives the post-completion report from the final run state.
// Pure: it reads its inputs and mutates nothing.
func BuildSummary(doc domain.QuizDocument, ordered []domain.Question, history []domain.AnswerRecord, score int) domain.SummaryReport {
	report := domain.SummaryReport{
		Title:       doc.Title,
		Description: doc.Description,
		Score:       score,
		Total:       len(ordered),
	}
	if len(ordered) > 0 {
		report.Percentage = int(math.Round(100 * float64(score) / float64(len(ordered))))
	}

	byQuestion := make(map[string]domain.AnswerRecord, len(history))
	for _, rec := range history {
		if _, ok := byQuestion[rec.QuestionID]; !ok {
			byQuestion[rec.QuestionID] = rec
		}
	}

	for _, q := range ordered {
		review := domain.QuestionReview{
			Question:      q,
			CorrectOption: q.CorrectOption(),
		}
		if rec, ok := byQuestion[q.ID]; ok {
			review.SelectedOption = q.FindOption(rec.SelectedOptionID)
			review.WasCorrect = rec.Correct
		}
		report.PerQuestion = append(report.PerQuestion, review)
	}
	return report
}
