package app

import (
	"fmt"
	"math"

	"exceltoquiz/internal/domain"
)

// Score grades answers against the answer key. A question without an
// answer, or whose key points outside its options, counts as incorrect.
func Score(questions []domain.Question, answers domain.Answers) domain.Score {
	correct := 0
	for i, q := range questions {
		if chosen, ok := answers[i]; ok && q.HasValidAnswer() && chosen == q.CorrectAnswer {
			correct++
		}
	}
	return domain.Score{
		Correct: correct,
		Total:   len(questions),
		Percent: Percent(correct, len(questions)),
	}
}

// Percent returns round(correct/total*100), or 0 for an empty quiz.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// Review builds the per-question breakdown shown after a quiz.
func Review(questions []domain.Question, answers domain.Answers) []domain.QuestionReview {
	reviews := make([]domain.QuestionReview, 0, len(questions))
	for i, q := range questions {
		chosen, answered := answers[i]
		r := domain.QuestionReview{
			Number:      i + 1,
			Question:    q.QuestionText,
			YourAnswer:  "Not answered",
			Correct:     answered && q.HasValidAnswer() && chosen == q.CorrectAnswer,
			Explanation: q.Explanation,
		}
		if text, ok := q.OptionText(chosen); answered && ok {
			r.YourAnswer = text
		}
		if text, ok := q.OptionText(q.CorrectAnswer); ok && !r.Correct {
			r.RightAnswer = text
		}
		reviews = append(reviews, r)
	}
	return reviews
}

// ScoreMessage is the encouragement line shown with a result.
func ScoreMessage(percent int) string {
	switch {
	case percent >= 90:
		return "Excellent! Outstanding performance!"
	case percent >= 80:
		return "Great job! Well done!"
	case percent >= 70:
		return "Good work! Keep it up!"
	case percent >= 60:
		return "Not bad! Room for improvement."
	default:
		return "Keep practicing! You can do better!"
	}
}

// ScoreTier buckets a percentage for colouring.
func ScoreTier(percent int) string {
	switch {
	case percent >= 80:
		return "excellent"
	case percent >= 60:
		return "good"
	default:
		return "poor"
	}
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
