// Package sheet turns uploaded spreadsheets into question records and
// produces the downloadable template that documents the column contract.
package sheet

import (
	"fmt"
	"strings"

	"exceltoquiz/internal/domain"
)

// firstDataRow skips the header and the instructions row.
const firstDataRow = 2

// ParseRows maps a sheet grid (first row is the header) to questions in row order.
// Rows without question text or with fewer than two options are skipped.
func ParseRows(rows [][]string) ([]domain.Question, error) {
	if len(rows) < 2 {
		return nil, domain.ErrTooFewRows
	}

	cols, err := ResolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	questions := make([]domain.Question, 0, len(rows))
	for i := firstDataRow; i < len(rows); i++ {
		if q, ok := parseRow(rows[i], cols); ok {
			questions = append(questions, q)
		}
	}

	if len(questions) == 0 {
		return nil, domain.ErrNoValidQuestions
	}
	return questions, nil
}

func parseRow(row []string, cols Columns) (domain.Question, bool) {
	text := strings.TrimSpace(cell(row, cols.QuestionText))
	if text == "" {
		return domain.Question{}, false
	}

	options := make([]string, 0, domain.MaxOptions)
	for _, idx := range cols.Options {
		if opt := strings.TrimSpace(cell(row, idx)); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) < domain.MinOptions {
		return domain.Question{}, false
	}

	qType := strings.TrimSpace(cell(row, cols.QuestionType))
	if qType == "" {
		qType = domain.DefaultQuestionType
	}

	return domain.Question{
		QuestionText:  text,
		QuestionType:  qType,
		Options:       options,
		CorrectAnswer: intOr(cell(row, cols.CorrectAnswer), 1),
		TimeLimit:     intOr(cell(row, cols.TimeLimit), domain.DefaultQuestionTime),
		ImageURL:      strings.TrimSpace(cell(row, cols.ImageURL)),
		Explanation:   strings.TrimSpace(cell(row, cols.Explanation)),
	}, true
}

// intOr reads the leading integer of raw ("4", "4.0", "20 sec").
// Blank, unparsable and zero values fall back to def.
func intOr(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}

	n := 0
	for _, c := range raw[digits:end] {
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return def
		}
	}
	if raw[0] == '-' {
		n = -n
	}
	if n == 0 {
		return def
	}
	return n
}

// Warning flags a parsed question that will score oddly.
type Warning struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// Lint reports questions whose answer key cannot match any option. Such
// questions are kept as parsed and always score as incorrect.
func Lint(questions []domain.Question) []Warning {
	var warnings []Warning
	for i, q := range questions {
		if !q.HasValidAnswer() {
			warnings = append(warnings, Warning{
				Index:   i,
				Message: fmt.Sprintf("question %d: correct answer %d is outside options 1-%d", i+1, q.CorrectAnswer, len(q.Options)),
			})
		}
		if q.TimeLimit < 0 {
			warnings = append(warnings, Warning{
				Index:   i,
				Message: fmt.Sprintf("question %d: negative time limit %d", i+1, q.TimeLimit),
			})
		}
	}
	return warnings
}

// Preview returns the first n questions and how many were left out.
func Preview(questions []domain.Question, n int) ([]domain.Question, int) {
	if n < 0 || n >= len(questions) {
		return questions, 0
	}
	return questions[:n], len(questions) - n
}
