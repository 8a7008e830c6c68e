package sheet

import (
	"strings"

	"exceltoquiz/internal/domain"
)

// Columns holds the resolved index of every semantic field; -1 means absent.
type Columns struct {
	QuestionText  int
	QuestionType  int
	Options       [domain.MaxOptions]int
	CorrectAnswer int
	TimeLimit     int
	ImageURL      int
	Explanation   int
}

// header needles, matched case-insensitively as substrings
const (
	needleQuestionText  = "question text"
	needleQuestionType  = "question type"
	needleCorrectAnswer = "correct answer"
	needleTime          = "time"
	needleImage         = "image"
	needleExplanation   = "explanation"
)

var optionNeedles = [domain.MaxOptions]string{"option 1", "option 2", "option 3", "option 4", "option 5"}

// ResolveColumns locates each field in the header row. Column order does not matter.
func ResolveColumns(header []string) (Columns, error) {
	cols := Columns{
		QuestionText:  findColumn(header, needleQuestionText),
		QuestionType:  findColumn(header, needleQuestionType),
		CorrectAnswer: findColumn(header, needleCorrectAnswer),
		TimeLimit:     findColumn(header, needleTime),
		ImageURL:      findColumn(header, needleImage),
		Explanation:   findColumn(header, needleExplanation),
	}
	for i, needle := range optionNeedles {
		cols.Options[i] = findColumn(header, needle)
	}
	if cols.QuestionText == -1 || cols.Options[0] == -1 || cols.Options[1] == -1 {
		return cols, domain.ErrMissingColumns
	}
	return cols, nil
}

// findColumn returns the first header cell containing needle.
func findColumn(header []string, needle string) int {
	for i, h := range header {
		if h == "" {
			continue
		}
		if strings.Contains(strings.ToLower(h), needle) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
