package domain

import "strings"

// Language is the primary language tag of a quiz.
type Language string

const (
	LanguageAuto    Language = "auto"
	LanguageEnglish Language = "en"
	LanguageBangla  Language = "bn"
	LanguageHindi   Language = "hi"
	LanguageMixed   Language = "mixed"
)

var languageLabels = map[Language]string{
	LanguageAuto:    "Auto-detect",
	LanguageEnglish: "English",
	LanguageBangla:  "বাংলা",
	LanguageHindi:   "हिंदी",
	LanguageMixed:   "Mixed",
}

// Languages lists the supported tags in display order.
func Languages() []Language {
	return []Language{LanguageAuto, LanguageEnglish, LanguageBangla, LanguageHindi, LanguageMixed}
}

// ParseLanguage normalises raw input; blank means auto-detect.
func ParseLanguage(raw string) (Language, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return LanguageAuto, nil
	}
	lang := Language(raw)
	if !lang.Valid() {
		return "", NewError(KindValidation, "language", "Unsupported language: "+raw, ErrInvalidInput)
	}
	return lang, nil
}

// Valid reports whether l is one of the supported tags.
func (l Language) Valid() bool {
	_, ok := languageLabels[l]
	return ok
}

// Label returns the human readable name, or the raw tag when unknown.
func (l Language) Label() string {
	if label, ok := languageLabels[l]; ok {
		return label
	}
	return string(l)
}

// Quiz configuration bounds enforced by the upload form.
const (
	DefaultTimeLimit        = 30
	MinTimeLimit            = 5
	MaxTimeLimit            = 120
	DefaultQuestionsPerQuiz = 10
	MinQuestionsPerQuiz     = 5
	MaxQuestionsPerQuiz     = 50
)

// QuizDraft is the create-quiz request built from an upload.
type QuizDraft struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	TimeLimit        int        `json:"time_limit"`
	QuestionsPerQuiz int        `json:"questions_per_quiz"`
	Language         Language   `json:"language"`
	FileName         string     `json:"file_name"`
	FileSize         int64      `json:"file_size"`
	Questions        []Question `json:"questions"`
	QuestionsCount   int        `json:"questions_count"`
}

// Normalize fills defaults the way the upload form does.
func (d *QuizDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.TimeLimit <= 0 {
		d.TimeLimit = DefaultTimeLimit
	}
	if d.QuestionsPerQuiz <= 0 {
		d.QuestionsPerQuiz = DefaultQuestionsPerQuiz
	}
	if d.Language == "" {
		d.Language = LanguageAuto
	}
	d.QuestionsCount = len(d.Questions)
}

// Validate checks a normalised draft.
func (d QuizDraft) Validate() error {
	const op = "quiz draft"
	switch {
	case d.Title == "" || len(d.Questions) == 0:
		return NewError(KindValidation, op, "Please select a file, enter a quiz title, and ensure questions are loaded", ErrInvalidInput)
	case d.TimeLimit < MinTimeLimit || d.TimeLimit > MaxTimeLimit:
		return NewError(KindValidation, op, "Time limit must be between 5 and 120 minutes", ErrInvalidInput)
	case d.QuestionsPerQuiz < MinQuestionsPerQuiz || d.QuestionsPerQuiz > MaxQuestionsPerQuiz:
		return NewError(KindValidation, op, "Questions per quiz must be between 5 and 50", ErrInvalidInput)
	case !d.Language.Valid():
		return NewError(KindValidation, op, "Unsupported language: "+string(d.Language), ErrInvalidInput)
	}
	return nil
}
