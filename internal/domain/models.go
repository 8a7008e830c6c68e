package domain

import (
	"strings"
	"time"
)

const (
	// DefaultQuestionType is used when a sheet row leaves the type blank.
	DefaultQuestionType = "Multiple Choice"
	// DefaultQuestionTime is the per-question time limit in seconds.
	DefaultQuestionTime = 30
	// MinOptions is the smallest option list a question can be rendered with.
	MinOptions = 2
	// MaxOptions is the number of option columns a sheet can carry.
	MaxOptions = 5
)

// Question models a multiple-choice question as uploaded from a spreadsheet.
// CorrectAnswer is a 1-based index into Options.
type Question struct {
	QuestionText  string   `json:"question_text"`
	QuestionType  string   `json:"question_type"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	TimeLimit     int      `json:"time_limit"` // seconds
	ImageURL      string   `json:"image_url,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// OptionText returns the text of the 1-based option n.
func (q Question) OptionText(n int) (string, bool) {
	if n < 1 || n > len(q.Options) {
		return "", false
	}
	return q.Options[n-1], true
}

// HasValidAnswer reports whether CorrectAnswer points at an existing option.
func (q Question) HasValidAnswer() bool {
	_, ok := q.OptionText(q.CorrectAnswer)
	return ok
}

// Renderable reports whether the question has enough options to be shown.
func (q Question) Renderable() bool {
	return len(q.Options) >= MinOptions
}

// Quiz is a collection of questions owned by a user on the backend.
type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Questions        []Question `json:"questions"`
	TimeLimit        int        `json:"time_limit"` // minutes
	QuestionsPerQuiz int        `json:"questions_per_quiz"`
	QuestionsCount   int        `json:"questions_count,omitempty"`
	Language         Language   `json:"language"`
	IsPublished      bool       `json:"is_published"`
	ShareLink        string     `json:"share_link,omitempty"`
	Status           string     `json:"status,omitempty"`
	CreatedAt        string     `json:"created_at,omitempty"`
	CreatedBy        string     `json:"created_by,omitempty"`
}

// TimeLimitSeconds converts the quiz-wide limit to seconds.
func (q Quiz) TimeLimitSeconds() int {
	return q.TimeLimit * 60
}

// Answers maps a 0-based question index to the chosen 1-based option.
type Answers map[int]int

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Score is the outcome of grading a set of answers.
type Score struct {
	Correct int `json:"correct_answers"`
	Total   int `json:"total_questions"`
	Percent int `json:"score"`
}

// Result is what gets submitted to the backend after a quiz finishes.
type Result struct {
	QuizID           string  `json:"quiz_id"`
	ParticipantName  string  `json:"participant_name"`
	ParticipantEmail string  `json:"participant_email,omitempty"`
	Score            int     `json:"score"`
	CorrectAnswers   int     `json:"correct_answers"`
	TotalQuestions   int     `json:"total_questions"`
	TimeTaken        int     `json:"time_taken"` // whole minutes
	Answers          Answers `json:"answers"`
}

// QuestionReview is the per-question breakdown shown on the results page.
type QuestionReview struct {
	Number      int    `json:"number"`
	Question    string `json:"question"`
	YourAnswer  string `json:"your_answer"`
	Correct     bool   `json:"correct"`
	RightAnswer string `json:"right_answer,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// LeaderboardEntry is a single ranked submission for one quiz.
type LeaderboardEntry struct {
	ParticipantName string `json:"participant_name"`
	Score           int    `json:"score"`
	CorrectAnswers  int    `json:"correct_answers"`
	TotalQuestions  int    `json:"total_questions"`
	TimeTaken       int    `json:"time_taken"`
	SubmittedAt     string `json:"submitted_at"`
	Percentage      int    `json:"percentage"`
}

// LeaderboardStats are computed by the backend per quiz.
type LeaderboardStats struct {
	TotalParticipants int     `json:"totalParticipants"`
	AverageScore      float64 `json:"averageScore"`
	HighestScore      int     `json:"highestScore"`
}

// QuizSummary is the quiz metadata returned alongside a leaderboard.
type QuizSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// QuizLeaderboard captures the ordered scoreboard for a quiz.
type QuizLeaderboard struct {
	Quiz    QuizSummary        `json:"quiz"`
	Entries []LeaderboardEntry `json:"leaderboard"`
	Stats   LeaderboardStats   `json:"stats"`
}

// GlobalEntry is a submission in the cross-quiz leaderboard.
type GlobalEntry struct {
	ID              string `json:"id"`
	QuizID          string `json:"quiz_id"`
	QuizTitle       string `json:"quiz_title"`
	ParticipantName string `json:"participant_name"`
	Score           int    `json:"score"`
	TotalQuestions  int    `json:"total_questions"`
	TimeTaken       int    `json:"time_taken"`
	SubmittedAt     string `json:"submitted_at"`
	Rank            int    `json:"rank"`
}

// SubmittedTime parses SubmittedAt.
func (e GlobalEntry) SubmittedTime() (time.Time, bool) {
	return ParseTimestamp(e.SubmittedAt)
}

// GlobalStats summarises a filtered global leaderboard.
type GlobalStats struct {
	TotalQuizzes      int `json:"totalQuizzes"`
	TotalParticipants int `json:"totalParticipants"`
	AverageScore      int `json:"averageScore"`
}

// GlobalLeaderboard is the ranked, filtered cross-quiz view.
type GlobalLeaderboard struct {
	Entries []GlobalEntry `json:"entries"`
	Stats   GlobalStats   `json:"stats"`
}

// ContactMessage is a support request submitted from the contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// MaxContactMessage is the longest message the contact form accepts.
const MaxContactMessage = 500

// Validate checks the required fields.
func (m ContactMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Email) == "" || strings.TrimSpace(m.Message) == "" {
		return NewError(KindValidation, "contact", "Please fill in all required fields.", ErrInvalidInput)
	}
	if len([]rune(m.Message)) > MaxContactMessage {
		return NewError(KindValidation, "contact", "Message must be 500 characters or less.", ErrInvalidInput)
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05",
}

// ParseTimestamp accepts the timestamp shapes the backend is known to emit.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
