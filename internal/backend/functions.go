package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"exceltoquiz/internal/domain"
)

type quizIDRequest struct {
	QuizID string `json:"quiz_id"`
}

type createQuizResponse struct {
	ID     string `json:"id"`
	QuizID string `json:"quiz_id"`
	Quiz   *struct {
		ID string `json:"id"`
	} `json:"quiz"`
}

// CreateQuiz creates an unpublished quiz owned by the signed-in user.
func (c *Client) CreateQuiz(ctx context.Context, draft domain.QuizDraft) (string, error) {
	var payload createQuizResponse
	if err := c.call(ctx, http.MethodPost, c.functions.CreateQuiz, authUser, draft, &payload); err != nil {
		return "", err
	}
	switch {
	case payload.QuizID != "":
		return payload.QuizID, nil
	case payload.Quiz != nil && payload.Quiz.ID != "":
		return payload.Quiz.ID, nil
	}
	return payload.ID, nil
}

// PublishQuiz publishes a quiz and returns its share link.
func (c *Client) PublishQuiz(ctx context.Context, quizID string) (string, error) {
	var payload struct {
		ShareLink string `json:"share_link"`
	}
	if err := c.call(ctx, http.MethodPost, c.functions.PublishQuiz, authUser, quizIDRequest{QuizID: quizID}, &payload); err != nil {
		return "", err
	}
	return payload.ShareLink, nil
}

// DeleteQuiz removes a quiz owned by the signed-in user.
func (c *Client) DeleteQuiz(ctx context.Context, quizID string) error {
	return c.call(ctx, http.MethodPost, c.functions.DeleteQuiz, authUser, quizIDRequest{QuizID: quizID}, nil)
}

// GetQuiz fetches a published quiz. Payloads without a questions array
// are treated as unpublished. A malformed question only blanks that
// question, which then reports as unavailable when reached.
func (c *Client) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var payload struct {
		Quiz *quizPayload `json:"quiz"`
	}
	if err := c.call(ctx, http.MethodPost, c.functions.GetQuiz, authNone, quizIDRequest{QuizID: quizID}, &payload); err != nil {
		return domain.Quiz{}, err
	}
	if payload.Quiz == nil || payload.Quiz.Questions == nil {
		return domain.Quiz{}, domain.NewError(domain.KindNotFound, c.functions.GetQuiz, "Quiz not found or not published", domain.ErrQuizNotFound)
	}
	return payload.Quiz.quiz(), nil
}

// quizPayload shadows Quiz.Questions so each question decodes on its own.
type quizPayload struct {
	domain.Quiz
	Questions []json.RawMessage `json:"questions"`
}

func (p quizPayload) quiz() domain.Quiz {
	quiz := p.Quiz
	quiz.Questions = make([]domain.Question, 0, len(p.Questions))
	for _, raw := range p.Questions {
		quiz.Questions = append(quiz.Questions, decodeQuestion(raw))
	}
	return quiz
}

type questionPayload struct {
	domain.Question
	Options json.RawMessage `json:"options"`
}

func decodeQuestion(raw json.RawMessage) domain.Question {
	var p questionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Question{}
	}
	q := p.Question
	q.Options = nil
	var options []string
	if err := json.Unmarshal(p.Options, &options); err == nil {
		q.Options = options
	}
	return q
}

type submitResultRequest struct {
	QuizID           string         `json:"quiz_id"`
	ParticipantName  string         `json:"participant_name"`
	ParticipantEmail *string        `json:"participant_email"`
	Score            int            `json:"score"`
	CorrectAnswers   int            `json:"correct_answers"`
	TotalQuestions   int            `json:"total_questions"`
	TimeTaken        int            `json:"time_taken"`
	Answers          domain.Answers `json:"answers"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SubmitResult records a finished attempt. An empty email is sent as null.
func (c *Client) SubmitResult(ctx context.Context, result domain.Result) error {
	request := submitResultRequest{
		QuizID:          result.QuizID,
		ParticipantName: result.ParticipantName,
		Score:           result.Score,
		CorrectAnswers:  result.CorrectAnswers,
		TotalQuestions:  result.TotalQuestions,
		TimeTaken:       result.TimeTaken,
		Answers:         result.Answers,
	}
	if email := strings.TrimSpace(result.ParticipantEmail); email != "" {
		request.ParticipantEmail = &email
	}
	if request.Answers == nil {
		request.Answers = domain.Answers{}
	}

	var payload successResponse
	if err := c.call(ctx, http.MethodPost, c.functions.SubmitResult, authNone, request, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return rejected(c.functions.SubmitResult, payload.Error)
	}
	return nil
}

// QuizLeaderboard returns the backend-ranked results of one quiz.
func (c *Client) QuizLeaderboard(ctx context.Context, quizID string) (domain.QuizLeaderboard, error) {
	var board domain.QuizLeaderboard
	if err := c.call(ctx, http.MethodPost, c.functions.QuizLeaderboard, authAnon, quizIDRequest{QuizID: quizID}, &board); err != nil {
		return domain.QuizLeaderboard{}, err
	}
	if board.Entries == nil {
		board.Entries = []domain.LeaderboardEntry{}
	}
	return board, nil
}

// GlobalLeaderboard returns every recorded result across quizzes, unranked.
func (c *Client) GlobalLeaderboard(ctx context.Context) ([]domain.GlobalEntry, error) {
	var payload struct {
		Success       bool                 `json:"success"`
		Error         string               `json:"error"`
		GlobalResults []domain.GlobalEntry `json:"globalResults"`
	}
	request := struct {
		Global bool `json:"global"`
	}{Global: true}
	if err := c.call(ctx, http.MethodPost, c.functions.GlobalLeaderboard, authAnon, request, &payload); err != nil {
		return nil, err
	}
	if !payload.Success || payload.GlobalResults == nil {
		return nil, domain.NewError(domain.KindDataShape, c.functions.GlobalLeaderboard, "No global leaderboard data available", ErrNoData)
	}
	for i := range payload.GlobalResults {
		if payload.GlobalResults[i].QuizTitle == "" {
			payload.GlobalResults[i].QuizTitle = "Unknown Quiz"
		}
	}
	return payload.GlobalResults, nil
}

// UserQuizzes lists quizzes owned by the signed-in user.
func (c *Client) UserQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var payload struct {
		Quizzes []domain.Quiz `json:"quizzes"`
	}
	if err := c.call(ctx, http.MethodGet, c.functions.UserQuizzes, authUser, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Quizzes == nil {
		return []domain.Quiz{}, nil
	}
	return payload.Quizzes, nil
}

// SubmitContact forwards a contact form message and returns the confirmation.
func (c *Client) SubmitContact(ctx context.Context, msg domain.ContactMessage) (string, error) {
	var payload successResponse
	if err := c.call(ctx, http.MethodPost, c.functions.Contact, authNone, msg, &payload); err != nil {
		return "", err
	}
	if !payload.Success {
		message := payload.Error
		if message == "" {
			message = "Failed to send message. Please try again."
		}
		return "", rejected(c.functions.Contact, message)
	}
	return payload.Message, nil
}
