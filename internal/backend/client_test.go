package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"exceltoquiz/internal/domain"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type stubTokens struct {
	token       string
	err         error
	invalidated int
}

func (s *stubTokens) Token(context.Context) (string, error) { return s.token, s.err }
func (s *stubTokens) Invalidate()                           { s.invalidated++ }

func TestTransportFailureIsNetworkError(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://example.test", APIKey: "anon"}, &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	}, nil)

	_, err := client.GetQuiz(context.Background(), "q1")
	if !errors.Is(err, ErrServiceUnavailable) || domain.KindOf(err) != domain.KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
	if got := domain.UserMessage(err); got != "Network error. Please check your connection and try again." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestGetQuizRequiresQuestions(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		if r.Header.Get("apikey") != "anon" || r.Header.Get("Authorization") != "" {
			t.Fatalf("unexpected headers %v", r.Header)
		}
		var body quizIDRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body.QuizID {
		case "ok":
			_, _ = w.Write([]byte(`{"quiz":{"id":"ok","title":"T","time_limit":10,"questions":[{"question_text":"q","options":["a","b"],"correct_answer":2,"time_limit":30}]}}`))
		default:
			_, _ = w.Write([]byte(`{"quiz":{"id":"draft","title":"T"}}`))
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/", APIKey: "anon"}, server.Client(), nil)
	quiz, err := client.GetQuiz(context.Background(), "ok")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.TimeLimitSeconds() != 600 || quiz.Questions[0].CorrectAnswer != 2 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	_, err = client.GetQuiz(context.Background(), "draft")
	if !errors.Is(err, domain.ErrQuizNotFound) || domain.UserMessage(err) != "Quiz not found or not published" {
		t.Fatalf("expected not published, got %v", err)
	}
	if calls[0] != "/functions/v1/get-quiz" {
		t.Fatalf("unexpected path %q", calls[0])
	}
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			t.Fatalf("expected user token, got %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "Invalid JWT"})
	}))
	defer server.Close()

	tokens := &stubTokens{token: "user-token"}
	client := NewClient(Config{BaseURL: server.URL, APIKey: "anon"}, server.Client(), tokens)

	_, err := client.UserQuizzes(context.Background())
	if domain.KindOf(err) != domain.KindAuth || tokens.invalidated != 1 {
		t.Fatalf("expected auth error and invalidation, got %v (%d)", err, tokens.invalidated)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Invalid JWT" {
		t.Fatalf("expected wrapped API error, got %v", err)
	}
}

func TestAuthenticatedCallWithoutSession(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://example.test"}, &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			t.Fatalf("request must not be sent without a session")
			return nil, nil
		}),
	}, &stubTokens{err: domain.ErrNotAuthenticated})

	if _, err := client.CreateQuiz(context.Background(), domain.QuizDraft{Title: "x"}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
}

func TestServerErrorMessageIsSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "Quiz must have a title"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, server.Client(), &stubTokens{token: "t"})
	_, err := client.PublishQuiz(context.Background(), "q1")
	if domain.KindOf(err) != domain.KindValidation || domain.UserMessage(err) != "Quiz must have a title" {
		t.Fatalf("expected server message, got %v", err)
	}
}

func TestServerFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, server.Client(), nil)
	_, err := client.GetQuiz(context.Background(), "q1")
	if domain.KindOf(err) != domain.KindNetwork {
		t.Fatalf("expected network error for 503, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected wrapped API error, got %v", err)
	}
	if got := domain.UserMessage(err); got != "Network error. Please check your connection and try again." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestGetQuizToleratesMalformedQuestions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"quiz":{"id":"q1","title":"T","time_limit":5,"questions":[` +
			`{"question_text":"ok","options":["a","b"],"correct_answer":1},` +
			`{"question_text":"flat","options":"a, b","correct_answer":1},` +
			`{"question_text":"mixed","options":["a",2],"correct_answer":1},` +
			`"not a question"]}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, server.Client(), nil)
	quiz, err := client.GetQuiz(context.Background(), "q1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(quiz.Questions) != 4 || quiz.Title != "T" || quiz.TimeLimit != 5 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	if !quiz.Questions[0].Renderable() || quiz.Questions[0].Options[1] != "b" {
		t.Fatalf("expected first question intact, got %+v", quiz.Questions[0])
	}
	for _, q := range quiz.Questions[1:] {
		if q.Renderable() {
			t.Fatalf("expected malformed question to be unrenderable, got %+v", q)
		}
	}
	if quiz.Questions[1].QuestionText != "flat" {
		t.Fatalf("expected remaining fields kept, got %+v", quiz.Questions[1])
	}
}

func TestSubmitResultPayload(t *testing.T) {
	var got map[string]any
	reply := `{"success":true}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/v1/submit-quiz-result-final-working" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		got = nil
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(reply))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "anon"}, server.Client(), nil)
	result := domain.Result{
		QuizID:          "q1",
		ParticipantName: "Ada",
		Score:           67,
		CorrectAnswers:  2,
		TotalQuestions:  3,
		TimeTaken:       4,
		Answers:         domain.Answers{0: 1, 2: 2},
	}
	if err := client.SubmitResult(context.Background(), result); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if email, ok := got["participant_email"]; !ok || email != nil {
		t.Fatalf("expected null email, got %v", got["participant_email"])
	}
	answers, _ := got["answers"].(map[string]any)
	if answers["0"] != float64(1) || answers["2"] != float64(2) || got["time_taken"] != float64(4) {
		t.Fatalf("unexpected payload %v", got)
	}

	reply = `{"success":false,"error":"duplicate submission"}`
	err := client.SubmitResult(context.Background(), result)
	if !errors.Is(err, ErrRejected) || domain.UserMessage(err) != "duplicate submission" {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestGlobalLeaderboard(t *testing.T) {
	reply := `{"success":true,"globalResults":[{"id":"r1","quiz_id":"q1","participant_name":"Ada","score":90,"time_taken":2,"submitted_at":"2024-05-01T10:00:00Z"}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer anon" {
			t.Fatalf("expected anon bearer, got %q", r.Header.Get("Authorization"))
		}
		var body map[string]bool
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !body["global"] {
			t.Fatalf("expected global flag")
		}
		_, _ = w.Write([]byte(reply))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "anon"}, server.Client(), nil)
	entries, err := client.GlobalLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("global: %v", err)
	}
	if len(entries) != 1 || entries[0].QuizTitle != "Unknown Quiz" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	reply = `{"success":true}`
	if _, err := client.GlobalLeaderboard(context.Background()); domain.UserMessage(err) != "No global leaderboard data available" {
		t.Fatalf("expected no data, got %v", err)
	}
}

func TestQuizLeaderboardShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"quiz":{"title":"T","description":"D"},"leaderboard":[{"participant_name":"Ada","score":80,"time_taken":3}],"stats":{"totalParticipants":1,"averageScore":80,"highestScore":80}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "anon"}, server.Client(), nil)
	board, err := client.QuizLeaderboard(context.Background(), "q1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if board.Quiz.Title != "T" || len(board.Entries) != 1 || board.Stats.HighestScore != 80 {
		t.Fatalf("unexpected board %+v", board)
	}
}

func TestContactAndCustomFunctions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/v1/contact-v2" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"Thanks!"}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:   server.URL,
		Functions: Functions{Contact: "contact-v2"},
	}, server.Client(), nil)
	reply, err := client.SubmitContact(context.Background(), domain.ContactMessage{Name: "a", Email: "b", Message: "c"})
	if err != nil || reply != "Thanks!" {
		t.Fatalf("unexpected reply %q %v", reply, err)
	}
	if client.functions.GetQuiz != "get-quiz" {
		t.Fatalf("expected defaults for unset functions, got %+v", client.functions)
	}
}
