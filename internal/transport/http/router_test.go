package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/domain"
	"exceltoquiz/internal/infra/memory"
	"exceltoquiz/internal/sheet"
)

const sampleCSV = "Question Text,Option 1,Option 2,Option 3,Correct Answer\n" +
	"Text of the question,Text for option 1,,,\n" +
	"Largest planet?,Jupiter,Mars,Venus,1\n" +
	"Capital of France?,Rome,Paris,Berlin,2\n" +
	"Symbol for gold?,Au,Ag,Fe,1\n" +
	"Fastest land animal?,Cheetah,Horse,Lion,1\n" +
	"Boiling point of water?,90,100,110,2\n" +
	"Smallest prime?,1,2,3,2\n"

func TestHealthAndTemplate(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestServices(&fakeBackend{})))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/template")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	defer resp.Body.Close()
	if !strings.Contains(resp.Header.Get("Content-Disposition"), sheet.TemplateFileName) {
		t.Fatalf("unexpected disposition %q", resp.Header.Get("Content-Disposition"))
	}
	questions, err := sheet.Parse(resp.Body, sheet.TemplateFileName)
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected 5 template questions, got %d", len(questions))
	}
}

func TestPreviewUpload(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestServices(&fakeBackend{})))
	defer server.Close()

	resp := postUpload(t, server.URL+"/quizzes/preview", "quiz.csv", sampleCSV, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var up struct {
		Questions []domain.Question `json:"questions"`
		Preview   []domain.Question `json:"preview"`
		Remaining int               `json:"remaining"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(up.Questions) != 6 || len(up.Preview) != app.PreviewSize || up.Remaining != 1 {
		t.Fatalf("unexpected preview %d/%d/%d", len(up.Questions), len(up.Preview), up.Remaining)
	}
}

func TestPreviewRejectsBadSheet(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestServices(&fakeBackend{})))
	defer server.Close()

	resp := postUpload(t, server.URL+"/quizzes/preview", "quiz.csv", "Title,Answer\nx,y\n", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	body := decodeError(t, resp)
	if !strings.Contains(body, "Question Text") {
		t.Fatalf("unexpected error %q", body)
	}
}

func TestCreateQuiz(t *testing.T) {
	backend := &fakeBackend{createID: "quiz-42"}
	server := httptest.NewServer(NewRouter(newTestServices(backend)))
	defer server.Close()

	resp := postUpload(t, server.URL+"/quizzes", "quiz.csv", sampleCSV, map[string]string{
		"title":              "Science",
		"time_limit":         "15",
		"questions_per_quiz": "5",
		"language":           "en",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, decodeError(t, resp))
	}
	var created struct {
		QuizID string `json:"quiz_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.QuizID != "quiz-42" {
		t.Fatalf("unexpected id %q", created.QuizID)
	}
	draft := backend.lastDraft()
	if draft.Title != "Science" || draft.TimeLimit != 15 || draft.Language != domain.LanguageEnglish {
		t.Fatalf("unexpected draft %+v", draft)
	}
	if draft.FileName != "quiz.csv" || draft.QuestionsCount != 6 {
		t.Fatalf("unexpected draft file info %+v", draft)
	}
}

func TestCreateQuizValidation(t *testing.T) {
	backend := &fakeBackend{createID: "quiz-42"}
	server := httptest.NewServer(NewRouter(newTestServices(backend)))
	defer server.Close()

	resp := postUpload(t, server.URL+"/quizzes", "quiz.csv", sampleCSV, map[string]string{"time_limit": "500"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if backend.lastDraft().Title != "" {
		t.Fatalf("invalid draft reached the backend")
	}
}

func TestAuthErrorsMapTo401(t *testing.T) {
	backend := &fakeBackend{err: domain.NewError(domain.KindAuth, "publish", "Your session has expired. Please log in again.", domain.ErrSessionExpired)}
	server := httptest.NewServer(NewRouter(newTestServices(backend)))
	defer server.Close()

	resp, err := http.Post(server.URL+"/quizzes/quiz-1/publish", "application/json", nil)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if msg := decodeError(t, resp); msg != "Your session has expired. Please log in again." {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestPublishAndDelete(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestServices(&fakeBackend{})))
	defer server.Close()

	resp, err := http.Post(server.URL+"/quizzes/quiz-1/publish", "application/json", nil)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	var published map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&published)
	resp.Body.Close()
	if published["share_link"] != "https://example.com/quiz/quiz-1" {
		t.Fatalf("unexpected publish response %v", published)
	}

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/quizzes/quiz-1", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestDraftWithoutStoreIsNotFound(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestServices(&fakeBackend{})))
	defer server.Close()

	resp, err := http.Get(server.URL + "/quizzes/quiz-1/draft")
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if msg := decodeError(t, resp); msg != "No local draft store is configured" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestListQuizzes(t *testing.T) {
	backend := &fakeBackend{quizzes: []domain.Quiz{
		{ID: "1", Title: "Space facts", Language: domain.LanguageEnglish},
		{ID: "2", Title: "History", Language: domain.LanguageEnglish},
		{ID: "3", Title: "Space trivia", Language: domain.LanguageHindi},
	}}
	server := httptest.NewServer(NewRouter(newTestServices(backend)))
	defer server.Close()

	resp, err := http.Get(server.URL + "/quizzes?search=space&language=en")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var page app.QuizPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || len(page.Quizzes) != 1 || page.Quizzes[0].ID != "1" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestLeaderboards(t *testing.T) {
	now := time.Now().UTC()
	backend := &fakeBackend{global: []domain.GlobalEntry{
		{ParticipantName: "Ada", QuizTitle: "Space", Score: 90, SubmittedAt: now.Add(-time.Hour).Format(time.RFC3339)},
		{ParticipantName: "Old", QuizTitle: "Space", Score: 100, SubmittedAt: now.Add(-72 * time.Hour).Format(time.RFC3339)},
	}}
	server := httptest.NewServer(NewRouter(newTestServices(backend)))
	defer server.Close()

	resp, err := http.Get(server.URL + "/leaderboard?period=forever")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown period, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/leaderboard?period=today")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	defer resp.Body.Close()
	var board domain.GlobalLeaderboard
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(board.Entries) != 1 || board.Entries[0].ParticipantName != "Ada" {
		t.Fatalf("unexpected board %+v", board)
	}

	resp, err = http.Get(server.URL + "/quizzes/quiz-1/leaderboard")
	if err != nil {
		t.Fatalf("quiz leaderboard: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestContact(t *testing.T) {
	backend := &fakeBackend{}
	server := httptest.NewServer(NewRouter(newTestServices(backend)))
	defer server.Close()

	resp, err := http.Post(server.URL+"/contact", "application/json", strings.NewReader(`{"name":"Ada"}`))
	if err != nil {
		t.Fatalf("contact: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if msg := decodeError(t, resp); msg != "Please fill in all required fields." {
		t.Fatalf("unexpected message %q", msg)
	}
	resp.Body.Close()

	resp, err = http.Post(server.URL+"/contact", "application/json",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","message":"hello"}`))
	if err != nil {
		t.Fatalf("contact: %v", err)
	}
	defer resp.Body.Close()
	var reply map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&reply)
	if resp.StatusCode != http.StatusOK || reply["message"] == "" {
		t.Fatalf("unexpected reply %d %v", resp.StatusCode, reply)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNameRequired, http.StatusBadRequest},
		{domain.ErrMissingColumns, http.StatusUnprocessableEntity},
		{domain.ErrNotAuthenticated, http.StatusUnauthorized},
		{domain.ErrQuizNotFound, http.StatusNotFound},
		{domain.NewError(domain.KindNetwork, "call", "", nil), http.StatusBadGateway},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func postUpload(t *testing.T, url, filename, content string, fields map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write([]byte(content))
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

type fakeBackend struct {
	mu        sync.Mutex
	createID  string
	drafts    []domain.QuizDraft
	quizzes   []domain.Quiz
	global    []domain.GlobalEntry
	submitted []domain.Result
	err       error
}

func (f *fakeBackend) CreateQuiz(_ context.Context, draft domain.QuizDraft) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, draft)
	return f.createID, f.err
}

func (f *fakeBackend) lastDraft() domain.QuizDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.drafts) == 0 {
		return domain.QuizDraft{}
	}
	return f.drafts[len(f.drafts)-1]
}

func (f *fakeBackend) PublishQuiz(_ context.Context, quizID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://example.com/quiz/" + quizID, nil
}

func (f *fakeBackend) DeleteQuiz(context.Context, string) error { return f.err }

func (f *fakeBackend) UserQuizzes(context.Context) ([]domain.Quiz, error) {
	return f.quizzes, f.err
}

func (f *fakeBackend) QuizLeaderboard(_ context.Context, quizID string) (domain.QuizLeaderboard, error) {
	return domain.QuizLeaderboard{}, f.err
}

func (f *fakeBackend) GlobalLeaderboard(context.Context) ([]domain.GlobalEntry, error) {
	return f.global, f.err
}

func (f *fakeBackend) SubmitContact(context.Context, domain.ContactMessage) (string, error) {
	return "", f.err
}

func (f *fakeBackend) SubmitResult(_ context.Context, result domain.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, result)
	return f.err
}

func (f *fakeBackend) results() []domain.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Result(nil), f.submitted...)
}

func newTestServices(backend *fakeBackend) Services {
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID:        "quiz-1",
			Title:     "General knowledge",
			TimeLimit: 10,
			Questions: []domain.Question{
				{QuestionText: "Largest planet?", Options: []string{"Jupiter", "Mars"}, CorrectAnswer: 1, TimeLimit: 30},
				{QuestionText: "Capital of France?", Options: []string{"Rome", "Paris", "Berlin"}, CorrectAnswer: 2, TimeLimit: 30},
			},
		},
	}), time.Minute)
	return Services{
		Author:      app.NewAuthorService(backend, nil, app.WithQuizCache(quizzes)),
		Take:        app.NewTakeService(quizzes, memory.NewSessionStore(), backend, app.WithTickInterval(0)),
		Leaderboard: app.NewLeaderboardService(backend),
		Contact:     app.NewContactService(backend),
	}
}
