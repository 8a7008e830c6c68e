package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/domain"
	"github.com/gorilla/websocket"
)

func TestWebSocketQuizFlow(t *testing.T) {
	backend := &fakeBackend{}
	server := httptest.NewServer(NewRouter(newTestServices(backend)))
	defer server.Close()

	conn := dial(t, server.URL, "quiz-1")
	defer conn.Close()

	// Subscribing delivers the not-started snapshot first.
	_, payload := readNext(conn, t, "state")
	var snap app.Snapshot
	decode(t, payload, &snap)
	if snap.State != app.StateNotStarted || snap.Total != 2 || snap.QuizTitle != "General knowledge" {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}

	send(t, conn, "start", map[string]any{"name": "Ada", "email": "ada@example.com"})
	_, payload = readNext(conn, t, "state")
	decode(t, payload, &snap)
	if snap.State != app.StateInProgress || snap.Question == nil || snap.Question.Text != "Largest planet?" {
		t.Fatalf("unexpected started snapshot %+v", snap)
	}
	if snap.Clock != "10:00" {
		t.Fatalf("expected full clock, got %q", snap.Clock)
	}

	send(t, conn, "select", map[string]any{"option": 1})
	readNext(conn, t, "state")
	send(t, conn, "finish", nil)

	var outcome app.Outcome
	for i := 0; i < 5; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == "result" {
			decode(t, payload, &outcome)
			break
		}
	}
	if outcome.Result.Score != 50 || outcome.Result.CorrectAnswers != 1 || !outcome.Submitted {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(outcome.Review) != 2 {
		t.Fatalf("expected review of 2 questions, got %d", len(outcome.Review))
	}
	results := backend.results()
	if len(results) != 1 || results[0].ParticipantName != "Ada" || results[0].QuizID != "quiz-1" {
		t.Fatalf("unexpected submissions %+v", results)
	}
}

func TestWebSocketRejectsInvalidMessages(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestServices(&fakeBackend{})))
	defer server.Close()

	conn := dial(t, server.URL, "quiz-1")
	defer conn.Close()
	readNext(conn, t, "state")

	send(t, conn, "select", map[string]any{"option": 1})
	_, payload := readNext(conn, t, "error")
	if payload["message"] != "invalid session transition" {
		t.Fatalf("unexpected error payload %v", payload)
	}

	send(t, conn, "start", map[string]any{"name": "  "})
	_, payload = readNext(conn, t, "error")
	if payload["message"] != "participant name is required" {
		t.Fatalf("unexpected error payload %v", payload)
	}

	send(t, conn, "dance", nil)
	_, payload = readNext(conn, t, "error")
	if payload["message"] != "unsupported message type" {
		t.Fatalf("unexpected error payload %v", payload)
	}
}

func TestWebSocketDisconnectClosesSession(t *testing.T) {
	services := newTestServices(&fakeBackend{})
	server := httptest.NewServer(NewRouter(services))
	defer server.Close()

	conn := dial(t, server.URL, "quiz-1")
	_, payload := readNext(conn, t, "state")
	var snap app.Snapshot
	decode(t, payload, &snap)
	send(t, conn, "start", map[string]any{"name": "Ada"})
	readNext(conn, t, "state")

	// drop the socket without a close frame
	_ = conn.UnderlyingConn().Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, err := services.Take.Snapshot(context.Background(), snap.ID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("handler did not release session %s: %v", snap.ID, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWebSocketUnknownQuiz(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestServices(&fakeBackend{})))
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server.URL, "missing"), nil)
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("expected bad handshake, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}

func wsURL(serverURL, quizID string) string {
	return "ws" + serverURL[len("http"):] + "/ws?quizId=" + quizID
}

func dial(t *testing.T, serverURL, quizID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(serverURL, quizID), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func decode(t *testing.T, payload map[string]any, v any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
}
