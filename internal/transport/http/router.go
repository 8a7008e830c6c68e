package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/domain"
	"exceltoquiz/internal/metrics"
	"exceltoquiz/internal/sheet"
)

// maxUploadBytes bounds multipart uploads held in memory.
const maxUploadBytes = 10 << 20

// Services are the use cases exposed over HTTP.
type Services struct {
	Author      *app.AuthorService
	Take        *app.TakeService
	Leaderboard *app.LeaderboardService
	Contact     *app.ContactService
}

type handler struct {
	svc Services
}

// NewRouter wires every route onto a ServeMux.
func NewRouter(svc Services) http.Handler {
	h := &handler{svc: svc}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /template", h.template)

	mux.HandleFunc("POST /quizzes/preview", h.preview)
	mux.HandleFunc("POST /quizzes", h.createQuiz)
	mux.HandleFunc("POST /quizzes/{id}/publish", h.publishQuiz)
	mux.HandleFunc("DELETE /quizzes/{id}", h.deleteQuiz)
	mux.HandleFunc("GET /quizzes/{id}/draft", h.quizDraft)
	mux.HandleFunc("GET /quizzes", h.listQuizzes)

	mux.HandleFunc("GET /quizzes/{id}/leaderboard", h.quizLeaderboard)
	mux.HandleFunc("GET /leaderboard", h.globalLeaderboard)
	mux.HandleFunc("POST /contact", h.contact)

	mux.HandleFunc("GET /ws", NewWSHandler(svc.Take).ServeWS)
	return mux
}

func (h *handler) template(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := sheet.WriteTemplate(&buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sheet.TemplateFileName+`"`)
	_, _ = w.Write(buf.Bytes())
}

// upload parses the multipart "file" field.
func (h *handler) upload(r *http.Request) (app.Upload, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return app.Upload{}, domain.NewError(domain.KindValidation, "upload", "Please select a file", domain.ErrInvalidInput)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return app.Upload{}, domain.NewError(domain.KindValidation, "upload", "Please select a file", domain.ErrInvalidInput)
	}
	defer file.Close()
	return h.svc.Author.Preview(file, header.Filename)
}

func (h *handler) preview(w http.ResponseWriter, r *http.Request) {
	up, err := h.upload(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}

func (h *handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	up, err := h.upload(r)
	if err != nil {
		writeError(w, err)
		return
	}
	lang, err := domain.ParseLanguage(r.FormValue("language"))
	if err != nil {
		writeError(w, err)
		return
	}
	draft := domain.QuizDraft{
		Title:            r.FormValue("title"),
		Description:      r.FormValue("description"),
		TimeLimit:        formInt(r, "time_limit"),
		QuestionsPerQuiz: formInt(r, "questions_per_quiz"),
		Language:         lang,
		FileName:         up.FileName,
		FileSize:         up.FileSize,
		Questions:        up.Questions,
	}
	id, err := h.svc.Author.Create(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"quiz_id": id, "warnings": up.Warnings})
}

func (h *handler) publishQuiz(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.Author.Publish(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"share_link": link})
}

func (h *handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Author.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) quizDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.svc.Author.Draft(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	result, err := h.svc.Author.List(r.Context(), app.Filter{
		Search:   q.Get("search"),
		Language: q.Get("language"),
		Page:     page,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) quizLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.Leaderboard.Quiz(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *handler) globalLeaderboard(w http.ResponseWriter, r *http.Request) {
	period, err := app.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, err)
		return
	}
	board, err := h.svc.Leaderboard.Global(r.Context(), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *handler) contact(w http.ResponseWriter, r *http.Request) {
	var msg domain.ContactMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&msg); err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "contact", "invalid request body", domain.ErrInvalidInput))
		return
	}
	reply, err := h.svc.Contact.Send(r.Context(), msg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": reply})
}

func formInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil {
		return 0
	}
	return n
}
