package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"exceltoquiz/internal/domain"
	"exceltoquiz/internal/metrics"
	"exceltoquiz/internal/sheet"
)

// QuizzesPerPage is the dashboard page size.
const QuizzesPerPage = 6

// PreviewSize is how many parsed questions an upload preview shows.
const PreviewSize = 5

// QuizBackend is the authoring side of the external backend.
type QuizBackend interface {
	CreateQuiz(ctx context.Context, draft domain.QuizDraft) (string, error)
	PublishQuiz(ctx context.Context, quizID string) (string, error)
	DeleteQuiz(ctx context.Context, quizID string) error
	UserQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// DraftStore keeps a local copy of every created draft.
type DraftStore interface {
	SaveDraft(ctx context.Context, quizID string, draft domain.QuizDraft) error
	GetDraft(ctx context.Context, quizID string) (domain.QuizDraft, error)
}

// QuizCache drops cached quiz content served to participants.
type QuizCache interface {
	Invalidate(ctx context.Context, quizID string) error
}

// Upload is a parsed spreadsheet ready to become a quiz.
type Upload struct {
	FileName  string            `json:"file_name"`
	FileSize  int64             `json:"file_size"`
	Format    sheet.Format      `json:"format"`
	Questions []domain.Question `json:"questions"`
	Preview   []domain.Question `json:"preview"`
	Remaining int               `json:"remaining"`
	Warnings  []sheet.Warning   `json:"warnings,omitempty"`
}

// Filter narrows the dashboard quiz list.
type Filter struct {
	Search   string
	Language string // "all", blank or a language tag
	Page     int    // 1-based
}

// QuizPage is one page of the filtered quiz list.
type QuizPage struct {
	Quizzes    []domain.Quiz `json:"quizzes"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Total      int           `json:"total"`
}

// AuthorService covers uploading, publishing and managing quizzes.
type AuthorService struct {
	backend QuizBackend
	drafts  DraftStore
	cache   QuizCache
}

// AuthorOption configures an AuthorService.
type AuthorOption func(*AuthorService)

// WithQuizCache evicts deleted quizzes from the cache participants read from.
func WithQuizCache(cache QuizCache) AuthorOption {
	return func(s *AuthorService) { s.cache = cache }
}

// NewAuthorService builds the service; drafts may be nil.
func NewAuthorService(backend QuizBackend, drafts DraftStore, opts ...AuthorOption) *AuthorService {
	s := &AuthorService{backend: backend, drafts: drafts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview parses an uploaded file without creating anything.
func (s *AuthorService) Preview(r io.Reader, filename string) (Upload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Upload{}, domain.NewError(domain.KindFileFormat, "preview", "", err)
	}

	rows, format, err := sheet.ReadRows(bytes.NewReader(data), filename)
	if err != nil {
		metrics.SheetsParsed.WithLabelValues(string(format), "error").Inc()
		return Upload{}, err
	}
	questions, err := sheet.ParseRows(rows)
	if err != nil {
		metrics.SheetsParsed.WithLabelValues(string(format), "error").Inc()
		return Upload{}, err
	}
	metrics.SheetsParsed.WithLabelValues(string(format), "ok").Inc()

	head, rest := sheet.Preview(questions, PreviewSize)
	return Upload{
		FileName:  filename,
		FileSize:  int64(len(data)),
		Format:    format,
		Questions: questions,
		Preview:   head,
		Remaining: rest,
		Warnings:  sheet.Lint(questions),
	}, nil
}

// Create validates the draft and creates the quiz on the backend.
func (s *AuthorService) Create(ctx context.Context, draft domain.QuizDraft) (string, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return "", err
	}

	id, err := s.backend.CreateQuiz(ctx, draft)
	if err != nil {
		return "", err
	}
	if s.drafts != nil {
		if err := s.drafts.SaveDraft(ctx, id, draft); err != nil {
			log.Printf("save draft for quiz %s: %v", id, err)
		}
	}
	return id, nil
}

// Draft returns the locally stored draft a quiz was created from.
func (s *AuthorService) Draft(ctx context.Context, quizID string) (domain.QuizDraft, error) {
	if s.drafts == nil {
		return domain.QuizDraft{}, domain.NewError(domain.KindNotFound, "draft", "No local draft store is configured", domain.ErrQuizNotFound)
	}
	draft, err := s.drafts.GetDraft(ctx, quizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		return domain.QuizDraft{}, domain.NewError(domain.KindNotFound, "draft", "No local draft for this quiz", err)
	}
	return draft, err
}

// Publish makes a quiz available and returns its share link.
func (s *AuthorService) Publish(ctx context.Context, quizID string) (string, error) {
	return s.backend.PublishQuiz(ctx, quizID)
}

// Delete removes a quiz owned by the caller and evicts it from the quiz cache.
func (s *AuthorService) Delete(ctx context.Context, quizID string) error {
	if err := s.backend.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, quizID); err != nil {
			log.Printf("invalidate cached quiz %s: %v", quizID, err)
		}
	}
	return nil
}

// List returns one page of the caller's quizzes after search and language filtering.
func (s *AuthorService) List(ctx context.Context, filter Filter) (QuizPage, error) {
	quizzes, err := s.backend.UserQuizzes(ctx)
	if err != nil {
		return QuizPage{}, err
	}
	return Paginate(FilterQuizzes(quizzes, filter.Search, filter.Language), filter.Page), nil
}

// FilterQuizzes applies the case-insensitive title/description search and
// the language filter, keeping order.
func FilterQuizzes(quizzes []domain.Quiz, search, language string) []domain.Quiz {
	search = strings.ToLower(strings.TrimSpace(search))
	language = strings.ToLower(strings.TrimSpace(language))

	out := make([]domain.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		if search != "" &&
			!strings.Contains(strings.ToLower(q.Title), search) &&
			!strings.Contains(strings.ToLower(q.Description), search) {
			continue
		}
		if language != "" && language != "all" && string(q.Language) != language {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Paginate slices quizzes into QuizzesPerPage pages; page is clamped to range.
func Paginate(quizzes []domain.Quiz, page int) QuizPage {
	total := len(quizzes)
	pages := (total + QuizzesPerPage - 1) / QuizzesPerPage
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}

	start := (page - 1) * QuizzesPerPage
	end := start + QuizzesPerPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return QuizPage{
		Quizzes:    quizzes[start:end],
		Page:       page,
		TotalPages: pages,
		Total:      total,
	}
}
