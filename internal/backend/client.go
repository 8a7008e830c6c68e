// Package backend talks to the hosted edge functions that own quizzes,
// results and accounts. Every call is a single JSON request with no retries.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"exceltoquiz/internal/domain"
	"exceltoquiz/internal/metrics"
)

var (
	// ErrServiceUnavailable wraps transport failures.
	ErrServiceUnavailable = errors.New("backend unavailable")
	// ErrRejected is returned when a function answers success=false.
	ErrRejected = errors.New("backend rejected request")
	// ErrNoData is returned when a response lacks its expected payload.
	ErrNoData = errors.New("backend returned no data")
)

const maxResponseBytes = 4 << 20

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Functions names the edge functions called for each operation.
type Functions struct {
	CreateQuiz        string `yaml:"create_quiz"`
	PublishQuiz       string `yaml:"publish_quiz"`
	DeleteQuiz        string `yaml:"delete_quiz"`
	GetQuiz           string `yaml:"get_quiz"`
	SubmitResult      string `yaml:"submit_result"`
	QuizLeaderboard   string `yaml:"quiz_leaderboard"`
	GlobalLeaderboard string `yaml:"global_leaderboard"`
	UserQuizzes       string `yaml:"user_quizzes"`
	Contact           string `yaml:"contact"`
}

// DefaultFunctions returns the deployed function names.
func DefaultFunctions() Functions {
	return Functions{
		CreateQuiz:        "create-quiz-v2",
		PublishQuiz:       "publish-quiz",
		DeleteQuiz:        "delete-quiz",
		GetQuiz:           "get-quiz",
		SubmitResult:      "submit-quiz-result-final-working",
		QuizLeaderboard:   "get-quiz-leaderboard-fixed",
		GlobalLeaderboard: "get-global-leaderboard",
		UserQuizzes:       "get-user-quizzes",
		Contact:           "submit-contact-message",
	}
}

// withDefaults fills blank names from DefaultFunctions.
func (f Functions) withDefaults() Functions {
	d := DefaultFunctions()
	return Functions{
		CreateQuiz:        orDefault(f.CreateQuiz, d.CreateQuiz),
		PublishQuiz:       orDefault(f.PublishQuiz, d.PublishQuiz),
		DeleteQuiz:        orDefault(f.DeleteQuiz, d.DeleteQuiz),
		GetQuiz:           orDefault(f.GetQuiz, d.GetQuiz),
		SubmitResult:      orDefault(f.SubmitResult, d.SubmitResult),
		QuizLeaderboard:   orDefault(f.QuizLeaderboard, d.QuizLeaderboard),
		GlobalLeaderboard: orDefault(f.GlobalLeaderboard, d.GlobalLeaderboard),
		UserQuizzes:       orDefault(f.UserQuizzes, d.UserQuizzes),
		Contact:           orDefault(f.Contact, d.Contact),
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

// TokenSource supplies the signed-in user's token and drops it on 401.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Config locates the backend.
type Config struct {
	BaseURL   string
	APIKey    string
	Functions Functions
}

// Client calls the backend's edge functions.
type Client struct {
	baseURL    string
	apiKey     string
	functions  Functions
	httpClient *http.Client
	tokens     TokenSource
}

// authMode selects the Authorization header of a call.
type authMode int

const (
	authNone authMode = iota // apikey only
	authUser                 // bearer user token
	authAnon                 // bearer anon key
)

func NewClient(cfg Config, httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     cfg.APIKey,
		functions:  cfg.Functions.withDefaults(),
		httpClient: httpClient,
		tokens:     tokens,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) call(ctx context.Context, method, function string, mode authMode, requestBody, responseBody any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveBackend(function, start, err) }()

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/functions/v1/"+function, body)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		request.Header.Set("apikey", c.apiKey)
	}
	switch mode {
	case authUser:
		if c.tokens == nil {
			return domain.ErrNotAuthenticated
		}
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		request.Header.Set("Authorization", "Bearer "+token)
	case authAnon:
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return domain.NewError(domain.KindNetwork, function, "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err))
	}
	defer response.Body.Close()

	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return domain.NewError(domain.KindNetwork, function, "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err))
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.Unmarshal(data, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
		}
		if response.StatusCode == http.StatusUnauthorized {
			if c.tokens != nil && mode == authUser {
				c.tokens.Invalidate()
			}
			return domain.NewError(domain.KindAuth, function, "Your session has expired. Please log in again.", apiErr)
		}
		return domain.NewError(kindForStatus(response.StatusCode), function, apiErr.Message, apiErr)
	}

	if responseBody == nil {
		return nil
	}
	if err := json.Unmarshal(data, responseBody); err != nil {
		return domain.NewError(domain.KindDataShape, function, "Unexpected response from server.", err)
	}
	return nil
}

func kindForStatus(status int) domain.Kind {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return domain.KindValidation
	case status == http.StatusForbidden:
		return domain.KindAuth
	case status == http.StatusNotFound:
		return domain.KindNotFound
	case status >= http.StatusInternalServerError:
		return domain.KindNetwork
	}
	return domain.KindUnknown
}

func rejected(function, message string) error {
	if strings.TrimSpace(message) == "" {
		message = "Unknown error"
	}
	return domain.NewError(domain.KindUnknown, function, message, ErrRejected)
}
