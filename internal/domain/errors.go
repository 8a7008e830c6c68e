package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTooFewRows is returned when a sheet has no data row after the header.
	ErrTooFewRows = errors.New("sheet must contain at least header row and one question")
	// ErrMissingColumns is returned when a required header cannot be located.
	ErrMissingColumns = errors.New(`sheet must contain "Question Text", "Option 1", and "Option 2" columns`)
	// ErrNoValidQuestions is returned when every data row was skipped.
	ErrNoValidQuestions = errors.New("no valid questions found in sheet")
	// ErrUnsupportedFormat is returned for files that are not xlsx, xls or csv.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNotAuthenticated is returned when no session has been issued.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired is returned when the stored session can no longer be used.
	ErrSessionExpired = errors.New("session expired")

	// ErrQuizNotFound indicates the quiz does not exist or is not published.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrNameRequired is returned when starting a quiz without a participant name.
	ErrNameRequired = errors.New("participant name is required")
	// ErrInvalidTransition is returned for events that do not apply to the session state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrInvalidOption indicates a selection outside the question's option list.
	ErrInvalidOption = errors.New("option not found")
	// ErrQuestionUnavailable is returned for questions with a missing or malformed option list.
	ErrQuestionUnavailable = errors.New("question not available")
	// ErrInvalidInput marks form validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// Kind classifies errors by how they should be presented.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindFileFormat
	KindAuth
	KindNetwork
	KindNotFound
	KindDataShape
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindFileFormat:
		return "file_format"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not_found"
	case KindDataShape:
		return "data_shape"
	default:
		return "unknown"
	}
}

// Error carries a kind and a user-facing message alongside the cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// NewError builds an *Error.
func NewError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err, looking through wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnknown {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrTooFewRows), errors.Is(err, ErrMissingColumns),
		errors.Is(err, ErrNoValidQuestions), errors.Is(err, ErrUnsupportedFormat):
		return KindFileFormat
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrSessionExpired):
		return KindAuth
	case errors.Is(err, ErrQuizNotFound), errors.Is(err, ErrSessionNotFound):
		return KindNotFound
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidOption), errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrQuestionUnavailable):
		return KindDataShape
	}
	return KindUnknown
}

// UserMessage picks the message to show a user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "Please log in to continue."
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrQuizNotFound):
		return "Quiz not found or not published"
	case errors.Is(err, ErrQuestionUnavailable):
		return "Question not available"
	}
	switch KindOf(err) {
	case KindFileFormat, KindValidation, KindNotFound:
		return err.Error()
	case KindNetwork:
		return "Network error. Please check your connection and try again."
	}
	return "Something went wrong. Please try again."
}
