package app

import (
	"strings"
	"sync"
	"time"

	"exceltoquiz/internal/domain"
)

// State is the coarse lifecycle of a quiz session.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Phase refines StateCompleted.
type Phase string

const (
	PhaseNone         Phase = ""
	PhaseSubmitting   Phase = "submitting"
	PhaseResultsShown Phase = "results_shown"
)

// Event drives a Session transition.
type Event interface{ event() }

type (
	// Start moves a session into progress for the named participant.
	Start struct{ Name, Email string }
	// Select records a 1-based option for the current question.
	Select struct{ Option int }
	// Next advances, finishing on the last question.
	Next struct{}
	// Previous steps back unless already on the first question.
	Previous struct{}
	// Tick consumes one second of the time budget.
	Tick struct{}
	// Finish ends the session with whatever answers exist.
	Finish struct{}
	// Submitted reports the outcome of delivering the result.
	Submitted struct{ Err error }
)

func (Start) event()     {}
func (Select) event()    {}
func (Next) event()      {}
func (Previous) event()  {}
func (Tick) event()      {}
func (Finish) event()    {}
func (Submitted) event() {}

// Effect tells the caller what to do after a transition.
type Effect int

const (
	EffectNone Effect = iota
	// EffectSubmit means the session just completed and its Result must be submitted.
	EffectSubmit
)

// QuestionView is the current question without its answer key.
type QuestionView struct {
	Text      string   `json:"question_text"`
	Type      string   `json:"question_type"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"time_limit"`
	ImageURL  string   `json:"image_url,omitempty"`
}

// Snapshot is an immutable view of a session.
type Snapshot struct {
	ID          string         `json:"id"`
	QuizID      string         `json:"quiz_id"`
	QuizTitle   string         `json:"quiz_title"`
	State       State          `json:"state"`
	Phase       Phase          `json:"phase,omitempty"`
	Index       int            `json:"index"`
	Total       int            `json:"total"`
	Remaining   int            `json:"remaining"`
	Clock       string         `json:"clock"`
	Participant string         `json:"participant,omitempty"`
	Answers     domain.Answers `json:"answers"`
	Question    *QuestionView  `json:"question,omitempty"`
	Unavailable bool           `json:"unavailable,omitempty"`
	Result      *domain.Result `json:"result,omitempty"`
	TimedOut    bool           `json:"timed_out,omitempty"`
	Submitted   bool           `json:"submitted,omitempty"`
	Warning     string         `json:"warning,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Session is a single participant's pass through a quiz.
type Session struct {
	id   string
	quiz domain.Quiz
	now  func() time.Time

	mu          sync.RWMutex
	state       State
	phase       Phase
	index       int
	answers     domain.Answers
	remaining   int
	name        string
	email       string
	startedAt   time.Time
	result      *domain.Result
	timedOut    bool
	submitted   bool
	warning     string
	subscribers map[chan Snapshot]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, quiz domain.Quiz) *Session {
	return NewSessionWithClock(id, quiz, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, quiz domain.Quiz, now func() time.Time) *Session {
	return &Session{
		id:          id,
		quiz:        quiz,
		now:         now,
		state:       StateNotStarted,
		answers:     make(domain.Answers),
		remaining:   quiz.TimeLimitSeconds(),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Quiz returns the quiz being taken.
func (s *Session) Quiz() domain.Quiz { return s.quiz }

// Apply runs one transition and notifies subscribers on success.
func (s *Session) Apply(ev Event) (Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	effect, err := s.applyLocked(ev)
	if err != nil {
		return EffectNone, err
	}
	s.broadcastLocked()
	return effect, nil
}

func (s *Session) applyLocked(ev Event) (Effect, error) {
	switch ev := ev.(type) {
	case Start:
		if s.state != StateNotStarted {
			return EffectNone, domain.ErrInvalidTransition
		}
		name := strings.TrimSpace(ev.Name)
		if name == "" {
			return EffectNone, domain.ErrNameRequired
		}
		s.name = name
		s.email = strings.TrimSpace(ev.Email)
		s.startedAt = s.now()
		s.remaining = s.quiz.TimeLimitSeconds()
		s.state = StateInProgress
		return EffectNone, nil

	case Select:
		if s.state != StateInProgress {
			return EffectNone, domain.ErrInvalidTransition
		}
		q, err := s.currentLocked()
		if err != nil {
			return EffectNone, err
		}
		if ev.Option < 1 || ev.Option > len(q.Options) {
			return EffectNone, domain.ErrInvalidOption
		}
		s.answers[s.index] = ev.Option
		return EffectNone, nil

	case Next:
		if s.state != StateInProgress {
			return EffectNone, domain.ErrInvalidTransition
		}
		if s.index < len(s.quiz.Questions)-1 {
			s.index++
			return EffectNone, nil
		}
		return s.finishLocked(false), nil

	case Previous:
		if s.state != StateInProgress {
			return EffectNone, domain.ErrInvalidTransition
		}
		if s.index > 0 {
			s.index--
		}
		return EffectNone, nil

	case Tick:
		// late ticks from a stopping countdown are ignored
		if s.state != StateInProgress || s.remaining <= 0 {
			return EffectNone, nil
		}
		s.remaining--
		if s.remaining == 0 {
			return s.finishLocked(true), nil
		}
		return EffectNone, nil

	case Finish:
		if s.state != StateInProgress {
			return EffectNone, domain.ErrInvalidTransition
		}
		return s.finishLocked(false), nil

	case Submitted:
		if s.state != StateCompleted || s.phase != PhaseSubmitting {
			return EffectNone, domain.ErrInvalidTransition
		}
		s.phase = PhaseResultsShown
		if ev.Err != nil {
			s.warning = "Failed to submit quiz result: " + domain.UserMessage(ev.Err)
		} else {
			s.submitted = true
		}
		return EffectNone, nil
	}
	return EffectNone, domain.ErrInvalidTransition
}

func (s *Session) finishLocked(timedOut bool) Effect {
	score := Score(s.quiz.Questions, s.answers)
	elapsed := s.now().Sub(s.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	s.result = &domain.Result{
		QuizID:           s.quiz.ID,
		ParticipantName:  s.name,
		ParticipantEmail: s.email,
		Score:            score.Percent,
		CorrectAnswers:   score.Correct,
		TotalQuestions:   score.Total,
		TimeTaken:        int(elapsed / time.Minute),
		Answers:          s.answers.Clone(),
	}
	s.timedOut = timedOut
	s.state = StateCompleted
	s.phase = PhaseSubmitting
	return EffectSubmit
}

// Current returns the question under the pointer.
func (s *Session) Current() (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() (domain.Question, error) {
	if s.index < 0 || s.index >= len(s.quiz.Questions) {
		return domain.Question{}, domain.ErrQuestionUnavailable
	}
	q := s.quiz.Questions[s.index]
	if !q.Renderable() {
		return q, domain.ErrQuestionUnavailable
	}
	return q, nil
}

// Result returns the computed result once the session completed.
func (s *Session) Result() (domain.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return domain.Result{}, false
	}
	return *s.result, true
}

// Review returns the per-question breakdown once the session completed.
func (s *Session) Review() ([]domain.QuestionReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateCompleted {
		return nil, domain.ErrInvalidTransition
	}
	return Review(s.quiz.Questions, s.answers), nil
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:          s.id,
		QuizID:      s.quiz.ID,
		QuizTitle:   s.quiz.Title,
		State:       s.state,
		Phase:       s.phase,
		Index:       s.index,
		Total:       len(s.quiz.Questions),
		Remaining:   s.remaining,
		Clock:       FormatClock(s.remaining),
		Participant: s.name,
		Answers:     s.answers.Clone(),
		TimedOut:    s.timedOut,
		Submitted:   s.submitted,
		Warning:     s.warning,
		UpdatedAt:   s.now(),
	}
	if s.result != nil {
		result := *s.result
		snap.Result = &result
	}
	if s.state == StateInProgress {
		q, err := s.currentLocked()
		if err != nil {
			snap.Unavailable = true
		} else {
			snap.Question = &QuestionView{
				Text:      q.QuestionText,
				Type:      q.QuestionType,
				Options:   append([]string(nil), q.Options...),
				TimeLimit: q.TimeLimit,
				ImageURL:  q.ImageURL,
			}
		}
	}
	return snap
}

func (s *Session) subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	// the buffer is empty, so the initial send cannot block
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the oldest snapshot so a slow reader never blocks transitions
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
