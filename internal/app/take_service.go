package app

import (
	"context"
	"log"
	"sync"
	"time"

	"exceltoquiz/internal/domain"
	"exceltoquiz/internal/metrics"
	"github.com/google/uuid"
)

// SessionRepository abstracts where live quiz sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	// Save is called after every transition so stores can mirror the snapshot.
	Save(session *Session)
	Delete(sessionID string)
}

// SnapshotLoader is implemented by stores that can serve snapshots of
// sessions living in another process.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, sessionID string) (Snapshot, error)
}

// QuizRepository loads published quizzes (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultSubmitter delivers a finished result to the system of record.
type ResultSubmitter interface {
	SubmitResult(ctx context.Context, result domain.Result) error
}

// JournalEntry is the local record of one finished session.
type JournalEntry struct {
	SessionID  string
	Result     domain.Result
	Submitted  bool
	Warning    string
	TimedOut   bool
	FinishedAt time.Time
}

// ResultJournal keeps a local audit trail of finished sessions.
type ResultJournal interface {
	Record(ctx context.Context, entry JournalEntry) error
}

// Outcome is what a participant sees once a quiz is over.
type Outcome struct {
	Result    domain.Result           `json:"result"`
	Submitted bool                    `json:"submitted"`
	Warning   string                  `json:"warning,omitempty"`
	TimedOut  bool                    `json:"timed_out"`
	Message   string                  `json:"message"`
	Tier      string                  `json:"tier"`
	Review    []domain.QuestionReview `json:"review"`
}

// TakeOption configures a TakeService.
type TakeOption func(*TakeService)

// WithJournal records every finished session.
func WithJournal(j ResultJournal) TakeOption {
	return func(s *TakeService) { s.journal = j }
}

// WithClock replaces time.Now for new sessions.
func WithClock(now func() time.Time) TakeOption {
	return func(s *TakeService) { s.now = now }
}

// WithTickInterval sets the countdown period; d <= 0 disables the
// countdown so callers drive Tick themselves.
func WithTickInterval(d time.Duration) TakeOption {
	return func(s *TakeService) { s.tick = d }
}

// TakeService contains the quiz-taking use cases.
type TakeService struct {
	quizzes   QuizRepository
	sessions  SessionRepository
	submitter ResultSubmitter
	journal   ResultJournal
	now       func() time.Time
	tick      time.Duration

	mu         sync.Mutex
	countdowns map[string]*Countdown
}

func NewTakeService(quizzes QuizRepository, sessions SessionRepository, submitter ResultSubmitter, opts ...TakeOption) *TakeService {
	s := &TakeService{
		quizzes:    quizzes,
		sessions:   sessions,
		submitter:  submitter,
		now:        time.Now,
		tick:       DefaultTickInterval,
		countdowns: make(map[string]*Countdown),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads a published quiz and creates a not-started session for it.
func (s *TakeService) Open(ctx context.Context, quizID string) (Snapshot, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return Snapshot{}, err
	}
	if len(quiz.Questions) == 0 {
		return Snapshot{}, domain.ErrQuizNotFound
	}
	if quiz.ID == "" {
		quiz.ID = quizID
	}

	session := NewSessionWithClock(uuid.NewString(), quiz, s.now)
	s.sessions.Put(session)
	return session.Snapshot(), nil
}

// Start begins the quiz for the named participant and arms the countdown.
func (s *TakeService) Start(ctx context.Context, sessionID, name, email string) (Snapshot, error) {
	snap, err := s.apply(ctx, sessionID, Start{Name: name, Email: email})
	if err != nil {
		return Snapshot{}, err
	}
	metrics.SessionsStarted.Inc()
	if s.tick > 0 && snap.Remaining > 0 {
		s.armCountdown(sessionID)
	}
	return snap, nil
}

// Select records an option for the current question.
func (s *TakeService) Select(ctx context.Context, sessionID string, option int) (Snapshot, error) {
	return s.apply(ctx, sessionID, Select{Option: option})
}

// Next advances to the next question, finishing after the last one.
func (s *TakeService) Next(ctx context.Context, sessionID string) (Snapshot, error) {
	return s.apply(ctx, sessionID, Next{})
}

// Previous steps back one question.
func (s *TakeService) Previous(ctx context.Context, sessionID string) (Snapshot, error) {
	return s.apply(ctx, sessionID, Previous{})
}

// Tick consumes one second; used directly when the countdown is disabled.
func (s *TakeService) Tick(ctx context.Context, sessionID string) (Snapshot, error) {
	return s.apply(ctx, sessionID, Tick{})
}

// Finish ends the quiz early and returns the outcome.
func (s *TakeService) Finish(ctx context.Context, sessionID string) (Outcome, error) {
	if _, err := s.apply(ctx, sessionID, Finish{}); err != nil {
		return Outcome{}, err
	}
	return s.Outcome(sessionID)
}

// Outcome returns the result view of a completed session.
func (s *TakeService) Outcome(sessionID string) (Outcome, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Outcome{}, domain.ErrSessionNotFound
	}
	snap := session.Snapshot()
	if snap.State != StateCompleted || snap.Result == nil {
		return Outcome{}, domain.ErrInvalidTransition
	}
	review, err := session.Review()
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Result:    *snap.Result,
		Submitted: snap.Submitted,
		Warning:   snap.Warning,
		TimedOut:  snap.TimedOut,
		Message:   ScoreMessage(snap.Result.Score),
		Tier:      ScoreTier(snap.Result.Score),
		Review:    review,
	}, nil
}

// Snapshot returns the current view of a session, asking the store for
// sessions that are not held by this process.
func (s *TakeService) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	if session, ok := s.sessions.Get(sessionID); ok {
		return session.Snapshot(), nil
	}
	if loader, ok := s.sessions.(SnapshotLoader); ok {
		return loader.LoadSnapshot(ctx, sessionID)
	}
	return Snapshot{}, domain.ErrSessionNotFound
}

// Subscribe returns a channel that receives a snapshot after every transition.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *TakeService) Subscribe(_ context.Context, sessionID string) (<-chan Snapshot, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Close stops the countdown and discards the session.
func (s *TakeService) Close(sessionID string) {
	s.stopCountdown(sessionID)
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.closeSubscribers()
	s.sessions.Delete(sessionID)
}

func (s *TakeService) apply(ctx context.Context, sessionID string, ev Event) (Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	effect, err := session.Apply(ev)
	if err != nil {
		return Snapshot{}, err
	}
	if effect == EffectSubmit {
		s.complete(ctx, session)
	}
	s.sessions.Save(session)
	return session.Snapshot(), nil
}

// complete submits the result once and moves the session to its results.
// A failed submission never hides the score.
func (s *TakeService) complete(ctx context.Context, session *Session) {
	s.stopCountdown(session.ID())

	result, ok := session.Result()
	if !ok {
		return
	}
	trigger := "manual"
	if session.Snapshot().TimedOut {
		trigger = "timeout"
	}
	metrics.SessionsFinished.WithLabelValues(trigger).Inc()

	err := s.submitter.SubmitResult(ctx, result)
	if err != nil {
		metrics.SubmissionFailures.Inc()
		log.Printf("submit result for quiz %s: %v", result.QuizID, err)
	}
	if _, applyErr := session.Apply(Submitted{Err: err}); applyErr != nil {
		log.Printf("session %s: %v", session.ID(), applyErr)
	}

	if s.journal == nil {
		return
	}
	snap := session.Snapshot()
	entry := JournalEntry{
		SessionID:  session.ID(),
		Result:     result,
		Submitted:  snap.Submitted,
		Warning:    snap.Warning,
		TimedOut:   snap.TimedOut,
		FinishedAt: s.now(),
	}
	if err := s.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("journal result for session %s: %v", session.ID(), err)
	}
}

func (s *TakeService) armCountdown(sessionID string) {
	cd := NewCountdown(s.tick, func() bool {
		snap, err := s.apply(context.Background(), sessionID, Tick{})
		return err != nil || snap.State != StateInProgress
	})

	s.mu.Lock()
	if prev, ok := s.countdowns[sessionID]; ok {
		prev.Stop()
	}
	s.countdowns[sessionID] = cd
	s.mu.Unlock()

	go func() {
		cd.Run(context.Background())
		s.mu.Lock()
		if s.countdowns[sessionID] == cd {
			delete(s.countdowns, sessionID)
		}
		s.mu.Unlock()
	}()
}

func (s *TakeService) stopCountdown(sessionID string) {
	s.mu.Lock()
	cd, ok := s.countdowns[sessionID]
	s.mu.Unlock()
	if ok {
		cd.Stop()
	}
}
