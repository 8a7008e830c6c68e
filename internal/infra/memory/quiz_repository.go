package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"exceltoquiz/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches published quiz content (normally the backend client).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// LoaderFunc adapts a plain function, such as a backend client method, to QuizLoader.
type LoaderFunc func(ctx context.Context, quizID string) (domain.Quiz, error)

func (f LoaderFunc) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return f(ctx, quizID)
}

// QuizRepository caches published quizzes with TTL so a participant
// reopening a quiz does not hit the backend again.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(quizID, r.clock()); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		now := r.clock()
		if quiz, ok := r.cached(quizID, now); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if r.ttl > 0 {
			r.mu.Lock()
			r.cache[quizID] = cachedQuiz{
				quiz:      quiz,
				expiresAt: now.Add(r.ttlWithJitter()),
			}
			r.mu.Unlock()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate drops a cached quiz, e.g. after it was deleted.
func (r *QuizRepository) Invalidate(_ context.Context, quizID string) error {
	r.mu.Lock()
	delete(r.cache, quizID)
	r.mu.Unlock()
	return nil
}

func (r *QuizRepository) cached(quizID string, now time.Time) (domain.Quiz, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[quizID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
